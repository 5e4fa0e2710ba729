// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-vault.
//
// go-vault is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

var (
	openKey string
	openAAD string
)

var openCmd = &cobra.Command{
	Use:   "open <sealed-hex>",
	Short: "AES-GCM authenticate and decrypt a sealed buffer",
	Long: `Opens a buffer produced by seal: nonce || ciphertext || tag, hex
encoded. Prints the plaintext hex encoded. A tampered buffer exits with
code 5.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := hex.DecodeString(openKey)
		if err != nil {
			return fmt.Errorf("%w: key is not valid hex", backend.ErrInvalidInput)
		}
		aad, err := hex.DecodeString(openAAD)
		if err != nil {
			return fmt.Errorf("%w: aad is not valid hex", backend.ErrInvalidInput)
		}
		sealed, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("%w: sealed buffer is not valid hex", backend.ErrInvalidInput)
		}
		if len(sealed) < backend.GCMNonceSize+backend.GCMTagSize {
			return fmt.Errorf("%w: sealed buffer too short", backend.ErrInvalidInput)
		}

		v, err := newVault()
		if err != nil {
			return err
		}
		defer func() { _ = v.Close() }()

		nonce := sealed[:backend.GCMNonceSize]
		plaintext, err := v.AESGCMOpen(key, nonce, aad, sealed[backend.GCMNonceSize:])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(plaintext))
		return nil
	},
}

func init() {
	openCmd.Flags().StringVar(&openKey, "key", "", "AES key, 16/24/32 bytes (hex)")
	openCmd.Flags().StringVar(&openAAD, "aad", "", "optional additional authenticated data (hex)")
	_ = openCmd.MarkFlagRequired("key")
}
