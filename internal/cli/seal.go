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
	"io"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

var (
	sealKey   string
	sealNonce string
	sealAAD   string
)

var sealCmd = &cobra.Command{
	Use:   "seal [plaintext-hex]",
	Short: "AES-GCM encrypt and authenticate a buffer",
	Long: `Seals a buffer with AES-GCM through the routed backend and prints
nonce || ciphertext || tag, hex encoded.

The plaintext is given as a hex argument or read raw from stdin. When no
nonce is given a fresh 96-bit nonce is drawn through the rand routing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := hex.DecodeString(sealKey)
		if err != nil {
			return fmt.Errorf("%w: key is not valid hex", backend.ErrInvalidInput)
		}
		aad, err := hex.DecodeString(sealAAD)
		if err != nil {
			return fmt.Errorf("%w: aad is not valid hex", backend.ErrInvalidInput)
		}

		var plaintext []byte
		if len(args) == 1 {
			plaintext, err = hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("%w: plaintext is not valid hex", backend.ErrInvalidInput)
			}
		} else {
			plaintext, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
		}

		v, err := newVault()
		if err != nil {
			return err
		}
		defer func() { _ = v.Close() }()

		var nonce []byte
		if sealNonce != "" {
			nonce, err = hex.DecodeString(sealNonce)
			if err != nil {
				return fmt.Errorf("%w: nonce is not valid hex", backend.ErrInvalidInput)
			}
		} else {
			nonce, err = v.Rand(backend.GCMNonceSize)
			if err != nil {
				return err
			}
		}

		sealed, err := v.AESGCMSeal(key, nonce, aad, plaintext)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(append(nonce, sealed...)))
		return nil
	},
}

func init() {
	sealCmd.Flags().StringVar(&sealKey, "key", "", "AES key, 16/24/32 bytes (hex)")
	sealCmd.Flags().StringVar(&sealNonce, "nonce", "", "optional 96-bit nonce (hex)")
	sealCmd.Flags().StringVar(&sealAAD, "aad", "", "optional additional authenticated data (hex)")
	_ = sealCmd.MarkFlagRequired("key")
}
