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
	hkdfSalt   string
	hkdfIKM    string
	hkdfInfo   string
	hkdfLength int
)

var hkdfCmd = &cobra.Command{
	Use:   "hkdf",
	Short: "Derive keying material with RFC 5869 HKDF-SHA256",
	RunE: func(cmd *cobra.Command, args []string) error {
		salt, err := hex.DecodeString(hkdfSalt)
		if err != nil {
			return fmt.Errorf("%w: salt is not valid hex", backend.ErrInvalidInput)
		}
		ikm, err := hex.DecodeString(hkdfIKM)
		if err != nil {
			return fmt.Errorf("%w: ikm is not valid hex", backend.ErrInvalidInput)
		}
		info, err := hex.DecodeString(hkdfInfo)
		if err != nil {
			return fmt.Errorf("%w: info is not valid hex", backend.ErrInvalidInput)
		}

		v, err := newVault()
		if err != nil {
			return err
		}
		defer func() { _ = v.Close() }()

		okm, err := v.HKDF(salt, ikm, info, hkdfLength)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(okm))
		return nil
	},
}

func init() {
	hkdfCmd.Flags().StringVar(&hkdfSalt, "salt", "", "optional salt (hex)")
	hkdfCmd.Flags().StringVar(&hkdfIKM, "ikm", "", "input keying material (hex)")
	hkdfCmd.Flags().StringVar(&hkdfInfo, "info", "", "context info (hex)")
	hkdfCmd.Flags().IntVar(&hkdfLength, "length", 32, "output length in bytes")
	_ = hkdfCmd.MarkFlagRequired("ikm")
}
