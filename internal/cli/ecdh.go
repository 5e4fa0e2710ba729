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

var ecdhPeer string

var ecdhCmd = &cobra.Command{
	Use:   "ecdh",
	Short: "Perform ECDH key agreement with the routed backend's static key",
	Long: `Performs P-256 key agreement between the routed backend's static key
and the peer public key, and prints the shared secret hex encoded.

The peer key is a SEC1 uncompressed point: 65 bytes, 0x04 prefix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		peer, err := hex.DecodeString(ecdhPeer)
		if err != nil {
			return fmt.Errorf("%w: peer is not valid hex", backend.ErrInvalidInput)
		}

		v, err := newVault()
		if err != nil {
			return err
		}
		defer func() { _ = v.Close() }()

		shared, err := v.ECDH(peer)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(shared))
		return nil
	},
}

func init() {
	ecdhCmd.Flags().StringVar(&ecdhPeer, "peer", "", "peer public key (SEC1 uncompressed, hex)")
	_ = ecdhCmd.MarkFlagRequired("peer")
}
