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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

var randCmd = &cobra.Command{
	Use:   "rand [bytes]",
	Short: "Generate random bytes through the routed backend",
	Long: `Generates cryptographically strong random bytes through the backend
routed for the rand primitive and prints them hex encoded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 32
		if len(args) == 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed <= 0 {
				return fmt.Errorf("%w: byte count %q", backend.ErrInvalidInput, args[0])
			}
			n = parsed
		}

		v, err := newVault()
		if err != nil {
			return err
		}
		defer func() { _ = v.Close() }()

		out, err := v.Rand(n)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(out))
		return nil
	},
}
