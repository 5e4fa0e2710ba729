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
	"fmt"

	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List configured backends and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := newVault()
		if err != nil {
			return err
		}
		defer func() { _ = v.Close() }()

		for _, status := range v.Backends() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", status.ID, status.Capabilities)
		}
		return nil
	},
}
