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

// Package cli implements the vault command line driver.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-vault/internal/config"
	"github.com/jeremyhahn/go-vault/pkg/logging"
	"github.com/jeremyhahn/go-vault/pkg/vault"
)

var (
	configFile string
	debug      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vault",
	Short: "go-vault CLI - provider-routed cryptographic vault",
	Long: `go-vault CLI drives a cryptographic vault that routes each primitive
(random, ecdh, hkdf, aes-gcm) to a configured backend: the host software
provider or a secure element such as the Microchip ATECC508A.

Routing and the hardware interface descriptor come from a yaml
configuration file; see examples/atecc508a.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "vault.yaml",
		"path to the vault configuration file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"enable debug logging")

	rootCmd.AddCommand(randCmd)
	rootCmd.AddCommand(ecdhCmd)
	rootCmd.AddCommand(hkdfCmd)
	rootCmd.AddCommand(sealCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(versionCmd)
}

// newVault loads the configuration and creates a vault context. Callers
// own the returned context and must Close it.
func newVault() (*vault.Vault, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	return cfg.BuildVault(logging.NewLogger(debug))
}
