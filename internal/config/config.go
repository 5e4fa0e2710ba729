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

// Package config loads the declarative vault configuration: the routing
// slots and the hardware interface descriptor for the secure element.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-vault/pkg/backend"
	"github.com/jeremyhahn/go-vault/pkg/backend/atecc"
	"github.com/jeremyhahn/go-vault/pkg/backend/software"
	"github.com/jeremyhahn/go-vault/pkg/logging"
	"github.com/jeremyhahn/go-vault/pkg/types"
	"github.com/jeremyhahn/go-vault/pkg/vault"
)

// Config is the on-disk configuration record.
type Config struct {
	// Routing names one or more backends per primitive.
	Routing vault.Routing `yaml:"routing"`

	// Host configures the host software backend.
	Host *software.Config `yaml:"host,omitempty"`

	// HW is the hardware interface descriptor for the secure element.
	// Required when the routing references one.
	HW *atecc.Config `yaml:"hw,omitempty"`
}

// Load reads and validates a yaml configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrInvalidConfig, err)
	}
	return Parse(data)
}

// Parse decodes and validates a yaml configuration document. Unknown fields
// are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the routing and the descriptors it requires.
func (c *Config) Validate() error {
	if err := c.Routing.Validate(); err != nil {
		return err
	}
	for _, id := range c.Routing.Referenced() {
		switch {
		case id == types.HostSoftware():
		case id == types.ATECC508A:
			if c.HW == nil {
				return fmt.Errorf("%w: routing references %s but no hw descriptor is configured",
					backend.ErrInvalidConfig, id)
			}
		default:
			return fmt.Errorf("%w: no driver for backend %s", backend.ErrInvalidConfig, id)
		}
	}
	if c.Host == nil {
		c.Host = &software.Config{}
	}
	if err := c.Host.Validate(); err != nil {
		return err
	}
	if c.HW != nil {
		if err := c.HW.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BuildVault constructs the configured backends and creates the vault
// context.
func (c *Config) BuildVault(logger *logging.Logger) (*vault.Vault, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	c.Host.Logger = logger

	backends := make([]backend.Backend, 0, 2)
	host, err := software.NewBackend(c.Host)
	if err != nil {
		return nil, err
	}
	backends = append(backends, host)

	for _, id := range c.Routing.Referenced() {
		if id == types.ATECC508A {
			c.HW.Logger = logger
			se, err := atecc.NewBackend(c.HW)
			if err != nil {
				return nil, err
			}
			backends = append(backends, se)
			break
		}
	}

	return vault.New(&vault.Config{
		Routing:  c.Routing,
		Backends: backends,
		Logger:   logger,
	})
}
