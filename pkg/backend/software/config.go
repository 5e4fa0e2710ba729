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

package software

import (
	"crypto/ecdh"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-vault/pkg/backend"
	"github.com/jeremyhahn/go-vault/pkg/logging"
)

// EntropyPolicy selects the random source for the software backend.
type EntropyPolicy string

const (
	// EntropyOS draws from the operating system CSPRNG (crypto/rand).
	// This is the only policy that produces randomness; there is no weak
	// software fallback.
	EntropyOS EntropyPolicy = "os"

	// EntropyNone disables the random primitive. Rand returns
	// ErrEntropyExhausted. Useful for builds where all randomness must
	// come from a secure element.
	EntropyNone EntropyPolicy = "none"
)

// Config holds the configuration for the host software backend.
type Config struct {
	// Entropy selects the random source policy (default: os).
	Entropy EntropyPolicy `yaml:"entropy" json:"entropy"`

	// StaticKey is an optional pre-provisioned P-256 private key for ECDH.
	// When nil a fresh key is generated during Init.
	StaticKey *ecdh.PrivateKey `yaml:"-" json:"-"`

	// Logger is the logger instance to use
	Logger *logging.Logger `yaml:"-" json:"-"`

	// Reader overrides the entropy reader. Test use only; nil means the
	// OS CSPRNG.
	Reader io.Reader `yaml:"-" json:"-"`
}

// Validate validates the software backend configuration and fills defaults.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", backend.ErrInvalidConfig)
	}
	if c.Entropy == "" {
		c.Entropy = EntropyOS
	}
	switch c.Entropy {
	case EntropyOS, EntropyNone:
	default:
		return fmt.Errorf("%w: unknown entropy policy %q", backend.ErrInvalidConfig, c.Entropy)
	}
	if c.Logger == nil {
		c.Logger = logging.DefaultLogger()
	}
	return nil
}
