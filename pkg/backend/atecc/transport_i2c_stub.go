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

//go:build !linux

package atecc

import (
	"fmt"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

// openI2C is only implemented for the Linux i2c-dev interface. Other
// platforms must supply a Transport through Config.CustomTransport.
func openI2C(params *I2CParams) (Transport, error) {
	return nil, fmt.Errorf("%w: i2c transport is only built in on linux", backend.ErrUnsupported)
}
