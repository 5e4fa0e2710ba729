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
	"errors"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

// Tool exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitInvalidConfig = 2
	ExitDeviceAbsent  = 3
	ExitTransport     = 4
	ExitAuthFailed    = 5
)

// ExitCode maps an error from the closed error set to the tool exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, backend.ErrInvalidConfig):
		return ExitInvalidConfig
	case errors.Is(err, backend.ErrDeviceAbsent):
		return ExitDeviceAbsent
	case errors.Is(err, backend.ErrTransport):
		return ExitTransport
	case errors.Is(err, backend.ErrAuthenticationFailed):
		return ExitAuthFailed
	default:
		return ExitFailure
	}
}
