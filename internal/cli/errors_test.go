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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

// TestExitCode verifies the closed error set maps to stable exit codes,
// including wrapped errors
func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{backend.ErrInvalidConfig, ExitInvalidConfig},
		{fmt.Errorf("%w: slot out of range", backend.ErrInvalidConfig), ExitInvalidConfig},
		{backend.ErrDeviceAbsent, ExitDeviceAbsent},
		{backend.ErrTransport, ExitTransport},
		{fmt.Errorf("%w: bus timeout", backend.ErrTransport), ExitTransport},
		{backend.ErrAuthenticationFailed, ExitAuthFailed},
		{backend.ErrUnsupported, ExitFailure},
		{backend.ErrSlotEmpty, ExitFailure},
		{errors.New("anything else"), ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err))
	}
}
