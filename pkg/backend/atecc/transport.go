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

package atecc

import (
	"fmt"
	"time"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

// Transport moves raw command packets between the host and the secure
// element. Transports are serial; the command layer issues one exchange at a
// time and never pipelines.
type Transport interface {
	// Wake brings the device out of sleep. Returns backend.ErrDeviceAbsent
	// when nothing answers on the wire.
	Wake() error

	// Exchange writes a command packet and reads the response frame,
	// waiting up to deadline for the device to finish execution. Returns
	// backend.ErrTransport on bus failure or deadline expiry.
	Exchange(packet []byte, deadline time.Duration) ([]byte, error)

	// Close releases the bus handle.
	Close() error
}

// openTransport brings up the built-in transport for the configured wiring.
// Only I2C has an in-tree driver; single-wire and USB-HID wirings require a
// caller-supplied Transport in Config.CustomTransport.
func openTransport(cfg *Config) (Transport, error) {
	if cfg.CustomTransport != nil {
		return cfg.CustomTransport, nil
	}
	switch cfg.Transport.Kind {
	case TransportI2C:
		return openI2C(cfg.Transport.I2C)
	case TransportSWI:
		return nil, fmt.Errorf("%w: swi wiring requires a caller-supplied transport", backend.ErrUnsupported)
	case TransportHID:
		return nil, fmt.Errorf("%w: hid wiring requires a caller-supplied transport", backend.ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: unknown transport kind %q", backend.ErrInvalidConfig, cfg.Transport.Kind)
	}
}
