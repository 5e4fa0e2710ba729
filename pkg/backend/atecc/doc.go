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

// Package atecc provides a backend.Backend implementation for Microchip
// ATECC508A-class secure elements.
//
// The package is split into three layers:
//
//   - Backend: the capability interface the vault dispatches through.
//     Random pulls from the device TRNG and ECDH uses the non-exportable
//     private key pinned in the static key slot. HKDF and AES-GCM report
//     unsupported on this part so the routing table can fall back to the
//     host software backend.
//   - Device: the command layer. Frames wake/info/random/ecdh packets with
//     the device CRC-16, decodes status responses, and unwraps the
//     I/O-protection pad when the backend runs in device-pairing mode.
//   - Transport: the wire. A Linux i2c-dev driver is built in; single-wire
//     and USB-HID wirings take a caller-supplied Transport. An in-process
//     Simulator answers at this layer for tests and hardware-free builds.
//
// Usage:
//
//	config := &atecc.Config{
//	    Transport: atecc.TransportConfig{
//	        Kind: atecc.TransportI2C,
//	        I2C:  &atecc.I2CParams{Device: "/dev/i2c-1", Address: 0x60},
//	    },
//	    StaticKeySlot: 0,
//	}
//	b, err := atecc.NewBackend(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	entropy, err := b.Rand(32)
package atecc
