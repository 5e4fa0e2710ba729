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
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jeremyhahn/go-vault/pkg/backend"
	"github.com/jeremyhahn/go-vault/pkg/logging"
	"github.com/jeremyhahn/go-vault/pkg/types"
)

// TransportKind identifies how the secure element is wired to the host.
type TransportKind string

const (
	// TransportI2C reaches the device over an I2C bus.
	TransportI2C TransportKind = "i2c"

	// TransportSWI reaches the device over the Microchip single-wire
	// interface.
	TransportSWI TransportKind = "swi"

	// TransportHID reaches the device over a USB-HID bridge.
	TransportHID TransportKind = "hid"
)

// I2CParams are the transport parameters for an I2C-attached device.
type I2CParams struct {
	// Device is the i2c-dev node, e.g. "/dev/i2c-1".
	Device string `yaml:"device" json:"device"`

	// Address is the 7-bit bus address (default: 0x60).
	Address uint8 `yaml:"address" json:"address"`

	// SpeedHz is the bus clock (default: 100000).
	SpeedHz int `yaml:"speed_hz" json:"speed_hz"`
}

// SWIParams are the transport parameters for a single-wire-attached device.
type SWIParams struct {
	// Pin is the GPIO pin identifier carrying the single-wire signal.
	Pin int `yaml:"pin" json:"pin"`

	// BaudRate is the UART emulation rate (default: 230400).
	BaudRate int `yaml:"baud_rate" json:"baud_rate"`
}

// HIDParams are the transport parameters for a USB-HID-attached device.
type HIDParams struct {
	// VendorID is the USB vendor identifier (default: 0x03EB, Microchip).
	VendorID uint16 `yaml:"vendor_id" json:"vendor_id"`

	// ProductID is the USB product identifier (default: 0x2312).
	ProductID uint16 `yaml:"product_id" json:"product_id"`
}

// TransportConfig is a tagged variant describing the device wiring. Exactly
// the parameter block matching Kind must be populated; mixed combinations
// (e.g. an i2c kind with hid parameters) are rejected during validation.
type TransportConfig struct {
	Kind TransportKind `yaml:"kind" json:"kind"`
	I2C  *I2CParams    `yaml:"i2c,omitempty" json:"i2c,omitempty"`
	SWI  *SWIParams    `yaml:"swi,omitempty" json:"swi,omitempty"`
	HID  *HIDParams    `yaml:"hid,omitempty" json:"hid,omitempty"`
}

// Validate checks the transport variant and fills transport defaults.
func (t *TransportConfig) Validate() error {
	set := 0
	if t.I2C != nil {
		set++
	}
	if t.SWI != nil {
		set++
	}
	if t.HID != nil {
		set++
	}
	if set > 1 {
		return fmt.Errorf("%w: multiple transport parameter blocks set", backend.ErrInvalidConfig)
	}

	switch t.Kind {
	case TransportI2C:
		if t.SWI != nil || t.HID != nil {
			return fmt.Errorf("%w: i2c transport with non-i2c parameters", backend.ErrInvalidConfig)
		}
		if t.I2C == nil {
			t.I2C = &I2CParams{}
		}
		if t.I2C.Device == "" {
			t.I2C.Device = "/dev/i2c-1"
		}
		if t.I2C.Address == 0 {
			t.I2C.Address = 0x60
		}
		if t.I2C.SpeedHz == 0 {
			t.I2C.SpeedHz = 100000
		}
	case TransportSWI:
		if t.I2C != nil || t.HID != nil {
			return fmt.Errorf("%w: swi transport with non-swi parameters", backend.ErrInvalidConfig)
		}
		if t.SWI == nil {
			return fmt.Errorf("%w: swi transport requires a pin", backend.ErrInvalidConfig)
		}
		if t.SWI.BaudRate == 0 {
			t.SWI.BaudRate = 230400
		}
	case TransportHID:
		if t.I2C != nil || t.SWI != nil {
			return fmt.Errorf("%w: hid transport with non-hid parameters", backend.ErrInvalidConfig)
		}
		if t.HID == nil {
			t.HID = &HIDParams{}
		}
		if t.HID.VendorID == 0 {
			t.HID.VendorID = 0x03EB
		}
		if t.HID.ProductID == 0 {
			t.HID.ProductID = 0x2312
		}
	default:
		return fmt.Errorf("%w: unknown transport kind %q", backend.ErrInvalidConfig, t.Kind)
	}
	return nil
}

// Config holds the configuration for the ATECC secure element backend.
// It is the vendor-neutral rendering of the hardware interface descriptor:
// transport variant, static key slot and optional I/O-protection key.
type Config struct {
	// Transport describes how the device is wired.
	Transport TransportConfig `yaml:"transport" json:"transport"`

	// StaticKeySlot is the device slot (0..15) holding the long-term,
	// non-exportable ECDH private key. Fixed for the backend lifetime.
	StaticKeySlot uint8 `yaml:"static_key_slot" json:"static_key_slot"`

	// IOKey is the optional 32-byte I/O-protection key, hex encoded.
	// When present the device returns the ECDH premaster encrypted under
	// this key (device-pairing mode); when absent I/O is in the clear.
	// The decoded secret is held write-once and never logged or emitted.
	IOKey string `yaml:"io_key" json:"-"`

	// Deadline is the per-command transport deadline (default: 2s).
	// Expiry surfaces as a transport error and degrades the backend.
	Deadline types.Duration `yaml:"transport_deadline" json:"transport_deadline"`

	// UseSimulator replaces the hardware with an in-process simulator.
	UseSimulator bool `yaml:"use_simulator" json:"use_simulator"`

	// Logger is the logger instance to use
	Logger *logging.Logger `yaml:"-" json:"-"`

	// Device overrides device bring-up entirely. Takes precedence over
	// UseSimulator and Transport. Test and custom-driver use.
	Device Device `yaml:"-" json:"-"`

	// CustomTransport supplies a caller-provided transport for wirings
	// without a built-in driver (swi, hid).
	CustomTransport Transport `yaml:"-" json:"-"`

	ioKey []byte
}

// Validate validates the secure element configuration and fills defaults.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", backend.ErrInvalidConfig)
	}
	if c.Device == nil && !c.UseSimulator && c.CustomTransport == nil {
		if err := c.Transport.Validate(); err != nil {
			return err
		}
	}
	if c.StaticKeySlot > 15 {
		return fmt.Errorf("%w: static key slot %d out of range 0..15",
			backend.ErrInvalidConfig, c.StaticKeySlot)
	}
	if c.IOKey != "" {
		key, err := hex.DecodeString(c.IOKey)
		if err != nil {
			return fmt.Errorf("%w: io_key is not valid hex", backend.ErrInvalidConfig)
		}
		if len(key) != 32 {
			return fmt.Errorf("%w: io_key must decode to 32 bytes, got %d",
				backend.ErrInvalidConfig, len(key))
		}
		c.ioKey = key
		c.IOKey = ""
	}
	if c.Deadline == 0 {
		c.Deadline = types.Duration(2 * time.Second)
	}
	if c.Logger == nil {
		c.Logger = logging.DefaultLogger()
	}
	return nil
}

// SetIOKey installs the 32-byte I/O-protection key programmatically.
// The key is write-once; installing a second key is rejected.
func (c *Config) SetIOKey(key []byte) error {
	if c.ioKey != nil {
		return fmt.Errorf("%w: io_key already set", backend.ErrInvalidConfig)
	}
	if len(key) != 32 {
		return fmt.Errorf("%w: io_key must be 32 bytes, got %d", backend.ErrInvalidConfig, len(key))
	}
	c.ioKey = append([]byte(nil), key...)
	return nil
}

// PairingMode returns true when an I/O-protection key is installed.
func (c *Config) PairingMode() bool {
	return c.ioKey != nil
}
