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

	"github.com/jeremyhahn/go-vault/pkg/backend"
	"github.com/jeremyhahn/go-vault/pkg/types"
)

// Backend drives a Microchip ATECC508A-class secure element through the
// configured transport. Key agreement uses the private key pinned in the
// static key slot; the key never leaves the device. Primitives the part has
// no engine for (HKDF, AES-GCM) report unsupported so routing fallback can
// engage.
type Backend struct {
	config      *Config
	dev         Device
	transport   Transport
	initialized bool
}

var _ backend.Backend = (*Backend)(nil)

// NewBackend creates a new secure element backend with the given
// configuration. The device is not touched until Init.
func NewBackend(config *Config) (*Backend, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", backend.ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Backend{config: config}, nil
}

// ID returns the secure element backend identifier.
func (b *Backend) ID() types.BackendID {
	return types.ATECC508A
}

// Capabilities reports the ATECC508A capability set.
func (b *Backend) Capabilities() types.Capabilities {
	return types.NewATECC508ACapabilities()
}

// Init wakes the device on its transport and verifies the part revision.
// Init is idempotent after a failed bring-up; the vault facade relies on
// that to retry a degraded backend once.
func (b *Backend) Init() error {
	if b.initialized {
		return backend.ErrAlreadyInitialized
	}

	dev, transport, err := b.bringUp()
	if err != nil {
		return err
	}

	rev, err := dev.Revision()
	if err != nil {
		_ = dev.Close()
		return err
	}
	if !isATECC508A(rev) {
		_ = dev.Close()
		return fmt.Errorf("%w: unexpected part revision % x", backend.ErrDeviceAbsent, rev)
	}

	b.dev = dev
	b.transport = transport
	b.initialized = true
	b.config.Logger.Debug("atecc: backend initialized",
		"slot", b.config.StaticKeySlot, "pairing", b.config.PairingMode())
	return nil
}

func (b *Backend) bringUp() (Device, Transport, error) {
	if b.config.Device != nil {
		return b.config.Device, nil, nil
	}

	var transport Transport
	if b.config.UseSimulator && b.config.CustomTransport == nil {
		sim := NewSimulator()
		if _, err := sim.ProvisionSlot(b.config.StaticKeySlot); err != nil {
			return nil, nil, err
		}
		if b.config.PairingMode() {
			sim.SetIOKey(b.config.ioKey)
		}
		transport = sim
	} else {
		var err error
		transport, err = openTransport(b.config)
		if err != nil {
			return nil, nil, err
		}
	}

	dev, err := newDevice(transport, b.config.Deadline.Duration(), b.config.ioKey)
	if err != nil {
		_ = transport.Close()
		return nil, nil, err
	}
	return dev, transport, nil
}

// Rand pulls n bytes from the device TRNG in 32-byte draws.
func (b *Backend) Rand(n int) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", backend.ErrInvalidInput, n)
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		chunk, err := b.dev.Random()
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out[:n], nil
}

// ECDH performs P-256 key agreement in the device using the static key
// slot. peer is a SEC1 uncompressed point.
func (b *Backend) ECDH(peer []byte) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	if len(peer) != 65 || peer[0] != 0x04 {
		return nil, fmt.Errorf("%w: peer must be a SEC1 uncompressed P-256 point (65 bytes)",
			backend.ErrInvalidInput)
	}
	var point [64]byte
	copy(point[:], peer[1:])
	premaster, err := b.dev.ECDH(b.config.StaticKeySlot, point)
	if err != nil {
		return nil, err
	}
	return premaster[:], nil
}

// HKDF is not implemented by the ATECC508A.
func (b *Backend) HKDF(salt, ikm, info []byte, length int) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	return nil, fmt.Errorf("%w: atecc508a has no hkdf engine", backend.ErrUnsupported)
}

// AESGCMSeal is not implemented by the ATECC508A.
func (b *Backend) AESGCMSeal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	return nil, fmt.Errorf("%w: atecc508a has no aes engine", backend.ErrUnsupported)
}

// AESGCMOpen is not implemented by the ATECC508A.
func (b *Backend) AESGCMOpen(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	return nil, fmt.Errorf("%w: atecc508a has no aes engine", backend.ErrUnsupported)
}

// Close puts the device to sleep and releases the transport. Idempotent.
func (b *Backend) Close() error {
	if !b.initialized {
		return nil
	}
	b.initialized = false
	if b.dev != nil {
		err := b.dev.Close()
		b.dev = nil
		b.transport = nil
		return err
	}
	return nil
}
