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

// Package backend defines the capability interface every vault provider
// implements, along with the closed error set shared by all providers.
//
// A provider brokers five operations: bring-up, random number generation,
// P-256 ECDH key agreement, RFC 5869 HKDF, and AES-GCM authenticated
// encryption. A provider that cannot perform an operation must return
// ErrUnsupported rather than silently succeed; the routing layer in
// pkg/vault treats ErrUnsupported as the only recoverable dispatch result.
package backend

import (
	"github.com/jeremyhahn/go-vault/pkg/types"
)

// AES-GCM wire parameters per NIST SP 800-38D. Nonces are always 96 bits
// and tags 128 bits; other sizes are rejected as invalid input.
const (
	GCMNonceSize = 12
	GCMTagSize   = 16
)

// MaxHKDFLength is the RFC 5869 expand limit for HKDF-SHA256 (255 * HashLen).
const MaxHKDFLength = 255 * 32

// Backend is the uniform contract every vault provider fulfills.
//
// Implementations are not required to be safe for concurrent use; the vault
// facade serializes access to each backend because secure-element transports
// (I2C, single-wire, USB-HID) are inherently serial and host crypto libraries
// are not guaranteed thread-safe.
type Backend interface {
	// ID returns the backend identifier used by routing configurations.
	ID() types.BackendID

	// Capabilities returns which primitives this backend supports.
	Capabilities() types.Capabilities

	// Init performs backend-specific bring-up. Calling Init on an
	// initialized backend returns ErrAlreadyInitialized. Hardware backends
	// return ErrDeviceAbsent when the part cannot be reached and
	// ErrTransport on bus-level failures.
	//
	// Init must be idempotent after a failed bring-up so the facade can
	// retry it once for a degraded backend.
	Init() error

	// Rand returns n cryptographically strong random bytes. Hardware
	// backends pull from the device TRNG. Returns ErrEntropyExhausted when
	// the entropy source refuses to produce output.
	Rand(n int) ([]byte, error)

	// ECDH performs P-256 key agreement between the backend's static key
	// and peer, a SEC1 uncompressed point (65 bytes, 0x04 prefix), and
	// returns the 32-byte shared secret. A peer value that is not a valid
	// point on the curve returns ErrInvalidInput. Returns ErrSlotEmpty
	// when no static key has been provisioned.
	ECDH(peer []byte) ([]byte, error)

	// HKDF derives length bytes of output keying material from ikm using
	// RFC 5869 extract-then-expand with SHA-256. length greater than
	// MaxHKDFLength returns ErrInvalidInput.
	HKDF(salt, ikm, info []byte, length int) ([]byte, error)

	// AESGCMSeal encrypts and authenticates plaintext with AES-GCM and
	// returns ciphertext with the 16-byte tag appended. key must be 16, 24
	// or 32 bytes and nonce exactly GCMNonceSize bytes; anything else
	// returns ErrInvalidInput.
	AESGCMSeal(key, nonce, aad, plaintext []byte) ([]byte, error)

	// AESGCMOpen authenticates and decrypts ciphertext (with trailing
	// tag) produced by AESGCMSeal. Any mismatch in ciphertext, aad, tag or
	// nonce returns ErrAuthenticationFailed.
	AESGCMOpen(key, nonce, aad, ciphertext []byte) ([]byte, error)

	// Close releases backend resources. After Close the backend must be
	// re-initialized before use. Close is idempotent.
	Close() error
}
