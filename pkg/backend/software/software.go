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

// Package software provides the host software backend. It implements every
// vault primitive in software: OS-entropy randomness, P-256 ECDH with an
// in-memory static key, RFC 5869 HKDF-SHA256 and AES-128/192/256-GCM.
//
// The backend is required to be present in every build and is the routing
// fallback for primitives a secure element cannot perform.
//
// Usage:
//
//	b, err := software.NewBackend(&software.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	okm, err := b.HKDF(salt, ikm, info, 32)
package software

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/jeremyhahn/go-vault/pkg/backend"
	"github.com/jeremyhahn/go-vault/pkg/types"
)

// SoftwareBackend implements backend.Backend entirely in software.
type SoftwareBackend struct {
	config      *Config
	staticKey   *ecdh.PrivateKey
	entropy     io.Reader
	initialized bool
}

var _ backend.Backend = (*SoftwareBackend)(nil)

// NewBackend creates a new host software backend with the given
// configuration. A nil config uses defaults (OS entropy, generated key).
func NewBackend(config *Config) (*SoftwareBackend, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SoftwareBackend{config: config}, nil
}

// ID returns the host software backend identifier.
func (b *SoftwareBackend) ID() types.BackendID {
	return types.HostSoftware()
}

// Capabilities reports support for every primitive.
func (b *SoftwareBackend) Capabilities() types.Capabilities {
	return types.NewHostSoftwareCapabilities()
}

// Init brings up the backend: binds the entropy source and provisions the
// static ECDH key if none was supplied.
func (b *SoftwareBackend) Init() error {
	if b.initialized {
		return backend.ErrAlreadyInitialized
	}

	b.entropy = b.config.Reader
	if b.entropy == nil {
		b.entropy = rand.Reader
	}

	if b.config.StaticKey != nil {
		b.staticKey = b.config.StaticKey
	} else if b.config.Entropy != EntropyNone {
		key, err := ecdh.P256().GenerateKey(b.entropy)
		if err != nil {
			return fmt.Errorf("%w: static key generation: %v", backend.ErrEntropyExhausted, err)
		}
		b.staticKey = key
	}

	b.initialized = true
	b.config.Logger.Debug("software: backend initialized", "entropy", string(b.config.Entropy))
	return nil
}

// Rand fills a buffer of n random bytes from the OS CSPRNG. With the
// EntropyNone policy it refuses to produce output; there is no weak fallback.
func (b *SoftwareBackend) Rand(n int) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", backend.ErrInvalidInput, n)
	}
	if b.config.Entropy == EntropyNone {
		return nil, fmt.Errorf("%w: entropy policy is none", backend.ErrEntropyExhausted)
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(b.entropy, out); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrEntropyExhausted, err)
	}
	return out, nil
}

// ECDH performs P-256 key agreement between the static key and peer, a SEC1
// uncompressed point.
func (b *SoftwareBackend) ECDH(peer []byte) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	if b.staticKey == nil {
		return nil, backend.ErrSlotEmpty
	}
	pub, err := ecdh.P256().NewPublicKey(peer)
	if err != nil {
		return nil, fmt.Errorf("%w: peer is not a valid P-256 point: %v", backend.ErrInvalidInput, err)
	}
	shared, err := b.staticKey.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrInvalidInput, err)
	}
	return shared, nil
}

// PublicKey returns the SEC1 uncompressed static public key, or ErrSlotEmpty
// when no key has been provisioned. Peers use it for key agreement.
func (b *SoftwareBackend) PublicKey() ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	if b.staticKey == nil {
		return nil, backend.ErrSlotEmpty
	}
	return b.staticKey.PublicKey().Bytes(), nil
}

// HKDF derives length bytes via RFC 5869 extract-then-expand with SHA-256.
func (b *SoftwareBackend) HKDF(salt, ikm, info []byte, length int) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", backend.ErrInvalidInput, length)
	}
	if length > backend.MaxHKDFLength {
		return nil, fmt.Errorf("%w: length %d exceeds 255*HashLen (%d)",
			backend.ErrInvalidInput, length, backend.MaxHKDFLength)
	}
	okm := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, info), okm); err != nil {
		return nil, fmt.Errorf("%w: hkdf expand: %v", backend.ErrInternal, err)
	}
	return okm, nil
}

// AESGCMSeal encrypts and authenticates plaintext, returning ciphertext with
// the 16-byte tag appended.
func (b *SoftwareBackend) AESGCMSeal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	gcm, err := b.newGCM(key, nonce)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, aad), nil
}

// AESGCMOpen authenticates and decrypts ciphertext produced by AESGCMSeal.
func (b *SoftwareBackend) AESGCMOpen(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	if !b.initialized {
		return nil, backend.ErrNotReady
	}
	gcm, err := b.newGCM(key, nonce)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < backend.GCMTagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", backend.ErrInvalidInput)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, backend.ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Close releases the backend. The static key is dropped; a subsequent Init
// provisions a fresh one unless the config pins a key.
func (b *SoftwareBackend) Close() error {
	if !b.initialized {
		return nil
	}
	if b.config.StaticKey == nil {
		b.staticKey = nil
	}
	b.entropy = nil
	b.initialized = false
	return nil
}

func (b *SoftwareBackend) newGCM(key, nonce []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: AES key must be 16, 24 or 32 bytes, got %d",
			backend.ErrInvalidInput, len(key))
	}
	if len(nonce) != backend.GCMNonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d",
			backend.ErrInvalidInput, backend.GCMNonceSize, len(nonce))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrInvalidInput, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrInternal, err)
	}
	return gcm, nil
}
