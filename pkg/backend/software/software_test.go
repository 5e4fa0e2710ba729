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
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

func newInitialized(t *testing.T) *SoftwareBackend {
	t.Helper()
	b, err := NewBackend(nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	data, err := hex.DecodeString(s)
	require.NoError(t, err)
	return data
}

// TestInit_Twice verifies double bring-up is rejected
func TestInit_Twice(t *testing.T) {
	b, err := NewBackend(nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer func() { _ = b.Close() }()

	assert.ErrorIs(t, b.Init(), backend.ErrAlreadyInitialized)
}

// TestRand_Length verifies the requested number of bytes is produced
func TestRand_Length(t *testing.T) {
	b := newInitialized(t)

	out, err := b.Rand(32)
	require.NoError(t, err)
	assert.Len(t, out, 32)

	out2, err := b.Rand(32)
	require.NoError(t, err)
	assert.NotEqual(t, out, out2)
}

// TestRand_EntropyNone verifies the backend refuses randomness without an
// entropy source rather than falling back to something weak
func TestRand_EntropyNone(t *testing.T) {
	b, err := NewBackend(&Config{Entropy: EntropyNone})
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer func() { _ = b.Close() }()

	_, err = b.Rand(16)
	assert.ErrorIs(t, err, backend.ErrEntropyExhausted)
}

// TestRand_NotReady verifies dispatch before Init is rejected
func TestRand_NotReady(t *testing.T) {
	b, err := NewBackend(nil)
	require.NoError(t, err)

	_, err = b.Rand(16)
	assert.ErrorIs(t, err, backend.ErrNotReady)
}

// TestECDH_SharedSecret verifies both sides derive the same secret
func TestECDH_SharedSecret(t *testing.T) {
	b := newInitialized(t)

	peer, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	shared, err := b.ECDH(peer.PublicKey().Bytes())
	require.NoError(t, err)
	require.Len(t, shared, 32)

	pub, err := b.PublicKey()
	require.NoError(t, err)
	backendPub, err := ecdh.P256().NewPublicKey(pub)
	require.NoError(t, err)
	expected, err := peer.ECDH(backendPub)
	require.NoError(t, err)
	assert.Equal(t, expected, shared)
}

// TestECDH_InvalidPoint verifies a peer value off the curve is rejected
func TestECDH_InvalidPoint(t *testing.T) {
	b := newInitialized(t)

	bogus := make([]byte, 65)
	bogus[0] = 0x04
	for i := 1; i < len(bogus); i++ {
		bogus[i] = 0x01
	}
	_, err := b.ECDH(bogus)
	assert.ErrorIs(t, err, backend.ErrInvalidInput)
}

// TestECDH_SlotEmpty verifies key agreement without a provisioned key fails
func TestECDH_SlotEmpty(t *testing.T) {
	b, err := NewBackend(&Config{Entropy: EntropyNone})
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer func() { _ = b.Close() }()

	peer, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, err = b.ECDH(peer.PublicKey().Bytes())
	assert.ErrorIs(t, err, backend.ErrSlotEmpty)
}

// TestHKDF_RFC5869_Case1 checks the basic SHA-256 test vector
func TestHKDF_RFC5869_Case1(t *testing.T) {
	b := newInitialized(t)

	ikm := bytes.Repeat([]byte{0x0b}, 22)
	salt := mustHex(t, "000102030405060708090a0b0c")
	info := mustHex(t, "f0f1f2f3f4f5f6f7f8f9")

	okm, err := b.HKDF(salt, ikm, info, 42)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t,
		"3cb25f25faacd57a90434f64d0362f2a2d2d0a90cf1a5a4c5db02d56ecc4c5bf34007208d5b887185865"), okm)
}

// TestHKDF_RFC5869_Case3 checks the zero-salt zero-info SHA-256 test vector
func TestHKDF_RFC5869_Case3(t *testing.T) {
	b := newInitialized(t)

	ikm := bytes.Repeat([]byte{0x0b}, 22)
	okm, err := b.HKDF(nil, ikm, nil, 42)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t,
		"8da4e775a563c18f715f802a063c5a31b8a11f5c5ee1879ec3454e5f3c738d2d9d201395faa4b61a96c8"), okm)
}

// TestHKDF_LengthBoundary verifies the 255*HashLen expand limit
func TestHKDF_LengthBoundary(t *testing.T) {
	b := newInitialized(t)

	okm, err := b.HKDF(nil, []byte("ikm"), nil, backend.MaxHKDFLength)
	require.NoError(t, err)
	assert.Len(t, okm, backend.MaxHKDFLength)

	_, err = b.HKDF(nil, []byte("ikm"), nil, backend.MaxHKDFLength+1)
	assert.ErrorIs(t, err, backend.ErrInvalidInput)

	_, err = b.HKDF(nil, []byte("ikm"), nil, 0)
	assert.ErrorIs(t, err, backend.ErrInvalidInput)
}

// TestAESGCM_NISTVectors checks AES-128-GCM known answers from SP 800-38D
func TestAESGCM_NISTVectors(t *testing.T) {
	b := newInitialized(t)

	key := make([]byte, 16)
	nonce := make([]byte, 12)

	// Empty plaintext: output is the tag alone.
	sealed, err := b.AESGCMSeal(key, nonce, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "58e2fccefa7e3061367f1d57a4e7455a"), sealed)

	// Single zero block.
	sealed, err = b.AESGCMSeal(key, nonce, nil, make([]byte, 16))
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "0388dace60b6a392f328c2b971b2fe78ab6e47d42cec13bdf53a67b21257bddf"), sealed)
}

// TestAESGCM_RoundTrip verifies seal-then-open for all key sizes
func TestAESGCM_RoundTrip(t *testing.T) {
	b := newInitialized(t)

	nonce := mustHex(t, "000102030405060708090a0b")
	aad := []byte("header")
	plaintext := []byte("the quick brown fox")

	for _, keyLen := range []int{16, 24, 32} {
		key := make([]byte, keyLen)
		_, err := rand.Read(key)
		require.NoError(t, err)

		sealed, err := b.AESGCMSeal(key, nonce, aad, plaintext)
		require.NoError(t, err)
		assert.Len(t, sealed, len(plaintext)+backend.GCMTagSize)

		opened, err := b.AESGCMOpen(key, nonce, aad, sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	}
}

// TestAESGCM_TamperMatrix verifies any single bit flip in ciphertext, tag,
// aad or nonce fails authentication
func TestAESGCM_TamperMatrix(t *testing.T) {
	b := newInitialized(t)

	key := make([]byte, 16)
	nonce := mustHex(t, "000000000000000000000001")
	aad := []byte("aad")
	sealed, err := b.AESGCMSeal(key, nonce, aad, []byte("hello"))
	require.NoError(t, err)

	// Every bit of the sealed buffer (ciphertext and tag).
	for i := 0; i < len(sealed)*8; i++ {
		tampered := append([]byte(nil), sealed...)
		tampered[i/8] ^= 1 << (i % 8)
		_, err := b.AESGCMOpen(key, nonce, aad, tampered)
		assert.ErrorIs(t, err, backend.ErrAuthenticationFailed)
	}

	// Flipped aad.
	badAAD := []byte("aaE")
	_, err = b.AESGCMOpen(key, nonce, badAAD, sealed)
	assert.ErrorIs(t, err, backend.ErrAuthenticationFailed)

	// Flipped nonce.
	badNonce := append([]byte(nil), nonce...)
	badNonce[11] ^= 0x01
	_, err = b.AESGCMOpen(key, badNonce, aad, sealed)
	assert.ErrorIs(t, err, backend.ErrAuthenticationFailed)
}

// TestAESGCM_InvalidInputs verifies key and nonce size validation
func TestAESGCM_InvalidInputs(t *testing.T) {
	b := newInitialized(t)

	_, err := b.AESGCMSeal(make([]byte, 15), make([]byte, 12), nil, []byte("x"))
	assert.ErrorIs(t, err, backend.ErrInvalidInput)

	_, err = b.AESGCMSeal(make([]byte, 16), make([]byte, 11), nil, []byte("x"))
	assert.ErrorIs(t, err, backend.ErrInvalidInput)

	_, err = b.AESGCMOpen(make([]byte, 16), make([]byte, 12), nil, make([]byte, 8))
	assert.ErrorIs(t, err, backend.ErrInvalidInput)
}

// TestClose_Reinit verifies the backend can be brought up again after Close
func TestClose_Reinit(t *testing.T) {
	b, err := NewBackend(nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = b.Rand(8)
	assert.ErrorIs(t, err, backend.ErrNotReady)

	require.NoError(t, b.Init())
	defer func() { _ = b.Close() }()
	out, err := b.Rand(8)
	require.NoError(t, err)
	assert.Len(t, out, 8)
}

// TestCapabilities verifies the host backend advertises every primitive
func TestCapabilities(t *testing.T) {
	b := newInitialized(t)
	caps := b.Capabilities()
	assert.False(t, caps.HardwareBacked)
	assert.True(t, caps.Rand)
	assert.True(t, caps.ECDH)
	assert.True(t, caps.HKDF)
	assert.True(t, caps.AESGCM)
}
