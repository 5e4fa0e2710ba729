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

package backend

import "errors"

// The closed error set shared by every provider and the vault facade.
// Providers wrap these sentinels with %w so callers can match them with
// errors.Is regardless of which backend produced the failure.
var (
	// ErrNotReady is returned when a primitive is dispatched on a vault
	// context that has not been created or has been destroyed.
	ErrNotReady = errors.New("backend: not ready")

	// ErrAlreadyInitialized is returned by Init on a backend that has
	// already been brought up.
	ErrAlreadyInitialized = errors.New("backend: already initialized")

	// ErrInvalidConfig is returned when a routing or hardware descriptor
	// is malformed or incomplete.
	ErrInvalidConfig = errors.New("backend: invalid configuration")

	// ErrInvalidInput is returned for malformed caller input: a peer point
	// not on the curve, an out-of-range HKDF length, an unsupported AES
	// key size, or a nonce of the wrong length.
	ErrInvalidInput = errors.New("backend: invalid input")

	// ErrUnsupported is returned by a backend that cannot perform the
	// requested primitive. It is the only error the routing table treats
	// as recoverable; dispatch falls through to the next backend in the
	// slot list.
	ErrUnsupported = errors.New("backend: operation not supported")

	// ErrDeviceAbsent is returned when a secure element cannot be found
	// on its configured transport.
	ErrDeviceAbsent = errors.New("backend: device absent")

	// ErrTransport is returned on bus-level I/O failures or transport
	// deadline expiry. The facade marks the backend degraded and retries
	// bring-up once on the next call.
	ErrTransport = errors.New("backend: transport error")

	// ErrSlotEmpty is returned when the static key slot holds no key.
	ErrSlotEmpty = errors.New("backend: key slot empty")

	// ErrEntropyExhausted is returned when the random source cannot
	// produce output. The software backend refuses any weak fallback.
	ErrEntropyExhausted = errors.New("backend: entropy exhausted")

	// ErrAuthenticationFailed is returned by AESGCMOpen when the tag does
	// not authenticate the ciphertext, aad and nonce.
	ErrAuthenticationFailed = errors.New("backend: authentication failed")

	// ErrInternal is reserved for invariant violations such as an empty
	// routing slot surviving validation. It is never the result of
	// adversarial input.
	ErrInternal = errors.New("backend: internal error")
)
