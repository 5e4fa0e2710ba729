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

// Package types contains shared type definitions used across the vault,
// including the cryptographic primitive identifiers, backend identifiers
// and backend capability declarations. This package has no dependencies on
// pkg/backend or pkg/vault to prevent import cycles.
package types

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownPrimitive is returned when a primitive string is not recognized.
	ErrUnknownPrimitive = errors.New("types: unknown primitive")

	// ErrUnknownBackendID is returned when a backend identifier string is not recognized.
	ErrUnknownBackendID = errors.New("types: unknown backend id")
)

// =============================================================================
// Primitive
// =============================================================================

// Primitive identifies one of the cryptographic operations brokered by the
// vault. The set is closed; every routing configuration names a backend list
// for each member.
type Primitive string

const (
	// Primitive constants, one per routing slot
	PrimitiveInit   Primitive = "init"
	PrimitiveRand   Primitive = "rand"
	PrimitiveECDH   Primitive = "ecdh"
	PrimitiveHKDF   Primitive = "hkdf"
	PrimitiveAESGCM Primitive = "aes_gcm"
)

// Primitives is a list of all primitives for iteration, in routing order.
var Primitives = []Primitive{
	PrimitiveInit,
	PrimitiveRand,
	PrimitiveECDH,
	PrimitiveHKDF,
	PrimitiveAESGCM,
}

// String returns the string representation of the primitive.
func (p Primitive) String() string {
	return string(p)
}

// IsValid returns true if the primitive is recognized.
func (p Primitive) IsValid() bool {
	switch p {
	case PrimitiveInit, PrimitiveRand, PrimitiveECDH, PrimitiveHKDF, PrimitiveAESGCM:
		return true
	default:
		return false
	}
}

// ParsePrimitive converts a string to a Primitive.
func ParsePrimitive(s string) (Primitive, error) {
	p := Primitive(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrimitive, s)
	}
	return p, nil
}

// =============================================================================
// Backend ID
// =============================================================================

// BackendKind discriminates the two provider families.
type BackendKind string

const (
	// KindHostSoftware identifies the software provider built from the host
	// crypto library. It is present in every build.
	KindHostSoftware BackendKind = "host_software"

	// KindSecureElement identifies a hardware provider. The vendor and part
	// fields of the BackendID select the concrete device.
	KindSecureElement BackendKind = "secure_element"
)

// BackendID is a tagged identifier for a vault provider. Host software
// carries no payload; secure elements carry the vendor and part that select
// the device driver.
//
// The canonical string forms are "host_software" and
// "secure_element:<vendor>:<part>", e.g. "secure_element:microchip:atecc508a".
type BackendID struct {
	Kind   BackendKind
	Vendor string
	Part   string
}

// HostSoftware returns the BackendID of the host software provider.
func HostSoftware() BackendID {
	return BackendID{Kind: KindHostSoftware}
}

// SecureElement returns the BackendID of a hardware provider.
func SecureElement(vendor, part string) BackendID {
	return BackendID{Kind: KindSecureElement, Vendor: vendor, Part: part}
}

// ATECC508A is the BackendID of the Microchip ATECC508A secure element.
var ATECC508A = SecureElement("microchip", "atecc508a")

// String returns the canonical string form of the backend identifier.
func (id BackendID) String() string {
	if id.Kind == KindSecureElement {
		return fmt.Sprintf("%s:%s:%s", id.Kind, id.Vendor, id.Part)
	}
	return string(id.Kind)
}

// IsZero returns true if the identifier is the zero value.
func (id BackendID) IsZero() bool {
	return id.Kind == ""
}

// ParseBackendID converts a canonical string form to a BackendID.
func ParseBackendID(s string) (BackendID, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), ":")
	switch BackendKind(parts[0]) {
	case KindHostSoftware:
		if len(parts) != 1 {
			return BackendID{}, fmt.Errorf("%w: %q carries unexpected payload", ErrUnknownBackendID, s)
		}
		return HostSoftware(), nil
	case KindSecureElement:
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return BackendID{}, fmt.Errorf("%w: %q requires vendor and part", ErrUnknownBackendID, s)
		}
		return SecureElement(parts[1], parts[2]), nil
	default:
		return BackendID{}, fmt.Errorf("%w: %q", ErrUnknownBackendID, s)
	}
}

// MarshalYAML implements yaml.Marshaler using the canonical string form.
func (id BackendID) MarshalYAML() (interface{}, error) {
	return id.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler accepting the canonical string form.
func (id *BackendID) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseBackendID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// =============================================================================
// Backend Capabilities
// =============================================================================

// Capabilities declares which primitives a backend supports. A backend must
// return an unsupported result for any primitive whose flag is false rather
// than silently succeed; routing fallback relies on that contract.
type Capabilities struct {
	// HardwareBacked indicates the backend delegates to a secure element.
	HardwareBacked bool

	// Rand indicates the backend can produce cryptographically strong
	// random bytes (TRNG for hardware, OS entropy for software).
	Rand bool

	// ECDH indicates the backend can perform P-256 key agreement with
	// its static key.
	ECDH bool

	// HKDF indicates the backend implements RFC 5869 extract-then-expand.
	HKDF bool

	// AESGCM indicates the backend implements AES-GCM seal and open.
	AESGCM bool
}

// Supports returns true if the backend declares support for the primitive.
// Init is supported by every backend.
func (c Capabilities) Supports(p Primitive) bool {
	switch p {
	case PrimitiveInit:
		return true
	case PrimitiveRand:
		return c.Rand
	case PrimitiveECDH:
		return c.ECDH
	case PrimitiveHKDF:
		return c.HKDF
	case PrimitiveAESGCM:
		return c.AESGCM
	default:
		return false
	}
}

// String returns a string representation of the capabilities.
func (c Capabilities) String() string {
	return fmt.Sprintf("Capabilities{HardwareBacked: %v, Rand: %v, ECDH: %v, HKDF: %v, AESGCM: %v}",
		c.HardwareBacked, c.Rand, c.ECDH, c.HKDF, c.AESGCM)
}

// NewHostSoftwareCapabilities returns capabilities for the host software
// backend, which implements every primitive.
func NewHostSoftwareCapabilities() Capabilities {
	return Capabilities{
		HardwareBacked: false,
		Rand:           true,
		ECDH:           true,
		HKDF:           true,
		AESGCM:         true,
	}
}

// NewATECC508ACapabilities returns capabilities for the Microchip ATECC508A.
// The part exposes a TRNG and P-256 key agreement but has no HKDF or AES-GCM
// engine, so those primitives report unsupported and rely on routing fallback.
func NewATECC508ACapabilities() Capabilities {
	return Capabilities{
		HardwareBacked: true,
		Rand:           true,
		ECDH:           true,
		HKDF:           false,
		AESGCM:         false,
	}
}
