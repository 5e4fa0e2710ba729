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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-vault/pkg/backend"
	"github.com/jeremyhahn/go-vault/pkg/types"
)

const fixtureYAML = `
routing:
  init:
    - secure_element:microchip:atecc508a
    - host_software
  rand:
    - secure_element:microchip:atecc508a
  ecdh:
    - secure_element:microchip:atecc508a
  hkdf:
    - secure_element:microchip:atecc508a
    - host_software
  aes_gcm:
    - host_software

hw:
  transport:
    kind: i2c
    i2c:
      device: /dev/i2c-1
  static_key_slot: 3
  transport_deadline: 500ms
`

// TestParse_Fixture verifies the canonical mixed configuration decodes with
// transport defaults filled
func TestParse_Fixture(t *testing.T) {
	cfg, err := Parse([]byte(fixtureYAML))
	require.NoError(t, err)

	assert.Equal(t, []types.BackendID{types.ATECC508A, types.HostSoftware()}, cfg.Routing.Init)
	assert.Equal(t, []types.BackendID{types.HostSoftware()}, cfg.Routing.AESGCM)

	require.NotNil(t, cfg.HW)
	assert.Equal(t, "/dev/i2c-1", cfg.HW.Transport.I2C.Device)
	assert.Equal(t, uint8(0x60), cfg.HW.Transport.I2C.Address)
	assert.Equal(t, 100000, cfg.HW.Transport.I2C.SpeedHz)
	assert.Equal(t, uint8(3), cfg.HW.StaticKeySlot)
	assert.Equal(t, 500*time.Millisecond, cfg.HW.Deadline.Duration())
}

// TestParse_UnknownField verifies strict decoding rejects typos
func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte(`
routing:
  init: [host_software]
  rand: [host_software]
  ecdh: [host_software]
  hkdf: [host_software]
  aes_gcm: [host_software]
routingg: {}
`))
	assert.ErrorIs(t, err, backend.ErrInvalidConfig)
}

// TestParse_MissingHW verifies a secure element route without a hardware
// descriptor is rejected
func TestParse_MissingHW(t *testing.T) {
	_, err := Parse([]byte(`
routing:
  init: [secure_element:microchip:atecc508a]
  rand: [secure_element:microchip:atecc508a]
  ecdh: [secure_element:microchip:atecc508a]
  hkdf: [host_software]
  aes_gcm: [host_software]
`))
	assert.ErrorIs(t, err, backend.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "hw descriptor")
}

// TestParse_UnknownBackend verifies routing to a part without a driver is
// rejected
func TestParse_UnknownBackend(t *testing.T) {
	_, err := Parse([]byte(`
routing:
  init: [secure_element:acme:hsm9000]
  rand: [host_software]
  ecdh: [host_software]
  hkdf: [host_software]
  aes_gcm: [host_software]
`))
	assert.ErrorIs(t, err, backend.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "no driver")
}

// TestParse_EmptySlot verifies every primitive must be routed
func TestParse_EmptySlot(t *testing.T) {
	_, err := Parse([]byte(`
routing:
  init: [host_software]
  rand: [host_software]
  ecdh: [host_software]
  hkdf: [host_software]
`))
	assert.ErrorIs(t, err, backend.ErrInvalidConfig)
}

// TestLoad verifies file loading and the missing-file path
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg.HW)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, backend.ErrInvalidConfig)
}

// TestBuildVault_Simulator verifies an end-to-end build over the simulated
// secure element
func TestBuildVault_Simulator(t *testing.T) {
	cfg, err := Parse([]byte(`
routing:
  init:
    - secure_element:microchip:atecc508a
    - host_software
  rand:
    - secure_element:microchip:atecc508a
  ecdh:
    - secure_element:microchip:atecc508a
  hkdf:
    - secure_element:microchip:atecc508a
    - host_software
  aes_gcm:
    - host_software
hw:
  use_simulator: true
`))
	require.NoError(t, err)

	v, err := cfg.BuildVault(nil)
	require.NoError(t, err)
	defer func() { _ = v.Close() }()

	out, err := v.Rand(16)
	require.NoError(t, err)
	assert.Len(t, out, 16)

	okm, err := v.HKDF(nil, []byte("ikm"), nil, 32)
	require.NoError(t, err)
	assert.Len(t, okm, 32)
}

// TestBuildVault_HostOnly verifies a pure software configuration needs no
// hardware descriptor
func TestBuildVault_HostOnly(t *testing.T) {
	cfg, err := Parse([]byte(`
routing:
  init: [host_software]
  rand: [host_software]
  ecdh: [host_software]
  hkdf: [host_software]
  aes_gcm: [host_software]
`))
	require.NoError(t, err)
	require.Nil(t, cfg.HW)

	v, err := cfg.BuildVault(nil)
	require.NoError(t, err)
	defer func() { _ = v.Close() }()

	sealed, err := v.AESGCMSeal(make([]byte, 32), make([]byte, 12), nil, []byte("x"))
	require.NoError(t, err)
	assert.Len(t, sealed, 1+backend.GCMTagSize)
}
