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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

// TestCRC16_WakeFrame checks the CRC against the canonical wake response
// frame 04 11 33 43
func TestCRC16_WakeFrame(t *testing.T) {
	assert.Equal(t, uint16(0x4333), crc16([]byte{0x04, 0x11}))
}

// TestCRC16_Sensitivity verifies single-byte changes alter the checksum
func TestCRC16_Sensitivity(t *testing.T) {
	a := crc16([]byte{0x07, 0x1B, 0x00, 0x00, 0x00})
	b := crc16([]byte{0x07, 0x1B, 0x00, 0x01, 0x00})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, crc16([]byte{0x07, 0x1B, 0x00, 0x00, 0x00}))
}

// TestCommandFrame_RoundTrip verifies buildCommand output survives
// parseCommand intact
func TestCommandFrame_RoundTrip(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	packet := buildCommand(opECDH, 0x01, 0x000A, data)

	require.Equal(t, int(packet[0]), len(packet))
	opcode, param1, param2, body, err := parseCommand(packet)
	require.NoError(t, err)
	assert.Equal(t, byte(opECDH), opcode)
	assert.Equal(t, byte(0x01), param1)
	assert.Equal(t, uint16(0x000A), param2)
	assert.Equal(t, data, body)
}

// TestCommandFrame_CorruptCRC verifies a damaged command frame is rejected
func TestCommandFrame_CorruptCRC(t *testing.T) {
	packet := buildCommand(opRandom, 0x00, 0x0000, nil)
	packet[1] ^= 0x01

	_, _, _, _, err := parseCommand(packet)
	assert.ErrorIs(t, err, backend.ErrTransport)
}

// TestResponseFrame_RoundTrip verifies buildResponse output survives
// parseResponse intact
func TestResponseFrame_RoundTrip(t *testing.T) {
	payload := make([]byte, 32)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame := buildResponse(payload)

	got, err := parseResponse(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// TestResponseFrame_Malformed verifies count and CRC validation
func TestResponseFrame_Malformed(t *testing.T) {
	_, err := parseResponse([]byte{0x02, 0x00})
	assert.ErrorIs(t, err, backend.ErrTransport)

	frame := buildResponse([]byte{statusSuccess})
	frame[0] = 0xFF
	_, err = parseResponse(frame)
	assert.ErrorIs(t, err, backend.ErrTransport)

	frame = buildResponse([]byte{statusSuccess})
	crc := binary.LittleEndian.Uint16(frame[len(frame)-2:])
	binary.LittleEndian.PutUint16(frame[len(frame)-2:], crc^0xFFFF)
	_, err = parseResponse(frame)
	assert.ErrorIs(t, err, backend.ErrTransport)
}

// TestStatusError_Mapping verifies device status codes land in the closed
// error set
func TestStatusError_Mapping(t *testing.T) {
	tests := []struct {
		status byte
		want   error
	}{
		{statusParseErr, backend.ErrInvalidInput},
		{statusECCFault, backend.ErrInvalidInput},
		{statusHealthErr, backend.ErrEntropyExhausted},
		{statusExecErr, backend.ErrSlotEmpty},
		{statusCommsErr, backend.ErrTransport},
		{0x42, backend.ErrTransport},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, statusError(tt.status), tt.want, "status 0x%02x", tt.status)
	}
	assert.NoError(t, statusError(statusSuccess))
}

// TestIOPad_Unwrap verifies the I/O-protection pad is its own inverse and
// depends on both the key and the peer point
func TestIOPad_Unwrap(t *testing.T) {
	ioKey := make([]byte, 32)
	ioKey[0] = 0x7F
	var peer [64]byte
	peer[63] = 0x01

	var premaster, wrapped [32]byte
	for i := range premaster {
		premaster[i] = byte(i * 3)
	}
	pad := ioPad(ioKey, peer)
	for i := range wrapped {
		wrapped[i] = premaster[i] ^ pad[i]
	}

	unwrapPremaster(&wrapped, ioKey, peer)
	assert.Equal(t, premaster, wrapped)

	otherKey := make([]byte, 32)
	assert.NotEqual(t, pad, ioPad(otherKey, peer))

	var otherPeer [64]byte
	assert.NotEqual(t, pad, ioPad(ioKey, otherPeer))
}

// TestRevisionMatch verifies part identification
func TestRevisionMatch(t *testing.T) {
	assert.True(t, isATECC508A([4]byte{0x00, 0x00, 0x50, 0x00}))
	assert.False(t, isATECC508A([4]byte{0x00, 0x00, 0x60, 0x02}))
}
