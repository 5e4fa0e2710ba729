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
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

// Command opcodes used by this driver.
const (
	opInfo   = 0x30
	opRandom = 0x1B
	opECDH   = 0x43
)

// Single-byte device status codes.
const (
	statusSuccess    = 0x00
	statusMiscompare = 0x01
	statusParseErr   = 0x03
	statusECCFault   = 0x05
	statusHealthErr  = 0x07
	statusExecErr    = 0x0F
	statusWakeOK     = 0x11
	statusCommsErr   = 0xFF
)

// respFrameMin is the smallest legal response frame:
// count byte + one status byte + two CRC bytes.
const respFrameMin = 4

// atecc508aRevision is the Info/Revision answer for the ATECC508A.
var atecc508aRevision = [4]byte{0x00, 0x00, 0x50, 0x00}

// Device is the driver contract the backend consumes: the minimal command
// set the vault needs from an ATECC-class part. The packet-layer device
// below fulfils it over a Transport; the Simulator fulfils it in-process.
type Device interface {
	// Revision returns the 4-byte part revision (Info command).
	Revision() ([4]byte, error)

	// Random returns 32 bytes from the device TRNG.
	Random() ([]byte, error)

	// ECDH performs P-256 key agreement between the private key in slot
	// and the peer public point (X||Y, 64 bytes). When ioKey is non-nil
	// the premaster is returned encrypted under the I/O-protection pad
	// and unwrapped by the command layer.
	ECDH(slot uint8, peer [64]byte) ([32]byte, error)

	// Close puts the device to sleep and releases the transport.
	Close() error
}

// device is the packet-layer driver: it frames commands with the device
// CRC-16, drives the transport and decodes status responses.
type device struct {
	transport Transport
	deadline  time.Duration
	ioKey     []byte
}

var _ Device = (*device)(nil)

// newDevice wakes the part behind the transport and returns the command
// layer bound to it.
func newDevice(transport Transport, deadline time.Duration, ioKey []byte) (*device, error) {
	if err := transport.Wake(); err != nil {
		return nil, err
	}
	return &device{transport: transport, deadline: deadline, ioKey: ioKey}, nil
}

// Revision issues Info(Revision).
func (d *device) Revision() ([4]byte, error) {
	var rev [4]byte
	resp, err := d.execute(opInfo, 0x00, 0x0000, nil, 4)
	if err != nil {
		return rev, err
	}
	copy(rev[:], resp)
	return rev, nil
}

// Random issues Random(mode 0) and returns the 32-byte TRNG output.
func (d *device) Random() ([]byte, error) {
	return d.execute(opRandom, 0x00, 0x0000, nil, 32)
}

// ECDH issues ECDH(slot) with the peer point and returns the premaster
// secret, unwrapping the I/O-protection pad in pairing mode.
func (d *device) ECDH(slot uint8, peer [64]byte) ([32]byte, error) {
	var premaster [32]byte
	resp, err := d.execute(opECDH, 0x00, uint16(slot), peer[:], 32)
	if err != nil {
		return premaster, err
	}
	copy(premaster[:], resp)
	if d.ioKey != nil {
		unwrapPremaster(&premaster, d.ioKey, peer)
	}
	return premaster, nil
}

// Close releases the transport.
func (d *device) Close() error {
	return d.transport.Close()
}

// execute frames one command, exchanges it and validates the response.
// wantLen is the expected data length; a single-byte response is decoded as
// a status code instead.
func (d *device) execute(opcode byte, param1 byte, param2 uint16, data []byte, wantLen int) ([]byte, error) {
	packet := buildCommand(opcode, param1, param2, data)
	resp, err := d.transport.Exchange(packet, d.deadline)
	if err != nil {
		return nil, err
	}

	payload, err := parseResponse(resp)
	if err != nil {
		return nil, err
	}
	if len(payload) == 1 {
		return nil, statusError(payload[0])
	}
	if len(payload) != wantLen {
		return nil, fmt.Errorf("%w: opcode 0x%02x returned %d bytes, want %d",
			backend.ErrTransport, opcode, len(payload), wantLen)
	}
	return payload, nil
}

// buildCommand frames [count, opcode, param1, param2le, data..., crc16le].
// count covers everything including itself and the CRC.
func buildCommand(opcode byte, param1 byte, param2 uint16, data []byte) []byte {
	count := 1 + 1 + 1 + 2 + len(data) + 2
	packet := make([]byte, 0, count)
	packet = append(packet, byte(count), opcode, param1)
	packet = binary.LittleEndian.AppendUint16(packet, param2)
	packet = append(packet, data...)
	packet = binary.LittleEndian.AppendUint16(packet, crc16(packet))
	return packet
}

// parseResponse validates the frame count and CRC and returns the payload.
func parseResponse(frame []byte) ([]byte, error) {
	if len(frame) < respFrameMin || int(frame[0]) != len(frame) {
		return nil, fmt.Errorf("%w: malformed response frame (%d bytes)", backend.ErrTransport, len(frame))
	}
	body := frame[:len(frame)-2]
	want := binary.LittleEndian.Uint16(frame[len(frame)-2:])
	if crc16(body) != want {
		return nil, fmt.Errorf("%w: response crc mismatch", backend.ErrTransport)
	}
	return frame[1 : len(frame)-2], nil
}

// buildResponse frames a payload the way the device does. Shared with the
// simulator so both ends agree on the wire format.
func buildResponse(payload []byte) []byte {
	count := 1 + len(payload) + 2
	frame := make([]byte, 0, count)
	frame = append(frame, byte(count))
	frame = append(frame, payload...)
	frame = binary.LittleEndian.AppendUint16(frame, crc16(frame))
	return frame
}

// statusError maps a device status byte to the closed error set.
func statusError(status byte) error {
	switch status {
	case statusSuccess:
		return nil
	case statusParseErr:
		return fmt.Errorf("%w: device rejected command (parse error)", backend.ErrInvalidInput)
	case statusECCFault:
		return fmt.Errorf("%w: device ecc fault", backend.ErrInvalidInput)
	case statusHealthErr:
		return fmt.Errorf("%w: trng health test failure", backend.ErrEntropyExhausted)
	case statusExecErr:
		// Execution error covers unprovisioned slots among other faults.
		return fmt.Errorf("%w: device execution error", backend.ErrSlotEmpty)
	case statusCommsErr:
		return fmt.Errorf("%w: device reported communication error", backend.ErrTransport)
	default:
		return fmt.Errorf("%w: device status 0x%02x", backend.ErrTransport, status)
	}
}

// crc16 is the device CRC: polynomial 0x8005, LSB-first data, as used for
// both command and response frames.
func crc16(data []byte) uint16 {
	const poly = 0x8005
	var crc uint16
	for _, d := range data {
		for shift := uint16(0x01); shift <= 0x80; shift <<= 1 {
			var dataBit uint16
			if uint16(d)&shift != 0 {
				dataBit = 1
			}
			crcBit := crc >> 15
			crc <<= 1
			if dataBit != crcBit {
				crc ^= poly
			}
		}
	}
	return crc
}

// ioPad derives the I/O-protection pad for one ECDH exchange. Both sides of
// the pairing derive it from the shared key and the peer point, so the
// premaster never crosses the bus in the clear.
func ioPad(ioKey []byte, peer [64]byte) [32]byte {
	h := sha256.New()
	h.Write(ioKey)
	h.Write(peer[:])
	var pad [32]byte
	copy(pad[:], h.Sum(nil))
	return pad
}

// unwrapPremaster removes the I/O-protection pad in place.
func unwrapPremaster(premaster *[32]byte, ioKey []byte, peer [64]byte) {
	pad := ioPad(ioKey, peer)
	for i := range premaster {
		premaster[i] ^= pad[i]
	}
}

// isATECC508A reports whether the revision identifies an ATECC508A part.
func isATECC508A(rev [4]byte) bool {
	return bytes.Equal(rev[:], atecc508aRevision[:])
}
