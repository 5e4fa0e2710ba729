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
	"crypto/ecdh"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

// Simulator is an in-process ATECC508A stand-in that answers at the
// transport layer, so the full command framing and CRC path is exercised
// without hardware. It models the part's capability set (TRNG and P-256
// ECDH; no HKDF, no AES engine), its 16 key slots and the I/O-protection
// pairing mode, plus fault hooks for absence, bus failures and TRNG
// exhaustion.
type Simulator struct {
	slots     [16]*ecdh.PrivateKey
	ioKey     []byte
	rng       io.Reader
	awake     bool
	absent    bool
	failures  int
	entropy   int
}

var _ Transport = (*Simulator)(nil)

// NewSimulator returns a simulator with all slots empty and an unlimited
// TRNG budget.
func NewSimulator() *Simulator {
	return &Simulator{rng: rand.Reader, entropy: -1}
}

// ProvisionSlot generates a P-256 key in the given slot and returns the
// SEC1 uncompressed public point, mirroring device personalization.
func (s *Simulator) ProvisionSlot(slot uint8) ([]byte, error) {
	if slot > 15 {
		return nil, fmt.Errorf("%w: slot %d out of range", backend.ErrInvalidConfig, slot)
	}
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	s.slots[slot] = key
	return key.PublicKey().Bytes(), nil
}

// SlotPublicKey returns the SEC1 uncompressed public point for a slot.
func (s *Simulator) SlotPublicKey(slot uint8) ([]byte, error) {
	if slot > 15 || s.slots[slot] == nil {
		return nil, backend.ErrSlotEmpty
	}
	return s.slots[slot].PublicKey().Bytes(), nil
}

// SetIOKey arms the I/O-protection pairing: ECDH premasters leave the
// simulated device encrypted under the pad derived from this key.
func (s *Simulator) SetIOKey(key []byte) {
	s.ioKey = append([]byte(nil), key...)
}

// SetAbsent simulates unplugging the device.
func (s *Simulator) SetAbsent(absent bool) {
	s.absent = absent
}

// FailExchanges makes the next n exchanges fail with a transport error.
func (s *Simulator) FailExchanges(n int) {
	s.failures = n
}

// ExhaustEntropy limits the TRNG to n further random commands.
func (s *Simulator) ExhaustEntropy(n int) {
	s.entropy = n
}

// Wake answers the wake condition unless the device is absent.
func (s *Simulator) Wake() error {
	if s.absent {
		return fmt.Errorf("%w: no device on simulated bus", backend.ErrDeviceAbsent)
	}
	s.awake = true
	return nil
}

// Exchange decodes one command frame and answers as the part would.
func (s *Simulator) Exchange(packet []byte, deadline time.Duration) ([]byte, error) {
	if s.absent {
		return nil, fmt.Errorf("%w: no device on simulated bus", backend.ErrDeviceAbsent)
	}
	if !s.awake {
		return nil, fmt.Errorf("%w: device asleep", backend.ErrTransport)
	}
	if s.failures > 0 {
		s.failures--
		return nil, fmt.Errorf("%w: injected bus failure", backend.ErrTransport)
	}

	opcode, _, param2, data, err := parseCommand(packet)
	if err != nil {
		return buildResponse([]byte{statusParseErr}), nil
	}

	switch opcode {
	case opInfo:
		return buildResponse(atecc508aRevision[:]), nil

	case opRandom:
		if s.entropy == 0 {
			return buildResponse([]byte{statusHealthErr}), nil
		}
		if s.entropy > 0 {
			s.entropy--
		}
		out := make([]byte, 32)
		if _, err := io.ReadFull(s.rng, out); err != nil {
			return buildResponse([]byte{statusHealthErr}), nil
		}
		return buildResponse(out), nil

	case opECDH:
		return s.ecdh(param2, data), nil

	default:
		return buildResponse([]byte{statusParseErr}), nil
	}
}

// Close puts the simulated device to sleep.
func (s *Simulator) Close() error {
	s.awake = false
	return nil
}

func (s *Simulator) ecdh(param2 uint16, data []byte) []byte {
	slot := uint8(param2 & 0x0F)
	if len(data) != 64 {
		return buildResponse([]byte{statusParseErr})
	}
	key := s.slots[slot]
	if key == nil {
		return buildResponse([]byte{statusExecErr})
	}

	var peer [64]byte
	copy(peer[:], data)
	pub, err := ecdh.P256().NewPublicKey(append([]byte{0x04}, data...))
	if err != nil {
		return buildResponse([]byte{statusECCFault})
	}
	shared, err := key.ECDH(pub)
	if err != nil {
		return buildResponse([]byte{statusECCFault})
	}

	var premaster [32]byte
	copy(premaster[:], shared)
	if s.ioKey != nil {
		// Same XOR pad the driver strips; the premaster never crosses
		// the simulated bus in the clear.
		pad := ioPad(s.ioKey, peer)
		for i := range premaster {
			premaster[i] ^= pad[i]
		}
	}
	return buildResponse(premaster[:])
}

// parseCommand validates a command frame and splits it into its fields.
func parseCommand(packet []byte) (opcode byte, param1 byte, param2 uint16, data []byte, err error) {
	if len(packet) < 7 || int(packet[0]) != len(packet) {
		return 0, 0, 0, nil, fmt.Errorf("%w: malformed command frame", backend.ErrTransport)
	}
	body := packet[:len(packet)-2]
	if crc16(body) != binary.LittleEndian.Uint16(packet[len(packet)-2:]) {
		return 0, 0, 0, nil, fmt.Errorf("%w: command crc mismatch", backend.ErrTransport)
	}
	return packet[1], packet[2], binary.LittleEndian.Uint16(packet[3:5]), packet[5 : len(packet)-2], nil
}
