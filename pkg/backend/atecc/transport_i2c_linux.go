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

//go:build linux

package atecc

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jeremyhahn/go-vault/pkg/backend"
)

// i2cSlave is the i2c-dev ioctl selecting the peer address for a fd.
const i2cSlave = 0x0703

// Word address values the device expects as the first written byte.
const (
	wordAddrReset   = 0x00
	wordAddrCommand = 0x03
)

// tWake is the wake pulse settling time (tWHI + tWLO).
const tWake = 1500 * time.Microsecond

// i2cTransport drives an ATECC part through the Linux i2c-dev interface.
type i2cTransport struct {
	fd     int
	params *I2CParams
}

var _ Transport = (*i2cTransport)(nil)

// openI2C opens the i2c-dev node and binds the device address.
func openI2C(params *I2CParams) (Transport, error) {
	fd, err := unix.Open(params.Device, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", backend.ErrDeviceAbsent, params.Device, err)
	}
	if err := unix.IoctlSetInt(fd, i2cSlave, int(params.Address)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: bind address 0x%02x: %v", backend.ErrTransport, params.Address, err)
	}
	return &i2cTransport{fd: fd, params: params}, nil
}

// Wake drives the wake condition: a zero byte clocked out at the bus rate
// holds SDA low past tWLO, then the device needs tWHI to settle. The write
// itself is expected to be NACKed; only total absence of the bus is an error.
func (t *i2cTransport) Wake() error {
	_, err := unix.Write(t.fd, []byte{wordAddrReset})
	if err != nil && err != unix.EIO && err != unix.EREMOTEIO {
		return fmt.Errorf("%w: wake: %v", backend.ErrDeviceAbsent, err)
	}
	time.Sleep(tWake)

	// Wake response is a 4-byte frame with status 0x11.
	resp := make([]byte, 4)
	n, err := unix.Read(t.fd, resp)
	if err != nil {
		return fmt.Errorf("%w: wake readback: %v", backend.ErrDeviceAbsent, err)
	}
	if n < 4 || resp[1] != statusWakeOK {
		return fmt.Errorf("%w: unexpected wake response % x", backend.ErrTransport, resp[:n])
	}
	return nil
}

// Exchange writes the command frame behind the command word address and polls
// for the response until the deadline expires.
func (t *i2cTransport) Exchange(packet []byte, deadline time.Duration) ([]byte, error) {
	frame := append([]byte{wordAddrCommand}, packet...)
	if _, err := unix.Write(t.fd, frame); err != nil {
		return nil, fmt.Errorf("%w: command write: %v", backend.ErrTransport, err)
	}

	expire := time.Now().Add(deadline)
	poll := time.Millisecond
	for {
		time.Sleep(poll)
		// First byte of the response frame is the count.
		head := make([]byte, 1)
		if n, err := unix.Read(t.fd, head); err == nil && n == 1 && head[0] >= respFrameMin {
			count := int(head[0])
			rest := make([]byte, count-1)
			if _, err := unix.Read(t.fd, rest); err != nil {
				return nil, fmt.Errorf("%w: response read: %v", backend.ErrTransport, err)
			}
			return append(head, rest...), nil
		}
		if time.Now().After(expire) {
			return nil, fmt.Errorf("%w: deadline expired after %s", backend.ErrTransport, deadline)
		}
		if poll < 8*time.Millisecond {
			poll *= 2
		}
	}
}

// Close releases the bus file descriptor.
func (t *i2cTransport) Close() error {
	if t.fd < 0 {
		return nil
	}
	err := unix.Close(t.fd)
	t.fd = -1
	if err != nil {
		return fmt.Errorf("%w: close: %v", backend.ErrTransport, err)
	}
	return nil
}
