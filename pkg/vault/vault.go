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

package vault

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-vault/pkg/backend"
	"github.com/jeremyhahn/go-vault/pkg/logging"
	"github.com/jeremyhahn/go-vault/pkg/metrics"
	"github.com/jeremyhahn/go-vault/pkg/types"
)

// Config holds the configuration for a vault context.
type Config struct {
	// Routing is the declarative routing configuration. It is copied into
	// a frozen table at creation; later mutation has no effect.
	Routing Routing `yaml:"routing" json:"routing"`

	// Backends are the constructed providers. Every backend referenced by
	// the routing must be present exactly once.
	Backends []backend.Backend `yaml:"-" json:"-"`

	// Logger is the logger instance to use
	Logger *logging.Logger `yaml:"-" json:"-"`
}

type state int

const (
	stateReady state = iota
	stateTerminated
)

// handle is the per-backend dispatch state. A transport error degrades the
// handle; the next dispatch through it retries bring-up once before failing
// hard.
type handle struct {
	backend  backend.Backend
	degraded bool
}

// Vault is the single entry point callers see. Each primitive method is a
// thin dispatch through the frozen routing table to the first backend in
// the slot that supports the operation.
//
// All dispatch is serialized behind one mutex: secure-element transports
// are serial and host crypto libraries are not guaranteed thread-safe, so
// the vault assumes a single in-flight operation per context.
type Vault struct {
	id        uuid.UUID
	table     *routingTable
	handles   map[types.BackendID]*handle
	initOrder []types.BackendID
	state     state
	logger    *logging.Logger
	mu        sync.Mutex
}

// New creates a vault context: it validates the routing against the supplied
// backends, freezes the routing table, and initializes every referenced
// backend, init slot first, in declaration order. If any bring-up fails the
// already-initialized backends are torn down in reverse order and the error
// is returned; no handle leaks.
func New(config *Config) (*Vault, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", backend.ErrInvalidConfig)
	}
	if err := config.Routing.Validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	byID := make(map[types.BackendID]*handle, len(config.Backends))
	for _, b := range config.Backends {
		if _, dup := byID[b.ID()]; dup {
			return nil, fmt.Errorf("%w: backend %s supplied twice", backend.ErrInvalidConfig, b.ID())
		}
		byID[b.ID()] = &handle{backend: b}
	}

	referenced := config.Routing.Referenced()
	for _, id := range referenced {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: routing references backend %s but none was supplied",
				backend.ErrInvalidConfig, id)
		}
	}

	v := &Vault{
		id:      uuid.New(),
		table:   newRoutingTable(&config.Routing),
		handles: make(map[types.BackendID]*handle, len(referenced)),
		logger:  logger,
	}
	for _, id := range referenced {
		v.handles[id] = byID[id]
	}

	// Bring up the init slot in declaration order, then any backend the
	// other slots reference that the init slot does not name.
	for _, id := range referenced {
		if err := v.handles[id].backend.Init(); err != nil {
			v.rollback()
			return nil, err
		}
		v.initOrder = append(v.initOrder, id)
	}

	v.logger.Debug("vault: context created", "id", v.id.String(), "backends", len(referenced))
	return v, nil
}

// rollback tears down initialized backends in reverse order.
func (v *Vault) rollback() {
	for i := len(v.initOrder) - 1; i >= 0; i-- {
		v.logger.MaybeError(v.handles[v.initOrder[i]].backend.Close())
	}
	v.initOrder = nil
}

// ID returns the context identifier.
func (v *Vault) ID() uuid.UUID {
	return v.id
}

// BackendStatus describes one backend handle for introspection.
type BackendStatus struct {
	ID           types.BackendID
	Capabilities types.Capabilities
	Degraded     bool
}

// Backends returns the status of every handle in the context, init order.
func (v *Vault) Backends() []BackendStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	statuses := make([]BackendStatus, 0, len(v.initOrder))
	for _, id := range v.initOrder {
		h := v.handles[id]
		statuses = append(statuses, BackendStatus{
			ID:           id,
			Capabilities: h.backend.Capabilities(),
			Degraded:     h.degraded,
		})
	}
	return statuses
}

// Rand returns n cryptographically strong random bytes from the backend
// routed for the rand primitive.
func (v *Vault) Rand(n int) ([]byte, error) {
	return v.dispatch(types.PrimitiveRand, func(b backend.Backend) ([]byte, error) {
		return b.Rand(n)
	})
}

// ECDH performs P-256 key agreement with the routed backend's static key.
// peer is a SEC1 uncompressed point.
func (v *Vault) ECDH(peer []byte) ([]byte, error) {
	return v.dispatch(types.PrimitiveECDH, func(b backend.Backend) ([]byte, error) {
		return b.ECDH(peer)
	})
}

// HKDF derives length bytes via RFC 5869 extract-then-expand.
func (v *Vault) HKDF(salt, ikm, info []byte, length int) ([]byte, error) {
	return v.dispatch(types.PrimitiveHKDF, func(b backend.Backend) ([]byte, error) {
		return b.HKDF(salt, ikm, info, length)
	})
}

// AESGCMSeal encrypts and authenticates plaintext, returning ciphertext
// with the 16-byte tag appended.
func (v *Vault) AESGCMSeal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	return v.dispatch(types.PrimitiveAESGCM, func(b backend.Backend) ([]byte, error) {
		return b.AESGCMSeal(key, nonce, aad, plaintext)
	})
}

// AESGCMOpen authenticates and decrypts ciphertext produced by AESGCMSeal.
func (v *Vault) AESGCMOpen(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	return v.dispatch(types.PrimitiveAESGCM, func(b backend.Backend) ([]byte, error) {
		return b.AESGCMOpen(key, nonce, aad, ciphertext)
	})
}

// Close destroys the context: backends are torn down in reverse bring-up
// order and every subsequent primitive returns ErrNotReady. Idempotent.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == stateTerminated {
		return nil
	}
	var firstErr error
	for i := len(v.initOrder) - 1; i >= 0; i-- {
		if err := v.handles[v.initOrder[i]].backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	v.state = stateTerminated
	v.logger.Debug("vault: context destroyed", "id", v.id.String())
	return firstErr
}

// dispatch walks the routing slot for a primitive. Unsupported results fall
// through to the next backend; any other failure surfaces immediately. A
// degraded backend gets exactly one bring-up retry before its turn.
func (v *Vault) dispatch(p types.Primitive, op func(backend.Backend) ([]byte, error)) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != stateReady {
		return nil, backend.ErrNotReady
	}

	slot := v.table.slots[p]
	if len(slot) == 0 {
		return nil, fmt.Errorf("%w: no routing slot for %s", backend.ErrInternal, p)
	}

	for _, id := range slot {
		h, ok := v.handles[id]
		if !ok {
			return nil, fmt.Errorf("%w: no handle for backend %s", backend.ErrInternal, id)
		}

		if h.degraded {
			if err := v.redeem(p, id, h); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		out, err := op(h.backend)
		if errors.Is(err, backend.ErrUnsupported) {
			metrics.RecordFallback(p.String(), id.String())
			continue
		}
		metrics.RecordOperation(p.String(), id.String(), start, err)
		if err != nil {
			if errors.Is(err, backend.ErrTransport) {
				h.degraded = true
				metrics.SetDegraded(id.String(), true)
				v.logger.Warn("vault: backend degraded", "backend", id.String(), "primitive", p.String())
			}
			metrics.RecordError(p.String(), id.String(), errorType(err))
			return nil, err
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: no backend in %s slot supports the operation",
		backend.ErrUnsupported, p)
}

// redeem retries bring-up of a degraded backend once. Failure is hard; the
// caller surfaces it without falling through the slot list.
func (v *Vault) redeem(p types.Primitive, id types.BackendID, h *handle) error {
	v.logger.Debug("vault: retrying degraded backend", "backend", id.String())
	_ = h.backend.Close()
	if err := h.backend.Init(); err != nil {
		metrics.RecordError(p.String(), id.String(), errorType(err))
		return err
	}
	h.degraded = false
	metrics.SetDegraded(id.String(), false)
	return nil
}

// errorType maps the closed error set to stable metric label values.
func errorType(err error) string {
	switch {
	case errors.Is(err, backend.ErrNotReady):
		return "not_ready"
	case errors.Is(err, backend.ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, backend.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, backend.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, backend.ErrDeviceAbsent):
		return "device_absent"
	case errors.Is(err, backend.ErrTransport):
		return "transport"
	case errors.Is(err, backend.ErrSlotEmpty):
		return "slot_empty"
	case errors.Is(err, backend.ErrEntropyExhausted):
		return "entropy_exhausted"
	case errors.Is(err, backend.ErrAuthenticationFailed):
		return "authentication_failed"
	default:
		return "internal"
	}
}
