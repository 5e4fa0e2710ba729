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
	"fmt"

	"github.com/jeremyhahn/go-vault/pkg/backend"
	"github.com/jeremyhahn/go-vault/pkg/types"
)

// Routing is the declarative routing configuration: one ordered backend
// list per primitive. For the init slot every listed backend is brought up,
// in declaration order. For all other slots backends are tried in order and
// the first that does not report unsupported handles the call.
type Routing struct {
	Init   []types.BackendID `yaml:"init" json:"init"`
	Rand   []types.BackendID `yaml:"rand" json:"rand"`
	ECDH   []types.BackendID `yaml:"ecdh" json:"ecdh"`
	HKDF   []types.BackendID `yaml:"hkdf" json:"hkdf"`
	AESGCM []types.BackendID `yaml:"aes_gcm" json:"aes_gcm"`
}

// Slot returns the backend list for a primitive.
func (r *Routing) Slot(p types.Primitive) []types.BackendID {
	switch p {
	case types.PrimitiveInit:
		return r.Init
	case types.PrimitiveRand:
		return r.Rand
	case types.PrimitiveECDH:
		return r.ECDH
	case types.PrimitiveHKDF:
		return r.HKDF
	case types.PrimitiveAESGCM:
		return r.AESGCM
	default:
		return nil
	}
}

// Validate checks that every slot names at least one backend.
func (r *Routing) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: routing is nil", backend.ErrInvalidConfig)
	}
	for _, p := range types.Primitives {
		slot := r.Slot(p)
		if len(slot) == 0 {
			return fmt.Errorf("%w: routing slot %q is empty", backend.ErrInvalidConfig, p)
		}
		for _, id := range slot {
			if id.IsZero() {
				return fmt.Errorf("%w: routing slot %q names an empty backend id",
					backend.ErrInvalidConfig, p)
			}
		}
	}
	return nil
}

// Referenced returns the distinct backends named anywhere in the routing,
// init slot first, preserving first-mention order.
func (r *Routing) Referenced() []types.BackendID {
	var ids []types.BackendID
	seen := make(map[types.BackendID]bool)
	for _, p := range types.Primitives {
		for _, id := range r.Slot(p) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// routingTable is the frozen dispatch table built from a Routing at vault
// creation. The lists are deep copies; mutating the source Routing after
// creation has no effect on the table.
type routingTable struct {
	slots map[types.Primitive][]types.BackendID
}

func newRoutingTable(r *Routing) *routingTable {
	slots := make(map[types.Primitive][]types.BackendID, len(types.Primitives))
	for _, p := range types.Primitives {
		slots[p] = append([]types.BackendID(nil), r.Slot(p)...)
	}
	return &routingTable{slots: slots}
}
