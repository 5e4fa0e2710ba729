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

// Package vault implements the provider-routing core: a frozen routing
// table binding each cryptographic primitive to an ordered list of
// backends, and the facade callers dispatch through.
//
// Dispatch rules:
//
//   - The init slot brings up every listed backend in declaration order;
//     any failure aborts creation and tears down the already-initialized
//     backends in reverse order.
//   - Every other slot tries backends in declaration order. The first that
//     does not report unsupported handles the call. Any other failure
//     surfaces immediately without fallback.
//   - A transport error degrades the failing backend. The next dispatch
//     through it retries bring-up once before failing hard.
//
// The routing table is frozen at creation. Reconfiguration means closing
// the context and building a new one.
//
// Usage:
//
//	host, _ := software.NewBackend(nil)
//	se, _ := atecc.NewBackend(&atecc.Config{UseSimulator: true})
//
//	v, err := vault.New(&vault.Config{
//	    Routing: vault.Routing{
//	        Init:   []types.BackendID{types.ATECC508A, types.HostSoftware()},
//	        Rand:   []types.BackendID{types.ATECC508A},
//	        ECDH:   []types.BackendID{types.ATECC508A},
//	        HKDF:   []types.BackendID{types.ATECC508A, types.HostSoftware()},
//	        AESGCM: []types.BackendID{types.HostSoftware()},
//	    },
//	    Backends: []backend.Backend{host, se},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Close()
//
//	entropy, err := v.Rand(32)
package vault
