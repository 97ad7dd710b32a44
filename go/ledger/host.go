// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ledger

import (
	"github.com/Fantom-foundation/Veritas/go/veritas"
)

var errReadOnly = veritas.Trap("read-only invocation")

// txHost grants transaction modules write access to the write-log.
type txHost struct {
	log    *WriteLog
	auth   *authorizer
	events []veritas.Data
}

func (h *txHost) Read(view veritas.View, key veritas.Key) (veritas.Value, bool, error) {
	if view == veritas.PreView {
		return h.log.storage.Get(key)
	}
	return h.log.Read(key)
}

func (h *txHost) Has(view veritas.View, key veritas.Key) (bool, error) {
	if view == veritas.PreView {
		return h.log.storage.Has(key)
	}
	return h.log.Has(key)
}

func (h *txHost) Write(key veritas.Key, value veritas.Value) error {
	h.log.Write(key, value)
	return nil
}

func (h *txHost) Delete(key veritas.Key) error {
	h.log.Delete(key)
	return nil
}

func (h *txHost) IteratePrefix(view veritas.View, prefix veritas.Key, visit func(veritas.Key, veritas.Value) bool) error {
	if view == veritas.PreView {
		return h.log.storage.IteratePrefix(prefix, visit)
	}
	return h.log.IteratePrefix(prefix, visit)
}

func (h *txHost) EmitEvent(payload veritas.Data) error {
	h.events = append(h.events, append(veritas.Data{}, payload...))
	return nil
}

func (h *txHost) IsAuthorized(addr veritas.Address) (bool, error) {
	return h.auth.isAuthorized(addr)
}

func (h *txHost) Changed(prefix veritas.Key) (int, error) {
	return h.log.Changed(prefix), nil
}

// predicateHost provides validity predicates with read-only access to the
// pre-state and the post-state of a transaction.
type predicateHost struct {
	txHost
}

func (h *predicateHost) Write(veritas.Key, veritas.Value) error {
	return errReadOnly
}

func (h *predicateHost) Delete(veritas.Key) error {
	return errReadOnly
}

func (h *predicateHost) EmitEvent(veritas.Data) error {
	return errReadOnly
}
