// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package veritas

//go:generate mockgen -source storage.go -destination storage_mock.go -package veritas

// Storage is the committed key-value state of a ledger. Implementations are
// provided by the storage package. All operations must be safe for
// concurrent readers; writers are serialized by the ledger.
type Storage interface {
	Get(key Key) (Value, bool, error)
	Has(key Key) (bool, error)
	// IteratePrefix visits all entries with the given key prefix in
	// ascending key order until the visitor returns false.
	IteratePrefix(prefix Key, visit func(Key, Value) bool) error
	// Apply atomically applies the given updates in order. Either all updates
	// become visible or none does.
	Apply(updates []Update) error
	Close() error
}

// Update is a single modification of committed storage.
type Update struct {
	Key     Key
	Value   Value
	Deleted bool
}
