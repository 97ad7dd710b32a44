// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package storage provides implementations of the committed state of a
// ledger. Backends are registered by name and created through New.
package storage

import (
	"fmt"
	"sort"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"golang.org/x/exp/maps"
)

// Factory creates a storage instance in the given directory. If inMem is set,
// the instance must not touch the file system.
type Factory func(dir string, inMem bool) (veritas.Storage, error)

var factories = map[string]Factory{
	"memory":  func(string, bool) (veritas.Storage, error) { return NewMemory(), nil },
	"pebble":  func(dir string, inMem bool) (veritas.Storage, error) { return NewPebble(dir, inMem) },
	"leveldb": func(dir string, inMem bool) (veritas.Storage, error) { return NewLevelDB(dir, inMem) },
	"memdb":   func(string, bool) (veritas.Storage, error) { return NewMemDB(), nil },
}

// DefaultBackend is the backend used when none is configured.
const DefaultBackend = "memory"

// New returns a storage implementation matching the provided backend name.
func New(backend string, dir string, inMem bool) (veritas.Storage, error) {
	factory, ok := factories[backend]
	if !ok {
		return nil, fmt.Errorf("storage backend %s not found", backend)
	}
	return factory(dir, inMem)
}

// Backends returns the sorted names of all available backends.
func Backends() []string {
	names := maps.Keys(factories)
	sort.Strings(names)
	return names
}

// prefixUpperBound returns the smallest key greater than all keys with the
// given prefix, or nil if there is no such key.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func clone(value []byte) veritas.Value {
	res := make(veritas.Value, len(value))
	copy(res, value)
	return res
}
