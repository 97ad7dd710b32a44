// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package storage

import (
	"strings"
	"sync"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/emirpasic/gods/maps/treemap"
)

// Memory is an in-memory storage keeping all entries in an ordered tree map.
type Memory struct {
	entries *treemap.Map
	mutex   sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{entries: treemap.NewWithStringComparator()}
}

func (m *Memory) Get(key veritas.Key) (veritas.Value, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	value, found := m.entries.Get(string(key))
	if !found {
		return nil, false, nil
	}
	return clone(value.(veritas.Value)), true, nil
}

func (m *Memory) Has(key veritas.Key) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, found := m.entries.Get(string(key))
	return found, nil
}

func (m *Memory) IteratePrefix(prefix veritas.Key, visit func(veritas.Key, veritas.Value) bool) error {
	// Entries are collected first so that visitors may access the storage.
	type entry struct {
		key   veritas.Key
		value veritas.Value
	}
	var matches []entry
	m.mutex.RLock()
	key, value := m.entries.Ceiling(string(prefix))
	for key != nil && strings.HasPrefix(key.(string), string(prefix)) {
		matches = append(matches, entry{veritas.Key(key.(string)), clone(value.(veritas.Value))})
		// The smallest key greater than the current one.
		key, value = m.entries.Ceiling(key.(string) + "\x00")
	}
	m.mutex.RUnlock()

	for _, match := range matches {
		if !visit(match.key, match.value) {
			break
		}
	}
	return nil
}

func (m *Memory) Apply(updates []veritas.Update) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, update := range updates {
		if update.Deleted {
			m.entries.Remove(string(update.Key))
		} else {
			m.entries.Put(string(update.Key), clone(update.Value))
		}
	}
	return nil
}

// Size returns the number of stored entries.
func (m *Memory) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.entries.Size()
}

func (m *Memory) Close() error {
	return nil
}
