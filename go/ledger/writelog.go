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
	"sort"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/emirpasic/gods/sets/linkedhashset"
)

// WriteLogEntry is a single tentative modification of the storage.
type WriteLogEntry struct {
	Key     veritas.Key
	Value   veritas.Value
	Deleted bool
	Seq     uint64
}

// WriteLog is a transaction-scoped overlay of a committed storage. All
// modifications are recorded in an append-only log and only reach the
// storage through Commit. Lookups consult the log first and fall back to
// the committed storage.
//
// A WriteLog is not thread-safe.
type WriteLog struct {
	storage veritas.Storage
	entries []WriteLogEntry
	latest  map[veritas.Key]int
	touched *linkedhashset.Set
}

func NewWriteLog(storage veritas.Storage) *WriteLog {
	return &WriteLog{
		storage: storage,
		latest:  map[veritas.Key]int{},
		touched: linkedhashset.New(),
	}
}

func (l *WriteLog) append(key veritas.Key, value veritas.Value, deleted bool) {
	l.latest[key] = len(l.entries)
	l.entries = append(l.entries, WriteLogEntry{
		Key:     key,
		Value:   value,
		Deleted: deleted,
		Seq:     uint64(len(l.entries)),
	})
	l.touched.Add(key)
}

// Write records an update of the given key. The value is copied.
func (l *WriteLog) Write(key veritas.Key, value veritas.Value) {
	l.append(key, append(veritas.Value{}, value...), false)
}

// Delete records the removal of the given key.
func (l *WriteLog) Delete(key veritas.Key) {
	l.append(key, nil, true)
}

// Read returns the current value of the given key, including all logged
// modifications.
func (l *WriteLog) Read(key veritas.Key) (veritas.Value, bool, error) {
	if pos, found := l.latest[key]; found {
		entry := l.entries[pos]
		if entry.Deleted {
			return nil, false, nil
		}
		return append(veritas.Value{}, entry.Value...), true, nil
	}
	return l.storage.Get(key)
}

func (l *WriteLog) Has(key veritas.Key) (bool, error) {
	if pos, found := l.latest[key]; found {
		return !l.entries[pos].Deleted, nil
	}
	return l.storage.Has(key)
}

// IteratePrefix visits the merged view of the committed storage and the
// logged modifications in key order. Committed entries are streamed from the
// storage and interleaved with the logged keys as they are reached, so a
// visitor returning false stops the scan of the storage as well.
func (l *WriteLog) IteratePrefix(prefix veritas.Key, visit func(veritas.Key, veritas.Value) bool) error {
	logged := make([]veritas.Key, 0)
	for key := range l.latest {
		if key.HasPrefix(prefix) {
			logged = append(logged, key)
		}
	}
	sort.Slice(logged, func(i, j int) bool { return logged[i] < logged[j] })

	stopped := false
	// emit visits the logged version of the key, skipping deletions.
	emit := func(key veritas.Key) bool {
		entry := l.entries[l.latest[key]]
		if entry.Deleted {
			return true
		}
		return visit(key, append(veritas.Value{}, entry.Value...))
	}
	next := 0
	err := l.storage.IteratePrefix(prefix, func(key veritas.Key, value veritas.Value) bool {
		for ; next < len(logged) && logged[next] < key; next++ {
			if !emit(logged[next]) {
				stopped = true
				return false
			}
		}
		if next < len(logged) && logged[next] == key {
			next++
			stopped = !emit(key)
			return !stopped
		}
		stopped = !visit(key, value)
		return !stopped
	})
	if err != nil || stopped {
		return err
	}
	for ; next < len(logged); next++ {
		if !emit(logged[next]) {
			break
		}
	}
	return nil
}

// TouchedKeys returns all written or deleted keys ordered by their first
// modification.
func (l *WriteLog) TouchedKeys() []veritas.Key {
	res := make([]veritas.Key, 0, l.touched.Size())
	for _, key := range l.touched.Values() {
		res = append(res, key.(veritas.Key))
	}
	return res
}

// Changed returns the number of touched keys starting with the given prefix.
func (l *WriteLog) Changed(prefix veritas.Key) int {
	count := 0
	for key := range l.latest {
		if key.HasPrefix(prefix) {
			count++
		}
	}
	return count
}

// Entries returns a copy of all log entries in sequence order.
func (l *WriteLog) Entries() []WriteLogEntry {
	return append([]WriteLogEntry{}, l.entries...)
}

func (l *WriteLog) Len() int {
	return len(l.entries)
}

// Rollback discards all logged modifications.
func (l *WriteLog) Rollback() {
	l.entries = nil
	l.latest = map[veritas.Key]int{}
	l.touched.Clear()
}

// Commit applies all logged modifications in sequence order to the
// committed storage using a single atomic batch and resets the log.
func (l *WriteLog) Commit() error {
	updates := make([]veritas.Update, 0, len(l.entries))
	for _, entry := range l.entries {
		updates = append(updates, veritas.Update{
			Key:     entry.Key,
			Value:   entry.Value,
			Deleted: entry.Deleted,
		})
	}
	if err := l.storage.Apply(updates); err != nil {
		return err
	}
	l.Rollback()
	return nil
}
