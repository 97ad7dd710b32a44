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
	"errors"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
)

// MemDB is an in-memory storage based on avalanchego's memdb.
type MemDB struct {
	db *memdb.Database
}

func NewMemDB() *MemDB {
	return &MemDB{db: memdb.New()}
}

func (m *MemDB) Get(key veritas.Key) (veritas.Value, bool, error) {
	value, err := m.db.Get([]byte(key))
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return clone(value), true, nil
}

func (m *MemDB) Has(key veritas.Key) (bool, error) {
	return m.db.Has([]byte(key))
}

func (m *MemDB) IteratePrefix(prefix veritas.Key, visit func(veritas.Key, veritas.Value) bool) error {
	iter := m.db.NewIteratorWithPrefix([]byte(prefix))
	defer iter.Release()
	for iter.Next() {
		if !visit(veritas.Key(iter.Key()), clone(iter.Value())) {
			break
		}
	}
	return iter.Error()
}

func (m *MemDB) Apply(updates []veritas.Update) error {
	batch := m.db.NewBatch()
	for _, update := range updates {
		var err error
		if update.Deleted {
			err = batch.Delete([]byte(update.Key))
		} else {
			err = batch.Put([]byte(update.Key), update.Value)
		}
		if err != nil {
			return err
		}
	}
	return batch.Write()
}

func (m *MemDB) Close() error {
	return m.db.Close()
}
