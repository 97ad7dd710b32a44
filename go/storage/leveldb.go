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
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/syndtr/goleveldb/leveldb"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a storage backed by a LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens a LevelDB database in the specified directory or, if
// inMem is set, in memory.
func NewLevelDB(dir string, inMem bool) (*LevelDB, error) {
	var db *leveldb.DB
	var err error
	if inMem {
		db, err = leveldb.Open(lvlstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(dir+".leveldb", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(key veritas.Key) (veritas.Value, bool, error) {
	value, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return clone(value), true, nil
}

func (l *LevelDB) Has(key veritas.Key) (bool, error) {
	return l.db.Has([]byte(key), nil)
}

func (l *LevelDB) IteratePrefix(prefix veritas.Key, visit func(veritas.Key, veritas.Value) bool) error {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		if !visit(veritas.Key(iter.Key()), clone(iter.Value())) {
			break
		}
	}
	return iter.Error()
}

func (l *LevelDB) Apply(updates []veritas.Update) error {
	batch := new(leveldb.Batch)
	for _, update := range updates {
		if update.Deleted {
			batch.Delete([]byte(update.Key))
		} else {
			batch.Put([]byte(update.Key), update.Value)
		}
	}
	return l.db.Write(batch, nil)
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
