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
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Pebble is a storage backed by a Pebble key-value store.
type Pebble struct {
	db *pebble.DB
	wo *pebble.WriteOptions
}

// NewPebble opens a Pebble store in the specified directory. In-memory
// stores use a virtual file system.
func NewPebble(dir string, inMem bool) (*Pebble, error) {
	opts := &pebble.Options{}
	if inMem {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir+".pebbledb", opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store: %w", err)
	}
	return &Pebble{db: db, wo: &pebble.WriteOptions{Sync: !inMem}}, nil
}

func (p *Pebble) Get(key veritas.Key) (veritas.Value, bool, error) {
	value, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	res := clone(value)
	return res, true, closer.Close()
}

func (p *Pebble) Has(key veritas.Key) (bool, error) {
	_, found, err := p.Get(key)
	return found, err
}

func (p *Pebble) IteratePrefix(prefix veritas.Key, visit func(veritas.Key, veritas.Value) bool) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: prefixUpperBound([]byte(prefix)),
	})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		if !visit(veritas.Key(iter.Key()), clone(iter.Value())) {
			break
		}
	}
	return iter.Close()
}

func (p *Pebble) Apply(updates []veritas.Update) error {
	batch := p.db.NewBatch()
	defer batch.Close()
	for _, update := range updates {
		var err error
		if update.Deleted {
			err = batch.Delete([]byte(update.Key), p.wo)
		} else {
			err = batch.Set([]byte(update.Key), update.Value, p.wo)
		}
		if err != nil {
			return err
		}
	}
	return batch.Commit(p.wo)
}

func (p *Pebble) Close() error {
	return p.db.Close()
}
