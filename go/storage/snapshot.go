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
	"encoding/json"
	"fmt"
	"io"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SnapshotEntry is a single key/value pair of an exported snapshot.
type SnapshotEntry struct {
	Key   veritas.Key   `json:"key"`
	Value hexutil.Bytes `json:"value"`
}

// Entries lists all entries of the given storage in key order.
func Entries(storage veritas.Storage) ([]SnapshotEntry, error) {
	res := []SnapshotEntry{}
	err := storage.IteratePrefix("", func(key veritas.Key, value veritas.Value) bool {
		res = append(res, SnapshotEntry{Key: key, Value: hexutil.Bytes(value)})
		return true
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ExportSnapshotJSON writes all entries of the given storage as a JSON list
// to the writer.
func ExportSnapshotJSON(storage veritas.Storage, out io.Writer) error {
	entries, err := Entries(storage)
	if err != nil {
		return fmt.Errorf("failed to collect snapshot: %w", err)
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// ImportSnapshotJSON reads a snapshot produced by ExportSnapshotJSON and
// applies all of its entries to the given storage in a single batch.
func ImportSnapshotJSON(in io.Reader, storage veritas.Storage) error {
	var entries []SnapshotEntry
	if err := json.NewDecoder(in).Decode(&entries); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	updates := make([]veritas.Update, 0, len(entries))
	for _, entry := range entries {
		if err := entry.Key.Validate(); err != nil {
			return fmt.Errorf("invalid key %v in snapshot: %w", entry.Key, err)
		}
		updates = append(updates, veritas.Update{Key: entry.Key, Value: veritas.Value(entry.Value)})
	}
	return storage.Apply(updates)
}
