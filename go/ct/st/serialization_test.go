// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package st

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Fantom-foundation/Veritas/go/veritas"
)

func TestSerialization_ExportedSequencesCanBeImported(t *testing.T) {
	seq := &Sequence{
		Scenario: "mixed",
		Seed:     42,
		Index:    7,
		Step:     2,
		Actions: []Action{
			{Kind: InitAccount, Account: Accounts[0]},
			{Kind: Fund, Account: Accounts[0], Amount: 100},
			{Kind: Submit, Tx: &TxSpec{
				Program:  Transfer,
				From:     Accounts[0],
				To:       Accounts[1],
				Amount:   30,
				Signers:  []veritas.Address{Accounts[0]},
				Forged:   true,
				GasLimit: 100_000,
			}},
			{Kind: AdvanceEpoch},
		},
	}
	path := filepath.Join(t.TempDir(), "sequence.json")
	if err := ExportSequenceJSON(seq, path); err != nil {
		t.Fatalf("failed to export: %v", err)
	}
	restored, err := ImportSequenceJSON(path)
	if err != nil {
		t.Fatalf("failed to import: %v", err)
	}
	if !reflect.DeepEqual(seq, restored) {
		t.Errorf("restored sequence differs\nwant %v\n got %v", seq, restored)
	}
}

func TestSerialization_EncodingIsHumanReadable(t *testing.T) {
	seq := &Sequence{Actions: []Action{{Kind: Submit, Tx: &TxSpec{Program: ProtocolWrite}}}}
	data, err := MarshalSequenceJSON(seq)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	for _, want := range []string{`"submit"`, `"protocol-write"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("encoding does not contain %s: %s", want, data)
		}
	}
}

func TestSerialization_ImportFailsForMissingOrInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := ImportSequenceJSON(filepath.Join(dir, "missing.json")); err == nil {
		t.Errorf("expected error for missing file")
	}
	path := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(path, []byte(`{"Actions":[{"Kind":"dance"}]}`), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := ImportSequenceJSON(path); err == nil {
		t.Errorf("expected error for invalid action kind")
	}
}
