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
	"encoding/json"
	"os"
)

// Sequence is a reproducible list of actions. Scenario, Seed and Index
// identify the generator run producing the original sequence.
type Sequence struct {
	Scenario string
	Seed     uint64
	Index    uint64
	Actions  []Action
	// Step is the position of the first divergence, if known.
	Step int `json:",omitempty"`
}

func (s *Sequence) Clone() *Sequence {
	res := *s
	res.Actions = CloneActions(s.Actions)
	return &res
}

// MarshalSequenceJSON encodes the sequence in a human readable form.
func MarshalSequenceJSON(seq *Sequence) ([]byte, error) {
	return json.MarshalIndent(seq, "", "  ")
}

// ExportSequenceJSON exports the given sequence in json format to the given
// file path. An existing file is overwritten.
func ExportSequenceJSON(seq *Sequence, filePath string) error {
	serialized, err := MarshalSequenceJSON(seq)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, serialized, 0644)
}

// ImportSequenceJSON imports a sequence from the given json file.
func ImportSequenceJSON(filePath string) (*Sequence, error) {
	serialized, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	res := &Sequence{}
	if err := json.Unmarshal(serialized, res); err != nil {
		return nil, err
	}
	return res, nil
}
