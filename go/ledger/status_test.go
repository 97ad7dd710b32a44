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
	"reflect"
	"testing"
)

func TestTxState_LegalPathsAreAccepted(t *testing.T) {
	paths := [][]TxStatus{
		{Pending, Executing, Rejected},
		{Pending, Executing, Verifying, Rejected},
		{Pending, Executing, Verifying, Committed},
	}
	for _, path := range paths {
		state := newTxState()
		for _, next := range path[1:] {
			state.transition(next)
		}
		if !reflect.DeepEqual(state.history, path) {
			t.Errorf("history = %v, want %v", state.history, path)
		}
		if !state.current().IsTerminal() {
			t.Errorf("%v should be terminal", state.current())
		}
	}
}

func TestTxState_IllegalTransitionsPanic(t *testing.T) {
	all := []TxStatus{Pending, Executing, Verifying, Committed, Rejected}
	for _, from := range all {
		for _, to := range all {
			legal := false
			for _, next := range legalTransitions[from] {
				legal = legal || next == to
			}
			if legal {
				continue
			}
			func() {
				defer func() {
					if recover() == nil {
						t.Errorf("transition %v -> %v should panic", from, to)
					}
				}()
				state := &txState{history: []TxStatus{from}}
				state.transition(to)
			}()
		}
	}
}

func TestTxStatus_String(t *testing.T) {
	tests := map[TxStatus]string{
		Pending:      "pending",
		Executing:    "executing",
		Verifying:    "verifying",
		Committed:    "committed",
		Rejected:     "rejected",
		TxStatus(42): "TxStatus(42)",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
