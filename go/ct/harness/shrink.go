// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package harness

import (
	"errors"

	"github.com/Fantom-foundation/Veritas/go/ct/model"
	"github.com/Fantom-foundation/Veritas/go/ct/st"
)

// Shrink reduces a failing action sequence to a smaller one that still
// fails. A candidate fails if the test function returns true for it. The
// input is not modified.
//
// Shrinking first removes chunks of actions of decreasing size and then
// simplifies the remaining actions one by one, until no further reduction
// is possible.
func Shrink(actions []st.Action, fails func([]st.Action) bool) []st.Action {
	current := st.CloneActions(actions)
	for progress := true; progress; {
		progress = false
		if next, ok := removeChunks(current, fails); ok {
			current, progress = next, true
		}
		if next, ok := simplifyActions(current, fails); ok {
			current, progress = next, true
		}
	}
	return current
}

func removeChunks(actions []st.Action, fails func([]st.Action) bool) ([]st.Action, bool) {
	reduced := false
	for size := len(actions) / 2; size > 0; size /= 2 {
		for start := 0; start+size <= len(actions); {
			candidate := make([]st.Action, 0, len(actions)-size)
			candidate = append(candidate, actions[:start]...)
			candidate = append(candidate, actions[start+size:]...)
			if fails(candidate) {
				actions, reduced = candidate, true
			} else {
				start += size
			}
		}
	}
	// Sequences of a single action are not covered by the loop above.
	if len(actions) == 1 && fails(nil) {
		return nil, true
	}
	return actions, reduced
}

func simplifyActions(actions []st.Action, fails func([]st.Action) bool) ([]st.Action, bool) {
	reduced := false
	for i := range actions {
		for _, simpler := range simplifications(actions[i]) {
			candidate := st.CloneActions(actions)
			candidate[i] = simpler
			if fails(candidate) {
				actions, reduced = candidate, true
				break
			}
		}
	}
	return actions, reduced
}

// simplifications lists variants of an action which are simpler in some
// aspect. Every variant is strictly simpler, ensuring termination.
func simplifications(action st.Action) []st.Action {
	res := []st.Action{}
	variant := func(modify func(*st.Action)) {
		next := action.Clone()
		modify(&next)
		res = append(res, next)
	}
	if action.Amount > 0 {
		variant(func(a *st.Action) { a.Amount = 0 })
		if action.Amount > 1 {
			variant(func(a *st.Action) { a.Amount /= 2 })
		}
	}
	tx := action.Tx
	if tx == nil {
		return res
	}
	if tx.Forged {
		variant(func(a *st.Action) { a.Tx.Forged = false })
	}
	for i := range tx.Signers {
		i := i
		variant(func(a *st.Action) {
			a.Tx.Signers = append(a.Tx.Signers[:i:i], a.Tx.Signers[i+1:]...)
		})
	}
	if tx.Amount > 0 {
		variant(func(a *st.Action) { a.Tx.Amount = 0 })
		if tx.Amount > 1 {
			variant(func(a *st.Action) { a.Tx.Amount /= 2 })
		}
	}
	if tx.GasLimit != model.AmpleGas {
		variant(func(a *st.Action) { a.Tx.GasLimit = model.AmpleGas })
	}
	return res
}

// isDivergence reports whether the given execution result is a divergence.
// Precondition violations and infrastructure failures produced by a
// shrinking step do not preserve the failure.
func isDivergence(err error) bool {
	var divergence *DivergenceError
	return errors.As(err, &divergence)
}
