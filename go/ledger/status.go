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
	"fmt"

	"golang.org/x/exp/slices"
)

// TxStatus is the processing state of a submitted transaction.
type TxStatus byte

const (
	Pending TxStatus = iota
	Executing
	Verifying
	Committed
	Rejected
)

func (s TxStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Executing:
		return "executing"
	case Verifying:
		return "verifying"
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("TxStatus(%d)", s)
}

func (s TxStatus) IsTerminal() bool {
	return s == Committed || s == Rejected
}

var legalTransitions = map[TxStatus][]TxStatus{
	Pending:   {Executing},
	Executing: {Verifying, Rejected},
	Verifying: {Committed, Rejected},
}

// txState tracks the status of a transaction and the sequence of states it
// went through.
type txState struct {
	history []TxStatus
}

func newTxState() *txState {
	return &txState{history: []TxStatus{Pending}}
}

func (s *txState) current() TxStatus {
	return s.history[len(s.history)-1]
}

// transition moves the transaction to the next state. Illegal transitions
// are programming errors and cause a panic.
func (s *txState) transition(next TxStatus) {
	if !slices.Contains(legalTransitions[s.current()], next) {
		panic(fmt.Sprintf("illegal transaction state transition: %v -> %v", s.current(), next))
	}
	s.history = append(s.history, next)
}
