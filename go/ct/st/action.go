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
	"fmt"
	"strings"

	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// ActionKind enumerates the operations of the action vocabulary shared by
// the ledger and the reference model.
type ActionKind byte

const (
	InitAccount ActionKind = iota
	Fund
	Submit
	AdvanceEpoch
)

var actionKindNames = map[ActionKind]string{
	InitAccount:  "init-account",
	Fund:         "fund",
	Submit:       "submit",
	AdvanceEpoch: "advance-epoch",
}

func (k ActionKind) String() string {
	if name, found := actionKindNames[k]; found {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", k)
}

func (k ActionKind) MarshalText() ([]byte, error) {
	if _, found := actionKindNames[k]; !found {
		return nil, fmt.Errorf("invalid action kind %d", k)
	}
	return []byte(k.String()), nil
}

func (k *ActionKind) UnmarshalText(data []byte) error {
	for kind, name := range actionKindNames {
		if name == string(data) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown action kind %q", data)
}

// Program enumerates the standard transaction modules usable in actions.
type Program byte

const (
	Transfer Program = iota
	Sweep
	Revert
	Burn
	ProtocolWrite
	NumPrograms
)

var programNames = map[Program]string{
	Transfer:      "transfer",
	Sweep:         "sweep",
	Revert:        "revert",
	Burn:          "burn",
	ProtocolWrite: "protocol-write",
}

func (p Program) String() string {
	if name, found := programNames[p]; found {
		return name
	}
	return fmt.Sprintf("Program(%d)", p)
}

func (p Program) MarshalText() ([]byte, error) {
	if _, found := programNames[p]; !found {
		return nil, fmt.Errorf("invalid program %d", p)
	}
	return []byte(p.String()), nil
}

func (p *Program) UnmarshalText(data []byte) error {
	for program, name := range programNames {
		if name == string(data) {
			*p = program
			return nil
		}
	}
	return fmt.Errorf("unknown program %q", data)
}

// TxSpec describes a transaction running one of the standard programs.
type TxSpec struct {
	Program Program
	From    veritas.Address
	To      veritas.Address
	Amount  uint64
	// Signers lists the addresses authorizing the transaction.
	Signers []veritas.Address `json:",omitempty"`
	// Forged corrupts the signatures of all authorizations.
	Forged   bool `json:",omitempty"`
	GasLimit veritas.Gas
}

func (s TxSpec) Clone() TxSpec {
	res := s
	res.Signers = append([]veritas.Address(nil), s.Signers...)
	return res
}

func (s TxSpec) String() string {
	var b strings.Builder
	switch s.Program {
	case Transfer:
		fmt.Fprintf(&b, "transfer %d from %v to %v", s.Amount, s.From, s.To)
	case Sweep:
		fmt.Fprintf(&b, "sweep from %v to %v", s.From, s.To)
	case Revert:
		fmt.Fprintf(&b, "revert on %v", s.From)
	default:
		b.WriteString(s.Program.String())
	}
	fmt.Fprintf(&b, ", gas %d, signers %v", s.GasLimit, s.Signers)
	if s.Forged {
		b.WriteString(", forged")
	}
	return b.String()
}

// Action is a single step of a test sequence.
type Action struct {
	Kind    ActionKind
	Account veritas.Address `json:",omitempty"`
	Amount  uint64          `json:",omitempty"`
	Tx      *TxSpec         `json:",omitempty"`
}

func (a Action) Clone() Action {
	res := a
	if a.Tx != nil {
		tx := a.Tx.Clone()
		res.Tx = &tx
	}
	return res
}

func (a Action) String() string {
	switch a.Kind {
	case InitAccount:
		return fmt.Sprintf("init-account %v", a.Account)
	case Fund:
		return fmt.Sprintf("fund %v with %d", a.Account, a.Amount)
	case Submit:
		if a.Tx == nil {
			return "submit <nil>"
		}
		return "submit " + a.Tx.String()
	case AdvanceEpoch:
		return "advance-epoch"
	}
	return a.Kind.String()
}

// CloneActions creates a deep copy of the given actions.
func CloneActions(actions []Action) []Action {
	res := make([]Action, len(actions))
	for i, action := range actions {
		res[i] = action.Clone()
	}
	return res
}
