// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package model provides the reference model of the ledger: a plain,
// non-sandboxed implementation of the action vocabulary serving as the
// oracle in state-machine tests.
package model

import (
	"fmt"
	"sort"

	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AmpleGas is a gas limit sufficient for every transaction of the action
// vocabulary except those burning all of their gas.
const AmpleGas veritas.Gas = 100_000

// Account is the observable state of a single address.
type Account struct {
	Initialized bool
	Balance     uint64
	Nonce       uint64
	// BalanceStored is set once the ledger holds a balance entry for the
	// account, which affects the gas of reading it.
	BalanceStored bool
}

// State is the observable state of the ledger.
type State struct {
	Accounts map[veritas.Address]Account
	Epoch    uint64
}

func (s State) Clone() State {
	return State{Accounts: maps.Clone(s.Accounts), Epoch: s.Epoch}
}

// Model mirrors the externally observable semantics of the ledger.
type Model struct {
	state    State
	fallback ledger.FallbackPolicy
}

func New(fallback ledger.FallbackPolicy) *Model {
	return &Model{
		state:    State{Accounts: map[veritas.Address]Account{}},
		fallback: fallback,
	}
}

// State returns a copy of the current state of the model.
func (m *Model) State() State {
	return m.state.Clone()
}

// Precondition checks whether the action is applicable in the current state.
// Generated sequences only contain applicable actions; shrinking may produce
// sequences violating this.
func (m *Model) Precondition(action st.Action) error {
	switch action.Kind {
	case st.InitAccount:
		if m.state.Accounts[action.Account].Initialized {
			return fmt.Errorf("account %v already initialized", action.Account)
		}
	case st.Fund:
		if !m.state.Accounts[action.Account].Initialized {
			return fmt.Errorf("account %v not initialized", action.Account)
		}
	case st.Submit:
		if action.Tx == nil {
			return fmt.Errorf("missing transaction")
		}
		if action.Tx.Program >= st.NumPrograms {
			return fmt.Errorf("invalid program %v", action.Tx.Program)
		}
	case st.AdvanceEpoch:
	default:
		return fmt.Errorf("unknown action %v", action.Kind)
	}
	return nil
}

func (m *Model) InitAccount(addr veritas.Address) {
	account := m.state.Accounts[addr]
	account.Initialized = true
	account.BalanceStored = true
	m.state.Accounts[addr] = account
}

func (m *Model) Fund(addr veritas.Address, amount uint64) {
	account := m.state.Accounts[addr]
	account.Balance += amount
	account.BalanceStored = true
	m.state.Accounts[addr] = account
}

func (m *Model) AdvanceEpoch() {
	m.state.Epoch++
}

// Outcome is the observable verdict of a submitted transaction.
type Outcome byte

const (
	Accepted Outcome = iota
	OutOfGas
	Trapped
	Rejected
	MissingModule
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case OutOfGas:
		return "out-of-gas"
	case Trapped:
		return "trapped"
	case Rejected:
		return "rejected"
	case MissingModule:
		return "missing-module"
	}
	return fmt.Sprintf("Outcome(%d)", o)
}

// Expectation describes the observation predicted for a submission.
type Expectation struct {
	Outcome Outcome
	GasUsed veritas.Gas
	effect  func(*State)
}

func (e Expectation) String() string {
	return fmt.Sprintf("%v using %d gas", e.Outcome, e.GasUsed)
}

// Observation is the outcome of a submission reported by the ledger.
type Observation struct {
	Outcome Outcome
	GasUsed veritas.Gas
}

func (o Observation) String() string {
	return fmt.Sprintf("%v using %d gas", o.Outcome, o.GasUsed)
}

// Matches checks whether the observation is the expected one.
func (e Expectation) Matches(o Observation) bool {
	return o.Outcome == e.Outcome && o.GasUsed == e.GasUsed
}

// Expect computes the expectation for submitting the described transaction
// without modifying the model. A transaction runs out of gas, consuming its
// entire limit, if and only if its predicted cost exceeds the limit.
func (m *Model) Expect(spec st.TxSpec) Expectation {
	limit := spec.GasLimit
	if limit < 0 {
		limit = 0
	}
	outOfGas := Expectation{Outcome: OutOfGas, GasUsed: limit}
	if spec.Program == st.Burn {
		return outOfGas
	}
	res := m.predict(spec)
	if res.GasUsed > limit {
		return outOfGas
	}
	return res
}

// Submit checks the observed outcome of the described transaction against
// the model and applies the transaction's effect if it was accepted.
func (m *Model) Submit(spec st.TxSpec, observed Observation) error {
	expected := m.Expect(spec)
	if !expected.Matches(observed) {
		return fmt.Errorf("expected %v, got %v", expected, observed)
	}
	if observed.Outcome == Accepted && expected.effect != nil {
		expected.effect(&m.state)
	}
	return nil
}

func (m *Model) authorized(spec st.TxSpec, addr veritas.Address) bool {
	return !spec.Forged &&
		m.state.Accounts[addr].Initialized &&
		slices.Contains(spec.Signers, addr)
}

// verify evaluates the predicate of the given address along the given run.
// It returns the gas used, including the predicate base gas, and whether
// the predicate accepts. Failures are reported through the outcome.
func (m *Model) verify(spec st.TxSpec, addr veritas.Address, run predicateRun) (veritas.Gas, Outcome, bool) {
	if !m.state.Accounts[addr].Initialized && m.fallback == ledger.FallbackReject {
		return 0, MissingModule, false
	}
	run.authorized = m.authorized(spec, addr)
	gas := ledger.VpBaseGas + run.gas()
	if !run.accepts() {
		return gas, Rejected, false
	}
	return gas, Accepted, true
}

func (m *Model) predict(spec st.TxSpec) Expectation {
	intrinsic := IntrinsicGas(spec)
	switch spec.Program {
	case st.Transfer:
		return m.transfer(spec, intrinsic)
	case st.Sweep:
		return m.sweep(spec, intrinsic)
	case st.Revert:
		return Expectation{Outcome: Trapped, GasUsed: intrinsic + revertGas}
	case st.ProtocolWrite:
		gas := intrinsic + protocolWriteGas
		used, outcome, _ := m.verify(spec, veritas.ProtocolAddress, predicateRun{})
		return Expectation{Outcome: outcome, GasUsed: gas + used}
	}
	return Expectation{Outcome: Trapped, GasUsed: intrinsic}
}

func (m *Model) transfer(spec st.TxSpec, intrinsic veritas.Gas) Expectation {
	from, to := m.state.Accounts[spec.From], m.state.Accounts[spec.To]
	if spec.From == spec.To {
		return Expectation{Outcome: Trapped, GasUsed: intrinsic + transferToSelfGas}
	}
	if from.Balance < spec.Amount {
		gas := intrinsic + transferInsufficientGas + stored(from.BalanceStored) + stored(to.BalanceStored)
		if to.BalanceStored {
			gas += memoryWordGas
		}
		return Expectation{Outcome: Trapped, GasUsed: gas}
	}
	gas := intrinsic + transferGas +
		stored(from.BalanceStored) + stored(to.BalanceStored) + stored(from.Initialized)
	return m.move(spec, spec.Amount, true, gas, predicateRun{
		preBalance: from.BalanceStored,
		preNonce:   from.Initialized,
	})
}

func (m *Model) sweep(spec st.TxSpec, intrinsic veritas.Gas) Expectation {
	from, to := m.state.Accounts[spec.From], m.state.Accounts[spec.To]
	if spec.From == spec.To {
		return Expectation{Outcome: Trapped, GasUsed: intrinsic + sweepToSelfGas + stored(from.BalanceStored)}
	}
	gas := intrinsic + sweepGas + 2*stored(from.BalanceStored) + stored(to.BalanceStored)
	return m.move(spec, from.Balance, false, gas, predicateRun{
		balanceOnly: true,
		credit:      from.Balance == 0,
		preBalance:  from.BalanceStored,
		preNonce:    from.Initialized,
	})
}

// move verifies the transfer of the amount after the transaction module
// consumed the given gas. The sender's predicate runs first, followed by
// the receiver's.
func (m *Model) move(spec st.TxSpec, amount uint64, bumpNonce bool, gas veritas.Gas, sender predicateRun) Expectation {
	from, to := spec.From, spec.To
	used, outcome, ok := m.verify(spec, from, sender)
	gas += used
	if !ok {
		return Expectation{Outcome: outcome, GasUsed: gas}
	}
	used, outcome, ok = m.verify(spec, to, predicateRun{
		balanceOnly: true,
		credit:      true,
		preBalance:  m.state.Accounts[to].BalanceStored,
	})
	gas += used
	if !ok {
		return Expectation{Outcome: outcome, GasUsed: gas}
	}
	return Expectation{
		Outcome: Accepted,
		GasUsed: gas,
		effect: func(s *State) {
			sender := s.Accounts[from]
			sender.Balance -= amount
			sender.BalanceStored = true
			if bumpNonce {
				sender.Nonce++
			}
			s.Accounts[from] = sender
			receiver := s.Accounts[to]
			receiver.Balance += amount
			receiver.BalanceStored = true
			s.Accounts[to] = receiver
		},
	}
}

// Projection is the part of the ledger state compared between the model and
// the ledger.
type Projection struct {
	Balances map[veritas.Address]uint64
	Nonces   map[veritas.Address]uint64
	Epoch    uint64
}

// Project computes the projection of the model's state on the given
// addresses.
func (m *Model) Project(addrs []veritas.Address) Projection {
	res := Projection{
		Balances: map[veritas.Address]uint64{},
		Nonces:   map[veritas.Address]uint64{},
		Epoch:    m.state.Epoch,
	}
	for _, addr := range addrs {
		account := m.state.Accounts[addr]
		res.Balances[addr] = account.Balance
		res.Nonces[addr] = account.Nonce
	}
	return res
}

// Diff lists the differences between two projections.
func (p Projection) Diff(other Projection) []string {
	res := []string{}
	if p.Epoch != other.Epoch {
		res = append(res, fmt.Sprintf("different epoch: %d vs %d", p.Epoch, other.Epoch))
	}
	addrs := maps.Keys(p.Balances)
	for addr := range other.Balances {
		if _, found := p.Balances[addr]; !found {
			addrs = append(addrs, addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Cmp(addrs[j]) < 0 })
	for _, addr := range addrs {
		if a, b := p.Balances[addr], other.Balances[addr]; a != b {
			res = append(res, fmt.Sprintf("different balance of %v: %d vs %d", addr, a, b))
		}
		if a, b := p.Nonces[addr], other.Nonces[addr]; a != b {
			res = append(res, fmt.Sprintf("different nonce of %v: %d vs %d", addr, a, b))
		}
	}
	return res
}
