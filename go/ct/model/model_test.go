// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package model

import (
	"testing"

	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/Fantom-foundation/Veritas/go/veritas"
)

var (
	a = st.Accounts[0]
	b = st.Accounts[1]
)

func newFundedModel(fallback ledger.FallbackPolicy) *Model {
	m := New(fallback)
	m.InitAccount(a)
	m.Fund(a, 100)
	return m
}

func transfer(amount uint64, signers ...veritas.Address) st.TxSpec {
	return st.TxSpec{Program: st.Transfer, From: a, To: b, Amount: amount, Signers: signers, GasLimit: AmpleGas}
}

func TestModel_Preconditions(t *testing.T) {
	m := New(ledger.FallbackDefaultPredicate)
	if err := m.Precondition(st.Action{Kind: st.Fund, Account: a}); err == nil {
		t.Errorf("funding an uninitialized account should violate the precondition")
	}
	if err := m.Precondition(st.Action{Kind: st.InitAccount, Account: a}); err != nil {
		t.Errorf("unexpected violation: %v", err)
	}
	m.InitAccount(a)
	if err := m.Precondition(st.Action{Kind: st.InitAccount, Account: a}); err == nil {
		t.Errorf("initializing an account twice should violate the precondition")
	}
	if err := m.Precondition(st.Action{Kind: st.Submit}); err == nil {
		t.Errorf("submissions without transaction should violate the precondition")
	}
	if err := m.Precondition(st.Action{Kind: st.AdvanceEpoch}); err != nil {
		t.Errorf("unexpected violation: %v", err)
	}
}

func TestModel_PredictedOutcomes(t *testing.T) {
	tests := map[string]struct {
		fallback ledger.FallbackPolicy
		spec     st.TxSpec
		want     Outcome
	}{
		"authorized transfer":         {spec: transfer(30, a), want: Accepted},
		"unauthorized transfer":       {spec: transfer(30), want: Rejected},
		"transfer signed by receiver": {spec: transfer(30, b), want: Rejected},
		"forged transfer": {spec: func() st.TxSpec {
			s := transfer(30, a)
			s.Forged = true
			return s
		}(), want: Rejected},
		"overdraft":                  {spec: transfer(101, a), want: Trapped},
		"self transfer":              {spec: st.TxSpec{Program: st.Transfer, From: a, To: a, Signers: []veritas.Address{a}, GasLimit: AmpleGas}, want: Trapped},
		"zero transfer needs auth":   {spec: transfer(0), want: Rejected},
		"receiver without module":    {fallback: ledger.FallbackReject, spec: transfer(30, a), want: MissingModule},
		"unauthorized sweep":         {spec: st.TxSpec{Program: st.Sweep, From: a, To: b, GasLimit: AmpleGas}, want: Rejected},
		"empty sweep":                {spec: st.TxSpec{Program: st.Sweep, From: b, To: a, GasLimit: AmpleGas}, want: Accepted},
		"empty sweep without module": {fallback: ledger.FallbackReject, spec: st.TxSpec{Program: st.Sweep, From: b, To: a, GasLimit: AmpleGas}, want: MissingModule},
		"revert":                     {spec: st.TxSpec{Program: st.Revert, From: a, GasLimit: AmpleGas}, want: Trapped},
		"burn":                       {spec: st.TxSpec{Program: st.Burn, GasLimit: AmpleGas}, want: OutOfGas},
		"protocol write":             {spec: st.TxSpec{Program: st.ProtocolWrite, GasLimit: AmpleGas}, want: Rejected},
		"protocol write rejected":    {fallback: ledger.FallbackReject, spec: st.TxSpec{Program: st.ProtocolWrite, GasLimit: AmpleGas}, want: MissingModule},
		"insufficient gas":           {spec: st.TxSpec{Program: st.Transfer, From: a, To: b, GasLimit: 10}, want: OutOfGas},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := newFundedModel(test.fallback)
			if got := m.Expect(test.spec).Outcome; got != test.want {
				t.Errorf("outcome = %v, want %v", got, test.want)
			}
		})
	}
}

func TestModel_AcceptedTransferUpdatesState(t *testing.T) {
	m := newFundedModel(ledger.FallbackDefaultPredicate)
	spec := transfer(30, a)
	if err := m.Submit(spec, Observation{Outcome: Accepted, GasUsed: m.Expect(spec).GasUsed}); err != nil {
		t.Fatalf("unexpected mismatch: %v", err)
	}
	state := m.State()
	if got := state.Accounts[a]; got.Balance != 70 || got.Nonce != 1 {
		t.Errorf("sender = %+v, want balance 70 and nonce 1", got)
	}
	if got := state.Accounts[b]; got.Balance != 30 || got.Nonce != 0 || got.Initialized || !got.BalanceStored {
		t.Errorf("receiver = %+v, want stored balance 30, nonce 0 and uninitialized", got)
	}
}

func TestModel_RejectedTransactionsLeaveStateUnchanged(t *testing.T) {
	m := newFundedModel(ledger.FallbackDefaultPredicate)
	before := m.Project(st.Accounts)
	spec := transfer(30)
	if err := m.Submit(spec, Observation{Outcome: Rejected, GasUsed: m.Expect(spec).GasUsed}); err != nil {
		t.Fatalf("unexpected mismatch: %v", err)
	}
	if diff := before.Diff(m.Project(st.Accounts)); len(diff) != 0 {
		t.Errorf("state changed: %v", diff)
	}
}

func TestModel_MismatchesAreReported(t *testing.T) {
	spec := transfer(30, a)
	want := newFundedModel(ledger.FallbackDefaultPredicate).Expect(spec).GasUsed
	tests := map[string]Observation{
		"wrong verdict":       {Outcome: Rejected, GasUsed: want},
		"gas below intrinsic": {Outcome: Accepted, GasUsed: IntrinsicGas(spec) - 1},
		"one unit too little": {Outcome: Accepted, GasUsed: want - 1},
		"one unit too much":   {Outcome: Accepted, GasUsed: want + 1},
		"free predicates":     {Outcome: Accepted, GasUsed: want - 2*ledger.VpBaseGas},
		"out of gas":          {Outcome: OutOfGas, GasUsed: AmpleGas},
	}
	for name, observed := range tests {
		t.Run(name, func(t *testing.T) {
			m := newFundedModel(ledger.FallbackDefaultPredicate)
			if err := m.Submit(spec, observed); err == nil {
				t.Errorf("observation %v should not match", observed)
			}
		})
	}
}

func TestModel_OutOfGasIfCostExceedsLimit(t *testing.T) {
	m := newFundedModel(ledger.FallbackDefaultPredicate)
	spec := transfer(30, a)
	cost := m.Expect(spec).GasUsed

	spec.GasLimit = cost
	if got := m.Expect(spec); got.Outcome != Accepted || got.GasUsed != cost {
		t.Errorf("expectation with exact limit = %v, want accepted using %d gas", got, cost)
	}

	spec.GasLimit = cost - 1
	if got := m.Expect(spec); got.Outcome != OutOfGas || got.GasUsed != cost-1 {
		t.Errorf("expectation with insufficient limit = %v, want out-of-gas using %d gas", got, cost-1)
	}
	if err := m.Submit(spec, Observation{Outcome: OutOfGas, GasUsed: cost - 1}); err != nil {
		t.Errorf("unexpected mismatch: %v", err)
	}
	if got := m.State().Accounts[a].Balance; got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}
}

func TestModel_NegativeLimitsAreTreatedAsZero(t *testing.T) {
	m := New(ledger.FallbackDefaultPredicate)
	spec := st.TxSpec{Program: st.Burn, GasLimit: -5}
	if err := m.Submit(spec, Observation{Outcome: OutOfGas, GasUsed: 0}); err != nil {
		t.Errorf("unexpected mismatch: %v", err)
	}
}

func TestModel_IntrinsicGasMatchesLedger(t *testing.T) {
	specs := []st.TxSpec{
		{Program: st.Transfer, Signers: []veritas.Address{a, b}},
		{Program: st.Sweep},
		{Program: st.Revert, Signers: []veritas.Address{a}},
		{Program: st.Burn},
		{Program: st.ProtocolWrite},
	}
	for _, spec := range specs {
		tx, err := st.BuildTransaction(spec)
		if err != nil {
			t.Fatalf("failed to build transaction: %v", err)
		}
		if got, want := IntrinsicGas(spec), ledger.IntrinsicGas(tx); got != want {
			t.Errorf("intrinsic gas of %v = %d, want %d", spec.Program, got, want)
		}
	}
}

func TestProjection_DiffListsDifferences(t *testing.T) {
	m := newFundedModel(ledger.FallbackDefaultPredicate)
	p := m.Project(st.Accounts)
	m.Fund(a, 1)
	m.AdvanceEpoch()
	diff := p.Diff(m.Project(st.Accounts))
	if len(diff) != 2 {
		t.Errorf("expected 2 differences, got %v", diff)
	}
}
