// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package programs

import (
	"strings"
	"testing"

	"github.com/Fantom-foundation/Veritas/go/interpreter/svm"
	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// testHost is a map based host distinguishing the committed state from the
// modifications of the current invocation.
type testHost struct {
	pre        map[veritas.Key]veritas.Value
	post       map[veritas.Key]veritas.Value
	written    map[veritas.Key]bool
	authorized map[veritas.Address]bool
	readOnly   bool
}

func newTestHost() *testHost {
	return &testHost{
		pre:        map[veritas.Key]veritas.Value{},
		post:       map[veritas.Key]veritas.Value{},
		written:    map[veritas.Key]bool{},
		authorized: map[veritas.Address]bool{},
	}
}

func (h *testHost) setBalance(addr veritas.Address, balance uint64) {
	h.pre[veritas.BalanceKey(addr)] = veritas.NewAmount(balance).Value()
	h.post[veritas.BalanceKey(addr)] = veritas.NewAmount(balance).Value()
}

func (h *testHost) state(view veritas.View) map[veritas.Key]veritas.Value {
	if view == veritas.PreView {
		return h.pre
	}
	return h.post
}

func (h *testHost) Read(view veritas.View, key veritas.Key) (veritas.Value, bool, error) {
	value, found := h.state(view)[key]
	return value, found, nil
}

func (h *testHost) Has(view veritas.View, key veritas.Key) (bool, error) {
	_, found := h.state(view)[key]
	return found, nil
}

func (h *testHost) Write(key veritas.Key, value veritas.Value) error {
	if h.readOnly {
		return veritas.Trap("read-only")
	}
	h.post[key] = value
	h.written[key] = true
	return nil
}

func (h *testHost) Delete(key veritas.Key) error {
	if h.readOnly {
		return veritas.Trap("read-only")
	}
	delete(h.post, key)
	h.written[key] = true
	return nil
}

func (h *testHost) IteratePrefix(veritas.View, veritas.Key, func(veritas.Key, veritas.Value) bool) error {
	return nil
}

func (h *testHost) EmitEvent(veritas.Data) error {
	return nil
}

func (h *testHost) IsAuthorized(addr veritas.Address) (bool, error) {
	return h.authorized[addr], nil
}

func (h *testHost) Changed(prefix veritas.Key) (int, error) {
	count := 0
	for key := range h.written {
		if key.HasPrefix(prefix) {
			count++
		}
	}
	return count, nil
}

func run(t *testing.T, kind veritas.ModuleKind, code veritas.Code, input veritas.Data, self veritas.Address, host *testHost) veritas.Result {
	t.Helper()
	vm, err := svm.NewVm(svm.Config{})
	if err != nil {
		t.Fatalf("failed to create vm: %v", err)
	}
	res, err := vm.Run(veritas.Parameters{
		Kind:  kind,
		Code:  code,
		Entry: kind.EntryPoint(),
		Input: input,
		Self:  self,
		Host:  host,
		Meter: veritas.NewGasMeter(1_000_000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

func amountOf(host *testHost, key veritas.Key) uint64 {
	return veritas.AmountFromValue(host.post[key]).Uint64()
}

func TestTransfer_MovesAmountAndIncrementsNonce(t *testing.T) {
	from, to := veritas.Address{1}, veritas.Address{2}
	host := newTestHost()
	host.setBalance(from, 100)
	host.setBalance(to, 5)

	res := run(t, veritas.TransactionModule, Transfer, TransferInput(from, to, veritas.NewAmount(30)), veritas.Address{}, host)
	if !res.Success {
		t.Fatalf("transfer failed: %v", res.Failure)
	}
	if got, want := amountOf(host, veritas.BalanceKey(from)), uint64(70); got != want {
		t.Errorf("sender balance = %d, want %d", got, want)
	}
	if got, want := amountOf(host, veritas.BalanceKey(to)), uint64(35); got != want {
		t.Errorf("receiver balance = %d, want %d", got, want)
	}
	if got, want := amountOf(host, veritas.NonceKey(from)), uint64(1); got != want {
		t.Errorf("sender nonce = %d, want %d", got, want)
	}
}

func TestTransfer_FailureCases(t *testing.T) {
	a, b := veritas.Address{1}, veritas.Address{2}
	tests := map[string]veritas.Data{
		"insufficient balance": TransferInput(a, b, veritas.NewAmount(101)),
		"self transfer":        TransferInput(a, a, veritas.NewAmount(1)),
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			host := newTestHost()
			host.setBalance(a, 100)
			res := run(t, veritas.TransactionModule, Transfer, input, veritas.Address{}, host)
			if res.Success || !veritas.IsTrap(res.Failure) {
				t.Errorf("expected trap, got %v", res)
			}
			if len(host.written) != 0 {
				t.Errorf("unexpected writes: %v", host.written)
			}
		})
	}
}

func TestSweep_MovesEntireBalanceWithoutTouchingNonce(t *testing.T) {
	from, to := veritas.Address{1}, veritas.Address{2}
	host := newTestHost()
	host.setBalance(from, 42)

	res := run(t, veritas.TransactionModule, Sweep, SweepInput(from, to), veritas.Address{}, host)
	if !res.Success {
		t.Fatalf("sweep failed: %v", res.Failure)
	}
	if got := amountOf(host, veritas.BalanceKey(from)); got != 0 {
		t.Errorf("sender balance = %d, want 0", got)
	}
	if got, want := amountOf(host, veritas.BalanceKey(to)), uint64(42); got != want {
		t.Errorf("receiver balance = %d, want %d", got, want)
	}
	if host.written[veritas.NonceKey(from)] {
		t.Errorf("nonce should not be modified")
	}
}

func TestRevert_TrapsWithMessage(t *testing.T) {
	host := newTestHost()
	res := run(t, veritas.TransactionModule, Revert, RevertInput(veritas.Address{1}), veritas.Address{}, host)
	if res.Success || !veritas.IsTrap(res.Failure) {
		t.Fatalf("expected trap, got %v", res)
	}
	if !strings.Contains(res.Failure.Error(), "revert") {
		t.Errorf("unexpected failure message: %v", res.Failure)
	}
}

func TestBurn_RunsOutOfGas(t *testing.T) {
	res := run(t, veritas.TransactionModule, Burn, nil, veritas.Address{}, newTestHost())
	if res.Success || res.Failure != veritas.ErrOutOfGas {
		t.Errorf("expected out of gas, got %v", res)
	}
}

func TestProtocolWrite_WritesEpoch(t *testing.T) {
	host := newTestHost()
	res := run(t, veritas.TransactionModule, ProtocolWrite, nil, veritas.Address{}, host)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
	if got := amountOf(host, veritas.EpochKey()); got != 1 {
		t.Errorf("epoch = %d, want 1", got)
	}
}

func TestAccountPredicate_Verdicts(t *testing.T) {
	self := veritas.Address{1}
	tests := map[string]struct {
		setup      func(h *testHost)
		authorized bool
		accept     bool
	}{
		"credit without authorization": {
			setup: func(h *testHost) {
				h.post[veritas.BalanceKey(self)] = veritas.NewAmount(20).Value()
				h.written[veritas.BalanceKey(self)] = true
			},
			accept: true,
		},
		"unchanged balance without authorization": {
			setup: func(h *testHost) {
				h.written[veritas.BalanceKey(self)] = true
			},
			accept: true,
		},
		"debit without authorization": {
			setup: func(h *testHost) {
				h.post[veritas.BalanceKey(self)] = veritas.NewAmount(5).Value()
				h.written[veritas.BalanceKey(self)] = true
			},
			accept: false,
		},
		"debit with authorization": {
			setup: func(h *testHost) {
				h.post[veritas.BalanceKey(self)] = veritas.NewAmount(5).Value()
				h.written[veritas.BalanceKey(self)] = true
			},
			authorized: true,
			accept:     true,
		},
		"other key without authorization": {
			setup: func(h *testHost) {
				h.post[veritas.PredicateKey(self)] = veritas.Value{}
				h.written[veritas.PredicateKey(self)] = true
			},
			accept: false,
		},
		"nonce increment with authorization": {
			setup: func(h *testHost) {
				h.pre[veritas.NonceKey(self)] = veritas.NewAmount(3).Value()
				h.post[veritas.NonceKey(self)] = veritas.NewAmount(4).Value()
				h.written[veritas.NonceKey(self)] = true
			},
			authorized: true,
			accept:     true,
		},
		"nonce jump with authorization": {
			setup: func(h *testHost) {
				h.pre[veritas.NonceKey(self)] = veritas.NewAmount(3).Value()
				h.post[veritas.NonceKey(self)] = veritas.NewAmount(5).Value()
				h.written[veritas.NonceKey(self)] = true
			},
			authorized: true,
			accept:     false,
		},
		"nonce increment without authorization": {
			setup: func(h *testHost) {
				h.post[veritas.NonceKey(self)] = veritas.NewAmount(1).Value()
				h.written[veritas.NonceKey(self)] = true
			},
			accept: false,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			host := newTestHost()
			host.setBalance(self, 10)
			host.authorized[self] = test.authorized
			test.setup(host)
			host.readOnly = true

			res := run(t, veritas.PredicateModule, AccountPredicate, nil, self, host)
			if !res.Success {
				t.Fatalf("predicate failed: %v", res.Failure)
			}
			want := []byte{0}
			if test.accept {
				want = []byte{1}
			}
			if string(res.Output) != string(want) {
				t.Errorf("predicate output = %x, want %x", res.Output, want)
			}
		})
	}
}

func TestAmountPredicate_Verdicts(t *testing.T) {
	self := veritas.Address{1}
	debit := func(amount uint64) func(h *testHost) {
		return func(h *testHost) {
			h.post[veritas.BalanceKey(self)] = veritas.NewAmount(10 - amount).Value()
			h.written[veritas.BalanceKey(self)] = true
		}
	}
	bumpNonce := func(h *testHost) {
		h.pre[veritas.NonceKey(self)] = veritas.NewAmount(3).Value()
		h.post[veritas.NonceKey(self)] = veritas.NewAmount(4).Value()
		h.written[veritas.NonceKey(self)] = true
	}
	tests := map[string]struct {
		setup      func(h *testHost)
		declared   uint64
		authorized bool
		accept     bool
	}{
		"credit without authorization": {
			setup: func(h *testHost) {
				h.post[veritas.BalanceKey(self)] = veritas.NewAmount(20).Value()
				h.written[veritas.BalanceKey(self)] = true
			},
			declared: 4,
			accept:   true,
		},
		"declared debit with authorization": {
			setup:      debit(4),
			declared:   4,
			authorized: true,
			accept:     true,
		},
		"declared debit without authorization": {
			setup:    debit(4),
			declared: 4,
			accept:   false,
		},
		"debit exceeding declaration": {
			setup:      debit(6),
			declared:   4,
			authorized: true,
			accept:     false,
		},
		"debit below declaration": {
			setup:      debit(2),
			declared:   4,
			authorized: true,
			accept:     false,
		},
		"declared debit and nonce increment": {
			setup:      func(h *testHost) { debit(4)(h); bumpNonce(h) },
			declared:   4,
			authorized: true,
			accept:     true,
		},
		"nonce increment without debit": {
			setup:      bumpNonce,
			declared:   4,
			authorized: true,
			accept:     false,
		},
		"credit along with nonce increment": {
			setup: func(h *testHost) {
				h.post[veritas.BalanceKey(self)] = veritas.NewAmount(14).Value()
				h.written[veritas.BalanceKey(self)] = true
				bumpNonce(h)
			},
			declared:   4,
			authorized: true,
			accept:     false,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			host := newTestHost()
			host.setBalance(self, 10)
			host.authorized[self] = test.authorized
			test.setup(host)
			host.readOnly = true

			input := TransferInput(self, veritas.Address{2}, veritas.NewAmount(test.declared))
			res := run(t, veritas.PredicateModule, AmountPredicate, input, self, host)
			if !res.Success {
				t.Fatalf("predicate failed: %v", res.Failure)
			}
			if got := string(res.Output) == "\x01"; got != test.accept {
				t.Errorf("predicate accepted = %t, want %t", got, test.accept)
			}
		})
	}
}

func TestPrograms_AreAvailableByName(t *testing.T) {
	for _, name := range []string{"transfer", "sweep", "revert", "burn", "protocol-write"} {
		if _, err := Get(name); err != nil {
			t.Errorf("program %s not found: %v", name, err)
		}
	}
	if _, err := Get("unknown"); err == nil {
		t.Errorf("expected error for unknown program")
	}
}
