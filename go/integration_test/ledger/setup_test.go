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
	"bytes"
	"fmt"
	"reflect"
	"testing"

	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/Fantom-foundation/Veritas/go/programs"
	"github.com/Fantom-foundation/Veritas/go/storage"
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"pgregory.net/rapid"

	_ "github.com/Fantom-foundation/Veritas/go/interpreter/svm"
)

const sufficientGas = 200_000

var interpreters = []string{"svm", "svm-no-cache"}

// setup is a combination of a storage backend and an interpreter the
// ledger is tested with.
type setup struct {
	backend     string
	interpreter string
}

func (s setup) String() string {
	return fmt.Sprintf("%s-%s", s.backend, s.interpreter)
}

func getSetups() []setup {
	res := []setup{}
	for _, backend := range storage.Backends() {
		for _, interpreter := range interpreters {
			res = append(res, setup{backend: backend, interpreter: interpreter})
		}
	}
	return res
}

func quietLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

// tester is the subset of the test interfaces of the testing and the rapid
// package used by the helpers below.
type tester interface {
	Helper()
	Fatalf(format string, args ...any)
}

// newLedger creates a ledger persisting its state in a temporary directory.
func (s setup) newLedger(t *testing.T, config ledger.Config) *ledger.Ledger {
	t.Helper()
	store, err := storage.New(s.backend, t.TempDir(), false)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	res := s.open(t, store, config)
	t.Cleanup(func() { res.Close() })
	return res
}

// newInMemoryLedger creates a ledger not touching the file system. It must be
// closed by the caller.
func (s setup) newInMemoryLedger(t tester, config ledger.Config) *ledger.Ledger {
	t.Helper()
	store, err := storage.New(s.backend, "", true)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return s.open(t, store, config)
}

func (s setup) open(t tester, store veritas.Storage, config ledger.Config) *ledger.Ledger {
	t.Helper()
	if config.Interpreter == nil {
		interpreter, err := veritas.NewInterpreter(s.interpreter)
		if err != nil {
			t.Fatalf("failed to create interpreter: %v", err)
		}
		config.Interpreter = interpreter
	}
	if config.Logger == nil {
		config.Logger = quietLogger()
	}
	res, err := ledger.New(store, config)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return res
}

// initAccounts registers the given accounts with the standard account
// predicate and funds each of them with the given balance.
func initAccounts(t tester, l *ledger.Ledger, balance uint64, addrs ...veritas.Address) {
	t.Helper()
	for _, addr := range addrs {
		initAccount(t, l, balance, addr, programs.AccountPredicate)
	}
}

func initAccount(t tester, l *ledger.Ledger, balance uint64, addr veritas.Address, predicate veritas.Code) {
	t.Helper()
	if err := l.InitAccount(addr, st.PublicKeyOf(addr), predicate); err != nil {
		t.Fatalf("failed to initialize %v: %v", addr, err)
	}
	if err := l.Fund(addr, veritas.NewAmount(balance)); err != nil {
		t.Fatalf("failed to fund %v: %v", addr, err)
	}
}

func submit(t tester, l *ledger.Ledger, spec st.TxSpec) ledger.Receipt {
	t.Helper()
	tx, err := st.BuildTransaction(spec)
	if err != nil {
		t.Fatalf("failed to build transaction: %v", err)
	}
	receipt, err := l.Submit(tx)
	if err != nil {
		t.Fatalf("failed to submit transaction: %v", err)
	}
	return receipt
}

func snapshot(t tester, l *ledger.Ledger) []storage.SnapshotEntry {
	t.Helper()
	res, err := l.Snapshot()
	if err != nil {
		t.Fatalf("failed to get snapshot: %v", err)
	}
	return res
}

func exportSnapshot(t tester, l *ledger.Ledger) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if err := l.ExportSnapshot(&buffer); err != nil {
		t.Fatalf("failed to export snapshot: %v", err)
	}
	return buffer.Bytes()
}

func balanceOf(t tester, l *ledger.Ledger, addr veritas.Address) uint64 {
	t.Helper()
	balance, err := l.Balance(addr)
	if err != nil {
		t.Fatalf("failed to read balance: %v", err)
	}
	return balance.Uint64()
}

func equalSnapshots(a, b []storage.SnapshotEntry) bool {
	return reflect.DeepEqual(a, b)
}

// txSpecs generates arbitrary transactions of all standard programs.
func txSpecs() *rapid.Generator[st.TxSpec] {
	return rapid.Custom(func(t *rapid.T) st.TxSpec {
		return st.TxSpec{
			Program:  st.Program(rapid.IntRange(0, int(st.NumPrograms)-1).Draw(t, "program")),
			From:     rapid.SampledFrom(st.Accounts).Draw(t, "from"),
			To:       rapid.SampledFrom(st.Accounts).Draw(t, "to"),
			Amount:   rapid.Uint64Range(0, 150).Draw(t, "amount"),
			Signers:  rapid.SliceOfN(rapid.SampledFrom(st.Accounts), 0, 2).Draw(t, "signers"),
			Forged:   rapid.Bool().Draw(t, "forged"),
			GasLimit: veritas.Gas(rapid.Int64Range(0, sufficientGas).Draw(t, "gas")),
		}
	})
}
