// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package svm

import (
	"testing"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLoggingRunner_TracesEveryInstruction(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	vm, err := NewVm(NewLoggingConfig(logger))
	if err != nil {
		t.Fatalf("failed to create VM: %v", err)
	}
	code := NewAssembler().Entry("tx").Push(1).Push(2).Op(ADD, STOP).MustBuild()
	res, err := vm.Run(veritas.Parameters{Code: code, Entry: "tx", Meter: veritas.NewGasMeter(100)})
	if err != nil || !res.Success {
		t.Fatalf("execution failed: %v, %v", err, res.Failure)
	}

	entries := hook.AllEntries()
	if want, got := 4, len(entries); want != got {
		t.Fatalf("unexpected number of log entries, want %d, got %d", want, got)
	}
	wantOps := []OpCode{PUSH1, PUSH1, ADD, STOP}
	for i, entry := range entries {
		if got := entry.Data["op"]; got != wantOps[i] {
			t.Errorf("entry %d: unexpected op, want %v, got %v", i, wantOps[i], got)
		}
	}
	if want, got := "0x2", entries[2].Data["top"]; want != got {
		t.Errorf("unexpected top of stack, want %v, got %v", want, got)
	}
}

func TestLoggingRunner_FailuresAreLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	vm, err := NewVm(NewLoggingConfig(logger))
	if err != nil {
		t.Fatalf("failed to create VM: %v", err)
	}
	code := NewAssembler().Entry("tx").Op(ADD).MustBuild()
	res, err := vm.Run(veritas.Parameters{Code: code, Entry: "tx", Meter: veritas.NewGasMeter(100)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatalf("execution should have failed")
	}
	last := hook.LastEntry()
	if last == nil || last.Message != "failed" {
		t.Errorf("expected failure to be logged, got %v", last)
	}
}

func TestLoggingRunner_NothingIsLoggedBelowTraceLevel(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	vm, err := NewVm(NewLoggingConfig(logger))
	if err != nil {
		t.Fatalf("failed to create VM: %v", err)
	}
	code := NewAssembler().Entry("tx").Op(STOP).MustBuild()
	if _, err := vm.Run(veritas.Parameters{Code: code, Entry: "tx", Meter: veritas.NewGasMeter(100)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hook.AllEntries()) != 0 {
		t.Errorf("unexpected log entries: %v", hook.AllEntries())
	}
}
