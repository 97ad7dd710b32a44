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

	"github.com/holiman/uint256"
)

// evalBinary runs `PUSH b, PUSH a, op` and returns the top of the stack.
func evalBinary(t *testing.T, op OpCode, a, b uint64) *uint256.Int {
	t.Helper()
	code := NewAssembler().Entry("tx").
		Push(b).Push(a).Op(op).
		Push(0).Op(MSTORE).
		Push(32).Push(0).Op(RETURN).
		MustBuild()
	res, _ := runModule(t, code, 1000, nil)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
	return new(uint256.Int).SetBytes(res.Output)
}

func TestInstructions_BinaryOperations(t *testing.T) {
	tests := []struct {
		op   OpCode
		a, b uint64
		want uint64
	}{
		{ADD, 2, 3, 5},
		{MUL, 4, 5, 20},
		{SUB, 10, 3, 7},
		{DIV, 10, 3, 3},
		{DIV, 10, 0, 0},
		{MOD, 10, 3, 1},
		{MOD, 10, 0, 0},
		{LT, 1, 2, 1},
		{LT, 2, 1, 0},
		{GT, 2, 1, 1},
		{GT, 1, 1, 0},
		{EQ, 7, 7, 1},
		{EQ, 7, 8, 0},
		{AND, 0b1100, 0b1010, 0b1000},
		{OR, 0b1100, 0b1010, 0b1110},
		{XOR, 0b1100, 0b1010, 0b0110},
	}

	for _, test := range tests {
		got := evalBinary(t, test.op, test.a, test.b)
		if !got.Eq(uint256.NewInt(test.want)) {
			t.Errorf("%v(%d, %d) = %v, want %d", test.op, test.a, test.b, got, test.want)
		}
	}
}

func TestInstructions_SubWrapsAround(t *testing.T) {
	got := evalBinary(t, SUB, 0, 1)
	want := new(uint256.Int).SetAllOne()
	if !got.Eq(want) {
		t.Errorf("SUB(0, 1) = %v, want %v", got, want)
	}
}

func TestInstructions_ConditionalJump(t *testing.T) {
	for _, condition := range []uint64{0, 1} {
		code := NewAssembler().Entry("tx").
			Push(condition).JumpIf("taken").
			Op(REJECT).
			Label("taken").
			Op(ACCEPT).
			MustBuild()
		res, _ := runModule(t, code, 1000, nil)
		if !res.Success {
			t.Fatalf("execution failed: %v", res.Failure)
		}
		if want, got := byte(condition), res.Output[0]; want != got {
			t.Errorf("condition %d: unexpected verdict %d", condition, got)
		}
	}
}

func TestInstructions_DupAndSwap(t *testing.T) {
	// Computes 5 - 2 using SWAP1 to reorder the operands and DUP2 to copy.
	code := NewAssembler().Entry("tx").
		Push(5).Push(2).Op(SWAP1, SUB).
		Push(9).Op(DupN(2), ADD).
		Push(0).Op(MSTORE).
		Push(32).Push(0).Op(RETURN).
		MustBuild()
	res, _ := runModule(t, code, 1000, nil)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
	// stack after SUB: [3]; after PUSH 9: [3, 9]; DUP2: [3, 9, 3]; ADD: [3, 12]
	if got := new(uint256.Int).SetBytes(res.Output); !got.Eq(uint256.NewInt(12)) {
		t.Errorf("unexpected result, want 12, got %v", got)
	}
}

func TestInstructions_PushBeyondCodeEndIsZeroPadded(t *testing.T) {
	code := NewAssembler().Entry("tx").
		Push(0).Raw(byte(PUSH2), 0x01).
		MustBuild()
	res, _ := runModule(t, code, 1000, nil)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
}

func TestInstructions_GasReportsRemainingBudget(t *testing.T) {
	code := NewAssembler().Entry("tx").
		Op(GAS).Push(0).Op(MSTORE).
		Push(32).Push(0).Op(RETURN).
		MustBuild()
	res, _ := runModule(t, code, 1000, nil)
	// GAS itself costs 2 and is charged before the value is read.
	if got := new(uint256.Int).SetBytes(res.Output); !got.Eq(uint256.NewInt(998)) {
		t.Errorf("unexpected remaining gas, want 998, got %v", got)
	}
}
