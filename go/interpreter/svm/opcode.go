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

import "fmt"

// OpCode is a single byte instruction of the sandbox VM.
type OpCode byte

const (
	STOP OpCode = 0x00

	// Arithmetic, all modulo 2^256.
	ADD OpCode = 0x01
	MUL OpCode = 0x02
	SUB OpCode = 0x03
	DIV OpCode = 0x04
	MOD OpCode = 0x05

	// Comparison and bitwise operations.
	LT     OpCode = 0x10
	GT     OpCode = 0x11
	EQ     OpCode = 0x12
	ISZERO OpCode = 0x13
	AND    OpCode = 0x14
	OR     OpCode = 0x15
	XOR    OpCode = 0x16
	NOT    OpCode = 0x17

	// Invocation environment.
	SELF      OpCode = 0x30
	INPUTSIZE OpCode = 0x31
	INPUTLOAD OpCode = 0x32
	INPUTCOPY OpCode = 0x33
	GAS       OpCode = 0x34

	// Stack, memory, and control flow.
	POP      OpCode = 0x50
	MLOAD    OpCode = 0x51
	MSTORE   OpCode = 0x52
	MSTORE8  OpCode = 0x53
	JUMP     OpCode = 0x56
	JUMPI    OpCode = 0x57
	MSIZE    OpCode = 0x59
	JUMPDEST OpCode = 0x5b

	PUSH1  OpCode = 0x60
	PUSH2  OpCode = 0x61
	PUSH4  OpCode = 0x63
	PUSH20 OpCode = 0x73
	PUSH32 OpCode = 0x7f

	DUP1 OpCode = 0x80
	DUP8 OpCode = 0x87

	SWAP1 OpCode = 0x90
	SWAP8 OpCode = 0x97

	// Host interface.
	READ       OpCode = 0xa0
	HAS        OpCode = 0xa1
	WRITE      OpCode = 0xa2
	DELETE     OpCode = 0xa3
	ITERATE    OpCode = 0xa4
	EMIT       OpCode = 0xa5
	AUTHORIZED OpCode = 0xa6
	CHANGED    OpCode = 0xa7

	// Termination.
	RETURN  OpCode = 0xf3
	ACCEPT  OpCode = 0xf5
	REJECT  OpCode = 0xf6
	REVERT  OpCode = 0xfd
	INVALID OpCode = 0xfe
)

const numOpCodes = 256

// PushN returns the push instruction for n bytes of immediate data.
func PushN(n int) OpCode {
	if n < 1 || n > 32 {
		panic(fmt.Sprintf("invalid push size %d", n))
	}
	return PUSH1 + OpCode(n-1)
}

// DupN returns the instruction duplicating the n-th stack element.
func DupN(n int) OpCode {
	if n < 1 || n > 8 {
		panic(fmt.Sprintf("invalid dup index %d", n))
	}
	return DUP1 + OpCode(n-1)
}

// SwapN returns the instruction swapping the top with the (n+1)-th element.
func SwapN(n int) OpCode {
	if n < 1 || n > 8 {
		panic(fmt.Sprintf("invalid swap index %d", n))
	}
	return SWAP1 + OpCode(n-1)
}

func (op OpCode) isPush() bool {
	return PUSH1 <= op && op <= PUSH32
}

// pushSize returns the number of immediate data bytes of the instruction.
func (op OpCode) pushSize() int {
	if !op.isPush() {
		return 0
	}
	return int(op-PUSH1) + 1
}

// isValid reports whether the op code is part of the instruction set.
func (op OpCode) isValid() bool {
	_, found := toString[op]
	return found || op.isPush() || (DUP1 <= op && op <= DUP8) || (SWAP1 <= op && op <= SWAP8)
}

var toString = map[OpCode]string{
	STOP:       "STOP",
	ADD:        "ADD",
	MUL:        "MUL",
	SUB:        "SUB",
	DIV:        "DIV",
	MOD:        "MOD",
	LT:         "LT",
	GT:         "GT",
	EQ:         "EQ",
	ISZERO:     "ISZERO",
	AND:        "AND",
	OR:         "OR",
	XOR:        "XOR",
	NOT:        "NOT",
	SELF:       "SELF",
	INPUTSIZE:  "INPUTSIZE",
	INPUTLOAD:  "INPUTLOAD",
	INPUTCOPY:  "INPUTCOPY",
	GAS:        "GAS",
	POP:        "POP",
	MLOAD:      "MLOAD",
	MSTORE:     "MSTORE",
	MSTORE8:    "MSTORE8",
	JUMP:       "JUMP",
	JUMPI:      "JUMPI",
	MSIZE:      "MSIZE",
	JUMPDEST:   "JUMPDEST",
	READ:       "READ",
	HAS:        "HAS",
	WRITE:      "WRITE",
	DELETE:     "DELETE",
	ITERATE:    "ITERATE",
	EMIT:       "EMIT",
	AUTHORIZED: "AUTHORIZED",
	CHANGED:    "CHANGED",
	RETURN:     "RETURN",
	ACCEPT:     "ACCEPT",
	REJECT:     "REJECT",
	REVERT:     "REVERT",
	INVALID:    "INVALID",
}

// String returns the string representation of the OpCode.
func (op OpCode) String() string {
	if op.isPush() {
		return fmt.Sprintf("PUSH%d", op.pushSize())
	}
	if DUP1 <= op && op <= DUP8 {
		return fmt.Sprintf("DUP%d", op-DUP1+1)
	}
	if SWAP1 <= op && op <= SWAP8 {
		return fmt.Sprintf("SWAP%d", op-SWAP1+1)
	}
	if str, ok := toString[op]; ok {
		return str
	}
	return fmt.Sprintf("op(0x%02X)", byte(op))
}
