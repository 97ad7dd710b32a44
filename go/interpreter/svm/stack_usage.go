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

// stackUsage defines the number of elements an instruction removes from and
// adds to the stack.
type stackUsage struct {
	pops, pushes int
}

// stackLimits defines the stack size range an instruction can be executed in.
type stackLimits struct {
	min int // The minimum stack size required by an OpCode.
	max int // The maximum stack size allowed before running an OpCode.
}

func computeStackUsage(op OpCode) stackUsage {
	if op.isPush() {
		return stackUsage{0, 1}
	}
	if DUP1 <= op && op <= DUP8 {
		n := int(op-DUP1) + 1
		return stackUsage{n, n + 1}
	}
	if SWAP1 <= op && op <= SWAP8 {
		n := int(op-SWAP1) + 2
		return stackUsage{n, n}
	}

	switch op {
	case ADD, MUL, SUB, DIV, MOD, LT, GT, EQ, AND, OR, XOR:
		return stackUsage{2, 1}
	case ISZERO, NOT, INPUTLOAD, MLOAD, AUTHORIZED:
		return stackUsage{1, 1}
	case INPUTSIZE, GAS, MSIZE:
		return stackUsage{0, 1}
	case POP, JUMP, SELF:
		return stackUsage{1, 0}
	case MSTORE, MSTORE8, JUMPI, RETURN, REVERT, EMIT, DELETE:
		return stackUsage{2, 0}
	case INPUTCOPY:
		return stackUsage{3, 0}
	case CHANGED:
		return stackUsage{2, 1}
	case HAS:
		return stackUsage{3, 1}
	case WRITE:
		return stackUsage{4, 0}
	case READ, ITERATE:
		return stackUsage{4, 2}
	}
	return stackUsage{0, 0}
}

var stackLimitsTable = func() (res [numOpCodes]stackLimits) {
	for i := range res {
		usage := computeStackUsage(OpCode(i))
		res[i] = stackLimits{
			min: usage.pops,
			max: maxStackSize - max(usage.pushes-usage.pops, 0),
		}
	}
	return
}()

// checkStackLimits checks that the opCode will not make an out of bounds access
// with the current stack size.
func checkStackLimits(stackLen int, op OpCode) error {
	limits := stackLimitsTable[op]
	if stackLen < limits.min {
		return errStackUnderflow
	}
	if stackLen > limits.max {
		return errStackOverflow
	}
	return nil
}
