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

import "github.com/Fantom-foundation/Veritas/go/veritas"

// Dynamic costs of host instructions. Host calls are charged before the host
// is consulted, based on the bytes passed to it; the bytes of values
// returned by the host are charged before they are copied into memory.
const (
	HostByteGas     veritas.Gas = 1  // per key or value byte read or checked
	WriteByteGas    veritas.Gas = 2  // per key and value byte written
	EventByteGas    veritas.Gas = 2  // per payload byte of emitted events
	IterateEntryGas veritas.Gas = 20 // per entry visited by ITERATE
	CopyWordGas     veritas.Gas = 3  // per word copied by INPUTCOPY
)

var staticGasPrices = func() (res [numOpCodes]veritas.Gas) {
	for i := range res {
		res[i] = getStaticGasPriceInternal(OpCode(i))
	}
	return
}()

func getStaticGasPriceInternal(op OpCode) veritas.Gas {
	if op.isPush() || (DUP1 <= op && op <= DUP8) || (SWAP1 <= op && op <= SWAP8) {
		return 3
	}
	switch op {
	case STOP, RETURN, ACCEPT, REJECT, REVERT, INVALID:
		return 0
	case JUMPDEST:
		return 1
	case SELF, INPUTSIZE, GAS, POP, MSIZE:
		return 2
	case ADD, SUB, LT, GT, EQ, ISZERO, AND, OR, XOR, NOT,
		INPUTLOAD, INPUTCOPY, MLOAD, MSTORE, MSTORE8:
		return 3
	case MUL, DIV, MOD:
		return 5
	case JUMP:
		return 8
	case JUMPI:
		return 10
	case HAS, CHANGED:
		return 50
	case READ, EMIT:
		return 100
	case DELETE, ITERATE:
		return 150
	case WRITE:
		return 200
	case AUTHORIZED:
		return 1000
	}
	return 0
}
