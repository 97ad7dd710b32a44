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
	"math"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/holiman/uint256"
)

// Binary operations take the top element as their first and the second
// element as their second operand, replacing both by the result.

func opAdd(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Add(a, b)
}

func opMul(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mul(a, b)
}

func opSub(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Sub(a, b)
}

// opDiv computes a / b, where a division by zero yields zero.
func opDiv(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Div(a, b)
}

// opMod computes a % b, where a modulo by zero yields zero.
func opMod(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mod(a, b)
}

func opLt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Lt(b))
}

func opGt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Gt(b))
}

func opEq(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Eq(b))
}

func opIszero(c *context) {
	a := c.stack.peek()
	setBool(a, a.IsZero())
}

func opAnd(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.And(a, b)
}

func opOr(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Or(a, b)
}

func opXor(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Xor(a, b)
}

func opNot(c *context) {
	a := c.stack.peek()
	a.Not(a)
}

func setBool(z *uint256.Int, value bool) {
	if value {
		z.SetOne()
	} else {
		z.Clear()
	}
}

// opPush pushes the n bytes following the instruction. Data beyond the end of
// the code is read as zeros.
func opPush(c *context, n int) {
	var data [32]byte
	start := c.pc + 1
	if start < len(c.code) {
		copy(data[:n], c.code[start:min(start+n, len(c.code))])
	}
	c.stack.pushUndefined().SetBytes(data[:n])
	c.pc += n
}

func opJump(c *context) error {
	destination := c.stack.pop()
	return jumpTo(c, destination)
}

func opJumpi(c *context) error {
	destination := c.stack.pop()
	condition := c.stack.pop()
	if condition.IsZero() {
		return nil
	}
	return jumpTo(c, destination)
}

func jumpTo(c *context, destination *uint256.Int) error {
	if !destination.IsUint64() || !c.module.isJumpDest(destination.Uint64()) {
		return errInvalidJump
	}
	// The interpreter increments the PC after this instruction.
	c.pc = int(destination.Uint64()) - 1
	return nil
}

// toMemoryOffset converts a stack value into a memory offset or size. Values
// exceeding the memory limit trap.
func toMemoryOffset(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() || v.Uint64() > MaxMemorySize {
		return 0, errMemoryLimit
	}
	return v.Uint64(), nil
}

// toMemoryRange is like toMemoryOffset for an offset and size pair.
func toMemoryRange(offset, size *uint256.Int) (uint64, uint64, error) {
	off, err := toMemoryOffset(offset)
	if err != nil {
		return 0, 0, err
	}
	length, err := toMemoryOffset(size)
	if err != nil {
		return 0, 0, err
	}
	return off, length, nil
}

func opMload(c *context) error {
	top := c.stack.peek()
	offset, err := toMemoryOffset(top)
	if err != nil {
		return err
	}
	return c.memory.readWord(offset, top, c)
}

func opMstore(c *context) error {
	offset, err := toMemoryOffset(c.stack.pop())
	if err != nil {
		return err
	}
	value := c.stack.pop()
	return c.memory.setWord(offset, value, c)
}

func opMstore8(c *context) error {
	offset, err := toMemoryOffset(c.stack.pop())
	if err != nil {
		return err
	}
	value := c.stack.pop()
	return c.memory.setByte(offset, byte(value.Uint64()), c)
}

func opMsize(c *context) {
	c.stack.pushUndefined().SetUint64(c.memory.length())
}

func opSelf(c *context) error {
	offset, err := toMemoryOffset(c.stack.pop())
	if err != nil {
		return err
	}
	return c.memory.set(offset, c.params.Self[:], c)
}

func opInputSize(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(len(c.params.Input)))
}

// getData returns size bytes of the given data starting at offset, padded
// with zeros where the range exceeds the data.
func getData(data []byte, offset *uint256.Int, size uint64) []byte {
	start := uint64(math.MaxUint64)
	if offset.IsUint64() {
		start = offset.Uint64()
	}
	res := make([]byte, size)
	if start < uint64(len(data)) {
		copy(res, data[start:])
	}
	return res
}

func opInputLoad(c *context) {
	top := c.stack.peek()
	top.SetBytes32(getData(c.params.Input, top, 32))
}

func opInputCopy(c *context) error {
	memOffset := c.stack.pop()
	inputOffset := c.stack.pop()
	size := c.stack.pop()
	offset, length, err := toMemoryRange(memOffset, size)
	if err != nil {
		return err
	}
	if err := c.useGas(CopyWordGas * veritas.Gas(sizeInWords(length))); err != nil {
		return err
	}
	return c.memory.set(offset, getData(c.params.Input, inputOffset, length), c)
}

func opGas(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.meter.Remaining()))
}

func opReturn(c *context) error {
	offset, size, err := toMemoryRange(c.stack.pop(), c.stack.pop())
	if err != nil {
		return err
	}
	c.output, err = c.memory.getCopy(offset, size, c)
	return err
}

// opRevert aborts the execution with a trap. A non-empty revert payload is
// included in the trap's reason.
func opRevert(c *context) error {
	offset, size, err := toMemoryRange(c.stack.pop(), c.stack.pop())
	if err != nil {
		return err
	}
	data, err := c.memory.getCopy(offset, size, c)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errReverted
	}
	return veritas.Trap(errReverted.Reason + ": " + string(data))
}
