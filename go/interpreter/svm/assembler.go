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
	"encoding/binary"
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// Assembler builds modules from instructions, labels, and entry points.
// Errors are collected and reported by Build.
//
// Example:
//
//	code, err := NewAssembler().
//		Entry("vp").
//		Op(ACCEPT).
//		Build()
type Assembler struct {
	code    []byte
	labels  map[string]int
	fixups  map[int]string
	entries map[string]uint16
	err     error
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels:  map[string]int{},
		fixups:  map[int]string{},
		entries: map[string]uint16{},
	}
}

func (a *Assembler) fail(format string, args ...any) *Assembler {
	if a.err == nil {
		a.err = fmt.Errorf(format, args...)
	}
	return a
}

// Entry marks the current position as the start of the named entry point.
func (a *Assembler) Entry(name string) *Assembler {
	if _, found := a.entries[name]; found {
		return a.fail("duplicate entry point %q", name)
	}
	a.entries[name] = uint16(len(a.code))
	return a
}

// Label marks the current position as a jump destination with the given name
// and emits the required JUMPDEST instruction.
func (a *Assembler) Label(name string) *Assembler {
	if _, found := a.labels[name]; found {
		return a.fail("duplicate label %q", name)
	}
	a.labels[name] = len(a.code)
	return a.Op(JUMPDEST)
}

// Op appends the given instructions. Push instructions should be emitted
// through Push or PushBytes to include their immediate data.
func (a *Assembler) Op(ops ...OpCode) *Assembler {
	for _, op := range ops {
		a.code = append(a.code, byte(op))
	}
	return a
}

// Raw appends the given bytes without interpretation.
func (a *Assembler) Raw(data ...byte) *Assembler {
	a.code = append(a.code, data...)
	return a
}

// Push appends the shortest push instruction for the given value.
func (a *Assembler) Push(value uint64) *Assembler {
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], value)
	i := 0
	for i < len(data)-1 && data[i] == 0 {
		i++
	}
	return a.PushBytes(data[i:])
}

// PushBytes appends a push instruction for up to 32 bytes of data.
func (a *Assembler) PushBytes(data []byte) *Assembler {
	if len(data) == 0 || len(data) > 32 {
		return a.fail("invalid push data size %d", len(data))
	}
	a.code = append(a.code, byte(PushN(len(data))))
	a.code = append(a.code, data...)
	return a
}

// PushLabel appends a push of the position of the given label, which may be
// defined later on.
func (a *Assembler) PushLabel(name string) *Assembler {
	a.code = append(a.code, byte(PUSH2))
	a.fixups[len(a.code)] = name
	a.code = append(a.code, 0, 0)
	return a
}

// Jump appends an unconditional jump to the given label.
func (a *Assembler) Jump(label string) *Assembler {
	return a.PushLabel(label).Op(JUMP)
}

// JumpIf appends a jump to the given label taken if the top of the stack is
// not zero. The condition is consumed.
func (a *Assembler) JumpIf(label string) *Assembler {
	return a.PushLabel(label).Op(JUMPI)
}

// StoreBytes appends instructions writing the given data to memory at the
// given offset without touching any other memory byte.
func (a *Assembler) StoreBytes(offset uint64, data []byte) *Assembler {
	for len(data) >= 32 {
		a.PushBytes(data[:32]).Push(offset).Op(MSTORE)
		data = data[32:]
		offset += 32
	}
	for _, b := range data {
		a.Push(uint64(b)).Push(offset).Op(MSTORE8)
		offset++
	}
	return a
}

// Len returns the current size of the code.
func (a *Assembler) Len() int {
	return len(a.code)
}

// Build resolves all label references and encodes the module.
func (a *Assembler) Build() (veritas.Code, error) {
	if a.err != nil {
		return nil, a.err
	}
	code := append([]byte{}, a.code...)
	for pos, label := range a.fixups {
		target, found := a.labels[label]
		if !found {
			return nil, fmt.Errorf("undefined label %q", label)
		}
		binary.BigEndian.PutUint16(code[pos:], uint16(target))
	}
	return EncodeModule(a.entries, code)
}

// MustBuild is like Build but panics on errors. It is intended for modules
// assembled at package initialization.
func (a *Assembler) MustBuild() veritas.Code {
	code, err := a.Build()
	if err != nil {
		panic(err)
	}
	return code
}
