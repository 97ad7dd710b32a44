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
	"sort"

	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// Modules are encoded as
//
//	magic "SVM1"
//	entry count (1 byte)
//	entries: name length (1 byte), name, code offset (2 bytes, big-endian)
//	code
//
// Code offsets and jump destinations are relative to the start of the code.
var moduleMagic = [4]byte{'S', 'V', 'M', '1'}

// MaxCodeSize is the maximum length of the code section of a module.
const MaxCodeSize = 1<<16 - 1

// Module is the decoded, executable form of a module.
type Module struct {
	code      []byte
	entries   map[string]uint16
	jumpDests []bool
}

// EncodeModule creates the binary representation of a module with the given
// entry points and code.
func EncodeModule(entries map[string]uint16, code []byte) (veritas.Code, error) {
	if len(entries) > 255 {
		return nil, fmt.Errorf("too many entry points: %d", len(entries))
	}
	if len(code) > MaxCodeSize {
		return nil, fmt.Errorf("code too large: %d bytes", len(code))
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		if len(name) == 0 || len(name) > 255 {
			return nil, fmt.Errorf("invalid entry point name %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	res := append([]byte{}, moduleMagic[:]...)
	res = append(res, byte(len(names)))
	for _, name := range names {
		res = append(res, byte(len(name)))
		res = append(res, name...)
		res = binary.BigEndian.AppendUint16(res, entries[name])
	}
	return append(res, code...), nil
}

// DecodeModule parses the binary representation of a module and analyzes its
// jump destinations. Any malformed module results in a trap.
func DecodeModule(data veritas.Code) (*Module, error) {
	if len(data) < len(moduleMagic)+1 || [4]byte(data[:4]) != moduleMagic {
		return nil, errInvalidModule
	}
	count := int(data[4])
	pos := 5
	entries := make(map[string]uint16, count)
	for i := 0; i < count; i++ {
		if pos >= len(data) {
			return nil, errInvalidModule
		}
		nameLength := int(data[pos])
		pos++
		if nameLength == 0 || pos+nameLength+2 > len(data) {
			return nil, errInvalidModule
		}
		name := string(data[pos : pos+nameLength])
		pos += nameLength
		entries[name] = binary.BigEndian.Uint16(data[pos:])
		pos += 2
	}
	code := data[pos:]
	if len(code) > MaxCodeSize {
		return nil, errInvalidModule
	}
	for _, offset := range entries {
		if int(offset) >= len(code) {
			return nil, errInvalidModule
		}
	}
	return &Module{
		code:      code,
		entries:   entries,
		jumpDests: analyzeJumpDests(code),
	}, nil
}

// analyzeJumpDests marks all JUMPDEST instructions not being part of the
// immediate data of a push instruction.
func analyzeJumpDests(code []byte) []bool {
	res := make([]bool, len(code))
	for i := 0; i < len(code); i++ {
		op := OpCode(code[i])
		if op == JUMPDEST {
			res[i] = true
		}
		i += op.pushSize()
	}
	return res
}

// Entry returns the code offset of the named entry point.
func (m *Module) Entry(name string) (uint16, bool) {
	offset, found := m.entries[name]
	return offset, found
}

// isJumpDest reports whether the given position is a valid jump target.
func (m *Module) isJumpDest(pos uint64) bool {
	return pos < uint64(len(m.jumpDests)) && m.jumpDests[pos]
}
