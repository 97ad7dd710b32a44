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
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/holiman/uint256"
)

// MaxMemorySize is the upper bound of the linear memory of a single run.
// Accesses beyond this bound trap.
const MaxMemorySize = 1 << 20

// Memory is the bounded, byte-addressable linear memory of a run. It grows
// in 32-byte words and charges for its expansion.
type Memory struct {
	store             []byte
	currentMemoryCost veritas.Gas
}

func NewMemory() *Memory {
	return &Memory{}
}

func sizeInWords(size uint64) uint64 {
	return (size + 31) / 32
}

// expansionCosts returns the gas required to grow the memory to the given
// size. The cost of a memory of w words is 3*w + w*w/512.
func (m *Memory) expansionCosts(size uint64) veritas.Gas {
	if m.length() >= size {
		return 0
	}
	words := sizeInWords(size)
	newCosts := veritas.Gas((words*words)/512 + (3 * words))
	return newCosts - m.currentMemoryCost
}

// expandMemory grows the memory to cover the range [offset, offset+size).
// If the memory is already large enough or size is 0, it does nothing.
func (m *Memory) expandMemory(offset, size uint64, c *context) error {
	if size == 0 {
		return nil
	}
	needed := offset + size
	if needed < offset || needed > MaxMemorySize {
		return errMemoryLimit
	}
	if m.length() < needed {
		if err := c.useGas(m.expansionCosts(needed)); err != nil {
			return err
		}
		m.expandMemoryWithoutCharging(needed)
	}
	return nil
}

func (m *Memory) expandMemoryWithoutCharging(needed uint64) {
	size := m.length()
	if size < needed {
		m.currentMemoryCost += m.expansionCosts(needed)
		m.store = append(m.store, make([]byte, sizeInWords(needed)*32-size)...)
	}
}

func (m *Memory) length() uint64 {
	return uint64(len(m.store))
}

func (m *Memory) setByte(offset uint64, value byte, c *context) error {
	if err := m.expandMemory(offset, 1, c); err != nil {
		return err
	}
	m.store[offset] = value
	return nil
}

func (m *Memory) setWord(offset uint64, value *uint256.Int, c *context) error {
	if err := m.expandMemory(offset, 32, c); err != nil {
		return err
	}
	value.WriteToSlice(m.store[offset : offset+32])
	return nil
}

// set copies the given data into memory at the given offset, expanding and
// charging as needed.
func (m *Memory) set(offset uint64, data []byte, c *context) error {
	if len(data) == 0 {
		return nil
	}
	if err := m.expandMemory(offset, uint64(len(data)), c); err != nil {
		return err
	}
	copy(m.store[offset:], data)
	return nil
}

// getSlice obtains a slice of size bytes from the memory at the given offset.
// The returned slice is backed by the memory's internal data and is
// invalidated by any subsequent memory expansion.
func (m *Memory) getSlice(offset, size uint64, c *context) ([]byte, error) {
	if err := m.expandMemory(offset, size, c); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	return m.store[offset : offset+size], nil
}

// getCopy is like getSlice but returns an independent copy of the data.
func (m *Memory) getCopy(offset, size uint64, c *context) ([]byte, error) {
	data, err := m.getSlice(offset, size, c)
	if err != nil {
		return nil, err
	}
	res := make([]byte, len(data))
	copy(res, data)
	return res, nil
}

// readWord reads a 32-byte word from the memory at the given offset.
func (m *Memory) readWord(offset uint64, target *uint256.Int, c *context) error {
	data, err := m.getSlice(offset, 32, c)
	if err != nil {
		return err
	}
	target.SetBytes32(data)
	return nil
}
