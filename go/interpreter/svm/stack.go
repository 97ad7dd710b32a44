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
	"fmt"
	"strings"
	"sync"

	"github.com/holiman/uint256"
)

// maxStackSize bounds the number of words a program may keep on its stack.
const maxStackSize = 1024

// stack holds the operand words of a running program. Index 0 of words is
// the bottom; top is the number of occupied slots. Bounds are validated once
// per instruction by checkStackLimits, so the accessors below do not check.
type stack struct {
	words [maxStackSize]uint256.Int
	top   int
}

func (s *stack) push(v *uint256.Int) {
	s.words[s.top] = *v
	s.top++
}

// pushUndefined reserves a new top slot and hands it out for in-place
// writes. The slot keeps whatever word it held before.
func (s *stack) pushUndefined() *uint256.Int {
	s.top++
	return &s.words[s.top-1]
}

// pop drops the top word. The result aliases the freed slot and is
// overwritten by the next push.
func (s *stack) pop() *uint256.Int {
	s.top--
	return &s.words[s.top]
}

func (s *stack) peek() *uint256.Int {
	return &s.words[s.top-1]
}

// peekN addresses the word n slots below the top.
func (s *stack) peekN(n int) *uint256.Int {
	return &s.words[s.top-1-n]
}

func (s *stack) len() int {
	return s.top
}

// swap exchanges the top with the word n slots below it.
func (s *stack) swap(n int) {
	top, other := s.top-1, s.top-1-n
	s.words[top], s.words[other] = s.words[other], s.words[top]
}

// dup pushes a copy of the word n slots below the top.
func (s *stack) dup(n int) {
	s.words[s.top] = s.words[s.top-1-n]
	s.top++
}

// String lists the words from top to bottom, one per line, with leading
// zero bytes trimmed.
func (s *stack) String() string {
	if s.top == 0 {
		return "<empty stack>"
	}
	var b strings.Builder
	for i := s.top - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%d: %s\n", i, s.words[i].Hex())
	}
	return b.String()
}

var stacks = sync.Pool{
	New: func() any { return new(stack) },
}

// NewStack takes an empty stack from a shared pool. Safe for concurrent use.
func NewStack() *stack {
	return stacks.Get().(*stack)
}

// ReturnStack hands the stack back to the pool. The caller must not use it
// afterwards.
func ReturnStack(s *stack) {
	s.top = 0
	stacks.Put(s)
}
