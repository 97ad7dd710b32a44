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

// Runtime faults of the sandbox VM. All of them are reported as traps.
var (
	errInvalidModule     = veritas.Trap("invalid module")
	errUnknownEntryPoint = veritas.Trap("unknown entry point")
	errInvalidOpCode     = veritas.Trap("invalid opcode")
	errInvalidJump       = veritas.Trap("invalid jump destination")
	errStackOverflow     = veritas.Trap("stack overflow")
	errStackUnderflow    = veritas.Trap("stack underflow")
	errMemoryLimit       = veritas.Trap("memory limit exceeded")
	errOverflow          = veritas.Trap("integer overflow")
	errInvalidView       = veritas.Trap("invalid view")
	errReverted          = veritas.Trap("reverted")
	errInterrupted       = veritas.Trap("interrupted")
)
