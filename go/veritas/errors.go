// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package veritas

import "errors"

// ConstError is an error type that can be used to define immutable
// error constants.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

// ErrOutOfGas is reported whenever a charge exceeds the remaining budget of a
// gas meter. It aborts the current phase of a transaction.
const ErrOutOfGas = ConstError("out of gas")

// TrapError is a runtime fault of a sandboxed module, like an invalid
// instruction, a stack or memory violation, or an explicit revert.
type TrapError struct {
	Reason string
}

func (e *TrapError) Error() string {
	return "trap: " + e.Reason
}

// Trap creates a TrapError with the given reason.
func Trap(reason string) *TrapError {
	return &TrapError{Reason: reason}
}

// IsTrap reports whether the given error is or wraps a TrapError.
func IsTrap(err error) bool {
	var trap *TrapError
	return errors.As(err, &trap)
}

// IsExecutionFailure reports whether the given error is a recoverable failure
// of a module invocation, which is either a trap or a gas exhaustion. All
// other errors are infrastructure failures.
func IsExecutionFailure(err error) bool {
	return errors.Is(err, ErrOutOfGas) || IsTrap(err)
}
