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

import (
	"context"
	"fmt"
)

//go:generate mockgen -source interpreter.go -destination interpreter_mock.go -package veritas

// Interpreter is a component capable of executing sandboxed modules. The same
// interpreter runs transaction modules and validity predicates; the kind of
// an invocation only determines the capabilities granted by the host.
// To obtain an Interpreter instance, client code should use NewInterpreter()
// provided by the registry file in this package.
type Interpreter interface {
	// Run executes the module provided by the parameters and returns the
	// processing result. The resulting error is nil whenever the module was
	// correctly processed, even if the execution trapped or ran out of gas.
	// Those outcomes are reported through the result's Failure field. The
	// error is not nil if the interpreter or the host failed to process the
	// module, for instance due to a storage backend failure. In such a case
	// the result is undefined.
	// Interpreters are required to be thread-safe. Thus, multiple runs may be
	// conducted in parallel.
	Run(Parameters) (Result, error)
}

// ModuleKind distinguishes the two roles a module may take.
type ModuleKind byte

const (
	TransactionModule ModuleKind = iota
	PredicateModule
)

func (k ModuleKind) String() string {
	switch k {
	case TransactionModule:
		return "tx"
	case PredicateModule:
		return "vp"
	}
	return fmt.Sprintf("ModuleKind(%d)", k)
}

// EntryPoint returns the name of the entry point invoked for modules of
// this kind.
func (k ModuleKind) EntryPoint() string {
	return k.String()
}

// View selects the state a host lookup is performed on.
type View byte

const (
	// CurrentView is the state including all pending writes. For transaction
	// modules this is the write-log, for predicates the post-state.
	CurrentView View = iota
	// PreView is the committed state before the current transaction.
	PreView
)

func (v View) String() string {
	switch v {
	case CurrentView:
		return "current"
	case PreView:
		return "pre"
	}
	return fmt.Sprintf("View(%d)", v)
}

// Parameters summarizes the list of input parameters required for running a
// module.
type Parameters struct {
	Kind     ModuleKind
	Code     Code
	CodeHash *ContentID // optional, enables caching of decoded modules
	Entry    string
	Input    Data
	Self     Address // the address a predicate is evaluated for
	Host     Host
	Meter    *GasMeter
	// Context is polled during execution; once it is done, the run traps.
	// It is optional and does not affect the outcome of undisturbed runs.
	Context context.Context
}

// Result summarizes the outcome of a module invocation.
type Result struct {
	Success bool // true if the module halted regularly
	Output  Data
	Failure error // ErrOutOfGas or a *TrapError if Success is false
}

// Host is the only channel through which a sandboxed module may observe or
// modify ledger state. Errors returned by a host are either *TrapError values,
// aborting the module like any other runtime fault, or infrastructure errors
// aborting the entire run.
type Host interface {
	Read(view View, key Key) (Value, bool, error)
	Has(view View, key Key) (bool, error)
	Write(key Key, value Value) error
	Delete(key Key) error
	// IteratePrefix visits all entries with the given key prefix in key order
	// until the visitor returns false.
	IteratePrefix(view View, prefix Key, visit func(Key, Value) bool) error
	EmitEvent(payload Data) error
	// IsAuthorized reports whether the current transaction carries a valid
	// authorization of the given address.
	IsAuthorized(addr Address) (bool, error)
	// Changed returns the number of keys with the given prefix written by the
	// current transaction.
	Changed(prefix Key) (int, error)
}
