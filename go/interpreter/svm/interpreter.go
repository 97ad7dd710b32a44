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

	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// status is enumeration of the execution state of an interpreter run.
type status byte

const (
	statusRunning  status = iota // < all fine, ops are processed
	statusStopped                // < execution stopped with a STOP or by running off the code
	statusReturned               // < execution stopped with a RETURN, ACCEPT, or REJECT
	statusFailed                 // < execution stopped with a trap or by running out of gas
)

// interruptCheckInterval is the number of instructions between two checks of
// the run's cancellation context.
const interruptCheckInterval = 1 << 10

// context is the execution environment of an interpreter run. It contains all
// the necessary state to execute a module, including input parameters, the
// module code, and internal execution state such as the program counter,
// stack, and memory. For each run, a new context is created.
type context struct {
	// Inputs
	params veritas.Parameters
	module *Module
	code   []byte
	meter  *veritas.GasMeter

	// Execution state
	pc     int
	stack  *stack
	memory *Memory
	steps  uint64

	// Outputs
	output []byte
}

// useGas charges the given amount to the run's gas meter. If the budget is
// exceeded, veritas.ErrOutOfGas is returned and execution must stop.
func (c *context) useGas(amount veritas.Gas) error {
	return c.meter.Charge(amount)
}

// --- Interpreter ---

type runner interface {
	// run executes the module code in the given context. Any fault of the
	// module is returned as an error satisfying veritas.IsExecutionFailure;
	// all other errors are infrastructure failures.
	run(*context) (status, error)
}

func run(
	config Config,
	params veritas.Parameters,
	module *Module,
) (veritas.Result, error) {
	entry, found := module.Entry(params.Entry)
	if !found {
		return failed(errUnknownEntryPoint)
	}

	var ctxt = context{
		params: params,
		module: module,
		code:   module.code,
		meter:  params.Meter,
		pc:     int(entry),
		stack:  NewStack(),
		memory: NewMemory(),
	}
	defer ReturnStack(ctxt.stack)

	runner := config.runner
	if runner == nil {
		runner = vanillaRunner{}
	}
	status, err := runner.run(&ctxt)
	if err != nil {
		if veritas.IsExecutionFailure(err) {
			return failed(err)
		}
		return veritas.Result{}, err
	}
	return generateResult(status, &ctxt)
}

func failed(failure error) (veritas.Result, error) {
	return veritas.Result{Success: false, Failure: failure}, nil
}

func generateResult(status status, ctxt *context) (veritas.Result, error) {
	switch status {
	case statusStopped:
		return veritas.Result{Success: true}, nil
	case statusReturned:
		return veritas.Result{Success: true, Output: ctxt.output}, nil
	default:
		return veritas.Result{}, fmt.Errorf("unexpected error in interpreter, unknown status: %v", status)
	}
}

// --- Runners ---

// vanillaRunner is the default runner that executes the module code without
// any additional features.
type vanillaRunner struct{}

func (vanillaRunner) run(c *context) (status, error) {
	return steps(c, false)
}

// --- Execution ---

// steps executes the module code in the given context. If oneStepOnly is
// true, only the instruction pointed to by the program counter is executed.
// It returns the status of the execution and an error if the execution
// yields a fault (i.e. out of gas, stack underflow, etc).
func steps(c *context, oneStepOnly bool) (status, error) {
	status := statusRunning
	for status == statusRunning {
		if c.pc >= len(c.code) {
			return statusStopped, nil
		}

		if c.steps%interruptCheckInterval == 0 && c.params.Context != nil {
			if err := c.params.Context.Err(); err != nil {
				return statusFailed, veritas.Trap(fmt.Sprintf("%s: %v", errInterrupted.Reason, err))
			}
		}
		c.steps++

		op := OpCode(c.code[c.pc])
		if !op.isValid() {
			return statusFailed, errInvalidOpCode
		}

		if err := checkStackLimits(c.stack.len(), op); err != nil {
			return statusFailed, err
		}

		if err := c.useGas(staticGasPrices[op]); err != nil {
			return statusFailed, err
		}

		var err error
		switch {
		case op.isPush():
			opPush(c, op.pushSize())
		case DUP1 <= op && op <= DUP8:
			c.stack.dup(int(op - DUP1))
		case SWAP1 <= op && op <= SWAP8:
			c.stack.swap(int(op-SWAP1) + 1)
		default:
			status, err = execute(c, op)
		}
		if err != nil {
			return statusFailed, err
		}

		c.pc++

		if oneStepOnly {
			return status, nil
		}
	}
	return status, nil
}

// execute runs a single non-stack instruction.
func execute(c *context, op OpCode) (status, error) {
	var err error
	switch op {
	case STOP:
		return statusStopped, nil
	case ADD:
		opAdd(c)
	case MUL:
		opMul(c)
	case SUB:
		opSub(c)
	case DIV:
		opDiv(c)
	case MOD:
		opMod(c)
	case LT:
		opLt(c)
	case GT:
		opGt(c)
	case EQ:
		opEq(c)
	case ISZERO:
		opIszero(c)
	case AND:
		opAnd(c)
	case OR:
		opOr(c)
	case XOR:
		opXor(c)
	case NOT:
		opNot(c)
	case SELF:
		err = opSelf(c)
	case INPUTSIZE:
		opInputSize(c)
	case INPUTLOAD:
		opInputLoad(c)
	case INPUTCOPY:
		err = opInputCopy(c)
	case GAS:
		opGas(c)
	case POP:
		c.stack.pop()
	case MLOAD:
		err = opMload(c)
	case MSTORE:
		err = opMstore(c)
	case MSTORE8:
		err = opMstore8(c)
	case JUMP:
		err = opJump(c)
	case JUMPI:
		err = opJumpi(c)
	case MSIZE:
		opMsize(c)
	case JUMPDEST:
		// nothing
	case READ:
		err = opRead(c)
	case HAS:
		err = opHas(c)
	case WRITE:
		err = opWrite(c)
	case DELETE:
		err = opDelete(c)
	case ITERATE:
		err = opIterate(c)
	case EMIT:
		err = opEmit(c)
	case AUTHORIZED:
		err = opAuthorized(c)
	case CHANGED:
		err = opChanged(c)
	case RETURN:
		err = opReturn(c)
		return statusReturned, err
	case ACCEPT:
		c.output = []byte{1}
		return statusReturned, nil
	case REJECT:
		c.output = []byte{0}
		return statusReturned, nil
	case REVERT:
		return statusFailed, opRevert(c)
	default:
		return statusFailed, errInvalidOpCode
	}
	return statusRunning, err
}
