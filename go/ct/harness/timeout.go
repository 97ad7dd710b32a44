// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// WithTimeout limits the wall-clock time of every invocation of the given
// interpreter. An invocation exceeding the limit fails with a trap, like
// any other runtime fault of a module. A non-positive limit disables the
// check.
func WithTimeout(interpreter veritas.Interpreter, limit time.Duration) veritas.Interpreter {
	if limit <= 0 {
		return interpreter
	}
	return &timeoutInterpreter{interpreter: interpreter, limit: limit}
}

type timeoutInterpreter struct {
	interpreter veritas.Interpreter
	limit       time.Duration
}

func (i *timeoutInterpreter) Run(params veritas.Parameters) (veritas.Result, error) {
	parent := params.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, i.limit)
	defer cancel()
	params.Context = ctx
	res, err := i.interpreter.Run(params)
	if err == nil && ctx.Err() == context.DeadlineExceeded {
		return veritas.Result{
			Failure: veritas.Trap(fmt.Sprintf("timeout: %s exceeded %v", params.Kind, i.limit)),
		}, nil
	}
	return res, err
}
