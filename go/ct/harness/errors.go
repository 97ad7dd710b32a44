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
	"fmt"
	"strings"

	"github.com/Fantom-foundation/Veritas/go/ct/st"
)

// DivergenceError reports an action for which the ledger and the reference
// model disagree.
type DivergenceError struct {
	Step     int
	Action   st.Action
	Expected string
	Actual   string
	Details  []string
}

func (e *DivergenceError) Error() string {
	res := fmt.Sprintf("divergence at step %d (%v): expected %s, got %s", e.Step, e.Action, e.Expected, e.Actual)
	if len(e.Details) > 0 {
		res += "\n\t" + strings.Join(e.Details, "\n\t")
	}
	return res
}

// InfrastructureError reports a failure of the harness itself or of the
// storage or interpreter beneath the ledger. Such errors are no evidence of
// a semantic divergence.
type InfrastructureError struct {
	Step int
	Err  error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("infrastructure failure at step %d: %v", e.Step, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// PreconditionError reports an action that is not applicable in the state
// reached by its predecessors.
type PreconditionError struct {
	Step int
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated at step %d: %v", e.Step, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
