// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ledger

import (
	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// executor runs transaction modules against a write-log.
type executor struct {
	interpreter veritas.Interpreter
}

// execute charges the intrinsic gas of the transaction and runs its module.
// Failures of the transaction are reported as the failure result, the error
// result is reserved for infrastructure issues.
func (e executor) execute(
	tx veritas.Transaction,
	host *txHost,
	meter *veritas.GasMeter,
) (failure error, err error) {
	if err := meter.Charge(IntrinsicGas(tx)); err != nil {
		return err, nil
	}
	hash := veritas.ContentIDOf(tx.Code)
	result, err := e.interpreter.Run(veritas.Parameters{
		Kind:     veritas.TransactionModule,
		Code:     tx.Code,
		CodeHash: &hash,
		Entry:    veritas.TransactionModule.EntryPoint(),
		Input:    tx.Input,
		Host:     host,
		Meter:    meter,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return result.Failure, nil
	}
	return nil, nil
}
