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

import "github.com/Fantom-foundation/Veritas/go/veritas"

const (
	TxBaseGas          veritas.Gas = 500
	TxInputByteGas     veritas.Gas = 4
	TxAuthorizationGas veritas.Gas = 1000
	// VpBaseGas is charged before each predicate invocation.
	VpBaseGas veritas.Gas = 200
)

// IntrinsicGas computes the gas charged for a transaction before any of its
// code is executed.
func IntrinsicGas(tx veritas.Transaction) veritas.Gas {
	return TxBaseGas +
		TxInputByteGas*veritas.Gas(len(tx.Input)) +
		TxAuthorizationGas*veritas.Gas(len(tx.Authorizations))
}
