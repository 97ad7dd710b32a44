// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package model

import (
	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// Execution costs of the standard programs and the account predicate. The
// base costs exclude the bytes of balances and nonces read from storage:
// every read of a stored entry adds storedWordGas, reads of absent entries
// are free. The table is pinned against the ledger by
// TestModel_GasMatchesLedger.
const (
	storedWordGas veritas.Gas = 32
	memoryWordGas veritas.Gas = 3

	transferGas             veritas.Gas = 1802 // sender balance, receiver balance, sender nonce
	transferToSelfGas       veritas.Gas = 299
	transferInsufficientGas veritas.Gas = 618  // sender balance, receiver balance
	sweepGas                veritas.Gas = 1392 // sender balance twice, receiver balance
	sweepToSelfGas          veritas.Gas = 389  // sender balance
	revertGas               veritas.Gas = 512
	protocolWriteGas        veritas.Gas = 592

	// Account predicate paths, see predicateRun.
	creditGas          veritas.Gas = 687  // pre balance
	balanceRejectedGas veritas.Gas = 1708 // pre balance
	balanceAcceptedGas veritas.Gas = 1806 // pre balance
	unauthorizedGas    veritas.Gas = 1345
	nonceCheckedGas    veritas.Gas = 1817 // pre nonce
)

func stored(present bool) veritas.Gas {
	if present {
		return storedWordGas
	}
	return 0
}

// IntrinsicGas computes the gas charged for the described transaction before
// its execution.
func IntrinsicGas(spec st.TxSpec) veritas.Gas {
	return ledger.TxBaseGas +
		ledger.TxInputByteGas*veritas.Gas(len(st.InputOf(spec))) +
		ledger.TxAuthorizationGas*veritas.Gas(len(spec.Signers))
}

// predicateRun describes the path taken by an evaluation of the account
// predicate. Standard programs modifying more than the balance of an
// account always increment its nonce.
type predicateRun struct {
	balanceOnly bool // the balance is the only modified entry of the account
	credit      bool // the balance did not decrease
	authorized  bool
	preBalance  bool // a balance was stored before the transaction
	preNonce    bool // a nonce was stored before the transaction
}

// accepts assumes that modified nonces are incremented by one, as done by
// all standard programs.
func (r predicateRun) accepts() bool {
	return (r.balanceOnly && r.credit) || r.authorized
}

// gas excludes ledger.VpBaseGas.
func (r predicateRun) gas() veritas.Gas {
	switch {
	case r.balanceOnly && r.credit:
		return creditGas + stored(r.preBalance)
	case r.balanceOnly && !r.authorized:
		return balanceRejectedGas + stored(r.preBalance)
	case r.balanceOnly:
		return balanceAcceptedGas + stored(r.preBalance)
	case !r.authorized:
		return unauthorizedGas
	}
	return nonceCheckedGas + stored(r.preNonce)
}
