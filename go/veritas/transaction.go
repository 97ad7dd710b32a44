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

// Transaction is a request to run a transaction module against the ledger.
// Transactions are immutable once submitted.
type Transaction struct {
	Code           Code
	Input          Data
	Authorizations []Authorization
	GasLimit       Gas
}

// Authorization is a signature of the transaction's signing hash by the
// owner of the given public key.
type Authorization struct {
	PublicKey []byte
	Signature []byte
}
