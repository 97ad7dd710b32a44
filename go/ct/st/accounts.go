// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package st

import (
	"crypto/ed25519"
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/Fantom-foundation/Veritas/go/programs"
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"golang.org/x/crypto/sha3"
)

// Accounts is the fixed universe of addresses used by test sequences.
var Accounts = []veritas.Address{
	{0x01}, {0x02}, {0x03}, {0x04}, {0x05},
}

// KeyOf derives the signing key of the given address. Keys are derived
// deterministically so that sequences can be replayed from their encoding.
func KeyOf(addr veritas.Address) ed25519.PrivateKey {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(addr[:])
	return ed25519.NewKeyFromSeed(hasher.Sum(nil))
}

// PublicKeyOf returns the public key registered for the given address.
func PublicKeyOf(addr veritas.Address) ed25519.PublicKey {
	return KeyOf(addr).Public().(ed25519.PublicKey)
}

// InputOf encodes the input of the described transaction.
func InputOf(spec TxSpec) veritas.Data {
	switch spec.Program {
	case Transfer:
		return programs.TransferInput(spec.From, spec.To, veritas.NewAmount(spec.Amount))
	case Sweep:
		return programs.SweepInput(spec.From, spec.To)
	case Revert:
		return programs.RevertInput(spec.From)
	}
	return nil
}

// BuildTransaction creates the signed transaction described by the given TxSpec.
func BuildTransaction(spec TxSpec) (veritas.Transaction, error) {
	code, err := programs.Get(spec.Program.String())
	if err != nil {
		return veritas.Transaction{}, err
	}
	tx := veritas.Transaction{
		Code:     code,
		Input:    InputOf(spec),
		GasLimit: spec.GasLimit,
	}
	for _, signer := range spec.Signers {
		if err := ledger.Sign(&tx, KeyOf(signer)); err != nil {
			return veritas.Transaction{}, fmt.Errorf("failed to sign transaction: %w", err)
		}
	}
	if spec.Forged {
		for _, auth := range tx.Authorizations {
			auth.Signature[0] ^= 0xff
		}
	}
	return tx, nil
}
