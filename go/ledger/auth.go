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
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/hdevalence/ed25519consensus"
	"golang.org/x/crypto/sha3"
)

// signingPayload is the canonical encoding of the signed parts of a
// transaction.
type signingPayload struct {
	CodeHash veritas.ContentID
	Input    []byte
	GasLimit uint64
}

// SigningHash computes the hash signed by the authorizations of the given
// transaction. It covers the code, the input, and the gas limit.
func SigningHash(tx veritas.Transaction) (veritas.ContentID, error) {
	limit := tx.GasLimit
	if limit < 0 {
		limit = 0
	}
	encoded, err := rlp.EncodeToBytes(signingPayload{
		CodeHash: veritas.ContentIDOf(tx.Code),
		Input:    tx.Input,
		GasLimit: uint64(limit),
	})
	if err != nil {
		return veritas.ContentID{}, fmt.Errorf("failed to encode transaction: %w", err)
	}
	var res veritas.ContentID
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(encoded)
	hasher.Sum(res[:0])
	return res, nil
}

// Sign adds an authorization of the owner of the given key to the
// transaction. The transaction must not be modified afterwards.
func Sign(tx *veritas.Transaction, key ed25519.PrivateKey) error {
	hash, err := SigningHash(*tx)
	if err != nil {
		return err
	}
	tx.Authorizations = append(tx.Authorizations, veritas.Authorization{
		PublicKey: append([]byte{}, key.Public().(ed25519.PublicKey)...),
		Signature: ed25519.Sign(key, hash[:]),
	})
	return nil
}

// authorizer answers authorization queries of modules. Signatures are
// verified once when the authorizer is created; an address is authorized
// if its registered public key signed the transaction.
type authorizer struct {
	storage veritas.Storage
	signers [][]byte
}

func newAuthorizer(tx veritas.Transaction, storage veritas.Storage) (*authorizer, error) {
	hash, err := SigningHash(tx)
	if err != nil {
		return nil, err
	}
	res := &authorizer{storage: storage}
	for _, auth := range tx.Authorizations {
		if len(auth.PublicKey) != ed25519.PublicKeySize {
			continue
		}
		if ed25519consensus.Verify(auth.PublicKey, hash[:], auth.Signature) {
			res.signers = append(res.signers, auth.PublicKey)
		}
	}
	return res, nil
}

// isAuthorized checks the signers against the public key registered for
// the given address in the committed state.
func (a *authorizer) isAuthorized(addr veritas.Address) (bool, error) {
	if len(a.signers) == 0 {
		return false, nil
	}
	key, found, err := a.storage.Get(veritas.PublicKeyKey(addr))
	if err != nil || !found {
		return false, err
	}
	for _, signer := range a.signers {
		if bytes.Equal(signer, key) {
			return true, nil
		}
	}
	return false, nil
}
