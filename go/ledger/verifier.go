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
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/veritas"
)

// FallbackPolicy determines how touched addresses without a bound validity
// predicate are verified.
type FallbackPolicy byte

const (
	// FallbackDefaultPredicate evaluates the configured default predicate.
	FallbackDefaultPredicate FallbackPolicy = iota
	// FallbackReject rejects transactions touching such addresses.
	FallbackReject
)

func (p FallbackPolicy) String() string {
	switch p {
	case FallbackDefaultPredicate:
		return "default-predicate"
	case FallbackReject:
		return "reject"
	}
	return fmt.Sprintf("FallbackPolicy(%d)", p)
}

// ParseFallbackPolicy resolves the policy with the given name.
func ParseFallbackPolicy(name string) (FallbackPolicy, error) {
	for _, policy := range []FallbackPolicy{FallbackDefaultPredicate, FallbackReject} {
		if policy.String() == name {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("unknown fallback policy %q", name)
}

// PredicateResult summarizes the evaluation of a single validity predicate.
type PredicateResult struct {
	Address  veritas.Address
	Module   veritas.ContentID
	Fallback bool // true if the default predicate was evaluated
	Accepted bool
	GasUsed  veritas.Gas
}

// accepted is the output of a predicate accepting a transaction.
var accepted = []byte{1}

type verifier struct {
	interpreter      veritas.Interpreter
	fallback         FallbackPolicy
	defaultPredicate veritas.Code
}

// touchedAddresses derives the owners of the given keys, ordered by their
// first occurrence.
func touchedAddresses(keys []veritas.Key) []veritas.Address {
	seen := map[veritas.Address]struct{}{}
	res := []veritas.Address{}
	for _, key := range keys {
		addr := key.Address()
		if _, found := seen[addr]; !found {
			seen[addr] = struct{}{}
			res = append(res, addr)
		}
	}
	return res
}

// resolve looks up the predicate bound to the given address in the
// committed state. A binding to an unknown module is treated as missing.
func resolve(storage veritas.Storage, addr veritas.Address) (veritas.Code, veritas.ContentID, bool, error) {
	binding, found, err := storage.Get(veritas.PredicateKey(addr))
	if err != nil || !found || len(binding) != len(veritas.ContentID{}) {
		return nil, veritas.ContentID{}, false, err
	}
	var id veritas.ContentID
	copy(id[:], binding)
	code, found, err := storage.Get(veritas.ModuleKey(id))
	if err != nil || !found {
		return nil, veritas.ContentID{}, false, err
	}
	return veritas.Code(code), id, true, nil
}

// verify evaluates the predicates of all addresses touched by the write-log
// of the given host. Evaluation stops at the first failing predicate, which
// is reported as the failure result.
func (v verifier) verify(
	tx veritas.Transaction,
	host *predicateHost,
	meter *veritas.GasMeter,
) (results []PredicateResult, failure error, err error) {
	storage := host.log.storage
	for _, addr := range touchedAddresses(host.log.TouchedKeys()) {
		code, id, found, err := resolve(storage, addr)
		if err != nil {
			return results, nil, err
		}
		res := PredicateResult{Address: addr, Module: id}
		if !found {
			if v.fallback == FallbackReject {
				results = append(results, res)
				return results, &MissingModuleError{Address: addr}, nil
			}
			code = v.defaultPredicate
			id = veritas.ContentIDOf(code)
			res.Module = id
			res.Fallback = true
		}

		before := meter.Consumed()
		failure, err := v.evaluate(tx, addr, code, id, host, meter)
		res.GasUsed = meter.Consumed() - before
		if err != nil {
			return results, nil, err
		}
		res.Accepted = failure == nil
		results = append(results, res)
		if failure != nil {
			return results, failure, nil
		}
	}
	return results, nil, nil
}

func (v verifier) evaluate(
	tx veritas.Transaction,
	addr veritas.Address,
	code veritas.Code,
	id veritas.ContentID,
	host *predicateHost,
	meter *veritas.GasMeter,
) (failure error, err error) {
	if err := meter.Charge(VpBaseGas); err != nil {
		return fmt.Errorf("predicate of %v failed: %w", addr, err), nil
	}
	result, err := v.interpreter.Run(veritas.Parameters{
		Kind:     veritas.PredicateModule,
		Code:     code,
		CodeHash: &id,
		Entry:    veritas.PredicateModule.EntryPoint(),
		Input:    tx.Input,
		Self:     addr,
		Host:     host,
		Meter:    meter,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return fmt.Errorf("predicate of %v failed: %w", addr, result.Failure), nil
	}
	if !bytes.Equal(result.Output, accepted) {
		return &RejectedError{Address: addr}, nil
	}
	return nil, nil
}
