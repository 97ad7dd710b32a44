// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package programs provides the standard transaction modules and validity
// predicates of the ledger.
package programs

import (
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/interpreter/svm"
	"github.com/Fantom-foundation/Veritas/go/veritas"
)

const (
	tx = "tx"
	vp = "vp"

	balanceSuffix = "/" + veritas.BalanceSegment
	nonceSuffix   = "/" + veritas.NonceSegment

	addressSize = 20
	wordSize    = 32
)

// Memory regions used by the programs below.
const (
	keyA   = 0x00
	keyB   = 0x40
	keyC   = 0x80
	valueA = 0xc0
	valueB = 0xe0
	valueC = 0x100
	valueD = 0x120
)

var (
	// AccountPredicate is the validity predicate of regular accounts. It
	// accepts modifications only increasing the account's balance without
	// any authorization. All other modifications require an authorization
	// of the account and, if the nonce is modified, an increment of the
	// nonce by exactly one.
	AccountPredicate = accountPredicate()

	// AmountPredicate extends AccountPredicate for accounts only spending
	// through Transfer. Besides the authorization, a debit must reduce the
	// balance by exactly the amount declared in the transaction input, see
	// TransferInput.
	AmountPredicate = amountPredicate()

	// Transfer moves an amount from one account to another and increments
	// the sender's nonce. See TransferInput.
	Transfer = transfer()

	// Sweep moves the full balance from one account to another. See
	// SweepInput.
	Sweep = sweep()

	// Revert modifies the balance of an account and then reverts. See
	// RevertInput.
	Revert = revert()

	// Burn loops until it runs out of gas.
	Burn = svm.NewAssembler().
		Entry(tx).
		Label("loop").
		Jump("loop").
		MustBuild()

	// ProtocolWrite attempts to overwrite the epoch counter of the protocol.
	ProtocolWrite = protocolWrite()
)

var byName = map[string]veritas.Code{
	"transfer":       Transfer,
	"sweep":          Sweep,
	"revert":         Revert,
	"burn":           Burn,
	"protocol-write": ProtocolWrite,
}

// Get returns the transaction module with the given name.
func Get(name string) (veritas.Code, error) {
	code, found := byName[name]
	if !found {
		return nil, fmt.Errorf("unknown program %q", name)
	}
	return code, nil
}

// TransferInput encodes the input of the Transfer program.
func TransferInput(from, to veritas.Address, amount veritas.Amount) veritas.Data {
	res := make(veritas.Data, 0, 2*addressSize+wordSize)
	res = append(res, from[:]...)
	res = append(res, to[:]...)
	return append(res, amount[:]...)
}

// SweepInput encodes the input of the Sweep program.
func SweepInput(from, to veritas.Address) veritas.Data {
	res := make(veritas.Data, 0, 2*addressSize)
	res = append(res, from[:]...)
	return append(res, to[:]...)
}

// RevertInput encodes the input of the Revert program.
func RevertInput(addr veritas.Address) veritas.Data {
	return append(veritas.Data{}, addr[:]...)
}

// loadKey copies the address at the given input offset to memory and
// appends the given suffix.
func loadKey(a *svm.Assembler, inputOffset uint64, memory uint64, suffix string) *svm.Assembler {
	return a.Push(addressSize).Push(inputOffset).Push(memory).Op(svm.INPUTCOPY).
		StoreBytes(memory+addressSize, []byte(suffix))
}

// selfKey stores the key of the evaluated address with the given suffix.
func selfKey(a *svm.Assembler, memory uint64, suffix string) *svm.Assembler {
	return a.Push(memory).Op(svm.SELF).StoreBytes(memory+addressSize, []byte(suffix))
}

// read loads the value of the key in the given memory region into memory.
func read(a *svm.Assembler, view veritas.View, key uint64, keySize int, target uint64) *svm.Assembler {
	return a.Push(target).Push(uint64(keySize)).Push(key).Push(uint64(view)).
		Op(svm.READ, svm.POP, svm.POP)
}

// write stores a word from memory under the key in the given memory region.
func write(a *svm.Assembler, key uint64, keySize int, value uint64) *svm.Assembler {
	return a.Push(wordSize).Push(value).Push(uint64(keySize)).Push(key).Op(svm.WRITE)
}

// changed pushes the number of modified keys with the given prefix.
func changed(a *svm.Assembler, prefix uint64, prefixSize int) *svm.Assembler {
	return a.Push(uint64(prefixSize)).Push(prefix).Op(svm.CHANGED)
}

func accountPredicate() veritas.Code {
	balanceKeySize := addressSize + len(balanceSuffix)
	nonceKeySize := addressSize + len(nonceSuffix)

	a := svm.NewAssembler().Entry(vp)
	selfKey(a, keyA, balanceSuffix)
	selfKey(a, keyB, nonceSuffix)

	// Modifications of other keys than the balance need an authorization.
	changed(a, keyA, addressSize)
	changed(a, keyA, balanceKeySize)
	a.Op(svm.EQ, svm.ISZERO).JumpIf("debit")

	// Credits are accepted without authorization.
	read(a, veritas.CurrentView, keyA, balanceKeySize, valueA)
	read(a, veritas.PreView, keyA, balanceKeySize, valueB)
	a.Push(valueB).Op(svm.MLOAD).Push(valueA).Op(svm.MLOAD, svm.LT).JumpIf("debit")
	a.Op(svm.ACCEPT)

	a.Label("debit")
	a.Push(keyA).Op(svm.AUTHORIZED, svm.ISZERO).JumpIf("reject")
	changed(a, keyB, nonceKeySize)
	a.Op(svm.ISZERO).JumpIf("accept")
	read(a, veritas.CurrentView, keyB, nonceKeySize, valueC)
	read(a, veritas.PreView, keyB, nonceKeySize, valueD)
	a.Push(1).Push(valueD).Op(svm.MLOAD, svm.ADD).Push(valueC).Op(svm.MLOAD, svm.EQ, svm.ISZERO).JumpIf("reject")

	a.Label("accept").Op(svm.ACCEPT)
	a.Label("reject").Op(svm.REJECT)
	return a.MustBuild()
}

func amountPredicate() veritas.Code {
	balanceKeySize := addressSize + len(balanceSuffix)
	nonceKeySize := addressSize + len(nonceSuffix)

	a := svm.NewAssembler().Entry(vp)
	selfKey(a, keyA, balanceSuffix)
	selfKey(a, keyB, nonceSuffix)
	read(a, veritas.CurrentView, keyA, balanceKeySize, valueA)
	read(a, veritas.PreView, keyA, balanceKeySize, valueB)

	changed(a, keyA, addressSize)
	changed(a, keyA, balanceKeySize)
	a.Op(svm.EQ, svm.ISZERO).JumpIf("debit")
	a.Push(valueB).Op(svm.MLOAD).Push(valueA).Op(svm.MLOAD, svm.LT).JumpIf("debit")
	a.Op(svm.ACCEPT)

	a.Label("debit")
	a.Push(keyA).Op(svm.AUTHORIZED, svm.ISZERO).JumpIf("reject")
	// pre - post == declared amount; a credit wraps around and mismatches.
	a.Push(valueA).Op(svm.MLOAD).Push(valueB).Op(svm.MLOAD, svm.SUB)
	a.Push(2*addressSize).Op(svm.INPUTLOAD, svm.EQ, svm.ISZERO).JumpIf("reject")
	changed(a, keyB, nonceKeySize)
	a.Op(svm.ISZERO).JumpIf("accept")
	read(a, veritas.CurrentView, keyB, nonceKeySize, valueC)
	read(a, veritas.PreView, keyB, nonceKeySize, valueD)
	a.Push(1).Push(valueD).Op(svm.MLOAD, svm.ADD).Push(valueC).Op(svm.MLOAD, svm.EQ, svm.ISZERO).JumpIf("reject")

	a.Label("accept").Op(svm.ACCEPT)
	a.Label("reject").Op(svm.REJECT)
	return a.MustBuild()
}

// move emits the transfer of the amount on top of the stack from the
// account whose balance key is in keyA to the one in keyB. It fails if the
// accounts are identical or the balance is insufficient.
func move(a *svm.Assembler) *svm.Assembler {
	balanceKeySize := addressSize + len(balanceSuffix)
	a.Push(keyB).Op(svm.MLOAD).Push(keyA).Op(svm.MLOAD, svm.EQ).JumpIf("fail")
	read(a, veritas.CurrentView, keyA, balanceKeySize, valueA)
	read(a, veritas.CurrentView, keyB, balanceKeySize, valueB)

	a.Op(svm.DUP1).Push(valueA).Op(svm.MLOAD, svm.LT).JumpIf("fail")
	a.Op(svm.DUP1).Push(valueA).Op(svm.MLOAD, svm.SUB).Push(valueA).Op(svm.MSTORE)
	a.Push(valueB).Op(svm.MLOAD, svm.ADD).Push(valueB).Op(svm.MSTORE)

	write(a, keyA, balanceKeySize, valueA)
	write(a, keyB, balanceKeySize, valueB)
	return a
}

func transfer() veritas.Code {
	nonceKeySize := addressSize + len(nonceSuffix)

	a := svm.NewAssembler().Entry(tx)
	loadKey(a, 0, keyA, balanceSuffix)
	loadKey(a, addressSize, keyB, balanceSuffix)
	loadKey(a, 0, keyC, nonceSuffix)

	a.Push(2 * addressSize).Op(svm.INPUTLOAD)
	move(a)

	read(a, veritas.CurrentView, keyC, nonceKeySize, valueC)
	a.Push(1).Push(valueC).Op(svm.MLOAD, svm.ADD).Push(valueC).Op(svm.MSTORE)
	write(a, keyC, nonceKeySize, valueC)
	a.Op(svm.STOP)

	a.Label("fail").Push(0).Push(0).Op(svm.REVERT)
	return a.MustBuild()
}

func sweep() veritas.Code {
	balanceKeySize := addressSize + len(balanceSuffix)

	a := svm.NewAssembler().Entry(tx)
	loadKey(a, 0, keyA, balanceSuffix)
	loadKey(a, addressSize, keyB, balanceSuffix)

	read(a, veritas.CurrentView, keyA, balanceKeySize, valueD)
	a.Push(valueD).Op(svm.MLOAD)
	move(a)
	a.Op(svm.STOP)

	a.Label("fail").Push(0).Push(0).Op(svm.REVERT)
	return a.MustBuild()
}

func revert() veritas.Code {
	balanceKeySize := addressSize + len(balanceSuffix)
	message := []byte("revert")

	a := svm.NewAssembler().Entry(tx)
	loadKey(a, 0, keyA, balanceSuffix)
	a.Push(1).Push(valueA).Op(svm.MSTORE)
	write(a, keyA, balanceKeySize, valueA)
	a.StoreBytes(valueB, message)
	a.Push(uint64(len(message))).Push(valueB).Op(svm.REVERT)
	return a.MustBuild()
}

func protocolWrite() veritas.Code {
	key := []byte(veritas.EpochKey())

	a := svm.NewAssembler().Entry(tx)
	a.StoreBytes(keyA, key)
	a.Push(1).Push(valueA).Op(svm.MSTORE)
	write(a, keyA, len(key), valueA)
	a.Op(svm.STOP)
	return a.MustBuild()
}
