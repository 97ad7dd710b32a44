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

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Address identifies a region of the ledger's storage. Each address owns at
// most one validity predicate.
type Address [20]byte

// ProtocolAddress namespaces state maintained by the ledger itself, like the
// epoch counter and the module store.
var ProtocolAddress = Address{}

// Value is an opaque storage value. The absence of a value is reported
// separately by all lookup functions; an empty value is a present value.
type Value []byte

// Data represents the input or output of module invocations.
type Data []byte

// Code is the byte representation of a sandboxed module.
type Code []byte

// Gas represents the type used to represent Gas values.
type Gas int64

// ContentID is the content based identifier of a module.
type ContentID [32]byte

// Amount is a 256-bit unsigned quantity stored in big-endian byte order.
type Amount [32]byte

func (a Address) String() string {
	return fmt.Sprintf("0x%x", a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return bytesToText(a[:])
}

func (a *Address) UnmarshalText(data []byte) error {
	return textToBytes(a[:], data)
}

func (a Address) Cmp(b Address) int {
	return bytes.Compare(a[:], b[:])
}

func (id ContentID) String() string {
	return fmt.Sprintf("0x%x", id[:])
}

func (id ContentID) MarshalText() ([]byte, error) {
	return bytesToText(id[:])
}

func (id *ContentID) UnmarshalText(data []byte) error {
	return textToBytes(id[:], data)
}

// ContentIDOf computes the content identifier of the given module code.
func ContentIDOf(code Code) ContentID {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(code)
	var res ContentID
	hasher.Sum(res[:0])
	return res
}

// NewAmount creates an amount from a 64-bit value.
func NewAmount(value uint64) Amount {
	return AmountFromUint256(uint256.NewInt(value))
}

// AmountFromUint256 converts a *uint256.Int to an Amount. A nil input results
// in a zero amount.
func AmountFromUint256(value *uint256.Int) Amount {
	if value == nil {
		return Amount{}
	}
	return value.Bytes32()
}

// AmountFromValue interprets a storage value as an amount. Missing or short
// values are left padded with zeros; values longer than 32 bytes are
// truncated to their trailing 32 bytes.
func AmountFromValue(value Value) Amount {
	var res Amount
	if len(value) > len(res) {
		value = value[len(value)-len(res):]
	}
	copy(res[len(res)-len(value):], value)
	return res
}

func (a Amount) ToUint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(a[:])
}

func (a Amount) Uint64() uint64 {
	return a.ToUint256().Uint64()
}

func (a Amount) Cmp(o Amount) int {
	return bytes.Compare(a[:], o[:])
}

// Value returns the storage encoding of the amount.
func (a Amount) Value() Value {
	return Value(bytes.Clone(a[:]))
}

func (a Amount) String() string {
	return a.ToUint256().Dec()
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(data []byte) error {
	v, err := uint256.FromDecimal(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", data, err)
	}
	*a = v.Bytes32()
	return nil
}

// AddAmounts returns a+b modulo 2^256.
func AddAmounts(a, b Amount) Amount {
	return AmountFromUint256(new(uint256.Int).Add(a.ToUint256(), b.ToUint256()))
}

// SubAmounts returns a-b modulo 2^256.
func SubAmounts(a, b Amount) Amount {
	return AmountFromUint256(new(uint256.Int).Sub(a.ToUint256(), b.ToUint256()))
}

func bytesToText(data []byte) ([]byte, error) {
	return []byte(fmt.Sprintf("0x%x", data)), nil
}

func textToBytes(trg []byte, data []byte) error {
	s := string(data)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("invalid format, does not start with 0x: %v", s)
	}
	decoded, err := hex.DecodeString(s[2:])
	if err != nil {
		return err
	}
	if len(decoded) != len(trg) {
		return fmt.Errorf("invalid length, wanted %d bytes, got %d", len(trg), len(decoded))
	}
	copy(trg, decoded)
	return nil
}
