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
	"fmt"
	"strings"
)

// Key addresses a single storage cell. A key is the 20 bytes of its owning
// address followed by a path of zero or more segments, each starting with a
// '/' separator. Keys are ordered by their byte representation, which groups
// all keys of an address and yields a total order for iteration.
type Key string

const (
	keySeparator = '/'

	// Well-known segments of account state.
	BalanceSegment   = "balance"
	NonceSegment     = "nonce"
	PublicKeySegment = "public_key"
	PredicateSegment = "vp"

	// Well-known segments of protocol state.
	EpochSegment  = "epoch"
	ModuleSegment = "module"
)

// NewKey creates the key of the given address and path segments. Segments
// must not contain the '/' separator.
func NewKey(addr Address, segments ...string) Key {
	var b strings.Builder
	b.Grow(len(addr) + 16)
	b.Write(addr[:])
	for _, segment := range segments {
		b.WriteByte(keySeparator)
		b.WriteString(segment)
	}
	return Key(b.String())
}

// AddressPrefix returns the key prefix shared by all keys of the given address.
func AddressPrefix(addr Address) Key {
	return Key(addr[:])
}

// Validate checks that the key is composed of an address and a well formed
// segment path.
func (k Key) Validate() error {
	if len(k) < len(Address{}) {
		return fmt.Errorf("key too short: %d bytes", len(k))
	}
	path := k[len(Address{}):]
	if len(path) == 0 {
		return nil
	}
	if path[0] != keySeparator {
		return fmt.Errorf("key path must start with '/'")
	}
	for _, segment := range strings.Split(string(path[1:]), string(keySeparator)) {
		if len(segment) == 0 {
			return fmt.Errorf("key contains empty segment")
		}
	}
	return nil
}

// Address derives the owning address of the key from its namespace prefix.
// The result is undefined for keys failing Validate.
func (k Key) Address() Address {
	var res Address
	copy(res[:], k)
	return res
}

// Segments returns the path segments of the key.
func (k Key) Segments() []string {
	if len(k) <= len(Address{}) {
		return nil
	}
	return strings.Split(string(k[len(Address{})+1:]), string(keySeparator))
}

// HasPrefix reports whether the key starts with the given prefix.
func (k Key) HasPrefix(prefix Key) bool {
	return strings.HasPrefix(string(k), string(prefix))
}

func (k Key) String() string {
	if len(k) < len(Address{}) {
		return fmt.Sprintf("0x%x", string(k))
	}
	path := string(k[len(Address{}):])
	return fmt.Sprintf("#%v%s", k.Address(), path)
}

func (k Key) MarshalText() ([]byte, error) {
	return bytesToText([]byte(k))
}

func (k *Key) UnmarshalText(data []byte) error {
	s := string(data)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("invalid format, does not start with 0x: %v", s)
	}
	buffer := make([]byte, (len(s)-2)/2)
	if err := textToBytes(buffer, data); err != nil {
		return err
	}
	*k = Key(buffer)
	return nil
}

// BalanceKey returns the key of the balance of the given account.
func BalanceKey(addr Address) Key {
	return NewKey(addr, BalanceSegment)
}

// NonceKey returns the key of the nonce of the given account.
func NonceKey(addr Address) Key {
	return NewKey(addr, NonceSegment)
}

// PublicKeyKey returns the key holding the public key of the given account.
func PublicKeyKey(addr Address) Key {
	return NewKey(addr, PublicKeySegment)
}

// PredicateKey returns the key binding a validity predicate to the address.
func PredicateKey(addr Address) Key {
	return NewKey(addr, PredicateSegment)
}

// ModuleKey returns the key under which the module with the given content id
// is stored.
func ModuleKey(id ContentID) Key {
	return NewKey(ProtocolAddress, ModuleSegment, fmt.Sprintf("%x", id[:]))
}

// EpochKey returns the key of the ledger's epoch counter.
func EpochKey() Key {
	return NewKey(ProtocolAddress, EpochSegment)
}
