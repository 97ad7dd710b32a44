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

import "fmt"

// GasMeter is a monotonic cost accumulator shared by all phases of a single
// transaction. Its invariant is 0 <= consumed <= limit. A charge exceeding the
// remaining budget exhausts the meter, setting consumed to limit, and fails
// with ErrOutOfGas.
//
// A GasMeter is not thread-safe.
type GasMeter struct {
	consumed Gas
	limit    Gas
}

// NewGasMeter creates a meter with the given limit. Negative limits are
// treated as zero.
func NewGasMeter(limit Gas) *GasMeter {
	if limit < 0 {
		limit = 0
	}
	return &GasMeter{limit: limit}
}

// Charge consumes the given amount of gas. Negative amounts are rejected
// with an out-of-gas error since they could be used to undo earlier charges.
func (m *GasMeter) Charge(amount Gas) error {
	if amount < 0 || amount > m.limit-m.consumed {
		m.consumed = m.limit
		return ErrOutOfGas
	}
	m.consumed += amount
	return nil
}

// Consumed returns the gas charged so far.
func (m *GasMeter) Consumed() Gas {
	return m.consumed
}

func (m *GasMeter) Limit() Gas {
	return m.limit
}

// Remaining returns the gas that can still be charged.
func (m *GasMeter) Remaining() Gas {
	return m.limit - m.consumed
}

// Exhausted reports whether no more gas can be charged.
func (m *GasMeter) Exhausted() bool {
	return m.consumed == m.limit
}

func (m *GasMeter) String() string {
	return fmt.Sprintf("%d/%d", m.consumed, m.limit)
}
