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
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/veritas"
)

const (
	ErrAccountExists = veritas.ConstError("account already initialized")
	ErrClosed        = veritas.ConstError("ledger closed")
)

// RejectedError reports a validity predicate that did not accept a
// transaction.
type RejectedError struct {
	Address veritas.Address
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected by predicate of %v", e.Address)
}

// MissingModuleError reports a touched address without a bound validity
// predicate under the FallbackReject policy.
type MissingModuleError struct {
	Address veritas.Address
}

func (e *MissingModuleError) Error() string {
	return fmt.Sprintf("no predicate bound to %v", e.Address)
}
