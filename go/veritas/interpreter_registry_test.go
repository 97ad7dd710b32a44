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
	"slices"
	"testing"
)

func TestInterpreterRegistry_RegisteredFactoriesCanBeRetrieved(t *testing.T) {
	const name = "registry-test-Interpreter"
	factory := func(any) (Interpreter, error) { return nil, nil }
	if err := RegisterInterpreterFactory(name, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if GetInterpreterFactory("REGISTRY-TEST-INTERPRETER") == nil {
		t.Errorf("lookup should be case insensitive")
	}
	if !slices.Contains(GetRegisteredInterpreterNames(), "registry-test-interpreter") {
		t.Errorf("registered name missing in %v", GetRegisteredInterpreterNames())
	}
}

func TestInterpreterRegistry_MultipleRegistrationsAreRejected(t *testing.T) {
	const name = "registry-test-duplicate"
	factory := func(any) (Interpreter, error) { return nil, nil }
	if err := RegisterInterpreterFactory(name, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RegisterInterpreterFactory(name, factory); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestInterpreterRegistry_NilFactoriesAreRejected(t *testing.T) {
	if err := RegisterInterpreterFactory("something", nil); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestInterpreterRegistry_UnknownInterpreterIsAnError(t *testing.T) {
	if _, err := NewInterpreter("unknown-interpreter"); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if _, err := NewInterpreter("unknown-interpreter", 1, 2); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
