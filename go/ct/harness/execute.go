// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package harness

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/ct/model"
	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/Fantom-foundation/Veritas/go/programs"
	"github.com/Fantom-foundation/Veritas/go/storage"
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Executor runs action sequences against a fresh ledger and the reference
// model in lock step.
type Executor struct {
	interpreter veritas.Interpreter
	backend     string
	fallback    ledger.FallbackPolicy
	log         *logrus.Logger
}

// NewExecutor creates an executor using the interpreter, storage backend,
// and fallback policy of the given configuration.
func NewExecutor(config Config) (*Executor, error) {
	config = config.withDefaults()
	interpreter, err := veritas.NewInterpreter(config.Interpreter)
	if err != nil {
		return nil, err
	}
	if config.Decorate != nil {
		interpreter = config.Decorate(interpreter)
	}
	if !slices.Contains(storage.Backends(), config.Backend) {
		return nil, fmt.Errorf("unknown storage backend %q, use one of %v", config.Backend, storage.Backends())
	}
	return &Executor{
		interpreter: WithTimeout(interpreter, config.Timeout),
		backend:     config.Backend,
		fallback:    config.Fallback,
		log:         config.Logger,
	}, nil
}

// Execute applies the given actions to a fresh ledger and a fresh model.
// After every action, the outcome and the resulting state are compared. The
// result is nil, a *DivergenceError, a *PreconditionError, or an
// *InfrastructureError.
func (e *Executor) Execute(actions []st.Action) error {
	store, err := storage.New(e.backend, "", true)
	if err != nil {
		return &InfrastructureError{Step: -1, Err: err}
	}
	l, err := ledger.New(store, ledger.Config{
		Interpreter: e.interpreter,
		Fallback:    e.fallback,
		Logger:      e.log,
	})
	if err != nil {
		store.Close()
		return &InfrastructureError{Step: -1, Err: err}
	}
	defer l.Close()

	m := model.New(e.fallback)
	for i, action := range actions {
		if err := m.Precondition(action); err != nil {
			return &PreconditionError{Step: i, Err: err}
		}
		if err := e.step(l, m, i, action); err != nil {
			return err
		}
		if err := compare(l, m, i, action); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) step(l *ledger.Ledger, m *model.Model, i int, action st.Action) error {
	infrastructure := func(err error) error {
		if err == nil {
			return nil
		}
		return &InfrastructureError{Step: i, Err: err}
	}
	switch action.Kind {
	case st.InitAccount:
		m.InitAccount(action.Account)
		return infrastructure(l.InitAccount(action.Account, st.PublicKeyOf(action.Account), programs.AccountPredicate))
	case st.Fund:
		m.Fund(action.Account, action.Amount)
		return infrastructure(l.Fund(action.Account, veritas.NewAmount(action.Amount)))
	case st.AdvanceEpoch:
		m.AdvanceEpoch()
		return infrastructure(l.AdvanceEpoch())
	case st.Submit:
		tx, err := st.BuildTransaction(*action.Tx)
		if err != nil {
			return infrastructure(err)
		}
		receipt, err := l.Submit(tx)
		if err != nil {
			return infrastructure(err)
		}
		observed := model.Observation{Outcome: Classify(receipt), GasUsed: receipt.GasUsed}
		e.log.WithFields(logrus.Fields{
			"step":    i,
			"action":  action,
			"outcome": observed.Outcome,
			"gas":     observed.GasUsed,
		}).Trace("submitted")
		if err := m.Submit(*action.Tx, observed); err != nil {
			return &DivergenceError{
				Step:     i,
				Action:   action,
				Expected: m.Expect(*action.Tx).String(),
				Actual:   observed.String(),
				Details:  receiptDetails(receipt),
			}
		}
		return nil
	}
	return infrastructure(fmt.Errorf("unsupported action %v", action.Kind))
}

// Classify maps a receipt to the outcome vocabulary of the reference model.
func Classify(receipt ledger.Receipt) model.Outcome {
	if receipt.Accepted {
		return model.Accepted
	}
	var rejected *ledger.RejectedError
	var missing *ledger.MissingModuleError
	switch {
	case errors.Is(receipt.Failure, veritas.ErrOutOfGas):
		return model.OutOfGas
	case errors.As(receipt.Failure, &missing):
		return model.MissingModule
	case errors.As(receipt.Failure, &rejected):
		return model.Rejected
	}
	return model.Trapped
}

func receiptDetails(receipt ledger.Receipt) []string {
	res := []string{fmt.Sprintf("status: %v", receipt.Status)}
	if receipt.Failure != nil {
		res = append(res, fmt.Sprintf("failure: %v", receipt.Failure))
	}
	for _, predicate := range receipt.Predicates {
		res = append(res, fmt.Sprintf("predicate of %v: accepted=%t, gas=%d", predicate.Address, predicate.Accepted, predicate.GasUsed))
	}
	return res
}

// Project computes the projection of the ledger's committed state on the
// given addresses.
func Project(l *ledger.Ledger, addrs []veritas.Address) (model.Projection, error) {
	epoch, err := l.Epoch()
	if err != nil {
		return model.Projection{}, err
	}
	res := model.Projection{
		Balances: map[veritas.Address]uint64{},
		Nonces:   map[veritas.Address]uint64{},
		Epoch:    epoch,
	}
	for _, addr := range addrs {
		balance, err := l.Balance(addr)
		if err != nil {
			return model.Projection{}, err
		}
		nonce, err := l.Nonce(addr)
		if err != nil {
			return model.Projection{}, err
		}
		res.Balances[addr] = balance.Uint64()
		res.Nonces[addr] = nonce
	}
	return res, nil
}

func compare(l *ledger.Ledger, m *model.Model, i int, action st.Action) error {
	actual, err := Project(l, st.Accounts)
	if err != nil {
		return &InfrastructureError{Step: i, Err: err}
	}
	if diff := m.Project(st.Accounts).Diff(actual); len(diff) > 0 {
		return &DivergenceError{
			Step:     i,
			Action:   action,
			Expected: "model state",
			Actual:   "different ledger state",
			Details:  diff,
		}
	}
	return nil
}
