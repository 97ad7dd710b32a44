// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ledger implements the dual-phase processing of transactions. A
// transaction module proposes modifications recorded in a write-log; the
// validity predicates of all touched addresses must then accept the
// resulting state before it is committed.
package ledger

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"sync"

	"github.com/Fantom-foundation/Veritas/go/programs"
	"github.com/Fantom-foundation/Veritas/go/storage"
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/sirupsen/logrus"
)

// DefaultInterpreter is the name of the interpreter used if none is
// configured.
const DefaultInterpreter = "svm"

type Config struct {
	// Interpreter runs transaction modules and predicates. If nil, the
	// DefaultInterpreter is obtained from the interpreter registry.
	Interpreter veritas.Interpreter
	// Fallback selects the handling of addresses without bound predicate.
	Fallback FallbackPolicy
	// DefaultPredicate is evaluated by the FallbackDefaultPredicate policy.
	// It defaults to programs.AccountPredicate.
	DefaultPredicate veritas.Code
	// Snapshot, if set, is imported into the storage on creation.
	Snapshot io.Reader
	Logger   *logrus.Logger
}

// Receipt summarizes the processing of a single transaction.
type Receipt struct {
	Status      TxStatus
	Accepted    bool
	TouchedKeys []veritas.Key
	GasUsed     veritas.Gas
	// Failure is the reason of a rejection: ErrOutOfGas, a *TrapError, a
	// *RejectedError or a *MissingModuleError, possibly wrapped.
	Failure     error
	Predicates  []PredicateResult
	Events      []veritas.Data // only set for committed transactions
	Transitions []TxStatus
}

// Ledger owns a committed storage and processes transactions against it,
// one at a time.
type Ledger struct {
	storage  veritas.Storage
	executor executor
	verifier verifier
	log      *logrus.Logger
	counter  uint64
	closed   bool
	mutex    sync.Mutex
}

// New creates a ledger on top of the given storage. The ledger takes
// ownership of the storage and closes it on Close.
func New(store veritas.Storage, config Config) (*Ledger, error) {
	interpreter := config.Interpreter
	if interpreter == nil {
		var err error
		interpreter, err = veritas.NewInterpreter(DefaultInterpreter)
		if err != nil {
			return nil, fmt.Errorf("failed to create interpreter: %w", err)
		}
	}
	predicate := config.DefaultPredicate
	if predicate == nil {
		predicate = programs.AccountPredicate
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if config.Snapshot != nil {
		if err := storage.ImportSnapshotJSON(config.Snapshot, store); err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	}
	return &Ledger{
		storage:  store,
		executor: executor{interpreter: interpreter},
		verifier: verifier{
			interpreter:      interpreter,
			fallback:         config.Fallback,
			defaultPredicate: predicate,
		},
		log: logger,
	}, nil
}

// Submit processes the given transaction. Rejections are reported through
// the receipt; the error result is only set for infrastructure failures,
// in which case the committed state is left unchanged.
func (l *Ledger) Submit(tx veritas.Transaction) (Receipt, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return Receipt{}, ErrClosed
	}
	l.counter++
	log := l.log.WithField("tx", l.counter)

	state := newTxState()
	meter := veritas.NewGasMeter(tx.GasLimit)
	writeLog := NewWriteLog(l.storage)
	auth, err := newAuthorizer(tx, l.storage)
	if err != nil {
		return Receipt{}, err
	}

	finish := func(receipt Receipt) Receipt {
		receipt.Status = state.current()
		receipt.Accepted = receipt.Status == Committed
		receipt.GasUsed = meter.Consumed()
		receipt.Transitions = append([]TxStatus{}, state.history...)
		fields := logrus.Fields{"status": receipt.Status, "gas": receipt.GasUsed}
		if receipt.Failure != nil {
			fields["failure"] = receipt.Failure
		}
		log.WithFields(fields).Debug("transaction processed")
		return receipt
	}

	state.transition(Executing)
	log.WithField("status", Executing).Debug("transaction submitted")
	host := &txHost{log: writeLog, auth: auth}
	failure, err := l.executor.execute(tx, host, meter)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to execute transaction: %w", err)
	}
	touched := writeLog.TouchedKeys()
	if failure != nil {
		writeLog.Rollback()
		state.transition(Rejected)
		return finish(Receipt{TouchedKeys: touched, Failure: failure}), nil
	}

	state.transition(Verifying)
	log.WithFields(logrus.Fields{"status": Verifying, "touched": len(touched)}).Debug("transaction executed")
	results, failure, err := l.verifier.verify(tx, &predicateHost{txHost: *host}, meter)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to verify transaction: %w", err)
	}
	if failure != nil {
		writeLog.Rollback()
		state.transition(Rejected)
		return finish(Receipt{TouchedKeys: touched, Failure: failure, Predicates: results}), nil
	}

	if err := writeLog.Commit(); err != nil {
		return Receipt{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	state.transition(Committed)
	return finish(Receipt{TouchedKeys: touched, Predicates: results, Events: host.events}), nil
}

// InitAccount registers the public key and the validity predicate of the
// given address. A nil predicate leaves the address without binding. An
// existing balance of the address is retained.
func (l *Ledger) InitAccount(addr veritas.Address, key ed25519.PublicKey, predicate veritas.Code) error {
	return l.protocolUpdate("init-account", func(log *WriteLog) error {
		initialized, err := log.Has(veritas.PublicKeyKey(addr))
		if err != nil {
			return err
		}
		if initialized {
			return fmt.Errorf("%w: %v", ErrAccountExists, addr)
		}
		log.Write(veritas.PublicKeyKey(addr), veritas.Value(key))
		if predicate != nil {
			id := veritas.ContentIDOf(predicate)
			log.Write(veritas.ModuleKey(id), veritas.Value(predicate))
			log.Write(veritas.PredicateKey(addr), veritas.Value(id[:]))
		}
		for _, counter := range []veritas.Key{veritas.BalanceKey(addr), veritas.NonceKey(addr)} {
			found, err := log.Has(counter)
			if err != nil {
				return err
			}
			if !found {
				log.Write(counter, veritas.NewAmount(0).Value())
			}
		}
		return nil
	})
}

// Fund credits the given amount to the balance of the address.
func (l *Ledger) Fund(addr veritas.Address, amount veritas.Amount) error {
	return l.protocolUpdate("fund", func(log *WriteLog) error {
		balance, err := readAmount(log.Read, veritas.BalanceKey(addr))
		if err != nil {
			return err
		}
		log.Write(veritas.BalanceKey(addr), veritas.AddAmounts(balance, amount).Value())
		return nil
	})
}

// AdvanceEpoch increments the epoch counter of the ledger.
func (l *Ledger) AdvanceEpoch() error {
	return l.protocolUpdate("advance-epoch", func(log *WriteLog) error {
		epoch, err := readAmount(log.Read, veritas.EpochKey())
		if err != nil {
			return err
		}
		log.Write(veritas.EpochKey(), veritas.AddAmounts(epoch, veritas.NewAmount(1)).Value())
		return nil
	})
}

// protocolUpdate applies modifications performed with protocol authority.
// They bypass validity predicates but use the same commit path as
// transactions.
func (l *Ledger) protocolUpdate(name string, update func(*WriteLog) error) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return ErrClosed
	}
	log := NewWriteLog(l.storage)
	if err := update(log); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	l.log.WithFields(logrus.Fields{"op": name, "touched": log.Len()}).Debug("protocol update")
	return log.Commit()
}

func readAmount(read func(veritas.Key) (veritas.Value, bool, error), key veritas.Key) (veritas.Amount, error) {
	value, _, err := read(key)
	if err != nil {
		return veritas.Amount{}, err
	}
	return veritas.AmountFromValue(value), nil
}

// Balance returns the committed balance of the given address.
func (l *Ledger) Balance(addr veritas.Address) (veritas.Amount, error) {
	return readAmount(l.storage.Get, veritas.BalanceKey(addr))
}

// Nonce returns the committed nonce of the given address.
func (l *Ledger) Nonce(addr veritas.Address) (uint64, error) {
	nonce, err := readAmount(l.storage.Get, veritas.NonceKey(addr))
	return nonce.Uint64(), err
}

// Epoch returns the committed epoch counter.
func (l *Ledger) Epoch() (uint64, error) {
	epoch, err := readAmount(l.storage.Get, veritas.EpochKey())
	return epoch.Uint64(), err
}

// Snapshot lists all committed entries in key order.
func (l *Ledger) Snapshot() ([]storage.SnapshotEntry, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return storage.Entries(l.storage)
}

// ExportSnapshot writes all committed entries as JSON to the given writer.
// The result can be loaded through Config.Snapshot.
func (l *Ledger) ExportSnapshot(out io.Writer) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return storage.ExportSnapshotJSON(l.storage, out)
}

// Close releases the underlying storage. Closing a closed ledger is a no-op.
func (l *Ledger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.storage.Close()
}
