// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kv provides the transaction scope that planning sessions are bound
// to. Only the identity and lifetime of a transaction are modeled here.
package kv

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrTxnFinished is returned when a finished transaction is finished again.
var ErrTxnFinished = errors.New("transaction already finished")

// TxnStatus is the lifetime state of a transaction.
type TxnStatus int

const (
	// Pending is the status of a transaction that has not finished yet.
	Pending TxnStatus = iota
	// Committed is the status of a transaction that committed.
	Committed
	// Aborted is the status of a transaction that rolled back.
	Aborted
)

func (s TxnStatus) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	}
	return fmt.Sprintf("TxnStatus(%d)", int(s))
}

// SafeValue implements the redact.SafeValue interface.
func (TxnStatus) SafeValue() {}

// Txn is an in-progress transaction. A Txn is safe for concurrent use by
// multiple goroutines.
type Txn struct {
	// mu holds fields that need to be synchronized for concurrent access.
	mu struct {
		sync.Mutex
		ID        uuid.UUID
		debugName string
		status    TxnStatus
	}
}

// NewTxn returns a new pending transaction with a fresh random ID.
func NewTxn(debugName string) *Txn {
	txn := &Txn{}
	txn.mu.ID = uuid.New()
	txn.mu.debugName = debugName
	return txn
}

// ID returns the ID of the transaction.
func (txn *Txn) ID() uuid.UUID {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	return txn.mu.ID
}

// ShortID returns the first eight hex digits of the transaction ID, which is
// how the transaction is identified in log tags.
func (txn *Txn) ShortID() string {
	return txn.ID().String()[:8]
}

// SetDebugName sets the debug name associated with the transaction.
func (txn *Txn) SetDebugName(name string) {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	txn.mu.debugName = name
}

// DebugName returns the debug name associated with the transaction.
func (txn *Txn) DebugName() string {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	return fmt.Sprintf("%s (id: %s)", txn.mu.debugName, txn.mu.ID)
}

// Status returns the lifetime state of the transaction.
func (txn *Txn) Status() TxnStatus {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	return txn.mu.status
}

// IsOpen returns true if the transaction has not finished.
func (txn *Txn) IsOpen() bool {
	return txn.Status() == Pending
}

// Commit finishes the transaction successfully.
func (txn *Txn) Commit() error {
	return txn.finish(Committed)
}

// Rollback finishes the transaction, discarding its effects.
func (txn *Txn) Rollback() error {
	return txn.finish(Aborted)
}

func (txn *Txn) finish(status TxnStatus) error {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	if txn.mu.status != Pending {
		return errors.Wrapf(ErrTxnFinished, "txn %s is %s", txn.mu.ID, txn.mu.status)
	}
	txn.mu.status = status
	return nil
}
