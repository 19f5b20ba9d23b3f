package stm

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrRetry signals that a transaction body wants to abandon the current
// attempt and block until one of the TVars it read changes. A commit-time
// validation failure does not produce ErrRetry: the driver reruns the body
// directly, without blocking.
var ErrRetry = errors.New("stm: retry")

// ErrFailure marks an attempt as failed in a way Or does not recover from:
// Or passes it through instead of running its second branch, and returns it
// when its second branch does. When both branches of an Or retry, Or
// returns ErrRetry, not ErrFailure; the package's own operations never
// return ErrFailure. A Failure that reaches the top-level driver is treated
// the same as a Retry: the driver blocks rather than panicking.
var ErrFailure = errors.New("stm: failure")

// TransactionControl is returned by a control function passed to
// AtomicallyWithControl to decide what happens after a transaction body
// fails with Retry or Failure.
type TransactionControl int

const (
	// ControlRetry re-runs the transaction, blocking first if nothing in
	// the log has changed yet.
	ControlRetry TransactionControl = iota
	// ControlAbort ends the retry loop immediately and returns the zero
	// value with ok=false.
	ControlAbort
)

// Fatal, programmer-error conditions. These are never caught by the
// runtime; they panic with these pkg/errors values. Because the values are
// created once at package initialization, the stack trace they carry is
// the one recorded then, not the one at the point of misuse.
var (
	errNestedTransaction = pkgerrors.New("stm: Atomically called while a transaction is already running on this goroutine")
	errDTMAlreadyFrozen  = pkgerrors.New("stm: DTM already frozen")
)
