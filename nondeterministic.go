package stm

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Atomically runs body repeatedly against a fresh transaction log until a
// commit succeeds, and returns the committed value. It panics if called
// while another transaction is already running on this goroutine.
func Atomically[T any](body func(tx *Transaction) (T, error)) T {
	result, _ := AtomicallyWithControl(alwaysRetry, body)
	return result
}

func alwaysRetry(error) TransactionControl { return ControlRetry }

// AtomicallyWithControl is Atomically with an extra hook: whenever body
// fails (with ErrRetry, ErrFailure, or anything else), control is consulted
// before the driver retries; for ErrRetry and ErrFailure the driver blocks
// before retrying, for any other error it reruns body at once. Returning
// ControlAbort ends the
// loop immediately, returning the zero value and ok=false, instead of
// waiting for a TVar to change. This is how an external timeout, signaled
// through a TVar a control function watches, can bound an otherwise
// unbounded retry.
func AtomicallyWithControl[T any](control func(error) TransactionControl, body func(tx *Transaction) (T, error)) (result T, ok bool) {
	guard := newTransactionGuard()
	defer guard.release()

	log := current().logger
	metrics := current().metrics

	tx := newTransaction()
	for {
		value, err := body(tx)
		if err == nil {
			if tx.commit() {
				metrics.commits.Inc()
				log.WithField("vars", len(tx.vars)).Debug("stm: transaction committed")
				return value, true
			}
			metrics.retries.Inc()
			log.Debug("stm: commit validation failed, retrying")
			tx.clear()
			continue
		}

		if control(err) == ControlAbort {
			log.WithError(err).Debug("stm: control function aborted transaction")
			var zero T
			return zero, false
		}

		metrics.retries.Inc()
		if errors.Is(err, ErrRetry) || errors.Is(err, ErrFailure) {
			blockUntilChanged(tx, log, metrics)
		}
		tx.clear()
	}
}

// blockUntilChanged parks the calling goroutine until some TVar observed by
// tx (including obsolete reads left over from an Or) changes, per the
// package's retry contract: register on every read variable's wait-list
// before re-checking for a lost wake, so a concurrent commit can never slip
// between the check and the park.
func blockUntilChanged(tx *Transaction, log *logrus.Logger, metrics *metricsSet) {
	w := newWaiter()

	var registered []*controlBlock
	for _, rec := range tx.vars {
		if !rec.entry.hasReadSnapshot() {
			continue
		}
		rec.cb.registerWaiter(w)
		registered = append(registered, rec.cb)
	}

	metrics.activeWaiters.Inc()
	defer metrics.activeWaiters.Dec()

	changed := false
	for _, rec := range tx.vars {
		if !rec.entry.hasReadSnapshot() {
			continue
		}
		if rec.cb.snapshot() != rec.entry.read {
			changed = true
			break
		}
	}

	if !changed {
		log.Debug("stm: blocking for a TVar to change")
		<-w.ch
		log.Debug("stm: woken by a TVar change")
	}

	for _, cb := range registered {
		cb.unregisterWaiter(w)
	}
}
