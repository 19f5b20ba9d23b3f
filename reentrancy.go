package stm

import (
	"bytes"
	"runtime/debug"
	"strconv"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// Go has no context-free goroutine-local storage, so the nested-Atomically
// guard is keyed by goroutine id, parsed out of the first line of
// runtime/debug.Stack() — the usual trick reached for when a value needs to
// travel with a goroutine without being threaded through every call.
func goroutineID() uint64 {
	stack := debug.Stack()
	line, _, _ := bytes.Cut(stack, []byte("\n"))
	line = bytes.TrimPrefix(line, []byte("goroutine "))
	idField, _, _ := bytes.Cut(line, []byte(" "))
	id, err := strconv.ParseUint(string(idField), 10, 64)
	if err != nil {
		panic(pkgerrors.Wrap(err, "stm: could not determine goroutine id"))
	}
	return id
}

var (
	runningMu sync.Mutex
	running   = make(map[uint64]struct{})
)

// transactionGuard checks against nested STM calls on the same goroutine,
// mirroring the source's TRANSACTION_RUNNING thread-local plus Drop-based
// TransactionGuard.
type transactionGuard struct {
	goid uint64
}

func newTransactionGuard() *transactionGuard {
	id := goroutineID()

	runningMu.Lock()
	defer runningMu.Unlock()
	if _, nested := running[id]; nested {
		panic(errNestedTransaction)
	}
	running[id] = struct{}{}

	return &transactionGuard{goid: id}
}

func (g *transactionGuard) release() {
	runningMu.Lock()
	delete(running, g.goid)
	runningMu.Unlock()
}
