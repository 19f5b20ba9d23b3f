package stm

import (
	"sync"
	"time"
)

// roundToken is a single-use, one-value channel threaded through the
// commit chain. Holding the received value authorizes committing; sending
// it on releases the successor.
type roundToken chan struct{}

// roundAssignment is what the coordinator hands a participant at the start
// of each round: where to wait for the predecessor's token, and where to
// release it for the successor.
type roundAssignment struct {
	predecessor roundToken
	successor   roundToken
}

type doneSignal int

const (
	doneCompleted doneSignal = iota
	doneRetry
)

// DTMHandle is a single-use participant handle returned by DTM.Register.
// Pass it to DetAtomically; each handle may only drive one transaction.
type DTMHandle struct {
	coordCh chan roundAssignment
	doneCh  chan doneSignal
}

// DTM (deterministic transactional memory) coordinates a fixed set of
// transactions so their commits land in registration order, regardless of
// scheduling. Register participants before calling Freeze; after Freeze no
// further registration is allowed.
type DTM struct {
	mu      sync.Mutex
	frozen  bool
	handles []*DTMHandle
}

// NewDTM returns a fresh, unfrozen coordinator.
func NewDTM() *DTM {
	return &DTM{}
}

// Register appends a new participant slot and returns its handle.
// Registration order is commit order. Panics if the DTM is already frozen.
func (d *DTM) Register() *DTMHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frozen {
		panic(errDTMAlreadyFrozen)
	}
	h := &DTMHandle{
		coordCh: make(chan roundAssignment),
		doneCh:  make(chan doneSignal),
	}
	d.handles = append(d.handles, h)
	return h
}

// Freeze transfers the coordinator role to the calling goroutine and blocks
// it, running the round loop, until every registered participant has
// committed. It may be called before or after the participant goroutines
// are spawned — they simply block on their coordination channel until
// Freeze's first dispatch.
func Freeze(d *DTM) {
	d.mu.Lock()
	if d.frozen {
		d.mu.Unlock()
		panic(errDTMAlreadyFrozen)
	}
	d.frozen = true
	active := append([]*DTMHandle(nil), d.handles...)
	d.mu.Unlock()

	log := current().logger
	metrics := current().metrics

	seed := make(roundToken, 1)
	seed <- struct{}{}
	token := seed

	for round := 0; len(active) > 0; round++ {
		start := time.Now()
		log.WithField("round", round).WithField("active", len(active)).Debug("stm: dtm round starting")

		chain := make([]roundToken, len(active)+1)
		chain[0] = token
		for i := 1; i < len(chain); i++ {
			chain[i] = make(roundToken, 1)
		}

		for i, h := range active {
			h.coordCh <- roundAssignment{predecessor: chain[i], successor: chain[i+1]}
		}

		var retrying []*DTMHandle
		for _, h := range active {
			if <-h.doneCh == doneRetry {
				retrying = append(retrying, h)
			}
		}

		token = chain[len(chain)-1]
		active = retrying
		metrics.dtmRoundSeconds.Observe(time.Since(start).Seconds())
	}
}

// DetAtomically runs body under the deterministic protocol against h. Each
// round, it runs body speculatively, then waits for the predecessor's
// token before attempting commit — serializing the commit point across
// participants — and releases the token to its successor regardless of
// outcome, so a retry never stalls the round. On retry it blocks at the
// top of the loop until the coordinator starts the next round.
func DetAtomically[T any](h *DTMHandle, body func(tx *Transaction) (T, error)) T {
	guard := newTransactionGuard()
	defer guard.release()

	log := current().logger
	metrics := current().metrics

	tx := newTransaction()
	for {
		assignment := <-h.coordCh
		value, err := body(tx)

		<-assignment.predecessor

		if err == nil && tx.commit() {
			assignment.successor <- struct{}{}
			h.doneCh <- doneCompleted
			metrics.commits.Inc()
			log.Debug("stm: deterministic transaction committed")
			return value
		}

		assignment.successor <- struct{}{}
		metrics.retries.Inc()
		log.Debug("stm: deterministic transaction retrying")
		tx.clear()
		h.doneCh <- doneRetry
	}
}
