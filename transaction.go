package stm

import (
	"errors"
	"sort"

	pkgerrors "github.com/pkg/errors"
)

// logRecord pairs a control block with its log entry. Transaction keys its
// log by control-block id so that commit can lock variables in a fixed
// global order, making deadlock among concurrent committers impossible.
type logRecord struct {
	cb    *controlBlock
	entry logEntry
}

// Transaction is the per-attempt read/write log. A Transaction is
// goroutine-confined: exactly one goroutine uses a given instance at a
// time, handed to it by Atomically, AtomicallyWithControl, or DetAtomically.
type Transaction struct {
	vars map[uint64]*logRecord
}

func newTransaction() *Transaction {
	return &Transaction{vars: make(map[uint64]*logRecord)}
}

func (tx *Transaction) clear() {
	tx.vars = make(map[uint64]*logRecord)
}

func (tx *Transaction) cloneLog() map[uint64]*logRecord {
	out := make(map[uint64]*logRecord, len(tx.vars))
	for id, rec := range tx.vars {
		r := *rec
		out[id] = &r
	}
	return out
}

func (tx *Transaction) sortedRecords() []*logRecord {
	ids := make([]uint64, 0, len(tx.vars))
	for id := range tx.vars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	recs := make([]*logRecord, len(ids))
	for i, id := range ids {
		recs[i] = tx.vars[id]
	}
	return recs
}

// Read looks up var in the log. If it has been touched before, it returns
// the locally observed value (the pending write, if any, else the original
// snapshot). Otherwise it takes a fresh snapshot of the committed value and
// installs a Read entry. Read never fails in this implementation; the error
// return exists so callers can use it inside a composed transaction body
// the same way a fallible operation would be used.
func Read[T any](tx *Transaction, v *TVar[T]) (T, error) {
	cb := v.cb
	rec, ok := tx.vars[cb.id]
	var b *box
	if ok {
		b = rec.entry.observe()
	} else {
		b = cb.snapshot()
		tx.vars[cb.id] = &logRecord{cb: cb, entry: logEntry{kind: entryRead, read: b}}
	}
	val, ok := b.v.(T)
	if !ok {
		panic(pkgerrors.Errorf("stm: TVar read type mismatch: stored %T, wanted %T", b.v, val))
	}
	return val, nil
}

// Write installs or updates val as the entry for var. The write is only
// visible to other transactional reads of the same log and is not
// published until a successful commit.
func Write[T any](tx *Transaction, v *TVar[T], val T) error {
	cb := v.cb
	w := &box{v: val}
	rec, ok := tx.vars[cb.id]
	if !ok {
		tx.vars[cb.id] = &logRecord{cb: cb, entry: logEntry{kind: entryWrite, write: w}}
		return nil
	}
	rec.entry = rec.entry.applyWrite(w)
	return nil
}

// Or runs first against the live log. If first succeeds or fails with
// anything other than ErrRetry, its log and outcome are kept as-is. If
// first retries, the log is rewound to how it stood before first ran, and
// second runs against that rewound log. Unless second's own result is
// ErrFailure, first's discarded log is merged back in via combine so that a
// caller blocked on the combined Or's retry still wakes on any variable
// either branch observed.
func (tx *Transaction) Or(first, second func(tx *Transaction) error) error {
	saved := tx.cloneLog()

	err := first(tx)
	if !errors.Is(err, ErrRetry) {
		return err
	}

	discarded := tx.vars
	tx.vars = saved

	err2 := second(tx)
	if errors.Is(err2, ErrFailure) {
		return ErrFailure
	}

	tx.combine(discarded)
	return err2
}

// combine merges the discarded branch's log into the live one: for every
// entry not already present, insert its obsolete residue. This is what
// gives the surviving branch the union of both branches' wait-sets.
func (tx *Transaction) combine(discarded map[uint64]*logRecord) {
	for id, rec := range discarded {
		if _, present := tx.vars[id]; present {
			continue
		}
		if residue, ok := rec.entry.obsolete(); ok {
			tx.vars[id] = &logRecord{cb: rec.cb, entry: residue}
		}
	}
}

type lockedRead struct {
	cb *controlBlock
}

type lockedWrite struct {
	cb    *controlBlock
	value *box
}

// commit performs two-phase locking over the log, in control-block id
// order. It returns false (with every acquired lock released) the moment
// any Read or ReadWrite entry's snapshot no longer matches the variable's
// live value.
func (tx *Transaction) commit() bool {
	if len(tx.vars) == 0 {
		return true
	}

	recs := tx.sortedRecords()

	var reads []lockedRead
	var writes []lockedWrite

	releaseAll := func() {
		for _, r := range reads {
			r.cb.mu.RUnlock()
		}
		for _, w := range writes {
			w.cb.mu.Unlock()
		}
	}

	for _, rec := range recs {
		cb := rec.cb
		switch rec.entry.kind {
		case entryWrite, entryReadObsoleteWrite:
			cb.mu.Lock()
			writes = append(writes, lockedWrite{cb: cb, value: rec.entry.write})

		case entryReadWrite:
			cb.mu.Lock()
			if cb.value != rec.entry.read {
				cb.mu.Unlock()
				releaseAll()
				return false
			}
			writes = append(writes, lockedWrite{cb: cb, value: rec.entry.write})

		case entryRead:
			cb.mu.RLock()
			if cb.value != rec.entry.read {
				cb.mu.RUnlock()
				releaseAll()
				return false
			}
			reads = append(reads, lockedRead{cb: cb})

		case entryReadObsolete:
			// Not part of validation or publication; only wait registration
			// cares about it.
		}
	}

	// Release read locks early so other readers aren't held up by the
	// write-back below.
	for _, r := range reads {
		r.cb.mu.RUnlock()
	}

	for _, w := range writes {
		w.cb.value = w.value
	}
	for _, w := range writes {
		w.cb.mu.Unlock()
	}
	for _, w := range writes {
		w.cb.wakeAll()
	}

	return true
}
