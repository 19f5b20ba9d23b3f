package stm

// entryKind tags which of the five shapes a logEntry currently holds.
type entryKind uint8

const (
	entryRead entryKind = iota
	entryWrite
	entryReadWrite
	entryReadObsolete
	entryReadObsoleteWrite
)

// logEntry records how a single transaction has touched one TVar so far.
// read holds the snapshot a Read observed; write holds the value a Write
// will publish at commit. Which fields are meaningful is determined by
// kind, per the transitions documented on applyWrite and obsolete below.
type logEntry struct {
	kind  entryKind
	read  *box
	write *box
}

// observe returns the value a subsequent Read on this entry should see: the
// write if one has happened locally, otherwise the original read snapshot.
func (e logEntry) observe() *box {
	if e.write != nil {
		return e.write
	}
	return e.read
}

// hasReadSnapshot reports whether this entry carries a snapshot that must
// still validate at commit, or be watched for changes while blocked in
// retry — true for Read, ReadWrite, ReadObsolete, and ReadObsoleteWrite.
func (e logEntry) hasReadSnapshot() bool {
	return e.read != nil
}

// applyWrite transitions an existing entry under a local write, per:
//
//	Read(v)               -> ReadWrite(v, w)
//	Write(w')              -> Write(w)
//	ReadWrite(v, w')       -> ReadWrite(v, w)
//	ReadObsolete(v)        -> ReadObsoleteWrite(v, w)
//	ReadObsoleteWrite(v,w')-> ReadObsoleteWrite(v, w)
func (e logEntry) applyWrite(w *box) logEntry {
	switch e.kind {
	case entryRead:
		return logEntry{kind: entryReadWrite, read: e.read, write: w}
	case entryWrite:
		return logEntry{kind: entryWrite, write: w}
	case entryReadWrite:
		return logEntry{kind: entryReadWrite, read: e.read, write: w}
	case entryReadObsolete:
		return logEntry{kind: entryReadObsoleteWrite, read: e.read, write: w}
	case entryReadObsoleteWrite:
		return logEntry{kind: entryReadObsoleteWrite, read: e.read, write: w}
	default:
		panic("stm: applyWrite on unknown log entry kind")
	}
}

// obsolete projects a live entry from a discarded Or branch to its
// wait-relevant residue. Read and ReadWrite retain their snapshot as an
// obsolete read, still eligible for wait registration. A pure Write or
// ReadObsoleteWrite contributes nothing: the abandoned branch's write is
// never committed, so there is no snapshot left worth watching.
func (e logEntry) obsolete() (logEntry, bool) {
	switch e.kind {
	case entryRead, entryReadWrite:
		return logEntry{kind: entryReadObsolete, read: e.read}, true
	case entryReadObsolete:
		return logEntry{kind: entryReadObsolete, read: e.read}, true
	case entryWrite, entryReadObsoleteWrite:
		return logEntry{}, false
	default:
		panic("stm: obsolete on unknown log entry kind")
	}
}
