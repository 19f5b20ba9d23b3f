// Package stm implements software transactional memory.
//
// It lets multiple goroutines perform composable, atomic updates on shared
// TVars without explicit locks. A transaction body runs speculatively against
// a per-goroutine log; at the end the runtime validates the log's reads
// against the live state of every touched TVar and either publishes the
// writes atomically or discards the log and reruns the body.
//
// With locks, the sequential composition of two thread-safe actions is no
// longer thread-safe, because another goroutine can interleave between them.
// STM composes: two transactions combined with Or are still a single atomic
// unit.
//
// Run the top-level transaction with Atomically:
//
//	stm.Atomically(func(tx *stm.Transaction) (int, error) {
//		return 42, nil
//	})
//
// Nested calls to Atomically on the same goroutine panic; express inner
// transactional logic as a function taking *Transaction and returning
// (T, error), and compose it into the outer body instead.
//
//	v := stm.NewTVar(0)
//
//	x := stm.Atomically(func(tx *stm.Transaction) (int, error) {
//		if err := stm.Write(tx, v, 42); err != nil {
//			return 0, err
//		}
//		return stm.Read(tx, v)
//	})
//	// x == 42
//
// # Transaction safety
//
// A transaction body must not have side effects, especially I/O: bodies
// rerun on conflict, and any side effect reruns with them. Don't handle
// Retry/Failure errors yourself; propagate them. Use Transaction.Or to
// combine alternative paths and Optionally to probe whether an inner body
// would retry. Don't call Atomically from inside a transaction body — the
// runtime detects this at run time and panics. Don't mix mutexes and
// transactions; a blocked mutex inside a body can deadlock the commit
// protocol.
//
// A transaction body that panics never commits: all of its writes are
// discarded and the panic propagates, because publishing only happens after
// the body returns successfully.
//
// # Determinism
//
// STM trades determinism for speculative parallelism. For workloads that
// need predictable commit order — easier debugging, reproducible benchmarks —
// this package also provides a deterministic mode (DTM). A fixed set of
// transactions is registered up front; the runtime threads a single token
// through them each round so that commits land in registration order,
// regardless of scheduling:
//
//	dtm := stm.NewDTM()
//	h1 := dtm.Register()
//	h2 := dtm.Register()
//
//	go stm.DetAtomically(h1, f)
//	go stm.DetAtomically(h2, g)
//	stm.Freeze(dtm) // runs the rounds; returns once f and g have committed
//
// f always commits before g. Transactions must not share a goroutine in
// deterministic mode; violating that deadlocks the round.
package stm
