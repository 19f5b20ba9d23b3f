package stm

// Retry aborts the current transaction attempt and asks the driver to
// rerun it once one of the TVars it has read changes. Semantically it
// allows spin-lock-like behavior, but the driver blocks instead of
// spinning, to keep CPU usage low. Transaction.Or lets a second
// alternative run when the first retries.
func Retry[T any]() (T, error) {
	var zero T
	return zero, ErrRetry
}

// Guard retries until cond is true.
func Guard(cond bool) error {
	if cond {
		return nil
	}
	return ErrRetry
}

// UnwrapOrRetry returns v if ok, and otherwise retries. It is the inverse
// of Optionally.
func UnwrapOrRetry[T any](v T, ok bool) (T, error) {
	if ok {
		return v, nil
	}
	var zero T
	return zero, ErrRetry
}

// Optionally runs body as an Or alternative whose fallback is "absent": if
// body retries, Optionally does not propagate that retry to its own
// caller, but returns (nil, nil) instead. It is the inverse of
// UnwrapOrRetry. Optionally does not always recover from an inconsistency;
// an ErrFailure from a nested Or inside body still propagates.
func Optionally[T any](tx *Transaction, body func(tx *Transaction) (T, error)) (*T, error) {
	var result *T
	err := tx.Or(
		func(tx *Transaction) error {
			v, err := body(tx)
			if err != nil {
				return err
			}
			result = &v
			return nil
		},
		func(tx *Transaction) error {
			result = nil
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}
