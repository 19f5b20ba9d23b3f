package stm

import "time"

// terminates reports whether f returns within timeout. It is used to assert
// non-termination of a transaction that retries forever with no writer to
// wake it, mirroring the original crate's test::terminates helper.
func terminates(timeout time.Duration, f func()) bool {
	done := make(chan struct{})
	go func() {
		f()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
