package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionRead(t *testing.T) {
	tx := newTransaction()
	v := NewTVar([]int{1, 2, 3, 4})

	got, err := Read(tx, v)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestTransactionWriteThenRead(t *testing.T) {
	tx := newTransaction()
	v := NewTVar([]int{1, 2})

	require.NoError(t, Write(tx, v, []int{1, 2, 3, 4}))

	got, err := Read(tx, v)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, got)

	// The write is local to the log until commit.
	require.Equal(t, []int{1, 2}, v.ReadAtomic())
}

func TestTransactionCommitPublishesWrites(t *testing.T) {
	v := NewTVar(1)
	tx := newTransaction()
	require.NoError(t, Write(tx, v, 2))
	require.True(t, tx.commit())
	require.Equal(t, 2, v.ReadAtomic())
}

func TestTransactionCommitFailsOnStaleRead(t *testing.T) {
	v := NewTVar(1)

	tx := newTransaction()
	_, err := Read(tx, v)
	require.NoError(t, err)

	// Somebody else commits a change between our read and our commit.
	other := newTransaction()
	require.NoError(t, Write(other, v, 2))
	require.True(t, other.commit())

	require.NoError(t, Write(tx, v, 3))
	require.False(t, tx.commit())
	require.Equal(t, 2, v.ReadAtomic())
}

func TestOrSimple(t *testing.T) {
	v := NewTVar(42)

	x := Atomically(func(tx *Transaction) (int, error) {
		var result int
		err := tx.Or(
			func(tx *Transaction) error {
				_, err := Retry[int]()
				return err
			},
			func(tx *Transaction) error {
				r, err := Read(tx, v)
				result = r
				return err
			},
		)
		return result, err
	})

	require.Equal(t, 42, x)
}

func TestOrNoCommitOnAbandonedBranch(t *testing.T) {
	v := NewTVar(42)

	x := Atomically(func(tx *Transaction) (int, error) {
		var result int
		err := tx.Or(
			func(tx *Transaction) error {
				if err := Write(tx, v, 23); err != nil {
					return err
				}
				_, err := Retry[int]()
				return err
			},
			func(tx *Transaction) error {
				r, err := Read(tx, v)
				result = r
				return err
			},
		)
		return result, err
	})

	require.Equal(t, 42, x)
	require.Equal(t, 42, v.ReadAtomic())
}

func TestOrNestedFirst(t *testing.T) {
	v := NewTVar(42)

	x := Atomically(func(tx *Transaction) (int, error) {
		var result int
		err := tx.Or(
			func(tx *Transaction) error {
				return tx.Or(
					func(tx *Transaction) error { _, err := Retry[int](); return err },
					func(tx *Transaction) error { _, err := Retry[int](); return err },
				)
			},
			func(tx *Transaction) error {
				r, err := Read(tx, v)
				result = r
				return err
			},
		)
		return result, err
	})

	require.Equal(t, 42, x)
}

func TestOrNestedSecond(t *testing.T) {
	v := NewTVar(42)

	x := Atomically(func(tx *Transaction) (int, error) {
		var result int
		err := tx.Or(
			func(tx *Transaction) error { _, err := Retry[int](); return err },
			func(tx *Transaction) error {
				return tx.Or(
					func(tx *Transaction) error {
						r, err := Read(tx, v)
						result = r
						return err
					},
					func(tx *Transaction) error { _, err := Retry[int](); return err },
				)
			},
		)
		return result, err
	})

	require.Equal(t, 42, x)
}

func TestOrEquivalence(t *testing.T) {
	v := NewTVar(7)

	// tx.Or(retry, f) == f
	a := Atomically(func(tx *Transaction) (int, error) {
		var result int
		err := tx.Or(
			func(tx *Transaction) error { _, err := Retry[int](); return err },
			func(tx *Transaction) error { r, err := Read(tx, v); result = r; return err },
		)
		return result, err
	})
	require.Equal(t, 7, a)

	// tx.Or(f, retry) == f
	b := Atomically(func(tx *Transaction) (int, error) {
		var result int
		err := tx.Or(
			func(tx *Transaction) error { r, err := Read(tx, v); result = r; return err },
			func(tx *Transaction) error { _, err := Retry[int](); return err },
		)
		return result, err
	})
	require.Equal(t, 7, b)
}
