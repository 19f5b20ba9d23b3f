package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardTrue(t *testing.T) {
	require.NoError(t, Guard(true))
}

func TestGuardFalse(t *testing.T) {
	require.ErrorIs(t, Guard(false), ErrRetry)
}

func TestUnwrapOrRetrySome(t *testing.T) {
	y := Atomically(func(tx *Transaction) (int, error) {
		return UnwrapOrRetry(42, true)
	})
	require.Equal(t, 42, y)
}

func TestUnwrapOrRetryNone(t *testing.T) {
	_, err := UnwrapOrRetry(0, false)
	require.ErrorIs(t, err, ErrRetry)
}

func TestOptionallySucceeds(t *testing.T) {
	x := Atomically(func(tx *Transaction) (*int, error) {
		return Optionally(tx, func(tx *Transaction) (int, error) {
			return 42, nil
		})
	})
	require.NotNil(t, x)
	require.Equal(t, 42, *x)
}

func TestOptionallyFails(t *testing.T) {
	x := Atomically(func(tx *Transaction) (*int, error) {
		return Optionally(tx, func(tx *Transaction) (int, error) {
			return Retry[int]()
		})
	})
	require.Nil(t, x)
}

func TestGuardInsideTransaction(t *testing.T) {
	v := NewTVar(42)

	x := Atomically(func(tx *Transaction) (int, error) {
		val, err := Read(tx, v)
		if err != nil {
			return 0, err
		}
		if err := Guard(val == 42); err != nil {
			return 0, err
		}
		return val, nil
	})

	require.Equal(t, 42, x)
}
