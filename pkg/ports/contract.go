package ports

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLockerContract runs a suite of tests to verify that a DistributedLocker
// implementation adheres to the defined interface contract.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, unlock)
		assert.NoError(t, unlock(ctx))
	})

	t.Run("Contention blocks until context is done", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer unlock(ctx)

		short, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, key, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Release hands over to a waiter", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		var acquired atomic.Bool
		done := make(chan error, 1)
		go func() {
			u, err := locker.Lock(ctx, key, 5*time.Second)
			if err == nil {
				acquired.Store(true)
				err = u(ctx)
			}
			done <- err
		}()

		time.Sleep(150 * time.Millisecond)
		assert.False(t, acquired.Load(), "waiter must not acquire a held lock")
		require.NoError(t, unlock(ctx))

		select {
		case err := <-done:
			assert.NoError(t, err)
			assert.True(t, acquired.Load())
		case <-time.After(3 * time.Second):
			t.Fatal("waiter never acquired the lock")
		}
	})

	t.Run("Keys are independent", func(t *testing.T) {
		u1, err := locker.Lock(ctx, key+"-a", 5*time.Second)
		require.NoError(t, err)
		defer u1(ctx)

		short, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		u2, err := locker.Lock(short, key+"-b", 5*time.Second)
		require.NoError(t, err)
		assert.NoError(t, u2(ctx))
	})
}
