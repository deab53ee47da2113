package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("SerializesSameKey", func(t *testing.T) {
		k := newKeyedMutex()
		key := uuid.New()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			maxSeen int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := k.Lock(key)
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				unlock()
			}()
		}
		wg.Wait()
		require.Equal(t, 1, maxSeen)
		require.Equal(t, 0, k.size())
	})

	t.Run("DifferentKeysDoNotBlock", func(t *testing.T) {
		k := newKeyedMutex()
		unlockA := k.Lock(uuid.New())
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlock := k.Lock(uuid.New())
			unlock()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on a different key blocked")
		}
		require.Equal(t, 1, k.size())
	})
}

func TestLedgerClock(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 678912345, time.UTC)
	wall := base
	c := newLedgerClock(func() time.Time { return wall })

	first := c.Next(nil)
	require.Equal(t, base.Truncate(time.Microsecond), first)

	wall = base.Add(-time.Hour)
	require.Equal(t, first, c.Next(nil))

	floor := base.Add(time.Minute)
	require.Equal(t, floor, c.Next(&floor))
	require.Equal(t, floor, c.Next(nil))
}
