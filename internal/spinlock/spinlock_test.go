package spinlock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	var l Lock
	require.False(t, l.Locked())

	l.Lock()
	require.True(t, l.Locked())
	require.False(t, l.TryLock(), "TryLock must fail while held")

	l.Unlock()
	require.False(t, l.Locked())
	require.True(t, l.TryLock())
	l.Unlock()
}

func TestMutualExclusion(t *testing.T) {
	const goroutines = 32
	const iterations = 1000

	var (
		l       Lock
		counter int
		wg      sync.WaitGroup
	)
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*iterations, counter)
}

func TestResetReleasesAbandonedLock(t *testing.T) {
	var l Lock
	l.Lock() // held by an owner that will never unlock

	l.Reset()

	done := make(chan struct{})
	go func() {
		l.Lock()
		l.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Lock did not succeed after Reset")
	}
}
