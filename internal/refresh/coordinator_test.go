package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequestsDuringFetchCollapseIntoOne(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	c := New(func(context.Context) error {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}, nil)
	go c.Run(ctx)

	c.Request()
	<-started
	require.True(t, c.Pending())

	c.Request()
	c.Request()
	c.Request()
	release <- struct{}{}

	<-started
	release <- struct{}{}

	require.Eventually(t, func() bool { return !c.Pending() }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(2), calls.Load())
}

func TestNoConcurrentFetches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var active, peak, calls atomic.Int32
	c := New(func(context.Context) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		calls.Add(1)
		return nil
	}, nil)
	go c.Run(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Request()
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return !c.Pending() }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), peak.Load())
	require.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestPendingClearsAfterFailedFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("boom")
	settled := make(chan error, 1)
	c := New(func(context.Context) error { return boom }, func(err error) { settled <- err })
	go c.Run(ctx)

	c.Request()
	require.ErrorIs(t, <-settled, boom)
	require.Eventually(t, func() bool { return !c.Pending() }, time.Second, 5*time.Millisecond)
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c := New(func(context.Context) error { return nil }, nil)
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
