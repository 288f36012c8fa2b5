// Package refresh serializes collection refetches.
//
// Requests are level-triggered: any number of Request calls made while a
// fetch is running collapse into exactly one further fetch, and at most one
// fetch is in flight at a time.
package refresh

import (
	"context"
	"sync"
)

// Fetch loads the collection and hands it to the owner.
type Fetch func(ctx context.Context) error

// Coordinator runs Fetch on demand.
type Coordinator struct {
	fetch     Fetch
	onSettled func(error)

	wake chan struct{}

	mu        sync.Mutex
	requested bool
	inFlight  bool
}

// New creates a coordinator. onSettled, if set, runs after every fetch.
func New(fetch Fetch, onSettled func(error)) *Coordinator {
	return &Coordinator{
		fetch:     fetch,
		onSettled: onSettled,
		wake:      make(chan struct{}, 1),
	}
}

// Request asks for a fetch. It never blocks.
func (c *Coordinator) Request() {
	c.mu.Lock()
	c.requested = true
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether a fetch is requested or running.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested || c.inFlight
}

// Run serves requests until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}

		for {
			c.mu.Lock()
			if !c.requested {
				c.mu.Unlock()
				break
			}
			c.requested = false
			c.inFlight = true
			c.mu.Unlock()

			err := c.fetch(ctx)
			if c.onSettled != nil {
				c.onSettled(err)
			}

			c.mu.Lock()
			c.inFlight = false
			c.mu.Unlock()

			if ctx.Err() != nil {
				return
			}
		}
	}
}
