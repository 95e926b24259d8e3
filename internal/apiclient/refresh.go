package apiclient

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// State is the refresh state of a client.
type State int

const (
	// Idle means no refresh is in flight.
	Idle State = iota
	// Refreshing means a refresh call is in flight and new 401s join it.
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

const refreshKey = "refresh"

// RefreshState guarantees at most one credential refresh in flight. Callers
// that arrive while a refresh runs wait for its result instead of starting
// their own. The slot clears when the refresh settles, success or failure.
type RefreshState struct {
	group      singleflight.Group
	refreshing atomic.Bool

	// waiters counts callers currently blocked in Do.
	waiters atomic.Int32
}

// NewRefreshState returns an idle RefreshState.
func NewRefreshState() *RefreshState {
	return &RefreshState{}
}

// State reports whether a refresh is in flight.
func (r *RefreshState) State() State {
	if r.refreshing.Load() {
		return Refreshing
	}
	return Idle
}

// Do joins the in-flight refresh or starts fn if there is none.
//
// fn runs detached from ctx cancellation so one caller giving up does not fail
// the others; each caller still stops waiting when its own ctx is done.
func (r *RefreshState) Do(ctx context.Context, fn func(context.Context) error) error {
	r.waiters.Add(1)
	defer r.waiters.Add(-1)

	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(refreshKey, func() (any, error) {
		r.refreshing.Store(true)
		defer r.refreshing.Store(false)
		return nil, fn(detached)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
