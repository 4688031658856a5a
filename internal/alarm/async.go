package alarm

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants"
)

// Async hands playback to a goroutine pool so Ring never blocks the caller.
// Playback errors go to the error callback instead of the caller.
type Async struct {
	pool    *ants.Pool
	alarm   Alarm
	timeout time.Duration
	onErr   func(error)
}

// NewAsync builds a pool of the given size around alarm. Release it with Close.
func NewAsync(alarm Alarm, workers int, timeout time.Duration, onErr func(error)) (*Async, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create alarm pool: %w", err)
	}
	if onErr == nil {
		onErr = func(error) {}
	}
	return &Async{pool: pool, alarm: alarm, timeout: timeout, onErr: onErr}, nil
}

// Ring schedules playback and returns at once. Only a full or closed pool is
// reported here, as ErrAlarmUnavailable.
func (a *Async) Ring(context.Context) error {
	err := a.pool.Submit(func() {
		ctx := context.Background()
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
		if err := a.alarm.Ring(ctx); err != nil {
			a.onErr(err)
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAlarmUnavailable, err)
	}
	return nil
}

// Close releases the pool.
func (a *Async) Close() {
	a.pool.Release()
}
