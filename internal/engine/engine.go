// Package engine implements the countdown state machine and the
// drift-correcting clock logic behind it.
//
// The engine is driven by a host-provided periodic callback and is not safe
// for concurrent use: the host serializes every call, including the
// scheduled callbacks, on one logical thread.
package engine

import (
	"fmt"
	"time"
)

// DefaultPeriod is how often the engine re-evaluates elapsed time while running.
const DefaultPeriod = 250 * time.Millisecond

// Option configures the engine.
type Option func(*Engine)

// WithPeriod sets the periodic evaluation interval. Values outside (0, 1s] are ignored.
func WithPeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 && d <= time.Second {
			e.period = d
		}
	}
}

// WithOnTick registers the callback invoked after every accepted tick.
func WithOnTick(fn func(remaining int)) Option {
	return func(e *Engine) {
		e.onTick = fn
	}
}

// WithOnComplete registers the callback invoked once per Running episode that reaches zero.
func WithOnComplete(fn func()) Option {
	return func(e *Engine) {
		e.onComplete = fn
	}
}

// WithSound sets the initial sound preference.
func WithSound(enabled bool) Option {
	return func(e *Engine) {
		e.soundEnabled = enabled
	}
}

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Phase        Phase
	Total        int
	Remaining    int
	SoundEnabled bool
}

// Engine is a single countdown timer.
type Engine struct {
	clock  Clock
	sched  Scheduler
	period time.Duration

	onTick     func(int)
	onComplete func()

	total     int
	remaining int
	phase     Phase

	anchor time.Time
	handle Handle
	// epoch increments on every Running-entry; callbacks from older epochs are ignored.
	epoch uint64

	soundEnabled bool
}

// New creates an idle engine with zero duration. Call Configure before Start.
func New(clock Clock, sched Scheduler, opts ...Option) *Engine {
	e := &Engine{
		clock:        clock,
		sched:        sched,
		period:       DefaultPeriod,
		onTick:       func(int) {},
		onComplete:   func() {},
		phase:        Idle,
		soundEnabled: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configure sets a new duration and returns the engine to Idle.
// A running countdown is stopped first.
func (e *Engine) Configure(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDuration, seconds)
	}
	if e.phase == Running {
		e.stopScheduling()
	}
	e.total = seconds
	e.remaining = seconds
	e.phase = Idle
	return nil
}

// Start begins counting down from Idle.
func (e *Engine) Start() error {
	if e.phase != Idle {
		return fmt.Errorf("%w: start from %s", ErrIllegalTransition, e.phase)
	}
	if e.remaining <= 0 {
		return fmt.Errorf("%w: start with nothing remaining", ErrIllegalTransition)
	}
	e.enterRunning()
	return nil
}

// Pause freezes the countdown. Whole seconds that already elapsed are applied
// first, so a pause never discards time; if that finishes the countdown the
// engine ends up Completed and ErrIllegalTransition is returned.
func (e *Engine) Pause() error {
	if e.phase != Running {
		return fmt.Errorf("%w: pause from %s", ErrIllegalTransition, e.phase)
	}
	e.sync(e.clock.Now())
	if e.phase != Running {
		return fmt.Errorf("%w: countdown completed before pause", ErrIllegalTransition)
	}
	e.stopScheduling()
	e.phase = Paused
	return nil
}

// Resume continues a paused countdown.
func (e *Engine) Resume() error {
	if e.phase != Paused {
		return fmt.Errorf("%w: resume from %s", ErrIllegalTransition, e.phase)
	}
	e.enterRunning()
	return nil
}

// Reset restores the configured duration and returns to Idle. It is legal in every phase.
func (e *Engine) Reset() error {
	if e.phase == Running {
		e.stopScheduling()
	}
	e.remaining = e.total
	e.phase = Idle
	return nil
}

// Sync applies elapsed time immediately instead of waiting for the next
// periodic callback. Hosts call it when they regain visibility. No-op unless Running.
func (e *Engine) Sync() {
	if e.phase != Running {
		return
	}
	e.sync(e.clock.Now())
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// Total returns the configured duration in seconds.
func (e *Engine) Total() int { return e.total }

// Remaining returns the seconds left.
func (e *Engine) Remaining() int { return e.remaining }

// SoundEnabled reports the sound preference.
func (e *Engine) SoundEnabled() bool { return e.soundEnabled }

// SetSoundEnabled updates the sound preference.
func (e *Engine) SetSoundEnabled(on bool) { e.soundEnabled = on }

// ToggleSound flips the sound preference and returns the new value.
func (e *Engine) ToggleSound() bool {
	e.soundEnabled = !e.soundEnabled
	return e.soundEnabled
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Phase:        e.phase,
		Total:        e.total,
		Remaining:    e.remaining,
		SoundEnabled: e.soundEnabled,
	}
}

func (e *Engine) enterRunning() {
	e.phase = Running
	e.anchor = e.clock.Now()
	e.epoch++
	epoch := e.epoch
	e.handle = e.sched.SchedulePeriodic(e.period, func() { e.tick(epoch) })
}

func (e *Engine) stopScheduling() {
	e.sched.Cancel(e.handle)
	e.handle = 0
	// Invalidate callbacks already queued for this episode.
	e.epoch++
}

func (e *Engine) tick(epoch uint64) {
	if e.phase != Running || epoch != e.epoch {
		return
	}
	e.sync(e.clock.Now())
}

// sync subtracts whole elapsed seconds since the anchor. The anchor moves by
// the same whole seconds so the sub-second remainder carries into the next tick.
func (e *Engine) sync(now time.Time) {
	if now.Before(e.anchor) {
		e.anchor = now
		return
	}
	elapsed := int(now.Sub(e.anchor) / time.Second)
	if elapsed < 1 {
		return
	}
	e.anchor = e.anchor.Add(time.Duration(elapsed) * time.Second)
	e.remaining -= elapsed
	if e.remaining < 0 {
		e.remaining = 0
	}
	e.onTick(e.remaining)

	if e.phase == Running && e.remaining == 0 {
		e.stopScheduling()
		e.phase = Completed
		e.onComplete()
	}
}
