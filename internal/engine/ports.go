package engine

import "time"

// Clock reports the current instant. Tests inject a manual clock to simulate
// arbitrary gaps, including a host that stopped delivering callbacks.
type Clock interface {
	Now() time.Time
}

// Handle identifies a periodic registration returned by a Scheduler.
type Handle uint64

// Scheduler owns periodic callback registration for the engine.
// SchedulePeriodic is called on Running-entry and Cancel on Running-exit.
type Scheduler interface {
	SchedulePeriodic(period time.Duration, fn func()) Handle
	Cancel(h Handle)
}
