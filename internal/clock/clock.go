// Package clock provides the host-side implementations of the engine's
// Clock and Scheduler ports.
package clock

import (
	"time"

	"countdown_timer/internal/engine"
)

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System is the default clock. time.Now carries a monotonic reading, so
// wall-clock adjustments do not disturb elapsed-time math.
var System engine.Clock = systemClock{}
