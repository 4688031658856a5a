// Package alarm plays the completion signal. Every failure here degrades to
// silence; countdown correctness never depends on it.
package alarm

import (
	"context"
	"errors"
)

// ErrAlarmUnavailable means the host has no usable audio output, or the
// alarm is disabled.
var ErrAlarmUnavailable = errors.New("alarm unavailable")

// Alarm signals countdown completion.
type Alarm interface {
	Ring(ctx context.Context) error
}

// Silent is used when the alarm is disabled by configuration.
type Silent struct{}

// Ring always reports ErrAlarmUnavailable.
func (Silent) Ring(context.Context) error {
	return ErrAlarmUnavailable
}
