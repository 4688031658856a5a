// Package render turns engine state into the strings a display shows.
package render

import (
	"fmt"

	"countdown_timer/internal/engine"
)

// Status lines shown next to the clock.
const (
	StatusReady     = "Ready."
	StatusRunning   = "Running…"
	StatusPaused    = "Paused."
	StatusCompleted = "Time’s up!"
)

const titleSuffix = "Countdown"

// FormatTime renders seconds as MM:SS, or HH:MM:SS from one hour up.
// Negative input renders as 00:00.
func FormatTime(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Title renders a window/tab title for the remaining time.
func Title(sec int) string {
	return FormatTime(sec) + " — " + titleSuffix
}

// Status returns the status line for a phase.
func Status(p engine.Phase) string {
	switch p {
	case engine.Running:
		return StatusRunning
	case engine.Paused:
		return StatusPaused
	case engine.Completed:
		return StatusCompleted
	default:
		return StatusReady
	}
}
