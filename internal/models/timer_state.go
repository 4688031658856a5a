package models

import "time"

// Phase names as they appear on the wire.
const (
	PhaseIdle      = "IDLE"
	PhaseRunning   = "RUNNING"
	PhasePaused    = "PAUSED"
	PhaseCompleted = "COMPLETED"
)

// TimerState is the snapshot pushed to displays.
type TimerState struct {
	Phase            string    `json:"phase"` // IDLE | RUNNING | PAUSED | COMPLETED
	TotalSeconds     int       `json:"total_seconds"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Display          string    `json:"display"` // MM:SS or HH:MM:SS
	Title            string    `json:"title"`
	Status           string    `json:"status"` // e.g. "Ready.", "Time’s up!"
	SoundEnabled     bool      `json:"sound_enabled"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Preset is a quick-pick duration.
type Preset struct {
	Label   string `json:"label"`
	Seconds int    `json:"seconds"`
}
