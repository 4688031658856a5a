package models

import "time"

// Journal event types.
const (
	EventConfigure        = "CONFIGURE"
	EventStart            = "START"
	EventPause            = "PAUSE"
	EventResume           = "RESUME"
	EventReset            = "RESET"
	EventComplete         = "COMPLETE"
	EventSound            = "SOUND"
	EventAlarmUnavailable = "ALARM_UNAVAILABLE"
)

// TimerEvent is a single journal entry.
type TimerEvent struct {
	EventID          string    `json:"event_id"`
	OccurredAt       time.Time `json:"occurred_at"`
	Type             string    `json:"type"`
	Description      string    `json:"description"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Metadata         any       `json:"metadata,omitempty"`
}
