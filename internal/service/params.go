package service

import "time"

// LogFilter narrows a journal query.
type LogFilter struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Type  string    // "", "CONFIGURE", "START", "PAUSE", "RESUME", "RESET", "COMPLETE", "SOUND", "ALARM_UNAVAILABLE"
	Limit int       // 0 means maxLogLimit
}
