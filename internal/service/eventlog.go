package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"countdown_timer/internal/models"
	"countdown_timer/internal/repository"
)

// maxLogLimit caps a single journal query; the newest events are kept.
const maxLogLimit = 1000

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidLimit     = errors.New("invalid limit: must be >= 0")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the range and limit.
func normalizeAndValidateFilter(f LogFilter) (LogFilter, error) {
	out := LogFilter{
		From:  normalizeToUTC(f.From),
		To:    normalizeToUTC(f.To),
		Type:  normalizeEventType(f.Type),
		Limit: f.Limit,
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, errInvalidTimeRange
	}
	if out.Limit < 0 {
		return LogFilter{}, errInvalidLimit
	}
	if out.Limit == 0 || out.Limit > maxLogLimit {
		out.Limit = maxLogLimit
	}
	return out, nil
}

// IsInvalidFilter reports whether err came from filter validation.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, errInvalidTimeRange) || errors.Is(err, errInvalidLimit)
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.TimerEvent, error) {
	nf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, nf.From, nf.To, nf.Type, nf.Limit)
}
