package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"countdown_timer/internal/models"

	"github.com/google/uuid"
)

// occurredAtLayout is fixed width so that text comparison orders by time.
const occurredAtLayout = "2006-01-02T15:04:05.000000000Z"

const (
	insertEventSQL = `INSERT INTO timer_events (id, occurred_at, type, message, remaining_s, meta) VALUES (?, ?, ?, ?, ?, ?)`
	selectEventSQL = `SELECT id, occurred_at, type, message, remaining_s, meta FROM timer_events`

	// rowid breaks ties between events stamped with the same instant.
	orderOldestFirst = " ORDER BY occurred_at ASC, rowid ASC"
	orderNewestFirst = " ORDER BY occurred_at DESC, rowid DESC"
)

// EventSQLite is the SQLite-backed timer journal.
type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

func formatOccurredAt(t time.Time) string {
	return t.UTC().Format(occurredAtLayout)
}

func parseOccurredAt(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse occurred_at %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Append inserts an event, filling in a missing ID or timestamp.
func (r *EventSQLite) Append(ctx context.Context, e models.TimerEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var meta *string
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s event: %w", e.Type, err)
		}
		s := string(b)
		meta = &s
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		formatOccurredAt(e.OccurredAt),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		e.RemainingSeconds,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", e.Type, err)
	}
	return nil
}

// List returns events within [from, to] (zero bounds are open) and of the
// given type (empty means any), oldest first. limit <= 0 means no limit.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string, limit int) ([]models.TimerEvent, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, formatOccurredAt(from))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, formatOccurredAt(to))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := selectEventSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	// A limit keeps the newest rows; they are put back in time order below.
	newestFirst := limit > 0
	if newestFirst {
		q += orderNewestFirst + " LIMIT ?"
		args = append(args, limit)
	} else {
		q += orderOldestFirst
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query timer events: %w", err)
	}
	defer rows.Close()

	out := make([]models.TimerEvent, 0, 64)
	for rows.Next() {
		var (
			ev         models.TimerEvent
			occurredAt string
			meta       sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &occurredAt, &ev.Type, &ev.Description, &ev.RemainingSeconds, &meta); err != nil {
			return nil, fmt.Errorf("scan timer event: %w", err)
		}
		if ev.OccurredAt, err = parseOccurredAt(occurredAt); err != nil {
			return nil, err
		}
		if meta.Valid && meta.String != "" {
			var v any
			if err := json.Unmarshal([]byte(meta.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = meta.String
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timer events: %w", err)
	}
	if newestFirst {
		slices.Reverse(out)
	}
	return out, nil
}
