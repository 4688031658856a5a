package repository

import (
	"context"
	"database/sql"
	"time"

	"countdown_timer/internal/models"
)

// Operators stores the accounts allowed to control the timer.
type Operators interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// EventRepo is the append-only timer journal.
type EventRepo interface {
	Append(ctx context.Context, e models.TimerEvent) error
	List(ctx context.Context, from, to time.Time, typ string, limit int) ([]models.TimerEvent, error)
}

type Repository struct {
	EventRepo EventRepo
	Operators Operators
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		Operators: NewOperatorSQLite(db),
	}
}
