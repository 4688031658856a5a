package service

import (
	"context"

	"countdown_timer/internal/alarm"
	"countdown_timer/internal/engine"
	"countdown_timer/internal/logger"
	"countdown_timer/internal/models"
	"countdown_timer/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Timer exposes the countdown controls. Every call returns the resulting
// state, also when it fails, so callers can show what the timer is doing.
type Timer interface {
	Configure(ctx context.Context, seconds int) (models.TimerState, error)
	ConfigureInputs(ctx context.Context, minutes, seconds string) (models.TimerState, error)
	ApplyPreset(ctx context.Context, seconds int) (models.TimerState, error)
	Start(ctx context.Context) (models.TimerState, error)
	Pause(ctx context.Context) (models.TimerState, error)
	Resume(ctx context.Context) (models.TimerState, error)
	Reset(ctx context.Context) (models.TimerState, error)
	Toggle(ctx context.Context) (models.TimerState, error)
	State(ctx context.Context) models.TimerState
	SetSound(ctx context.Context, on bool) models.TimerState
	ToggleSound(ctx context.Context) models.TimerState
	ShareLink(ctx context.Context) (string, error)
	Open(ctx context.Context, raw string) (models.TimerState, error)
	Subscribe(buffer int) (<-chan models.TimerState, func())
	AlarmFailed(err error)
}

// EventLog exposes the append-only journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.TimerEvent, error)
}

type Presets interface {
	All() []models.Preset
}

// Service aggregates all sub-services.
type Service struct {
	Timer
	EventLog
	Authorization
	Presets
}

// Deps are the host resources the services are built on.
type Deps struct {
	Clock     engine.Clock
	Scheduler engine.Scheduler
	Alarm     alarm.Alarm
	Presets   []models.Preset
	Log       *logger.Logger
	Timer     TimerConfig
	Auth      AuthConfig
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Timer:         NewTimerService(deps.Clock, deps.Scheduler, repos.EventRepo, deps.Alarm, deps.Log, deps.Timer),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Operators, deps.Auth),
		Presets:       NewPresetService(deps.Presets),
	}
}
