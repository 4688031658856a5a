package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"countdown_timer/internal/alarm"
	"countdown_timer/internal/clock"
	"countdown_timer/internal/engine"
	"countdown_timer/internal/logger"
	"countdown_timer/internal/models"
	"countdown_timer/internal/render"
	"countdown_timer/internal/repository"
	"countdown_timer/internal/share"
)

// journalTimeout bounds journal writes triggered by the scheduler, which
// have no request context to inherit.
const journalTimeout = 2 * time.Second

// TimerConfig holds the host settings of the timer.
type TimerConfig struct {
	DefaultSeconds int
	TickInterval   time.Duration
	ShareBaseURL   string
}

// TimerService hosts the single countdown. Every engine call, scheduled
// callbacks included, runs under mu. The alarm rings after mu is released.
type TimerService struct {
	mu     sync.Mutex
	engine *engine.Engine
	clock  engine.Clock
	events repository.EventRepo
	alarm  alarm.Alarm
	log    *logger.Logger
	cfg    TimerConfig

	updatedAt   time.Time
	ringPending bool
	subs        map[int]chan models.TimerState
	nextSub     int
}

// hostLock is mu as seen by the scheduler, so that callbacks release it
// through unlock as well.
type hostLock struct{ s *TimerService }

func (l hostLock) Lock()   { l.s.mu.Lock() }
func (l hostLock) Unlock() { l.s.unlock() }

// NewTimerService builds the service with the default duration configured.
func NewTimerService(clk engine.Clock, sched engine.Scheduler, events repository.EventRepo, al alarm.Alarm, log *logger.Logger, cfg TimerConfig) *TimerService {
	if cfg.DefaultSeconds <= 0 {
		cfg.DefaultSeconds = share.DefaultSeconds
	}
	if al == nil {
		al = alarm.Silent{}
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &TimerService{
		clock:  clk,
		events: events,
		alarm:  al,
		log:    log,
		cfg:    cfg,
		subs:   make(map[int]chan models.TimerState),
	}
	s.engine = engine.New(clk, clock.Serialize(sched, hostLock{s}),
		engine.WithPeriod(cfg.TickInterval),
		engine.WithOnTick(s.handleTick),
		engine.WithOnComplete(s.handleComplete),
	)
	// Clamp keeps the default within [1, 86400], which Configure always accepts.
	_ = s.engine.Configure(share.Clamp(cfg.DefaultSeconds))
	s.updatedAt = clk.Now().UTC()
	return s
}

// Configure sets a new duration. A running countdown is stopped.
func (s *TimerService) Configure(ctx context.Context, seconds int) (models.TimerState, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.configureLocked(ctx, seconds)
}

func (s *TimerService) configureLocked(ctx context.Context, seconds int) (models.TimerState, error) {
	if seconds > share.MaxSeconds {
		return s.stateLocked(), fmt.Errorf("%w: %d exceeds %d seconds", engine.ErrInvalidDuration, seconds, share.MaxSeconds)
	}
	wasRunning := s.engine.Phase() == engine.Running
	if err := s.engine.Configure(seconds); err != nil {
		return s.stateLocked(), err
	}
	st := s.touchLocked()
	s.journalLocked(ctx, models.EventConfigure, "Duration set to "+st.Display, map[string]any{
		"total_seconds": seconds,
		"was_running":   wasRunning,
	})
	return st, nil
}

// ConfigureInputs applies the minutes/seconds form fields.
func (s *TimerService) ConfigureInputs(ctx context.Context, minutes, seconds string) (models.TimerState, error) {
	total, err := share.FromInputs(minutes, seconds)
	if err != nil {
		return s.State(ctx), err
	}
	return s.Configure(ctx, total)
}

// ApplyPreset configures a quick-pick duration, clamped to the allowed range.
func (s *TimerService) ApplyPreset(ctx context.Context, seconds int) (models.TimerState, error) {
	if seconds <= 0 {
		return s.State(ctx), fmt.Errorf("%w: preset of %d seconds", engine.ErrInvalidDuration, seconds)
	}
	return s.Configure(ctx, share.Clamp(seconds))
}

func (s *TimerService) Start(ctx context.Context) (models.TimerState, error) {
	return s.transition(ctx, models.EventStart, "Countdown started", s.engine.Start)
}

func (s *TimerService) Pause(ctx context.Context) (models.TimerState, error) {
	return s.transition(ctx, models.EventPause, "Countdown paused", s.engine.Pause)
}

func (s *TimerService) Resume(ctx context.Context) (models.TimerState, error) {
	return s.transition(ctx, models.EventResume, "Countdown resumed", s.engine.Resume)
}

func (s *TimerService) Reset(ctx context.Context) (models.TimerState, error) {
	return s.transition(ctx, models.EventReset, "Countdown reset", s.engine.Reset)
}

// Toggle is the single start/pause control: Idle starts, Running pauses and
// Paused resumes. A completed countdown has to be reset or reconfigured.
func (s *TimerService) Toggle(ctx context.Context) (models.TimerState, error) {
	s.mu.Lock()
	defer s.unlock()

	switch phase := s.engine.Phase(); phase {
	case engine.Idle:
		return s.transitionLocked(ctx, models.EventStart, "Countdown started", s.engine.Start)
	case engine.Running:
		return s.transitionLocked(ctx, models.EventPause, "Countdown paused", s.engine.Pause)
	case engine.Paused:
		return s.transitionLocked(ctx, models.EventResume, "Countdown resumed", s.engine.Resume)
	default:
		return s.stateLocked(), fmt.Errorf("%w: toggle from %s", engine.ErrIllegalTransition, phase)
	}
}

// State returns the current snapshot after applying any elapsed time.
func (s *TimerService) State(context.Context) models.TimerState {
	s.mu.Lock()
	defer s.unlock()
	s.engine.Sync()
	return s.stateLocked()
}

// SetSound sets the alarm preference.
func (s *TimerService) SetSound(ctx context.Context, on bool) models.TimerState {
	s.mu.Lock()
	defer s.unlock()
	s.engine.SetSoundEnabled(on)
	return s.soundChangedLocked(ctx)
}

// ToggleSound flips the alarm preference.
func (s *TimerService) ToggleSound(ctx context.Context) models.TimerState {
	s.mu.Lock()
	defer s.unlock()
	s.engine.ToggleSound()
	return s.soundChangedLocked(ctx)
}

// ShareLink returns a URL that opens the timer with the current duration.
func (s *TimerService) ShareLink(context.Context) (string, error) {
	s.mu.Lock()
	total := s.engine.Total()
	s.mu.Unlock()
	return share.Link(s.cfg.ShareBaseURL, total)
}

// Open handles a visit to a shared link. An empty value leaves the timer as
// it is; anything else is decoded (falling back to the default duration)
// and applied unless a countdown is running.
func (s *TimerService) Open(ctx context.Context, raw string) (models.TimerState, error) {
	if raw == "" {
		return s.State(ctx), nil
	}
	seconds := share.DecodeOrDefault(raw, share.Clamp(s.cfg.DefaultSeconds))

	s.mu.Lock()
	defer s.unlock()
	if s.engine.Phase() == engine.Running {
		s.log.Infow("shared link ignored while running", "requested_seconds", seconds)
		s.engine.Sync()
		return s.stateLocked(), nil
	}
	return s.configureLocked(ctx, seconds)
}

// Subscribe registers a listener for state changes. Updates are dropped for
// a listener whose buffer is full. The returned func unsubscribes.
func (s *TimerService) Subscribe(buffer int) (<-chan models.TimerState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.TimerState, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// AlarmFailed records a playback failure reported after the fact.
func (s *TimerService) AlarmFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarmFailedLocked(context.Background(), err)
}

func (s *TimerService) transition(ctx context.Context, typ, desc string, op func() error) (models.TimerState, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.transitionLocked(ctx, typ, desc, op)
}

func (s *TimerService) transitionLocked(ctx context.Context, typ, desc string, op func() error) (models.TimerState, error) {
	if err := op(); err != nil {
		s.log.Debugw("transition rejected", "event", typ, "phase", s.engine.Phase().String(), "err", err)
		return s.stateLocked(), err
	}
	st := s.touchLocked()
	s.journalLocked(ctx, typ, desc, nil)
	return st, nil
}

func (s *TimerService) soundChangedLocked(ctx context.Context) models.TimerState {
	st := s.touchLocked()
	desc := "Sound muted"
	if st.SoundEnabled {
		desc = "Sound enabled"
	}
	s.journalLocked(ctx, models.EventSound, desc, map[string]any{"sound_enabled": st.SoundEnabled})
	return st
}

// handleTick runs under mu, inside an engine call.
func (s *TimerService) handleTick(remaining int) {
	s.touchLocked()
	s.log.Debugw("tick", "remaining_seconds", remaining)
}

// handleComplete runs under mu, inside an engine call.
func (s *TimerService) handleComplete() {
	s.touchLocked()

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	s.log.Infow("countdown completed", "total_seconds", s.engine.Total())
	s.journalLocked(ctx, models.EventComplete, render.StatusCompleted, map[string]any{
		"total_seconds": s.engine.Total(),
		"sound_enabled": s.engine.SoundEnabled(),
	})

	s.ringPending = s.engine.SoundEnabled()
}

// unlock releases mu, then rings for a completion that happened while it
// was held. Ring may block, and reporting its failure takes mu again.
func (s *TimerService) unlock() {
	ring := s.ringPending
	s.ringPending = false
	s.mu.Unlock()

	if ring {
		if err := s.alarm.Ring(context.Background()); err != nil {
			s.AlarmFailed(err)
		}
	}
}

func (s *TimerService) alarmFailedLocked(ctx context.Context, err error) {
	if errors.Is(err, alarm.ErrAlarmUnavailable) {
		s.log.Warnw("alarm unavailable", "err", err)
	} else {
		s.log.Errorw("alarm playback failed", "err", err)
	}
	s.journalLocked(ctx, models.EventAlarmUnavailable, "Alarm could not be played", map[string]any{
		"error": err.Error(),
	})
}

// journalLocked appends to the event journal. Journal failures never undo a
// transition that already happened, so they are only logged.
func (s *TimerService) journalLocked(ctx context.Context, typ, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	err := s.events.Append(ctx, models.TimerEvent{
		OccurredAt:       s.clock.Now().UTC(),
		Type:             typ,
		Description:      desc,
		RemainingSeconds: s.engine.Remaining(),
		Metadata:         meta,
	})
	if err != nil {
		s.log.Errorw("failed to journal timer event", "event", typ, "err", err)
	}
}

// touchLocked stamps, publishes and returns the current state.
func (s *TimerService) touchLocked() models.TimerState {
	s.updatedAt = s.clock.Now().UTC()
	st := s.stateLocked()
	for id, ch := range s.subs {
		select {
		case ch <- st:
		default:
			s.log.Debugw("subscriber lagging, update dropped", "subscriber", id)
		}
	}
	return st
}

func (s *TimerService) stateLocked() models.TimerState {
	snap := s.engine.Snapshot()
	return models.TimerState{
		Phase:            snap.Phase.String(),
		TotalSeconds:     snap.Total,
		RemainingSeconds: snap.Remaining,
		Display:          render.FormatTime(snap.Remaining),
		Title:            render.Title(snap.Remaining),
		Status:           render.Status(snap.Phase),
		SoundEnabled:     snap.SoundEnabled,
		UpdatedAt:        s.updatedAt,
	}
}
