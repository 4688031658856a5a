package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"countdown_timer/internal/alarm"
	"countdown_timer/internal/clock"
	"countdown_timer/internal/engine"
	"countdown_timer/internal/logger"
	"countdown_timer/internal/models"
	"countdown_timer/internal/render"
)

// journal is a concurrency-safe in-memory EventRepo.
type journal struct {
	mu        sync.Mutex
	events    []models.TimerEvent
	appendErr error
}

func (j *journal) Append(_ context.Context, e models.TimerEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
	return j.appendErr
}

func (j *journal) List(context.Context, time.Time, time.Time, string, int) ([]models.TimerEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]models.TimerEvent(nil), j.events...), nil
}

func (j *journal) types() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.events))
	for _, e := range j.events {
		out = append(out, e.Type)
	}
	return out
}

func (j *journal) count(typ string) int {
	n := 0
	for _, t := range j.types() {
		if t == typ {
			n++
		}
	}
	return n
}

type countingAlarm struct {
	mu    sync.Mutex
	rings int
	err   error
}

func (a *countingAlarm) Ring(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rings++
	return a.err
}

func (a *countingAlarm) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rings
}

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type timerFixture struct {
	svc   *TimerService
	clk   *clock.Manual
	jr    *journal
	alarm *countingAlarm
}

func newTimerFixture(t *testing.T, cfg TimerConfig) timerFixture {
	t.Helper()
	clk := clock.NewManual(t0)
	jr := &journal{}
	al := &countingAlarm{}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = 250 * time.Millisecond
	}
	svc := NewTimerService(clk, clk, jr, al, logger.Nop(), cfg)
	return timerFixture{svc: svc, clk: clk, jr: jr, alarm: al}
}

func mustState(t *testing.T) func(models.TimerState, error) models.TimerState {
	return func(st models.TimerState, err error) models.TimerState {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return st
	}
}

func TestTimerService_InitialState(t *testing.T) {
	f := newTimerFixture(t, TimerConfig{})
	st := f.svc.State(context.Background())

	if st.Phase != models.PhaseIdle || st.TotalSeconds != 300 || st.RemainingSeconds != 300 {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if st.Display != "05:00" || st.Status != render.StatusReady || !st.SoundEnabled {
		t.Fatalf("unexpected rendering: %+v", st)
	}
	if !st.UpdatedAt.Equal(t0) {
		t.Fatalf("updated_at = %v, want %v", st.UpdatedAt, t0)
	}
	if len(f.jr.types()) != 0 {
		t.Fatalf("construction must not journal, got %v", f.jr.types())
	}
}

func TestTimerService_DefaultIsClamped(t *testing.T) {
	f := newTimerFixture(t, TimerConfig{DefaultSeconds: 10 * 24 * 3600})
	if st := f.svc.State(context.Background()); st.TotalSeconds != 86400 {
		t.Fatalf("default not clamped: %d", st.TotalSeconds)
	}
}

func TestTimerService_RunToCompletion(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)
	f := newTimerFixture(t, TimerConfig{})

	must(f.svc.Configure(ctx, 3))
	st := must(f.svc.Start(ctx))
	if st.Phase != models.PhaseRunning || st.Status != render.StatusRunning {
		t.Fatalf("unexpected state after start: %+v", st)
	}

	f.clk.Step(time.Second)
	if got := f.svc.State(ctx).RemainingSeconds; got != 2 {
		t.Fatalf("remaining after 1s = %d, want 2", got)
	}

	f.clk.Step(5 * time.Second)
	st = f.svc.State(ctx)
	if st.Phase != models.PhaseCompleted || st.RemainingSeconds != 0 || st.Status != render.StatusCompleted {
		t.Fatalf("expected completion, got %+v", st)
	}
	if f.clk.Live() != 0 {
		t.Fatalf("scheduling should stop on completion, live=%d", f.clk.Live())
	}

	f.clk.Step(time.Second)
	f.clk.Step(time.Second)
	if n := f.jr.count(models.EventComplete); n != 1 {
		t.Fatalf("COMPLETE journaled %d times", n)
	}
	if n := f.alarm.count(); n != 1 {
		t.Fatalf("alarm rang %d times, want 1", n)
	}

	want := []string{models.EventConfigure, models.EventStart, models.EventComplete}
	got := f.jr.types()
	if len(got) != len(want) {
		t.Fatalf("journal = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("journal = %v, want %v", got, want)
		}
	}
}

func TestTimerService_MutedCompletionDoesNotRing(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)
	f := newTimerFixture(t, TimerConfig{})

	if st := f.svc.ToggleSound(ctx); st.SoundEnabled {
		t.Fatalf("sound should be muted")
	}
	must(f.svc.Configure(ctx, 1))
	must(f.svc.Start(ctx))
	f.clk.Step(time.Second)

	if f.alarm.count() != 0 {
		t.Fatalf("muted timer rang the alarm")
	}
	if f.svc.State(ctx).Phase != models.PhaseCompleted {
		t.Fatalf("countdown should still complete")
	}
	if f.jr.count(models.EventSound) != 1 {
		t.Fatalf("sound change not journaled: %v", f.jr.types())
	}
}

func TestTimerService_AlarmUnavailableIsJournaled(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)
	clk := clock.NewManual(t0)
	jr := &journal{}
	svc := NewTimerService(clk, clk, jr, alarm.Silent{}, logger.Nop(), TimerConfig{DefaultSeconds: 1})

	must(svc.Start(ctx))
	clk.Step(time.Second)

	if svc.State(ctx).Phase != models.PhaseCompleted {
		t.Fatalf("countdown must complete without audio")
	}
	if jr.count(models.EventAlarmUnavailable) != 1 {
		t.Fatalf("expected ALARM_UNAVAILABLE in journal, got %v", jr.types())
	}
}

func TestTimerService_AlarmFailed(t *testing.T) {
	f := newTimerFixture(t, TimerConfig{})
	f.svc.AlarmFailed(errors.New("device busy"))
	if f.jr.count(models.EventAlarmUnavailable) != 1 {
		t.Fatalf("late alarm failure not journaled: %v", f.jr.types())
	}
}

// reentrantAlarm reports a playback failure from another goroutine while
// Ring is still running, the way the pooled alarm's worker does.
type reentrantAlarm struct {
	svc     *TimerService
	blocked chan bool
}

func (a *reentrantAlarm) Ring(context.Context) error {
	done := make(chan struct{})
	go func() {
		a.svc.AlarmFailed(errors.New("playback timed out"))
		_ = a.svc.State(context.Background())
		close(done)
	}()
	select {
	case <-done:
		a.blocked <- false
	case <-time.After(2 * time.Second):
		a.blocked <- true
	}
	return nil
}

func TestTimerService_AlarmRingsAfterLockIsReleased(t *testing.T) {
	cases := []struct {
		name     string
		complete func(clk *clock.Manual, svc *TimerService)
	}{
		{
			name:     "scheduler tick",
			complete: func(clk *clock.Manual, _ *TimerService) { clk.Step(2 * time.Second) },
		},
		{
			name: "state read",
			complete: func(clk *clock.Manual, svc *TimerService) {
				clk.Advance(2 * time.Second)
				_ = svc.State(context.Background())
			},
		},
		{
			name: "pause reaching zero",
			complete: func(clk *clock.Manual, svc *TimerService) {
				clk.Advance(3 * time.Second)
				_, _ = svc.Pause(context.Background())
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clk := clock.NewManual(t0)
			jr := &journal{}
			al := &reentrantAlarm{blocked: make(chan bool, 1)}
			svc := NewTimerService(clk, clk, jr, al, logger.Nop(), TimerConfig{DefaultSeconds: 2})
			al.svc = svc

			mustState(t)(svc.Start(context.Background()))
			tc.complete(clk, svc)

			select {
			case blocked := <-al.blocked:
				if blocked {
					t.Fatalf("alarm rang while the service lock was held")
				}
			default:
				t.Fatalf("alarm did not ring on completion")
			}
			if jr.count(models.EventAlarmUnavailable) != 1 {
				t.Fatalf("failure reported during playback not journaled: %v", jr.types())
			}
			if svc.State(context.Background()).Phase != models.PhaseCompleted {
				t.Fatalf("countdown should be completed")
			}
		})
	}
}

func TestTimerService_UnusableDefaultStillConfigures(t *testing.T) {
	for _, def := range []int{-30, 0} {
		f := newTimerFixture(t, TimerConfig{DefaultSeconds: def})
		st := f.svc.State(context.Background())
		if st.Phase != models.PhaseIdle || st.TotalSeconds != 300 || st.RemainingSeconds != 300 {
			t.Fatalf("default %d: unexpected state %+v", def, st)
		}
	}
}

func TestTimerService_PauseResume(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)
	f := newTimerFixture(t, TimerConfig{DefaultSeconds: 10})

	must(f.svc.Start(ctx))
	f.clk.Step(3 * time.Second)
	st := must(f.svc.Pause(ctx))
	if st.Phase != models.PhasePaused || st.RemainingSeconds != 7 || st.Status != render.StatusPaused {
		t.Fatalf("unexpected paused state: %+v", st)
	}

	f.clk.Advance(time.Minute)
	if got := f.svc.State(ctx).RemainingSeconds; got != 7 {
		t.Fatalf("paused timer moved to %d", got)
	}

	must(f.svc.Resume(ctx))
	f.clk.Step(2 * time.Second)
	if got := f.svc.State(ctx).RemainingSeconds; got != 5 {
		t.Fatalf("remaining after resume = %d, want 5", got)
	}
}

func TestTimerService_IllegalTransitionsReturnState(t *testing.T) {
	ctx := context.Background()
	f := newTimerFixture(t, TimerConfig{DefaultSeconds: 60})

	tests := []struct {
		name string
		op   func(context.Context) (models.TimerState, error)
	}{
		{"pause while idle", f.svc.Pause},
		{"resume while idle", f.svc.Resume},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := tt.op(ctx)
			if !errors.Is(err, engine.ErrIllegalTransition) {
				t.Fatalf("expected ErrIllegalTransition, got %v", err)
			}
			if st.Phase != models.PhaseIdle || st.RemainingSeconds != 60 {
				t.Fatalf("state should be returned unchanged, got %+v", st)
			}
		})
	}

	if _, err := f.svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.svc.Start(ctx); !errors.Is(err, engine.ErrIllegalTransition) {
		t.Fatalf("double start should be illegal, got %v", err)
	}
	if n := f.jr.count(models.EventStart); n != 1 {
		t.Fatalf("rejected start was journaled")
	}
}

func TestTimerService_ConfigureValidation(t *testing.T) {
	ctx := context.Background()
	f := newTimerFixture(t, TimerConfig{})

	for _, secs := range []int{0, -5, 86401} {
		st, err := f.svc.Configure(ctx, secs)
		if !errors.Is(err, engine.ErrInvalidDuration) {
			t.Fatalf("Configure(%d): expected ErrInvalidDuration, got %v", secs, err)
		}
		if st.TotalSeconds != 300 {
			t.Fatalf("Configure(%d) changed the duration to %d", secs, st.TotalSeconds)
		}
	}
	if len(f.jr.types()) != 0 {
		t.Fatalf("rejected configure was journaled: %v", f.jr.types())
	}
}

func TestTimerService_ConfigureWhileRunningStops(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)
	f := newTimerFixture(t, TimerConfig{})

	must(f.svc.Start(ctx))
	stale := f.clk.Registered()

	st := must(f.svc.Configure(ctx, 90))
	if st.Phase != models.PhaseIdle || st.RemainingSeconds != 90 || st.Display != "01:30" {
		t.Fatalf("unexpected state: %+v", st)
	}
	if f.clk.Live() != 0 {
		t.Fatalf("scheduling should be cancelled, live=%d", f.clk.Live())
	}

	f.clk.Advance(5 * time.Second)
	for _, fn := range stale {
		fn()
	}
	if got := f.svc.State(ctx).RemainingSeconds; got != 90 {
		t.Fatalf("stale callback changed remaining to %d", got)
	}
}

func TestTimerService_ConfigureInputs(t *testing.T) {
	ctx := context.Background()
	f := newTimerFixture(t, TimerConfig{})

	tests := []struct {
		name      string
		min, sec  string
		want      int
		wantError bool
	}{
		{"plain", "2", "5", 125, false},
		{"seconds clamp", "1", "75", 119, false},
		{"minutes clamp", "5000", "0", 999 * 60, false},
		{"non-numeric counts as zero", "abc", "30", 30, false},
		{"zero", "0", "0", 0, true},
		{"empty", "", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := f.svc.ConfigureInputs(ctx, tt.min, tt.sec)
			if tt.wantError {
				if !errors.Is(err, engine.ErrInvalidDuration) {
					t.Fatalf("expected ErrInvalidDuration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if st.TotalSeconds != tt.want {
				t.Fatalf("total = %d, want %d", st.TotalSeconds, tt.want)
			}
		})
	}
}

func TestTimerService_ApplyPreset(t *testing.T) {
	ctx := context.Background()
	f := newTimerFixture(t, TimerConfig{})

	st, err := f.svc.ApplyPreset(ctx, 100000)
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if st.TotalSeconds != 86400 || st.Display != "24:00:00" {
		t.Fatalf("preset not clamped: %+v", st)
	}
	if _, err := f.svc.ApplyPreset(ctx, 0); !errors.Is(err, engine.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestTimerService_Toggle(t *testing.T) {
	ctx := context.Background()
	f := newTimerFixture(t, TimerConfig{DefaultSeconds: 2})

	wantPhases := []string{models.PhaseRunning, models.PhasePaused, models.PhaseRunning}
	for i, want := range wantPhases {
		st, err := f.svc.Toggle(ctx)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if st.Phase != want {
			t.Fatalf("toggle %d: phase %s, want %s", i, st.Phase, want)
		}
	}

	f.clk.Step(2 * time.Second)
	st, err := f.svc.Toggle(ctx)
	if !errors.Is(err, engine.ErrIllegalTransition) {
		t.Fatalf("toggle on completed: expected ErrIllegalTransition, got %v", err)
	}
	if st.Phase != models.PhaseCompleted {
		t.Fatalf("expected completed state in the error result, got %s", st.Phase)
	}

	st, err = f.svc.Reset(ctx)
	if err != nil || st.Phase != models.PhaseIdle || st.RemainingSeconds != 2 {
		t.Fatalf("reset from completed: %+v, %v", st, err)
	}
}

func TestTimerService_StateAppliesElapsedTime(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)
	f := newTimerFixture(t, TimerConfig{DefaultSeconds: 125})

	must(f.svc.Start(ctx))
	f.clk.Advance(65 * time.Second)

	st := f.svc.State(ctx)
	if st.RemainingSeconds != 60 || st.Display != "01:00" {
		t.Fatalf("State without callbacks = %+v, want 60 / 01:00", st)
	}
	if st.Title != "01:00 — Countdown" {
		t.Fatalf("title = %q", st.Title)
	}
}

func TestTimerService_Open(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty keeps current", "", 300},
		{"seconds", "90", 90},
		{"clock form", "1:30:00", 5400},
		{"garbage falls back", "soon", 300},
		{"negative falls back", "-5", 300},
		{"huge clamps", "999999", 86400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTimerFixture(t, TimerConfig{})
			st := must(f.svc.Open(ctx, tt.raw))
			if st.TotalSeconds != tt.want || st.Phase != models.PhaseIdle {
				t.Fatalf("Open(%q) = %+v, want total %d", tt.raw, st, tt.want)
			}
		})
	}

	t.Run("ignored while running", func(t *testing.T) {
		f := newTimerFixture(t, TimerConfig{})
		must(f.svc.Start(ctx))
		st := must(f.svc.Open(ctx, "60"))
		if st.Phase != models.PhaseRunning || st.TotalSeconds != 300 {
			t.Fatalf("running timer was reconfigured: %+v", st)
		}
	})
}

func TestTimerService_ShareLink(t *testing.T) {
	ctx := context.Background()
	f := newTimerFixture(t, TimerConfig{ShareBaseURL: "http://timer.local/?theme=dark"})
	if _, err := f.svc.Configure(ctx, 90); err != nil {
		t.Fatal(err)
	}

	link, err := f.svc.ShareLink(ctx)
	if err != nil {
		t.Fatalf("ShareLink: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("bad link %q: %v", link, err)
	}
	if u.Query().Get("t") != "90" || u.Query().Get("theme") != "dark" {
		t.Fatalf("unexpected link %q", link)
	}
}

func TestTimerService_Subscribe(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)
	f := newTimerFixture(t, TimerConfig{DefaultSeconds: 5})

	ch, unsubscribe := f.svc.Subscribe(8)
	must(f.svc.Start(ctx))
	f.clk.Step(time.Second)

	first := <-ch
	second := <-ch
	if first.Phase != models.PhaseRunning || first.RemainingSeconds != 5 {
		t.Fatalf("first update = %+v", first)
	}
	if second.RemainingSeconds != 4 {
		t.Fatalf("tick update = %+v", second)
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after unsubscribe")
	}
	f.clk.Step(time.Second)
}

func TestTimerService_SlowSubscriberDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	must := mustState(t)
	f := newTimerFixture(t, TimerConfig{DefaultSeconds: 10})

	ch, unsubscribe := f.svc.Subscribe(1)
	defer unsubscribe()

	must(f.svc.Start(ctx))
	for i := 0; i < 5; i++ {
		f.clk.Step(time.Second)
	}
	if got := f.svc.State(ctx).RemainingSeconds; got != 5 {
		t.Fatalf("remaining = %d, want 5", got)
	}
	if st := <-ch; st.Phase != models.PhaseRunning {
		t.Fatalf("buffered update = %+v", st)
	}
}

func TestTimerService_JournalFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newTimerFixture(t, TimerConfig{})
	f.jr.appendErr = errors.New("disk full")

	st, err := f.svc.Start(ctx)
	if err != nil {
		t.Fatalf("journal failure leaked into Start: %v", err)
	}
	if st.Phase != models.PhaseRunning {
		t.Fatalf("start did not happen: %+v", st)
	}
}
