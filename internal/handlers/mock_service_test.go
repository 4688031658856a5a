package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"countdown_timer/internal/models"
	"countdown_timer/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockTimer returns a canned state and error and records every call.
type mockTimer struct {
	mu sync.Mutex

	state    models.TimerState
	err      error
	shareURL string
	shareErr error

	calls         []string
	lastConfigure int
	lastMinutes   string
	lastSeconds   string
	lastPreset    int
	lastOpen      string
	lastSound     *bool
	alarmErrors   []error

	updates      chan models.TimerState
	unsubscribed int
}

func (m *mockTimer) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *mockTimer) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockTimer) result(call string) (models.TimerState, error) {
	m.record(call)
	return m.state, m.err
}

func (m *mockTimer) Configure(_ context.Context, seconds int) (models.TimerState, error) {
	m.lastConfigure = seconds
	return m.result("configure")
}
func (m *mockTimer) ConfigureInputs(_ context.Context, minutes, seconds string) (models.TimerState, error) {
	m.lastMinutes, m.lastSeconds = minutes, seconds
	return m.result("inputs")
}
func (m *mockTimer) ApplyPreset(_ context.Context, seconds int) (models.TimerState, error) {
	m.lastPreset = seconds
	return m.result("preset")
}
func (m *mockTimer) Start(context.Context) (models.TimerState, error)  { return m.result("start") }
func (m *mockTimer) Pause(context.Context) (models.TimerState, error)  { return m.result("pause") }
func (m *mockTimer) Resume(context.Context) (models.TimerState, error) { return m.result("resume") }
func (m *mockTimer) Reset(context.Context) (models.TimerState, error)  { return m.result("reset") }
func (m *mockTimer) Toggle(context.Context) (models.TimerState, error) { return m.result("toggle") }

func (m *mockTimer) State(context.Context) models.TimerState {
	m.record("state")
	return m.state
}
func (m *mockTimer) SetSound(_ context.Context, on bool) models.TimerState {
	m.lastSound = &on
	m.record("set_sound")
	return m.state
}
func (m *mockTimer) ToggleSound(context.Context) models.TimerState {
	m.record("toggle_sound")
	return m.state
}
func (m *mockTimer) ShareLink(context.Context) (string, error) {
	m.record("share")
	return m.shareURL, m.shareErr
}
func (m *mockTimer) Open(_ context.Context, raw string) (models.TimerState, error) {
	m.lastOpen = raw
	return m.result("open")
}
func (m *mockTimer) Subscribe(int) (<-chan models.TimerState, func()) {
	m.mu.Lock()
	if m.updates == nil {
		m.updates = make(chan models.TimerState, 8)
	}
	ch := m.updates
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		m.unsubscribed++
		m.mu.Unlock()
	}
}
func (m *mockTimer) AlarmFailed(err error) {
	m.mu.Lock()
	m.alarmErrors = append(m.alarmErrors, err)
	m.mu.Unlock()
}

type mockEventLog struct {
	resp      []models.TimerEvent
	err       error
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	lastLimit int
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.TimerEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastLimit = f.Limit
	return m.resp, m.err
}

type mockPresets struct {
	presets []models.Preset
}

func (m *mockPresets) All() []models.Preset { return m.presets }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, cfg)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
