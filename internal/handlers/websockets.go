package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"countdown_timer/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
	updateBuffer     = 16
	replyBuffer      = 4
)

// Envelope types.
const (
	envState = "state"
	envError = "error"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// wsCommand is a control sent by a display, either as an action name or as
// the keyboard key that triggered it.
type wsCommand struct {
	Action string `json:"action,omitempty"`
	Key    string `json:"key,omitempty"`
}

// Upgrader for HTTP -> WebSocket.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Timer stream
// @Description  WebSocket. Sends a state envelope on connect, on every tick and transition, and every ?interval (default 1s). Accepts {"key":"Space"} (start/pause), {"key":"KeyR"} (reset) or {"action":"toggle|start|pause|resume|reset"}. When auth is enabled, pass ?token= to send commands.
// @Tags         timer
// @Param        interval     query  string  false  "Resync interval, e.g. 500ms (max 10s)"
// @Param        interval_ms  query  int     false  "Resync interval in milliseconds"
// @Param        token        query  string  false  "Bearer token allowing commands"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)
	canControl := h.wsCanControl(c)
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	updates, unsubscribe := h.services.Timer.Subscribe(updateBuffer)
	defer unsubscribe()

	// Only this goroutine writes to conn; the reader hands replies over.
	replies := make(chan wsEnvelope, replyBuffer)
	done := make(chan struct{})
	go h.startReader(ctx, conn, canControl, replies, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	if err := h.sendState(ctx, conn); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEnvelope(conn, wsEnvelope{Type: envState, Data: st}); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case env := <-replies:
			if err := writeEnvelope(conn, env); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendState(ctx, conn); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

// wsCanControl reports whether this connection may send commands.
func (h *Handler) wsCanControl(c *gin.Context) bool {
	if !h.cfg.AuthEnabled {
		return true
	}
	token := c.Query("token")
	if token == "" {
		return false
	}
	_, err := h.services.ParseToken(token)
	return err == nil
}

// commandAction maps a command onto a timer action; "" means unknown.
func commandAction(cmd wsCommand) string {
	switch a := strings.ToLower(strings.TrimSpace(cmd.Action)); a {
	case "toggle", "start", "pause", "resume", "reset":
		return a
	}
	switch cmd.Key {
	case "Space", " ", "Spacebar":
		return "toggle"
	case "KeyR", "r", "R":
		return "reset"
	}
	return ""
}

// runCommand applies a timer action and returns the resulting state.
func (h *Handler) runCommand(ctx context.Context, action string) (models.TimerState, error) {
	t := h.services.Timer
	switch action {
	case "start":
		return t.Start(ctx)
	case "pause":
		return t.Pause(ctx)
	case "resume":
		return t.Resume(ctx)
	case "reset":
		return t.Reset(ctx)
	default:
		return t.Toggle(ctx)
	}
}

// startReader drains incoming messages, runs commands and detects closure.
// State changes reach the client through the subscription; only failures
// are answered directly.
func (h *Handler) startReader(ctx context.Context, conn *websocket.Conn, canControl bool, replies chan<- wsEnvelope, done chan<- struct{}) {
	defer close(done)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			reply(replies, wsEnvelope{Type: envError, Error: "invalid command"})
			continue
		}
		action := commandAction(cmd)
		switch {
		case action == "":
			reply(replies, wsEnvelope{Type: envError, Error: "unknown command"})
			continue
		case !canControl:
			reply(replies, wsEnvelope{Type: envError, Error: "commands require a valid token"})
			continue
		}

		if st, err := h.runCommand(ctx, action); err != nil {
			reply(replies, wsEnvelope{Type: envError, Data: st, Error: err.Error()})
		}
	}
}

// reply never blocks the reader; a backed-up writer loses the reply.
func reply(replies chan<- wsEnvelope, env wsEnvelope) {
	select {
	case replies <- env:
	default:
	}
}

// sendState writes the current, resynchronised state.
func (h *Handler) sendState(ctx context.Context, conn *websocket.Conn) error {
	return writeEnvelope(conn, wsEnvelope{Type: envState, Data: h.services.Timer.State(ctx)})
}

func writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
