package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"countdown_timer/internal/engine"
	"countdown_timer/internal/models"
	"countdown_timer/internal/share"

	"github.com/gin-gonic/gin"
)

// Action names echoed in the "status" field of successful control calls.
const (
	statusOK         = "ok"
	statusConfigured = "configured"
	statusStarted    = "started"
	statusPaused     = "paused"
	statusResumed    = "resumed"
	statusReset      = "reset"
	statusToggled    = "toggled"
	statusSound      = "sound_updated"

	errShareLink       = "failed to build share link"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondTimer maps a control result onto HTTP. Rejected calls still carry
// the current state so a client can resynchronise.
func (h *Handler) respondTimer(c *gin.Context, status string, st models.TimerState, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": status, "state": st})
	case errors.Is(err, engine.ErrInvalidDuration):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "state": st})
	case errors.Is(err, engine.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": st})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "timer operation failed", "timer_"+status+"_failed", err)
	}
}

// inputField accepts a form value sent either as a JSON string or number.
type inputField string

func (f *inputField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = inputField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = inputField(n.String())
	return nil
}

// ConfigureRequest sets the duration in seconds.
type ConfigureRequest struct {
	Seconds int `json:"seconds" example:"300"`
}

// InputsRequest mirrors the minutes and seconds form fields.
type InputsRequest struct {
	Minutes inputField `json:"minutes" swaggertype:"string" example:"5"`
	Seconds inputField `json:"seconds" swaggertype:"string" example:"0"`
}

// PresetRequest picks a quick-pick duration.
type PresetRequest struct {
	Seconds int `json:"seconds" binding:"required" example:"1500"`
}

// SoundRequest sets the sound preference; omit enabled to toggle.
type SoundRequest struct {
	Enabled *bool `json:"enabled,omitempty" example:"true"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Open a shared link
// @Description  Applies ?t= (seconds, m:ss or h:mm:ss) unless a countdown is running. Unusable values fall back to the default duration.
// @Tags         timer
// @Produce      json
// @Param        t    query     string  false  "Shared duration"  example(300)
// @Success      200  {object}  map[string]interface{}  "state, share_url"
// @Failure      500  {object}  map[string]string
// @Router       / [get]
func (h *Handler) openShared(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Timer.Open(ctx, strings.TrimSpace(c.Query(share.QueryKey)))
	if err != nil {
		h.respondTimer(c, "open", st, err)
		return
	}
	link, err := h.services.Timer.ShareLink(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errShareLink, "timer_share_link_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": st, "share_url": link})
}

// @Summary      Get timer state
// @Tags         timer
// @Produce      json
// @Success      200  {object}  models.TimerState
// @Router       /api/v1/timer/state [get]
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Timer.State(c.Request.Context()))
}

// @Summary      Get a shareable link for the current duration
// @Tags         timer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "url, seconds"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/timer/share [get]
func (h *Handler) getShareLink(c *gin.Context) {
	ctx := c.Request.Context()
	link, err := h.services.Timer.ShareLink(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errShareLink, "timer_share_link_failed", err)
		return
	}
	st := h.services.Timer.State(ctx)
	c.JSON(http.StatusOK, gin.H{"url": link, "seconds": st.TotalSeconds})
}

// @Summary      Set duration
// @Description  Stops a running countdown and returns to IDLE with the new duration (1..86400 s).
// @Tags         timer
// @Accept       json
// @Produce      json
// @Param        body  body      ConfigureRequest  true  "Duration"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/timer/configure [post]
// @Security     BearerAuth
func (h *Handler) configure(c *gin.Context) {
	var req ConfigureRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	st, err := h.services.Timer.Configure(c.Request.Context(), req.Seconds)
	h.respondTimer(c, statusConfigured, st, err)
}

// @Summary      Set duration from form fields
// @Description  Minutes clamp to 0..999 and seconds to 0..59; non-numeric values count as zero.
// @Tags         timer
// @Accept       json
// @Produce      json
// @Param        body  body      InputsRequest  true  "Form fields"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/timer/inputs [post]
// @Security     BearerAuth
func (h *Handler) configureInputs(c *gin.Context) {
	var req InputsRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	st, err := h.services.Timer.ConfigureInputs(c.Request.Context(), string(req.Minutes), string(req.Seconds))
	h.respondTimer(c, statusConfigured, st, err)
}

// @Summary      Apply a preset
// @Tags         timer
// @Accept       json
// @Produce      json
// @Param        body  body      PresetRequest  true  "Preset"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/timer/preset [post]
// @Security     BearerAuth
func (h *Handler) applyPreset(c *gin.Context) {
	var req PresetRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	st, err := h.services.Timer.ApplyPreset(c.Request.Context(), req.Seconds)
	h.respondTimer(c, statusConfigured, st, err)
}

// @Summary      Start countdown
// @Tags         timer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "error, state"
// @Router       /api/v1/timer/start [post]
// @Security     BearerAuth
func (h *Handler) start(c *gin.Context) {
	st, err := h.services.Timer.Start(c.Request.Context())
	h.respondTimer(c, statusStarted, st, err)
}

// @Summary      Pause countdown
// @Tags         timer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "error, state"
// @Router       /api/v1/timer/pause [post]
// @Security     BearerAuth
func (h *Handler) pause(c *gin.Context) {
	st, err := h.services.Timer.Pause(c.Request.Context())
	h.respondTimer(c, statusPaused, st, err)
}

// @Summary      Resume countdown
// @Tags         timer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "error, state"
// @Router       /api/v1/timer/resume [post]
// @Security     BearerAuth
func (h *Handler) resume(c *gin.Context) {
	st, err := h.services.Timer.Resume(c.Request.Context())
	h.respondTimer(c, statusResumed, st, err)
}

// @Summary      Reset countdown
// @Tags         timer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/timer/reset [post]
// @Security     BearerAuth
func (h *Handler) reset(c *gin.Context) {
	st, err := h.services.Timer.Reset(c.Request.Context())
	h.respondTimer(c, statusReset, st, err)
}

// @Summary      Start, pause or resume
// @Description  IDLE starts, RUNNING pauses, PAUSED resumes.
// @Tags         timer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "error, state"
// @Router       /api/v1/timer/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggle(c *gin.Context) {
	st, err := h.services.Timer.Toggle(c.Request.Context())
	h.respondTimer(c, statusToggled, st, err)
}

// @Summary      Set or toggle the alarm sound
// @Tags         timer
// @Accept       json
// @Produce      json
// @Param        body  body      SoundRequest  false  "Sound preference"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/timer/sound [post]
// @Security     BearerAuth
func (h *Handler) setSound(c *gin.Context) {
	ctx := c.Request.Context()

	var req SoundRequest
	if c.Request.ContentLength != 0 {
		if !h.bindJSONOrBadRequest(c, &req) {
			return
		}
	}

	var st models.TimerState
	if req.Enabled != nil {
		st = h.services.Timer.SetSound(ctx, *req.Enabled)
	} else {
		st = h.services.Timer.ToggleSound(ctx)
	}
	h.respondTimer(c, statusSound, st, nil)
}

// @Summary      List presets
// @Tags         timer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, presets"
// @Router       /api/v1/presets [get]
func (h *Handler) getPresets(c *gin.Context) {
	presets := h.services.Presets.All()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(presets),
		"presets": presets,
	})
}

// parseLimit reads an optional non-negative integer query value.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid 'limit'; use a non-negative integer")
	}
	return n, nil
}
