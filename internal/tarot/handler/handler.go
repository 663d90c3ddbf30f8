package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shiikun-cn/tarot-mcp/internal/metrics"
	"github.com/shiikun-cn/tarot-mcp/internal/session"
	"github.com/shiikun-cn/tarot-mcp/internal/tarot"
)

var errMissingSession = errors.New("missing session id")

type Handler struct {
	reader  *tarot.Reader
	metrics *metrics.Metrics
}

func NewHandler(reader *tarot.Reader, m *metrics.Metrics) *Handler {
	return &Handler{
		reader:  reader,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/draw_one", h.drawOne)
	r.POST("/draw_one", h.drawOne)
	r.GET("/draw_three", h.drawThree)
	r.POST("/draw_three", h.drawThree)
	r.POST("/reset_session", h.resetSession)
	r.POST("/new_session", h.newSession)
}

// drawRequest is the optional JSON body accepted by the draw and reset
// endpoints. Everything in it can also arrive as query parameters.
type drawRequest struct {
	SessionID        string `json:"session_id"`
	Session          string `json:"session"`
	ResetIfExhausted bool   `json:"reset_if_exhausted"`
}

func (h *Handler) drawOne(c *gin.Context) {
	sessionID, opts, ok := h.drawParams(c)
	if !ok {
		return
	}

	start := time.Now()
	card, err := h.reader.DrawOne(c.Request.Context(), sessionID, opts)
	h.observeDraw(1, start, err)
	if err != nil {
		h.renderDrawError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"card":       card,
	})
}

func (h *Handler) drawThree(c *gin.Context) {
	sessionID, opts, ok := h.drawParams(c)
	if !ok {
		return
	}

	start := time.Now()
	cards, err := h.reader.DrawThree(c.Request.Context(), sessionID, opts)
	h.observeDraw(3, start, err)
	if err != nil {
		h.renderDrawError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"cards":      cards,
	})
}

func (h *Handler) resetSession(c *gin.Context) {
	sessionID, _, ok := h.drawParams(c)
	if !ok {
		return
	}

	if err := h.reader.Reset(c.Request.Context(), sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to reset session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
		return
	}

	h.metrics.SessionResetsTotal.Inc()

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"status":     "cleared",
	})
}

func (h *Handler) newSession(c *gin.Context) {
	sessionID, err := session.GenerateID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session id")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate session id"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID})
}

// drawParams resolves the session id and draw options from the JSON
// body and query string. The body wins for the session id; the reset
// flag can be enabled from either source. On failure the error
// response has already been written and ok is false.
func (h *Handler) drawParams(c *gin.Context) (string, tarot.DrawOptions, bool) {
	var req drawRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return "", tarot.DrawOptions{}, false
		}
	}

	sessionID := firstNonEmpty(
		req.SessionID,
		req.Session,
		c.Query("session"),
		c.Query("session_id"),
	)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingSession.Error()})
		return "", tarot.DrawOptions{}, false
	}

	opts := tarot.DrawOptions{ResetIfExhausted: req.ResetIfExhausted}
	if q := c.Query("reset_if_exhausted"); q != "" {
		if b, err := strconv.ParseBool(q); err == nil && b {
			opts.ResetIfExhausted = true
		}
	}

	return sessionID, opts, true
}

func (h *Handler) renderDrawError(c *gin.Context, sessionID string, err error) {
	if errors.Is(err, tarot.ErrExhausted) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	log.Error().Err(err).Str("session_id", sessionID).Msg("draw failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
}

func (h *Handler) observeDraw(n int, start time.Time, err error) {
	spread := tarot.SpreadName(n)

	status := "ok"
	switch {
	case errors.Is(err, tarot.ErrExhausted):
		status = "exhausted"
	case err != nil:
		status = "error"
	}

	h.metrics.DrawsTotal.WithLabelValues(spread, status).Inc()
	h.metrics.DrawDuration.WithLabelValues(spread).Observe(time.Since(start).Seconds())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
