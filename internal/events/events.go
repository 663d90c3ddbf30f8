package events

import (
	"time"
)

// DrawEvent describes one completed draw.
type DrawEvent struct {
	SessionID string    `json:"session_id"`
	Spread    string    `json:"spread"`
	Indices   []int     `json:"indices"`
	DrawnAt   time.Time `json:"drawn_at"`
}

// Publisher emits draw events for downstream consumers. Publishing is
// best-effort: callers log failures and keep serving.
type Publisher interface {
	PublishDraw(ev DrawEvent) error
}

// Nop returns a publisher that drops every event. Used when no broker
// is configured.
func Nop() Publisher { return nopPublisher{} }

type nopPublisher struct{}

func (nopPublisher) PublishDraw(DrawEvent) error { return nil }
