package tarot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shiikun-cn/tarot-mcp/internal/events"
	"github.com/shiikun-cn/tarot-mcp/internal/session"
)

// Orientation is the facing of a drawn card.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// threeCardRoles label the positions of a three-card spread, in draw
// order.
var threeCardRoles = [...]string{"past", "present", "future"}

// DrawnCard is a card as dealt to a session: the underlying card plus
// a random orientation, the orientation's meaning, and the spread role
// when part of a three-card spread.
type DrawnCard struct {
	Card
	Orientation Orientation
	Meaning     string
	Role        string
}

// MarshalJSON flattens card metadata into the top-level object, so a
// deck column like "Chinese Name" appears as "chinese_name" next to
// "index" and "name".
func (c DrawnCard) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Meta)+5)
	for k, v := range c.Meta {
		out[k] = v
	}
	out["index"] = c.Index
	out["name"] = c.Name
	out["orientation"] = c.Orientation
	out["meaning"] = c.Meaning
	if c.Role != "" {
		out["role"] = c.Role
	}
	return json.Marshal(out)
}

// DrawOptions control exhaustion handling for a single draw.
type DrawOptions struct {
	// ResetIfExhausted clears the session's seen-set and redraws from
	// the full deck instead of failing with ErrExhausted.
	ResetIfExhausted bool
}

// Reader deals cards from a deck while tracking per-session seen-sets.
type Reader struct {
	deck     *Deck
	sessions session.Store
	events   events.Publisher
}

func NewReader(deck *Deck, sessions session.Store, publisher events.Publisher) *Reader {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Reader{
		deck:     deck,
		sessions: sessions,
		events:   publisher,
	}
}

// DeckSize returns the size of the underlying deck.
func (r *Reader) DeckSize() int {
	return r.deck.Size()
}

// DrawOne deals a single card the session has not seen yet.
func (r *Reader) DrawOne(ctx context.Context, sessionID string, opts DrawOptions) (DrawnCard, error) {
	cards, err := r.draw(ctx, sessionID, 1, opts)
	if err != nil {
		return DrawnCard{}, err
	}
	return cards[0], nil
}

// DrawThree deals a three-card spread with past/present/future roles.
func (r *Reader) DrawThree(ctx context.Context, sessionID string, opts DrawOptions) ([]DrawnCard, error) {
	cards, err := r.draw(ctx, sessionID, 3, opts)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].Role = threeCardRoles[i]
	}
	return cards, nil
}

// Reset clears the session's seen-set so the full deck is available
// again.
func (r *Reader) Reset(ctx context.Context, sessionID string) error {
	if err := r.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

func (r *Reader) draw(ctx context.Context, sessionID string, n int, opts DrawOptions) ([]DrawnCard, error) {
	seen, err := r.sessions.Seen(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cards, err := r.deck.Draw(seen, n)
	if errors.Is(err, ErrExhausted) && opts.ResetIfExhausted {
		if err := r.sessions.Clear(ctx, sessionID); err != nil {
			return nil, err
		}
		cards, err = r.deck.Draw(nil, n)
	}
	if err != nil {
		return nil, err
	}

	indices := make([]int, len(cards))
	for i, c := range cards {
		indices[i] = c.Index
	}

	if err := r.sessions.MarkSeen(ctx, sessionID, indices); err != nil {
		return nil, err
	}

	drawn := make([]DrawnCard, len(cards))
	for i, c := range cards {
		drawn[i] = orient(c)
	}

	r.publishDraw(sessionID, n, indices)

	return drawn, nil
}

// orient assigns a uniformly random facing and picks the matching
// meaning column.
func orient(c Card) DrawnCard {
	orientation := Upright
	meaning := c.Upright
	if rand.IntN(2) == 1 {
		orientation = Reversed
		meaning = c.Reversed
	}
	return DrawnCard{Card: c, Orientation: orientation, Meaning: meaning}
}

func (r *Reader) publishDraw(sessionID string, n int, indices []int) {
	ev := events.DrawEvent{
		SessionID: sessionID,
		Spread:    SpreadName(n),
		Indices:   indices,
		DrawnAt:   time.Now().UTC(),
	}
	if err := r.events.PublishDraw(ev); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to publish draw event")
	}
}

// SpreadName names a draw size for events and metrics labels.
func SpreadName(n int) string {
	switch n {
	case 1:
		return "one"
	case 3:
		return "three"
	default:
		return strconv.Itoa(n)
	}
}
