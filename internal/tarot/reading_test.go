package tarot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiikun-cn/tarot-mcp/internal/events"
	"github.com/shiikun-cn/tarot-mcp/internal/session"
)

type capturePublisher struct {
	published []events.DrawEvent
}

func (p *capturePublisher) PublishDraw(ev events.DrawEvent) error {
	p.published = append(p.published, ev)
	return nil
}

func newTestReader(t *testing.T, deckSize int) (*Reader, *session.MemoryStore, *capturePublisher) {
	t.Helper()
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	publisher := &capturePublisher{}
	return NewReader(testDeck(t, deckSize), store, publisher), store, publisher
}

func TestReaderDrawOne(t *testing.T) {
	ctx := context.Background()

	t.Run("orientation and meaning match", func(t *testing.T) {
		reader, _, _ := newTestReader(t, 5)

		card, err := reader.DrawOne(ctx, "abc", DrawOptions{})
		require.NoError(t, err)

		switch card.Orientation {
		case Upright:
			assert.Equal(t, card.Upright, card.Meaning)
		case Reversed:
			assert.Equal(t, card.Reversed, card.Meaning)
		default:
			t.Fatalf("unexpected orientation %q", card.Orientation)
		}
		assert.Empty(t, card.Role)
	})

	t.Run("never repeats until exhaustion", func(t *testing.T) {
		reader, _, _ := newTestReader(t, 5)

		drawn := make(map[int]struct{})
		for i := 0; i < 5; i++ {
			card, err := reader.DrawOne(ctx, "abc", DrawOptions{})
			require.NoError(t, err)

			_, repeat := drawn[card.Index]
			assert.False(t, repeat, "index %d repeated before exhaustion", card.Index)
			drawn[card.Index] = struct{}{}
		}

		_, err := reader.DrawOne(ctx, "abc", DrawOptions{})
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("sessions are independent", func(t *testing.T) {
		reader, _, _ := newTestReader(t, 1)

		_, err := reader.DrawOne(ctx, "a", DrawOptions{})
		require.NoError(t, err)

		_, err = reader.DrawOne(ctx, "b", DrawOptions{})
		assert.NoError(t, err)
	})
}

func TestReaderDrawThree(t *testing.T) {
	ctx := context.Background()

	t.Run("two spreads yield six distinct indices", func(t *testing.T) {
		reader, store, _ := newTestReader(t, 78)

		first, err := reader.DrawThree(ctx, "abc", DrawOptions{})
		require.NoError(t, err)
		require.Len(t, first, 3)

		second, err := reader.DrawThree(ctx, "abc", DrawOptions{})
		require.NoError(t, err)
		require.Len(t, second, 3)

		indices := make(map[int]struct{})
		for _, c := range append(first, second...) {
			indices[c.Index] = struct{}{}
		}
		assert.Len(t, indices, 6)

		seen, err := store.Seen(ctx, "abc")
		require.NoError(t, err)
		assert.Len(t, seen, 6)
	})

	t.Run("roles are past present future in order", func(t *testing.T) {
		reader, _, _ := newTestReader(t, 10)

		cards, err := reader.DrawThree(ctx, "abc", DrawOptions{})
		require.NoError(t, err)
		require.Len(t, cards, 3)

		assert.Equal(t, "past", cards[0].Role)
		assert.Equal(t, "present", cards[1].Role)
		assert.Equal(t, "future", cards[2].Role)
	})

	t.Run("exhausted after a partial draw on a small deck", func(t *testing.T) {
		reader, _, _ := newTestReader(t, 2)

		_, err := reader.DrawOne(ctx, "x", DrawOptions{})
		require.NoError(t, err)

		_, err = reader.DrawThree(ctx, "x", DrawOptions{})
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("reset_if_exhausted clears and redraws from the full deck", func(t *testing.T) {
		reader, store, _ := newTestReader(t, 3)

		_, err := reader.DrawThree(ctx, "x", DrawOptions{})
		require.NoError(t, err)

		cards, err := reader.DrawThree(ctx, "x", DrawOptions{ResetIfExhausted: true})
		require.NoError(t, err)
		assert.Len(t, cards, 3)

		seen, err := store.Seen(ctx, "x")
		require.NoError(t, err)
		assert.Len(t, seen, 3)
	})

	t.Run("reset_if_exhausted cannot stretch a deck smaller than the spread", func(t *testing.T) {
		reader, _, _ := newTestReader(t, 2)

		_, err := reader.DrawThree(ctx, "x", DrawOptions{ResetIfExhausted: true})
		assert.ErrorIs(t, err, ErrExhausted)
	})
}

func TestReaderSeenSetBounded(t *testing.T) {
	ctx := context.Background()
	reader, store, _ := newTestReader(t, 6)

	for i := 0; i < 2; i++ {
		_, err := reader.DrawThree(ctx, "abc", DrawOptions{})
		require.NoError(t, err)
	}

	seen, err := store.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(seen), reader.DeckSize())
}

func TestReaderReset(t *testing.T) {
	ctx := context.Background()
	reader, store, _ := newTestReader(t, 4)

	_, err := reader.DrawThree(ctx, "abc", DrawOptions{})
	require.NoError(t, err)

	require.NoError(t, reader.Reset(ctx, "abc"))

	seen, err := store.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestReaderPublishesDrawEvents(t *testing.T) {
	ctx := context.Background()
	reader, _, publisher := newTestReader(t, 10)

	_, err := reader.DrawOne(ctx, "abc", DrawOptions{})
	require.NoError(t, err)
	_, err = reader.DrawThree(ctx, "abc", DrawOptions{})
	require.NoError(t, err)

	require.Len(t, publisher.published, 2)
	assert.Equal(t, "one", publisher.published[0].Spread)
	assert.Len(t, publisher.published[0].Indices, 1)
	assert.Equal(t, "three", publisher.published[1].Spread)
	assert.Len(t, publisher.published[1].Indices, 3)
	assert.Equal(t, "abc", publisher.published[0].SessionID)
}

func TestDrawnCardJSON(t *testing.T) {
	card := DrawnCard{
		Card: Card{
			Index: 7,
			Name:  "The Chariot",
			Meta:  map[string]string{"chinese_name": "战车"},
		},
		Orientation: Upright,
		Meaning:     "Determination",
		Role:        "past",
	}

	data, err := json.Marshal(card)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, float64(7), out["index"])
	assert.Equal(t, "The Chariot", out["name"])
	assert.Equal(t, "upright", out["orientation"])
	assert.Equal(t, "Determination", out["meaning"])
	assert.Equal(t, "past", out["role"])
	assert.Equal(t, "战车", out["chinese_name"])
}

func TestDrawnCardJSONOmitsEmptyRole(t *testing.T) {
	card := DrawnCard{
		Card:        Card{Index: 0, Name: "The Fool"},
		Orientation: Reversed,
		Meaning:     "Recklessness",
	}

	data, err := json.Marshal(card)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotContains(t, out, "role")
}
