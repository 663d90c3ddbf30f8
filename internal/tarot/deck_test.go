package tarot

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDeckFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("parses cards with meanings and metadata", func(t *testing.T) {
		path := writeDeckFile(t, "Index,Card,Chinese Name,Upright Meaning,Reversed Meaning\n"+
			"0,The Fool,愚者,New beginnings,Recklessness\n"+
			"1,The Magician,魔术师,Willpower,Manipulation\n")

		deck, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, deck.Size())

		card, ok := deck.Card(0)
		require.True(t, ok)
		assert.Equal(t, "The Fool", card.Name)
		assert.Equal(t, "New beginnings", card.Upright)
		assert.Equal(t, "Recklessness", card.Reversed)
		assert.Equal(t, "愚者", card.Meta["chinese_name"])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})

	t.Run("missing index column", func(t *testing.T) {
		path := writeDeckFile(t, "Card,Upright Meaning\nThe Fool,New beginnings\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"Index"`)
	})

	t.Run("missing card column", func(t *testing.T) {
		path := writeDeckFile(t, "Index,Upright Meaning\n0,New beginnings\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"Card"`)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeDeckFile(t, "")

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeDeckFile(t, "Index,Card\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no usable card rows")
	})

	t.Run("rows with unparsable index are skipped", func(t *testing.T) {
		path := writeDeckFile(t, "Index,Card\nnot-a-number,Ghost\n7,The Chariot\n")

		deck, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, deck.Size())
		assert.Equal(t, []int{7}, deck.Indices())
	})

	t.Run("duplicate index keeps the last row", func(t *testing.T) {
		path := writeDeckFile(t, "Index,Card\n3,The Empress\n3,The Emperor\n")

		deck, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 1, deck.Size())

		card, ok := deck.Card(3)
		require.True(t, ok)
		assert.Equal(t, "The Emperor", card.Name)
	})

	t.Run("header cells are trimmed", func(t *testing.T) {
		path := writeDeckFile(t, "Index ,Card \n0,The Fool\n")

		deck, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, deck.Size())
	})
}

func testDeck(t *testing.T, n int) *Deck {
	t.Helper()
	cards := make(map[int]Card, n)
	indices := make([]int, n)
	for i := 0; i < n; i++ {
		cards[i] = Card{Index: i, Name: "card-" + strconv.Itoa(i), Upright: "up", Reversed: "down"}
		indices[i] = i
	}
	return &Deck{cards: cards, indices: indices}
}

func TestDeckDraw(t *testing.T) {
	t.Run("never returns duplicates in one draw", func(t *testing.T) {
		deck := testDeck(t, 10)

		cards, err := deck.Draw(nil, 10)
		require.NoError(t, err)

		seen := make(map[int]struct{})
		for _, c := range cards {
			_, dup := seen[c.Index]
			assert.False(t, dup, "index %d returned twice", c.Index)
			seen[c.Index] = struct{}{}
		}
	})

	t.Run("respects the exclusion set", func(t *testing.T) {
		deck := testDeck(t, 5)
		excluding := map[int]struct{}{0: {}, 1: {}, 2: {}}

		cards, err := deck.Draw(excluding, 2)
		require.NoError(t, err)
		require.Len(t, cards, 2)
		for _, c := range cards {
			assert.NotContains(t, excluding, c.Index)
		}
	})

	t.Run("exhausted when fewer unseen cards than requested", func(t *testing.T) {
		deck := testDeck(t, 2)
		excluding := map[int]struct{}{0: {}}

		_, err := deck.Draw(excluding, 3)
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("deck smaller than request is exhausted even with no exclusions", func(t *testing.T) {
		deck := testDeck(t, 2)

		_, err := deck.Draw(nil, 3)
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("non-positive count is rejected", func(t *testing.T) {
		deck := testDeck(t, 2)

		_, err := deck.Draw(nil, 0)
		assert.Error(t, err)
	})
}

func TestMetaKey(t *testing.T) {
	assert.Equal(t, "chinese_name", metaKey("Chinese Name"))
	assert.Equal(t, "japanese_name", metaKey("Japanese Name"))
	assert.Equal(t, "suit", metaKey("Suit"))
}
