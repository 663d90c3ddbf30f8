package tarot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Columns the loader recognizes. Index and Card are required; any
// other column passes through as card metadata.
const (
	colIndex    = "Index"
	colCard     = "Card"
	colUpright  = "Upright Meaning"
	colReversed = "Reversed Meaning"
)

// ErrExhausted is returned when a draw asks for more unseen cards than
// the session has left.
var ErrExhausted = errors.New("not enough unseen cards remaining for session")

// Deck is the full set of cards loaded from the source table, keyed by
// card index. Immutable after Load; safe for concurrent readers.
type Deck struct {
	cards   map[int]Card
	indices []int // ascending
}

// Load parses a deck CSV. The header must contain Index and Card
// columns; rows whose Index cell is not an integer are skipped, and a
// duplicated index keeps the last row. A deck with no usable rows is
// an error: the service must not start without cards.
func Load(path string) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("deck: failed to open %s: %w", path, err)
	}
	defer f.Close()

	d, err := parseDeck(f)
	if err != nil {
		return nil, fmt.Errorf("deck: failed to load %s: %w", path, err)
	}

	return d, nil
}

func parseDeck(r io.Reader) (*Deck, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(h)] = i
	}

	idxCol, ok := columns[colIndex]
	if !ok {
		return nil, fmt.Errorf("missing required column %q", colIndex)
	}
	nameCol, ok := columns[colCard]
	if !ok {
		return nil, fmt.Errorf("missing required column %q", colCard)
	}

	cards := make(map[int]Card)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		index, err := strconv.Atoi(strings.TrimSpace(row[idxCol]))
		if err != nil {
			// Unparsable index: not a card row.
			continue
		}

		card := Card{
			Index: index,
			Name:  strings.TrimSpace(row[nameCol]),
			Meta:  make(map[string]string),
		}

		for name, col := range columns {
			value := strings.TrimSpace(row[col])
			switch name {
			case colIndex, colCard:
			case colUpright:
				card.Upright = value
			case colReversed:
				card.Reversed = value
			default:
				card.Meta[metaKey(name)] = value
			}
		}

		cards[index] = card
	}

	if len(cards) == 0 {
		return nil, errors.New("no usable card rows")
	}

	indices := make([]int, 0, len(cards))
	for index := range cards {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	return &Deck{cards: cards, indices: indices}, nil
}

// metaKey normalizes a header cell into a JSON-friendly metadata key:
// "Chinese Name" becomes "chinese_name".
func metaKey(header string) string {
	return strings.ReplaceAll(strings.ToLower(header), " ", "_")
}

// Size returns the number of cards in the deck.
func (d *Deck) Size() int {
	return len(d.indices)
}

// Card returns the card with the given index.
func (d *Deck) Card(index int) (Card, bool) {
	c, ok := d.cards[index]
	return c, ok
}

// Indices returns the deck's card indices in ascending order.
func (d *Deck) Indices() []int {
	out := make([]int, len(d.indices))
	copy(out, d.indices)
	return out
}

// Draw returns n cards whose indices are not in excluding, chosen
// uniformly at random without replacement. It returns ErrExhausted
// when fewer than n unseen cards remain.
func (d *Deck) Draw(excluding map[int]struct{}, n int) ([]Card, error) {
	if n <= 0 {
		return nil, fmt.Errorf("deck: draw count must be positive, got %d", n)
	}

	remaining := make([]int, 0, len(d.indices))
	for _, index := range d.indices {
		if _, seen := excluding[index]; !seen {
			remaining = append(remaining, index)
		}
	}

	if len(remaining) < n {
		return nil, fmt.Errorf("%w: requested %d, %d left", ErrExhausted, n, len(remaining))
	}

	rand.Shuffle(len(remaining), func(i, j int) {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	})

	cards := make([]Card, n)
	for i, index := range remaining[:n] {
		cards[i] = d.cards[index]
	}

	return cards, nil
}
