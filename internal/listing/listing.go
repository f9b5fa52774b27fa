// Package listing filters and orders cards for the searchable card table.
package listing

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// AllDecks is the deck filter value that disables deck filtering.
const AllDecks = "all"

// SortKey names the column a listing is ordered by.
type SortKey string

const (
	ByTitle       SortKey = "title"
	ByDeck        SortKey = "deck"
	ByNextDueDate SortKey = "nextDueDate"
)

// Direction is the sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case ByTitle, ByDeck, ByNextDueDate:
		return k, nil
	case "":
		return ByNextDueDate, nil
	}
	return "", fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidInput, s)
}

// ParseDirection validates a direction name. Empty means ascending.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case Asc, Desc:
		return d, nil
	case "":
		return Asc, nil
	}
	return "", fmt.Errorf("%w: unknown sort direction %q", domain.ErrInvalidInput, s)
}

// SortConfig is the active sort column and direction.
type SortConfig struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort orders by due date, soonest first.
func DefaultSort() SortConfig {
	return SortConfig{Key: ByNextDueDate, Direction: Asc}
}

// Toggle returns the sort config after the user selects key: the active key
// flips direction, any other key starts ascending. An empty direction counts
// as ascending, as in Search.
func (c SortConfig) Toggle(key SortKey) SortConfig {
	if c.Key == key && c.Direction != Desc {
		return SortConfig{Key: key, Direction: Desc}
	}
	return SortConfig{Key: key, Direction: Asc}
}

// Query describes a card table view.
type Query struct {
	Text   string     `json:"text"`
	DeckID string     `json:"deckId"` // AllDecks or "" for every deck.
	Sort   SortConfig `json:"sort"`
}

// Matches reports whether a card passes the text and deck filters.
func (q Query) Matches(c domain.Card) bool {
	if q.DeckID != "" && q.DeckID != AllDecks && c.DeckID != q.DeckID {
		return false
	}
	if q.Text == "" {
		return true
	}
	needle := strings.ToLower(q.Text)
	return strings.Contains(strings.ToLower(c.Title), needle) ||
		strings.Contains(strings.ToLower(c.Content), needle)
}

// Search filters cards by q and orders them by q.Sort. The input slice is
// left untouched; equal elements keep their input order.
//
// Sorting by deck compares raw deck ids, not resolved deck names.
func Search(cards []domain.Card, q Query) []domain.Card {
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if q.Matches(c) {
			out = append(out, c)
		}
	}

	cmp := comparator(q.Sort.Key)
	desc := q.Sort.Direction == Desc
	slices.SortStableFunc(out, func(a, b domain.Card) int {
		if desc {
			return -cmp(a, b)
		}
		return cmp(a, b)
	})
	return out
}

func comparator(key SortKey) func(a, b domain.Card) int {
	switch key {
	case ByTitle:
		col := collate.New(language.English)
		return func(a, b domain.Card) int { return col.CompareString(a.Title, b.Title) }
	case ByDeck:
		col := collate.New(language.English)
		return func(a, b domain.Card) int { return col.CompareString(a.DeckID, b.DeckID) }
	default:
		return func(a, b domain.Card) int { return a.NextDueDate.Compare(b.NextDueDate) }
	}
}
