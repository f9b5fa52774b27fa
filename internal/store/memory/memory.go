// Package memory is an in-process Store backed by maps.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps everything in memory. Reads share a read lock; transactions
// hold the write lock for their whole duration.
type Store struct {
	mu sync.RWMutex
	d  *data
}

// New returns an empty Store.
func New() *Store {
	return &Store{d: newData()}
}

type data struct {
	cards     map[string]domain.Card
	cardOrder []string
	decks     map[string]domain.Deck
	deckOrder []string
	reviews   map[string][]domain.ReviewLog
}

func newData() *data {
	return &data{
		cards:   make(map[string]domain.Card),
		decks:   make(map[string]domain.Deck),
		reviews: make(map[string][]domain.ReviewLog),
	}
}

func (d *data) clone() *data {
	out := &data{
		cards:     make(map[string]domain.Card, len(d.cards)),
		cardOrder: slices.Clone(d.cardOrder),
		decks:     make(map[string]domain.Deck, len(d.decks)),
		deckOrder: slices.Clone(d.deckOrder),
		reviews:   make(map[string][]domain.ReviewLog, len(d.reviews)),
	}
	for k, v := range d.cards {
		out.cards[k] = v.Clone()
	}
	for k, v := range d.decks {
		out.decks[k] = v.Clone()
	}
	for k, v := range d.reviews {
		out.reviews[k] = slices.Clone(v)
	}
	return out
}

func (d *data) GetCard(_ context.Context, id string) (domain.Card, error) {
	c, ok := d.cards[id]
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: %s", domain.ErrCardNotFound, id)
	}
	return c.Clone(), nil
}

func (d *data) ListCards(_ context.Context) ([]domain.Card, error) {
	out := make([]domain.Card, 0, len(d.cardOrder))
	for _, id := range d.cardOrder {
		out = append(out, d.cards[id].Clone())
	}
	return out, nil
}

func (d *data) ListCardsByDeck(_ context.Context, deckID string) ([]domain.Card, error) {
	out := []domain.Card{}
	for _, id := range d.cardOrder {
		if c := d.cards[id]; c.DeckID == deckID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (d *data) PutCard(_ context.Context, c domain.Card) error {
	if _, ok := d.decks[c.DeckID]; !ok {
		return fmt.Errorf("%w: %s (card %s)", domain.ErrDeckNotFound, c.DeckID, c.ID)
	}
	if _, ok := d.cards[c.ID]; !ok {
		d.cardOrder = append(d.cardOrder, c.ID)
	}
	d.cards[c.ID] = c.Clone()
	return nil
}

func (d *data) DeleteCard(_ context.Context, id string) error {
	if _, ok := d.cards[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCardNotFound, id)
	}
	delete(d.cards, id)
	delete(d.reviews, id)
	d.cardOrder = slices.DeleteFunc(d.cardOrder, func(x string) bool { return x == id })
	return nil
}

func (d *data) GetDeck(_ context.Context, id string) (domain.Deck, error) {
	dk, ok := d.decks[id]
	if !ok {
		return domain.Deck{}, fmt.Errorf("%w: %s", domain.ErrDeckNotFound, id)
	}
	return dk.Clone(), nil
}

func (d *data) ListDecks(_ context.Context) ([]domain.Deck, error) {
	out := make([]domain.Deck, 0, len(d.deckOrder))
	for _, id := range d.deckOrder {
		out = append(out, d.decks[id].Clone())
	}
	return out, nil
}

func (d *data) PutDeck(_ context.Context, dk domain.Deck) error {
	if dk.ParentID != nil {
		if _, ok := d.decks[*dk.ParentID]; !ok {
			return fmt.Errorf("%w: %s (parent of %s)", domain.ErrDeckNotFound, *dk.ParentID, dk.ID)
		}
	}
	if _, ok := d.decks[dk.ID]; !ok {
		d.deckOrder = append(d.deckOrder, dk.ID)
	}
	d.decks[dk.ID] = dk.Clone()
	return nil
}

func (d *data) DeleteDeck(_ context.Context, id string) error {
	if _, ok := d.decks[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrDeckNotFound, id)
	}
	for _, c := range d.cards {
		if c.DeckID == id {
			return fmt.Errorf("%w: %s still holds card %s", domain.ErrDeckNotEmpty, id, c.ID)
		}
	}
	for _, other := range d.decks {
		if other.ParentID != nil && *other.ParentID == id {
			return fmt.Errorf("%w: %s still holds deck %s", domain.ErrDeckNotEmpty, id, other.ID)
		}
	}
	delete(d.decks, id)
	d.deckOrder = slices.DeleteFunc(d.deckOrder, func(x string) bool { return x == id })
	return nil
}

func (d *data) AppendReview(_ context.Context, l domain.ReviewLog) error {
	if _, ok := d.cards[l.CardID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCardNotFound, l.CardID)
	}
	d.reviews[l.CardID] = append(d.reviews[l.CardID], l)
	return nil
}

func (d *data) ListReviews(_ context.Context, cardID string) ([]domain.ReviewLog, error) {
	out := slices.Clone(d.reviews[cardID])
	if out == nil {
		out = []domain.ReviewLog{}
	}
	return out, nil
}

// Tx runs fn under the write lock and restores the previous state if fn fails.
func (s *Store) Tx(ctx context.Context, fn func(store.Repo) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	if err := fn(s.d); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) GetCard(ctx context.Context, id string) (domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.GetCard(ctx, id)
}

func (s *Store) ListCards(ctx context.Context) ([]domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.ListCards(ctx)
}

func (s *Store) ListCardsByDeck(ctx context.Context, deckID string) ([]domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.ListCardsByDeck(ctx, deckID)
}

func (s *Store) PutCard(ctx context.Context, c domain.Card) error {
	return s.Tx(ctx, func(r store.Repo) error { return r.PutCard(ctx, c) })
}

func (s *Store) DeleteCard(ctx context.Context, id string) error {
	return s.Tx(ctx, func(r store.Repo) error { return r.DeleteCard(ctx, id) })
}

func (s *Store) GetDeck(ctx context.Context, id string) (domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.GetDeck(ctx, id)
}

func (s *Store) ListDecks(ctx context.Context) ([]domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.ListDecks(ctx)
}

func (s *Store) PutDeck(ctx context.Context, d domain.Deck) error {
	return s.Tx(ctx, func(r store.Repo) error { return r.PutDeck(ctx, d) })
}

func (s *Store) DeleteDeck(ctx context.Context, id string) error {
	return s.Tx(ctx, func(r store.Repo) error { return r.DeleteDeck(ctx, id) })
}

func (s *Store) AppendReview(ctx context.Context, l domain.ReviewLog) error {
	return s.Tx(ctx, func(r store.Repo) error { return r.AppendReview(ctx, l) })
}

func (s *Store) ListReviews(ctx context.Context, cardID string) ([]domain.ReviewLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.ListReviews(ctx, cardID)
}
