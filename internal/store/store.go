// Package store defines the persistence contract the engine runs against.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// ErrBusy marks a transient failure (a locked database, a busy connection).
// Operations failing with ErrBusy may be retried.
var ErrBusy = errors.New("knoldeck: store busy")

// Repo reads and writes cards, decks and review logs. List operations return
// items in insertion order.
type Repo interface {
	GetCard(ctx context.Context, id string) (domain.Card, error)
	ListCards(ctx context.Context) ([]domain.Card, error)
	ListCardsByDeck(ctx context.Context, deckID string) ([]domain.Card, error)
	// PutCard inserts c or replaces the card with the same id, keeping its
	// position in insertion order.
	PutCard(ctx context.Context, c domain.Card) error
	DeleteCard(ctx context.Context, id string) error

	GetDeck(ctx context.Context, id string) (domain.Deck, error)
	ListDecks(ctx context.Context) ([]domain.Deck, error)
	PutDeck(ctx context.Context, d domain.Deck) error
	DeleteDeck(ctx context.Context, id string) error

	AppendReview(ctx context.Context, l domain.ReviewLog) error
	ListReviews(ctx context.Context, cardID string) ([]domain.ReviewLog, error)
}

// Store is a Repo with transactions. Tx runs fn against a transactional view;
// the changes fn makes are committed if it returns nil and discarded
// otherwise. Transactions on one Store never interleave. fn must only use the
// Repo it is given.
type Store interface {
	Repo
	Tx(ctx context.Context, fn func(Repo) error) error
	Close() error
}

// Seed loads decks then cards in one transaction.
func Seed(ctx context.Context, s Store, decks []domain.Deck, cards []domain.Card) error {
	return s.Tx(ctx, func(r Repo) error {
		for _, d := range decks {
			if err := r.PutDeck(ctx, d); err != nil {
				return fmt.Errorf("seed deck %s: %w", d.ID, err)
			}
		}
		for _, c := range cards {
			if err := r.PutCard(ctx, c); err != nil {
				return fmt.Errorf("seed card %s: %w", c.ID, err)
			}
		}
		return nil
	})
}
