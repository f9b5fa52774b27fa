package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/listing"
	"github.com/conorfennell/knoldeck/internal/store"
	"github.com/conorfennell/knoldeck/internal/validate"
)

// NewCard is the input to CreateCard.
type NewCard struct {
	Title   string `json:"title" validate:"required,max=300"`
	Content string `json:"content"`
	DeckID  string `json:"deckId" validate:"required"`
	// NextDueDate defaults to the start of the current day.
	NextDueDate *time.Time `json:"nextDueDate"`
}

// CardUpdate changes the fields that are set.
type CardUpdate struct {
	Title       *string    `json:"title" validate:"omitnil,min=1,max=300"`
	Content     *string    `json:"content"`
	DeckID      *string    `json:"deckId" validate:"omitnil,min=1"`
	NextDueDate *time.Time `json:"nextDueDate"`
}

// ListDue returns the cards due at now, soonest first.
func (e *Engine) ListDue(ctx context.Context, now time.Time) ([]domain.Card, error) {
	cards, err := e.store.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	return due.Filter(cards, e.at(now)), nil
}

// ListUpcoming returns every card ordered by due date.
func (e *Engine) ListUpcoming(ctx context.Context) ([]domain.Card, error) {
	cards, err := e.store.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}
	return due.SortByDate(cards), nil
}

// ListByDeck returns the cards directly inside deckID. An unknown deck has
// no cards.
func (e *Engine) ListByDeck(ctx context.Context, deckID string) ([]domain.Card, error) {
	cards, err := e.store.ListCardsByDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("list deck %s: %w", deckID, err)
	}
	return cards, nil
}

// Search filters and orders every card by q.
func (e *Engine) Search(ctx context.Context, q listing.Query) ([]domain.Card, error) {
	cards, err := e.store.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return listing.Search(cards, q), nil
}

// Summary counts due, overdue and upcoming cards at now.
func (e *Engine) Summary(ctx context.Context, now time.Time) (due.Counts, error) {
	cards, err := e.store.ListCards(ctx)
	if err != nil {
		return due.Counts{}, fmt.Errorf("summary: %w", err)
	}
	return due.Count(cards, e.at(now)), nil
}

func (e *Engine) GetCard(ctx context.Context, id string) (domain.Card, error) {
	return e.store.GetCard(ctx, id)
}

// CreateCard adds a card to an existing deck.
func (e *Engine) CreateCard(ctx context.Context, in NewCard) (domain.Card, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Card{}, err
	}
	now := e.now()
	c := domain.Card{
		ID:          e.newID(),
		Title:       in.Title,
		Content:     in.Content,
		DeckID:      in.DeckID,
		NextDueDate: due.StartOfDay(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.NextDueDate != nil {
		c.NextDueDate = *in.NextDueDate
	}
	if err := c.Validate(); err != nil {
		return domain.Card{}, err
	}

	err := e.tx(ctx, "create card", func(r store.Repo) error {
		return r.PutCard(ctx, c)
	})
	if err != nil {
		return domain.Card{}, err
	}
	e.log.Info("card created", "card", c.ID, "deck", c.DeckID)
	return c, nil
}

// UpdateCard edits a card's text, deck or due date. Review history is kept.
func (e *Engine) UpdateCard(ctx context.Context, id string, in CardUpdate) (domain.Card, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Card{}, err
	}

	var out domain.Card
	err := e.tx(ctx, "update card", func(r store.Repo) error {
		c, err := r.GetCard(ctx, id)
		if err != nil {
			return err
		}
		if in.Title != nil {
			c.Title = *in.Title
		}
		if in.Content != nil {
			c.Content = *in.Content
		}
		if in.DeckID != nil {
			c.DeckID = *in.DeckID
		}
		if in.NextDueDate != nil {
			c.NextDueDate = *in.NextDueDate
		}
		c.UpdatedAt = e.now()
		if err := c.Validate(); err != nil {
			return err
		}
		out = c
		return r.PutCard(ctx, c)
	})
	if err != nil {
		return domain.Card{}, err
	}
	e.log.Info("card updated", "card", id)
	return out, nil
}

// DeleteCard removes a card and its review history.
func (e *Engine) DeleteCard(ctx context.Context, id string) error {
	err := e.tx(ctx, "delete card", func(r store.Repo) error {
		return r.DeleteCard(ctx, id)
	})
	if err != nil {
		return err
	}
	e.log.Info("card deleted", "card", id)
	return nil
}
