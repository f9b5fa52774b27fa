package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/conorfennell/knoldeck/internal/decktree"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/store"
	"github.com/conorfennell/knoldeck/internal/validate"
)

// DeletePolicy decides what happens to the contents of a deleted deck.
type DeletePolicy string

const (
	// Forbid refuses to delete a deck that still holds cards or sub-decks.
	Forbid DeletePolicy = "forbid"
	// Cascade deletes the whole subtree with all its cards.
	Cascade DeletePolicy = "cascade"
	// Reparent moves sub-decks and cards up to the deleted deck's parent.
	// Cards of a root deck have nowhere to go, so such a delete is refused.
	Reparent DeletePolicy = "reparent"
)

// ParseDeletePolicy validates a policy name. Empty selects the default.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(s)); p {
	case Forbid, Cascade, Reparent, "":
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown delete policy %q", domain.ErrInvalidInput, s)
}

// NewDeck is the input to CreateDeck.
type NewDeck struct {
	Name     string  `json:"name" validate:"required,max=100"`
	ParentID *string `json:"parentId" validate:"omitnil,min=1"`
}

// DeleteResult reports what a deck deletion touched.
type DeleteResult struct {
	DecksDeleted int `json:"decksDeleted"`
	CardsDeleted int `json:"cardsDeleted"`
	DecksMoved   int `json:"decksMoved"`
	CardsMoved   int `json:"cardsMoved"`
}

func (e *Engine) GetDeck(ctx context.Context, id string) (domain.Deck, error) {
	return e.store.GetDeck(ctx, id)
}

// ListDecks returns the flat deck collection.
func (e *Engine) ListDecks(ctx context.Context) ([]domain.Deck, error) {
	return e.store.ListDecks(ctx)
}

// DeckTree returns the forest below rootID, or the whole forest when rootID
// is nil.
func (e *Engine) DeckTree(ctx context.Context, rootID *string) ([]*decktree.Node, error) {
	decks, err := e.store.ListDecks(ctx)
	if err != nil {
		return nil, fmt.Errorf("deck tree: %w", err)
	}
	forest, err := decktree.Build(decks, rootID)
	if err != nil {
		e.log.Error("deck hierarchy is corrupt", "error", err)
		return nil, err
	}
	return forest, nil
}

// CardCount returns the number of cards directly inside deckID.
func (e *Engine) CardCount(ctx context.Context, deckID string) (int, error) {
	cards, err := e.store.ListCardsByDeck(ctx, deckID)
	if err != nil {
		return 0, fmt.Errorf("count deck %s: %w", deckID, err)
	}
	return len(cards), nil
}

// AggregateCardCount returns the number of cards in deckID and all of its
// sub-decks, read from one consistent snapshot. An unknown deck counts 0.
func (e *Engine) AggregateCardCount(ctx context.Context, deckID string) (int, error) {
	var total int
	err := e.tx(ctx, "aggregate count", func(r store.Repo) error {
		decks, err := r.ListDecks(ctx)
		if err != nil {
			return err
		}
		forest, err := decktree.Build(decks, nil)
		if err != nil {
			return err
		}
		node := decktree.Find(forest, deckID)
		if node == nil {
			total = 0
			return nil
		}
		cards, err := r.ListCards(ctx)
		if err != nil {
			return err
		}
		counts := make(map[string]int)
		for _, c := range cards {
			counts[c.DeckID]++
		}
		total = node.Aggregate(func(id string) int { return counts[id] })
		return nil
	})
	return total, err
}

// CreateDeck adds a deck as the last child of its parent.
func (e *Engine) CreateDeck(ctx context.Context, in NewDeck) (domain.Deck, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Deck{}, err
	}
	now := e.now()
	d := domain.Deck{
		ID:        e.newID(),
		Name:      in.Name,
		ParentID:  in.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := e.tx(ctx, "create deck", func(r store.Repo) error {
		decks, err := r.ListDecks(ctx)
		if err != nil {
			return err
		}
		d.Position = nextPosition(decks, d.ParentID, "")
		return r.PutDeck(ctx, d)
	})
	if err != nil {
		return domain.Deck{}, err
	}
	e.log.Info("deck created", "deck", d.ID, "parent", d.Parent())
	return d, nil
}

// RenameDeck changes a deck's name.
func (e *Engine) RenameDeck(ctx context.Context, id, name string) (domain.Deck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Deck{}, fmt.Errorf("%w: deck name is empty", domain.ErrInvalidInput)
	}

	var out domain.Deck
	err := e.tx(ctx, "rename deck", func(r store.Repo) error {
		d, err := r.GetDeck(ctx, id)
		if err != nil {
			return err
		}
		d.Name = name
		d.UpdatedAt = e.now()
		out = d
		return r.PutDeck(ctx, d)
	})
	return out, err
}

// ReparentDeck moves a deck, with its subtree, under newParent (nil for the
// top level). Moving a deck under itself or one of its descendants fails
// with domain.ErrCyclicDeckHierarchy and changes nothing.
func (e *Engine) ReparentDeck(ctx context.Context, id string, newParent *string) (domain.Deck, error) {
	var out domain.Deck
	err := e.tx(ctx, "reparent deck", func(r store.Repo) error {
		d, err := r.GetDeck(ctx, id)
		if err != nil {
			return err
		}
		if newParent != nil {
			if _, err := r.GetDeck(ctx, *newParent); err != nil {
				return err
			}
		}
		decks, err := r.ListDecks(ctx)
		if err != nil {
			return err
		}
		if decktree.WouldCycle(decks, id, newParent) {
			return fmt.Errorf("%w: cannot move %s under %s", domain.ErrCyclicDeckHierarchy, id, *newParent)
		}
		if d.Parent() == deref(newParent) {
			out = d
			return nil
		}

		d.ParentID = newParent
		d.Position = nextPosition(decks, newParent, id)
		d.UpdatedAt = e.now()
		out = d
		return r.PutDeck(ctx, d)
	})
	if err != nil {
		return domain.Deck{}, err
	}
	e.log.Info("deck moved", "deck", id, "parent", out.Parent())
	return out, nil
}

// ReorderSiblings sets the order of the children of parentID (nil for the
// top level). orderedIDs must name every child exactly once.
func (e *Engine) ReorderSiblings(ctx context.Context, parentID *string, orderedIDs []string) error {
	return e.tx(ctx, "reorder decks", func(r store.Repo) error {
		decks, err := r.ListDecks(ctx)
		if err != nil {
			return err
		}
		siblings := make(map[string]domain.Deck)
		for _, d := range decks {
			if d.Parent() == deref(parentID) {
				siblings[d.ID] = d
			}
		}
		if len(orderedIDs) != len(siblings) {
			return fmt.Errorf("%w: expected %d decks, got %d", domain.ErrInvalidInput, len(siblings), len(orderedIDs))
		}

		now := e.now()
		seen := make(map[string]bool, len(orderedIDs))
		for i, id := range orderedIDs {
			d, ok := siblings[id]
			if !ok || seen[id] {
				return fmt.Errorf("%w: %s is not a sibling or is listed twice", domain.ErrInvalidInput, id)
			}
			seen[id] = true
			if d.Position == i {
				continue
			}
			d.Position = i
			d.UpdatedAt = now
			if err := r.PutDeck(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteDeck removes a deck, handling its contents according to policy. An
// empty policy selects the engine default.
func (e *Engine) DeleteDeck(ctx context.Context, id string, policy DeletePolicy) (DeleteResult, error) {
	if policy == "" {
		policy = e.policy
	}

	var res DeleteResult
	err := e.tx(ctx, "delete deck", func(r store.Repo) error {
		res = DeleteResult{}
		d, err := r.GetDeck(ctx, id)
		if err != nil {
			return err
		}
		switch policy {
		case Forbid:
		case Cascade:
			if err := e.cascade(ctx, r, id, &res); err != nil {
				return err
			}
		case Reparent:
			if err := e.reparentContents(ctx, r, d, &res); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown delete policy %q", domain.ErrInvalidInput, policy)
		}
		if err := r.DeleteDeck(ctx, id); err != nil {
			return err
		}
		res.DecksDeleted++
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	e.log.Info("deck deleted",
		"deck", id,
		"policy", string(policy),
		"decks_deleted", res.DecksDeleted,
		"cards_deleted", res.CardsDeleted,
		"decks_moved", res.DecksMoved,
		"cards_moved", res.CardsMoved,
	)
	return res, nil
}

// cascade empties id's subtree, leaving id itself for the caller.
func (e *Engine) cascade(ctx context.Context, r store.Repo, id string, res *DeleteResult) error {
	decks, err := r.ListDecks(ctx)
	if err != nil {
		return err
	}
	sub := decktree.Descendants(decks, id)
	slices.Reverse(sub)

	for _, deckID := range append(sub, id) {
		cards, err := r.ListCardsByDeck(ctx, deckID)
		if err != nil {
			return err
		}
		for _, c := range cards {
			if err := r.DeleteCard(ctx, c.ID); err != nil {
				return err
			}
			res.CardsDeleted++
		}
		if deckID == id {
			break
		}
		if err := r.DeleteDeck(ctx, deckID); err != nil {
			return err
		}
		res.DecksDeleted++
	}
	return nil
}

// reparentContents moves d's children and cards to d's parent.
func (e *Engine) reparentContents(ctx context.Context, r store.Repo, d domain.Deck, res *DeleteResult) error {
	cards, err := r.ListCardsByDeck(ctx, d.ID)
	if err != nil {
		return err
	}
	if d.IsRoot() && len(cards) > 0 {
		return fmt.Errorf("%w: top-level deck %s still holds %d cards", domain.ErrDeckNotEmpty, d.ID, len(cards))
	}

	now := e.now()
	for _, c := range cards {
		c.DeckID = *d.ParentID
		c.UpdatedAt = now
		if err := r.PutCard(ctx, c); err != nil {
			return err
		}
		res.CardsMoved++
	}

	decks, err := r.ListDecks(ctx)
	if err != nil {
		return err
	}
	pos := nextPosition(decks, d.ParentID, d.ID)
	for _, child := range childrenOf(decks, d.ID) {
		child.ParentID = d.ParentID
		child.Position = pos
		child.UpdatedAt = now
		pos++
		if err := r.PutDeck(ctx, child); err != nil {
			return err
		}
		res.DecksMoved++
	}
	return nil
}

// childrenOf returns the direct children of id in sibling order.
func childrenOf(decks []domain.Deck, id string) []domain.Deck {
	var out []domain.Deck
	for _, d := range decks {
		if d.Parent() == id && id != "" {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Deck) int { return a.Position - b.Position })
	return out
}

// nextPosition returns the position after the last child of parent,
// ignoring the deck being moved.
func nextPosition(decks []domain.Deck, parent *string, moving string) int {
	next := 0
	for _, d := range decks {
		if d.ID != moving && d.Parent() == deref(parent) && d.Position >= next {
			next = d.Position + 1
		}
	}
	return next
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
