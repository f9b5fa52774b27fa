// Package storetest checks that a store.Store implementation honours the
// store contract.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/sample"
	"github.com/conorfennell/knoldeck/internal/store"
)

// Run exercises a fresh Store from newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	now := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	seeded := func(t *testing.T) store.Store {
		t.Helper()
		s := newStore(t)
		t.Cleanup(func() { s.Close() })
		decks, cards := sample.Data(now)
		require.NoError(t, store.Seed(ctx, s, decks, cards))
		return s
	}

	t.Run("seed and list in insertion order", func(t *testing.T) {
		s := seeded(t)

		cards, err := s.ListCards(ctx)
		require.NoError(t, err)
		require.Len(t, cards, 10)
		assert.Equal(t, "card-1", cards[0].ID)
		assert.Equal(t, "card-10", cards[9].ID)

		decks, err := s.ListDecks(ctx)
		require.NoError(t, err)
		require.Len(t, decks, 5)
		assert.Equal(t, "deck-1", decks[0].ID)
		require.NotNil(t, decks[1].ParentID)
		assert.Equal(t, "deck-1", *decks[1].ParentID)
	})

	t.Run("get card round trip", func(t *testing.T) {
		s := seeded(t)

		c, err := s.GetCard(ctx, "card-1")
		require.NoError(t, err)
		assert.Equal(t, "What is a closure?", c.Title)
		assert.True(t, c.NextDueDate.Equal(now))
		require.NotNil(t, c.LastScore)
		assert.Equal(t, domain.Easy, *c.LastScore)
		require.NotNil(t, c.LastReviewedDate)
		assert.True(t, c.LastReviewedDate.Equal(now.AddDate(0, 0, -3)))

		never, err := s.GetCard(ctx, "card-9")
		require.NoError(t, err)
		assert.Nil(t, never.LastScore)
		assert.Nil(t, never.LastReviewedDate)
	})

	t.Run("missing entities", func(t *testing.T) {
		s := seeded(t)

		_, err := s.GetCard(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrCardNotFound)
		_, err = s.GetDeck(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrDeckNotFound)
		assert.ErrorIs(t, s.DeleteCard(ctx, "nope"), domain.ErrCardNotFound)
		assert.ErrorIs(t, s.DeleteDeck(ctx, "nope"), domain.ErrDeckNotFound)
	})

	t.Run("put card updates in place", func(t *testing.T) {
		s := seeded(t)

		c, err := s.GetCard(ctx, "card-3")
		require.NoError(t, err)
		c.Title = "The event loop"
		c.UpdatedAt = now
		require.NoError(t, s.PutCard(ctx, c))

		cards, err := s.ListCards(ctx)
		require.NoError(t, err)
		assert.Equal(t, "The event loop", cards[2].Title)
		assert.Len(t, cards, 10)
	})

	t.Run("card requires existing deck", func(t *testing.T) {
		s := seeded(t)
		err := s.PutCard(ctx, domain.Card{ID: "x", Title: "x", DeckID: "deck-404", NextDueDate: now, CreatedAt: now, UpdatedAt: now})
		assert.ErrorIs(t, err, domain.ErrDeckNotFound)
	})

	t.Run("list by deck", func(t *testing.T) {
		s := seeded(t)

		cards, err := s.ListCardsByDeck(ctx, "deck-2")
		require.NoError(t, err)
		ids := make([]string, len(cards))
		for i, c := range cards {
			ids[i] = c.ID
		}
		assert.Equal(t, []string{"card-2", "card-5", "card-9"}, ids)

		empty, err := s.ListCardsByDeck(ctx, "deck-5")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete non-empty deck refused", func(t *testing.T) {
		s := seeded(t)
		assert.ErrorIs(t, s.DeleteDeck(ctx, "deck-1"), domain.ErrDeckNotEmpty)
		require.NoError(t, s.DeleteDeck(ctx, "deck-5"))
		_, err := s.GetDeck(ctx, "deck-5")
		assert.ErrorIs(t, err, domain.ErrDeckNotFound)
	})

	t.Run("reviews", func(t *testing.T) {
		s := seeded(t)

		l := domain.ReviewLog{CardID: "card-1", Score: domain.Hard, ReviewedAt: now, PrevDue: now, IntervalDays: 2}
		require.NoError(t, s.AppendReview(ctx, l))
		require.NoError(t, s.AppendReview(ctx, domain.ReviewLog{CardID: "card-1", Score: domain.Perfect, ReviewedAt: now.Add(time.Hour), PrevDue: now, IntervalDays: 6}))

		logs, err := s.ListReviews(ctx, "card-1")
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, domain.Hard, logs[0].Score)
		assert.Equal(t, 6, logs[1].IntervalDays)

		none, err := s.ListReviews(ctx, "card-2")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("fixed offset times round trip", func(t *testing.T) {
		s := seeded(t)
		for _, loc := range []*time.Location{
			time.FixedZone("", -7*60*60),
			time.FixedZone("X", -7*60*60),
			time.FixedZone("IST", 5*60*60+30*60),
		} {
			at := time.Date(2025, 3, 10, 9, 30, 0, 0, loc)
			score := domain.Easy

			c, err := s.GetCard(ctx, "card-1")
			require.NoError(t, err)
			c.NextDueDate = time.Date(2025, 3, 13, 0, 0, 0, 0, loc)
			c.LastReviewedDate = &at
			c.LastScore = &score
			c.UpdatedAt = at
			require.NoError(t, s.PutCard(ctx, c))

			d, err := s.GetDeck(ctx, "deck-5")
			require.NoError(t, err)
			d.UpdatedAt = at
			require.NoError(t, s.PutDeck(ctx, d))

			require.NoError(t, s.AppendReview(ctx, domain.ReviewLog{CardID: "card-1", Score: score, ReviewedAt: at, PrevDue: at, IntervalDays: 3}))

			cards, err := s.ListCards(ctx)
			require.NoError(t, err, loc.String())
			assert.True(t, cards[0].NextDueDate.Equal(c.NextDueDate))
			require.NotNil(t, cards[0].LastReviewedDate)
			assert.True(t, cards[0].LastReviewedDate.Equal(at))

			decks, err := s.ListDecks(ctx)
			require.NoError(t, err, loc.String())
			assert.True(t, decks[4].UpdatedAt.Equal(at))

			logs, err := s.ListReviews(ctx, "card-1")
			require.NoError(t, err, loc.String())
			assert.True(t, logs[len(logs)-1].ReviewedAt.Equal(at))
		}
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		s := seeded(t)
		boom := errors.New("boom")

		err := s.Tx(ctx, func(r store.Repo) error {
			if err := r.DeleteCard(ctx, "card-1"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.GetCard(ctx, "card-1")
		assert.NoError(t, err)
	})

	t.Run("concurrent transactions do not lose updates", func(t *testing.T) {
		s := seeded(t)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Tx(ctx, func(r store.Repo) error {
					c, err := r.GetCard(ctx, "card-1")
					if err != nil {
						return err
					}
					c.Repetitions++
					return r.PutCard(ctx, c)
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		c, err := s.GetCard(ctx, "card-1")
		require.NoError(t, err)
		assert.Equal(t, 20, c.Repetitions)
	})
}
