package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
)

var reviewedAt = time.Date(2025, 1, 20, 18, 45, 0, 0, time.UTC)

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(DefaultParams())
	require.NoError(t, err)
	return s
}

func reviewedCard(prevInterval int, ease float64, reps int, last domain.Score) domain.Card {
	lastReview := due.AddDays(reviewedAt, -prevInterval)
	return domain.Card{
		ID:               "card-1",
		Title:            "What is a closure?",
		Content:          "A function plus its environment.",
		DeckID:           "deck-1",
		NextDueDate:      reviewedAt,
		LastReviewedDate: &lastReview,
		LastScore:        &last,
		Ease:             ease,
		Repetitions:      reps,
		CreatedAt:        time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		UpdatedAt:        lastReview,
	}
}

func TestIntervalMonotonicInScore(t *testing.T) {
	s := newScheduler(t)

	histories := map[string]domain.Card{
		"new card":         {ID: "new", DeckID: "deck-1", NextDueDate: reviewedAt},
		"short interval":   reviewedCard(1, 2.5, 1, domain.Medium),
		"long interval":    reviewedCard(40, 2.1, 6, domain.Easy),
		"low ease":         reviewedCard(10, 1.3, 3, domain.Hard),
		"after lapse":      reviewedCard(1, 1.8, 0, domain.Forgot),
		"overdue by weeks": reviewedCard(3, 2.5, 2, domain.Perfect),
	}

	for name, card := range histories {
		t.Run(name, func(t *testing.T) {
			prev := 0
			for _, sc := range domain.Scores() {
				ivl, err := s.Interval(card, sc)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, ivl, 1)
				assert.GreaterOrEqual(t, ivl, prev, "interval(%s) < interval(%s)", sc, sc-1)
				prev = ivl
			}
		})
	}
}

func TestIntervalGrowsWithHistory(t *testing.T) {
	s := newScheduler(t)
	card := reviewedCard(10, 2.5, 3, domain.Easy)

	medium, err := s.Interval(card, domain.Medium)
	require.NoError(t, err)
	assert.Equal(t, 24, medium) // round(10 * (2.5-0.14))

	perfect, err := s.Interval(card, domain.Perfect)
	require.NoError(t, err)
	assert.Equal(t, 34, perfect) // round(10 * 2.6 * 1.3)

	forgot, err := s.Interval(card, domain.Forgot)
	require.NoError(t, err)
	assert.Equal(t, 1, forgot)
}

func TestApplyReview(t *testing.T) {
	s := newScheduler(t)
	card := reviewedCard(6, 2.5, 2, domain.Medium)

	t.Run("Forgot resets to relearning", func(t *testing.T) {
		got, err := s.ApplyReview(card, domain.Forgot, reviewedAt)
		require.NoError(t, err)

		assert.True(t, got.NextDueDate.After(reviewedAt))
		assert.Equal(t, due.AddDays(reviewedAt, 1), got.NextDueDate)
		assert.Equal(t, 0, got.Repetitions)
		assert.Equal(t, 1, got.Lapses)
		assert.Less(t, got.Ease, card.Ease)
	})

	t.Run("Perfect extends and records the review", func(t *testing.T) {
		got, err := s.ApplyReview(card, domain.Perfect, reviewedAt)
		require.NoError(t, err)

		require.NotNil(t, got.LastScore)
		require.NotNil(t, got.LastReviewedDate)
		assert.Equal(t, domain.Perfect, *got.LastScore)
		assert.True(t, got.LastReviewedDate.Equal(reviewedAt))
		assert.True(t, got.UpdatedAt.Equal(reviewedAt))
		assert.Equal(t, 3, got.Repetitions)
		assert.Greater(t, got.Ease, card.Ease)
		assert.True(t, got.NextDueDate.After(due.AddDays(reviewedAt, 6)))
	})

	t.Run("identity fields untouched", func(t *testing.T) {
		got, err := s.ApplyReview(card, domain.Easy, reviewedAt)
		require.NoError(t, err)
		assert.Equal(t, card.ID, got.ID)
		assert.Equal(t, card.DeckID, got.DeckID)
		assert.Equal(t, card.Title, got.Title)
		assert.Equal(t, card.Content, got.Content)
		assert.Equal(t, card.CreatedAt, got.CreatedAt)
	})

	t.Run("input not mutated", func(t *testing.T) {
		before := card.Clone()
		_, err := s.ApplyReview(card, domain.Hard, reviewedAt)
		require.NoError(t, err)
		assert.Equal(t, before, card)
	})

	t.Run("due strictly after review for every score", func(t *testing.T) {
		for _, sc := range domain.Scores() {
			got, err := s.ApplyReview(domain.Card{ID: "new", DeckID: "deck-1", NextDueDate: reviewedAt}, sc, reviewedAt)
			require.NoError(t, err)
			assert.True(t, got.NextDueDate.After(reviewedAt), sc.String())
		}
	})
}

func TestApplyReviewRejectsInvalidScore(t *testing.T) {
	s := newScheduler(t)
	card := reviewedCard(3, 2.5, 1, domain.Medium)
	before := card.Clone()

	for _, sc := range []domain.Score{0, 6, -1} {
		got, err := s.ApplyReview(card, sc, reviewedAt)
		require.ErrorIs(t, err, domain.ErrInvalidScore)
		assert.Equal(t, before, got)
		assert.Equal(t, before, card)
	}
}

func TestMaxInterval(t *testing.T) {
	p := DefaultParams()
	p.MaxIntervalDays = 30
	s, err := NewScheduler(p)
	require.NoError(t, err)

	ivl, err := s.Interval(reviewedCard(200, 2.8, 10, domain.Perfect), domain.Perfect)
	require.NoError(t, err)
	assert.Equal(t, 30, ivl)
}

func TestEaseFloor(t *testing.T) {
	s := newScheduler(t)
	card := reviewedCard(2, 1.31, 1, domain.Hard)
	got, err := s.ApplyReview(card, domain.Forgot, reviewedAt)
	require.NoError(t, err)
	assert.Equal(t, 1.3, got.Ease)
}

func TestPreview(t *testing.T) {
	s := newScheduler(t)
	preview := s.Preview(domain.Card{ID: "new", DeckID: "deck-1", NextDueDate: reviewedAt}, reviewedAt)

	require.Len(t, preview, 5)
	assert.Equal(t, due.AddDays(reviewedAt, 1), preview[domain.Forgot])
	assert.Equal(t, due.AddDays(reviewedAt, 3), preview[domain.Easy])
	assert.Equal(t, due.AddDays(reviewedAt, 6), preview[domain.Perfect])
}

func TestParamsValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(p *Params)
	}{
		{"zero relearn", func(p *Params) { p.RelearnDays = 0 }},
		{"hard shrinks", func(p *Params) { p.HardFactor = 0.5 }},
		{"two initial intervals", func(p *Params) { p.InitialIntervals = []int{1, 2} }},
		{"decreasing initial intervals", func(p *Params) { p.InitialIntervals = []int{4, 3, 6} }},
		{"default ease below min", func(p *Params) { p.DefaultEase = 1.2 }},
		{"perfect bonus below easy", func(p *Params) { p.PerfectBonus = 1.0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.modify(&p)
			_, err := NewScheduler(p)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
