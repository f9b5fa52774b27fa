package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/store"
)

// Review scores a card at `at` (the engine clock when zero) and commits the
// new schedule together with a review log entry. Concurrent reviews of the
// same card are applied one after the other.
func (e *Engine) Review(ctx context.Context, cardID string, score domain.Score, at time.Time) (domain.Card, error) {
	if !score.IsValid() {
		return domain.Card{}, fmt.Errorf("%w: %d", domain.ErrInvalidScore, int(score))
	}
	at = e.at(at)

	var out domain.Card
	err := e.tx(ctx, "review", func(r store.Repo) error {
		c, err := r.GetCard(ctx, cardID)
		if err != nil {
			return err
		}
		next, err := e.sched.ApplyReview(c, score, at)
		if err != nil {
			return err
		}
		if err := r.PutCard(ctx, next); err != nil {
			return err
		}
		out = next
		return r.AppendReview(ctx, domain.ReviewLog{
			CardID:       cardID,
			Score:        score,
			ReviewedAt:   at,
			PrevDue:      c.NextDueDate,
			IntervalDays: due.DaysBetween(at, next.NextDueDate),
		})
	})
	if err != nil {
		return domain.Card{}, err
	}

	e.log.Info("review committed",
		"card", cardID,
		"score", score.String(),
		"next_due", out.NextDueDate.Format(time.DateOnly),
		"ease", out.Ease,
	)
	return out, nil
}

// Preview returns the due date each score would give the card at `at`.
func (e *Engine) Preview(ctx context.Context, cardID string, at time.Time) (map[domain.Score]time.Time, error) {
	c, err := e.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return e.sched.Preview(c, e.at(at)), nil
}

// ReviewHistory returns a card's committed reviews, oldest first.
func (e *Engine) ReviewHistory(ctx context.Context, cardID string) ([]domain.ReviewLog, error) {
	if _, err := e.store.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	return e.store.ListReviews(ctx, cardID)
}
