package domain

import (
	"fmt"
	"time"
)

// Card represents a single markdown-backed flashcard and its review schedule.
type Card struct {
	ID      string `json:"id" db:"id"`
	Title   string `json:"title" db:"title"`
	Content string `json:"content" db:"content"` // Markdown, rendered by the client.
	DeckID  string `json:"deckId" db:"deck_id"`

	NextDueDate      time.Time  `json:"nextDueDate" db:"next_due_date"`
	LastReviewedDate *time.Time `json:"lastReviewedDate" db:"last_reviewed_date"` // nil until first review.
	LastScore        *Score     `json:"lastScore" db:"last_score"`                // nil until first review.

	Ease        float64 `json:"ease" db:"ease"` // 0 before the first review.
	Repetitions int     `json:"repetitions" db:"repetitions"`
	Lapses      int     `json:"lapses" db:"lapses"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Reviewed reports whether the card has been scored at least once.
func (c Card) Reviewed() bool {
	return c.LastReviewedDate != nil && c.LastScore != nil
}

// Validate checks the structural invariants of a card.
func (c Card) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: card id is empty", ErrInvalidInput)
	}
	if c.DeckID == "" {
		return fmt.Errorf("%w: card %s has no deck", ErrInvalidInput, c.ID)
	}
	if c.NextDueDate.IsZero() {
		return fmt.Errorf("%w: card %s has no due date", ErrInvalidInput, c.ID)
	}
	if (c.LastReviewedDate == nil) != (c.LastScore == nil) {
		return fmt.Errorf("%w: card %s: last review date and score must be set together", ErrInvalidInput, c.ID)
	}
	if c.LastScore != nil && !c.LastScore.IsValid() {
		return fmt.Errorf("%w: card %s: %d", ErrInvalidScore, c.ID, int(*c.LastScore))
	}
	return nil
}

// Clone returns a deep copy of the card. Pointer fields are copied by value.
func (c Card) Clone() Card {
	out := c
	if c.LastReviewedDate != nil {
		v := *c.LastReviewedDate
		out.LastReviewedDate = &v
	}
	if c.LastScore != nil {
		v := *c.LastScore
		out.LastScore = &v
	}
	return out
}
