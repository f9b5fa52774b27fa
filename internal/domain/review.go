package domain

import "time"

// ReviewLog records a single committed review of a card.
type ReviewLog struct {
	CardID       string    `json:"cardId" db:"card_id"`
	Score        Score     `json:"score" db:"score"`
	ReviewedAt   time.Time `json:"reviewedAt" db:"reviewed_at"`
	PrevDue      time.Time `json:"prevDue" db:"prev_due"`
	IntervalDays int       `json:"intervalDays" db:"interval_days"`
}
