// Package srs schedules card reviews with an SM-2 style ease-factor model.
//
// A review score of 1 (Forgot) sends the card back to a short relearning
// step; higher scores lengthen the interval. For any fixed card history the
// interval never shrinks as the score grows.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/validate"
)

// Params holds the tunables of the interval model.
type Params struct {
	RelearnDays      int     `koanf:"relearn_days" json:"relearn_days" validate:"min=1"`
	HardFactor       float64 `koanf:"hard_factor" json:"hard_factor" validate:"gte=1"`
	InitialIntervals []int   `koanf:"initial_intervals" json:"initial_intervals" validate:"len=3,dive,min=1"` // Medium, Easy, Perfect.
	DefaultEase      float64 `koanf:"default_ease" json:"default_ease" validate:"gtefield=MinEase"`
	MinEase          float64 `koanf:"min_ease" json:"min_ease" validate:"gt=1"`
	EasyBonus        float64 `koanf:"easy_bonus" json:"easy_bonus" validate:"gte=1"`
	PerfectBonus     float64 `koanf:"perfect_bonus" json:"perfect_bonus" validate:"gtefield=EasyBonus"`
	MaxIntervalDays  int     `koanf:"max_interval_days" json:"max_interval_days" validate:"min=1"`
}

// DefaultParams provides the stock SM-2 style values.
func DefaultParams() Params {
	return Params{
		RelearnDays:      1,
		HardFactor:       1.2,
		InitialIntervals: []int{1, 3, 6},
		DefaultEase:      2.5,
		MinEase:          1.3,
		EasyBonus:        1.15,
		PerfectBonus:     1.3,
		MaxIntervalDays:  36500,
	}
}

// Validate checks the parameter bounds.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	for i := 1; i < len(p.InitialIntervals); i++ {
		if p.InitialIntervals[i] < p.InitialIntervals[i-1] {
			return fmt.Errorf("%w: initial intervals must not decrease: %v", domain.ErrInvalidInput, p.InitialIntervals)
		}
	}
	return nil
}

// Scheduler computes review outcomes. It is safe for concurrent use.
type Scheduler struct {
	p Params
}

// NewScheduler validates p and returns a Scheduler.
func NewScheduler(p Params) (*Scheduler, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler params: %w", err)
	}
	p.InitialIntervals = append([]int(nil), p.InitialIntervals...)
	return &Scheduler{p: p}, nil
}

// Params returns a copy of the scheduler's parameters.
func (s *Scheduler) Params() Params {
	p := s.p
	p.InitialIntervals = append([]int(nil), s.p.InitialIntervals...)
	return p
}

// history is the part of a card the interval model reads.
type history struct {
	prevInterval int // days between the last review and the scheduled due date, 0 if never reviewed.
	ease         float64
	reps         int
}

func (s *Scheduler) historyOf(c domain.Card) history {
	h := history{ease: c.Ease, reps: c.Repetitions}
	if h.ease <= 0 {
		h.ease = s.p.DefaultEase
	}
	if c.LastReviewedDate != nil {
		h.prevInterval = max(0, due.DaysBetween(*c.LastReviewedDate, c.NextDueDate))
	}
	return h
}

// nextEase moves the ease factor by the SM-2 quality delta, floored at MinEase.
func (s *Scheduler) nextEase(ease float64, score domain.Score) float64 {
	q := float64(domain.Perfect - score)
	return math.Max(s.p.MinEase, ease+0.1-q*(0.08+q*0.02))
}

// rawInterval is the unclamped interval the model assigns to a single score.
func (s *Scheduler) rawInterval(h history, score domain.Score) int {
	switch score {
	case domain.Forgot:
		return s.p.RelearnDays
	case domain.Hard:
		if h.prevInterval == 0 {
			return s.p.RelearnDays
		}
		return int(math.Round(float64(h.prevInterval) * s.p.HardFactor))
	}

	if h.reps == 0 || h.prevInterval == 0 {
		return s.p.InitialIntervals[score-domain.Medium]
	}
	bonus := 1.0
	switch score {
	case domain.Easy:
		bonus = s.p.EasyBonus
	case domain.Perfect:
		bonus = s.p.PerfectBonus
	}
	ease := s.nextEase(h.ease, score)
	return int(math.Round(float64(h.prevInterval) * ease * bonus))
}

// interval takes the largest raw interval over Forgot..score so that the
// result is non-decreasing in score, then clamps to [1, MaxIntervalDays].
func (s *Scheduler) interval(h history, score domain.Score) int {
	ivl := 1
	for sc := domain.Forgot; sc <= score; sc++ {
		ivl = max(ivl, s.rawInterval(h, sc))
	}
	return min(ivl, s.p.MaxIntervalDays)
}

// Interval returns the number of days until the card would next be due if
// scored now with score.
func (s *Scheduler) Interval(card domain.Card, score domain.Score) (int, error) {
	if !score.IsValid() {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidScore, int(score))
	}
	return s.interval(s.historyOf(card), score), nil
}

// ApplyReview returns card as it stands after being scored at reviewedAt.
// The input card is not mutated; on error it is returned unchanged.
//
// The new due date is midnight of the day reached by adding the interval to
// reviewedAt's day, so it always lies strictly after reviewedAt.
func (s *Scheduler) ApplyReview(card domain.Card, score domain.Score, reviewedAt time.Time) (domain.Card, error) {
	if !score.IsValid() {
		return card, fmt.Errorf("%w: %d", domain.ErrInvalidScore, int(score))
	}

	h := s.historyOf(card)
	ivl := s.interval(h, score)

	c := card.Clone()
	c.Ease = s.nextEase(h.ease, score)
	switch {
	case score == domain.Forgot:
		c.Repetitions = 0
		c.Lapses++
	case score >= domain.Medium:
		c.Repetitions++
	}

	at := reviewedAt
	sc := score
	c.LastReviewedDate = &at
	c.LastScore = &sc
	c.NextDueDate = due.AddDays(reviewedAt, ivl)
	c.UpdatedAt = reviewedAt
	return c, nil
}

// Preview returns the due date each score would produce for card at t.
func (s *Scheduler) Preview(card domain.Card, at time.Time) map[domain.Score]time.Time {
	h := s.historyOf(card)
	out := make(map[domain.Score]time.Time, len(domain.Scores()))
	for _, sc := range domain.Scores() {
		out[sc] = due.AddDays(at, s.interval(h, sc))
	}
	return out
}
