// Package due classifies cards by their next due date against a point in
// time: the due set, date ordering, overdue status and relative day labels.
//
// All functions are pure. Day boundaries are taken in the location of the
// evaluation instant.
package due

import (
	"fmt"
	"slices"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// Status is the badge classification of a due date.
type Status string

const (
	Upcoming Status = "upcoming"
	Overdue  Status = "overdue"
)

const day = 24 * time.Hour

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// AddDays returns midnight of the day n calendar days after t's day.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// IsDue reports whether a card due at nextDue is reviewable at now.
// Anything due at any time today counts.
func IsDue(nextDue, now time.Time) bool {
	return !nextDue.After(EndOfDay(now))
}

// Filter returns the cards due at now, ordered by due date. Cards sharing a
// due date keep their input order.
func Filter(cards []domain.Card, now time.Time) []domain.Card {
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if IsDue(c.NextDueDate, now) {
			out = append(out, c)
		}
	}
	sortByDate(out)
	return out
}

// SortByDate returns a copy of cards ordered by due date, overdue and future
// cards interleaved.
func SortByDate(cards []domain.Card) []domain.Card {
	out := slices.Clone(cards)
	if out == nil {
		out = []domain.Card{}
	}
	sortByDate(out)
	return out
}

func sortByDate(cards []domain.Card) {
	slices.SortStableFunc(cards, func(a, b domain.Card) int {
		return a.NextDueDate.Compare(b.NextDueDate)
	})
}

// DaysBetween returns the number of calendar days from the day of from to the
// day of to. Wall-clock hours are ignored, so DST shifts never skew the count.
func DaysBetween(from, to time.Time) int {
	to = to.In(from.Location())
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / day)
}

// Label renders t relative to now: "Today", "Tomorrow", "Yesterday",
// "3 days ago", "In 4 days", or a short absolute date such as "Jan 2".
func Label(t, now time.Time) string {
	diff := DaysBetween(now, t)
	switch {
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Tomorrow"
	case diff == -1:
		return "Yesterday"
	case diff < -1:
		return fmt.Sprintf("%d days ago", -diff)
	case diff < 7:
		return fmt.Sprintf("In %d days", diff)
	}
	return t.In(now.Location()).Format("Jan 2")
}

// StatusOf classifies a due date for display. A card is overdue only when at
// least one whole day separates its due date from the end of today; a card
// due today is due but still upcoming.
func StatusOf(nextDue, now time.Time) Status {
	eod := EndOfDay(now)
	if nextDue.Before(eod) && eod.Sub(nextDue)/day > 0 {
		return Overdue
	}
	return Upcoming
}

// Counts summarises a set of cards at now.
type Counts struct {
	Due      int `json:"due"`
	Overdue  int `json:"overdue"`
	Upcoming int `json:"upcoming"`
}

// Count tallies due, overdue and not-yet-due cards.
func Count(cards []domain.Card, now time.Time) Counts {
	var c Counts
	for _, card := range cards {
		if IsDue(card.NextDueDate, now) {
			c.Due++
		} else {
			c.Upcoming++
		}
		if StatusOf(card.NextDueDate, now) == Overdue {
			c.Overdue++
		}
	}
	return c
}
