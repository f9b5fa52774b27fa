package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/engine"
)

var (
	overdueBadge = color.New(color.FgRed, color.Bold).SprintFunc()
	todayBadge   = color.New(color.FgYellow).SprintFunc()
	laterBadge   = color.New(color.FgGreen).SprintFunc()
	faint        = color.New(color.Faint).SprintFunc()
)

// badge renders the status column of a card at now.
func badge(c domain.Card, now time.Time) string {
	switch {
	case due.StatusOf(c.NextDueDate, now) == due.Overdue:
		return overdueBadge("overdue")
	case due.IsDue(c.NextDueDate, now):
		return todayBadge("due")
	}
	return laterBadge("upcoming")
}

// deckNames maps deck ids to names for display.
func deckNames(ctx context.Context, e *engine.Engine) (map[string]string, error) {
	decks, err := e.ListDecks(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(decks))
	for _, d := range decks {
		names[d.ID] = d.Name
	}
	return names, nil
}

// printCards writes cards as a table.
func printCards(w io.Writer, cards []domain.Card, names map[string]string, now time.Time) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, faint("No cards."))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDECK\tDUE\tSTATUS")
	for _, c := range cards {
		deck := names[c.DeckID]
		if deck == "" {
			deck = c.DeckID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Title, deck, due.Label(c.NextDueDate, now), badge(c, now))
	}
	return tw.Flush()
}

// parseDay accepts a plain date in the local time zone. Empty means now.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q, want YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return t, nil
}
