package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/listing"
)

func (c *cli) dueCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the cards due for review, most overdue first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseDay(at)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cards, err := c.app.engine.ListDue(ctx, now)
			if err != nil {
				return err
			}
			names, err := deckNames(ctx, c.app.engine)
			if err != nil {
				return err
			}
			return printCards(cmd.OutOrStdout(), cards, names, now)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this date (YYYY-MM-DD)")
	return cmd
}

func (c *cli) upcomingCmd() *cobra.Command {
	var (
		query string
		deck  string
		sort  string
		desc  bool
	)
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List every card, ordered by due date or another column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := listing.ParseSortKey(sort)
			if err != nil {
				return err
			}
			dir := listing.Asc
			if desc {
				dir = listing.Desc
			}

			ctx := cmd.Context()
			cards, err := c.app.engine.Search(ctx, listing.Query{
				Text:   query,
				DeckID: deck,
				Sort:   listing.SortConfig{Key: key, Direction: dir},
			})
			if err != nil {
				return err
			}
			names, err := deckNames(ctx, c.app.engine)
			if err != nil {
				return err
			}
			return printCards(cmd.OutOrStdout(), cards, names, c.app.engine.Now())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&query, "query", "q", "", "only cards whose title or content contains this text")
	f.StringVar(&deck, "deck", listing.AllDecks, "only cards directly in this deck id")
	f.StringVar(&sort, "sort", string(listing.ByNextDueDate), "sort column: title, deck or nextDueDate")
	f.BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func (c *cli) reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <card-id> <score>",
		Short: "Score a card: 1/forgot, 2/hard, 3/medium, 4/easy or 5/perfect",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := domain.ParseScore(args[1])
			if err != nil {
				return err
			}
			card, err := c.app.engine.Review(cmd.Context(), args[0], score, c.app.engine.Now())
			if err != nil {
				return err
			}
			now := c.app.engine.Now()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s scored %s, next due %s (%s)\n",
				card.Title, score, due.Label(card.NextDueDate, now), card.NextDueDate.Format("Mon Jan 2"))
			return err
		},
	}
}
