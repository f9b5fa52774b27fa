package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knoldeck/internal/decktree"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/engine"
)

func (c *cli) decksCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "Show the deck tree with card counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			forest, err := c.app.engine.DeckTree(ctx, domain.StringPtr(root))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(forest) == 0 {
				_, err := fmt.Fprintln(out, faint("No decks."))
				return err
			}
			for _, n := range forest {
				if err := printTree(ctx, out, c.app.engine, n, 0); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "only show the decks below this deck id")
	return cmd
}

func printTree(ctx context.Context, w io.Writer, e *engine.Engine, n *decktree.Node, depth int) error {
	own, err := e.CardCount(ctx, n.ID)
	if err != nil {
		return err
	}
	total, err := e.AggregateCardCount(ctx, n.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), n.Name,
		faint(fmt.Sprintf("(%s, %d cards, %d total)", n.ID, own, total)))
	for _, child := range n.Children {
		if err := printTree(ctx, w, e, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
