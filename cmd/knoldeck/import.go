package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir|git-url>",
		Short: "Import markdown notes from a directory or git repository",
		Long: `Import reads every directory below the source as a deck and every
"## Title" section of its .md files as a card. Re-importing updates changed
cards, keeps their review schedule and removes cards that were deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := c.app.importer.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %s: %d decks (%d new), %d cards created, %d updated, %d deleted, %d unchanged.\n",
				rep.Source, rep.Decks, rep.DecksCreated, rep.CardsCreated, rep.CardsUpdated, rep.CardsDeleted, rep.Unchanged)
			if len(rep.Errors) > 0 {
				fmt.Fprintln(out, "\nErrors:")
				for _, e := range rep.Errors {
					fmt.Fprintf(out, "- %s\n", e)
				}
			}
			return nil
		},
	}
}
