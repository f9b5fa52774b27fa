package main

import (
	"github.com/spf13/cobra"
)

// cli carries the app built before each command runs.
type cli struct {
	app *app
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "knoldeck",
		Short: "Spaced-repetition flashcards organised in nested decks",
		Long: `Knoldeck schedules flashcard reviews. Cards live in nested decks; scoring a
card from 1 (forgot) to 5 (perfect) decides when it is due again.

Use --seed to load the sample decks into an empty store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.close()
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to a YAML config file")
	pf.String("store", "memory", "store driver: memory or sqlite")
	pf.String("db", "knoldeck.db", "SQLite database path")
	pf.Bool("seed", false, "load the sample decks into an empty store")
	pf.String("log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		c.serveCmd(),
		c.dueCmd(),
		c.upcomingCmd(),
		c.reviewCmd(),
		c.decksCmd(),
		c.importCmd(),
	)
	return root
}
