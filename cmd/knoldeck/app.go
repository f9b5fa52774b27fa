package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knoldeck/internal/config"
	"github.com/conorfennell/knoldeck/internal/engine"
	"github.com/conorfennell/knoldeck/internal/importer"
	"github.com/conorfennell/knoldeck/internal/logging"
	"github.com/conorfennell/knoldeck/internal/sample"
	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/conorfennell/knoldeck/internal/storage"
	"github.com/conorfennell/knoldeck/internal/store"
	"github.com/conorfennell/knoldeck/internal/store/memory"
)

// app is everything a command needs, built from the loaded configuration.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	store    store.Store
	engine   *engine.Engine
	importer *importer.Importer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Seed {
		if err := seed(cmd.Context(), st, logger); err != nil {
			st.Close()
			return nil, err
		}
	}

	sched, err := srs.NewScheduler(cfg.Scheduler)
	if err != nil {
		st.Close()
		return nil, err
	}
	policy, err := engine.ParseDeletePolicy(cfg.Engine.DeletePolicy)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   logger,
		store: st,
		engine: engine.New(st, sched,
			engine.WithLogger(logger),
			engine.WithDeletePolicy(policy),
			engine.WithRetry(cfg.Engine.RetryAttempts, cfg.Engine.RetryBackoff),
		),
		importer: importer.New(st,
			importer.WithReposDir(cfg.Import.ReposDir),
			importer.WithProgress(os.Stderr),
		),
	}, nil
}

func (a *app) close() error {
	return a.store.Close()
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		db, err := storage.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("Database opened", "path", cfg.Path)
		return db, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// seed loads the sample decks and cards into an empty store.
func seed(ctx context.Context, st store.Store, logger *slog.Logger) error {
	decks, err := st.ListDecks(ctx)
	if err != nil {
		return err
	}
	if len(decks) > 0 {
		logger.Info("Store already holds decks, skipping seed", "decks", len(decks))
		return nil
	}
	sd, sc := sample.Data(time.Now())
	if err := store.Seed(ctx, st, sd, sc); err != nil {
		return fmt.Errorf("seed sample data: %w", err)
	}
	logger.Info("Seeded sample data", "decks", len(sd), "cards", len(sc))
	return nil
}
