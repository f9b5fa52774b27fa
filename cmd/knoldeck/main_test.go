package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knoldeck/internal/decktree"
	"github.com/conorfennell/knoldeck/internal/engine"
	"github.com/conorfennell/knoldeck/internal/sample"
	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/conorfennell/knoldeck/internal/store"
	"github.com/conorfennell/knoldeck/internal/store/memory"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("KNOLDECK_LOG__LEVEL", "error")
	db := filepath.Join(t.TempDir(), "knoldeck.db")
	base := []string{"--store", "sqlite", "--db", db}

	out, err := run(t, append(base, "--seed", "due")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "card-3")
	assert.Contains(t, out, "2 days ago")
	assert.Contains(t, out, "overdue")
	assert.NotContains(t, out, "card-5")

	// Seeding twice is a no-op.
	_, err = run(t, append(base, "--seed", "decks")...)
	require.NoError(t, err)

	out, err = run(t, append(base, "review", "card-3", "perfect")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "scored Perfect")

	out, err = run(t, append(base, "due")...)
	require.NoError(t, err)
	assert.NotContains(t, out, "card-3")
	assert.Contains(t, out, "card-4")

	out, err = run(t, append(base, "upcoming", "-q", "closure")...)
	require.NoError(t, err)
	assert.Contains(t, out, "card-1")
	assert.NotContains(t, out, "card-2")

	out, err = run(t, append(base, "decks")...)
	require.NoError(t, err)
	assert.Contains(t, out, "JavaScript")
	assert.Contains(t, out, "  React Fundamentals")
	assert.Contains(t, out, "4 cards, 7 total")

	out, err = run(t, append(base, "decks", "--root", "deck-3")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Advanced Types")
	assert.NotContains(t, out, "JavaScript")
}

func TestPrintTreeUsesEngineCounts(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	ctx := context.Background()
	st := memory.New()
	decks, cards := sample.Data(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Seed(ctx, st, decks, cards))
	sched, err := srs.NewScheduler(srs.DefaultParams())
	require.NoError(t, err)
	e := engine.New(st, sched)

	forest, err := e.DeckTree(ctx, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	for _, n := range forest {
		require.NoError(t, printTree(ctx, &out, e, n, 0))
	}

	for _, root := range forest {
		root.Walk(func(n *decktree.Node) {
			own, err := e.CardCount(ctx, n.ID)
			require.NoError(t, err)
			total, err := e.AggregateCardCount(ctx, n.ID)
			require.NoError(t, err)
			assert.Contains(t, out.String(), fmt.Sprintf("%s (%s, %d cards, %d total)", n.Name, n.ID, own, total))
		})
	}
}

func TestCommandErrors(t *testing.T) {
	t.Setenv("KNOLDECK_LOG__LEVEL", "error")

	_, err := run(t, "--seed", "review", "card-1", "6")
	assert.Error(t, err)

	_, err = run(t, "--seed", "review", "card-404", "3")
	assert.Error(t, err)

	_, err = run(t, "--store", "mongo", "due")
	assert.Error(t, err)

	_, err = run(t, "--seed", "upcoming", "--sort", "colour")
	assert.Error(t, err)

	_, err = run(t, "due", "--at", "tomorrow")
	assert.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	t.Setenv("KNOLDECK_LOG__LEVEL", "error")
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.md"), []byte("## Channels\nTyped pipes.\n## Select\nWaits on channels.\n"), 0o644))

	out, err := run(t, "import", root)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 cards created")
}
