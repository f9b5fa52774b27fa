package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knoldeck/internal/store"
	"github.com/conorfennell/knoldeck/internal/store/storetest"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "knoldeck.db"))
	require.NoError(t, err)
	return db
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knoldeck.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	cards, err := db.ListCards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("disk on fire")
	assert.Same(t, plain, classify(plain))
	assert.False(t, errors.Is(classify(fmt.Errorf("wrapped: %w", plain)), store.ErrBusy))
}
