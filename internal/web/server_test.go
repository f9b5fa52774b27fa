package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/engine"
	"github.com/conorfennell/knoldeck/internal/importer"
	"github.com/conorfennell/knoldeck/internal/sample"
	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/conorfennell/knoldeck/internal/storage"
	"github.com/conorfennell/knoldeck/internal/store"
	"github.com/conorfennell/knoldeck/internal/store/memory"
)

var now = time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	return newServerOn(t, memory.New(), opts...)
}

func newServerOn(t *testing.T, s store.Store, opts ...Option) *Server {
	t.Helper()
	decks, cards := sample.Data(now)
	require.NoError(t, store.Seed(context.Background(), s, decks, cards))

	sched, err := srs.NewScheduler(srs.DefaultParams())
	require.NoError(t, err)
	clock := func() time.Time { return now }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := engine.New(s, sched, engine.WithClock(clock), engine.WithLogger(logger))

	base := []Option{
		WithLogger(logger),
		WithImporter(importer.New(s, importer.WithClock(clock))),
	}
	return NewServer(e, append(base, opts...)...)
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type card struct {
	ID       string     `json:"id"`
	DeckID   string     `json:"deckId"`
	Status   due.Status `json:"status"`
	DueLabel string     `json:"dueLabel"`
	Due      bool       `json:"due"`
	Score    *int       `json:"lastScore"`
}

func cardIDs(cards []card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListDue(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/due", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cards := decode[[]card](t, rec)
	assert.Equal(t, []string{"card-3", "card-4", "card-1", "card-2"}, cardIDs(cards))

	assert.Equal(t, due.Overdue, cards[0].Status)
	assert.Equal(t, "2 days ago", cards[0].DueLabel)
	assert.Equal(t, "Yesterday", cards[1].DueLabel)
	assert.Equal(t, due.Upcoming, cards[2].Status)
	assert.Equal(t, "Today", cards[2].DueLabel)
	assert.True(t, cards[2].Due)

	rec = do(t, srv, http.MethodGet, "/api/due?at=2025-01-18", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"card-3"}, cardIDs(decode[[]card](t, rec)))

	rec = do(t, srv, http.MethodGet, "/api/due?at=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseTime(t *testing.T) {
	kiritimati := time.FixedZone("", 14*60*60)

	got, err := parseTime("2025-01-20", kiritimati)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 1, 20, 0, 0, 0, 0, kiritimati)))
	assert.Equal(t, 20, got.Day())

	got, err = parseTime("2025-01-20T09:30:00-07:00", kiritimati)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 1, 20, 16, 30, 0, 0, time.UTC)))

	got, err = parseTime("", kiritimati)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseTime("20/01/2025", kiritimati)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"closure", "/api/upcoming?q=CLOSURE", []string{"card-1"}},
		{"deck filter", "/api/upcoming?deck=deck-4", []string{"card-4", "card-10"}},
		{"all decks sentinel", "/api/upcoming?deck=all&q=closure", []string{"card-1"}},
		{"due date desc", "/api/upcoming?deck=deck-2&sort=nextDueDate&dir=desc", []string{"card-9", "card-5", "card-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, cardIDs(decode[[]card](t, rec)))
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/upcoming", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]card](t, rec), 10)

	rec = do(t, srv, http.MethodGet, "/api/upcoming?sort=colour", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, due.Counts{Due: 4, Overdue: 2, Upcoming: 6}, decode[due.Counts](t, rec))
}

func TestReview(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/cards/card-1/review", `{"score": 5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := decode[card](t, rec)
	require.NotNil(t, c.Score)
	assert.Equal(t, 5, *c.Score)
	assert.False(t, c.Due)

	rec = do(t, srv, http.MethodPost, "/api/cards/card-2/review", `{"score": "hard", "reviewedAt": "2025-01-20T08:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/cards/card-1/reviews", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	for _, body := range []string{`{"score": 0}`, `{"score": 6}`, `{"score": "meh"}`, `{"grade": 3}`, `not json`} {
		rec = do(t, srv, http.MethodPost, "/api/cards/card-1/review", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = do(t, srv, http.MethodPost, "/api/cards/card-404/review", `{"score": 3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewWithOffsetOnSQLite(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "knoldeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	srv := newServerOn(t, db)

	rec := do(t, srv, http.MethodPost, "/api/cards/card-1/review", `{"score":4,"reviewedAt":"2025-01-20T09:30:00-07:00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, path := range []string{"/api/due", "/api/upcoming", "/api/summary", "/api/decks/deck-1/count?aggregate=true", "/api/cards/card-1/reviews"} {
		rec := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path+": "+rec.Body.String())
	}

	got := decode[card](t, do(t, srv, http.MethodGet, "/api/cards/card-1", ""))
	require.NotNil(t, got.Score)
	assert.Equal(t, 4, *got.Score)
}

func TestPreview(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/cards/card-5/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]struct {
		Score       int       `json:"score"`
		Label       string    `json:"label"`
		NextDueDate time.Time `json:"nextDueDate"`
	}](t, rec)
	require.Len(t, entries, 5)
	assert.Equal(t, "Forgot", entries[0].Label)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].NextDueDate.Before(entries[i-1].NextDueDate))
	}
}

func TestCardCRUD(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/cards", `{"title": "Goroutines", "content": "go f()", "deckId": "deck-5"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[card](t, rec)
	assert.Equal(t, "Today", created.DueLabel)

	rec = do(t, srv, http.MethodPatch, "/api/cards/"+created.ID, `{"deckId": "deck-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "deck-1", decode[card](t, rec).DeckID)

	rec = do(t, srv, http.MethodGet, "/api/cards/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/cards/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/cards/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/cards", `{"title": "", "deckId": "deck-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, srv, http.MethodPost, "/api/cards", `{"title": "x", "deckId": "deck-404"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type deckNode struct {
	ID         string      `json:"id"`
	CardCount  int         `json:"cardCount"`
	TotalCount int         `json:"totalCount"`
	Children   []*deckNode `json:"children"`
}

func TestDecks(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/decks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decode[[]*deckNode](t, rec)
	require.Len(t, tree, 3)
	assert.Equal(t, "deck-1", tree[0].ID)
	assert.Equal(t, 4, tree[0].CardCount)
	assert.Equal(t, 7, tree[0].TotalCount)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "deck-2", tree[0].Children[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/decks?root=deck-3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sub := decode[[]*deckNode](t, rec)
	require.Len(t, sub, 1)
	assert.Equal(t, "deck-4", sub[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/decks/deck-1/count", "")
	assert.Equal(t, 4, decode[countResponse](t, rec).Count)
	rec = do(t, srv, http.MethodGet, "/api/decks/deck-1/count?aggregate=true", "")
	assert.Equal(t, 7, decode[countResponse](t, rec).Count)
	rec = do(t, srv, http.MethodGet, "/api/decks/deck-1/count?aggregate=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/decks/deck-2/cards", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"card-2", "card-5", "card-9"}, cardIDs(decode[[]card](t, rec)))

	rec = do(t, srv, http.MethodGet, "/api/decks/deck-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeckMutations(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/decks", `{"name": "Go", "parentId": "deck-5"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[deckNode](t, rec)

	rec = do(t, srv, http.MethodPatch, "/api/decks/deck-1", `{"parentId": "deck-2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPatch, "/api/decks/deck-4", `{"parentId": null, "name": "Types"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var moved struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parentId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	assert.Equal(t, "Types", moved.Name)
	assert.Nil(t, moved.ParentID)

	rec = do(t, srv, http.MethodPatch, "/api/decks/deck-4", `{"colour": "red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/decks/reorder", `{"ids": ["deck-4", "deck-5", "deck-3", "deck-1"]}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodGet, "/api/decks", "")
	tree := decode[[]*deckNode](t, rec)
	require.Len(t, tree, 4)
	assert.Equal(t, "deck-4", tree[0].ID)

	rec = do(t, srv, http.MethodPost, "/api/decks/deck-5/reorder", `{"ids": ["nope"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/decks/deck-1?policy=forbid", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/decks/deck-1?policy=shred", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/decks/deck-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.DeleteResult{DecksDeleted: 1, CardsMoved: 3}, decode[engine.DeleteResult](t, rec))

	rec = do(t, srv, http.MethodDelete, "/api/decks/deck-5?policy=cascade", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.DeleteResult{DecksDeleted: 2}, decode[engine.DeleteResult](t, rec))

	rec = do(t, srv, http.MethodGet, "/api/decks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImport(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.md"), []byte("## Channels\nTyped pipes.\n"), 0o644))

	body, err := json.Marshal(importRequest{Source: root})
	require.NoError(t, err)
	rec := do(t, srv, http.MethodPost, "/api/import", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[importer.Report](t, rec).CardsCreated)

	rec = do(t, srv, http.MethodGet, "/api/upcoming?q=typed+pipes", "")
	assert.Len(t, decode[[]card](t, rec), 1)

	rec = do(t, srv, http.MethodPost, "/api/import", `{"source": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, WithCORSOrigins([]string{"http://localhost:5173"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/due", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(store.ErrBusy))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
