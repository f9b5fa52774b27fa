// Package storage is the SQLite-backed store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/store"
)

var _ store.Store = (*DB)(nil)

const pragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// DB represents a wrapper around the SQL database connection.
type DB struct {
	repo
	conn *sqlx.DB
}

// Open creates a new database connection and ensures the schema is up to date.
// A single connection is used so that writers serialize.
func Open(dsn string) (*DB, error) {
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + pragmas
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{repo: repo{q: db}, conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Tx runs fn inside a database transaction.
func (db *DB) Tx(ctx context.Context, fn func(store.Repo) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	if err := fn(&repo{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// classify marks busy and locked errors as transient.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", store.ErrBusy, err)
		}
	}
	return err
}

// repo implements store.Repo over either the connection pool or a transaction.
type repo struct {
	q sqlx.ExtContext
}

const cardColumns = `id, title, content, deck_id, next_due_date, last_reviewed_date, last_score,
	ease, repetitions, lapses, created_at, updated_at`

const deckColumns = `id, name, parent_id, position, created_at, updated_at`

// GetCard retrieves a card by id.
func (r *repo) GetCard(ctx context.Context, id string) (domain.Card, error) {
	var c domain.Card
	err := sqlx.GetContext(ctx, r.q, &c, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Card{}, fmt.Errorf("%w: %s", domain.ErrCardNotFound, id)
		}
		return domain.Card{}, classify(fmt.Errorf("failed to find card %s: %w", id, err))
	}
	return c, nil
}

// ListCards retrieves every card in insertion order.
func (r *repo) ListCards(ctx context.Context) ([]domain.Card, error) {
	cards := []domain.Card{}
	if err := sqlx.SelectContext(ctx, r.q, &cards, `SELECT `+cardColumns+` FROM cards ORDER BY seq`); err != nil {
		return nil, classify(fmt.Errorf("failed to list cards: %w", err))
	}
	return cards, nil
}

// ListCardsByDeck retrieves the cards directly inside a deck.
func (r *repo) ListCardsByDeck(ctx context.Context, deckID string) ([]domain.Card, error) {
	cards := []domain.Card{}
	err := sqlx.SelectContext(ctx, r.q, &cards, `SELECT `+cardColumns+` FROM cards WHERE deck_id = ? ORDER BY seq`, deckID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list cards for deck %s: %w", deckID, err))
	}
	return cards, nil
}

// PutCard inserts a card or updates it in place.
func (r *repo) PutCard(ctx context.Context, c domain.Card) error {
	if err := r.deckExists(ctx, c.DeckID); err != nil {
		return fmt.Errorf("card %s: %w", c.ID, err)
	}
	c = utcCard(c)
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (:id, :title, :content, :deck_id, :next_due_date, :last_reviewed_date, :last_score,
			:ease, :repetitions, :lapses, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			deck_id = excluded.deck_id,
			next_due_date = excluded.next_due_date,
			last_reviewed_date = excluded.last_reviewed_date,
			last_score = excluded.last_score,
			ease = excluded.ease,
			repetitions = excluded.repetitions,
			lapses = excluded.lapses,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, c)
	if err != nil {
		return classify(fmt.Errorf("failed to store card %s: %w", c.ID, err))
	}
	return nil
}

// DeleteCard removes a card and its review history.
func (r *repo) DeleteCard(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return classify(fmt.Errorf("failed to delete card %s: %w", id, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrCardNotFound, id)
	}
	return nil
}

// GetDeck retrieves a deck by id.
func (r *repo) GetDeck(ctx context.Context, id string) (domain.Deck, error) {
	var d domain.Deck
	err := sqlx.GetContext(ctx, r.q, &d, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Deck{}, fmt.Errorf("%w: %s", domain.ErrDeckNotFound, id)
		}
		return domain.Deck{}, classify(fmt.Errorf("failed to find deck %s: %w", id, err))
	}
	return d, nil
}

// ListDecks retrieves every deck in insertion order.
func (r *repo) ListDecks(ctx context.Context) ([]domain.Deck, error) {
	decks := []domain.Deck{}
	if err := sqlx.SelectContext(ctx, r.q, &decks, `SELECT `+deckColumns+` FROM decks ORDER BY seq`); err != nil {
		return nil, classify(fmt.Errorf("failed to list decks: %w", err))
	}
	return decks, nil
}

// PutDeck inserts a deck or updates it in place.
func (r *repo) PutDeck(ctx context.Context, d domain.Deck) error {
	if d.ParentID != nil {
		if err := r.deckExists(ctx, *d.ParentID); err != nil {
			return fmt.Errorf("parent of deck %s: %w", d.ID, err)
		}
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO decks (`+deckColumns+`)
		VALUES (:id, :name, :parent_id, :position, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			parent_id = excluded.parent_id,
			position = excluded.position,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, d)
	if err != nil {
		return classify(fmt.Errorf("failed to store deck %s: %w", d.ID, err))
	}
	return nil
}

// DeleteDeck removes an empty deck.
func (r *repo) DeleteDeck(ctx context.Context, id string) error {
	if err := r.deckExists(ctx, id); err != nil {
		return err
	}
	var held int
	err := sqlx.GetContext(ctx, r.q, &held, `
		SELECT (SELECT COUNT(*) FROM cards WHERE deck_id = ?) + (SELECT COUNT(*) FROM decks WHERE parent_id = ?)
	`, id, id)
	if err != nil {
		return classify(fmt.Errorf("failed to check deck %s contents: %w", id, err))
	}
	if held > 0 {
		return fmt.Errorf("%w: %s holds %d cards or decks", domain.ErrDeckNotEmpty, id, held)
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id); err != nil {
		return classify(fmt.Errorf("failed to delete deck %s: %w", id, err))
	}
	return nil
}

// AppendReview records a committed review.
func (r *repo) AppendReview(ctx context.Context, l domain.ReviewLog) error {
	l.ReviewedAt = l.ReviewedAt.UTC()
	l.PrevDue = l.PrevDue.UTC()
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO review_logs (card_id, score, reviewed_at, prev_due, interval_days)
		VALUES (:card_id, :score, :reviewed_at, :prev_due, :interval_days)
	`, l)
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return fmt.Errorf("%w: %s", domain.ErrCardNotFound, l.CardID)
		}
		return classify(fmt.Errorf("failed to record review for card %s: %w", l.CardID, err))
	}
	return nil
}

// ListReviews retrieves a card's review history, oldest first.
func (r *repo) ListReviews(ctx context.Context, cardID string) ([]domain.ReviewLog, error) {
	logs := []domain.ReviewLog{}
	err := sqlx.SelectContext(ctx, r.q, &logs, `
		SELECT card_id, score, reviewed_at, prev_due, interval_days
		FROM review_logs WHERE card_id = ? ORDER BY id
	`, cardID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list reviews for card %s: %w", cardID, err))
	}
	return logs, nil
}

func (r *repo) deckExists(ctx context.Context, id string) error {
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM decks WHERE id = ?`, id); err != nil {
		return classify(fmt.Errorf("failed to look up deck %s: %w", id, err))
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDeckNotFound, id)
	}
	return nil
}

// utcCard returns c with every timestamp in UTC. The driver writes times with
// their zone abbreviation, which it cannot parse back for fixed-offset zones.
func utcCard(c domain.Card) domain.Card {
	c = c.Clone()
	c.NextDueDate = c.NextDueDate.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	if c.LastReviewedDate != nil {
		*c.LastReviewedDate = c.LastReviewedDate.UTC()
	}
	return c
}
