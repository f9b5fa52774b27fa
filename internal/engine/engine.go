// Package engine is the scheduling engine: the single owner of cards and
// decks. Reads classify and order cards; every mutation runs as one store
// transaction, retried while the store reports itself busy.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/conorfennell/knoldeck/internal/store"
)

// Engine serves card and deck operations over a Store.
type Engine struct {
	store    store.Store
	sched    *srs.Scheduler
	log      *slog.Logger
	now      func() time.Time
	policy   DeletePolicy
	attempts int
	backoff  time.Duration
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the time source used when a caller passes no instant.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDeletePolicy sets the policy DeleteDeck applies when none is given.
func WithDeletePolicy(p DeletePolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithRetry sets how many times a transaction is attempted while the store
// is busy, and the base delay between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(e *Engine) {
		e.attempts = max(attempts, 1)
		e.backoff = backoff
	}
}

// New returns an Engine over s.
func New(s store.Store, sched *srs.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		sched:    sched,
		log:      slog.Default(),
		now:      time.Now,
		policy:   Reparent,
		attempts: 5,
		backoff:  20 * time.Millisecond,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) at(t time.Time) time.Time {
	if t.IsZero() {
		return e.now()
	}
	return t
}

// tx runs fn in a store transaction, retrying transient failures. Errors
// other than store.ErrBusy are returned at once.
func (e *Engine) tx(ctx context.Context, op string, fn func(store.Repo) error) error {
	for attempt := 1; ; attempt++ {
		err := e.store.Tx(ctx, fn)
		if err == nil || !errors.Is(err, store.ErrBusy) {
			return err
		}
		if attempt >= e.attempts {
			return fmt.Errorf("%s failed after %d attempts: %w", op, attempt, err)
		}
		e.log.Warn("store busy, retrying", "op", op, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.backoff * time.Duration(attempt)):
		}
	}
}
