// Package importer loads decks and cards from a directory of markdown notes,
// or from a git repository of them, and reconciles them with the store.
//
// Every directory is a deck and sub-directories are sub-decks. A deck's name
// and sibling position may be set in a deck.toml file; otherwise the
// directory name is used. Cards come from the .md files directly inside the
// directory. Cards keep their id, and so their schedule, across imports as
// long as their title and deck do not change.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/conorfennell/knoldeck/internal/cardid"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/gitsource"
	"github.com/conorfennell/knoldeck/internal/parser"
	"github.com/conorfennell/knoldeck/internal/store"
)

// MetaFile is the optional per-directory deck description.
const MetaFile = "deck.toml"

// DeckMeta is the content of a deck.toml file.
type DeckMeta struct {
	Name     string `toml:"name"`
	Position *int   `toml:"position"`
}

// Report summarises one import.
type Report struct {
	Source       string   `json:"source"`
	Decks        int      `json:"decks"`
	DecksCreated int      `json:"decksCreated"`
	CardsCreated int      `json:"cardsCreated"`
	CardsUpdated int      `json:"cardsUpdated"`
	CardsDeleted int      `json:"cardsDeleted"`
	Unchanged    int      `json:"unchanged"`
	Errors       []string `json:"errors,omitempty"`
}

// Importer writes imported notes into a Store.
type Importer struct {
	store    store.Store
	now      func() time.Time
	reposDir string
	progress io.Writer
}

// Option configures an Importer.
type Option func(*Importer)

// WithClock sets the time new cards are created and scheduled at.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// WithReposDir sets where git sources are checked out.
func WithReposDir(dir string) Option {
	return func(im *Importer) { im.reposDir = dir }
}

// WithProgress sets where git progress output is written.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) { im.progress = w }
}

// New returns an Importer writing to s.
func New(s store.Store, opts ...Option) *Importer {
	im := &Importer{store: s, now: time.Now, reposDir: "repos"}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import imports src, which is either a local directory or a git URL.
func (im *Importer) Import(ctx context.Context, src string) (Report, error) {
	if gitsource.IsURL(src) {
		return im.ImportGit(ctx, src)
	}
	return im.ImportDir(ctx, src)
}

// ImportGit clones or pulls repoURL under the repos directory and imports
// the checkout.
func (im *Importer) ImportGit(ctx context.Context, repoURL string) (Report, error) {
	localPath, err := gitsource.LocalPath(im.reposDir, repoURL)
	if err != nil {
		return Report{}, err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), os.ModePerm); err != nil {
		return Report{}, fmt.Errorf("failed to create repos directory: %w", err)
	}
	if err := gitsource.Sync(ctx, repoURL, localPath, im.progress); err != nil {
		return Report{}, err
	}
	return im.importTree(ctx, repoURL, localPath)
}

// ImportDir imports the notes under root.
func (im *Importer) ImportDir(ctx context.Context, root string) (Report, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Report{}, fmt.Errorf("resolve %s: %w", root, err)
	}
	return im.importTree(ctx, filepath.Base(abs), abs)
}

// deckPlan is one directory as found on disk.
type deckPlan struct {
	deck     domain.Deck
	cards    []domain.Card
	parseErr bool
}

func (im *Importer) importTree(ctx context.Context, source, root string) (Report, error) {
	slog.Info("Starting import", "source", source, "path", root)
	rep := Report{Source: source}

	info, err := os.Stat(root)
	if err != nil {
		return rep, fmt.Errorf("import %s: %w", source, err)
	}
	if !info.IsDir() {
		return rep, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}

	plans, err := im.scan(source, root, &rep)
	if err != nil {
		slog.Error("Error walking directory", "path", root, "error", err)
		return rep, err
	}

	err = im.store.Tx(ctx, func(r store.Repo) error {
		counts := Report{Source: source, Errors: rep.Errors}
		for _, p := range plans {
			if err := im.reconcile(ctx, r, p, &counts); err != nil {
				return err
			}
		}
		counts.Decks = len(plans)
		rep = counts
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("import %s: %w", source, err)
	}

	slog.Info("reconciliation complete",
		"source", source,
		"decks", rep.Decks,
		"created", rep.CardsCreated,
		"updated", rep.CardsUpdated,
		"orphaned_deleted", rep.CardsDeleted,
		"errors", len(rep.Errors),
	)
	return rep, nil
}

// scan walks root and returns one plan per deck directory, parents first.
func (im *Importer) scan(source, root string, rep *Report) ([]*deckPlan, error) {
	byDir := make(map[string]*deckPlan)
	var plans []*deckPlan
	siblings := make(map[string]int)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			p, err := im.planDeck(source, root, path, siblings)
			if err != nil {
				return err
			}
			byDir[path] = p
			plans = append(plans, p)
			return nil
		}

		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		p := byDir[filepath.Dir(path)]
		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("parsing %s: %v", path, parseErr))
			p.parseErr = true
			return nil
		}
		p.cards = append(p.cards, fileCards...)
		return nil
	})
	return plans, walkErr
}

func (im *Importer) planDeck(source, root, dir string, siblings map[string]int) (*deckPlan, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	meta, err := readMeta(dir)
	if err != nil {
		return nil, err
	}

	d := domain.Deck{ID: cardid.Deck(source, rel), Name: meta.Name}
	if d.Name == "" {
		d.Name = filepath.Base(dir)
	}
	if rel != "." {
		d.ParentID = domain.StringPtr(cardid.Deck(source, filepath.ToSlash(filepath.Dir(rel))))
	}

	parent := d.Parent()
	if meta.Position != nil {
		d.Position = *meta.Position
	} else {
		d.Position = siblings[parent]
	}
	siblings[parent]++
	return &deckPlan{deck: d}, nil
}

func readMeta(dir string) (DeckMeta, error) {
	var meta DeckMeta
	path := filepath.Join(dir, MetaFile)
	if _, err := toml.DecodeFile(path, &meta); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DeckMeta{}, nil
		}
		return DeckMeta{}, fmt.Errorf("reading %s: %w", path, err)
	}
	meta.Name = strings.TrimSpace(meta.Name)
	return meta, nil
}

// reconcile writes one deck and its cards, and deletes the deck's cards that
// no longer exist on disk.
func (im *Importer) reconcile(ctx context.Context, r store.Repo, p *deckPlan, rep *Report) error {
	now := im.now()

	existing, err := r.GetDeck(ctx, p.deck.ID)
	switch {
	case errors.Is(err, domain.ErrDeckNotFound):
		d := p.deck
		d.CreatedAt, d.UpdatedAt = now, now
		if err := r.PutDeck(ctx, d); err != nil {
			return err
		}
		rep.DecksCreated++
	case err != nil:
		return err
	case existing.Name != p.deck.Name || existing.Parent() != p.deck.Parent() || existing.Position != p.deck.Position:
		existing.Name, existing.ParentID, existing.Position = p.deck.Name, p.deck.ParentID, p.deck.Position
		existing.UpdatedAt = now
		if err := r.PutDeck(ctx, existing); err != nil {
			return err
		}
	}

	found := make(map[string]bool, len(p.cards))
	for _, parsed := range p.cards {
		id := cardid.Card(p.deck.ID, parsed.Title)
		if found[id] {
			rep.Errors = append(rep.Errors, fmt.Sprintf("deck %s: duplicate card %q", p.deck.Name, parsed.Title))
			continue
		}
		found[id] = true

		card, err := r.GetCard(ctx, id)
		switch {
		case errors.Is(err, domain.ErrCardNotFound):
			slog.Info("New card found, inserting...", "card", id)
			card = domain.Card{
				ID:          id,
				Title:       parsed.Title,
				Content:     parsed.Content,
				DeckID:      p.deck.ID,
				NextDueDate: due.StartOfDay(now),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			rep.CardsCreated++
		case err != nil:
			return err
		case card.Title == parsed.Title && card.Content == parsed.Content && card.DeckID == p.deck.ID:
			rep.Unchanged++
			continue
		default:
			card.Title, card.Content, card.DeckID = parsed.Title, parsed.Content, p.deck.ID
			card.UpdatedAt = now
			rep.CardsUpdated++
		}
		if err := r.PutCard(ctx, card); err != nil {
			return fmt.Errorf("db write for %s: %w", id, err)
		}
	}

	if p.parseErr {
		return nil
	}
	stored, err := r.ListCardsByDeck(ctx, p.deck.ID)
	if err != nil {
		return err
	}
	for _, c := range stored {
		if found[c.ID] {
			continue
		}
		slog.Info("Orphaned card, deleting", "card", c.ID)
		if err := r.DeleteCard(ctx, c.ID); err != nil {
			return err
		}
		rep.CardsDeleted++
	}
	return nil
}
