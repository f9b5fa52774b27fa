package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/knoldeck/internal/decktree"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/engine"
)

// deckView is a deck tree node with its card counts.
type deckView struct {
	domain.Deck
	CardCount  int         `json:"cardCount"`
	TotalCount int         `json:"totalCount"`
	Children   []*deckView `json:"children"`
}

func (s *Server) viewTree(ctx context.Context, forest []*decktree.Node) ([]*deckView, error) {
	out := make([]*deckView, 0, len(forest))
	for _, n := range forest {
		own, err := s.engine.CardCount(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		total, err := s.engine.AggregateCardCount(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		children, err := s.viewTree(ctx, n.Children)
		if err != nil {
			return nil, err
		}
		out = append(out, &deckView{Deck: n.Deck, CardCount: own, TotalCount: total, Children: children})
	}
	return out, nil
}

// handleDeckTree returns the deck forest, or the subtree below ?root=.
func (s *Server) handleDeckTree() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rootID := domain.StringPtr(r.URL.Query().Get("root"))
		forest, err := s.engine.DeckTree(r.Context(), rootID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		views, err := s.viewTree(r.Context(), forest)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, views)
	}
}

func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.engine.GetDeck(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, d)
	}
}

func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in engine.NewDeck
		if err := decodeJSON(r, &in); err != nil {
			s.respondError(w, r, err)
			return
		}
		d, err := s.engine.CreateDeck(r.Context(), in)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, d)
	}
}

// handlePatchDeck renames and/or moves a deck. A "parentId" of null moves
// the deck to the top level; leaving the field out keeps its parent.
func (s *Server) handlePatchDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var fields map[string]json.RawMessage
		if err := decodeJSON(r, &fields); err != nil {
			s.respondError(w, r, err)
			return
		}
		for k := range fields {
			if k != "name" && k != "parentId" {
				s.respondError(w, r, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, k))
				return
			}
		}

		d, err := s.engine.GetDeck(r.Context(), id)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if raw, ok := fields["parentId"]; ok {
			var parent *string
			if err := json.Unmarshal(raw, &parent); err != nil {
				s.respondError(w, r, fmt.Errorf("%w: parentId: %v", domain.ErrInvalidInput, err))
				return
			}
			if d, err = s.engine.ReparentDeck(r.Context(), id, parent); err != nil {
				s.respondError(w, r, err)
				return
			}
		}
		if raw, ok := fields["name"]; ok {
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				s.respondError(w, r, fmt.Errorf("%w: name: %v", domain.ErrInvalidInput, err))
				return
			}
			if d, err = s.engine.RenameDeck(r.Context(), id, name); err != nil {
				s.respondError(w, r, err)
				return
			}
		}
		respondJSON(w, http.StatusOK, d)
	}
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// handleReorderDecks orders the children of the deck in the path, or the
// top-level decks when there is none.
func (s *Server) handleReorderDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		parent := domain.StringPtr(chi.URLParam(r, "id"))
		if parent != nil {
			if _, err := s.engine.GetDeck(r.Context(), *parent); err != nil {
				s.respondError(w, r, err)
				return
			}
		}
		if err := s.engine.ReorderSiblings(r.Context(), parent, req.IDs); err != nil {
			s.respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policy, err := engine.ParseDeletePolicy(r.URL.Query().Get("policy"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		res, err := s.engine.DeleteDeck(r.Context(), chi.URLParam(r, "id"), policy)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleDeckCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.engine.ListByDeck(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, viewCards(cards, s.engine.Now()))
	}
}

type countResponse struct {
	DeckID    string `json:"deckId"`
	Aggregate bool   `json:"aggregate"`
	Count     int    `json:"count"`
}

// handleDeckCount counts a deck's own cards, or with ?aggregate=true the
// cards of its whole subtree.
func (s *Server) handleDeckCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		agg, err := parseBool(r.URL.Query().Get("aggregate"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		var n int
		if agg {
			n, err = s.engine.AggregateCardCount(r.Context(), id)
		} else {
			n, err = s.engine.CardCount(r.Context(), id)
		}
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, countResponse{DeckID: id, Aggregate: agg, Count: n})
	}
}

type importRequest struct {
	Source string `json:"source"`
}

// handleImport imports a local directory or git repository of notes.
func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.importer == nil {
			respondJSON(w, http.StatusNotImplemented, errorResponse{Error: "import is not enabled"})
			return
		}
		var req importRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		if req.Source == "" {
			s.respondError(w, r, fmt.Errorf("%w: source is required", domain.ErrInvalidInput))
			return
		}
		rep, err := s.importer.Import(r.Context(), req.Source)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, rep)
	}
}
