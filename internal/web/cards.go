package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/engine"
	"github.com/conorfennell/knoldeck/internal/listing"
)

// cardView is a card with its display classification at request time.
type cardView struct {
	domain.Card
	Due      bool       `json:"due"`
	Status   due.Status `json:"status"`
	DueLabel string     `json:"dueLabel"`
}

func viewCard(c domain.Card, now time.Time) cardView {
	return cardView{
		Card:     c,
		Due:      due.IsDue(c.NextDueDate, now),
		Status:   due.StatusOf(c.NextDueDate, now),
		DueLabel: due.Label(c.NextDueDate, now),
	}
}

func viewCards(cards []domain.Card, now time.Time) []cardView {
	out := make([]cardView, len(cards))
	for i, c := range cards {
		out[i] = viewCard(c, now)
	}
	return out
}

// now returns the request's evaluation instant: the "at" query parameter or
// the engine clock.
func (s *Server) now(r *http.Request) (time.Time, error) {
	clock := s.engine.Now()
	t, err := parseTime(r.URL.Query().Get("at"), clock.Location())
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return clock, nil
	}
	return t, nil
}

// handleListDue returns the cards to review now, most overdue first.
func (s *Server) handleListDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now, err := s.now(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		cards, err := s.engine.ListDue(r.Context(), now)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, viewCards(cards, now))
	}
}

// handleSearch serves the card table: every card, filtered by q and deck and
// ordered by sort and dir.
func (s *Server) handleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		key, err := listing.ParseSortKey(q.Get("sort"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		dir, err := listing.ParseDirection(q.Get("dir"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		now, err := s.now(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		cards, err := s.engine.Search(r.Context(), listing.Query{
			Text:   q.Get("q"),
			DeckID: q.Get("deck"),
			Sort:   listing.SortConfig{Key: key, Direction: dir},
		})
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, viewCards(cards, now))
	}
}

func (s *Server) handleSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now, err := s.now(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		counts, err := s.engine.Summary(r.Context(), now)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, counts)
	}
}

func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.engine.GetCard(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, viewCard(c, s.engine.Now()))
	}
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in engine.NewCard
		if err := decodeJSON(r, &in); err != nil {
			s.respondError(w, r, err)
			return
		}
		c, err := s.engine.CreateCard(r.Context(), in)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, viewCard(c, s.engine.Now()))
	}
}

func (s *Server) handlePatchCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in engine.CardUpdate
		if err := decodeJSON(r, &in); err != nil {
			s.respondError(w, r, err)
			return
		}
		c, err := s.engine.UpdateCard(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, viewCard(c, s.engine.Now()))
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.DeleteCard(r.Context(), chi.URLParam(r, "id")); err != nil {
			s.respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reviewRequest struct {
	Score      domain.Score `json:"score"`
	ReviewedAt *time.Time   `json:"reviewedAt"`
}

// handleReview scores a card and returns its new schedule.
func (s *Server) handleReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
		var at time.Time
		if req.ReviewedAt != nil {
			at = *req.ReviewedAt
		}
		c, err := s.engine.Review(r.Context(), chi.URLParam(r, "id"), req.Score, at)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, viewCard(c, s.engine.Now()))
	}
}

func (s *Server) handleReviewHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := s.engine.ReviewHistory(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, logs)
	}
}

type previewEntry struct {
	Score       domain.Score `json:"score"`
	Label       string       `json:"label"`
	NextDueDate time.Time    `json:"nextDueDate"`
	DueLabel    string       `json:"dueLabel"`
}

// handlePreview lists the due date each score would give the card.
func (s *Server) handlePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now, err := s.now(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		p, err := s.engine.Preview(r.Context(), chi.URLParam(r, "id"), now)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		out := make([]previewEntry, 0, len(p))
		for _, sc := range domain.Scores() {
			out = append(out, previewEntry{
				Score:       sc,
				Label:       sc.String(),
				NextDueDate: p[sc],
				DueLabel:    due.Label(p[sc], now),
			})
		}
		respondJSON(w, http.StatusOK, out)
	}
}
