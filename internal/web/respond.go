package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes v with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidScore):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCardNotFound), errors.Is(err, domain.ErrDeckNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCyclicDeckHierarchy), errors.Is(err, domain.ErrDeckNotEmpty):
		return http.StatusConflict
	case errors.Is(err, store.ErrBusy):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error. Unexpected errors are logged and
// reported without detail.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "Unhandled error", "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", domain.ErrInvalidInput)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// parseTime accepts RFC 3339 instants and plain dates, the latter taken as
// midnight in loc. Empty yields the zero time.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad time %q", domain.ErrInvalidInput, s)
	}
	return t, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: bad boolean %q", domain.ErrInvalidInput, s)
	}
	return b, nil
}
