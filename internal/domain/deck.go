package domain

import (
	"fmt"
	"time"
)

// Deck is a named, nestable container for cards.
type Deck struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ParentID  *string   `json:"parentId" db:"parent_id"` // nil for a root deck.
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsRoot reports whether the deck has no parent.
func (d Deck) IsRoot() bool {
	return d.ParentID == nil
}

// Parent returns the parent id, or "" for a root deck.
func (d Deck) Parent() string {
	if d.ParentID == nil {
		return ""
	}
	return *d.ParentID
}

// Validate checks the structural invariants of a single deck.
func (d Deck) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: deck id is empty", ErrInvalidInput)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: deck %s has no name", ErrInvalidInput, d.ID)
	}
	if d.ParentID != nil && *d.ParentID == d.ID {
		return fmt.Errorf("%w: deck %s is its own parent", ErrCyclicDeckHierarchy, d.ID)
	}
	return nil
}

// Clone returns a deep copy of the deck.
func (d Deck) Clone() Deck {
	out := d
	if d.ParentID != nil {
		v := *d.ParentID
		out.ParentID = &v
	}
	return out
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
