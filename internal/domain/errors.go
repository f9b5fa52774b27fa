package domain

import "errors"

// Sentinel errors. Use errors.Is to check: errors.Is(err, domain.ErrInvalidScore)
var (
	ErrInvalidScore        = errors.New("knoldeck: invalid score")
	ErrInvalidInput        = errors.New("knoldeck: invalid input")
	ErrCardNotFound        = errors.New("knoldeck: card not found")
	ErrDeckNotFound        = errors.New("knoldeck: deck not found")
	ErrCyclicDeckHierarchy = errors.New("knoldeck: cyclic deck hierarchy")
	ErrDeckNotEmpty        = errors.New("knoldeck: deck not empty")
)
