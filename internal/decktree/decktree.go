// Package decktree builds the deck forest from the flat parent-linked deck
// collection and answers ancestry questions over it.
package decktree

import (
	"fmt"
	"slices"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// Node is a deck with its sub-decks.
type Node struct {
	domain.Deck
	Children []*Node `json:"children"`
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Aggregate sums count over n's whole subtree.
func (n *Node) Aggregate(count func(deckID string) int) int {
	total := 0
	n.Walk(func(x *Node) { total += count(x.ID) })
	return total
}

// Find returns the node with id in the forest, or nil.
func Find(forest []*Node, id string) *Node {
	for _, root := range forest {
		var found *Node
		root.Walk(func(n *Node) {
			if found == nil && n.ID == id {
				found = n
			}
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// Check verifies that every parent reference resolves and that the parent
// relation has no cycles.
func Check(decks []domain.Deck) error {
	byID := make(map[string]domain.Deck, len(decks))
	for _, d := range decks {
		byID[d.ID] = d
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(decks))

	for _, d := range decks {
		if state[d.ID] == done {
			continue
		}
		var path []string
		cur := d
		for {
			if state[cur.ID] == done {
				break
			}
			if state[cur.ID] == visiting {
				return fmt.Errorf("%w: %v", domain.ErrCyclicDeckHierarchy, append(path, cur.ID))
			}
			state[cur.ID] = visiting
			path = append(path, cur.ID)
			if cur.ParentID == nil {
				break
			}
			parent, ok := byID[*cur.ParentID]
			if !ok {
				return fmt.Errorf("%w: %s (parent of %s)", domain.ErrDeckNotFound, *cur.ParentID, cur.ID)
			}
			cur = parent
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return nil
}

// Build returns the forest of decks whose parent is rootID, each with its
// complete subtree. A nil rootID selects the top-level decks. Siblings are
// ordered by Position, ties keeping input order. An unknown rootID yields an
// empty forest.
func Build(decks []domain.Deck, rootID *string) ([]*Node, error) {
	if err := Check(decks); err != nil {
		return nil, err
	}

	children := make(map[string][]domain.Deck)
	var roots []domain.Deck
	for _, d := range decks {
		if d.ParentID == nil {
			roots = append(roots, d)
			continue
		}
		children[*d.ParentID] = append(children[*d.ParentID], d)
	}

	var build func(level []domain.Deck) []*Node
	build = func(level []domain.Deck) []*Node {
		level = slices.Clone(level)
		slices.SortStableFunc(level, func(a, b domain.Deck) int { return a.Position - b.Position })
		nodes := make([]*Node, 0, len(level))
		for _, d := range level {
			nodes = append(nodes, &Node{Deck: d.Clone(), Children: build(children[d.ID])})
		}
		return nodes
	}

	if rootID == nil {
		return build(roots), nil
	}
	return build(children[*rootID]), nil
}

// Descendants returns the ids of every deck below id, nearest first.
func Descendants(decks []domain.Deck, id string) []string {
	children := make(map[string][]string)
	for _, d := range decks {
		if d.ParentID != nil {
			children[*d.ParentID] = append(children[*d.ParentID], d.ID)
		}
	}

	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}

// WouldCycle reports whether making newParent the parent of id would create
// a cycle.
func WouldCycle(decks []domain.Deck, id string, newParent *string) bool {
	if newParent == nil {
		return false
	}
	if *newParent == id {
		return true
	}
	return slices.Contains(Descendants(decks, id), *newParent)
}
