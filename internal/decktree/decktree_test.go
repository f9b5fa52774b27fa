package decktree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/sample"
)

func deck(id, parent string) domain.Deck {
	return domain.Deck{ID: id, Name: id, ParentID: domain.StringPtr(parent)}
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestBuildChain(t *testing.T) {
	decks := []domain.Deck{deck("C", "B"), deck("A", ""), deck("B", "A")}

	forest, err := Build(decks, nil)
	require.NoError(t, err)

	require.Len(t, forest, 1)
	a := forest[0]
	assert.Equal(t, "A", a.ID)
	require.Len(t, a.Children, 1)
	b := a.Children[0]
	assert.Equal(t, "B", b.ID)
	require.Len(t, b.Children, 1)
	c := b.Children[0]
	assert.Equal(t, "C", c.ID)
	assert.Empty(t, c.Children)

	counts := map[string]int{"A": 2, "B": 3, "C": 4}
	assert.Equal(t, 9, a.Aggregate(func(id string) int { return counts[id] }))
	assert.Equal(t, 7, b.Aggregate(func(id string) int { return counts[id] }))
}

func TestBuildFromRoot(t *testing.T) {
	decks, _ := sample.Data(time.Now())

	forest, err := Build(decks, domain.StringPtr("deck-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"deck-2"}, names(forest))

	forest, err = Build(decks, domain.StringPtr("deck-404"))
	require.NoError(t, err)
	assert.Empty(t, forest)

	forest, err = Build(decks, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"deck-1", "deck-3", "deck-5"}, names(forest))
	assert.Equal(t, "deck-4", Find(forest, "deck-4").ID)
	assert.Nil(t, Find(forest, "deck-9"))
}

func TestBuildOrdersByPosition(t *testing.T) {
	first, second, third := deck("x", "p"), deck("y", "p"), deck("z", "p")
	first.Position, second.Position, third.Position = 2, 0, 2

	forest, err := Build([]domain.Deck{deck("p", ""), first, second, third}, domain.StringPtr("p"))
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x", "z"}, names(forest))
}

func TestBuildEmpty(t *testing.T) {
	forest, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, forest)
}

func TestCheck(t *testing.T) {
	testCases := []struct {
		name    string
		decks   []domain.Deck
		wantErr error
	}{
		{name: "forest", decks: []domain.Deck{deck("a", ""), deck("b", "a"), deck("c", "a"), deck("d", "")}},
		{name: "two-cycle", decks: []domain.Deck{deck("a", "b"), deck("b", "a")}, wantErr: domain.ErrCyclicDeckHierarchy},
		{name: "self loop", decks: []domain.Deck{deck("a", "a")}, wantErr: domain.ErrCyclicDeckHierarchy},
		{name: "cycle below a root", decks: []domain.Deck{deck("r", ""), deck("x", "z"), deck("y", "x"), deck("z", "y")}, wantErr: domain.ErrCyclicDeckHierarchy},
		{name: "dangling parent", decks: []domain.Deck{deck("a", "ghost")}, wantErr: domain.ErrDeckNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.decks)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)

			_, err = Build(tc.decks, nil)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDescendantsAndWouldCycle(t *testing.T) {
	decks := []domain.Deck{deck("a", ""), deck("b", "a"), deck("c", "b"), deck("d", "a"), deck("e", "")}

	assert.ElementsMatch(t, []string{"b", "c", "d"}, Descendants(decks, "a"))
	assert.Empty(t, Descendants(decks, "e"))

	assert.True(t, WouldCycle(decks, "a", domain.StringPtr("c")))
	assert.True(t, WouldCycle(decks, "a", domain.StringPtr("a")))
	assert.False(t, WouldCycle(decks, "c", domain.StringPtr("e")))
	assert.False(t, WouldCycle(decks, "c", nil))
}
