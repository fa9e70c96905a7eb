package linkograph_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/linkograph/internal/linkograph"
)

func TestEntropy_AdjacentChain(t *testing.T) {
	g, err := linkograph.New(4, []linkograph.Link{
		{Move1: 1, Move2: 2},
		{Move1: 2, Move2: 3},
		{Move1: 3, Move2: 4},
	})
	require.NoError(t, err)

	// p(row 0) = p(empty) = 0.5
	assert.InDelta(t, 1.0, g.Entropy(), 1e-12)
}

func TestEntropy_NoLinksIsZero(t *testing.T) {
	for n := 2; n <= 12; n++ {
		g, err := linkograph.New(n, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, g.Entropy(), "move count %d", n)
	}
}

func TestEntropy_FullTriangleHasNoEmptyTerm(t *testing.T) {
	g, err := linkograph.New(3, []linkograph.Link{
		{Move1: 1, Move2: 2},
		{Move1: 2, Move2: 3},
		{Move1: 1, Move2: 3},
	})
	require.NoError(t, err)
	require.Equal(t, 0, g.EmptyPoints())

	want := -(2.0/3)*math.Log2(2.0/3) - (1.0/3)*math.Log2(1.0/3)
	assert.InDelta(t, want, g.Entropy(), 1e-12)
}

func TestEntropy_OrderIndependent(t *testing.T) {
	links := []linkograph.Link{
		{Move1: 1, Move2: 2},
		{Move1: 1, Move2: 5},
		{Move1: 3, Move2: 4},
		{Move1: 2, Move2: 6},
		{Move1: 4, Move2: 6},
	}
	g1, err := linkograph.New(6, links)
	require.NoError(t, err)

	reversed := make([]linkograph.Link, len(links))
	for i, l := range links {
		reversed[len(links)-1-i] = l
	}
	g2, err := linkograph.New(6, reversed)
	require.NoError(t, err)

	assert.Equal(t, g1.Entropy(), g2.Entropy())
}

func TestEntropy_DuplicatesBeyondCapacity(t *testing.T) {
	// Three copies of the only link: row count 3 over T=1, empty points negative.
	g, err := linkograph.New(2, []linkograph.Link{
		{Move1: 1, Move2: 2},
		{Move1: 1, Move2: 2},
		{Move1: 1, Move2: 2},
	})
	require.NoError(t, err)
	assert.InDelta(t, -3*math.Log2(3), g.Entropy(), 1e-12)
}
