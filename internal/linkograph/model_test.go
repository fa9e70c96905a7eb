package linkograph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/linkograph"
)

func TestNew_RejectsSmallMoveCount(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		_, err := linkograph.New(n, nil)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "move count %d", n)
	}
}

func TestNew_RejectsBadLinks(t *testing.T) {
	cases := map[string]linkograph.Link{
		"reversed":      {Move1: 3, Move2: 2},
		"self":          {Move1: 2, Move2: 2},
		"negative":      {Move1: -1, Move2: 2},
		"beyond last":   {Move1: 4, Move2: 5},
		"row too large": {Move1: 1, Move2: 6},
	}
	for name, l := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := linkograph.New(4, []linkograph.Link{l})
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestNew_RejectsMoveZero(t *testing.T) {
	_, err := linkograph.New(4, []linkograph.Link{{Move1: 0, Move2: 3}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestNew_RejectsOversizedMoveCount(t *testing.T) {
	_, err := linkograph.New(linkograph.MaxMoves+1, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = linkograph.New(1<<40, []linkograph.Link{{Move1: 1, Move2: 2}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	g, err := linkograph.New(linkograph.MaxMoves, []linkograph.Link{{Move1: 1, Move2: linkograph.MaxMoves}})
	require.NoError(t, err)
	assert.Equal(t, linkograph.MaxMoves*(linkograph.MaxMoves-1)/2, g.PointSpace())
}

func TestFromZeroBased(t *testing.T) {
	links := linkograph.FromZeroBased([]linkograph.Link{{Move1: 0, Move2: 3}, {Move1: 2, Move2: 3}})
	assert.Equal(t, []linkograph.Link{{Move1: 1, Move2: 4}, {Move1: 3, Move2: 4}}, links)

	g, err := linkograph.New(4, links)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, g.RowHistogram())

	// Move 4 does not exist once numbering starts at 0.
	_, err = linkograph.New(4, linkograph.FromZeroBased([]linkograph.Link{{Move1: 3, Move2: 4}}))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestPointSpaceAndHistogram(t *testing.T) {
	g, err := linkograph.New(4, []linkograph.Link{
		{Move1: 1, Move2: 2},
		{Move1: 2, Move2: 3},
		{Move1: 3, Move2: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, g.PointSpace())
	assert.Equal(t, []int{3, 0, 0}, g.RowHistogram())
	assert.Equal(t, 3, g.EmptyPoints())
}

func TestHistogram_KeepsDuplicates(t *testing.T) {
	g, err := linkograph.New(3, []linkograph.Link{{Move1: 1, Move2: 2}, {Move1: 1, Move2: 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, g.RowHistogram())
	assert.Equal(t, 1, g.EmptyPoints())
}

func TestLinks_ReturnsCopy(t *testing.T) {
	in := []linkograph.Link{{Move1: 1, Move2: 2}}
	g, err := linkograph.New(2, in)
	require.NoError(t, err)

	in[0].Move2 = 99
	out := g.Links()
	out[0].Move1 = 42
	assert.Equal(t, []linkograph.Link{{Move1: 1, Move2: 2}}, g.Links())
}
