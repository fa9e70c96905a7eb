package linkograph_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/linkograph"
)

func TestRunTest_Balanced(t *testing.T) {
	res, err := linkograph.RunTest(5, 5, 5)
	require.NoError(t, err)
	require.NotNil(t, res.Z)

	assert.InDelta(t, 6.0, res.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2000.0/900.0), res.StdDev, 1e-12)
	assert.InDelta(t, -0.6708, *res.Z, 1e-4)
	assert.InDelta(t, 0.502, res.PValue, 1e-3)
}

func TestRunTest_Degenerate(t *testing.T) {
	cases := [][3]int{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{0, 9, 1},
		{7, 0, 1},
		{1, 1, 2},
	}
	for _, c := range cases {
		res, err := linkograph.RunTest(c[0], c[1], c[2])
		require.NoError(t, err, "case %v", c)
		assert.Nil(t, res.Z, "case %v", c)
		assert.Equal(t, 1.0, res.PValue, "case %v", c)
	}
}

func TestRunTest_SymmetricInCounts(t *testing.T) {
	for _, c := range [][3]int{{3, 7, 4}, {2, 9, 5}, {12, 4, 3}, {6, 5, 11}} {
		a, err := linkograph.RunTest(c[0], c[1], c[2])
		require.NoError(t, err)
		b, err := linkograph.RunTest(c[1], c[0], c[2])
		require.NoError(t, err)

		assert.Equal(t, a.Mean, b.Mean)
		assert.Equal(t, a.StdDev, b.StdDev)
		require.NotNil(t, a.Z)
		require.NotNil(t, b.Z)
		assert.Equal(t, *a.Z, *b.Z)
		assert.Equal(t, a.PValue, b.PValue)
	}
}

func TestRunTest_PValueInUnitInterval(t *testing.T) {
	for n1 := 1; n1 <= 8; n1++ {
		for n2 := 1; n2 <= 8; n2++ {
			for r := 0; r <= n1+n2; r++ {
				res, err := linkograph.RunTest(n1, n2, r)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.PValue, 0.0)
				assert.LessOrEqual(t, res.PValue, 1.0)
			}
		}
	}
}

func TestRunTest_NegativeCounts(t *testing.T) {
	for _, c := range [][3]int{{-1, 3, 2}, {3, -1, 2}, {3, 3, -1}} {
		_, err := linkograph.RunTest(c[0], c[1], c[2])
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "case %v", c)
	}
}

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, linkograph.NormalCDF(0), 1e-15)
	assert.InDelta(t, 0.975, linkograph.NormalCDF(1.959964), 1e-6)
	assert.InDelta(t, 0.025, linkograph.NormalCDF(-1.959964), 1e-6)
}
