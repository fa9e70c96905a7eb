package linkograph

import (
	"fmt"
	"math"

	"github.com/starford/linkograph/internal/apperr"
)

// RowStat describes one binarised row: N1 and N2 count the two outcome
// kinds and RunCount is the number of maximal same-value runs.
type RowStat struct {
	N1       int `json:"n1"`
	N2       int `json:"n2"`
	RunCount int `json:"run_count"`
}

// RunTestResult is the outcome of a Wald–Wolfowitz runs test.
// Z is nil when the sample is too small to standardise.
type RunTestResult struct {
	Z      *float64 `json:"z"`
	PValue float64  `json:"p_value"`
	Mean   float64  `json:"mean"`
	StdDev float64  `json:"std_dev"`
}

// RunTest computes the runs-test Z statistic and two-tailed p-value under
// the normal approximation.
//
// With n1+n2 <= 1, n1 == 0 or n2 == 0 there is nothing to test and the
// result is (nil, 1.0). The same holds for n1 == n2 == 1, where the variance
// is zero and every sequence has exactly the expected two runs.
//
// Counts come straight from callers, so a negative n1, n2 or runCount is
// rejected with ErrInvalidInput before any arithmetic instead of being
// folded into the degenerate (nil, 1.0) result.
func RunTest(n1, n2, runCount int) (RunTestResult, error) {
	if n1 < 0 || n2 < 0 || runCount < 0 {
		return RunTestResult{}, fmt.Errorf("%w: negative count (n1=%d n2=%d run_count=%d)", apperr.ErrInvalidInput, n1, n2, runCount)
	}

	n := float64(n1 + n2)
	if n1+n2 <= 1 || n1 == 0 || n2 == 0 {
		return RunTestResult{PValue: 1}, nil
	}

	prod := 2 * float64(n1) * float64(n2)
	mean := prod/n + 1

	radicand := prod * (prod - n) / (n * n * (n - 1))
	switch {
	case radicand < 0:
		return RunTestResult{}, fmt.Errorf("%w: runs-test variance %g is negative (n1=%d n2=%d)", apperr.ErrNumericDomain, radicand, n1, n2)
	case radicand == 0:
		return RunTestResult{PValue: 1, Mean: mean}, nil
	}

	sd := math.Sqrt(radicand)
	z := (float64(runCount) - mean) / sd
	return RunTestResult{
		Z:      &z,
		PValue: twoTailed(z),
		Mean:   mean,
		StdDev: sd,
	}, nil
}

// NormalCDF is the standard normal cumulative distribution function.
func NormalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// twoTailed returns 2*(1-Φ(|z|)), evaluated via erfc to keep precision in the tail.
func twoTailed(z float64) float64 {
	return math.Erfc(math.Abs(z) / math.Sqrt2)
}
