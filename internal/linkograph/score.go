package linkograph

import (
	"fmt"
	"math"

	"github.com/starford/linkograph/internal/apperr"
)

// Coefficients is a calibrated logistic model mapping move count, the sum of
// run counts and the sum of runs-test p-values onto a probability.
type Coefficients struct {
	Intercept      float64 `yaml:"intercept" json:"intercept"`
	MoveCount      float64 `yaml:"move_count" json:"move_count"`
	RunSum         float64 `yaml:"run_sum" json:"run_sum"`
	ProbabilitySum float64 `yaml:"probability_sum" json:"probability_sum"`
}

// DefaultCoefficients is the pre-fit model shipped with the tool.
// The values must not be altered; recalibrated models are supplied as
// a separate Coefficients value.
var DefaultCoefficients = Coefficients{
	Intercept:      -69.15,
	MoveCount:      0.077,
	RunSum:         0.001,
	ProbabilitySum: 6.95,
}

// Logit returns the linear predictor z.
func (c Coefficients) Logit(moveCount, runSum int, probabilitySum float64) float64 {
	return c.Intercept +
		c.MoveCount*float64(moveCount) +
		c.RunSum*float64(runSum) +
		c.ProbabilitySum*probabilitySum
}

// ScoreResult is the fused creativity probability and its two aggregates.
type ScoreResult struct {
	PValue              float64 `json:"p_value"`
	TotalRunSum         int     `json:"total_run_sum"`
	TotalProbabilitySum float64 `json:"total_probability_sum"`
}

// Score runs the runs test on every row, sums run counts and p-values, and
// maps them together with moveCount through the logistic model c.
func Score(moveCount int, rows []RowStat, c Coefficients) (ScoreResult, error) {
	if len(rows) == 0 {
		return ScoreResult{}, fmt.Errorf("%w: no rows provided", apperr.ErrInvalidInput)
	}

	var res ScoreResult
	for i, r := range rows {
		rt, err := RunTest(r.N1, r.N2, r.RunCount)
		if err != nil {
			return ScoreResult{}, fmt.Errorf("row %d: %w", i, err)
		}
		res.TotalRunSum += r.RunCount
		res.TotalProbabilitySum += rt.PValue
	}

	z := c.Logit(moveCount, res.TotalRunSum, res.TotalProbabilitySum)
	res.PValue = 1 / (1 + math.Exp(-z))
	return res, nil
}
