package analysis

import (
	"github.com/starford/linkograph/internal/linkograph"
)

// Report is the full analysis of one linkograph.
type Report struct {
	ID           string                  `json:"id,omitempty"`
	Name         string                  `json:"name"`
	Checksum     string                  `json:"checksum,omitempty"`
	MoveCount    int                     `json:"move_count"`
	LinkCount    int                     `json:"link_count"`
	PointSpace   int                     `json:"point_space"`
	Entropy      float64                 `json:"entropy"`
	RowHistogram []int                   `json:"row_histogram"`
	Rows         []linkograph.RowStat    `json:"rows"`
	Score        *linkograph.ScoreResult `json:"score,omitempty"`
}

// BuildReport validates a linkograph and computes its entropy, row
// statistics and, when it has links, its creativity score.
func BuildReport(name string, moveCount int, links []linkograph.Link, c linkograph.Coefficients) (*Report, error) {
	g, err := linkograph.New(moveCount, links)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Name:         name,
		MoveCount:    g.MoveCount(),
		LinkCount:    len(links),
		PointSpace:   g.PointSpace(),
		Entropy:      g.Entropy(),
		RowHistogram: g.RowHistogram(),
		Rows:         g.RowStatistics(),
	}
	if len(links) == 0 {
		return r, nil
	}

	score, err := linkograph.Score(g.MoveCount(), r.Rows, c)
	if err != nil {
		return nil, err
	}
	r.Score = &score
	return r, nil
}
