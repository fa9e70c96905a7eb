// Package linkograph implements the analytic engine for design-process
// linkographs: the triangular move/link model, link-placement entropy,
// the Wald–Wolfowitz runs test and the logistic creativity score.
//
// Every function here is a pure function of its arguments. Values are
// built fresh per request and are safe to use from multiple goroutines.
package linkograph

import (
	"fmt"

	"github.com/starford/linkograph/internal/apperr"
)

// MinMoves is the smallest move count that yields a non-empty triangle.
const MinMoves = 2

// MaxMoves bounds the move count. Work and memory grow with the move count
// rather than with the number of links, so it must be capped.
const MaxMoves = 10_000

// Link connects two moves of a protocol, Move1 < Move2.
type Link struct {
	Move1 int `json:"move1" yaml:"move1"`
	Move2 int `json:"move2" yaml:"move2"`
}

// Row returns the row-distance of the link: 0 for adjacent moves,
// moveCount-2 for the link between the first and last move.
func (l Link) Row() int {
	return l.Move2 - l.Move1 - 1
}

// Linkograph is a validated move count together with the links drawn on it.
type Linkograph struct {
	moveCount int
	links     []Link
}

// New validates moveCount and links and returns the linkograph.
//
// Moves are numbered from 1 to moveCount; callers holding 0-based links
// convert them with FromZeroBased first. Each link must satisfy
// Move1 < Move2 within the move range, so its row lies in [0, moveCount-2].
// Duplicate links are kept as supplied.
func New(moveCount int, links []Link) (*Linkograph, error) {
	if moveCount < MinMoves || moveCount > MaxMoves {
		return nil, fmt.Errorf("%w: move count must be between %d and %d, got %d", apperr.ErrInvalidInput, MinMoves, MaxMoves, moveCount)
	}
	for i, l := range links {
		if err := l.validate(moveCount); err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
	}
	cp := make([]Link, len(links))
	copy(cp, links)
	return &Linkograph{moveCount: moveCount, links: cp}, nil
}

func (l Link) validate(moveCount int) error {
	switch {
	case l.Move1 < 1:
		return fmt.Errorf("%w: move1 %d below first move 1", apperr.ErrInvalidInput, l.Move1)
	case l.Move1 >= l.Move2:
		return fmt.Errorf("%w: move1 %d must be less than move2 %d", apperr.ErrInvalidInput, l.Move1, l.Move2)
	case l.Move2 > moveCount:
		return fmt.Errorf("%w: move2 %d beyond last move %d", apperr.ErrInvalidInput, l.Move2, moveCount)
	}
	return nil
}

// FromZeroBased returns links numbered from 0 (as drawn by the browser
// canvas) renumbered from 1.
func FromZeroBased(links []Link) []Link {
	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = Link{Move1: l.Move1 + 1, Move2: l.Move2 + 1}
	}
	return out
}

// MoveCount returns the number of moves.
func (g *Linkograph) MoveCount() int { return g.moveCount }

// Links returns a copy of the links.
func (g *Linkograph) Links() []Link {
	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}

// PointSpace returns T = N(N-1)/2, the number of possible link positions.
func PointSpace(moveCount int) int {
	return moveCount * (moveCount - 1) / 2
}

// PointSpace returns the total number of link positions in the triangle.
func (g *Linkograph) PointSpace() int {
	return PointSpace(g.moveCount)
}

// RowHistogram returns moveCount-1 counters; entry d is the number of
// links whose row equals d.
func (g *Linkograph) RowHistogram() []int {
	hist := make([]int, g.moveCount-1)
	for _, l := range g.links {
		hist[l.Row()]++
	}
	return hist
}

// EmptyPoints returns the number of unused positions. It is negative when
// duplicated links exceed the triangle's capacity.
func (g *Linkograph) EmptyPoints() int {
	return g.PointSpace() - len(g.links)
}
