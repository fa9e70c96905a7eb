package linkograph

import "math"

// Entropy returns the base-2 Shannon entropy of link placement: every row
// count and the empty-point count are divided by the whole triangle's point
// space. Rows are not normalised by their own capacity.
//
// Zero categories contribute nothing. An empty link set yields 0.
func (g *Linkograph) Entropy() float64 {
	total := float64(g.PointSpace())

	var h float64
	for _, c := range g.RowHistogram() {
		if c > 0 {
			h += surprisal(float64(c) / total)
		}
	}
	if empty := g.EmptyPoints(); empty > 0 {
		h += surprisal(float64(empty) / total)
	}
	return h
}

// surprisal returns -p*log2(p) for p > 0.
func surprisal(p float64) float64 {
	return -p * math.Log2(p)
}
