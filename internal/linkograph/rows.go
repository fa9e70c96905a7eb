package linkograph

import "slices"

// RowStatistics binarises every row of the triangle and returns one RowStat
// per row, row 0 first.
//
// Row d has moveCount-1-d slots, ordered by their first move. A slot is
// "linked" when at least one link occupies it; N1 counts linked slots, N2
// empty slots and RunCount the maximal runs of equal state along the row.
// Only the linked slots are materialised, so memory follows the number of
// links rather than the size of the triangle.
func (g *Linkograph) RowStatistics() []RowStat {
	linked := make(map[int][]int)
	for _, l := range g.links {
		d := l.Row()
		linked[d] = append(linked[d], l.Move1-1)
	}

	out := make([]RowStat, g.moveCount-1)
	for d := range out {
		slots := linked[d]
		slices.Sort(slots)
		out[d] = sparseRuns(g.moveCount-1-d, slices.Compact(slots))
	}
	return out
}

// sparseRuns is the run statistic of a row of size slots whose linked
// positions are the sorted, distinct values in set.
func sparseRuns(size int, set []int) RowStat {
	st := RowStat{N1: len(set), N2: size - len(set)}
	if len(set) == 0 {
		if size > 0 {
			st.RunCount = 1
		}
		return st
	}
	if set[0] > 0 {
		st.RunCount++ // leading empty run
	}
	for i, p := range set {
		if i == 0 || p > set[i-1]+1 {
			st.RunCount++ // linked run starts
			if i > 0 {
				st.RunCount++ // empty run between
			}
		}
	}
	if set[len(set)-1] < size-1 {
		st.RunCount++ // trailing empty run
	}
	return st
}
