package sat

import "sort"

// reduceDBLess is the asymmetric ordering reduceDB sorts learnt clauses
// by before deleting the bottom half. It is intentionally asymmetric
// (it never ranks a size-2 clause below another, so under sort.SliceStable
// size-2 clauses keep their existing relative order at the end); this
// reproduces the original's own reduceDB_lt rather than fixing it.
func (s *Solver) reduceDBLess(x, y CRef) bool {
	cx, cy := s.arena.get(x), s.arena.get(y)
	if cx.size() > 2 && (cy.size() == 2 || cx.activity < cy.activity) {
		return true
	}
	return false
}

// ReduceDB deletes the lower-activity half of the learnt clause database,
// per §4.8: binary clauses and clauses locked as a reason are always
// kept, and any clause below the activity floor is deleted regardless of
// rank.
func (s *Solver) ReduceDB() {
	if len(s.learnts) == 0 {
		return
	}
	sort.SliceStable(s.learnts, func(i, j int) bool {
		return s.reduceDBLess(s.learnts[i], s.learnts[j])
	})

	lim := s.claInc / float64(len(s.learnts))
	half := len(s.learnts) / 2

	j := 0
	for i, cref := range s.learnts {
		c := s.arena.get(cref)
		keep := s.locked(cref) || c.size() == 2
		if !keep {
			if i < half {
				keep = false
			} else {
				keep = c.activity >= lim
			}
		}
		if keep {
			s.learnts[j] = cref
			j++
		} else {
			s.removeClause(cref)
		}
	}
	s.learnts = s.learnts[:j]
}
