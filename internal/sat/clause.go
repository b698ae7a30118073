package sat

import "sort"

// noLiteral is the sentinel passed to explain when analyzing the conflict
// clause itself rather than a specific implied literal.
const noLiteral Literal = -1

// AddClause adds a disjunction at level 0. Canonicalization removes
// false literals, detects tautologies (a literal and its negation both
// present) and duplicate literals, and unit-propagates a size-1 result.
// An error is only returned for a precondition violation (not at level
// 0); root-level unsatisfiability is recorded in s.ok, not returned.
func (s *Solver) AddClause(lits []Literal) error {
	if s.decisionLevel() != 0 {
		return ErrRootLevelOnly
	}
	if !s.ok {
		return nil
	}
	return s.addClauseInternal(lits)
}

func (s *Solver) addClauseInternal(lits []Literal) error {
	seen := make(map[Literal]bool, len(lits))
	out := make([]Literal, 0, len(lits))
	for _, l := range lits {
		switch s.LitValue(l) {
		case True:
			return nil // clause already satisfied; nothing to add
		case False:
			continue // drop literals that are false at the root level
		}
		if seen[l.Opposite()] {
			return nil // tautology
		}
		if seen[l] {
			continue // duplicate
		}
		seen[l] = true
		out = append(out, l)
	}

	switch len(out) {
	case 0:
		s.ok = false
		return nil
	case 1:
		if !s.enqueue(out[0], CRefUndef) {
			s.ok = false
			return nil
		}
		if conf := s.Propagate(); conf != CRefUndef {
			s.ok = false
		}
		return nil
	default:
		cref := s.arena.alloc(out, false)
		s.attachClause(cref)
		s.clauses = append(s.clauses, cref)
		return nil
	}
}

// AddLeqAssign adds dst ⇔ (Σ lits ≤ bound). See the degenerate-case table
// in the public operations reference. Literals already false at level 0
// are dropped; literals already true at level 0 are dropped and lower the
// bound by one each.
func (s *Solver) AddLeqAssign(lits []Literal, bound int, dst Literal) error {
	if s.decisionLevel() != 0 {
		return ErrRootLevelOnly
	}
	if !s.ok {
		return nil
	}

	out := make([]Literal, 0, len(lits))
	for _, l := range lits {
		if s.LitValue(l) == False {
			continue
		}
		if s.LitValue(l) == True {
			bound-- // fixed true at the root: counts toward the bound
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	collapsed := out[:0]
	i := 0
	for i < len(out) {
		if i+1 < len(out) && out[i+1] == out[i].Opposite() {
			bound--
			i += 2
			continue
		}
		collapsed = append(collapsed, out[i])
		i++
	}
	out = collapsed
	size := len(out)

	switch {
	case bound >= size:
		return s.addClauseInternal([]Literal{dst})
	case bound < 0:
		return s.addClauseInternal([]Literal{dst.Opposite()})
	case bound == 0:
		wide := append([]Literal{dst}, out...)
		if err := s.addClauseInternal(wide); err != nil {
			return err
		}
		for _, l := range out {
			if err := s.addClauseInternal([]Literal{l.Opposite(), dst.Opposite()}); err != nil {
				return err
			}
		}
		return nil
	case size == 1:
		if err := s.addClauseInternal([]Literal{out[0], dst}); err != nil {
			return err
		}
		return s.addClauseInternal([]Literal{out[0].Opposite(), dst.Opposite()})
	default:
		cref, err := s.arena.allocLeq(out, bound, dst)
		if err != nil {
			return err
		}
		s.attachLeq(cref)
		s.leqClauses = append(s.leqClauses, cref)
		return nil
	}
}

// AddGeqAssign adds dst ⇔ (Σ lits ≥ bound), expressed as a LEQ over the
// negated literals.
func (s *Solver) AddGeqAssign(lits []Literal, bound int, dst Literal) error {
	neg := make([]Literal, len(lits))
	for i, l := range lits {
		neg[i] = l.Opposite()
	}
	return s.AddLeqAssign(neg, len(lits)-bound, dst)
}

func (s *Solver) attachClause(cref CRef) {
	c := s.arena.get(cref)
	s.watches.watch(c.lits[0].Opposite(), watcher{cref: cref, blocker: c.lits[1]})
	s.watches.watch(c.lits[1].Opposite(), watcher{cref: cref, blocker: c.lits[0]})
}

func (s *Solver) detachClause(cref CRef) {
	c := s.arena.get(cref)
	s.watches.smudge(c.lits[0].Opposite())
	s.watches.smudge(c.lits[1].Opposite())
}

func (s *Solver) attachLeq(cref CRef) {
	c := s.arena.get(cref)
	for _, l := range c.lits {
		s.leqWatches.watch(l.VarID(), leqWatcher{cref: cref, sign: !l.IsPositive()})
	}
	s.leqWatches.watch(c.dst.VarID(), leqWatcher{cref: cref, isDst: true})
}

func (s *Solver) detachLeq(cref CRef) {
	c := s.arena.get(cref)
	for _, l := range c.lits {
		s.leqWatches.smudge(l.VarID())
	}
	s.leqWatches.smudge(c.dst.VarID())
}

// removeClause detaches and frees cref, triggering GC if the arena has
// accumulated enough garbage.
func (s *Solver) removeClause(cref CRef) {
	c := s.arena.get(cref)
	if c.isLeq {
		s.detachLeq(cref)
	} else {
		s.detachClause(cref)
	}
	s.arena.free(cref)
	s.checkGarbage()
}

// locked reports whether cref is currently the reason for a trail
// literal, and so must not be deleted by reduceDB.
func (s *Solver) locked(cref CRef) bool {
	c := s.arena.get(cref)
	if c.isLeq || len(c.lits) == 0 {
		return false
	}
	v := c.lits[0].VarID()
	return s.LitValue(c.lits[0]) == True && s.reason[v] == cref
}

// satisfied reports whether a disjunction clause has a true literal.
func (s *Solver) satisfied(cref CRef) bool {
	c := s.arena.get(cref)
	for _, l := range c.lits {
		if s.LitValue(l) == True {
			return true
		}
	}
	return false
}

// occTruth reports whether occurrence literal l currently evaluates true.
func (s *Solver) occTruth(l Literal) bool {
	return s.LitValue(l) == True
}

// selectKnownLits partitions c.lits in place so that the first n literals
// are occurrences currently assigned the value wantTrue (an unassigned
// occurrence never counts as false), walking two cursors from the ends
// (§4.3). The reordering persists in the arena, which is how a later
// explain call recovers the same antecedent set without re-deriving it.
func (s *Solver) selectKnownLits(c *clauseRec, wantTrue bool, n int) []Literal {
	lits := c.lits
	want := Lift(wantTrue)
	lo, hi := 0, len(lits)-1
	placed := 0
	for placed < n && lo <= hi {
		if s.LitValue(lits[lo]) == want {
			lo++
			placed++
			continue
		}
		for hi > lo && s.LitValue(lits[hi]) != want {
			hi--
		}
		if hi <= lo {
			break
		}
		lits[lo], lits[hi] = lits[hi], lits[lo]
		lo++
		hi--
		placed++
	}
	if n > len(lits) {
		n = len(lits)
	}
	return lits[:n]
}

// explain returns the antecedent literals of cref's implication of l (or,
// if l is noLiteral, of cref as the conflict clause itself).
func (s *Solver) explain(cref CRef, l Literal) []Literal {
	c := s.arena.get(cref)
	if c.isLeq {
		return s.explainLeq(c)
	}
	out := s.tmpReason[:0]
	for _, q := range c.lits {
		if q == l {
			continue
		}
		out = append(out, q)
	}
	s.tmpReason = out
	return out
}

// explainLeq implements the LEQ antecedent rule from §4.4: the first
// (precond_is_true ? nr_true : nr_false) literals, sign-flipped to the
// false side, plus dst itself unless it is the literal being implied.
func (s *Solver) explainLeq(c *clauseRec) []Literal {
	wantTrue := c.leq.precondIsTrue
	n := c.leq.nrDecided - c.leq.nrTrue
	if wantTrue {
		n = c.leq.nrTrue
	}
	known := s.selectKnownLits(c, wantTrue, n)

	out := append(s.tmpReason[:0], known...)
	if wantTrue {
		for i := range out {
			out[i] = out[i].Opposite()
		}
	}
	if c.leq.imply != implyDst {
		d := c.dst
		if wantTrue {
			d = c.dst.Opposite()
		}
		out = append(out, d)
	}
	s.tmpReason = out
	return out
}
