package sat

// abstractLevelOf returns the bit used by minimization's abstract-level
// mask for a variable at its current decision level.
func (s *Solver) abstractLevelOf(v int) uint64 {
	return 1 << uint(s.level[v]&63)
}

// analyze walks the implication graph backwards from a conflict to
// produce a 1-UIP asserting clause and its backjump level (§4.4).
func (s *Solver) analyze(confl CRef) ([]Literal, int) {
	pathC := 0
	s.seenVar.Clear()
	s.tmpLearnts = append(s.tmpLearnts[:0], noLiteral)

	var abstractLevel uint64
	p := noLiteral
	index := len(s.trail) - 1

	for {
		var ante []Literal
		if p == noLiteral {
			ante = s.explain(confl, noLiteral)
		} else {
			ante = s.explain(confl, p)
		}

		for _, q := range ante {
			v := q.VarID()
			if s.seenVar.Contains(v) || s.level[v] <= 0 {
				continue
			}
			s.seenVar.Add(v)
			s.bumpVarActivity(v)
			if s.level[v] == s.decisionLevel() {
				pathC++
			} else {
				s.tmpLearnts = append(s.tmpLearnts, q)
				abstractLevel |= s.abstractLevelOf(v)
			}
		}

		for {
			p = s.trail[index]
			index--
			if s.seenVar.Contains(p.VarID()) {
				break
			}
		}
		confl = s.reason[p.VarID()]
		pathC--
		if pathC <= 0 {
			break
		}
	}

	s.tmpLearnts[0] = p.Opposite()
	learnt := append([]Literal(nil), s.tmpLearnts...)

	if s.opts.CcminMode != CcminNone {
		learnt = s.minimize(learnt, abstractLevel)
	}

	backtrackLevel := 0
	if len(learnt) > 1 {
		maxI := 1
		for i := 2; i < len(learnt); i++ {
			if s.level[learnt[i].VarID()] > s.level[learnt[maxI].VarID()] {
				maxI = i
			}
		}
		learnt[1], learnt[maxI] = learnt[maxI], learnt[1]
		backtrackLevel = s.level[learnt[1].VarID()]
	}

	s.seenVar.Clear()
	return learnt, backtrackLevel
}

// minimize drops learnt literals that are implied by the rest of the
// clause (§4.4).
func (s *Solver) minimize(learnt []Literal, abstractLevel uint64) []Literal {
	out := learnt[:1]
	for _, q := range learnt[1:] {
		reason := s.reason[q.VarID()]
		redundant := false
		if reason != CRefUndef {
			if s.opts.CcminMode == CcminBasic {
				redundant = s.litRedundantBasic(q, reason)
			} else {
				redundant = s.litRedundant(q, abstractLevel)
			}
		}
		if !redundant {
			out = append(out, q)
		}
	}
	return out
}

// litRedundantBasic implements ccmin_mode=1: a literal is redundant only
// if every literal of its own (non-recursive) reason is already seen or
// at level 0. A LEQ reason in this path is an explicit hard error.
func (s *Solver) litRedundantBasic(q Literal, reason CRef) bool {
	c := s.arena.get(reason)
	if c.isLeq {
		panic(ErrCcminLeqUnsupported)
	}
	for _, a := range s.explain(reason, q) {
		v := a.VarID()
		if !s.seenVar.Contains(v) && s.level[v] != 0 {
			return false
		}
	}
	return true
}

// litRedundant implements ccmin_mode=2: q is redundant if every one of
// its antecedents is already seen, at level 0, or recursively redundant,
// probed with an explicit worklist bounded by abstractLevel. Tentative
// marks are kept in a local map and only merged into the persistent seen
// set on a successful probe; on failure the map is simply discarded.
func (s *Solver) litRedundant(q Literal, abstractLevel uint64) bool {
	reason := s.reason[q.VarID()]
	if reason == CRefUndef {
		return false
	}

	type frame struct {
		lits []Literal
		i    int
	}
	stack := []frame{{lits: append([]Literal(nil), s.explain(reason, q)...)}}
	marked := map[int]bool{}

	for len(stack) > 0 {
		fr := &stack[len(stack)-1]
		if fr.i >= len(fr.lits) {
			stack = stack[:len(stack)-1]
			continue
		}
		lit := fr.lits[fr.i]
		fr.i++
		v := lit.VarID()

		if s.seenVar.Contains(v) || marked[v] || s.level[v] == 0 {
			continue
		}
		if s.abstractLevelOf(v)&abstractLevel == 0 {
			return false
		}
		r := s.reason[v]
		if r == CRefUndef {
			return false
		}
		marked[v] = true
		stack = append(stack, frame{lits: append([]Literal(nil), s.explain(r, lit)...)})
	}

	for v := range marked {
		s.seenVar.Add(v)
	}
	return true
}

// analyzeFinal extracts a subset of assumptions that suffices to prove
// UNSAT (§4.5). p is the negation of the refuted assumption, i.e. the
// literal currently true on the trail; the refuted assumption itself is
// always part of the result. A LEQ reason encountered on this path is an
// explicit hard error.
func (s *Solver) analyzeFinal(p Literal) []Literal {
	s.conflict = append(s.conflict[:0], p.Opposite())
	if s.decisionLevel() == 0 {
		return s.conflict
	}

	s.seenVar.Clear()
	s.seenVar.Add(p.VarID())

	for i := len(s.trail) - 1; i >= s.trailLim[0].lit; i-- {
		l := s.trail[i]
		v := l.VarID()
		if !s.seenVar.Contains(v) {
			continue
		}

		reason := s.reason[v]
		if reason == CRefUndef {
			if s.level[v] > 0 {
				s.conflict = append(s.conflict, l)
			}
			continue
		}

		c := s.arena.get(reason)
		if c.isLeq {
			panic(ErrLeqReasonUnsupported)
		}
		for _, a := range s.explain(reason, l) {
			if s.level[a.VarID()] > 0 {
				s.seenVar.Add(a.VarID())
			}
		}
	}

	s.seenVar.Clear()
	return s.conflict
}
