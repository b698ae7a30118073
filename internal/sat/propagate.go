package sat

// enqueue records that literal l is now true, with the given reason (or
// CRefUndef for a decision/assumption). Returns false if l was already
// assigned false (a conflicting assignment).
func (s *Solver) enqueue(l Literal, reason CRef) bool {
	switch s.LitValue(l) {
	case False:
		return false
	case True:
		return true
	default:
		v := l.VarID()
		s.assigns[l] = True
		s.assigns[l.Opposite()] = False
		s.level[v] = s.decisionLevel()
		s.reason[v] = reason
		s.trail = append(s.trail, l)
		s.propQueue.Push(l)
		return true
	}
}

// assume opens a new decision level and enqueues l as its decision
// literal.
func (s *Solver) assume(l Literal) bool {
	s.trailLim = append(s.trailLim, trailLevel{lit: len(s.trail), leq: len(s.leqLog)})
	return s.enqueue(l, CRefUndef)
}

// Propagate drains the propagation queue, advancing disjunction watches
// and LEQ counting state until fixpoint or conflict. It returns the
// conflicting clause's CRef, or CRefUndef if fixpoint was reached cleanly.
func (s *Solver) Propagate() CRef {
	for s.propQueue.Size() > 0 {
		s.callPropagations++
		s.TotalPropagations++
		l := s.propQueue.Pop()

		if conf := s.propagateDisjunctions(l); conf != CRefUndef {
			s.propQueue.Clear()
			return conf
		}
		if conf := s.propagateLeq(l); conf != CRefUndef {
			s.propQueue.Clear()
			return conf
		}
	}
	return CRefUndef
}

// propagateDisjunctions runs the two-watched-literal algorithm (§4.2) for
// the clauses watching literal l.
func (s *Solver) propagateDisjunctions(l Literal) CRef {
	if s.watches.dirty[l] {
		s.watches.clean(l, s.arena)
	}
	ws := s.watches.get(l)
	s.tmpWatchers = append(s.tmpWatchers[:0], ws...)
	s.watches.set(l, s.watches.get(l)[:0])

	falseLit := l.Opposite()

	for i := 0; i < len(s.tmpWatchers); i++ {
		wr := s.tmpWatchers[i]

		if s.LitValue(wr.blocker) == True {
			s.watches.watch(l, wr)
			continue
		}

		c := s.arena.get(wr.cref)
		if c.lits[0] == falseLit {
			c.lits[0], c.lits[1] = c.lits[1], c.lits[0]
		}

		if s.LitValue(c.lits[0]) == True {
			wr.blocker = c.lits[0]
			s.watches.watch(l, wr)
			continue
		}

		moved := false
		for k := 2; k < len(c.lits); k++ {
			if s.LitValue(c.lits[k]) != False {
				c.lits[1], c.lits[k] = c.lits[k], c.lits[1]
				s.watches.watch(c.lits[1].Opposite(), watcher{cref: wr.cref, blocker: c.lits[0]})
				moved = true
				break
			}
		}
		if moved {
			continue
		}

		// Clause is unit (or conflicting) on c.lits[0].
		s.watches.watch(l, wr)
		if s.LitValue(c.lits[0]) == Unknown {
			s.enqueue(c.lits[0], wr.cref)
			continue
		}

		// Conflict: copy through the remaining watchers untouched.
		for j := i + 1; j < len(s.tmpWatchers); j++ {
			s.watches.watch(l, s.tmpWatchers[j])
		}
		return wr.cref
	}

	return CRefUndef
}

// propagateLeq runs the counting-watcher algorithm (§4.3) for the LEQ
// clauses watching var(l). l may be an occurrence literal (its clause's
// nrDecided/nrTrue counters advance) or the dst literal itself (dst is
// never an occurrence, so only the imply/precond decision logic runs).
func (s *Solver) propagateLeq(l Literal) CRef {
	v := l.VarID()
	ws := s.leqWatches.lists[v]

	for i := 0; i < len(ws); i++ {
		wr := ws[i]
		c := s.arena.get(wr.cref)
		if c.mark {
			continue
		}
		if c.leq.imply != implyNone {
			continue
		}

		if wr.isDst {
			if conf := s.leqResolve(c, wr.cref); conf != CRefUndef {
				return conf
			}
			continue
		}

		isTrue := l.IsPositive() != wr.sign
		s.leqLogPush(wr.cref, isTrue, false)
		c.leq.nrDecided++
		if isTrue {
			c.leq.nrTrue++
		}

		nt := c.leq.nrTrue
		nf := c.leq.nrDecided - nt
		bt := c.bound + 1
		bf := c.size() - c.bound
		if nt < bt-1 && nf < bf-1 {
			continue
		}

		if conf := s.leqResolve(c, wr.cref); conf != CRefUndef {
			return conf
		}
	}

	return CRefUndef
}

// leqResolve inspects c's current counters against dst's assignment and
// decides whether the constraint's precondition/implication can now be
// pinned down, forced to conflict, or used to force dst or the remaining
// occurrence literals. It is shared by the occurrence-triggered and
// dst-triggered propagation paths; callers distinguish them only in
// whether a counter was just advanced, not in how the decision is made.
func (s *Solver) leqResolve(c *clauseRec, cref CRef) CRef {
	nt := c.leq.nrTrue
	nf := c.leq.nrDecided - nt
	bt := c.bound + 1
	bf := c.size() - c.bound

	switch dv := s.LitValue(c.dst); dv {
	case True:
		if nt >= bt {
			c.leq.imply = implyConfl
			c.leq.precondIsTrue = true
			s.leqLogMarkImply(cref)
			return cref
		}
		if nt == bt-1 {
			c.leq.imply = implyLits
			c.leq.precondIsTrue = true
			s.leqLogMarkImply(cref)
			if conf := s.leqForceLits(c, cref, false); conf != CRefUndef {
				return conf
			}
		}
	case False:
		if nf >= bf {
			c.leq.imply = implyConfl
			c.leq.precondIsTrue = false
			s.leqLogMarkImply(cref)
			return cref
		}
		if nf == bf-1 {
			c.leq.imply = implyLits
			c.leq.precondIsTrue = false
			s.leqLogMarkImply(cref)
			if conf := s.leqForceLits(c, cref, true); conf != CRefUndef {
				return conf
			}
		}
	default: // Unknown
		if nt >= bt {
			c.leq.imply = implyDst
			c.leq.precondIsTrue = true
			s.leqLogMarkImply(cref)
			if !s.enqueue(c.dst.Opposite(), cref) {
				return cref
			}
		} else if nf >= bf {
			c.leq.imply = implyDst
			c.leq.precondIsTrue = false
			s.leqLogMarkImply(cref)
			if !s.enqueue(c.dst, cref) {
				return cref
			}
		}
	}
	return CRefUndef
}

// leqForceLits forces every currently-unassigned literal of c's occurrence
// vector to the given occurrence-truth value, using cref as the reason.
// Occurrences already assigned the opposite value are expected up to the
// number c's counters account for. One beyond that (assigned, but still
// waiting in the propagation queue) is a conflict: it is added to c's
// counters through the LEQ log, imply becomes implyConfl, and cref is
// returned as the conflict (the trail above the eventual backjump level,
// including any lits forced earlier in this same call, is undone uniformly
// by cancelUntil — no separate unrolling step is needed).
func (s *Solver) leqForceLits(c *clauseRec, cref CRef, wantTrue bool) CRef {
	counted := c.leq.nrTrue
	if wantTrue {
		counted = c.leq.nrDecided - c.leq.nrTrue
	}
	for _, occ := range c.lits {
		target := occ
		if !wantTrue {
			target = occ.Opposite()
		}
		if s.LitValue(target) == True {
			continue
		}
		if counted > 0 && s.LitValue(target) == False {
			counted--
			continue
		}
		if !s.enqueue(target, cref) {
			s.leqLogPush(cref, !wantTrue, false)
			c.leq.nrDecided++
			if !wantTrue {
				c.leq.nrTrue++
			}
			c.leq.imply = implyConfl
			return cref
		}
	}
	return CRefUndef
}
