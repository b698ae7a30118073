package sat

// leqLogEntry records one mutation to a LEQ status cell, so cancelUntil
// can replay the log in reverse and undo exactly what propagation did.
type leqLogEntry struct {
	cref        CRef
	wasTrue     bool // nrTrue (not just nrDecided) was incremented
	counts      bool // this entry incremented nrDecided/nrTrue and must decrement them back
	clearsImply bool // this entry is the one that set imply != none
}

// trailLevel records where decision level k+1 began: the index into the
// literal trail and the index into the LEQ log.
type trailLevel struct {
	lit int
	leq int
}

func (s *Solver) decisionLevel() int { return len(s.trailLim) }

// leqLogPush appends a log entry for a counter increment (occurrence
// literal decided) performed while processing the clause at cref.
func (s *Solver) leqLogPush(cref CRef, wasTrue, clearsImply bool) {
	s.leqLog = append(s.leqLog, leqLogEntry{cref: cref, wasTrue: wasTrue, counts: true, clearsImply: clearsImply})
}

// leqLogMarkImply appends a log entry recording only that imply was set,
// with no associated counter change to undo (the dst-triggered path: dst
// is not an occurrence literal, so its assignment never touches
// nrDecided/nrTrue).
func (s *Solver) leqLogMarkImply(cref CRef) {
	s.leqLog = append(s.leqLog, leqLogEntry{cref: cref, clearsImply: true})
}

// cancelUntil undoes every assignment and LEQ status mutation made above
// decision level k (level k itself is kept), per the policy in §4.6: phase saving controls
// whether an unassigned variable's last-seen value is remembered, and the
// LEQ log is replayed in reverse to restore each status cell's counters.
func (s *Solver) cancelUntil(level int) {
	topLit := -1
	if s.decisionLevel() > level {
		topLit = s.trailLim[len(s.trailLim)-1].lit
	}

	for s.decisionLevel() > level {
		tl := s.trailLim[len(s.trailLim)-1]

		for i := len(s.trail) - 1; i >= tl.lit; i-- {
			l := s.trail[i]
			v := l.VarID()

			switch s.opts.PhaseSaving {
			case 2:
				s.order.setPhase(v, s.assigns[l])
			case 1:
				if i >= topLit {
					s.order.setPhase(v, s.assigns[l])
				}
			}

			s.assigns[l] = Unknown
			s.assigns[l.Opposite()] = Unknown
			s.reason[v] = CRefUndef
			s.level[v] = -1
			s.order.Undo(v)
		}
		s.trail = s.trail[:tl.lit]

		for i := len(s.leqLog) - 1; i >= tl.leq; i-- {
			e := s.leqLog[i]
			c := s.arena.get(e.cref)
			if e.counts {
				if e.wasTrue {
					c.leq.nrTrue--
				}
				c.leq.nrDecided--
			}
			if e.clearsImply {
				c.leq.imply = implyNone
			}
		}
		s.leqLog = s.leqLog[:tl.leq]

		s.trailLim = s.trailLim[:len(s.trailLim)-1]
	}
	s.propQueue.Clear()
}
