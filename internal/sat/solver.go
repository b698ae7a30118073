package sat

import (
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"
)

// Solver is a CDCL SAT solver extended with a native reified
// cardinality-constraint (LEQ/GEQ) propagator. The clause database lives
// in an arena addressed by CRef; watches, the trail, and the LEQ log hold
// CRefs that are rewritten whenever the arena is compacted.
type Solver struct {
	opts Options

	arena      *arena
	watches    *watchLists
	leqWatches *leqWatchLists

	clauses    []CRef
	learnts    []CRef
	leqClauses []CRef

	claInc   float64
	claDecay float64

	activities []float64
	varInc     float64
	varDecay   float64
	order      *VarOrder

	assigns  []LBool
	trail    []Literal
	trailLim []trailLevel
	leqLog   []leqLogEntry
	reason   []CRef
	level    []int

	propQueue *Queue[Literal]

	ok bool

	assumptions []Literal
	model       []bool
	conflict    []Literal

	rand        *lcg
	interrupted atomic.Bool

	callConflicts     int64
	callPropagations  int64
	startTime         time.Time

	maxLearnts             float64
	learntSizeAdjustConfl  float64
	learntSizeAdjustCnt    int

	lbdEMA       EMA
	progressEst  float64

	TotalConflicts     int64
	TotalRestarts      int64
	TotalIterations    int64
	TotalPropagations  int64

	seenVar *ResetSet

	tmpWatchers []watcher
	tmpLearnts  []Literal
	tmpReason   []Literal
}

// NewSolver returns a solver configured with the given options.
func NewSolver(opts Options) *Solver {
	s := &Solver{
		opts:       opts,
		arena:      newArena(),
		watches:    newWatchLists(),
		leqWatches: newLeqWatchLists(),
		claInc:     1,
		claDecay:   opts.ClauseDecay,
		varInc:     1,
		varDecay:   opts.VariableDecay,
		propQueue:  NewQueue[Literal](128),
		ok:         true,
		seenVar:    &ResetSet{},
		rand:       newLCG(opts.RandomSeed),
		lbdEMA:     NewEMA(0.95),
	}
	s.order = NewVarOrder(s, 0)
	return s
}

// NewDefaultSolver returns a solver configured with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions)
}

func (s *Solver) PositiveLiteral(varID int) Literal { return Literal(varID * 2) }
func (s *Solver) NegativeLiteral(varID int) Literal { return s.PositiveLiteral(varID).Opposite() }

func (s *Solver) NumVariables() int      { return len(s.level) }
func (s *Solver) NumAssigns() int        { return len(s.trail) }
func (s *Solver) NumConstraints() int    { return len(s.clauses) }
func (s *Solver) NumLeqConstraints() int { return len(s.leqClauses) }
func (s *Solver) NumLearnts() int        { return len(s.learnts) }

// LeqView is a read-only snapshot of a LEQ clause's shape, used by the
// DIMACS writer.
type LeqView struct {
	Lits  []Literal
	Bound int
	Dst   Literal
}

// ClauseLiterals returns the literal vectors of every root-level
// disjunction clause currently in the database (not learnt clauses).
func (s *Solver) ClauseLiterals() [][]Literal {
	out := make([][]Literal, 0, len(s.clauses))
	for _, cref := range s.clauses {
		c := s.arena.get(cref)
		out = append(out, append([]Literal(nil), c.lits...))
	}
	return out
}

// LeqLiterals returns a snapshot of every LEQ clause currently installed.
func (s *Solver) LeqLiterals() []LeqView {
	out := make([]LeqView, 0, len(s.leqClauses))
	for _, cref := range s.leqClauses {
		c := s.arena.get(cref)
		out = append(out, LeqView{Lits: append([]Literal(nil), c.lits...), Bound: c.bound, Dst: c.dst})
	}
	return out
}
func (s *Solver) VarValue(x int) LBool  { return s.assigns[s.PositiveLiteral(x)] }
func (s *Solver) LitValue(l Literal) LBool { return s.assigns[l] }
func (s *Solver) Ok() bool              { return s.ok }

// Model returns the satisfying assignment found by the last successful
// Solve call, or nil if the last call did not return SAT.
func (s *Solver) Model() []bool { return s.model }

// Conflict returns, after an UNSAT-under-assumptions result, the subset
// of assumption literals that suffices to prove UNSAT.
func (s *Solver) Conflict() []Literal { return s.conflict }

// ProgressEstimate returns the last value computed by the search loop's
// progress estimator. Purely informational.
func (s *Solver) ProgressEstimate() float64 { return s.progressEst }

// Interrupt asynchronously requests that the running Solve call return
// Unknown at its next safe point. Every Solve call clears the flag when it
// starts, so an interrupt issued while no Solve call is running has no
// effect, and the solver may be reused for a further Solve call.
func (s *Solver) Interrupt() { s.interrupted.Store(true) }

func (s *Solver) clearInterrupt() { s.interrupted.Store(false) }

// NewVar allocates a fresh variable, with the given initial saved phase
// and decision eligibility.
func (s *Solver) NewVar(initialSign LBool, isDecision bool) int {
	v := s.NumVariables()
	s.watches.expand()
	s.leqWatches.expand()
	s.reason = append(s.reason, CRefUndef)
	s.assigns = append(s.assigns, Unknown, Unknown)
	s.level = append(s.level, -1)

	act := 0.0
	if s.opts.RandomInitialActivity {
		act = s.rand.drand() * 0.00001
	}
	s.activities = append(s.activities, act)
	s.seenVar.Expand()

	s.order.NewVar(isDecision)
	s.order.setPhase(v, initialSign)
	if isDecision {
		s.order.Update(v)
	}
	return v
}

// AddVariable is a convenience wrapper over NewVar matching the DIMACS
// reader's needs: no saved phase preference, decision-eligible.
func (s *Solver) AddVariable() int {
	return s.NewVar(Unknown, true)
}

func (s *Solver) bumpVarActivity(v int) {
	s.activities[v] += s.varInc
	if s.activities[v] > 1e100 {
		s.varInc *= 1e-100
		for i := range s.activities {
			s.activities[i] *= 1e-100
		}
	}
	s.order.Update(v)
}

func (s *Solver) decayVarActivity() { s.varInc *= 1 / s.varDecay }

func (s *Solver) bumpClaActivity(cref CRef) {
	c := s.arena.get(cref)
	c.activity += s.claInc
	if c.activity > 1e20 {
		s.claInc *= 1e-20
		for _, lr := range s.learnts {
			s.arena.get(lr).activity *= 1e-20
		}
	}
}

func (s *Solver) decayClaActivity() { s.claInc *= 1 / s.claDecay }

// computeLBD returns the number of distinct decision levels represented
// among lits (the learnt clause's literal block distance).
func (s *Solver) computeLBD(lits []Literal) uint32 {
	seen := make(map[int]bool, len(lits))
	for _, l := range lits {
		seen[s.level[l.VarID()]] = true
	}
	return uint32(len(seen))
}

// trace prints a diagnostic line via log.Printf, gated on the configured
// verbosity the same way Solver.cc gates its printf trace lines on its
// verbosity field: level 0 calls are unconditional (never emitted in
// normal operation, since no caller uses level 0), level 1 and 2 require
// Verbosity >= that level.
func (s *Solver) trace(level int, format string, args ...any) {
	if s.opts.Verbosity >= level {
		log.Printf(format, args...)
	}
}

func (s *Solver) withinBudget() bool {
	if s.interrupted.Load() {
		return false
	}
	if s.opts.Timeout >= 0 && time.Since(s.startTime) >= s.opts.Timeout {
		return false
	}
	if s.opts.MaxConflicts >= 0 && s.TotalConflicts >= s.opts.MaxConflicts {
		return false
	}
	if s.opts.ConflictBudget >= 0 && s.callConflicts >= s.opts.ConflictBudget {
		return false
	}
	if s.opts.PropagationBudget >= 0 && s.callPropagations >= s.opts.PropagationBudget {
		return false
	}
	return true
}

// checkGarbage triggers a compacting GC once wasted arena space exceeds
// the configured fraction.
func (s *Solver) checkGarbage() {
	if s.arena.wastedFrac() > s.opts.GarbageFrac {
		s.garbageCollect()
	}
}

// garbageCollect compacts the arena and rewrites every long-lived CRef:
// watches, LEQ watches, the LEQ log, reasons, and the clauses/learnts/
// leqClauses lists. Running it at any quiescent point yields an
// equivalent solver with arena.wasted == 0.
func (s *Solver) garbageCollect() {
	wastedBefore := s.arena.wastedFrac()
	mapping := s.arena.relocAll()

	s.watches.relocate(mapping)
	s.leqWatches.relocate(mapping)

	relocList := func(refs []CRef) []CRef {
		j := 0
		for _, r := range refs {
			nr := mapping[r]
			if nr == CRefUndef {
				continue
			}
			refs[j] = nr
			j++
		}
		return refs[:j]
	}
	s.clauses = relocList(s.clauses)
	s.learnts = relocList(s.learnts)
	s.leqClauses = relocList(s.leqClauses)

	for v := range s.reason {
		if s.reason[v] == CRefUndef {
			continue
		}
		s.reason[v] = mapping[s.reason[v]]
	}

	for i := range s.leqLog {
		s.leqLog[i].cref = mapping[s.leqLog[i].cref]
	}

	s.trace(2, "garbage collection: wasted fraction %.3f => %.3f", wastedBefore, s.arena.wastedFrac())
}

// Simplify runs propagation to fixpoint at decision level 0 and removes
// satisfied clauses (§4.9). It may only be called at level 0.
func (s *Solver) Simplify() bool {
	if s.decisionLevel() != 0 {
		panic(ErrRootLevelOnly)
	}
	if !s.ok {
		return false
	}
	if conf := s.Propagate(); conf != CRefUndef {
		s.ok = false
		return false
	}

	s.simplifyList(&s.learnts)
	s.simplifyList(&s.clauses)

	s.leqLog = s.leqLog[:0]
	for v := range s.leqWatches.lists {
		s.leqWatches.smudge(v)
	}
	s.leqWatches.cleanAll(s.arena)

	s.checkGarbage()

	s.order.UpdateAll()

	return true
}

func (s *Solver) simplifyList(refsPtr *[]CRef) {
	refs := *refsPtr
	j := 0
	for _, cref := range refs {
		if s.satisfied(cref) {
			s.removeClause(cref)
			continue
		}
		refs[j] = cref
		j++
	}
	*refsPtr = refs[:j]
}

// progressEstimate returns Σ F^i × (#lits at level i) / nVars, F = 1/nVars.
// Purely informational.
func (s *Solver) progressEstimate() float64 {
	nVars := float64(s.NumVariables())
	if nVars == 0 {
		return 0
	}
	progress := 0.0
	f := 1.0 / nVars
	factor := 1.0
	prevLim := 0
	for i := 0; i <= s.decisionLevel(); i++ {
		lim := len(s.trail)
		if i < len(s.trailLim) {
			lim = s.trailLim[i].lit
		}
		progress += factor * float64(lim-prevLim)
		prevLim = lim
		factor *= f
	}
	return progress / nVars
}

// Solve runs the driver described in §4.10. assumptions are unit
// literals fixed for this call only.
func (s *Solver) Solve(assumptions []Literal) LBool {
	s.model = nil
	s.conflict = s.conflict[:0]
	s.assumptions = assumptions
	s.callConflicts = 0
	s.callPropagations = 0
	s.clearInterrupt()

	if !s.ok {
		return False
	}

	s.startTime = time.Now()
	s.trace(1, "problem statistics: %d variables, %d clauses", s.NumVariables(), s.NumConstraints())

	simplified := s.Simplify()
	s.trace(1, "simplified (ok=%t): %d clauses", simplified, s.NumConstraints())
	if !simplified {
		return False
	}

	s.maxLearnts = float64(len(s.clauses)) * s.opts.LearntSizeFactor
	s.learntSizeAdjustCnt = s.opts.LearntSizeAdjInit
	s.learntSizeAdjustConfl = float64(s.learntSizeAdjustCnt)

	status := Unknown
	currRestarts := 0
	for status == Unknown {
		var budget float64
		if s.opts.LubyRestarts {
			budget = float64(s.opts.RestartFirst) * luby(s.opts.RestartInc, currRestarts)
		} else {
			budget = float64(s.opts.RestartFirst) * math.Pow(s.opts.RestartInc, float64(currRestarts))
		}
		status = s.search(int64(budget))
		currRestarts++
		if !s.withinBudget() {
			break
		}
	}

	if status == True {
		s.model = make([]bool, s.NumVariables())
		for i := range s.model {
			s.model[i] = s.VarValue(i) == True
		}
	}

	s.trace(1, "restarts: %d, conflicts: %d, propagations: %d, learnts: %d",
		s.TotalRestarts, s.TotalConflicts, s.TotalPropagations, s.NumLearnts())

	s.cancelUntil(0)
	return status
}

// search runs until nofConflicts conflicts have occurred since the last
// restart, a decision produces a full model, or the budget is exhausted.
func (s *Solver) search(nofConflicts int64) LBool {
	if !s.ok {
		return False
	}
	s.TotalRestarts++
	var conflictC int64

	for {
		s.TotalIterations++

		if confl := s.Propagate(); confl != CRefUndef {
			s.TotalConflicts++
			s.callConflicts++
			conflictC++

			if s.decisionLevel() == 0 {
				s.ok = false
				return False
			}

			learnt, backtrackLevel := s.analyze(confl)
			s.cancelUntil(backtrackLevel)

			if len(learnt) == 1 {
				s.enqueue(learnt[0], CRefUndef)
			} else {
				cref := s.arena.alloc(learnt, true)
				c := s.arena.get(cref)
				c.lbd = s.computeLBD(learnt)
				s.lbdEMA.Add(float64(c.lbd))
				s.bumpClaActivity(cref)
				s.attachClause(cref)
				s.learnts = append(s.learnts, cref)
				s.enqueue(learnt[0], cref)
			}

			s.decayClaActivity()
			s.decayVarActivity()

			s.learntSizeAdjustConfl--
			if s.learntSizeAdjustConfl <= 0 {
				s.learntSizeAdjustCnt = int(float64(s.learntSizeAdjustCnt) * s.opts.LearntSizeAdjInc)
				s.learntSizeAdjustConfl = float64(s.learntSizeAdjustCnt)
				s.maxLearnts *= s.opts.LearntSizeInc

				s.trace(1, "conflicts: %d, clauses: %d, max_learnts: %.0f, learnts: %d, progress: %.2f%%",
					s.TotalConflicts, s.NumConstraints(), s.maxLearnts, s.NumLearnts(), s.progressEstimate()*100)
			}

			// The budget must be checked here too, not only on the
			// clean-fixpoint branch below: a run of conflicts with no
			// intervening propagation fixpoint would otherwise never hit
			// a budget check at all.
			if !s.withinBudget() {
				s.progressEst = s.progressEstimate()
				s.cancelUntil(0)
				return Unknown
			}
			continue
		}

		// No conflict.
		if !s.withinBudget() || conflictC >= nofConflicts {
			s.progressEst = s.progressEstimate()
			s.cancelUntil(0)
			return Unknown
		}

		if s.decisionLevel() == 0 {
			if !s.Simplify() {
				return False
			}
		}

		if float64(len(s.learnts))-float64(s.NumAssigns()) >= s.maxLearnts {
			s.ReduceDB()
		}

		next := noLiteral
		for s.decisionLevel() < len(s.assumptions) {
			p := s.assumptions[s.decisionLevel()]
			switch s.LitValue(p) {
			case True:
				s.trailLim = append(s.trailLim, trailLevel{lit: len(s.trail), leq: len(s.leqLog)})
				continue
			case False:
				s.analyzeFinal(p.Opposite())
				return False
			default:
				next = p
			}
			break
		}

		if next == noLiteral {
			var ok bool
			next, ok = s.order.Select()
			if !ok {
				return True
			}
		}

		s.assume(next)
	}
}

func (s *Solver) printSeparator() {
	fmt.Println("c ---------------------------------------------------------------------------")
}

func (s *Solver) printSearchHeader() {
	fmt.Println("c            time     iterations      conflicts       restarts        learnts            lbd")
}

func (s *Solver) PrintSearchStats() {
	fmt.Printf(
		"c %14.3fs %14d %14d %14d %14d %14.2f\n",
		time.Since(s.startTime).Seconds(),
		s.TotalIterations,
		s.TotalConflicts,
		s.TotalRestarts,
		len(s.learnts),
		s.lbdEMA.Val())
}

func (s *Solver) PrintSearchHeader() {
	s.printSeparator()
	s.printSearchHeader()
	s.printSeparator()
}
