package sat

import (
	"github.com/rhartert/yagh"
)

// VarOrder is the VSIDS decision heuristic: a max-heap of decision-eligible
// unassigned variables keyed by activity, with phase saving and, per
// Options, a chance of picking a uniformly random variable or polarity
// instead.
type VarOrder struct {
	size      int
	solver    *Solver
	phase     []LBool
	decision  []bool
	phaseSave int
	heap      *yagh.IntMap[float64]
}

func NewVarOrder(s *Solver, nVar int) *VarOrder {
	vo := &VarOrder{
		size:     nVar,
		solver:   s,
		phase:    make([]LBool, nVar),
		decision: make([]bool, nVar),
	}
	for i := range vo.decision {
		vo.decision[i] = true
	}
	vo.heap = yagh.New[float64](nVar)
	vo.UpdateAll()
	return vo
}

func (vo *VarOrder) NewVar(decision bool) {
	vo.phase = append(vo.phase, Unknown)
	vo.decision = append(vo.decision, decision)
	vo.heap.GrowBy(1)
	vo.size++
}

// Update reinserts varID's current activity into the heap.
func (vo *VarOrder) Update(varID int) {
	if !vo.decision[varID] {
		return
	}
	act := vo.solver.activities[varID]
	vo.heap.Put(varID, -act)
}

func (vo *VarOrder) UpdateAll() {
	for i := 0; i < vo.size; i++ {
		vo.Update(i)
	}
}

// Undo is called when a variable is unassigned during backtracking: it
// reinserts the variable into the heap. Phase saving (per the PhaseSaving
// policy) is done by the caller, not here.
func (vo *VarOrder) Undo(varID int) {
	vo.Update(varID)
}

func (vo *VarOrder) setPhase(varID int, v LBool) {
	vo.phase[varID] = v
}

// Select picks the next branching literal, or returns (0, false) if every
// decision variable is already assigned (the model is complete).
func (vo *VarOrder) Select() (Literal, bool) {
	s := vo.solver

	if s.rand != nil && s.opts.RandomVarFreq > 0 && s.rand.drand() < s.opts.RandomVarFreq {
		if vo.size > 0 {
			v := s.rand.irand(vo.size)
			if vo.decision[v] && s.VarValue(v) == Unknown {
				return vo.literalFor(v), true
			}
		}
	}

	for {
		next, ok := vo.heap.Pop()
		if !ok {
			return 0, false
		}
		if s.VarValue(next.Elem) != Unknown {
			continue
		}
		return vo.literalFor(next.Elem), true
	}
}

func (vo *VarOrder) literalFor(v int) Literal {
	s := vo.solver

	if s.rand != nil && s.opts.RandomPolarity {
		if s.rand.drand() < 0.5 {
			return s.PositiveLiteral(v)
		}
		return s.NegativeLiteral(v)
	}

	switch vo.phase[v] {
	case True:
		return s.PositiveLiteral(v)
	case False:
		return s.NegativeLiteral(v)
	default:
		return s.NegativeLiteral(v)
	}
}
