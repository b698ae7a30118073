package sat

import "math"

// CRef is an opaque index into the clause arena. CRefs are valid only
// until the next garbage collection; anything holding one across a
// potential GC point (watches, reasons, the LEQ trail log, the clauses
// and learnts lists) is rewritten by garbageCollect, using the mapping
// relocAll returns, when that GC runs.
type CRef uint32

// CRefUndef is the sentinel CRef used where no clause is referenced, e.g.
// as the reason for a decision or assumption literal.
const CRefUndef CRef = math.MaxUint32

// maxLeqSize is the size limit enforced on LEQ clauses: allocLeq rejects
// a clause of this size or larger with ErrCapacityOverflow.
const maxLeqSize = 1<<14 - 10

type implyType uint8

const (
	implyNone implyType = iota
	implyDst
	implyLits
	implyConfl
)

// leqStatus is the inline, mutable scratch cell that travels with a LEQ
// clause in the arena. It tracks how many of the clause's literals are
// currently true and how many are assigned, and records whether (and
// which way) the reification has already fired.
type leqStatus struct {
	nrTrue        int
	nrDecided     int
	imply         implyType
	precondIsTrue bool
}

// clauseRec is the arena-resident representation of a clause: either a
// plain disjunction or a reified cardinality (LEQ) constraint. Disjunction
// clauses use lits[0] and lits[1] as the watched slots; LEQ clauses use
// lits as the counted literal vector, with dst and bound describing the
// reification and leq carrying the mutable count/imply state.
type clauseRec struct {
	lits     []Literal
	learnt   bool
	mark     bool
	activity float64
	lbd      uint32

	// searchPos is not read or written anywhere: propagateDisjunctions
	// always starts its scan for a replacement watch at c[2].
	searchPos int

	isLeq bool
	bound int
	dst   Literal
	leq   leqStatus
}

func (c *clauseRec) size() int { return len(c.lits) }

// arena owns every clause's backing storage and hands out CRefs. It keeps
// no per-literal bookkeeping of its own; the solver's watch lists, trail
// log, and clause/learnt slices are the long-lived holders of CRefs that
// must be rewritten on relocation.
type arena struct {
	clauses []*clauseRec
	wasted  int
}

func newArena() *arena { return &arena{} }

// alloc reserves storage for a plain disjunction clause and returns its
// CRef. The backing literal slice is drawn from the shared slice pool
// (clauses_alloc.go) rather than allocated fresh each time.
func (a *arena) alloc(lits []Literal, learnt bool) CRef {
	ref := allocSlice(len(lits))
	*ref = append((*ref)[:0], lits...)
	c := &clauseRec{lits: *ref, learnt: learnt}
	a.clauses = append(a.clauses, c)
	return CRef(len(a.clauses) - 1)
}

// allocLeq reserves storage for a reified cardinality clause.
func (a *arena) allocLeq(lits []Literal, bound int, dst Literal) (CRef, error) {
	if len(lits) >= maxLeqSize {
		return CRefUndef, ErrCapacityOverflow
	}
	ref := allocSlice(len(lits))
	*ref = append((*ref)[:0], lits...)
	c := &clauseRec{lits: *ref, isLeq: true, bound: bound, dst: dst}
	a.clauses = append(a.clauses, c)
	return CRef(len(a.clauses) - 1), nil
}

func (a *arena) get(r CRef) *clauseRec { return a.clauses[r] }

// free marks a clause's slot as reclaimable. The slot itself is only
// actually reused once garbageCollect runs.
func (a *arena) free(r CRef) {
	c := a.clauses[r]
	if c.mark {
		return
	}
	c.mark = true
	a.wasted++
	s := c.lits
	freeSlice(&s)
}

func (a *arena) wastedFrac() float64 {
	if len(a.clauses) == 0 {
		return 0
	}
	return float64(a.wasted) / float64(len(a.clauses))
}

// relocAll compacts the arena, dropping marked clauses, and returns a
// slice mapping every old CRef to its new CRef (CRefUndef for clauses that
// were dropped). The caller must rewrite every CRef it holds using this
// mapping before the old indices are forgotten.
func (a *arena) relocAll() []CRef {
	mapping := make([]CRef, len(a.clauses))
	fresh := make([]*clauseRec, 0, len(a.clauses))
	for old, c := range a.clauses {
		if c.mark {
			mapping[old] = CRefUndef
			continue
		}
		mapping[old] = CRef(len(fresh))
		fresh = append(fresh, c)
	}
	a.clauses = fresh
	a.wasted = 0
	return mapping
}
