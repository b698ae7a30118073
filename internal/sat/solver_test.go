package sat

import (
	"testing"
)

func newVars(s *Solver, n int) []int {
	vars := make([]int, n)
	for i := range vars {
		vars[i] = s.AddVariable()
	}
	return vars
}

func mustAddClause(t *testing.T, s *Solver, lits ...Literal) {
	t.Helper()
	if err := s.AddClause(lits); err != nil {
		t.Fatalf("AddClause: %v", err)
	}
}

func TestUnitPropagationChain(t *testing.T) {
	s := NewDefaultSolver()
	vars := newVars(s, 3)
	p := func(i int) Literal { return s.PositiveLiteral(vars[i]) }
	n := func(i int) Literal { return s.NegativeLiteral(vars[i]) }

	mustAddClause(t, s, p(0))
	mustAddClause(t, s, n(0), p(1))
	mustAddClause(t, s, n(1), p(2))

	status := s.Solve(nil)
	if status != True {
		t.Fatalf("want SAT, got %v", status)
	}
	model := s.Model()
	want := []bool{true, true, true}
	for i, b := range want {
		if model[i] != b {
			t.Errorf("model[%d] = %v, want %v", i, model[i], b)
		}
	}
}

func TestTrivialUnsat(t *testing.T) {
	s := NewDefaultSolver()
	vars := newVars(s, 1)
	mustAddClause(t, s, s.PositiveLiteral(vars[0]))
	mustAddClause(t, s, s.NegativeLiteral(vars[0]))

	if status := s.Solve(nil); status != False {
		t.Fatalf("want UNSAT, got %v", status)
	}
}

// TestPigeonholeThreeInTwo builds the classic 3-pigeons-into-2-holes
// instance using the native LEQ propagator (each hole gets an "at most
// one pigeon" cardinality constraint reified true) instead of the
// pairwise-exclusion clause encoding, and checks it is UNSAT.
func TestPigeonholeThreeInTwo(t *testing.T) {
	s := NewDefaultSolver()
	x := make([][]int, 3)
	for i := range x {
		x[i] = newVars(s, 2)
	}
	trueVar := s.AddVariable()
	mustAddClause(t, s, s.PositiveLiteral(trueVar))
	trueLit := s.PositiveLiteral(trueVar)

	for j := 0; j < 2; j++ {
		col := []Literal{
			s.PositiveLiteral(x[0][j]),
			s.PositiveLiteral(x[1][j]),
			s.PositiveLiteral(x[2][j]),
		}
		if err := s.AddLeqAssign(col, 1, trueLit); err != nil {
			t.Fatalf("AddLeqAssign: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		mustAddClause(t, s, s.PositiveLiteral(x[i][0]), s.PositiveLiteral(x[i][1]))
	}

	if status := s.Solve(nil); status != False {
		t.Fatalf("want UNSAT, got %v", status)
	}
}

// TestReifiedLeqAssumptions covers scenario 4: with the reification's
// destination assumed true, at most `bound` of the occurrence literals
// are true in the model; assumed false, at least bound+1 are true.
func TestReifiedLeqAssumptions(t *testing.T) {
	s := NewDefaultSolver()
	vars := newVars(s, 4)
	dst := s.AddVariable()

	lits := make([]Literal, 4)
	for i, v := range vars {
		lits[i] = s.PositiveLiteral(v)
	}
	if err := s.AddLeqAssign(lits, 2, s.PositiveLiteral(dst)); err != nil {
		t.Fatalf("AddLeqAssign: %v", err)
	}

	status := s.Solve([]Literal{s.PositiveLiteral(dst)})
	if status != True {
		t.Fatalf("want SAT with dst=true, got %v", status)
	}
	nTrue := countTrue(s.Model(), vars)
	if nTrue > 2 {
		t.Errorf("dst=true: got %d true literals, want <= 2", nTrue)
	}

	status = s.Solve([]Literal{s.NegativeLiteral(dst)})
	if status != True {
		t.Fatalf("want SAT with dst=false, got %v", status)
	}
	nTrue = countTrue(s.Model(), vars)
	if nTrue < 3 {
		t.Errorf("dst=false: got %d true literals, want >= 3", nTrue)
	}
}

func countTrue(model []bool, vars []int) int {
	n := 0
	for _, v := range vars {
		if model[v] {
			n++
		}
	}
	return n
}

func TestTautologyCanonicalization(t *testing.T) {
	s := NewDefaultSolver()
	vars := newVars(s, 2)
	before := s.NumConstraints()
	err := s.AddClause([]Literal{
		s.PositiveLiteral(vars[0]),
		s.NegativeLiteral(vars[0]),
		s.PositiveLiteral(vars[1]),
	})
	if err != nil {
		t.Fatalf("AddClause: %v", err)
	}
	if got := s.NumConstraints(); got != before {
		t.Errorf("tautology added a clause: NumConstraints went from %d to %d", before, got)
	}
	if !s.Ok() {
		t.Errorf("adding a tautology must not mark the solver unsat")
	}
}

// TestAssumptionConflictCore covers scenario 6.
func TestAssumptionConflictCore(t *testing.T) {
	s := NewDefaultSolver()
	vars := newVars(s, 3)
	mustAddClause(t, s, s.NegativeLiteral(vars[0]), s.NegativeLiteral(vars[1]))
	mustAddClause(t, s, s.NegativeLiteral(vars[0]), s.NegativeLiteral(vars[2]))

	status := s.Solve([]Literal{s.PositiveLiteral(vars[0]), s.PositiveLiteral(vars[1])})
	if status != False {
		t.Fatalf("want UNSAT, got %v", status)
	}
	conflict := s.Conflict()
	if len(conflict) == 0 {
		t.Fatalf("want a non-empty conflict core")
	}
	allowed := map[Literal]bool{
		s.PositiveLiteral(vars[0]): true,
		s.PositiveLiteral(vars[1]): true,
	}
	for _, l := range conflict {
		if !allowed[l] {
			t.Errorf("conflict core literal %v is not among the assumed literals", l)
		}
	}

	status = s.Solve([]Literal{s.PositiveLiteral(vars[2])})
	if status != True {
		t.Fatalf("want SAT with assumption {3}, got %v", status)
	}
}

// TestRestartInsensitiveAnswer covers scenario 7: Luby on vs. off must
// agree on the SAT/UNSAT verdict of a deterministic instance.
func TestRestartInsensitiveAnswer(t *testing.T) {
	build := func(opts Options) *Solver {
		s := NewSolver(opts)
		vars := newVars(s, 3)
		mustAddClause(t, s, s.PositiveLiteral(vars[0]))
		mustAddClause(t, s, s.NegativeLiteral(vars[0]), s.PositiveLiteral(vars[1]))
		mustAddClause(t, s, s.NegativeLiteral(vars[1]), s.PositiveLiteral(vars[2]))
		return s
	}

	lubyOpts := DefaultOptions
	lubyOpts.LubyRestarts = true
	geomOpts := DefaultOptions
	geomOpts.LubyRestarts = false

	got1 := build(lubyOpts).Solve(nil)
	got2 := build(geomOpts).Solve(nil)
	if got1 != got2 {
		t.Errorf("restart policy changed the verdict: luby=%v geometric=%v", got1, got2)
	}
}

// TestGarbageCollectionRoundTrip covers scenario 8: forcing GC mid-search
// with a tiny garbage fraction must not change the verdict versus running
// with garbage collection effectively disabled.
func TestGarbageCollectionRoundTrip(t *testing.T) {
	build := func(garbageFrac float64) *Solver {
		opts := DefaultOptions
		opts.GarbageFrac = garbageFrac
		s := NewSolver(opts)
		vars := newVars(s, 6)
		mustAddClause(t, s, s.PositiveLiteral(vars[0]), s.PositiveLiteral(vars[1]))
		mustAddClause(t, s, s.NegativeLiteral(vars[0]), s.PositiveLiteral(vars[2]))
		mustAddClause(t, s, s.NegativeLiteral(vars[1]), s.PositiveLiteral(vars[3]))
		mustAddClause(t, s, s.NegativeLiteral(vars[2]), s.NegativeLiteral(vars[3]), s.PositiveLiteral(vars[4]))
		mustAddClause(t, s, s.NegativeLiteral(vars[4]), s.PositiveLiteral(vars[5]))
		return s
	}

	aggressive := build(0.01).Solve(nil)
	relaxed := build(1e9).Solve(nil)
	if aggressive != relaxed {
		t.Errorf("garbage_frac changed the verdict: aggressive=%v relaxed=%v", aggressive, relaxed)
	}
}

// TestBudgetExhaustion covers scenario 9: a conflict budget of 1 on a
// forced-conflict instance must return Unknown without marking the
// solver unsat, and a later call with the budget lifted must still find
// the real answer.
func TestBudgetExhaustion(t *testing.T) {
	opts := DefaultOptions
	opts.ConflictBudget = 1
	s := NewSolver(opts)
	vars := newVars(s, 3)
	mustAddClause(t, s, s.PositiveLiteral(vars[0]), s.PositiveLiteral(vars[1]))
	mustAddClause(t, s, s.NegativeLiteral(vars[0]), s.NegativeLiteral(vars[1]))
	mustAddClause(t, s, s.PositiveLiteral(vars[0]), s.NegativeLiteral(vars[1]))
	mustAddClause(t, s, s.NegativeLiteral(vars[0]), s.PositiveLiteral(vars[1]))
	mustAddClause(t, s, s.PositiveLiteral(vars[2]))

	status := s.Solve(nil)
	if status != Unknown {
		t.Fatalf("want Unknown under a conflict budget of 1, got %v", status)
	}
	if !s.Ok() {
		t.Fatalf("budget exhaustion must not latch s.ok = false")
	}

	s.opts.ConflictBudget = -1
	if status := s.Solve(nil); status == Unknown {
		t.Fatalf("raising the budget must let the solver finish")
	}
}
