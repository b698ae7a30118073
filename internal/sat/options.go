package sat

import "time"

// CcminMode selects the conflict-clause minimization strategy used by
// analyze.
type CcminMode int

const (
	// CcminNone performs no minimization.
	CcminNone CcminMode = 0
	// CcminBasic removes a literal only if its reason's other antecedents
	// are already in the learnt clause (no recursion). A LEQ reason in
	// this path is a hard error, matching the original solver.
	CcminBasic CcminMode = 1
	// CcminDeep performs the full recursive redundancy probe. This is the
	// default and the only mode that is defined over LEQ reasons.
	CcminDeep CcminMode = 2
)

// Options configures a Solver. DefaultOptions mirrors the teacher's
// defaults, extended with the cardinality-solver and assumption-handling
// knobs the original source exposes.
type Options struct {
	ClauseDecay   float64
	VariableDecay float64
	MaxConflicts  int64
	Timeout       time.Duration
	PhaseSaving   int // 0, 1, or 2

	RandomVarFreq  float64
	RandomPolarity bool
	RandomSeed     int64

	CcminMode CcminMode

	ConflictBudget     int64 // <0 means unbounded
	PropagationBudget  int64 // <0 means unbounded
	LubyRestarts       bool
	RestartFirst       int
	RestartInc         float64
	LearntSizeFactor   float64
	LearntSizeInc      float64
	LearntSizeAdjInit  int
	LearntSizeAdjInc   float64
	GarbageFrac        float64

	// RandomInitialActivity mirrors the original's rnd_init_act: when set,
	// newly allocated variables start with a small random activity jitter
	// instead of zero.
	RandomInitialActivity bool

	Verbosity int
}

var DefaultOptions = Options{
	ClauseDecay:           0.999,
	VariableDecay:         0.95,
	MaxConflicts:          -1,
	Timeout:               -1,
	PhaseSaving:           2,
	RandomVarFreq:         0,
	RandomPolarity:        false,
	RandomSeed:            92702102,
	CcminMode:             CcminDeep,
	ConflictBudget:        -1,
	PropagationBudget:     -1,
	LubyRestarts:          true,
	RestartFirst:          100,
	RestartInc:            2,
	LearntSizeFactor:      1.0 / 3.0,
	LearntSizeInc:         1.1,
	LearntSizeAdjInit:     100,
	LearntSizeAdjInc:      1.5,
	GarbageFrac:           0.2,
	RandomInitialActivity: false,
	Verbosity:             0,
}
