package dimacs

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kaelhart/cardsat/internal/sat"
)

// Write dumps s's current root-level clause and LEQ database in DIMACS
// form, including the "<=k #d"/">=k #d" cardinality extension. Learnt
// clauses are not written; the result is only meant to reproduce the
// problem, not the solver's derived state. Grounded on
// original_source/minisat/core/Solver.cc's toDimacs (the whole-clause-set
// overload).
func Write(w io.Writer, s *sat.Solver) error {
	bw := bufio.NewWriter(w)

	nClauses := s.NumConstraints() + s.NumLeqConstraints()
	if _, err := fmt.Fprintf(bw, "p cnf %d %d\n", s.NumVariables(), nClauses); err != nil {
		return err
	}

	for _, lits := range s.ClauseLiterals() {
		if err := writeLits(bw, lits); err != nil {
			return err
		}
		if _, err := bw.WriteString("0\n"); err != nil {
			return err
		}
	}

	for _, lc := range s.LeqLiterals() {
		if err := writeLits(bw, lc.Lits); err != nil {
			return err
		}
		// The solver always canonicalizes GEQ into an internal LEQ over
		// negated literals, so the round trip re-reads as "<=" rather than
		// the ">=" form it may have originally been written in; this is
		// equisatisfiable, not byte-identical, per spec.md's round-trip
		// property ("modulo level-0 simplifications").
		if _, err := fmt.Fprintf(bw, "<=%d #%d 0\n", lc.Bound, dimacsLiteral(lc.Dst)); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteAssumption dumps a one-clause instance whose clause is the
// disjunction of the negations of the given assumption literals — the
// second toDimacs overload in the original. The solver's current
// assignment is not consulted, and no other clause is written.
func WriteAssumption(w io.Writer, s *sat.Solver, assumps []sat.Literal) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "p cnf %d 1\n", s.NumVariables()); err != nil {
		return err
	}
	for _, l := range assumps {
		if _, err := fmt.Fprintf(bw, "%d ", -dimacsLiteral(l)); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("0\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func writeLits(bw *bufio.Writer, lits []sat.Literal) error {
	for _, l := range lits {
		if _, err := fmt.Fprintf(bw, "%d ", dimacsLiteral(l)); err != nil {
			return err
		}
	}
	return nil
}

func dimacsLiteral(l sat.Literal) int {
	v := l.VarID() + 1
	if !l.IsPositive() {
		return -v
	}
	return v
}

