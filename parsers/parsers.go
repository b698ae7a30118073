package parsers

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rhartert/dimacs"

	"github.com/kaelhart/cardsat/internal/sat"
)

// SATSolver is the minimal surface LoadDIMACS needs from a solver: plain
// clauses via the streaming github.com/rhartert/dimacs reader, plus the
// cardinality extension that reader's grammar has no callback for.
type SATSolver interface {
	AddVariable() int
	AddClause([]sat.Literal) error
	AddLeqAssign(lits []sat.Literal, bound int, dst sat.Literal) error
	AddGeqAssign(lits []sat.Literal, bound int, dst sat.Literal) error
}

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// leqTail is a cardinality suffix ("<=k #d" / ">=k #d") stripped from a
// clause line before it is handed to the plain-CNF reader.
type leqTail struct {
	bound int
	dst   int
	geq   bool
}

// stripLeqTails rewrites every clause line ending in a "<=k #d"/">=k #d"
// suffix into a plain 0-terminated literal line, in the order the
// underlying reader will call Builder.Clause, so builder.Clause can pop
// the matching tail (if any) off the returned queue by call index. Every
// clause line gets one queue entry (nil for a plain clause), so each
// clause is expected on its own line.
//
// github.com/rhartert/dimacs's Builder.Clause callback only ever sees
// already-parsed integers, with no hook for non-numeric tokens; the
// cardinality extension is therefore intercepted here, at the raw line
// level, before the library's own scanner ever sees it.
func stripLeqTails(r io.Reader) (io.Reader, []*leqTail, error) {
	var out bytes.Buffer
	var tails []*leqTail

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == 'c' || trimmed[0] == 'p' || trimmed[0] == '%' {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		parts := strings.Fields(line)
		tailIdx := -1
		for i, p := range parts {
			if strings.HasPrefix(p, "<=") || strings.HasPrefix(p, ">=") {
				tailIdx = i
				break
			}
		}
		if tailIdx < 0 {
			tails = append(tails, nil)
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		tail, err := parseLeqTailTokens(parts[tailIdx:])
		if err != nil {
			return nil, nil, fmt.Errorf("could not parse cardinality clause %q: %w", line, err)
		}
		tails = append(tails, tail)

		out.WriteString(strings.Join(parts[:tailIdx], " "))
		out.WriteString(" 0\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return &out, tails, nil
}

func parseLeqTailTokens(parts []string) (*leqTail, error) {
	if len(parts) < 2 {
		return nil, fmt.Errorf("expected \"<=k #d\" or \">=k #d\"")
	}
	tok := parts[0]
	geq := strings.HasPrefix(tok, ">=")
	bound, err := strconv.Atoi(strings.TrimPrefix(strings.TrimPrefix(tok, "<="), ">="))
	if err != nil {
		return nil, fmt.Errorf("could not parse bound %q: %w", tok, err)
	}
	dstTok := parts[1]
	if !strings.HasPrefix(dstTok, "#") {
		return nil, fmt.Errorf("expected destination literal token starting with '#', got %q", dstTok)
	}
	dst, err := strconv.Atoi(strings.TrimPrefix(dstTok, "#"))
	if err != nil {
		return nil, fmt.Errorf("could not parse destination literal %q: %w", dstTok, err)
	}
	return &leqTail{bound: bound, dst: dst, geq: geq}, nil
}

// LoadDIMACS parses the DIMACS CNF file (plus cardinality extension) and
// loads it into the given SAT solver.
func LoadDIMACS(filename string, gzipped bool, solver SATSolver) error {
	rc, err := reader(filename, gzipped)
	if err != nil {
		return fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer rc.Close()

	filtered, tails, err := stripLeqTails(rc)
	if err != nil {
		return fmt.Errorf("error reading file %q: %s", filename, err)
	}

	b := &builder{solver: solver, tails: tails}
	return dimacs.ReadBuilder(filtered, b)
}

// builder wraps the solver to implement dimacs.Builder.
type builder struct {
	solver SATSolver
	tails  []*leqTail
	call   int
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("not a CNF problem")
	}
	for i := 0; i < nVars; i++ {
		b.solver.AddVariable()
	}
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	clause := make([]sat.Literal, len(tmpClause))
	for i, l := range tmpClause {
		clause[i] = toLiteral(l)
	}

	var tail *leqTail
	if b.call < len(b.tails) {
		tail = b.tails[b.call]
	}
	b.call++

	if tail == nil {
		return b.solver.AddClause(clause)
	}
	dst := toLiteral(tail.dst)
	if tail.geq {
		return b.solver.AddGeqAssign(clause, tail.bound, dst)
	}
	return b.solver.AddLeqAssign(clause, tail.bound, dst)
}

func (b *builder) Comment(_ string) error {
	return nil // ignore comments
}

func toLiteral(l int) sat.Literal {
	if l < 0 {
		return sat.NegativeLiteral(-l - 1)
	}
	return sat.PositiveLiteral(l - 1)
}

// ReadModels returns the list of models (if any) contained in the given file.
func ReadModels(filename string) ([][]bool, error) {
	rc, err := reader(filename, false)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer rc.Close()

	b := &modelBuilder{}
	if err := dimacs.ReadBuilder(rc, b); err != nil {
		return nil, err
	}

	return b.models, nil
}

// modelBuilder wraps a models sink to implement dimacs.Builder.
type modelBuilder struct {
	models [][]bool
}

func (b *modelBuilder) Problem(problem string, nVars int, nClauses int) error {
	return fmt.Errorf("model files should not have problem lines")
}

func (b *modelBuilder) Comment(_ string) error {
	return nil // ignore comments
}

func (b *modelBuilder) Clause(tmpClause []int) error {
	model := make([]bool, len(tmpClause))
	for i, l := range tmpClause {
		model[i] = l > 0
	}
	b.models = append(b.models, model)
	return nil
}
