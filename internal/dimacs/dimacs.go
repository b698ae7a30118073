package dimacs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kaelhart/cardsat/internal/sat"
)

// Instance is a DIMACS CNF instance, extended with the cardinality
// grammar: a clause line may end in "<=k #d" or ">=k #d" instead of the
// plain literal/0 terminator, meaning "reify this clause's literals as a
// LEQ/GEQ constraint with bound k and destination literal d".
type Instance struct {
	Variables int
	Clauses   [][]int
	Leqs      []LeqClause
	Comments  []string
}

// LeqClause is one `<=k #d` / `>=k #d` line: lits is the occurrence
// vector, geq distinguishes the two forms, and dst is the (possibly
// negated) destination literal.
type LeqClause struct {
	Lits []int
	Bound int
	Dst   int
	Geq   bool
}

func ParseDIMACS(filename string) (*Instance, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	instance := &Instance{}
	scanner := bufio.NewScanner(file)
	stop := false
	for i := 0; scanner.Scan() && !stop; i++ {
		line := scanner.Text()
		if line == "" {
			continue
		}

		switch line[0] {
		case '%': // end of instance
			stop = true
		case 'c':
			if err := parseCommentLine(instance, line); err != nil {
				return nil, err
			}
		case 'p':
			if err := parseHeaderLine(instance, line); err != nil {
				return nil, err
			}
		default:
			if err := parseClauseLine(instance, line); err != nil {
				return nil, err
			}
		}
	}

	return instance, nil
}

// Instantiate adds the instance's variables, clauses, and cardinality
// constraints to solver s.
func Instantiate(s *sat.Solver, instance *Instance) error {
	for i := 0; i < instance.Variables; i++ {
		s.AddVariable()
	}
	for _, c := range instance.Clauses {
		if err := s.AddClause(toLiterals(c)); err != nil {
			return err
		}
	}
	for _, lc := range instance.Leqs {
		lits := toLiterals(lc.Lits)
		dst := toLiteral(lc.Dst)
		var err error
		if lc.Geq {
			err = s.AddGeqAssign(lits, lc.Bound, dst)
		} else {
			err = s.AddLeqAssign(lits, lc.Bound, dst)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func toLiteral(v int) sat.Literal {
	if v < 0 {
		return sat.NegativeLiteral(-v - 1)
	}
	return sat.PositiveLiteral(v - 1)
}

func toLiterals(vs []int) []sat.Literal {
	lits := make([]sat.Literal, len(vs))
	for i, v := range vs {
		lits[i] = toLiteral(v)
	}
	return lits
}

func parseCommentLine(instance *Instance, line string) error {
	instance.Comments = append(instance.Comments, line)
	return nil
}

func parseHeaderLine(instance *Instance, line string) error {
	if instance.Clauses != nil {
		return fmt.Errorf("found a second header line %q", line)
	}
	parts := strings.Fields(line)
	if parts[1] != "cnf" {
		return fmt.Errorf("instance of type %q are not supported", parts[1])
	}
	nVar, err := strconv.Atoi(parts[2])
	if err != nil {
		return fmt.Errorf("could not parse header: %w", err)
	}
	instance.Variables = nVar
	nClauses, err := strconv.Atoi(parts[3])
	if err != nil {
		return fmt.Errorf("could not parse header: %w", err)
	}
	instance.Clauses = make([][]int, 0, nClauses)
	return nil
}

func parseClauseLine(instance *Instance, line string) error {
	if instance.Clauses == nil {
		return fmt.Errorf("found clause line before header %q", line)
	}
	parts := strings.Fields(line)

	for i, p := range parts {
		if strings.HasPrefix(p, "<=") || strings.HasPrefix(p, ">=") {
			lc, err := parseLeqTail(parts[:i], parts[i:])
			if err != nil {
				return fmt.Errorf("could not parse cardinality clause %q: %w", line, err)
			}
			instance.Leqs = append(instance.Leqs, *lc)
			return nil
		}
	}

	c, err := parseClause(parts)
	if err != nil {
		return fmt.Errorf("could not parse clause %q: %w", line, err)
	}
	instance.Clauses = append(instance.Clauses, c)
	return nil
}

// parseLeqTail parses the literal prefix plus the "<=k #d 0" /
// ">=k #d 0" suffix of a cardinality clause line.
func parseLeqTail(litParts, tailParts []string) (*LeqClause, error) {
	lits, err := parseClause(litParts)
	if err != nil {
		return nil, fmt.Errorf("literal prefix: %w", err)
	}

	if len(tailParts) < 2 {
		return nil, fmt.Errorf("expected \"<=k #d\" or \">=k #d\", got %q", strings.Join(tailParts, " "))
	}
	tok := tailParts[0]
	geq := strings.HasPrefix(tok, ">=")
	bound, err := strconv.Atoi(strings.TrimPrefix(strings.TrimPrefix(tok, "<="), ">="))
	if err != nil {
		return nil, fmt.Errorf("could not parse bound %q: %w", tok, err)
	}

	dstTok := tailParts[1]
	if !strings.HasPrefix(dstTok, "#") {
		return nil, fmt.Errorf("expected destination literal token starting with '#', got %q", dstTok)
	}
	dst, err := strconv.Atoi(strings.TrimPrefix(dstTok, "#"))
	if err != nil {
		return nil, fmt.Errorf("could not parse destination literal %q: %w", dstTok, err)
	}
	if dst == 0 {
		return nil, fmt.Errorf("destination literal must be non-zero")
	}

	return &LeqClause{Lits: lits, Bound: bound, Dst: dst, Geq: geq}, nil
}

func parseClause(parts []string) ([]int, error) {
	literals := make([]int, 0, len(parts))
	for _, p := range parts {
		l, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		if l == 0 {
			break
		}
		literals = append(literals, l)
	}
	return literals, nil
}
