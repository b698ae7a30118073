package dimacs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testInstance = Instance{
	Variables: 3,
	Clauses: [][]int{
		{1, 2, 3},
		{1, 2, -3},
		{1, -2, 3},
		{-1, 2, 3},
		{-1, -2, 3},
		{-1, 2, -3},
		{1, -2, -3},
		{-1, -2, -3},
	},
	Comments: []string{"c minimalist unsat instance"},
}

func TestParseDIMACS_cnf(t *testing.T) {
	want := &testInstance

	got, err := ParseDIMACS("testdata/test_instance.cnf")
	if err != nil {
		t.Fatalf("ParseDIMACS(): want no error, got %s", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDIMACS(): mismatch (+want, -got):\n%s", diff)
	}
}

func TestParseDIMACS_noFile(t *testing.T) {
	got, err := ParseDIMACS("")
	if err == nil {
		t.Errorf("ParseDIMACS(): want error, got none")
	}
	if got != nil {
		t.Errorf("ParseDIMACS(): want nil instance, got %+v", got)
	}
}

func TestParseDIMACS_leqExtension(t *testing.T) {
	got, err := ParseDIMACS("testdata/test_leq.cnf")
	if err != nil {
		t.Fatalf("ParseDIMACS(): want no error, got %s", err)
	}
	if len(got.Clauses) != 0 {
		t.Errorf("want no plain clauses, got %v", got.Clauses)
	}
	want := []LeqClause{{Lits: []int{1, 2, 3}, Bound: 1, Dst: 4, Geq: false}}
	if diff := cmp.Diff(want, got.Leqs); diff != "" {
		t.Errorf("ParseDIMACS(): leq mismatch (+want, -got):\n%s", diff)
	}
}
