package aig

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCounter(t *testing.T) {
	// Single latch, next = ~latch, reset 0, output = latch (one-bit toggle).
	text := `aag 2 0 1 1 0
2 3
2
`
	got, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	want := &AIG{
		MaxVar:     2,
		NumInputs:  0,
		NumLatches: 1,
		NumOutputs: 1,
		NumAnds:    0,
		Inputs:     []Literal{},
		Latches:    []Latch{{Lit: 2, Next: 3, Reset: 0}},
		Outputs:    []Literal{2},
		Ands:       []And{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse (-want +got):\n%s", diff)
	}
}

func TestParseWithConstraintsAndAnds(t *testing.T) {
	text := `aag 4 1 1 1 1 1
2
4 3 0
6
4
6 2 4
`
	got, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	want := &AIG{
		MaxVar:         4,
		NumInputs:      1,
		NumLatches:     1,
		NumOutputs:     1,
		NumAnds:        1,
		NumConstraints: 1,
		Inputs:         []Literal{2},
		Latches:        []Latch{{Lit: 4, Next: 3, Reset: 0}},
		Outputs:        []Literal{6},
		Constraints:    []Literal{4},
		Ands:           []And{{Lhs: 6, Rhs0: 2, Rhs1: 4}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse (-want +got):\n%s", diff)
	}
}

func TestParseBadLatchReset(t *testing.T) {
	text := `aag 2 0 1 1 0
2 3 7
2
`
	if _, err := Parse(strings.NewReader(text)); err == nil {
		t.Fatal("expected error for invalid latch reset")
	}
}

func TestParseBinaryUnsupported(t *testing.T) {
	text := "aig 2 0 1 1 0\n"
	if _, err := Parse(strings.NewReader(text)); err == nil {
		t.Fatal("expected error for binary AIGER format")
	}
}

func TestParseOddLhs(t *testing.T) {
	text := `aag 4 1 1 1 1
2
4 3 0
6
5 2 4
`
	if _, err := Parse(strings.NewReader(text)); err == nil {
		t.Fatal("expected error for odd and-gate lhs")
	}
}
