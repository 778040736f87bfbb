package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arcsat/car/internal/aig"
)

// singleLatch is a one-bit toggle counter: one latch, next = NOT(latch),
// output = latch.
func singleLatch() *aig.AIG {
	return &aig.AIG{
		NumLatches: 1,
		NumOutputs: 1,
		MaxVar:     1,
		Latches:    []aig.Latch{{Lit: 2, Next: 3, Reset: 0}},
		Outputs:    []aig.Literal{2},
		Inputs:     []aig.Literal{},
	}
}

func TestNewSingleLatch(t *testing.T) {
	m, err := New(singleLatch())
	require.NoError(t, err)

	require.Equal(t, 6, m.MaxID)
	require.Equal(t, 2, m.TrueID)
	require.Equal(t, 3, m.FalseID)
	require.Equal(t, 4, m.Flag1)
	require.Equal(t, 6, m.Flag2)
	require.Equal(t, []int{1}, m.Outputs)
	require.Equal(t, []int{-1}, m.Init)

	want := [][]int{
		{5, -4},
		{-1, -6},
		{4, 6},
		{2},
		{-3},
	}
	if diff := cmp.Diff(want, m.Clauses); diff != "" {
		t.Fatalf("Clauses (-want +got):\n%s", diff)
	}
}

func TestPrimeAndPrevious(t *testing.T) {
	m, err := New(singleLatch())
	require.NoError(t, err)

	next, err := m.Prime(1)
	require.NoError(t, err)
	require.Equal(t, -1, next)

	next, err = m.Prime(-1)
	require.NoError(t, err)
	require.Equal(t, 1, next)

	_, err = m.Prime(2)
	require.Error(t, err)

	require.Equal(t, []int{1}, m.Previous(-1))
	require.Equal(t, []int{-1}, m.Previous(1))
	require.Nil(t, m.Previous(2))
}

func TestShrinkToPreviousVars(t *testing.T) {
	m, err := New(singleLatch())
	require.NoError(t, err)

	require.Equal(t, []int{1}, m.ShrinkToPreviousVars([]int{-1}))
	require.Empty(t, m.ShrinkToPreviousVars([]int{2}))
}

func TestShrinkToLatchVars(t *testing.T) {
	m, err := New(singleLatch())
	require.NoError(t, err)

	require.True(t, m.IsLatchVar(1))
	require.False(t, m.IsLatchVar(2))

	require.Equal(t, []int{1}, m.ShrinkToLatchVars([]int{1, m.Flag1}))

	require.Panics(t, func() {
		m.ShrinkToLatchVars([]int{1, m.TrueID, m.Flag1})
	})
}

// twoLatchesSharedNext covers the shared-next-equivalence group encoding:
// both latches reset and transition to the constant FALSE, so they land in
// the same reverse-next group and must agree under Flag1.
func twoLatchesSharedNext() *aig.AIG {
	return &aig.AIG{
		NumLatches: 2,
		NumOutputs: 1,
		MaxVar:     2,
		Latches: []aig.Latch{
			{Lit: 2, Next: 0, Reset: 0},
			{Lit: 4, Next: 0, Reset: 0},
		},
		Outputs: []aig.Literal{2},
		Inputs:  []aig.Literal{},
	}
}

func TestNewSharedNextGroup(t *testing.T) {
	m, err := New(twoLatchesSharedNext())
	require.NoError(t, err)

	require.Equal(t, 3, m.TrueID)
	require.Equal(t, 4, m.FalseID)
	require.Equal(t, 5, m.Flag1)
	require.Equal(t, 6, m.Flag2)

	want := [][]int{
		{1, -2, -5},
		{-1, 2, -5},
		{-1, -6},
		{-2, -6},
		{5, 6},
		{3},
		{-4},
	}
	if diff := cmp.Diff(want, m.Clauses); diff != "" {
		t.Fatalf("Clauses (-want +got):\n%s", diff)
	}
}

func TestNewRejectsBadLatchNumbering(t *testing.T) {
	a := singleLatch()
	a.Latches[0].Lit = 4 // should be 2 for the first latch when NumInputs == 0
	_, err := New(a)
	require.Error(t, err)
}

func TestNewRejectsInconsistentAIG(t *testing.T) {
	a := singleLatch()
	a.NumLatches = 2 // Latches slice still has length 1
	_, err := New(a)
	require.Error(t, err)
}

// andGateCircuit exercises the Tseitin gate-clause encoding and the
// constant-propagation pass: out = latch AND TRUE, which collect_trues
// should fold so the gate's rhs1 branch contributes no extra variable.
func andGateCircuit() *aig.AIG {
	return &aig.AIG{
		NumLatches: 1,
		NumAnds:    1,
		NumOutputs: 1,
		MaxVar:     2,
		Latches:    []aig.Latch{{Lit: 2, Next: 3, Reset: 1}},
		Ands:       []aig.And{{Lhs: 4, Rhs0: 2, Rhs1: 1}},
		Outputs:    []aig.Literal{4},
		Inputs:     []aig.Literal{},
	}
}

func TestNewAndGateConstantRhs(t *testing.T) {
	m, err := New(andGateCircuit())
	require.NoError(t, err)

	// rhs1 == 1 (constant TRUE), so the gate degenerates to lhs <-> rhs0.
	require.Contains(t, m.Clauses, []int{2, -1})
	require.Contains(t, m.Clauses, []int{-2, 1})
	require.Equal(t, []int{2}, m.Outputs)
}
