package satsolver

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolverSatisfiable(t *testing.T) {
	s := New()
	a, b, c := s.NewVar(), s.NewVar(), s.NewVar()
	s.AddClause([]int{a, b})
	s.AddClause([]int{-a, c})
	s.AddClause([]int{-b, c})

	require.Equal(t, Sat, s.SolveUnderAssumptions(nil))
	model := s.Model()
	require.Len(t, model, 3)

	val := func(v int) bool { return model[v-1] > 0 }
	require.True(t, val(a) || val(b))
	if val(a) {
		require.True(t, val(c))
	}
	if val(b) {
		require.True(t, val(c))
	}
}

func TestSolverUnsatClauses(t *testing.T) {
	s := New()
	a := s.NewVar()
	s.AddClause([]int{a})
	s.AddClause([]int{-a})
	require.Equal(t, Unsat, s.SolveUnderAssumptions(nil))
}

func TestSolverAssumptionsProduceUnsat(t *testing.T) {
	s := New()
	a, b := s.NewVar(), s.NewVar()
	// a <-> b
	s.AddClause([]int{-a, b})
	s.AddClause([]int{a, -b})

	require.Equal(t, Sat, s.SolveUnderAssumptions([]int{a}))
	require.Equal(t, Unsat, s.SolveUnderAssumptions([]int{a, -b}))

	core := s.Conflict()
	sort.Ints(core)
	require.Subset(t, []int{a, -b}, core)
	require.NotEmpty(t, core)
}

func TestSolverIncrementalAddClauseBetweenSolves(t *testing.T) {
	s := New()
	a, b := s.NewVar(), s.NewVar()
	s.AddClause([]int{a, b})
	require.Equal(t, Sat, s.SolveUnderAssumptions([]int{-a}))
	require.True(t, s.Model()[b-1] > 0)

	// Now forbid b outright; -a alone should become unsat.
	s.AddClause([]int{-b})
	require.Equal(t, Unsat, s.SolveUnderAssumptions([]int{-a}))
}

func TestSolverContradictoryAssumptions(t *testing.T) {
	s := New()
	a := s.NewVar()
	s.AddClause([]int{a, s.NewVar()})
	require.Equal(t, Unsat, s.SolveUnderAssumptions([]int{a, -a}))
	require.ElementsMatch(t, []int{a, -a}, s.Conflict())
}

func TestSolverPropBudgetYieldsUnknown(t *testing.T) {
	s := New()
	// A long implication chain of clauses forces many propagations from
	// a single assumption, so a tiny budget should be exhausted.
	prev := s.NewVar()
	s.AddClause([]int{prev})
	for i := 0; i < 50; i++ {
		next := s.NewVar()
		s.AddClause([]int{-prev, next})
		prev = next
	}
	s.SetPropBudget(1)
	require.Equal(t, Unknown, s.SolveUnderAssumptions(nil))
}

func TestSolverEmptyClauseIsUnsat(t *testing.T) {
	s := New()
	s.AddClause([]int{})
	require.Equal(t, Unsat, s.SolveUnderAssumptions(nil))
	require.Equal(t, Unsat, s.SolveUnderAssumptions([]int{}))
}

func TestSolverTautologicalClauseIsNoOp(t *testing.T) {
	s := New()
	a := s.NewVar()
	s.AddClause([]int{a, -a})
	require.Equal(t, Sat, s.SolveUnderAssumptions(nil))
}
