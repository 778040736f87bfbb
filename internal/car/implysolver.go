package car

import (
	"sort"

	"github.com/arcsat/car/internal/satsolver"
)

// ImplySolver is the cheap pre-SAT subsumption filter for one frame level
// (spec.md §4.4): it holds the negation of every cube ever added to that
// level as a permanent clause (cubes are never removed, so no activation
// literal is needed, unlike MainSolver's frames), and answers "is state s
// already blocked here" with a propagation-budgeted solve.
//
// Grounded on implysolver.h/.cpp: is_blocked/add_uc (plain) and
// is_blocked_MOM/add_uc_MOM (the MOMs-weighted variant, spec.md §10).
type ImplySolver struct {
	solver  *satsolver.Solver
	mom     bool
	budget  int
	weights map[int]float64
	counter int
}

// propBudgetFor picks a propagation budget proportional to the latch
// count, per spec.md §4.4 ("proportional to the latch count"); the exact
// constant is an implementation choice since spec.md does not name one.
func propBudgetFor(numLatches int) int {
	if numLatches < 8 {
		return 32
	}
	return numLatches * 4
}

// NewImplySolver returns an empty ImplySolver sized for a circuit with
// numLatches latches. mom enables the MOMs-weighted assumption ordering.
func NewImplySolver(numLatches int, mom bool) *ImplySolver {
	return &ImplySolver{
		solver:  satsolver.New(),
		mom:     mom,
		budget:  propBudgetFor(numLatches),
		weights: make(map[int]float64),
	}
}

// AddUC permanently blocks cube in this level: solver gets the clause that
// is cube's negation, so no single state satisfying all of cube survives.
func (is *ImplySolver) AddUC(cube []int) {
	is.solver.AddCubeNegated(cube)
	is.counter++
	if is.mom && len(cube) <= 10 {
		w := 1.0/float64(uint64(1)<<uint(len(cube))) + float64(is.counter)/float64(uint64(1)<<20)
		for _, l := range cube {
			is.weights[-l] += w
		}
	}
}

// IsBlocked reports whether s's latch assignment is already subsumed by
// some previously added cube. UNSAT under the propagation budget means
// blocked; SAT or UNKNOWN (budget exhausted) conservatively means "not
// proven blocked" (spec.md §7, solver-exhausted case).
func (is *ImplySolver) IsBlocked(s *State) bool {
	assumption := append([]int(nil), s.Latches...)
	if is.mom {
		sort.Slice(assumption, func(i, j int) bool {
			return is.weights[assumption[i]] > is.weights[assumption[j]]
		})
	}
	is.solver.SetPropBudget(is.budget)
	return is.solver.SolveUnderAssumptions(assumption) == satsolver.Unsat
}

// ImplySolverSet is the per-level ImplySolver registry. spec.md §9 requires
// this live as a field of the search context, not as process-wide state;
// ImplySolverSet is exactly that field, owned and discarded by one
// CARSearch run.
type ImplySolverSet struct {
	byLevel      map[int]*ImplySolver
	numLatches   int
	mom          bool
	clauseCounts map[int]int
}

// NewImplySolverSet returns an empty registry.
func NewImplySolverSet(numLatches int, mom bool) *ImplySolverSet {
	return &ImplySolverSet{
		byLevel:      make(map[int]*ImplySolver),
		numLatches:   numLatches,
		mom:          mom,
		clauseCounts: make(map[int]int),
	}
}

func (set *ImplySolverSet) at(level int) *ImplySolver {
	is, ok := set.byLevel[level]
	if !ok {
		is = NewImplySolver(set.numLatches, set.mom)
		set.byLevel[level] = is
	}
	return is
}

// IsBlocked checks s against level's ImplySolver, allocating the level's
// solver lazily if this is its first use.
func (set *ImplySolverSet) IsBlocked(s *State, level int) bool {
	return set.at(level).IsBlocked(s)
}

// AddUC adds cube to level's ImplySolver and records the per-level clause
// count (spec.md §10, supplemented from implysolver.h's print_sz).
func (set *ImplySolverSet) AddUC(cube []int, level int) {
	set.at(level).AddUC(cube)
	set.clauseCounts[level]++
}

// ClauseCounts reports the number of cubes added per level, for
// the "implysolver clauses" entry of Search.Stats.
func (set *ImplySolverSet) ClauseCounts() map[int]int {
	out := make(map[int]int, len(set.clauseCounts))
	for k, v := range set.clauseCounts {
		out[k] = v
	}
	return out
}
