package car

import (
	"github.com/arcsat/car/internal/model"
	"github.com/arcsat/car/internal/satsolver"
)

// InvSolver detects whether the frame sequence has reached a fixed point:
// every state F_level allows is also allowed by F_{level+1}, i.e. no state
// consistent with F_level falls inside a cube blocked at F_{level+1}.
// Both sides of the comparison are plain current-state cubes — the
// transition relation was already consulted when a cube was first derived
// by CARSearch's generalization step, so InvSolver itself never primes a
// literal.
//
// Grounded on invsolver.h's andFlag/orFlag distinction:
//   - andFlag(level) guards "the current state is consistent with
//     F_level" — the negation of every blocked cube, conjoined (same
//     per-cube clause shape as MainSolver's frame flags).
//   - orFlag(level) guards "the state is excluded by F_level" — a
//     disjunction, one clauseFlag per cube, refreshed (a new orFlag +
//     clauseFlag list) every time a cube is added so the guarded clause
//     set can grow without retracting anything.
//
// Simplification versus invsolver.h: invsolver.h
// also maintains a single mutable assumption vector across calls and
// "deactivates" a stale orFlag by asserting its negation there; this
// package instead always builds the two-literal assumption fresh from the
// latest andFlags/orFlags maps, which is behaviorally equivalent and
// needs no persistent assumption-vector bookkeeping.
type InvSolver struct {
	solver *satsolver.Solver
	model  *model.Model

	andFlags      map[int]int
	orFlags       map[int]int
	orClauseFlags map[int][]int
}

// NewInvSolver builds an InvSolver sharing m's transition relation.
func NewInvSolver(m *model.Model) *InvSolver {
	s := satsolver.New()
	for i := 0; i < m.MaxID; i++ {
		s.NewVar()
	}
	for _, cl := range m.Clauses {
		s.AddClause(cl)
	}
	return &InvSolver{
		solver:        s,
		model:         m,
		andFlags:      make(map[int]int),
		orFlags:       make(map[int]int),
		orClauseFlags: make(map[int][]int),
	}
}

func (inv *InvSolver) andFlag(level int) int {
	f, ok := inv.andFlags[level]
	if !ok {
		f = inv.solver.NewVar()
		inv.andFlags[level] = f
	}
	return f
}

// AddUC records that cube was just added to F_level by CARSearch while
// working from a state discovered at stateLevel. Per spec.md §4.5: when
// level is exactly stateLevel+1 (the frame the state's own query just
// extended), the cube is folded into the andFlag conjunction; otherwise
// (it was also propagated further up, spec.md §4.6 step 2b) it goes into
// the orFlag disjunction for that level.
func (inv *InvSolver) AddUC(cube []int, level, stateLevel int) {
	if level == stateLevel+1 {
		inv.addAndCube(cube, level)
	} else {
		inv.addOrCube(cube, level)
	}
}

func (inv *InvSolver) addAndCube(cube []int, level int) {
	flag := inv.andFlag(level)
	clause := make([]int, 0, len(cube)+1)
	clause = append(clause, -flag)
	for _, l := range cube {
		clause = append(clause, -l)
	}
	inv.solver.AddClause(clause)
}

func (inv *InvSolver) addOrCube(cube []int, level int) {
	clauseFlag := inv.solver.NewVar()
	for _, l := range cube {
		inv.solver.AddClause([]int{-clauseFlag, l})
	}
	inv.orClauseFlags[level] = append(inv.orClauseFlags[level], clauseFlag)

	newFlag := inv.solver.NewVar()
	master := append([]int(nil), inv.orClauseFlags[level]...)
	master = append(master, -newFlag)
	inv.solver.AddClause(master)
	inv.orFlags[level] = newFlag
}

// CheckFixedPoint reports whether F_level is already contained in
// F_{level+1}: SAT under [andFlag(level), orFlag(level+1)] means some
// state allowed by F_level lies in a cube of F_{level+1} (no fixed point
// yet); UNSAT means the
// containment holds (spec.md §4.5's "SAT ⇒ no invariant yet, UNSAT ⇒
// invariant found", inverted here into a bool for caller convenience).
// If F_{level+1} has no cubes at all yet, containment holds vacuously
// (nothing is excluded there) and no SAT call is needed.
func (inv *InvSolver) CheckFixedPoint(level int) bool {
	orFlag, ok := inv.orFlags[level+1]
	if !ok {
		return true
	}
	flag := inv.andFlag(level)
	return inv.solver.SolveUnderAssumptions([]int{flag, orFlag}) == satsolver.Unsat
}
