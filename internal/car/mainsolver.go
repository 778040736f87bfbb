package car

import (
	"errors"

	"github.com/arcsat/car/internal/model"
	"github.com/arcsat/car/internal/satsolver"
)

// MainSolver is the frame-multiplexed reachability query solver (spec.md
// §4.3), grounded on mainsolver.h: a single long-lived SolverAdaptor loaded
// once with the Model's clauses, plus one activation literal per frame
// level, allocated lazily the way mainsolver.h's flag_of does.
//
// Resolution of an ambiguity spec.md leaves in English: "assumptions =
// [flag(O,k), literals of candidate state s]" is the *primed* projection of
// s's latch cube, not s's literals verbatim — the unknowns MainSolver's
// clause set solves for are a candidate predecessor's current-latch values,
// and Model.Prime is exactly the hook that relates them to s's values one
// step later. A SAT result is read back off the current-latch/ input
// variables (the predecessor); an UNSAT conflict is over the primed
// literals and is mapped back to current-latch space with
// Model.ShrinkToPreviousVars before being returned as a blocking cube.
type MainSolver struct {
	solver *satsolver.Solver
	model  *model.Model
	flags  []int // flags[k] is the activation literal for frame level k

	lastAssumption []int // set after every SolveRelative call, for GetAnotherUC
}

// NewMainSolver builds a MainSolver over m's CNF, pre-allocating exactly
// m.MaxID variables so the solver's internal numbering matches Model's.
func NewMainSolver(m *model.Model) *MainSolver {
	s := satsolver.New()
	for i := 0; i < m.MaxID; i++ {
		s.NewVar()
	}
	for _, cl := range m.Clauses {
		s.AddClause(cl)
	}
	return &MainSolver{solver: s, model: m}
}

// Flag returns the activation literal for frame level, allocating it on
// first use.
func (ms *MainSolver) Flag(level int) int {
	for len(ms.flags) <= level {
		ms.flags = append(ms.flags, ms.solver.NewVar())
	}
	return ms.flags[level]
}

// AddClauseFromCube adds cube cu to frame level: the clause
// (¬flag(level) ∨ ¬cu[0] ∨ ¬cu[1] ∨ …), the negation of cu guarded by the
// frame's activation literal (spec.md §4.3).
func (ms *MainSolver) AddClauseFromCube(cu []int, level int) {
	flag := ms.Flag(level)
	clause := make([]int, 0, len(cu)+1)
	clause = append(clause, -flag)
	for _, l := range cu {
		clause = append(clause, -l)
	}
	ms.solver.AddClause(clause)
}

// AddNewFrame adds every cube of frame to level.
func (ms *MainSolver) AddNewFrame(frame [][]int, level int) {
	for _, cu := range frame {
		ms.AddClauseFromCube(cu, level)
	}
}

func (ms *MainSolver) primeCube(latches []int) ([]int, error) {
	out := make([]int, len(latches))
	for i, l := range latches {
		p, err := ms.model.Prime(l)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// extractState reads the full model off the most recent SAT solve,
// returning the input and current-latch literals as sorted cubes.
func (ms *MainSolver) extractState() (inputs, latches []int) {
	full := ms.solver.Model()
	for v := 1; v <= ms.model.NumInputs; v++ {
		inputs = append(inputs, full[v-1])
	}
	for v := ms.model.NumInputs + 1; v <= ms.model.NumInputs+ms.model.NumLatches; v++ {
		latches = append(latches, full[v-1])
	}
	sortCube(inputs)
	sortCube(latches)
	return inputs, latches
}

// SolveBad produces a root candidate: a (inputs, latches) assignment under
// which badLit (the signed bad-output literal) holds together with every
// model constraint (spec.md §4.6 step 1, "root selection"). It returns
// ok == false if no such assignment exists, meaning the property is
// vacuously SAFE.
func (ms *MainSolver) SolveBad(pool *StatePool, badLit int) (*State, bool) {
	assumptions := make([]int, 0, 1+len(ms.model.Constraints))
	assumptions = append(assumptions, badLit)
	assumptions = append(assumptions, ms.model.Constraints...)
	if ms.solver.SolveUnderAssumptions(assumptions) != satsolver.Sat {
		return nil, false
	}
	inputs, latches := ms.extractState()
	return pool.New(inputs, latches, nil), true
}

// RotationOrder returns a reordered copy of a cube's tail for the
// assumption-ordering heuristic spec.md §4.3 leaves caller-supplied:
// literals decisive in a prior UC for the same state float to the front. nil is a no-op (the
// identity order).
type RotationOrder func(cube []int) []int

// SolveRelative asks: under frame level, does s have a predecessor? It is
// the core step of CARSearch's expansion (spec.md §4.6 step 2b).
//
//   - Sat: a fresh predecessor State is returned, parented to s.
//   - Unsat: a blocking cube over current-latch literals is returned,
//     obtained by mapping the conflict's primed literals back with
//     Model.ShrinkToPreviousVars.
//   - Unknown: never produced here (SolveRelative never sets a propagation
//     budget); included only so callers share one Result type with
//     ImplySolver.
func (ms *MainSolver) SolveRelative(pool *StatePool, s *State, level int, order RotationOrder) (satsolver.Result, *State, []int, error) {
	primed, err := ms.primeCube(s.Latches)
	if err != nil {
		return satsolver.Unsat, nil, nil, err
	}
	if order != nil {
		primed = order(primed)
	}
	flag := ms.Flag(level)
	assumptions := make([]int, 0, 1+len(primed))
	assumptions = append(assumptions, flag)
	assumptions = append(assumptions, primed...)
	ms.lastAssumption = assumptions

	switch ms.solver.SolveUnderAssumptions(assumptions) {
	case satsolver.Sat:
		inputs, latches := ms.extractState()
		return satsolver.Sat, pool.New(inputs, latches, s), nil, nil
	case satsolver.Unsat:
		cube := ms.shrinkConflictToPredecessorCube(flag)
		return satsolver.Unsat, nil, cube, nil
	default:
		return satsolver.Unknown, nil, nil, nil
	}
}

// probeUnsat checks, without allocating a State, whether cube (treated as a
// stand-in for a candidate's current-latch literals) has no predecessor at
// level — the same underlying query as SolveRelative, used by generalization
// and frame propagation to test a shrunk or borrowed cube without needing a
// live State to attach the result to.
func (ms *MainSolver) probeUnsat(cube []int, level int) bool {
	primed, err := ms.primeCube(cube)
	if err != nil {
		return false
	}
	flag := ms.Flag(level)
	assumptions := make([]int, 0, 1+len(primed))
	assumptions = append(assumptions, flag)
	assumptions = append(assumptions, primed...)
	return ms.solver.SolveUnderAssumptions(assumptions) == satsolver.Unsat
}

func (ms *MainSolver) shrinkConflictToPredecessorCube(flag int) []int {
	uc := dropLit(ms.solver.Conflict(), flag)
	cube := ms.model.ShrinkToPreviousVars(uc)
	sortCube(cube)
	return cube
}

// SolverStats exposes the underlying SolverAdaptor's decision/implication
// counters, for car.Search.Stats (spec.md §8).
func (ms *MainSolver) SolverStats() map[string]interface{} {
	return ms.solver.Stats()
}

// GetAnotherUC reverses the tail (everything after the frame flag) of the
// most recently solved assumption vector and re-solves, returning a second,
// often-disjoint blocking cube. Grounded on carsolver.cpp's
// get_uc_another(): only the reversal contract is implemented, not the
// alternative "clever" incremental-bookkeeping method carsolver.cpp itself
// leaves commented out.
func (ms *MainSolver) GetAnotherUC() ([]int, error) {
	if len(ms.lastAssumption) < 2 {
		return nil, errors.New("car: GetAnotherUC: no relative query has been solved yet")
	}
	a := append([]int(nil), ms.lastAssumption...)
	reverseTail(a)
	if ms.solver.SolveUnderAssumptions(a) != satsolver.Unsat {
		return nil, nil
	}
	cube := ms.shrinkConflictToPredecessorCube(a[0])
	return cube, nil
}

// ShrinkModel restricts a full variable assignment to its current-latch
// literals, sorted. Grounded on invsolver.h's shrink_model, folded in here
// per invsolver.h's own "// FIXME: merge them with MainSolver" comment
// instead of duplicating the logic in InvSolver.
func (ms *MainSolver) ShrinkModel(assignment []int) []int {
	out := make([]int, 0, ms.model.NumLatches)
	for _, v := range assignment {
		if ms.model.IsLatchVar(v) {
			out = append(out, v)
		}
	}
	sortCube(out)
	return out
}

// GetState builds a State from the most recent SAT solve's model, shrunk to
// (inputs, latches), parented to parent. Grounded on invsolver.h's
// get_state, folded into MainSolver for the same reason as ShrinkModel.
func (ms *MainSolver) GetState(pool *StatePool, parent *State) *State {
	inputs, latches := ms.extractState()
	return pool.New(inputs, latches, parent)
}

func dropLit(cube []int, lit int) []int {
	out := cube[:0:0]
	for _, l := range cube {
		if l != lit {
			out = append(out, l)
		}
	}
	return out
}

// reverseTail reverses a[1:] in place (a[0] is always the frame flag,
// pinned first and left untouched).
func reverseTail(a []int) {
	for i, j := 1, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}
