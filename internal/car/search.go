package car

import (
	"github.com/arcsat/car/internal/model"
	"github.com/arcsat/car/internal/satsolver"
)

// Status is the three-way verdict CARSearch.Run can reach.
type Status int

const (
	Unknown Status = iota
	Safe
	Unsafe
)

func (s Status) String() string {
	switch s {
	case Safe:
		return "SAFE"
	case Unsafe:
		return "UNSAFE"
	default:
		return "UNKNOWN"
	}
}

// Verdict is the single well-formed result CARSearch.Run produces
// (spec.md §7: "no partial-state leakage" — exactly one of Invariant or
// Trace is populated, matching Status).
type Verdict struct {
	Status Status

	// Invariant holds the inductive frame's cubes on Safe.
	Invariant [][]int

	// Trace holds one input vector per transition step on Unsafe.
	Trace [][]int

	// Terminal is the final reached State (spec.md §10 supplement: the
	// original reference keeps this available for trace reconstruction;
	// exposed here additively alongside Trace, not instead of it).
	Terminal *State

	Stats map[string]interface{}
}

// Search is the CARSearch engine (spec.md §4.6): it owns one sequence of
// frames, the MainSolver/ImplySolverSet/InvSolver/StatePool that frame
// maintains, and drives the root-selection / expansion / invariant-check /
// level-extension loop to a single Verdict.
//
// Outer-loop bookkeeping here is a deliberate simplification of the
// original's multi-root, explicit-all-candidates-blocked bookkeeping
// (recorded in DESIGN.md): rather than re-deriving a list of "all root
// candidates" at a level, Search tracks one active proof obligation at a
// time, which is sufficient because each generalized blocking cube
// subsumes every state it implies, not just the literal one checked, the
// same coverage argument the original relies on.
type Search struct {
	model  *model.Model
	main   *MainSolver
	imply  *ImplySolverSet
	inv    *InvSolver
	pool   *StatePool
	tries  map[int]*Trie

	badLit int
	rotate bool

	frameCubes        map[int][][]int
	maxLevel          int
	numUC             int
	rootVacuouslySafe bool

	ucHistory map[int][]int // by State.ID(), for the rotation heuristic
}

// NewSearch builds a Search over m, targeting the assertion of badLit (a
// signed output literal). mom enables the MOMs-weighted ImplySolver
// variant; rotate enables the prior-UC-literal rotation heuristic
// (spec.md §10).
func NewSearch(m *model.Model, badLit int, rotate, mom bool) *Search {
	return &Search{
		model:      m,
		main:       NewMainSolver(m),
		imply:      NewImplySolverSet(m.NumLatches, mom),
		inv:        NewInvSolver(m),
		pool:       NewStatePool(),
		tries:      make(map[int]*Trie),
		badLit:     badLit,
		rotate:     rotate,
		frameCubes: make(map[int][][]int),
		ucHistory:  make(map[int][]int),
	}
}

func (cs *Search) trieAt(level int) *Trie {
	t, ok := cs.tries[level]
	if !ok {
		t = NewTrie()
		cs.tries[level] = t
	}
	return t
}

// Run executes the main loop (spec.md §4.6) to completion.
func (cs *Search) Run() Verdict {
	root, ok := cs.main.SolveBad(cs.pool, cs.badLit)
	if !ok {
		cs.rootVacuouslySafe = true
		return Verdict{Status: Safe, Stats: cs.Stats()}
	}

	depth := 0
	for {
		if root.Intersect(cs.model.Init) {
			return Verdict{Status: Unsafe, Trace: root.Trace(), Terminal: root, Stats: cs.Stats()}
		}
		v, outcome, next := cs.expand(root, depth)
		switch outcome {
		case outcomeDone:
			return v
		case outcomeBottomedOut:
			root = next
			depth++
		case outcomeBlocked:
			depth++
		}
	}
}

type expandOutcome int

const (
	outcomeBlocked expandOutcome = iota
	outcomeBottomedOut
	outcomeDone
)

// expand is the recursive step of CARSearch's expansion (spec.md §4.6 step
// 2): check subsumption, then query MainSolver at level. A Sat result
// either closes the search (the predecessor intersects Init) or recurses
// one level down; an Unsat result generalizes and records a new blocking
// cube, checking InvSolver for a fixed point before returning.
func (cs *Search) expand(s *State, level int) (Verdict, expandOutcome, *State) {
	if cs.imply.IsBlocked(s, level) || cs.trieAt(level).Search(s.Latches) {
		return Verdict{}, outcomeBlocked, nil
	}

	res, pred, cube, err := cs.main.SolveRelative(cs.pool, s, level, cs.rotationOrder(s))
	invariantf(err == nil, "car: SolveRelative: %v", err)

	switch res {
	case satsolver.Sat:
		if pred.Intersect(cs.model.Init) {
			return Verdict{Status: Unsafe, Trace: pred.Trace(), Terminal: pred, Stats: cs.Stats()}, outcomeDone, nil
		}
		if level == 0 {
			return Verdict{}, outcomeBottomedOut, pred
		}
		return cs.expand(pred, level-1)
	case satsolver.Unsat:
		c := cs.generalize(cube, level)
		cs.recordUC(s, c)
		cs.numUC++
		cs.addCubeUpward(c, level+1, level)
		if cs.inv.CheckFixedPoint(level) {
			return Verdict{Status: Safe, Invariant: cs.frameCubes[level+1], Stats: cs.Stats()}, outcomeDone, nil
		}
		return Verdict{}, outcomeBlocked, nil
	default:
		return Verdict{Status: Unknown, Stats: cs.Stats()}, outcomeDone, nil
	}
}

// generalize drops literals from c one at a time as long as the shrunk
// cube still has no predecessor at level, per spec.md §4.6 step 2b. After
// a successful drop the literal that moved into the dropped one's position
// is tried next; earlier literals are not re-tested.
func (cs *Search) generalize(c []int, level int) []int {
	cube := append([]int(nil), c...)
	sortCube(cube)
	for i := 0; i < len(cube); {
		if len(cube) == 1 {
			break // never generalize away the last literal
		}
		trial := make([]int, 0, len(cube)-1)
		trial = append(trial, cube[:i]...)
		trial = append(trial, cube[i+1:]...)
		if cs.main.probeUnsat(trial, level) {
			cube = trial
			continue
		}
		i++
	}
	return cube
}

// addCubeUpward adds c to frame startLevel and propagates it to every
// higher, already-existing frame where it still blocks (spec.md §4.6 step
// 2b, "for each level m > n+1" read over the current frame sequence).
// Propagation stops at cs.maxLevel+1 (or at startLevel itself when that
// lies higher, so c always lands in startLevel): frames beyond that don't exist yet,
// and a cube whose primed projection is unsatisfiable against the model's
// clauses alone (independent of any frame) would otherwise make
// probeUnsat report "still blocks" forever, growing the frame sequence
// without bound. New frames are only ever created by Run/expand's depth
// loop.
func (cs *Search) addCubeUpward(c []int, startLevel, stateLevel int) {
	limit := cs.maxLevel + 1
	if startLevel > limit {
		limit = startLevel
	}
	for level := startLevel; level <= limit; level++ {
		if cs.trieAt(level).Search(c) {
			return
		}
		cs.main.AddClauseFromCube(c, level)
		cs.imply.AddUC(c, level)
		cs.trieAt(level).Insert(c)
		cs.inv.AddUC(c, level, stateLevel)
		cs.frameCubes[level] = append(cs.frameCubes[level], c)
		if level > cs.maxLevel {
			cs.maxLevel = level
		}
		if level == limit || !cs.main.probeUnsat(c, level+1) {
			return
		}
	}
}

func (cs *Search) recordUC(s *State, c []int) {
	if !cs.rotate {
		return
	}
	primed, err := cs.main.primeCube(c)
	if err != nil {
		return
	}
	cs.ucHistory[s.id] = primed
}

func (cs *Search) rotationOrder(s *State) RotationOrder {
	if !cs.rotate {
		return nil
	}
	prefer := cs.ucHistory[s.id]
	if len(prefer) == 0 {
		return nil
	}
	preferSet := make(map[int]bool, len(prefer))
	for _, l := range prefer {
		preferSet[l] = true
	}
	return func(cube []int) []int {
		out := make([]int, 0, len(cube))
		var rest []int
		for _, l := range cube {
			if preferSet[l] {
				out = append(out, l)
			} else {
				rest = append(rest, l)
			}
		}
		return append(out, rest...)
	}
}

// Stats reports search progress counters, in the spirit of the teacher's
// saturday.Solve informational stats map (spec.md §10 supplement).
func (cs *Search) Stats() map[string]interface{} {
	out := cs.main.SolverStats()
	out["num frames"] = cs.maxLevel + 1
	out["num states"] = cs.pool.nextID
	out["num uc"] = cs.numUC
	out["implysolver clauses"] = cs.imply.ClauseCounts()
	out["root vacuously safe"] = cs.rootVacuouslySafe
	return out
}
