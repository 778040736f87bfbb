// Package satsolver implements the SolverAdaptor: a uniform, incremental
// facade over a watched-literal DPLL search that supports assumptions, a
// sound (not necessarily minimal) unsat core over those assumptions, and a
// propagation budget for cheap "probably blocked" filtering.
//
// The watch-list/backtracking backbone is the teacher's (see
// github.com/cespare/saturday): literals are `2*var (+1 for negation)`,
// each clause watches two of its literals, and conflicts are resolved by
// chronologically flipping the most recent unflipped decision. What's new
// here, generalized from that backbone, is a persistent clause database
// that AddClause can extend between solves, a distinction between
// assumption decisions (pinned at the bottom of the decision stack, never
// flipped) and free decisions, and conflict-core extraction by walking the
// implication graph back from the final conflicting clause to whichever
// assumption decisions produced it.
package satsolver

import (
	"container/heap"
	"fmt"
	"sort"
)

// Result is the tri-state outcome of a solve call.
type Result int

const (
	Unsat Result = iota
	Sat
	Unknown
)

func (r Result) String() string {
	switch r {
	case Unsat:
		return "UNSAT"
	case Sat:
		return "SAT"
	default:
		return "UNKNOWN"
	}
}

// literal is the internal 2*var(+1) encoding; var is 0-indexed here, while
// every id crossing the package boundary is a 1-indexed signed int.
type literal uint32

func (l literal) assn() assnVal { return assnVal(l&1) + 1 }

type assnVal uint8

const (
	unassigned assnVal = 0
	assnTrue   assnVal = 1
	assnFalse  assnVal = 2
	// Bit 2 (value 4) marks a free decision that has already been tried
	// both ways; it is never set on an assumption decision.
	triedBothMask assnVal = 4
)

func (a assnVal) inv() assnVal { return a ^ 3 }

type clause struct {
	lits []literal
}

type decision struct {
	lit            literal
	implicationIdx int
	isAssumption   bool
}

// litHeap orders unassigned literals by current watch-list size, same as
// the teacher's decision-ordering heap.
type litHeap struct {
	watches [][]int
	lits    []litHeapItem
	m       map[literal]int
}

type litHeapItem struct {
	lit literal
	i   int
}

func (h *litHeap) Len() int { return len(h.lits) }
func (h *litHeap) Less(i, j int) bool {
	a, b := h.lits[i].lit, h.lits[j].lit
	return len(h.watches[a]) > len(h.watches[b])
}
func (h *litHeap) Swap(i, j int) {
	e0, e1 := h.lits[i], h.lits[j]
	e0.i, e1.i = j, i
	h.lits[i], h.lits[j] = e1, e0
	h.m[e0.lit], h.m[e1.lit] = j, i
}
func (h *litHeap) Push(x interface{}) {
	elt := x.(litHeapItem)
	elt.i = len(h.lits)
	h.m[elt.lit] = elt.i
	h.lits = append(h.lits, elt)
}
func (h *litHeap) Pop() interface{} {
	elt := h.lits[len(h.lits)-1]
	h.lits = h.lits[:len(h.lits)-1]
	delete(h.m, elt.lit)
	return elt
}

// Solver is the SolverAdaptor. The zero value is ready to use.
type Solver struct {
	numVars int
	clauses []clause
	watches [][]int // len 2*numVars
	units   []literal
	unsat   bool // a permanent (assumption-independent) contradiction was added

	// Per-call state, reset at the start of every SolveUnderAssumptions.
	assigns        []assnVal
	reason         []int32 // -1 decision, -2 permanent unit, >=0 clause index
	decisionOfVar  []int32 // -1 if not a decision var this call
	decisions      []decision
	implications   []literal
	propIndex      int
	unassigned     litHeap
	conflictClause int // -1 if the final conflict had no single clause (assumption/unit clash)

	propBudget int
	propUsed   int
	budgetHit  bool

	lastModel []int
	lastCore  []int

	numDecisions    int64
	numImplications int64
}

// New returns a ready-to-use Solver with no variables or clauses.
func New() *Solver { return &Solver{} }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func toLit(id int) literal {
	v := uint32(abs(id) - 1)
	l := literal(v) << 1
	if id < 0 {
		l |= 1
	}
	return l
}

func fromLit(l literal) int {
	v := int(l>>1) + 1
	if l&1 == 1 {
		return -v
	}
	return v
}

// NewVar allocates a fresh variable and returns its id. Ids are strictly
// increasing, matching spec.md's activation-literal allocation discipline.
func (s *Solver) NewVar() int {
	s.numVars++
	s.growWatches()
	return s.numVars
}

func (s *Solver) growWatches() {
	want := 2 * s.numVars
	for len(s.watches) < want {
		s.watches = append(s.watches, nil)
	}
}

func (s *Solver) ensureVar(id int) {
	v := abs(id)
	if v > s.numVars {
		s.numVars = v
		s.growWatches()
	}
}

// AddClause adds a clause (a disjunction of signed ints) to the permanent
// clause database. It may be called at any time, including between solves;
// clauses are never removed (callers wanting removable clauses guard them
// with an activation literal, per spec.md §9).
func (s *Solver) AddClause(lits []int) {
	if len(lits) == 0 {
		s.unsat = true
		return
	}
	seen := make(map[literal]bool, len(lits))
	cl := make([]literal, 0, len(lits))
	tautology := false
	for _, id := range lits {
		if id == 0 {
			panic("satsolver: clause contains literal 0")
		}
		s.ensureVar(id)
		l := toLit(id)
		if seen[l^1] {
			tautology = true
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		cl = append(cl, l)
	}
	if tautology {
		return
	}
	if len(cl) == 1 {
		s.units = append(s.units, cl[0])
		return
	}
	idx := len(s.clauses)
	s.clauses = append(s.clauses, clause{lits: cl})
	s.watches[cl[0]] = append(s.watches[cl[0]], idx)
	s.watches[cl[1]] = append(s.watches[cl[1]], idx)
}

// AddCube adds each literal of cu as its own unit clause (the conjunction).
func (s *Solver) AddCube(cu []int) {
	for _, l := range cu {
		s.AddClause([]int{l})
	}
}

// AddCubeNegated adds the clause that is the negation of cube cu (i.e.
// blocks cu from ever being satisfied again).
func (s *Solver) AddCubeNegated(cu []int) {
	neg := make([]int, len(cu))
	for i, l := range cu {
		neg[i] = -l
	}
	s.AddClause(neg)
}

// SetPropBudget bounds the number of unit-propagation steps the next solve
// may perform before giving up and returning Unknown. A budget <= 0 means
// unlimited.
func (s *Solver) SetPropBudget(n int) { s.propBudget = n }

// NumVars reports how many variables have been allocated.
func (s *Solver) NumVars() int { return s.numVars }

func (s *Solver) resetCall() {
	n := s.numVars
	if cap(s.assigns) >= n {
		s.assigns = s.assigns[:n]
		for i := range s.assigns {
			s.assigns[i] = unassigned
		}
	} else {
		s.assigns = make([]assnVal, n)
	}
	if cap(s.reason) >= n {
		s.reason = s.reason[:n]
	} else {
		s.reason = make([]int32, n)
	}
	for i := range s.reason {
		s.reason[i] = -1
	}
	if cap(s.decisionOfVar) >= n {
		s.decisionOfVar = s.decisionOfVar[:n]
	} else {
		s.decisionOfVar = make([]int32, n)
	}
	for i := range s.decisionOfVar {
		s.decisionOfVar[i] = -1
	}
	s.decisions = s.decisions[:0]
	s.implications = s.implications[:0]
	s.propIndex = 0
	s.conflictClause = -1
	s.propUsed = 0
	s.budgetHit = false
	s.lastModel = nil
	s.lastCore = nil

	s.unassigned = litHeap{watches: s.watches, m: make(map[literal]int)}
	for lit := 0; lit < len(s.watches); lit++ {
		if len(s.watches[lit]) > 0 {
			v := literal(lit) >> 1
			if s.assigns[v] == unassigned {
				s.pushUnassignedIfAbsent(literal(lit))
			}
		}
	}
}

func (s *Solver) pushUnassignedIfAbsent(lit literal) {
	if _, ok := s.unassigned.m[lit]; ok {
		return
	}
	if _, ok := s.unassigned.m[lit^1]; ok {
		return
	}
	heap.Push(&s.unassigned, litHeapItem{lit: lit})
}

// SolveUnderAssumptions decides the clause database conjoined with
// assumptions (a cube of signed ints). On Sat, Model reflects a satisfying
// assignment. On Unsat, Conflict returns a sound subset of assumptions
// whose conjunction is already inconsistent with the clause database.
func (s *Solver) SolveUnderAssumptions(assumptions []int) Result {
	// Grow the variable set before resetCall sizes the per-call arrays.
	for _, id := range assumptions {
		s.ensureVar(id)
	}
	s.resetCall()

	if s.unsat {
		s.lastCore = append([]int(nil), assumptions...)
		return Unsat
	}

	// Force permanent unit facts first.
	for _, ul := range s.units {
		v := ul >> 1
		switch s.assigns[v] {
		case unassigned:
			s.assigns[v] = ul.assn()
			s.reason[v] = -2
			s.implications = append(s.implications, ul)
			s.deleteUnassigned(ul)
		case ul.assn():
			// already consistent
		default:
			s.conflictClause = -1
			s.lastCore = append([]int(nil), assumptions...)
			return Unsat
		}
	}

	for _, id := range assumptions {
		if id == 0 {
			panic("satsolver: assumption literal 0")
		}
		s.ensureVar(id)
		a := toLit(id)
		v := a >> 1
		switch s.assigns[v] {
		case unassigned:
			s.assigns[v] = a.assn()
			s.reason[v] = -1
			s.decisionOfVar[v] = int32(len(s.decisions))
			s.decisions = append(s.decisions, decision{lit: a, implicationIdx: len(s.implications), isAssumption: true})
			s.implications = append(s.implications, a)
			s.deleteUnassigned(a)
		case a.assn():
			// already forced true by an earlier unit/assumption.
		default:
			s.conflictClause = -1
			s.lastCore = append([]int(nil), assumptions...)
			return Unsat
		}
	}

	for {
		ok := s.bcp()
		if s.budgetHit {
			return Unknown
		}
		if ok {
			break
		}
		if !s.resolveConflict() {
			s.lastCore = s.computeCore(assumptions)
			return Unsat
		}
	}

	for {
		lit, ok := s.popUnassigned()
		if !ok {
			s.lastModel = s.buildModel()
			return Sat
		}
		s.deleteUnassigned(lit ^ 1)
		v := lit >> 1
		if s.assigns[v]&3 != unassigned {
			continue // already fixed by an assumption or propagation
		}
		s.assigns[v] = lit.assn()
		s.reason[v] = -1
		s.decisionOfVar[v] = int32(len(s.decisions))
		s.numDecisions++
		s.decisions = append(s.decisions, decision{lit: lit, implicationIdx: len(s.implications)})
		s.implications = append(s.implications, lit)

		for {
			ok := s.bcp()
			if s.budgetHit {
				return Unknown
			}
			if ok {
				break
			}
			if !s.resolveConflict() {
				s.lastCore = s.computeCore(assumptions)
				return Unsat
			}
		}
	}
}

func (s *Solver) buildModel() []int {
	res := make([]int, s.numVars)
	for v := 0; v < s.numVars; v++ {
		if s.assigns[v]&3 == assnTrue {
			res[v] = v + 1
		} else {
			res[v] = -(v + 1)
		}
	}
	return res
}

// Model returns the full assignment found by the most recent Sat solve.
func (s *Solver) Model() []int { return append([]int(nil), s.lastModel...) }

// Conflict returns the unsat core (over the assumptions) computed by the
// most recent Unsat solve.
func (s *Solver) Conflict() []int { return append([]int(nil), s.lastCore...) }

func (s *Solver) popUnassigned() (literal, bool) {
	if len(s.unassigned.lits) == 0 {
		return 0, false
	}
	e := heap.Pop(&s.unassigned).(litHeapItem)
	return e.lit, true
}

func (s *Solver) deleteUnassigned(lit literal) {
	if i, ok := s.unassigned.m[lit]; ok {
		heap.Remove(&s.unassigned, i)
	}
}

func (s *Solver) updateUnassigned(lit literal) {
	if i, ok := s.unassigned.m[lit]; ok {
		heap.Fix(&s.unassigned, i)
	} else if _, ok := s.unassigned.m[lit^1]; !ok {
		heap.Push(&s.unassigned, litHeapItem{lit: lit})
	}
}

// bcp performs unit propagation. It returns false on a conflict (with
// conflictClause set) and stops early (returning true) if the propagation
// budget is exhausted, setting budgetHit.
func (s *Solver) bcp() bool {
	for {
		imps := s.implications[s.propIndex:]
		if len(imps) == 0 {
			return true
		}
		s.propIndex = len(s.implications)
		for _, impliedLit := range imps {
			neg := impliedLit ^ 1
			watches := s.watches[neg]
		watchesLoop:
			for i := 0; i < len(watches); {
				clauseIdx := watches[i]
				cl := s.clauses[clauseIdx]
				if cl.lits[0] == neg {
					cl.lits[0], cl.lits[1] = cl.lits[1], cl.lits[0]
				} else if cl.lits[1] != neg {
					panic("satsolver: bad watch state")
				}
				lit0 := cl.lits[0]
				if s.assigns[lit0>>1]&3 == lit0.assn() {
					i++
					continue
				}
				found := false
				for j := 2; j < len(cl.lits); j++ {
					lit := cl.lits[j]
					assn := s.assigns[lit>>1] & 3
					if assn == lit.assn().inv() {
						continue
					}
					s.watches[lit] = append(s.watches[lit], clauseIdx)
					if assn == unassigned {
						s.updateUnassigned(lit)
					}
					watches[i], watches[len(watches)-1] = watches[len(watches)-1], watches[i]
					watches = watches[:len(watches)-1]
					s.watches[neg] = watches
					cl.lits[1], cl.lits[j] = cl.lits[j], cl.lits[1]
					found = true
					break
				}
				if found {
					continue watchesLoop
				}
				i++
				otherWatch := cl.lits[0]
				v := int(otherWatch >> 1)
				if s.assigns[v] != unassigned {
					s.conflictClause = clauseIdx
					return false
				}
				s.assigns[v] = otherWatch.assn()
				s.reason[v] = int32(clauseIdx)
				s.deleteUnassigned(otherWatch)
				s.numImplications++
				s.implications = append(s.implications, otherWatch)

				if s.propBudget > 0 {
					s.propUsed++
					if s.propUsed >= s.propBudget {
						s.budgetHit = true
						return true
					}
				}
			}
		}
	}
}

// resolveConflict flips the most recently made flippable (non-assumption)
// decision and rolls back everything implied above it. It returns false
// when no flippable decision remains, meaning the formula is unsat under
// the current assumptions.
func (s *Solver) resolveConflict() bool {
	di := -1
	var d decision
	for i := len(s.decisions) - 1; i >= 0; i-- {
		cand := s.decisions[i]
		if cand.isAssumption {
			continue
		}
		if s.assigns[cand.lit>>1]&triedBothMask == 0 {
			di = i
			d = cand
			break
		}
	}
	if di == -1 {
		return false
	}
	for i := len(s.implications) - 1; i > d.implicationIdx; i-- {
		lit := s.implications[i]
		v := lit >> 1
		s.pushUnassignedIfAbsent(lit)
		s.assigns[v] = unassigned
		s.reason[v] = -1
		s.decisionOfVar[v] = -1
	}
	s.implications = s.implications[:d.implicationIdx+1]
	s.implications[len(s.implications)-1] ^= 1
	s.decisions = s.decisions[:di+1]
	s.decisions[di].lit ^= 1
	s.assigns[d.lit>>1] ^= (assnTrue ^ assnFalse) | triedBothMask
	s.propIndex = d.implicationIdx
	return true
}

// computeCore walks the implication graph back from the final conflicting
// clause to the assumption decisions that produced it. If the walk reaches
// a free (non-assumption) decision, or the conflict had no single
// originating clause, it conservatively falls back to the full assumption
// set, which is always a sound (if not minimal) core.
func (s *Solver) computeCore(assumptions []int) []int {
	if s.conflictClause < 0 {
		return append([]int(nil), assumptions...)
	}
	visited := make([]bool, s.numVars)
	queue := append([]literal(nil), s.clauses[s.conflictClause].lits...)
	core := make(map[int]bool)
	for len(queue) > 0 {
		l := queue[0]
		queue = queue[1:]
		v := int(l >> 1)
		if visited[v] {
			continue
		}
		visited[v] = true
		switch r := s.reason[v]; {
		case r == -2:
			// permanent fact, independent of assumptions.
		case r == -1:
			di := s.decisionOfVar[v]
			if di < 0 || !s.decisions[di].isAssumption {
				return append([]int(nil), assumptions...)
			}
			core[fromLit(s.decisions[di].lit)] = true
		default:
			for _, rl := range s.clauses[r].lits {
				rv := int(rl >> 1)
				if !visited[rv] {
					queue = append(queue, rl)
				}
			}
		}
	}
	res := make([]int, 0, len(core))
	for l := range core {
		res = append(res, l)
	}
	sort.Slice(res, func(i, j int) bool { return abs(res[i]) < abs(res[j]) })
	return res
}

// Stats are informational counters, in the spirit of the teacher's
// saturday.Solve stats map.
func (s *Solver) Stats() map[string]interface{} {
	return map[string]interface{}{
		"num decisions":    s.numDecisions,
		"num implications": s.numImplications,
	}
}

func (s *Solver) String() string {
	return fmt.Sprintf("satsolver.Solver{vars=%d, clauses=%d, units=%d}", s.numVars, len(s.clauses), len(s.units))
}
