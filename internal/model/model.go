// Package model translates a parsed AIG into the CNF transition relation
// CARSearch reasons about, plus the bookkeeping (next-state maps, the
// initial cube, the housekeeping flags) the search needs to interpret that
// CNF. Every variable in the produced clauses is a signed int: positive
// var ids 1..NumInputs are primary inputs, NumInputs+1..NumInputs+NumLatches
// are current-state latches, and everything above that is either a gate
// wire, TrueID/FalseID, or one of the shared-next/init housekeeping
// variables (Flag1, Flag2, and a spare variable when no latches share a
// next).
package model

import (
	"fmt"
	"sort"

	"github.com/arcsat/car/internal/aig"
)

// Model is the CNF-encoded transition relation of one AIG.
type Model struct {
	NumInputs      int
	NumLatches     int
	NumAnds        int
	NumConstraints int
	NumOutputs     int

	MaxID   int
	TrueID  int
	FalseID int
	Flag1   int // asserted: all latches sharing a next must agree (ordinary transition)
	Flag2   int // asserted: every latch holds its reset value (initial state)

	Clauses [][]int
	Init    []int // the initial-state cube, by reset value
	Outputs []int // signed var per output, constant-folded to TrueID/FalseID where possible
	Constraints []int

	nextOf    map[int]int
	reverseOf map[int][]int
}

// New builds the CNF transition relation for a, following spec.md §4.1 and
// the teacher-original five-phase construction (constant propagation, a
// dead-cone gate walk seeded from constraints/outputs/latch-next literals,
// Tseitin gate clauses, shared-next/init encoding, TRUE/FALSE unit
// clauses). It returns an error instead of aborting the process on a
// malformed AIG (bad latch numbering, a latch reset outside {0,1}).
func New(a *aig.AIG) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		NumInputs:      a.NumInputs,
		NumLatches:     a.NumLatches,
		NumAnds:        a.NumAnds,
		NumConstraints: a.NumConstraints,
		NumOutputs:     a.NumOutputs,
		nextOf:         make(map[int]int, a.NumLatches),
		reverseOf:      make(map[int][]int, a.NumLatches),
	}
	m.MaxID = int(a.MaxVar) + 2
	m.TrueID = m.MaxID - 1
	m.FalseID = m.MaxID

	andByLhs := make(map[aig.Literal]*aig.And, len(a.Ands))
	for i := range a.Ands {
		andByLhs[a.Ands[i].Lhs] = &a.Ands[i]
	}

	trueLits := map[aig.Literal]bool{1: true}
	isTrue := func(l aig.Literal) bool { return l == 1 || trueLits[l] }
	isFalse := func(l aig.Literal) bool { return l == 0 || trueLits[l^1] }
	for _, g := range a.Ands {
		switch {
		case isTrue(g.Rhs0) && isTrue(g.Rhs1):
			trueLits[g.Lhs] = true
		case isFalse(g.Rhs0) || isFalse(g.Rhs1):
			trueLits[g.Lhs^1] = true
		case g.Rhs0^1 == g.Rhs1:
			trueLits[g.Lhs^1] = true
		}
	}

	carVar := func(l aig.Literal) int {
		v := int(l.Var())
		if l.Negated() {
			return -v
		}
		return v
	}
	foldConst := func(l aig.Literal) int {
		switch {
		case isTrue(l):
			return m.TrueID
		case isFalse(l):
			return m.FalseID
		default:
			return carVar(l)
		}
	}

	necessaryGate := func(l aig.Literal) *aig.And {
		if l.IsConstant() {
			return nil
		}
		lhs := l &^ 1
		return andByLhs[lhs]
	}

	visited := make(map[aig.Literal]bool, a.NumAnds)
	var order []aig.Literal
	var recurse func(aa *aig.And)
	recurse = func(aa *aig.And) {
		if aa == nil || visited[aa.Lhs] {
			return
		}
		visited[aa.Lhs] = true
		order = append(order, aa.Lhs)
		recurse(necessaryGate(aa.Rhs0))
		recurse(necessaryGate(aa.Rhs1))
	}

	addGateClauses := func(aa *aig.And) {
		lhs := carVar(aa.Lhs)
		switch {
		case isTrue(aa.Rhs0):
			r := carVar(aa.Rhs1)
			m.Clauses = append(m.Clauses, []int{lhs, -r}, []int{-lhs, r})
		case isTrue(aa.Rhs1):
			r := carVar(aa.Rhs0)
			m.Clauses = append(m.Clauses, []int{lhs, -r}, []int{-lhs, r})
		default:
			r0, r1 := carVar(aa.Rhs0), carVar(aa.Rhs1)
			m.Clauses = append(m.Clauses,
				[]int{lhs, -r0, -r1},
				[]int{-lhs, r0},
				[]int{-lhs, r1},
			)
		}
	}

	// Phase 1: constraints' dead cone.
	m.Constraints = make([]int, a.NumConstraints)
	for i, lit := range a.Constraints {
		m.Constraints[i] = foldConst(lit)
		recurse(necessaryGate(lit))
	}
	for _, lhs := range order {
		addGateClauses(andByLhs[lhs])
	}

	// Phase 2: shared-next equivalence + initial-state encoding.
	for i, l := range a.Latches {
		v := int(l.Lit.Var())
		if l.Lit.Negated() || v != m.NumInputs+1+i {
			return nil, fmt.Errorf("model: latch %d has unexpected literal %d (want positive literal for var %d)", i, l.Lit, m.NumInputs+1+i)
		}
		switch {
		case l.Next.IsFalse():
			m.nextOf[v] = m.FalseID
			m.reverseOf[m.FalseID] = append(m.reverseOf[m.FalseID], v)
		case l.Next.IsTrue():
			m.nextOf[v] = m.TrueID
			m.reverseOf[m.TrueID] = append(m.reverseOf[m.TrueID], v)
		default:
			next := carVar(l.Next)
			m.nextOf[v] = next
			key, val := abs(next), v
			if next < 0 {
				val = -v
			}
			m.reverseOf[key] = append(m.reverseOf[key], val)
		}
		// a.Validate already rejected resets outside {0, 1}.
		if l.Reset == 0 {
			m.Init = append(m.Init, -v)
		} else {
			m.Init = append(m.Init, v)
		}
	}
	m.createSharedNextAndInit()

	// Phase 3: outputs' dead cone.
	m.Outputs = make([]int, a.NumOutputs)
	visited = make(map[aig.Literal]bool, a.NumAnds)
	order = nil
	for i, lit := range a.Outputs {
		m.Outputs[i] = foldConst(lit)
		recurse(necessaryGate(lit))
	}
	for _, lhs := range order {
		addGateClauses(andByLhs[lhs])
	}

	// Phase 4: latches' next-state dead cone.
	visited = make(map[aig.Literal]bool, a.NumAnds)
	order = nil
	for _, l := range a.Latches {
		recurse(necessaryGate(l.Next))
	}
	for _, lhs := range order {
		addGateClauses(andByLhs[lhs])
	}

	// Phase 5: TRUE/FALSE unit clauses.
	m.Clauses = append(m.Clauses, []int{m.TrueID}, []int{-m.FalseID})

	return m, nil
}

// createSharedNextAndInit allocates Flag1/Flag2 and adds:
//   - under Flag1, a biconditional chain over every group of >1 latches
//     that share a next literal (ordinary-transition states must agree);
//   - under Flag2, a unit clause forcing each latch to its reset value;
//   - the disjunction (Flag1 ∨ Flag2) so every query picks one regime.
func (m *Model) createSharedNextAndInit() {
	m.MaxID++
	flag1 := m.MaxID
	m.Flag1 = flag1

	keys := make([]int, 0, len(m.reverseOf))
	for k := range m.reverseOf {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	exists := false
	for _, k := range keys {
		v := m.reverseOf[k]
		if len(v) <= 1 {
			continue
		}
		exists = true
		for i := 0; i < len(v)-1; i++ {
			m.Clauses = append(m.Clauses,
				[]int{v[i], -v[i+1], -flag1},
				[]int{-v[i], v[i+1], -flag1},
			)
		}
	}
	if !exists {
		m.MaxID++
		m.Clauses = append(m.Clauses, []int{m.MaxID, -flag1})
	}

	m.MaxID++
	flag2 := m.MaxID
	m.Flag2 = flag2
	for _, lit := range m.Init {
		m.Clauses = append(m.Clauses, []int{lit, -flag2})
	}
	m.Clauses = append(m.Clauses, []int{flag1, flag2})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Prime returns the next-state literal for a current-state latch literal
// id (sign-preserving). It returns an error if id is not a latch variable.
func (m *Model) Prime(id int) (int, error) {
	next, ok := m.nextOf[abs(id)]
	if !ok {
		return 0, fmt.Errorf("model: %d is not a latch variable, has no prime", id)
	}
	if id < 0 {
		return -next, nil
	}
	return next, nil
}

// Previous returns every current-state latch literal whose next literal is
// id (sign-preserving); there may be more than one if several latches
// share a next, or none if id is not the next of any latch.
func (m *Model) Previous(id int) []int {
	prevs, ok := m.reverseOf[abs(id)]
	if !ok {
		return nil
	}
	res := make([]int, len(prevs))
	if id < 0 {
		for i, p := range prevs {
			res[i] = -p
		}
	} else {
		copy(res, prevs)
	}
	return res
}

// ShrinkToPreviousVars replaces every literal of uc with all of its
// predecessor latch literals (spec.md §4.1), used when lifting a blocked
// cube backward through the transition relation. Literals with no
// predecessor (e.g. flags, gate wires) are dropped.
func (m *Model) ShrinkToPreviousVars(uc []int) []int {
	var out []int
	for _, lit := range uc {
		out = append(out, m.Previous(lit)...)
	}
	return out
}

// IsLatchVar reports whether v (unsigned) names a current-state latch.
func (m *Model) IsLatchVar(v int) bool {
	v = abs(v)
	return v > m.NumInputs && v <= m.NumInputs+m.NumLatches
}

// InvariantError marks a violated internal precondition: a bug in the
// caller, not a malformed input.
type InvariantError struct{ msg string }

func (e *InvariantError) Error() string { return e.msg }

// ShrinkToLatchVars drops a single trailing non-latch literal (an
// activation flag pinned at the tail of an assumption cube) from uc. It panics
// with an *InvariantError if, after that, any remaining literal is not a
// latch variable: this is a precondition on the caller's assumption
// layout, not a recoverable input error.
func (m *Model) ShrinkToLatchVars(uc []int) []int {
	if len(uc) == 0 {
		return uc
	}
	out := uc
	if !m.IsLatchVar(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	for _, lit := range out {
		if !m.IsLatchVar(lit) {
			panic(&InvariantError{msg: fmt.Sprintf("model: ShrinkToLatchVars: %d is not a latch variable after dropping the flag", lit)})
		}
	}
	return out
}
