// Package car implements the CAR (Complementary Approximate Reachability)
// search: MainSolver frame multiplexing, the ImplySolver subsumption filter,
// InvSolver fixed-point detection, the state/cube bookkeeping (State,
// StatePool, Trie), and the CARSearch main loop itself.
//
// Grounded throughout on the original reference's src/utils/data_structure.h
// (State, the O/U sequence type aliases, Trie) and src/solver/*.{h,cpp}
// (CARSolver, ImplySolver, InvSolver), reworked into Go idioms:
// garbage-collected States linked by Parent pointers instead of raw
// new/delete pointers (StatePool hands out ids but does not store the
// States; there is no index-based arena), and a single search-scoped Search
// carrying what the original kept as file-level globals (spec.md §9).
package car

import "sort"

// cubeVar returns the variable (unsigned) of a signed literal.
func cubeVar(l int) int {
	if l < 0 {
		return -l
	}
	return l
}

// sortCube sorts a cube's literals by variable, the canonical order every
// cube in this package is kept in so Trie lookups and subsumption checks can
// assume it.
func sortCube(c []int) {
	sort.Slice(c, func(i, j int) bool { return cubeVar(c[i]) < cubeVar(c[j]) })
}

// cubeSubsumes reports whether every literal of a also appears in b, i.e. a
// is the more general (smaller) cube and b satisfies it. Both must be
// sorted by sortCube.
func cubeSubsumes(a, b []int) bool {
	i, j := 0, 0
	for i < len(a) {
		if j >= len(b) {
			return false
		}
		switch {
		case a[i] == b[j]:
			i++
			j++
		case cubeVar(a[i]) == cubeVar(b[j]):
			return false // same var, opposite sign: a does not subsume b
		case cubeVar(a[i]) > cubeVar(b[j]):
			j++
		default:
			return false
		}
	}
	return true
}

// State is one node of the search: a full assignment to every latch
// variable (the "current state" cube), the input literals assigned
// alongside it (the inputs under which it steps to its Parent, its
// successor in the backward search), and a parent link (nil for the root
// found in the bad region) so a terminal State can be walked back into a
// witness trace.
//
// isNegP marks the sentinel "bad property" state used as the backward
// search's fixed target: it has no Latches/Inputs of its own, matching
// data_structure.h's negp constructor, modeled here as a struct variant
// rather than a separate mutable global singleton (spec.md §9).
type State struct {
	id      int
	isNegP  bool
	Inputs  []int
	Latches []int
	Parent  *State
}

// ID returns the state's pool-assigned identity; the negP sentinel always
// reports 0.
func (s *State) ID() int { return s.id }

// IsNegP reports whether s is the bad-property sentinel.
func (s *State) IsNegP() bool { return s.isNegP }

// Cube returns the state's latch assignment as an assumption cube ready to
// hand to MainSolver; the negP sentinel has none.
func (s *State) Cube() []int {
	if s.isNegP {
		return nil
	}
	return s.Latches
}

// Imply reports whether s's full latch assignment satisfies cube c, i.e. c
// is a subset of s.Latches under the sortCube ordering. Used to check
// whether a candidate blocking cube already blocks a known state.
func (s *State) Imply(c []int) bool {
	if s.isNegP {
		return false
	}
	return cubeSubsumes(c, s.Latches)
}

// Intersect reports whether cube c is consistent with s's latch assignment:
// no shared variable is assigned opposite signs. Two cubes over disjoint (or
// empty) variable sets are vacuously consistent — this is what lets a
// 0-latch circuit's single, variable-less State correctly match Init.
func (s *State) Intersect(c []int) bool {
	if s.isNegP {
		return len(c) == 0
	}
	i, j := 0, 0
	for i < len(c) && j < len(s.Latches) {
		cl, sl := c[i], s.Latches[j]
		switch {
		case cubeVar(cl) == cubeVar(sl):
			if cl != sl {
				return false
			}
			i++
			j++
		case cubeVar(cl) < cubeVar(sl):
			i++
		default:
			j++
		}
	}
	return true
}

// NextLatches returns the next-state literal for every current-state latch
// literal in s.Latches, via primer (typically Model.Prime). Literals primer
// cannot prime (it returns an error) are skipped — callers only prime
// literals they know are latches.
func (s *State) NextLatches(primer func(int) (int, error)) []int {
	out := make([]int, 0, len(s.Latches))
	for _, l := range s.Latches {
		if n, err := primer(l); err == nil {
			out = append(out, n)
		}
	}
	sortCube(out)
	return out
}

// StatePool allocates States with monotonically increasing ids (useful for
// logging/ordering) and holds the single shared negP sentinel instance; it
// keeps no reference to the States it allocates.
type StatePool struct {
	nextID int
	negP   *State
}

// NewStatePool returns an empty pool with its negP sentinel ready.
func NewStatePool() *StatePool {
	return &StatePool{negP: &State{isNegP: true}}
}

// NegP returns the shared bad-property sentinel state.
func (p *StatePool) NegP() *State { return p.negP }

// New allocates a fresh State with the given inputs/latches (both assumed
// already sorted by the caller) and parent link.
func (p *StatePool) New(inputs, latches []int, parent *State) *State {
	p.nextID++
	return &State{id: p.nextID, Inputs: inputs, Latches: latches, Parent: parent}
}

// Trace walks s's parent chain back to the root, returning the input
// vectors in execution order: s's own inputs first, then each parent's,
// ending with the step into the chain's root (the bad state, whose own
// inputs are not included) — the witness CARSearch.Run reports on an
// Unsafe verdict.
func (s *State) Trace() [][]int {
	out := [][]int{}
	for cur := s; cur != nil && cur.Parent != nil; cur = cur.Parent {
		out = append(out, cur.Inputs)
	}
	return out
}
