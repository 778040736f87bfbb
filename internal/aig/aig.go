// Package aig holds the And-Inverter Graph input structure this system
// consumes. Populating it from a file is treated as an external concern
// (see Parse); the rest of the system only ever reads from an already-built
// AIG.
package aig

import "fmt"

// Literal is a raw AIG literal: an even/odd-encoded wire reference where
// the low bit selects polarity (0 = positive, 1 = negated) and literal 0/1
// are the constants FALSE/TRUE.
type Literal uint32

// IsConstant reports whether lit is the AIG encoding of a Boolean constant.
func (lit Literal) IsConstant() bool { return lit == 0 || lit == 1 }

// IsTrue reports whether lit is the AIG constant TRUE.
func (lit Literal) IsTrue() bool { return lit == 1 }

// IsFalse reports whether lit is the AIG constant FALSE.
func (lit Literal) IsFalse() bool { return lit == 0 }

// Var returns the variable index this literal refers to (0 for constants).
func (lit Literal) Var() uint32 { return uint32(lit) / 2 }

// Negated reports whether lit carries the negative polarity bit.
func (lit Literal) Negated() bool { return lit&1 == 1 }

// Latch is one state-holding bit: its current literal, its next-state
// function (itself an AIG literal, possibly a gate output), and its reset
// value (0 or 1; anything else is a malformed AIG).
type Latch struct {
	Lit   Literal
	Next  Literal
	Reset int
}

// And is a two-input AND gate: Lhs <-> Rhs0 /\ Rhs1. Lhs is always even
// (gate outputs are never referenced with negative polarity directly; the
// negation is carried by literals that reference Lhs+1).
type And struct {
	Lhs, Rhs0, Rhs1 Literal
}

// AIG is the parsed form of an AIGER circuit, as described in spec.md §6.
type AIG struct {
	NumInputs      int
	NumLatches     int
	NumAnds        int
	NumConstraints int
	NumOutputs     int
	MaxVar         uint32

	Inputs      []Literal
	Latches     []Latch
	Outputs     []Literal
	Constraints []Literal
	Ands        []And
}

// Validate checks the structural invariants spec.md §6 requires of an AIG:
// gate outputs are even, latch resets are 0 or 1, and counts match the
// slices actually populated. It does not re-derive MaxVar; callers that
// build an AIG by hand (tests) are expected to set it consistently.
func (a *AIG) Validate() error {
	if len(a.Inputs) != a.NumInputs {
		return fmt.Errorf("aig: NumInputs=%d but len(Inputs)=%d", a.NumInputs, len(a.Inputs))
	}
	if len(a.Latches) != a.NumLatches {
		return fmt.Errorf("aig: NumLatches=%d but len(Latches)=%d", a.NumLatches, len(a.Latches))
	}
	if len(a.Ands) != a.NumAnds {
		return fmt.Errorf("aig: NumAnds=%d but len(Ands)=%d", a.NumAnds, len(a.Ands))
	}
	if len(a.Outputs) != a.NumOutputs {
		return fmt.Errorf("aig: NumOutputs=%d but len(Outputs)=%d", a.NumOutputs, len(a.Outputs))
	}
	if len(a.Constraints) != a.NumConstraints {
		return fmt.Errorf("aig: NumConstraints=%d but len(Constraints)=%d", a.NumConstraints, len(a.Constraints))
	}
	for i, l := range a.Latches {
		if l.Reset != 0 && l.Reset != 1 {
			return fmt.Errorf("aig: latch %d has invalid reset value %d (must be 0 or 1)", i, l.Reset)
		}
	}
	for i, g := range a.Ands {
		if g.Lhs%2 != 0 {
			return fmt.Errorf("aig: and-gate %d has odd lhs %d", i, g.Lhs)
		}
	}
	return nil
}
