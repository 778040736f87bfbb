package aig

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads an AIG from the textual AIGER format ("aag" header).
//
// The header line is "aag M I L O A" or, with an extra trailing field for
// this system's constraints array, "aag M I L O A C". M is the maximum
// variable index, I/L/O/A the input/latch/output/and-gate counts, and C
// (if present) the constraint count; constraint lines follow the output
// lines. Latch lines are "lit next" or "lit next reset" (reset defaults to
// 0 when omitted); a reset value other than 0 or 1 is a fatal input error,
// per spec.md. Symbol-table and comment lines (anything after the A-th and
// line) are ignored.
//
// Binary AIGER ("aig" header) is not supported: AIG file parsing is an
// external collaborator per spec.md §1, and this reader exists only to
// make the CLI runnable end to end against small, hand-authored circuits.
func Parse(r io.Reader) (*AIG, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("aig: empty input")
	}
	header := strings.Fields(s.Text())
	if len(header) < 6 {
		return nil, fmt.Errorf("aig: malformed header %q", s.Text())
	}
	if header[0] != "aag" {
		if header[0] == "aig" {
			return nil, fmt.Errorf("aig: binary AIGER format is not supported")
		}
		return nil, fmt.Errorf("aig: unrecognized header signifier %q", header[0])
	}

	nums := make([]int, 0, 6)
	for _, f := range header[1:] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("aig: malformed header field %q: %w", f, err)
		}
		nums = append(nums, n)
	}
	a := &AIG{
		MaxVar:         uint32(nums[0]),
		NumInputs:      nums[1],
		NumLatches:     nums[2],
		NumOutputs:     nums[3],
		NumAnds:        nums[4],
	}
	if len(nums) >= 6 {
		a.NumConstraints = nums[5]
	}

	readLits := func(n int, what string) ([]Literal, error) {
		lits := make([]Literal, 0, n)
		for i := 0; i < n; i++ {
			if !s.Scan() {
				return nil, fmt.Errorf("aig: unexpected end of input reading %s (%d/%d)", what, i, n)
			}
			fields := strings.Fields(s.Text())
			if len(fields) != 1 {
				return nil, fmt.Errorf("aig: malformed %s line %q", what, s.Text())
			}
			v, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("aig: malformed %s literal %q: %w", what, fields[0], err)
			}
			lits = append(lits, Literal(v))
		}
		return lits, nil
	}

	inputs, err := readLits(a.NumInputs, "input")
	if err != nil {
		return nil, err
	}
	a.Inputs = inputs

	latches := make([]Latch, 0, a.NumLatches)
	for i := 0; i < a.NumLatches; i++ {
		if !s.Scan() {
			return nil, fmt.Errorf("aig: unexpected end of input reading latch %d/%d", i, a.NumLatches)
		}
		fields := strings.Fields(s.Text())
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("aig: malformed latch line %q", s.Text())
		}
		lit, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("aig: malformed latch literal %q: %w", fields[0], err)
		}
		next, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("aig: malformed latch next literal %q: %w", fields[1], err)
		}
		reset := 0
		if len(fields) == 3 {
			reset, err = strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("aig: malformed latch reset %q: %w", fields[2], err)
			}
		}
		if reset != 0 && reset != 1 {
			return nil, fmt.Errorf("aig: latch %d has invalid reset value %d (must be 0 or 1)", i, reset)
		}
		latches = append(latches, Latch{Lit: Literal(lit), Next: Literal(next), Reset: reset})
	}
	a.Latches = latches

	outputs, err := readLits(a.NumOutputs, "output")
	if err != nil {
		return nil, err
	}
	a.Outputs = outputs

	if a.NumConstraints > 0 {
		constraints, err := readLits(a.NumConstraints, "constraint")
		if err != nil {
			return nil, err
		}
		a.Constraints = constraints
	}

	ands := make([]And, 0, a.NumAnds)
	for i := 0; i < a.NumAnds; i++ {
		if !s.Scan() {
			return nil, fmt.Errorf("aig: unexpected end of input reading and-gate %d/%d", i, a.NumAnds)
		}
		fields := strings.Fields(s.Text())
		if len(fields) != 3 {
			return nil, fmt.Errorf("aig: malformed and-gate line %q", s.Text())
		}
		lhs, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("aig: malformed and-gate lhs %q: %w", fields[0], err)
		}
		rhs0, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("aig: malformed and-gate rhs0 %q: %w", fields[1], err)
		}
		rhs1, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("aig: malformed and-gate rhs1 %q: %w", fields[2], err)
		}
		if lhs%2 != 0 {
			return nil, fmt.Errorf("aig: and-gate %d has odd lhs %d", i, lhs)
		}
		ands = append(ands, And{Lhs: Literal(lhs), Rhs0: Literal(rhs0), Rhs1: Literal(rhs1)})
	}
	a.Ands = ands

	if err := s.Err(); err != nil {
		return nil, err
	}
	return a, nil
}
