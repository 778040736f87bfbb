package car

import "fmt"

// InvariantError marks a violated internal precondition: something the
// search's own bookkeeping guarantees should never happen (a model
// inconsistency surfacing through SolveRelative). Mirrors model.InvariantError (spec.md §7) but is kept
// package-local since car and model are loaded independently by cmd/car.
type InvariantError struct{ msg string }

func (e *InvariantError) Error() string { return e.msg }

// invariantf panics with a *InvariantError formatted from format/args when
// cond is false. cmd/car recovers exactly this type at the top level and
// exits with a distinct code; any other panic is left to crash the process.
func invariantf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&InvariantError{msg: fmt.Sprintf(format, args...)})
	}
}
