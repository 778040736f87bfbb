// Package witness writes a CARSearch counterexample trace to a plain text
// file: one input assignment per transition step, in the same
// space-separated-literal convention the teacher's cmd/saturday CLI uses
// for a satisfying assignment (spec.md §6).
package witness

import (
	"bufio"
	"fmt"
	"io"
)

// Write emits trace (one []int input cube per step, in root-to-bad order)
// to w: one line per step, each literal space-separated. An empty trace
// (bad reached at step 0, with no transitions) writes nothing.
func Write(w io.Writer, trace [][]int) error {
	bw := bufio.NewWriter(w)
	for _, step := range trace {
		for i, lit := range step {
			if i > 0 {
				if _, err := bw.WriteString(" "); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprint(bw, lit); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
