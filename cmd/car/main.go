// Command car is a CAR (Complementary Approximate Reachability) safety
// model checker for AIG-format sequential circuits. It is the CLI shell
// around internal/car, grounded on the teacher's cmd/saturday/saturday.go:
// same flag-parsing and stdin-fallback conventions, same log.Fatalln-at-
// the-boundary error handling, extended with an -o output directory and an
// internal-invariant recovery path (spec.md §6, §7).
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/kr/pretty"
	_ "go.uber.org/automaxprocs"

	"github.com/arcsat/car/internal/aig"
	"github.com/arcsat/car/internal/car"
	"github.com/arcsat/car/internal/model"
	"github.com/arcsat/car/internal/satsolver"
	"github.com/arcsat/car/internal/witness"
)

func main() {
	log.SetFlags(0)

	direction := flag.String("direction", "backward", "search direction: backward (forward is rejected as not implemented)")
	rotate := flag.Bool("rotate", false, "enable the prior-UC-literal rotation heuristic")
	mom := flag.Bool("mom", false, "enable the MOMs-weighted ImplySolver variant")
	outDir := flag.String("o", "", "output directory for the witness trace (default: stdout only)")
	verbose := flag.Bool("v", false, "verbose mode: dump search stats to stderr")
	dumpCNF := flag.String("dump-cnf", "", "write the model's CNF transition relation to this file in DIMACS format")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `car: a CAR-based safety model checker for AIG circuits.

Usage:

  car [-direction forward|backward] [-rotate] [-mom] [-o dir] [-v] [input.aag]

car reads a single sequential circuit in the ASCII AIGER format and decides
whether its single-output safety property can ever be violated. It reports
SAFE, UNSAFE or UNKNOWN on the first line; on UNSAFE it also writes a counterexample
trace, one input assignment per line.

If no input file is given, car reads from standard input.
`)
	}
	flag.Parse()

	if *direction != "forward" && *direction != "backward" {
		log.Fatalf("car: invalid -direction %q: must be forward or backward", *direction)
	}
	if *direction == "forward" {
		// Forward CAR approximates reachability from Init rather than from
		// Bad; the frame/query machinery is identical, only the starting
		// region differs (spec.md §3's "F_0 encodes the initial-state
		// condition (or bad condition, depending on direction)"). Swapping
		// which region seeds the root search is not implemented: every
		// recorded scenario and the supplemented feature set (spec.md §10)
		// exercises backward CAR only.
		log.Fatalln("Error: -direction forward is not implemented")
	}

	var r io.Reader = os.Stdin
	if flag.NArg() >= 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		r = f
	}

	circuit, err := aig.Parse(r)
	if err != nil {
		log.Fatalln("Error reading input file as AIGER:", err)
	}

	m, err := model.New(circuit)
	if err != nil {
		log.Fatalln("Error building the transition relation:", err)
	}
	if len(m.Outputs) == 0 {
		log.Fatalln("Error: circuit declares no outputs to check")
	}

	if *dumpCNF != "" {
		f, err := os.Create(*dumpCNF)
		if err != nil {
			log.Fatalln("Error creating CNF dump file:", err)
		}
		if err := satsolver.WriteDIMACS(f, m.MaxID, m.Clauses); err != nil {
			f.Close()
			log.Fatalln("Error writing CNF dump:", err)
		}
		f.Close()
	}

	badLit := m.Outputs[0]
	verdict := runSearch(m, badLit, *rotate, *mom)

	if *verbose {
		fmt.Fprintln(os.Stderr, "-- search stats --")
		pretty.Fprintf(os.Stderr, "%# v\n", verdict.Stats)
	}

	var out io.Writer = os.Stdout
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Fatalln("Error creating output directory:", err)
		}
	}

	switch verdict.Status {
	case car.Safe:
		fmt.Fprintln(out, "SAFE")
	case car.Unsafe:
		fmt.Fprintln(out, "UNSAFE")
		if *outDir != "" {
			path := filepath.Join(*outDir, "witness.txt")
			f, err := os.Create(path)
			if err != nil {
				log.Fatalln("Error creating witness file:", err)
			}
			defer f.Close()
			if err := witness.Write(f, verdict.Trace); err != nil {
				log.Fatalln("Error writing witness file:", err)
			}
		} else if err := witness.Write(out, verdict.Trace); err != nil {
			log.Fatalln("Error writing witness trace:", err)
		}
	default:
		fmt.Fprintln(out, "UNKNOWN")
	}
}

// runSearch recovers *car.InvariantError into a fatal exit 2, matching
// spec.md §7's debug-assert/release-fatal split: any other panic is left to
// crash the process, since it indicates a bug the recover isn't meant to
// paper over.
func runSearch(m *model.Model, badLit int, rotate, mom bool) (v car.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			if ierr, ok := r.(*car.InvariantError); ok {
				log.Println("Internal invariant violation:", ierr.Error())
				os.Exit(2)
			}
			panic(r)
		}
	}()
	return car.NewSearch(m, badLit, rotate, mom).Run()
}
