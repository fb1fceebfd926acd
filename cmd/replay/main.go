// Command replay runs pipeline fixtures: deterministic, scripted runs of
// the full orchestration loop with no model backend and no Python tools.
// It is the offline regression harness for the controller's retry
// semantics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/coder-agent/internal/diag"
	"github.com/danielpatrickdp/coder-agent/internal/pipeline"
	"github.com/danielpatrickdp/coder-agent/internal/replay"
)

// #region main

func main() {
	verbose := flag.Bool("v", false, "print per-step detail for each fixture")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: replay [-v] fixture.json [fixture.json ...]")
		os.Exit(2)
	}

	exitCode := 0
	for _, path := range paths {
		code := runFixture(path, *verbose)
		if code > exitCode {
			exitCode = code
		}
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-run

func runFixture(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	var recorder pipeline.Recorder
	if verbose {
		recorder = stepPrinter{}
	}

	outcome, err := replay.Replay(context.Background(), f, recorder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: replay error: %v\n", path, err)
		return 2
	}

	mismatches := replay.Verify(f, outcome)
	if len(mismatches) == 0 {
		fmt.Printf("%-40s OK   %s\n", path, f.Description)
		return 0
	}

	fmt.Printf("%-40s DIFF %s\n", path, f.Description)
	for _, m := range mismatches {
		fmt.Printf("  %s\n", m)
	}
	return 1
}

// #endregion fixture-run

// #region step-printer

// stepPrinter echoes every recorded pipeline step to stdout.
type stepPrinter struct{}

func (stepPrinter) Record(step string, attempt int, verdict string, _ string, diags []diag.Diagnostic) {
	fmt.Printf("  step=%s attempt=%d verdict=%s\n", step, attempt, verdict)
	for _, d := range diags {
		if d.Location != "" {
			fmt.Printf("    %s: %s\n", d.Location, d.Message)
		} else {
			fmt.Printf("    %s\n", d.Message)
		}
	}
}

// #endregion step-printer
