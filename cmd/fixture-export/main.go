// Command fixture-export turns a journaled run into a replay fixture: the
// recorded agent outputs become the script, the recorded verdicts become
// the expectations. Exported fixtures replay a production run offline,
// bit-for-bit, without the model backend or the Python tools.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/coder-agent/internal/diag"
	"github.com/danielpatrickdp/coder-agent/internal/journal"
	"github.com/danielpatrickdp/coder-agent/internal/pipeline"
	"github.com/danielpatrickdp/coder-agent/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run journal database")
	runID := flag.String("run", "", "run ID to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *runID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --run id --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, runID, outPath string) error {
	jrnl, err := journal.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer jrnl.Close()

	var problem, outcome string
	var reason sql.NullString
	err = jrnl.DB().QueryRow(
		`SELECT problem, outcome, reason FROM runs WHERE run_id = ?`, runID,
	).Scan(&problem, &outcome, &reason)
	if err != nil {
		return fmt.Errorf("find run %s: %w", runID, err)
	}
	if outcome == "running" || outcome == "error" {
		return fmt.Errorf("run %s has outcome %q, nothing to replay", runID, outcome)
	}

	attempts, err := jrnl.RunAttempts(runID)
	if err != nil {
		return fmt.Errorf("load attempts: %w", err)
	}
	if len(attempts) == 0 {
		return fmt.Errorf("no attempts recorded for run %s", runID)
	}

	fixture := buildFixture(problem, outcome, reason.String, attempts)

	return writeFixture(fixture, outPath)
}

// #endregion extract

// #region build

// buildFixture reconstructs a replay script from the attempt log. Every
// recorded type check and test run contributes its diagnostic list (empty
// on a pass), so the scripted collaborators reproduce the exact verdict
// sequence the live run saw.
func buildFixture(problem, outcome, reason string, attempts []journal.AttemptRecord) replay.Fixture {
	script := replay.FixtureScript{}
	expected := replay.FixtureExpected{Outcome: outcome, Reason: reason}

	for _, a := range attempts {
		switch a.Step {
		case pipeline.StepCodeGen:
			script.CodeResponses = append(script.CodeResponses, a.Artifact)
			expected.CodeGenCalls++
		case pipeline.StepTestGen:
			script.TestResponse = a.Artifact
			expected.TestGenCalls++
		case pipeline.StepTypeCheck:
			script.TypeChecks = append(script.TypeChecks, toFixtureDiags(a.Diagnostics))
			expected.TypeChecks++
		case pipeline.StepTestRun:
			script.TestRuns = append(script.TestRuns, toFixtureDiags(a.Diagnostics))
			expected.TestRuns++
		}
	}

	return replay.Fixture{
		Description: fmt.Sprintf("Journal export: %d-step run, outcome %s", len(attempts), outcome),
		Problem:     problem,
		Script:      script,
		Expected:    expected,
	}
}

func toFixtureDiags(diags []diag.Diagnostic) []replay.FixtureDiagnostic {
	if len(diags) == 0 {
		return nil
	}
	out := make([]replay.FixtureDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, replay.FromDiagnostic(d))
	}
	return out
}

// #endregion build

// #region output

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d scripted responses)\n",
		outPath, len(data), len(fixture.Script.CodeResponses))
	return nil
}

// #endregion output
