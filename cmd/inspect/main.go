// Command inspect reads the run journal: list recent runs, or show one
// run's step-by-step attempt history with diagnostics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/coder-agent/internal/journal"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run journal database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/coder_agent.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	jrnl, err := journal.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer jrnl.Close()

	if *runID != "" {
		err = runDetailMode(jrnl, *runID, *jsonOut)
	} else {
		err = runListMode(jrnl, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID      string `json:"run_id"`
	Problem    string `json:"problem"`
	Backend    string `json:"backend"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func runListMode(jrnl *journal.Journal, last int, jsonOut bool) error {
	runs, err := jrnl.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		lr := listRow{
			RunID:     r.RunID,
			Problem:   r.Problem,
			Backend:   r.Backend,
			Outcome:   r.Outcome,
			Reason:    r.Reason,
			StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
		if r.FinishedAt != nil {
			lr.FinishedAt = r.FinishedAt.Format("2006-01-02T15:04:05Z")
		}
		rows[i] = lr
	}

	if jsonOut {
		return printJSON(rows)
	}
	return printListTable(rows)
}

func printListTable(rows []listRow) error {
	fmt.Printf("%-10s  %-9s  %-25s  %-8s  %-20s  %s\n",
		"Run", "Outcome", "Reason", "Backend", "Started", "Problem")
	fmt.Printf("%-10s+-%-9s+-%-25s+-%-8s+-%-20s+-%s\n",
		"----------", "---------", "-------------------------", "--------",
		"--------------------", "------------------------------")

	for _, r := range rows {
		fmt.Printf("%-10s  %-9s  %-25s  %-8s  %-20s  %s\n",
			shortID(r.RunID), r.Outcome, dashIfEmpty(r.Reason), r.Backend,
			r.StartedAt, truncate(r.Problem, 50))
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type attemptRow struct {
	Step        string    `json:"step"`
	Attempt     int       `json:"attempt"`
	Verdict     string    `json:"verdict"`
	Diagnostics []diagRow `json:"diagnostics,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

type diagRow struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

func runDetailMode(jrnl *journal.Journal, runID string, jsonOut bool) error {
	attempts, err := jrnl.RunAttempts(runID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		return fmt.Errorf("no attempts recorded for run %s", runID)
	}

	rows := make([]attemptRow, len(attempts))
	for i, a := range attempts {
		ar := attemptRow{
			Step:      a.Step,
			Attempt:   a.Attempt,
			Verdict:   a.Verdict,
			CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		for _, d := range a.Diagnostics {
			ar.Diagnostics = append(ar.Diagnostics, diagRow{Location: d.Location, Message: d.Message})
		}
		rows[i] = ar
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("Run: %s\n\n", runID)
	fmt.Printf("%-12s  %-7s  %-7s  %s\n", "Step", "Attempt", "Verdict", "Time")
	fmt.Printf("%-12s+-%-7s+-%-7s+-%s\n",
		"------------", "-------", "-------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %7d  %-7s  %s\n", r.Step, r.Attempt, r.Verdict, r.CreatedAt)
		for _, d := range r.Diagnostics {
			if d.Location != "" {
				fmt.Printf("    %s: %s\n", d.Location, truncate(d.Message, 100))
			} else {
				fmt.Printf("    %s\n", truncate(d.Message, 100))
			}
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// truncate shortens s to at most n display runes. Slicing bytes would cut
// multi-byte characters in half.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}

// #endregion output
