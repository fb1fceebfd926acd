// Command coder turns a natural-language problem statement into verified
// Python code: generate, type-check, generate tests, run them, retry within
// budget. With -query it runs once and exits; with -problems it runs a
// scripted batch; without either, it reads problems interactively from
// stdin.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/coder-agent/internal/agent"
	"github.com/danielpatrickdp/coder-agent/internal/config"
	"github.com/danielpatrickdp/coder-agent/internal/journal"
	"github.com/danielpatrickdp/coder-agent/internal/pipeline"
	"github.com/danielpatrickdp/coder-agent/internal/toolchain"
)

// #region main

func main() {
	query := flag.String("query", "", "run one problem statement and exit")
	problems := flag.String("problems", "", "run a JSONL problem set and exit")
	backend := flag.String("backend", "", "model backend: openai or groq")
	model := flag.String("model", "", "override the backend's default model")
	temperature := flag.Float64("temperature", -1, "generation temperature for both agent roles")
	typeCheckBudget := flag.Int("type-check-budget", 0, "revision attempts after type errors")
	testRunBudget := flag.Int("test-run-budget", 0, "revision attempts after test failures")
	workspaceDir := flag.String("workspace", "", "artifact snapshot directory")
	journalPath := flag.String("journal", "", "sqlite run journal path (\"none\" disables)")
	flag.Parse()

	if *query != "" && *problems != "" {
		fmt.Fprintln(os.Stderr, "-query and -problems are mutually exclusive")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	applyFlags(cfg, *backend, *model, *temperature, *typeCheckBudget, *testRunBudget, *workspaceDir, *journalPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.close()

	switch {
	case *query != "":
		os.Exit(app.runOnce(ctx, *query))
	case *problems != "":
		os.Exit(app.runBatch(ctx, *problems))
	default:
		interactive(ctx, app)
	}
}

// applyFlags lays flag overrides on top of the loaded config.
func applyFlags(cfg *config.Config, backend, model string, temperature float64, tcBudget, trBudget int, workspace, journalPath string) {
	if backend != "" {
		cfg.Backend.Kind = backend
	}
	if model != "" {
		cfg.Backend.Model = model
	}
	if temperature >= 0 {
		cfg.Backend.Temperature = float32(temperature)
	}
	if tcBudget > 0 {
		cfg.Budgets.TypeCheck = tcBudget
	}
	if trBudget > 0 {
		cfg.Budgets.TestRun = trBudget
	}
	if workspace != "" {
		cfg.Toolchain.WorkspaceDir = workspace
	}
	switch journalPath {
	case "":
	case "none":
		cfg.JournalPath = ""
	default:
		cfg.JournalPath = journalPath
	}
}

// #endregion main

// #region app

// app bundles the wired collaborators for one process. The snapshot
// workspace is deliberately absent: each run recreates its own, so snapshot
// numbering restarts at zero and no stale artifacts survive between runs.
type app struct {
	cfg     *config.Config
	ag      agent.Agent
	jrnl    *journal.Journal // nil when journaling is disabled
	tcfg    toolchain.Config
	backend string
}

func newApp(cfg *config.Config) (*app, error) {
	be, err := agent.NewBackend(cfg.Backend.Kind, cfg.AgentParams())
	if err != nil {
		return nil, err
	}

	var jrnl *journal.Journal
	if cfg.JournalPath != "" {
		jrnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
	}

	return &app{
		cfg:     cfg,
		ag:      agent.New(be),
		jrnl:    jrnl,
		tcfg:    cfg.ToolchainConfig(),
		backend: cfg.Backend.Kind,
	}, nil
}

func (a *app) close() {
	if a.jrnl != nil {
		if err := a.jrnl.Close(); err != nil {
			log.Printf("close journal: %v", err)
		}
	}
}

// runOnce drives one problem through the pipeline and returns the process
// exit code: 0 verified, 1 terminal failure, 2 operational error. The
// workspace is recreated empty at the start of every run.
func (a *app) runOnce(ctx context.Context, problem string) int {
	runID := uuid.New().String()

	ws, err := toolchain.NewWorkspace(a.tcfg.Dir)
	if err != nil {
		log.Printf("run %s workspace: %v", runID, err)
		return 2
	}

	var recorder pipeline.Recorder
	if a.jrnl != nil {
		if err := a.jrnl.BeginRun(runID, problem, a.backend); err != nil {
			log.Printf("journal: %v", err)
		}
		recorder = a.jrnl.Recorder(runID)
	}

	p := pipeline.New(
		a.ag,
		toolchain.NewMypyChecker(a.tcfg, ws),
		toolchain.NewStubExtractor(a.tcfg, ws),
		toolchain.NewUnittestRunner(a.tcfg, ws),
		recorder,
		a.cfg.PipelineConfig(),
	)

	result, err := p.Run(ctx, problem)
	if err != nil {
		a.finish(runID, "error", err.Error())
		log.Printf("run %s error: %v", runID, err)
		return 2
	}

	if result.Success {
		a.finish(runID, "success", "")
		fmt.Printf("\n%s\n", result.Unit.Source())
		fmt.Printf("\n[run %s] verified: %d functions, all tests passed\n",
			runID, len(result.Unit.Code.Functions))
		return 0
	}

	a.finish(runID, "failure", string(result.Failure.Reason))
	fmt.Printf("\n[run %s] failed: %s\n", runID, result.Failure.Reason)
	for _, d := range result.Failure.Diagnostics {
		if d.Location != "" {
			fmt.Printf("  %s: %s\n", d.Location, d.Message)
		} else {
			fmt.Printf("  %s\n", d.Message)
		}
	}
	return 1
}

func (a *app) finish(runID, outcome, reason string) {
	if a.jrnl == nil {
		return
	}
	if err := a.jrnl.FinishRun(runID, outcome, reason); err != nil {
		log.Printf("journal: %v", err)
	}
}

// #endregion app

// #region batch

// batchProblem is one line of a -problems JSONL file.
type batchProblem struct {
	ID      string `json:"id"`
	Problem string `json:"problem"`
}

// readProblems parses a JSONL problem set: one {"id", "problem"} object per
// line, blank lines skipped. A missing id falls back to the line number.
func readProblems(path string) ([]batchProblem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open problem set: %w", err)
	}
	defer f.Close()

	var set []batchProblem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var p batchProblem
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("problem set line %d: %w", lineNo, err)
		}
		if p.Problem == "" {
			return nil, fmt.Errorf("problem set line %d: empty problem", lineNo)
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("problem-%d", lineNo)
		}
		set = append(set, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read problem set: %w", err)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("problem set %s is empty", path)
	}
	return set, nil
}

// runBatch runs every problem in the set through the pipeline, one at a
// time, and reports per-problem outcomes plus a summary. Exit code is the
// worst individual outcome.
func (a *app) runBatch(ctx context.Context, path string) int {
	set, err := readProblems(path)
	if err != nil {
		log.Printf("batch: %v", err)
		return 2
	}

	verified := 0
	worst := 0
	for _, p := range set {
		fmt.Printf("=== %s ===\n", p.ID)
		code := a.runOnce(ctx, p.Problem)
		switch code {
		case 0:
			verified++
		case 2:
			// Operational errors will not heal for the rest of the set.
			return 2
		}
		if code > worst {
			worst = code
		}
		if ctx.Err() != nil {
			break
		}
	}

	fmt.Printf("\nBatch: %d problems, %d verified, %d failed\n",
		len(set), verified, len(set)-verified)
	return worst
}

// #endregion batch

// #region interactive

func interactive(ctx context.Context, app *app) {
	fmt.Println("Coder agent ready.")
	fmt.Printf("  backend: %s | workspace: %s\n", app.backend, app.tcfg.Dir)
	fmt.Println("Describe a problem (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		problem := strings.TrimSpace(scanner.Text())
		if problem == "" {
			continue
		}
		if problem == "quit" || problem == "exit" {
			break
		}

		if app.runOnce(ctx, problem) == 2 {
			// Operational errors (dead backend, missing tools) will not
			// heal between prompts.
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
}

// #endregion interactive
