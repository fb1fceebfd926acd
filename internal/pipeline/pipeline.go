// Package pipeline implements the coder-agent orchestration state machine:
// problem intake → code generation → type-check retry loop → test
// generation → test-run retry loop → terminal outcome. The two feedback
// edges (type-check failure → code generator, test failure → code
// generator) are each gated by their own retry budget; tests are generated
// exactly once per run and treated as ground truth afterward.
package pipeline

// #region imports
import (
	"context"
	"errors"
	"log"

	"github.com/danielpatrickdp/coder-agent/internal/agent"
	"github.com/danielpatrickdp/coder-agent/internal/artifact"
	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #endregion

// #region pipeline-struct

// Pipeline is the controller. It exclusively owns the current code
// artifact, the single test artifact, and both retry budgets for the
// duration of Run; collaborators only ever see read-only snapshots passed
// as arguments. One Pipeline value serves one run at a time; independent
// runs use independent Pipeline values.
type Pipeline struct {
	agent     agent.Agent
	checker   TypeChecker
	extractor SignatureExtractor
	runner    TestRunner
	recorder  Recorder
	cfg       Config
}

// New wires a controller from its collaborators. recorder may be nil.
func New(a agent.Agent, checker TypeChecker, extractor SignatureExtractor, runner TestRunner, recorder Recorder, cfg Config) *Pipeline {
	return &Pipeline{
		agent:     a,
		checker:   checker,
		extractor: extractor,
		runner:    runner,
		recorder:  recorder,
		cfg:       cfg,
	}
}

// #endregion

// #region run

// Run executes the full state machine for one problem statement. The
// returned error is reserved for collaborator faults (a tool that could not
// execute, a backend transport error); every outcome the state machine
// defines, including cancellation, lands in Result.
func (p *Pipeline) Run(ctx context.Context, problem string) (Result, error) {
	log.Printf("[PIPE] run start type_check_budget=%d test_run_budget=%d",
		p.cfg.TypeCheckBudget, p.cfg.TestRunBudget)

	if err := ctx.Err(); err != nil {
		return failed(cancelledFailure()), nil
	}

	// Initial generation.
	raw, err := p.agent.Invoke(ctx, agent.RoleCodeGenerator, agent.Context{Problem: problem})
	if err != nil {
		if f := failureFromErr(err); f != nil {
			return failed(f), nil
		}
		return Result{}, err
	}
	code := artifact.ParseCode(raw)
	p.record(StepCodeGen, 0, VerdictOK, code.Source, nil)

	// Type-check loop on the implementation alone.
	verified, failure, err := p.typeCheckLoop(ctx, code.Source, problem, diag.SourceCode)
	if err != nil {
		return Result{}, err
	}
	if failure != nil {
		return failed(failure), nil
	}
	code = artifact.ParseCode(verified)

	// Signature view and test generation. Tests are generated exactly once;
	// signature drift in later revisions is steered back through diagnostics
	// rather than regenerating them.
	view, err := p.extractor.Extract(ctx, code)
	if err != nil {
		if f := failureFromErr(err); f != nil {
			return failed(f), nil
		}
		return Result{}, err
	}
	rawTests, err := p.agent.Invoke(ctx, agent.RoleTestGenerator, agent.Context{
		Problem:    problem,
		Signatures: view.Stub,
	})
	if err != nil {
		if f := failureFromErr(err); f != nil {
			return failed(f), nil
		}
		return Result{}, err
	}
	tests := artifact.ParseTests(rawTests)
	p.record(StepTestGen, 0, VerdictOK, tests.Source, nil)

	// Test-run loop on the merged unit.
	unit, failure, err := p.testRunLoop(ctx, code, tests, problem)
	if err != nil {
		return Result{}, err
	}
	if failure != nil {
		return failed(failure), nil
	}

	log.Printf("[PIPE] run success functions=%d", len(unit.Code.Functions))
	return Result{Success: true, Unit: unit}, nil
}

// #endregion

// #region helpers

func failed(f *Failure) Result {
	return Result{Failure: f}
}

func cancelledFailure() *Failure {
	return &Failure{Reason: ReasonCancelled}
}

// failureFromErr maps context cancellation surfaced through a collaborator
// call into the cancelled terminal state. Any other error stays an error.
func failureFromErr(err error) *Failure {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return cancelledFailure()
	}
	return nil
}

func (p *Pipeline) record(step string, attempt int, verdict string, artifactSrc string, diags []diag.Diagnostic) {
	if p.recorder == nil {
		return
	}
	p.recorder.Record(step, attempt, verdict, artifactSrc, diags)
}

// #endregion
