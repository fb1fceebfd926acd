package pipeline

// #region imports
import (
	"context"
	"log"

	"github.com/danielpatrickdp/coder-agent/internal/agent"
	"github.com/danielpatrickdp/coder-agent/internal/artifact"
	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #endregion

// #region test-run-loop

// testRunLoop merges code with the fixed test artifact, re-verifies the
// merged unit, and executes its tests, revising the implementation (never
// the tests) on failure until the budget runs out.
//
// The merged unit re-enters the type-check loop with a fresh type-check
// budget on every iteration; if that loop exhausts, the whole run ends with
// merged-type-check-failed rather than consuming a test-run attempt.
func (p *Pipeline) testRunLoop(ctx context.Context, code artifact.CodeArtifact, tests artifact.TestArtifact, problem string) (artifact.MergedUnit, *Failure, error) {
	budget := NewRetryBudget(p.cfg.TestRunBudget)

	for {
		if err := ctx.Err(); err != nil {
			return artifact.MergedUnit{}, cancelledFailure(), nil
		}

		unit := artifact.Merge(code, tests)
		verified, failure, err := p.typeCheckLoop(ctx, unit.Source(), problem, diag.SourceMergedUnit)
		if err != nil {
			return artifact.MergedUnit{}, nil, err
		}
		if failure != nil {
			if failure.Reason == ReasonCancelled {
				return artifact.MergedUnit{}, failure, nil
			}
			return artifact.MergedUnit{}, &Failure{
				Reason:      ReasonMergedTypeCheckFailed,
				Diagnostics: failure.Diagnostics,
			}, nil
		}

		if verified != unit.Source() {
			// A revision touched the merged unit. Keep its implementation
			// half; the test half is always the original test artifact. A
			// missing separator means the agent rewrote the unit as
			// implementation only.
			codeSrc, _, _ := artifact.SplitSource(verified)
			code = artifact.ParseCode(codeSrc)
			unit = artifact.Merge(code, tests)
		}

		diags, err := p.runner.Run(ctx, unit.Source())
		if err != nil {
			if f := failureFromErr(err); f != nil {
				return artifact.MergedUnit{}, f, nil
			}
			return artifact.MergedUnit{}, nil, err
		}
		if len(diags) == 0 {
			log.Printf("[PIPE] tests passed attempts_used=%d", budget.Used)
			p.record(StepTestRun, budget.Used, VerdictPass, unit.Source(), nil)
			return unit, nil, nil
		}

		stampSource(diags, diag.SourceMergedUnit)
		budget.Spend()
		log.Printf("[PIPE] tests failed attempt=%d/%d failures=%d", budget.Used, budget.Max, len(diags))
		p.record(StepTestRun, budget.Used, VerdictFail, unit.Source(), diags)

		if budget.Exhausted() {
			return artifact.MergedUnit{}, &Failure{Reason: ReasonTestsExhausted, Diagnostics: diags}, nil
		}

		// Revision request carries the implementation and the failures only.
		raw, err := p.agent.Invoke(ctx, agent.RoleCodeGenerator, agent.Context{
			Problem:     problem,
			Artifact:    code.Source,
			Diagnostics: diags,
		})
		if err != nil {
			if f := failureFromErr(err); f != nil {
				return artifact.MergedUnit{}, f, nil
			}
			return artifact.MergedUnit{}, nil, err
		}
		code = artifact.ParseCode(raw)
		p.record(StepCodeGen, budget.Used, VerdictOK, code.Source, nil)
	}
}

// #endregion
