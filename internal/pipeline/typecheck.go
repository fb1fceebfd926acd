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

// #region type-check-loop

// typeCheckLoop submits src to the type checker until it passes or the
// budget runs out, feeding each failure's diagnostics (and only that
// failure's) back to the code-generation agent. Returns the verified source,
// which may differ from the input when revisions happened.
//
// source stamps the produced diagnostics so a caller can tell an
// implementation-only check from a merged-unit check.
func (p *Pipeline) typeCheckLoop(ctx context.Context, src, problem string, source diag.Source) (string, *Failure, error) {
	budget := NewRetryBudget(p.cfg.TypeCheckBudget)

	for {
		if err := ctx.Err(); err != nil {
			return "", cancelledFailure(), nil
		}

		diags, err := p.checker.Check(ctx, src)
		if err != nil {
			if f := failureFromErr(err); f != nil {
				return "", f, nil
			}
			return "", nil, err
		}
		if len(diags) == 0 {
			log.Printf("[PIPE] type check passed source=%s attempts_used=%d", source, budget.Used)
			p.record(StepTypeCheck, budget.Used, VerdictPass, src, nil)
			return src, nil, nil
		}

		stampSource(diags, source)
		budget.Spend()
		log.Printf("[PIPE] type check failed source=%s attempt=%d/%d errors=%d",
			source, budget.Used, budget.Max, len(diags))
		p.record(StepTypeCheck, budget.Used, VerdictFail, src, diags)

		if budget.Exhausted() {
			return "", &Failure{Reason: ReasonTypeCheckExhausted, Diagnostics: diags}, nil
		}

		raw, err := p.agent.Invoke(ctx, agent.RoleCodeGenerator, agent.Context{
			Problem:     problem,
			Artifact:    src,
			Diagnostics: diags,
		})
		if err != nil {
			if f := failureFromErr(err); f != nil {
				return "", f, nil
			}
			return "", nil, err
		}
		src = artifact.Clean(raw)
		p.record(StepCodeGen, budget.Used, VerdictOK, src, nil)
	}
}

// #endregion

// #region helpers

func stampSource(diags []diag.Diagnostic, source diag.Source) {
	for i := range diags {
		diags[i].Source = source
	}
}

// #endregion
