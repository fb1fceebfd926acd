package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/coder-agent/internal/agent"
	"github.com/danielpatrickdp/coder-agent/internal/artifact"
	"github.com/danielpatrickdp/coder-agent/internal/diag"
	"github.com/danielpatrickdp/coder-agent/internal/pipeline"
)

// #region scripted-collaborators

// scriptedAgent replays canned responses instead of calling a model.
type scriptedAgent struct {
	codeResponses []string
	testResponse  string
	codeCalls     int
	testCalls     int
}

func (a *scriptedAgent) Invoke(_ context.Context, role agent.Role, _ agent.Context) (string, error) {
	switch role {
	case agent.RoleCodeGenerator:
		if a.codeCalls >= len(a.codeResponses) {
			return "", fmt.Errorf("fixture script exhausted: code response %d of %d",
				a.codeCalls+1, len(a.codeResponses))
		}
		resp := a.codeResponses[a.codeCalls]
		a.codeCalls++
		return resp, nil
	case agent.RoleTestGenerator:
		a.testCalls++
		return a.testResponse, nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}

// scriptedChecker pops one diagnostic list per call; past the end of the
// script every check reports clean.
type scriptedChecker struct {
	script [][]FixtureDiagnostic
	calls  int
}

func (c *scriptedChecker) Check(_ context.Context, _ string) ([]diag.Diagnostic, error) {
	var diags []diag.Diagnostic
	if c.calls < len(c.script) {
		diags = toDiagnostics(c.script[c.calls])
	}
	c.calls++
	return diags, nil
}

// scriptedRunner works like scriptedChecker for test executions.
type scriptedRunner struct {
	script [][]FixtureDiagnostic
	calls  int
}

func (r *scriptedRunner) Run(_ context.Context, _ string) ([]diag.Diagnostic, error) {
	var diags []diag.Diagnostic
	if r.calls < len(r.script) {
		diags = toDiagnostics(r.script[r.calls])
	}
	r.calls++
	return diags, nil
}

// projectionExtractor derives signatures in-process; replay never shells
// out to stubgen.
type projectionExtractor struct{}

func (projectionExtractor) Extract(_ context.Context, code artifact.CodeArtifact) (artifact.SignatureView, error) {
	return artifact.Project(code), nil
}

// #endregion scripted-collaborators

// #region replay

// Outcome captures what one fixture run produced, alongside the observed
// collaborator call counts.
type Outcome struct {
	Result       pipeline.Result
	CodeGenCalls int
	TestGenCalls int
	TypeChecks   int
	TestRuns     int
}

// Replay drives the real pipeline with the fixture's scripted collaborators.
func Replay(ctx context.Context, f *Fixture, recorder pipeline.Recorder) (Outcome, error) {
	ag := &scriptedAgent{
		codeResponses: f.Script.CodeResponses,
		testResponse:  f.Script.TestResponse,
	}
	checker := &scriptedChecker{script: f.Script.TypeChecks}
	runner := &scriptedRunner{script: f.Script.TestRuns}

	p := pipeline.New(ag, checker, projectionExtractor{}, runner, recorder, f.Config.ToPipelineConfig())
	result, err := p.Run(ctx, f.Problem)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Result:       result,
		CodeGenCalls: ag.codeCalls,
		TestGenCalls: ag.testCalls,
		TypeChecks:   checker.calls,
		TestRuns:     runner.calls,
	}, nil
}

// Verify compares an outcome against the fixture's expectations and returns
// one message per mismatch. An empty slice means the fixture passed.
func Verify(f *Fixture, o Outcome) []string {
	var mismatches []string

	outcome := "failure"
	if o.Result.Success {
		outcome = "success"
	}
	if outcome != f.Expected.Outcome {
		mismatches = append(mismatches, fmt.Sprintf("outcome: got %s, want %s", outcome, f.Expected.Outcome))
	}

	reason := ""
	if o.Result.Failure != nil {
		reason = string(o.Result.Failure.Reason)
	}
	if reason != f.Expected.Reason {
		mismatches = append(mismatches, fmt.Sprintf("reason: got %q, want %q", reason, f.Expected.Reason))
	}

	if o.CodeGenCalls != f.Expected.CodeGenCalls {
		mismatches = append(mismatches, fmt.Sprintf("code generator calls: got %d, want %d", o.CodeGenCalls, f.Expected.CodeGenCalls))
	}
	if o.TestGenCalls != f.Expected.TestGenCalls {
		mismatches = append(mismatches, fmt.Sprintf("test generator calls: got %d, want %d", o.TestGenCalls, f.Expected.TestGenCalls))
	}
	if o.TypeChecks != f.Expected.TypeChecks {
		mismatches = append(mismatches, fmt.Sprintf("type checks: got %d, want %d", o.TypeChecks, f.Expected.TypeChecks))
	}
	if o.TestRuns != f.Expected.TestRuns {
		mismatches = append(mismatches, fmt.Sprintf("test runs: got %d, want %d", o.TestRuns, f.Expected.TestRuns))
	}
	return mismatches
}

// #endregion replay
