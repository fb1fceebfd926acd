package pipeline

// #region imports
import (
	"context"

	"github.com/danielpatrickdp/coder-agent/internal/artifact"
	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #endregion

// #region reasons

// Reason tags a terminal pipeline failure.
type Reason string

const (
	ReasonTypeCheckExhausted    Reason = "type-check-exhausted"
	ReasonMergedTypeCheckFailed Reason = "merged-type-check-failed"
	ReasonTestsExhausted        Reason = "tests-exhausted"
	ReasonCancelled             Reason = "cancelled"
)

// #endregion

// #region failure

// Failure is a terminal outcome: the reason tag plus the diagnostics from
// the last attempt. Cancellation carries no diagnostics.
type Failure struct {
	Reason      Reason
	Diagnostics []diag.Diagnostic
}

// #endregion

// #region result

// Result is the single terminal outcome of a pipeline run: either a
// verified, type-checked, tested unit, or a failure with reason and last
// diagnostics. Exactly one of Unit/Failure is meaningful.
type Result struct {
	Success bool
	Unit    artifact.MergedUnit
	Failure *Failure
}

// #endregion

// #region retry-budget

// RetryBudget bounds one feedback loop. Used only ever increments, by one
// per failed attempt, and is never reset mid-loop; Used <= Max holds at all
// times.
type RetryBudget struct {
	Used int
	Max  int
}

// NewRetryBudget returns a fresh budget for one loop entry.
func NewRetryBudget(max int) RetryBudget {
	return RetryBudget{Max: max}
}

// Spend consumes one attempt.
func (b *RetryBudget) Spend() {
	b.Used++
}

// Exhausted reports whether no attempts remain.
func (b *RetryBudget) Exhausted() bool {
	return b.Used >= b.Max
}

// #endregion

// #region config

// Config carries the controller's construction-time settings. There is no
// process-wide state; two pipelines with different configs are fully
// isolated.
type Config struct {
	// TypeCheckBudget bounds each entry into the type-check loop (the
	// implementation-only pass and each merged-unit pass independently).
	TypeCheckBudget int
	// TestRunBudget bounds the test-run loop.
	TestRunBudget int
}

// DefaultConfig mirrors the original tool's defaults.
func DefaultConfig() Config {
	return Config{
		TypeCheckBudget: 4,
		TestRunBudget:   4,
	}
}

// #endregion

// #region collaborators

// TypeChecker is the external static type checker. An empty diagnostic list
// means the artifact passed. A non-nil error means the checker itself could
// not run, which is not a pipeline failure mode.
type TypeChecker interface {
	Check(ctx context.Context, src string) ([]diag.Diagnostic, error)
}

// SignatureExtractor derives the body-stripped signature view of a verified
// code artifact. Deterministic.
type SignatureExtractor interface {
	Extract(ctx context.Context, code artifact.CodeArtifact) (artifact.SignatureView, error)
}

// TestRunner executes a merged unit's tests. An empty diagnostic list means
// all tests passed.
type TestRunner interface {
	Run(ctx context.Context, unitSrc string) ([]diag.Diagnostic, error)
}

// Recorder receives step-by-step attempt records for observability. A nil
// recorder disables recording; recording never influences control flow.
type Recorder interface {
	Record(step string, attempt int, verdict string, artifact string, diags []diag.Diagnostic)
}

// #endregion

// #region step-names

// Step and verdict vocabulary handed to the Recorder.
const (
	StepCodeGen   = "code_gen"
	StepTestGen   = "test_gen"
	StepTypeCheck = "type_check"
	StepTestRun   = "test_run"

	VerdictOK   = "ok"
	VerdictPass = "pass"
	VerdictFail = "fail"
)

// #endregion
