package journal

// #region imports
import (
	"log"

	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #endregion

// #region run-recorder

// RunRecorder scopes a journal to a single run. Write faults are logged and
// dropped: journaling must never alter a pipeline outcome.
type RunRecorder struct {
	journal *Journal
	runID   string
}

// Recorder returns a recorder bound to runID.
func (j *Journal) Recorder(runID string) *RunRecorder {
	return &RunRecorder{journal: j, runID: runID}
}

// Record appends one attempt row for the run.
func (r *RunRecorder) Record(step string, attempt int, verdict string, artifact string, diags []diag.Diagnostic) {
	err := r.journal.RecordAttempt(AttemptRecord{
		RunID:       r.runID,
		Step:        step,
		Attempt:     attempt,
		Verdict:     verdict,
		Artifact:    artifact,
		Diagnostics: diags,
	})
	if err != nil {
		log.Printf("[JOURNAL] failed to record %s attempt %d: %v", step, attempt, err)
	}
}

// #endregion
