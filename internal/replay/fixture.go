package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/coder-agent/internal/diag"
	"github.com/danielpatrickdp/coder-agent/internal/pipeline"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture. It scripts
// every collaborator a pipeline run talks to, so the run is deterministic
// and needs neither a model backend nor the Python toolchain.
type Fixture struct {
	Description string          `json:"description"`
	Problem     string          `json:"problem"`
	Config      FixtureConfig   `json:"config"`
	Script      FixtureScript   `json:"script"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureConfig mirrors pipeline.Config with JSON tags.
type FixtureConfig struct {
	TypeCheckBudget int `json:"type_check_budget"`
	TestRunBudget   int `json:"test_run_budget"`
}

// FixtureScript holds the canned collaborator outputs, consumed in order.
// CodeResponses feeds the code generator (initial response first, then one
// per revision). TypeChecks and TestRuns feed the checker and runner one
// diagnostic list per call; calls past the end of a list report clean.
type FixtureScript struct {
	CodeResponses []string              `json:"code_responses"`
	TestResponse  string                `json:"test_response"`
	TypeChecks    [][]FixtureDiagnostic `json:"type_checks"`
	TestRuns      [][]FixtureDiagnostic `json:"test_runs"`
}

// FixtureDiagnostic mirrors diag.Diagnostic with JSON tags.
type FixtureDiagnostic struct {
	Source   string `json:"source"`
	Kind     string `json:"kind"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

// FixtureExpected captures the asserted outcome of the run.
type FixtureExpected struct {
	Outcome      string `json:"outcome"` // "success" | "failure"
	Reason       string `json:"reason,omitempty"`
	CodeGenCalls int    `json:"code_gen_calls"`
	TestGenCalls int    `json:"test_gen_calls"`
	TypeChecks   int    `json:"type_checks"`
	TestRuns     int    `json:"test_runs"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToPipelineConfig converts a FixtureConfig to a pipeline Config, keeping
// defaults for any budget the fixture leaves at zero.
func (fc *FixtureConfig) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	if fc.TypeCheckBudget > 0 {
		cfg.TypeCheckBudget = fc.TypeCheckBudget
	}
	if fc.TestRunBudget > 0 {
		cfg.TestRunBudget = fc.TestRunBudget
	}
	return cfg
}

// ToDiagnostic converts a FixtureDiagnostic to a domain diagnostic.
func (fd *FixtureDiagnostic) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Source:   diag.Source(fd.Source),
		Kind:     diag.Kind(fd.Kind),
		Location: fd.Location,
		Message:  fd.Message,
	}
}

func toDiagnostics(fds []FixtureDiagnostic) []diag.Diagnostic {
	if len(fds) == 0 {
		return nil
	}
	out := make([]diag.Diagnostic, 0, len(fds))
	for i := range fds {
		out = append(out, fds[i].ToDiagnostic())
	}
	return out
}

// FromDiagnostic converts a domain diagnostic to its fixture form.
func FromDiagnostic(d diag.Diagnostic) FixtureDiagnostic {
	return FixtureDiagnostic{
		Source:   string(d.Source),
		Kind:     string(d.Kind),
		Location: d.Location,
		Message:  d.Message,
	}
}

// #endregion fixture-loader
