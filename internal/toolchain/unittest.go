package toolchain

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #endregion

// #region unittest-runner

// UnittestRunner executes a merged unit's tests with the Python unittest
// framework.
type UnittestRunner struct {
	cfg Config
	ws  *Workspace
}

// NewUnittestRunner creates a runner writing snapshots into ws.
func NewUnittestRunner(cfg Config, ws *Workspace) *UnittestRunner {
	return &UnittestRunner{cfg: cfg, ws: ws}
}

// Run implements the pipeline's TestRunner contract.
func (r *UnittestRunner) Run(ctx context.Context, unitSrc string) ([]diag.Diagnostic, error) {
	path, err := r.ws.Save("with_tests", ".py", unitSrc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.PythonBin, "-m", "unittest", path)
	out, runErr := cmd.CombinedOutput()
	output := string(out)

	if runErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("run unittest: %w", runErr)
		}
	}

	diags := diag.FromUnittest(output)
	if len(diags) == 0 && runErr != nil {
		// The unit failed before any test block could be reported (module
		// crashed on import, for example). Forward the raw output.
		diags = []diag.Diagnostic{{
			Source:  diag.SourceMergedUnit,
			Kind:    diag.KindTestFailure,
			Message: strings.TrimSpace(output),
		}}
	}
	if len(diags) > 0 {
		r.ws.SaveErrors(path, output)
		log.Printf("[TOOL] unittest reported %d failures for %s", len(diags), path)
	}
	return diags, nil
}

// #endregion
