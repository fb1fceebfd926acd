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

// #region mypy-checker

// MypyChecker runs mypy over artifact snapshots. A non-zero exit with
// findings is diagnostics, not an error; only failure to execute the tool
// is an error.
type MypyChecker struct {
	cfg Config
	ws  *Workspace
}

// NewMypyChecker creates a checker writing snapshots into ws.
func NewMypyChecker(cfg Config, ws *Workspace) *MypyChecker {
	return &MypyChecker{cfg: cfg, ws: ws}
}

// Check implements the pipeline's TypeChecker contract.
func (c *MypyChecker) Check(ctx context.Context, src string) ([]diag.Diagnostic, error) {
	path, err := c.ws.Save("typecheck", ".py", src)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.MypyBin, path)
	out, runErr := cmd.CombinedOutput()
	output := string(out)

	if runErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("run mypy: %w", runErr)
		}
	}

	diags := diag.FromMypy(output, diag.SourceCode)
	if len(diags) == 0 && runErr != nil {
		// mypy failed without a parseable error line (crash, bad flags,
		// unparseable source). Feed the raw output back as one diagnostic,
		// the same way the original pipeline forwards the whole tool output.
		diags = []diag.Diagnostic{{
			Source:  diag.SourceCode,
			Kind:    diag.KindTypeError,
			Message: strings.TrimSpace(output),
		}}
	}
	if len(diags) > 0 {
		c.ws.SaveErrors(path, output)
		log.Printf("[TOOL] mypy reported %d errors for %s", len(diags), path)
	}
	return diags, nil
}

// #endregion
