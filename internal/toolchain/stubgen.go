package toolchain

// #region imports
import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/coder-agent/internal/artifact"
)

// #endregion

// #region stub-extractor

// StubExtractor derives a signature view with stubgen. When stubgen cannot
// run at all, it falls back to the built-in projection so a missing tool
// degrades the view, not the run.
type StubExtractor struct {
	cfg Config
	ws  *Workspace
}

// NewStubExtractor creates an extractor writing snapshots into ws.
func NewStubExtractor(cfg Config, ws *Workspace) *StubExtractor {
	return &StubExtractor{cfg: cfg, ws: ws}
}

// Extract implements the pipeline's SignatureExtractor contract.
func (e *StubExtractor) Extract(ctx context.Context, code artifact.CodeArtifact) (artifact.SignatureView, error) {
	path, err := e.ws.Save("stub_src", ".py", code.Source)
	if err != nil {
		return artifact.SignatureView{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.cfg.StubgenBin, path, "--include-docstrings", "-o", e.ws.Dir())
	if out, runErr := cmd.CombinedOutput(); runErr != nil {
		if ctx.Err() != nil {
			return artifact.SignatureView{}, ctx.Err()
		}
		log.Printf("[TOOL] stubgen unavailable (%v), using built-in projection: %s",
			runErr, strings.TrimSpace(string(out)))
		return artifact.Project(code), nil
	}

	stubPath := filepath.Join(e.ws.Dir(), strings.TrimSuffix(filepath.Base(path), ".py")+".pyi")
	stub, err := os.ReadFile(stubPath)
	if err != nil {
		return artifact.SignatureView{}, fmt.Errorf("read stub %s: %w", stubPath, err)
	}
	return artifact.SignatureView{Stub: string(stub)}, nil
}

// #endregion
