// Package toolchain implements the pipeline's external tool collaborators
// as local subprocesses: mypy for type checking, stubgen for signature
// extraction, and the Python unittest runner for test execution. Artifacts
// are snapshotted into a per-run workspace directory so every attempt's
// input and errors stay inspectable after the run.
package toolchain

// #region imports
import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// #endregion

// #region config

// Config locates the Python tooling and the workspace.
type Config struct {
	PythonBin  string
	MypyBin    string
	StubgenBin string
	// Dir is the workspace directory, recreated at run start.
	Dir string
	// Timeout bounds each tool invocation.
	Timeout time.Duration
}

// DefaultConfig returns the conventional tool names and workspace location.
func DefaultConfig() Config {
	return Config{
		PythonBin:  "python3",
		MypyBin:    "mypy",
		StubgenBin: "stubgen",
		Dir:        filepath.Join("target", "coder_agent"),
		Timeout:    2 * time.Minute,
	}
}

// #endregion

// #region workspace

// Workspace is a scratch directory of numbered artifact snapshots for one
// run. Not safe for concurrent use; one run owns one workspace.
type Workspace struct {
	dir string
	seq map[string]int
}

// NewWorkspace recreates dir empty and returns a workspace over it.
func NewWorkspace(dir string) (*Workspace, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear workspace %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}
	return &Workspace{dir: dir, seq: make(map[string]int)}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Save writes content as the next numbered snapshot for prefix, e.g.
// typecheck_00.py, typecheck_01.py, and returns its path.
func (w *Workspace) Save(prefix, ext, content string) (string, error) {
	n := w.seq[prefix]
	w.seq[prefix] = n + 1
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%02d%s", prefix, n, ext))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return path, nil
}

// SaveErrors writes raw tool output next to the snapshot it belongs to.
func (w *Workspace) SaveErrors(snapshotPath, output string) {
	base := snapshotPath[:len(snapshotPath)-len(filepath.Ext(snapshotPath))]
	// Best effort; a failed dump must not fail the check.
	_ = os.WriteFile(base+"_errors.txt", []byte(output), 0o644)
}

// #endregion
