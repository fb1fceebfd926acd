package agent

// #region imports
import (
	"context"
	"fmt"
	"log"

	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #endregion

// #region role

// Role selects which generation persona an invocation runs as.
type Role string

const (
	RoleCodeGenerator Role = "code-generator"
	RoleTestGenerator Role = "test-generator"
)

// #endregion

// #region context

// Context bundles everything an invocation may need. Problem is always set.
// Artifact and Diagnostics are set on revision calls; Signatures is set for
// the test generator. Diagnostics always come from checking the artifact in
// this same Context, never from an earlier iteration.
type Context struct {
	Problem     string
	Artifact    string
	Diagnostics []diag.Diagnostic
	Signatures  string
}

// #endregion

// #region interface

// Agent is the LLM capability the pipeline depends on. Implementations must
// return a syntactically well-formed artifact of the expected shape; output
// that is not is surfaced as diagnostics at the next checking step, not as
// an error here.
type Agent interface {
	Invoke(ctx context.Context, role Role, req Context) (string, error)
}

// #endregion

// #region llm-agent

// LLMAgent implements Agent on top of a chat-completion backend.
type LLMAgent struct {
	backend Backend
}

// New creates an agent backed by the given chat backend.
func New(backend Backend) *LLMAgent {
	return &LLMAgent{backend: backend}
}

// Invoke builds the prompt for the role and sends it to the backend.
func (a *LLMAgent) Invoke(ctx context.Context, role Role, req Context) (string, error) {
	system, user, err := BuildPrompt(role, req)
	if err != nil {
		return "", err
	}

	log.Printf("[AGENT] invoke role=%s diagnostics=%d", role, len(req.Diagnostics))
	out, err := a.backend.ChatCompletion(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("%s invocation: %w", role, err)
	}
	return out, nil
}

// #endregion
