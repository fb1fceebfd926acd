package agent

// #region imports
import "context"

// #endregion

// #region backend

// Backend is a chat-completion LLM backend. One backend serves both agent
// roles; role differences live entirely in the prompts.
type Backend interface {
	// ChatCompletion sends a system+user message pair and returns the
	// model's text response.
	ChatCompletion(ctx context.Context, system, user string) (string, error)
}

// #endregion

// #region params

// Params are the generation knobs shared by all chat backends.
type Params struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// DefaultParams returns the generation defaults: deterministic sampling,
// bounded output, backend-specific default model (empty = backend picks).
func DefaultParams() Params {
	return Params{
		Temperature: 0.0,
		MaxTokens:   1500,
	}
}

// #endregion
