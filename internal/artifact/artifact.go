package artifact

// #region imports
import (
	"regexp"
	"strings"
)

// #endregion

// #region types

// Param is one parameter of a generated function definition.
type Param struct {
	Name string
	Type string
}

// Function is one parsed function definition from a code artifact.
type Function struct {
	Name      string
	Params    []Param
	Return    string
	Docstring string
}

// CodeArtifact is an implementation artifact: the cleaned source text plus a
// best-effort parse of its function definitions. The source text is the
// authoritative form; parsing exists for the signature projection and for
// reporting, and a parse miss is not an error (a malformed artifact surfaces
// as ordinary diagnostics at the next type check).
type CodeArtifact struct {
	Source    string
	Functions []Function
}

// TestArtifact is a test artifact. It is generated exactly once per run and
// never modified afterward.
type TestArtifact struct {
	Source string
}

// SignatureView is a body-stripped, read-only projection of a code artifact:
// signatures and docstrings only. Derived, never mutated independently.
type SignatureView struct {
	Stub string
}

// #endregion

// #region clean

// Fenced code blocks as LLMs like to emit them. Same shape the original
// pipeline strips before handing code to any tool.
var codeBlockPattern = regexp.MustCompile("(?mi)^```(?:python)?[ \t]*\r?\n((?s).*?)\r?\n```[ \t]*(?:\r?\n|$)")

// Clean strips a surrounding markdown code fence from raw agent output.
// Output without a fence is returned trimmed but otherwise untouched.
func Clean(raw string) string {
	if m := codeBlockPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// #endregion

// #region parse

var defPattern = regexp.MustCompile(`(?m)^def[ \t]+([A-Za-z_]\w*)[ \t]*\(([^)]*)\)[ \t]*(?:->[ \t]*([^:]+?))?[ \t]*:`)

var docstringPattern = regexp.MustCompile(`(?s)^\s*(?:"""(.*?)"""|'''(.*?)''')`)

// ParseCode cleans raw agent output and parses its function definitions.
func ParseCode(raw string) CodeArtifact {
	src := Clean(raw)
	return CodeArtifact{
		Source:    src,
		Functions: parseFunctions(src),
	}
}

// ParseTests cleans raw test-generator output into a test artifact.
func ParseTests(raw string) TestArtifact {
	return TestArtifact{Source: Clean(raw)}
}

func parseFunctions(src string) []Function {
	var fns []Function
	matches := defPattern.FindAllStringSubmatchIndex(src, -1)
	for _, idx := range matches {
		name := src[idx[2]:idx[3]]
		params := src[idx[4]:idx[5]]
		ret := ""
		if idx[6] >= 0 {
			ret = strings.TrimSpace(src[idx[6]:idx[7]])
		}
		fn := Function{
			Name:   name,
			Params: parseParams(params),
			Return: ret,
		}
		if m := docstringPattern.FindStringSubmatch(src[idx[1]:]); m != nil {
			doc := m[1]
			if doc == "" {
				doc = m[2]
			}
			fn.Docstring = strings.TrimSpace(doc)
		}
		fns = append(fns, fn)
	}
	return fns
}

func parseParams(raw string) []Param {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []Param
	for _, piece := range splitTopLevel(raw) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		// Drop default values.
		if eq := strings.Index(piece, "="); eq >= 0 {
			piece = strings.TrimSpace(piece[:eq])
		}
		name, typ := piece, ""
		if colon := strings.Index(piece, ":"); colon >= 0 {
			name = strings.TrimSpace(piece[:colon])
			typ = strings.TrimSpace(piece[colon+1:])
		}
		params = append(params, Param{Name: name, Type: typ})
	}
	return params
}

// splitTopLevel splits on commas not nested inside brackets, so
// "x: dict[str, int], y: int" yields two pieces.
func splitTopLevel(s string) []string {
	var pieces []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				pieces = append(pieces, s[start:i])
				start = i + 1
			}
		}
	}
	pieces = append(pieces, s[start:])
	return pieces
}

// #endregion

// #region names

// FunctionNames returns the parsed function names in definition order.
func (c CodeArtifact) FunctionNames() []string {
	names := make([]string, len(c.Functions))
	for i, fn := range c.Functions {
		names[i] = fn.Name
	}
	return names
}

// #endregion
