package agent

// #region imports
import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #endregion

// #region system-prompts

const codeGeneratorSystem = "You are a programmer. Write Python code to solve the user's problem. " +
	"Provide only the code, do not include explanations. " +
	"Only write functions without side effects, so no main function. " +
	"Add type annotations to all function definitions. " +
	"Write doc strings for all functions."

const testGeneratorSystem = "You are a test designer. Write relevant Python unit tests to " +
	"verify the correctness of code solving the user's problem. Use the unit " +
	"test framework in Python. Provide only the test code, do not include " +
	"explanations. Write type annotations for the test code. " +
	"Use math.isnan() to check if a number is NaN. " +
	"Do not use any external libraries. " +
	"Do not try with very large inputs. " +
	"Do not replicate the function definitions."

// #endregion

// #region build-prompt

// BuildPrompt assembles the (system, user) message pair for a role and
// request context.
func BuildPrompt(role Role, req Context) (system, user string, err error) {
	switch role {
	case RoleCodeGenerator:
		if len(req.Diagnostics) > 0 {
			return codeGeneratorSystem, revisionPrompt(req), nil
		}
		return codeGeneratorSystem, initialPrompt(req.Problem), nil
	case RoleTestGenerator:
		return testGeneratorSystem, testPrompt(req), nil
	default:
		return "", "", fmt.Errorf("unknown agent role %q", role)
	}
}

// #endregion

// #region code-generator-prompts

func initialPrompt(problem string) string {
	return fmt.Sprintf(
		"Problem:\n    %s\n\nWrite functions with type annotations which could solve the user's problem.",
		problem,
	)
}

// revisionPrompt asks for a corrected implementation. The failure framing
// follows the diagnostic kind: type errors ask to satisfy the type checker,
// test failures ask to conform to the tests. The tests themselves are never
// part of the request.
func revisionPrompt(req Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The specification of the code is:\n    %s\n\n", req.Problem)
	fmt.Fprintf(&b, "The code was:\n```\n%s\n```\n\n", req.Artifact)

	if req.Diagnostics[0].Kind == diag.KindTestFailure {
		b.WriteString("However, the tests failed with the following errors:\n")
		b.WriteString(indent(diag.Render(req.Diagnostics), "    "))
		b.WriteString("\n\nPlease correct the code to make it pass the tests.")
	} else {
		b.WriteString("However, type checking failed with the following errors:\n")
		b.WriteString(indent(diag.Render(req.Diagnostics), "    "))
		b.WriteString("\n\nPlease correct the code to make it pass type checking.")
	}
	return b.String()
}

// #endregion

// #region test-generator-prompt

func testPrompt(req Context) string {
	return fmt.Sprintf(
		"Problem:\n    %s\n\nThe definitions of the functions to write tests for are as follows:\n```\n%s\n```",
		req.Problem, req.Signatures,
	)
}

// #endregion

// #region helpers

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// #endregion
