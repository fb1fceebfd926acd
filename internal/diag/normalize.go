package diag

// #region imports
import (
	"fmt"
	"regexp"
	"strings"
)

// #endregion

// #region mypy-patterns

// mypy error lines look like:
//
//	code.py:12: error: Incompatible return value type (got "str", expected "int")  [return-value]
//
// Notes and summary lines ("Found 2 errors in 1 file") carry no new
// information for the agent and are skipped.
var mypyErrorPattern = regexp.MustCompile(`^(.+?\.pyi?):(\d+)(?::\d+)?: error: (.*)$`)

// #endregion

// #region from-mypy

// FromMypy normalizes raw mypy output into type-error diagnostics against
// the given source. An empty result means the artifact type-checked clean.
func FromMypy(output string, source Source) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		m := mypyErrorPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		diags = append(diags, Diagnostic{
			Source:   source,
			Kind:     KindTypeError,
			Location: fmt.Sprintf("%s:%s", m[1], m[2]),
			Message:  strings.TrimSpace(m[3]),
		})
	}
	return diags
}

// #endregion

// #region unittest-patterns

// unittest failure blocks are delimited by "=====" rules:
//
//	======================================================================
//	FAIL: test_add (unit.TestAdd.test_add)
//	----------------------------------------------------------------------
//	Traceback (most recent call last):
//	  ...
//	AssertionError: 4 != 3
var unittestHeaderPattern = regexp.MustCompile(`^(FAIL|ERROR): (\S+)\s*(\(.*\))?$`)

const unittestBlockRule = "======================================================================"

// #endregion

// #region from-unittest

// FromUnittest normalizes `python -m unittest` output into test-failure
// diagnostics. Each FAIL/ERROR block becomes one diagnostic whose location
// is the failing test name and whose message is the traceback tail.
func FromUnittest(output string) []Diagnostic {
	var diags []Diagnostic
	blocks := strings.Split(output, unittestBlockRule)
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) == 0 {
			continue
		}
		m := unittestHeaderPattern.FindStringSubmatch(strings.TrimSpace(lines[0]))
		if m == nil {
			continue
		}
		location := m[2]
		diags = append(diags, Diagnostic{
			Source:   SourceMergedUnit,
			Kind:     KindTestFailure,
			Location: location,
			Message:  failureMessage(lines[1:]),
		})
	}
	return diags
}

// failureMessage extracts the traceback body of a failure block, dropping
// the dashed rule under the header and the trailing run summary.
func failureMessage(lines []string) string {
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "----") {
			continue
		}
		if strings.HasPrefix(trimmed, "Ran ") && strings.Contains(trimmed, " test") {
			break
		}
		if strings.HasPrefix(trimmed, "FAILED (") || trimmed == "OK" {
			break
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// #endregion

// #region render

// Render formats diagnostics as a plain text block suitable for inclusion
// in an agent prompt. One line per diagnostic, location first.
func Render(diags []Diagnostic) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteString("\n")
		}
		if d.Location != "" {
			b.WriteString(d.Location)
			b.WriteString(": ")
		}
		b.WriteString(d.Message)
	}
	return b.String()
}

// #endregion
