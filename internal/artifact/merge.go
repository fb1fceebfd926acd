package artifact

// #region imports
import "strings"

// #endregion

// #region separator

// TestSeparator divides the implementation half of a merged unit from the
// test half. Code comes first so the tests can resolve the names they
// reference. The marker doubles as the split point when the implementation
// half must be recovered from a revised unit.
const TestSeparator = "## Tests"

// #endregion

// #region merged-unit

// MergedUnit is a code artifact concatenated with the fixed test artifact:
// the object actually type-checked and executed in the test-run loop.
type MergedUnit struct {
	Code  CodeArtifact
	Tests TestArtifact
}

// Merge concatenates code and tests, code first. Pure and deterministic; no
// deduplication, artifacts are assumed to use disjoint names.
func Merge(code CodeArtifact, tests TestArtifact) MergedUnit {
	return MergedUnit{Code: code, Tests: tests}
}

// Source renders the unit as one checkable/executable source text.
func (u MergedUnit) Source() string {
	return u.Code.Source + "\n\n" + TestSeparator + "\n\n" + u.Tests.Source
}

// #endregion

// #region split

// SplitSource recovers the implementation and test halves of a merged unit
// source. ok is false when the separator is gone, which usually means an
// agent revision rewrote the whole unit as implementation only.
func SplitSource(unitSrc string) (code, tests string, ok bool) {
	idx := strings.Index(unitSrc, TestSeparator)
	if idx < 0 {
		return strings.TrimSpace(unitSrc), "", false
	}
	code = strings.TrimSpace(unitSrc[:idx])
	tests = strings.TrimSpace(unitSrc[idx+len(TestSeparator):])
	return code, tests, true
}

// #endregion
