package diag

// #region source

// Source identifies which artifact a diagnostic was produced against.
type Source string

const (
	SourceCode       Source = "code"
	SourceMergedUnit Source = "merged_unit"
)

// #endregion

// #region kind

// Kind categorizes a diagnostic.
type Kind string

const (
	KindTypeError   Kind = "type_error"
	KindTestFailure Kind = "test_failure"
)

// #endregion

// #region diagnostic

// Diagnostic is one structured record produced by a checking or running step.
// It lives for exactly one loop iteration: produced by a check, consumed by
// the next code-generation call, then discarded.
type Diagnostic struct {
	Source   Source `json:"source"`
	Kind     Kind   `json:"kind"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

// #endregion
