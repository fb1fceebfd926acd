package artifact

// #region imports
import "strings"

// #endregion

// #region project

// Project derives a signature view directly from a parsed code artifact:
// one stub per function, docstring kept, body elided. This is the built-in
// deterministic projection used when no external stub generator runs (the
// replay harness, and the toolchain's fallback when stubgen is unavailable).
func Project(code CodeArtifact) SignatureView {
	var b strings.Builder
	for i, fn := range code.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("def ")
		b.WriteString(fn.Name)
		b.WriteString("(")
		for j, p := range fn.Params {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
			if p.Type != "" {
				b.WriteString(": ")
				b.WriteString(p.Type)
			}
		}
		b.WriteString(")")
		if fn.Return != "" {
			b.WriteString(" -> ")
			b.WriteString(fn.Return)
		}
		b.WriteString(":\n")
		if fn.Docstring != "" {
			b.WriteString("    \"\"\"")
			b.WriteString(fn.Docstring)
			b.WriteString("\"\"\"\n")
		}
		b.WriteString("    ...\n")
	}
	return SignatureView{Stub: b.String()}
}

// #endregion
