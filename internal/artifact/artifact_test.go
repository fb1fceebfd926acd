package artifact

import (
	"strings"
	"testing"
)

func TestClean_FencedBlock(t *testing.T) {
	raw := "```python\ndef add(a: int, b: int) -> int:\n    return a + b\n```\n"
	got := Clean(raw)
	want := "def add(a: int, b: int) -> int:\n    return a + b"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClean_BareFence(t *testing.T) {
	raw := "```\nx = 1\n```"
	if got := Clean(raw); got != "x = 1" {
		t.Errorf("got %q", got)
	}
}

func TestClean_NoFence(t *testing.T) {
	raw := "  def f() -> None: ...\n"
	if got := Clean(raw); got != "def f() -> None: ..." {
		t.Errorf("got %q", got)
	}
}

func TestClean_SurroundingProse(t *testing.T) {
	raw := "Here is the code:\n```python\ndef f() -> int:\n    return 1\n```\nHope that helps!"
	got := Clean(raw)
	if got != "def f() -> int:\n    return 1" {
		t.Errorf("prose not stripped: %q", got)
	}
}

func TestParseCode_Functions(t *testing.T) {
	src := `def add(a: int, b: int) -> int:
    """Return the sum of a and b."""
    return a + b

def greet(name: str = "world") -> str:
    '''Say hello.'''
    return "hello " + name

def lookup(table: dict[str, int], key: str) -> int | None:
    return table.get(key)
`
	code := ParseCode(src)
	if len(code.Functions) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(code.Functions))
	}

	add := code.Functions[0]
	if add.Name != "add" || add.Return != "int" {
		t.Errorf("bad first function: %+v", add)
	}
	if len(add.Params) != 2 || add.Params[1] != (Param{Name: "b", Type: "int"}) {
		t.Errorf("bad params: %+v", add.Params)
	}
	if add.Docstring != "Return the sum of a and b." {
		t.Errorf("bad docstring: %q", add.Docstring)
	}

	greet := code.Functions[1]
	if len(greet.Params) != 1 || greet.Params[0] != (Param{Name: "name", Type: "str"}) {
		t.Errorf("default value not dropped: %+v", greet.Params)
	}
	if greet.Docstring != "Say hello." {
		t.Errorf("single-quoted docstring: %q", greet.Docstring)
	}

	lookup := code.Functions[2]
	if len(lookup.Params) != 2 {
		t.Fatalf("nested bracket split broken: %+v", lookup.Params)
	}
	if lookup.Params[0].Type != "dict[str, int]" {
		t.Errorf("bad nested type: %q", lookup.Params[0].Type)
	}
	if lookup.Docstring != "" {
		t.Errorf("phantom docstring: %q", lookup.Docstring)
	}
}

func TestParseCode_MalformedIsNotFatal(t *testing.T) {
	code := ParseCode("this is not python at all")
	if code.Source == "" {
		t.Error("source dropped")
	}
	if len(code.Functions) != 0 {
		t.Errorf("expected no functions, got %d", len(code.Functions))
	}
}

func TestFunctionNames(t *testing.T) {
	code := ParseCode("def a() -> int:\n    return 1\n\ndef b() -> int:\n    return 2\n")
	names := code.FunctionNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("got %v", names)
	}
}

func TestMergeAndSplit(t *testing.T) {
	code := CodeArtifact{Source: "def add(a: int, b: int) -> int:\n    return a + b"}
	tests := TestArtifact{Source: "import unittest\n\nclass TestAdd(unittest.TestCase):\n    def test_add(self) -> None:\n        self.assertEqual(add(1, 2), 3)"}

	unit := Merge(code, tests)
	src := unit.Source()

	if !strings.HasPrefix(src, code.Source) {
		t.Error("code must come first")
	}
	if !strings.Contains(src, TestSeparator) {
		t.Error("separator missing")
	}
	if !strings.HasSuffix(src, tests.Source) {
		t.Error("tests must come last")
	}

	gotCode, gotTests, ok := SplitSource(src)
	if !ok {
		t.Fatal("split failed")
	}
	if gotCode != code.Source {
		t.Errorf("code half: %q", gotCode)
	}
	if gotTests != tests.Source {
		t.Errorf("test half: %q", gotTests)
	}
}

func TestSplitSource_SeparatorGone(t *testing.T) {
	code, tests, ok := SplitSource("def f() -> int:\n    return 1")
	if ok {
		t.Error("expected ok=false")
	}
	if code == "" || tests != "" {
		t.Errorf("got code=%q tests=%q", code, tests)
	}
}

func TestProject(t *testing.T) {
	code := ParseCode(`def add(a: int, b: int) -> int:
    """Return the sum."""
    intermediate = a + b
    return intermediate
`)
	view := Project(code)
	if !strings.Contains(view.Stub, "def add(a: int, b: int) -> int:") {
		t.Errorf("signature missing: %q", view.Stub)
	}
	if !strings.Contains(view.Stub, `"""Return the sum."""`) {
		t.Errorf("docstring missing: %q", view.Stub)
	}
	if strings.Contains(view.Stub, "intermediate") {
		t.Errorf("body not elided: %q", view.Stub)
	}
}
