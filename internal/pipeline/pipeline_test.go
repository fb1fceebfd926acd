package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/danielpatrickdp/coder-agent/internal/agent"
	"github.com/danielpatrickdp/coder-agent/internal/artifact"
	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #region fakes

const goodCode = "def add(a: int, b: int) -> int:\n    \"\"\"Return the sum.\"\"\"\n    return a + b"

const goodTests = "import unittest\n\nclass TestAdd(unittest.TestCase):\n    def test_add(self) -> None:\n        self.assertEqual(add(1, 2), 3)"

// scriptedAgent returns canned artifacts in order and records every
// code-generator request context.
type scriptedAgent struct {
	codeResponses []string
	testResponse  string

	codeCalls    int
	testCalls    int
	codeRequests []agent.Context
}

func (s *scriptedAgent) Invoke(_ context.Context, role agent.Role, req agent.Context) (string, error) {
	if role == agent.RoleTestGenerator {
		s.testCalls++
		return s.testResponse, nil
	}
	s.codeRequests = append(s.codeRequests, req)
	i := s.codeCalls
	s.codeCalls++
	if i < len(s.codeResponses) {
		return s.codeResponses[i], nil
	}
	return s.codeResponses[len(s.codeResponses)-1], nil
}

// scriptedChecker pops one diagnostic list per Check call; an exhausted
// script passes.
type scriptedChecker struct {
	results [][]diag.Diagnostic
	calls   int
}

func (s *scriptedChecker) Check(context.Context, string) ([]diag.Diagnostic, error) {
	i := s.calls
	s.calls++
	if i < len(s.results) {
		return s.results[i], nil
	}
	return nil, nil
}

// scriptedRunner pops one diagnostic list per Run call and records the unit
// sources it was handed.
type scriptedRunner struct {
	results [][]diag.Diagnostic
	calls   int
	units   []string
}

func (s *scriptedRunner) Run(_ context.Context, unitSrc string) ([]diag.Diagnostic, error) {
	s.units = append(s.units, unitSrc)
	i := s.calls
	s.calls++
	if i < len(s.results) {
		return s.results[i], nil
	}
	return nil, nil
}

// projectingExtractor derives the view in-process.
type projectingExtractor struct {
	calls int
}

func (p *projectingExtractor) Extract(_ context.Context, code artifact.CodeArtifact) (artifact.SignatureView, error) {
	p.calls++
	return artifact.Project(code), nil
}

func typeErrors(n int) []diag.Diagnostic {
	diags := make([]diag.Diagnostic, n)
	for i := range diags {
		diags[i] = diag.Diagnostic{Kind: diag.KindTypeError, Location: "code.py:1", Message: "bad type"}
	}
	return diags
}

func testFailures(n int) []diag.Diagnostic {
	diags := make([]diag.Diagnostic, n)
	for i := range diags {
		diags[i] = diag.Diagnostic{Kind: diag.KindTestFailure, Location: "test_add", Message: "AssertionError"}
	}
	return diags
}

func newTestPipeline(a *scriptedAgent, c *scriptedChecker, r *scriptedRunner, cfg Config) (*Pipeline, *projectingExtractor) {
	ext := &projectingExtractor{}
	return New(a, c, ext, r, nil, cfg), ext
}

// #endregion

// #region scenario-tests

// Scenario A: everything passes first try. One code-gen call, one test-gen
// call, one test execution.
func TestRun_FirstTrySuccess(t *testing.T) {
	a := &scriptedAgent{codeResponses: []string{goodCode}, testResponse: goodTests}
	c := &scriptedChecker{}
	r := &scriptedRunner{}
	p, ext := newTestPipeline(a, c, r, Config{TypeCheckBudget: 4, TestRunBudget: 4})

	res, err := p.Run(context.Background(), "sum two numbers")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res.Failure)
	}
	if a.codeCalls != 1 || a.testCalls != 1 {
		t.Errorf("agent calls: code=%d test=%d, want 1/1", a.codeCalls, a.testCalls)
	}
	if ext.calls != 1 {
		t.Errorf("extractor calls = %d, want 1", ext.calls)
	}
	if r.calls != 1 {
		t.Errorf("test runs = %d, want 1", r.calls)
	}
	// Implementation check + merged-unit check.
	if c.calls != 2 {
		t.Errorf("type checks = %d, want 2", c.calls)
	}
	if res.Unit.Tests.Source != goodTests {
		t.Error("test artifact changed between generation and final unit")
	}
}

// Scenario B: type checker fails twice then passes with budget 3.
func TestRun_TypeCheckRecovers(t *testing.T) {
	a := &scriptedAgent{
		codeResponses: []string{"def add(a, b):\n    return a + b", "still bad", goodCode},
		testResponse:  goodTests,
	}
	c := &scriptedChecker{results: [][]diag.Diagnostic{typeErrors(1), typeErrors(1)}}
	r := &scriptedRunner{}
	p, _ := newTestPipeline(a, c, r, Config{TypeCheckBudget: 3, TestRunBudget: 4})

	res, err := p.Run(context.Background(), "sum two numbers")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res.Failure)
	}
	// 3 implementation checks + 1 merged check.
	if c.calls != 4 {
		t.Errorf("type checks = %d, want 4", c.calls)
	}
	// Initial generation + 2 revisions.
	if a.codeCalls != 3 {
		t.Errorf("code-gen calls = %d, want 3", a.codeCalls)
	}
	if a.testCalls != 1 {
		t.Errorf("test-gen calls = %d, want 1", a.testCalls)
	}
}

// Scenario C: type checker never passes with budget 2. Exactly 2 checks and
// 1 revision; test generation never happens.
func TestRun_TypeCheckExhausted(t *testing.T) {
	a := &scriptedAgent{codeResponses: []string{"bad", "worse"}, testResponse: goodTests}
	c := &scriptedChecker{results: [][]diag.Diagnostic{typeErrors(1), typeErrors(2)}}
	r := &scriptedRunner{}
	p, ext := newTestPipeline(a, c, r, Config{TypeCheckBudget: 2, TestRunBudget: 4})

	res, err := p.Run(context.Background(), "sum two numbers")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Failure == nil {
		t.Fatal("expected failure")
	}
	if res.Failure.Reason != ReasonTypeCheckExhausted {
		t.Errorf("reason = %s", res.Failure.Reason)
	}
	if c.calls != 2 {
		t.Errorf("type checks = %d, want 2", c.calls)
	}
	if a.codeCalls != 2 {
		t.Errorf("code-gen calls = %d, want 2 (initial + 1 revision)", a.codeCalls)
	}
	if a.testCalls != 0 || ext.calls != 0 {
		t.Errorf("test generation ran after exhaustion: testCalls=%d extractor=%d", a.testCalls, ext.calls)
	}
	// Exhaustion surfaces the last attempt's diagnostics.
	if len(res.Failure.Diagnostics) != 2 {
		t.Errorf("want last attempt's 2 diagnostics, got %d", len(res.Failure.Diagnostics))
	}
}

// Scenario D: implementation passes alone but the merged unit never
// type-checks (tests reference a renamed function). Terminal failure before
// any test execution.
func TestRun_MergedTypeCheckFailed(t *testing.T) {
	a := &scriptedAgent{codeResponses: []string{goodCode}, testResponse: goodTests}
	c := &scriptedChecker{results: [][]diag.Diagnostic{
		nil,           // implementation passes
		typeErrors(1), // merged unit fails
		typeErrors(1), // revision still fails → budget 2 exhausted
	}}
	r := &scriptedRunner{}
	p, _ := newTestPipeline(a, c, r, Config{TypeCheckBudget: 2, TestRunBudget: 4})

	res, err := p.Run(context.Background(), "sum two numbers")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Failure == nil {
		t.Fatal("expected failure")
	}
	if res.Failure.Reason != ReasonMergedTypeCheckFailed {
		t.Errorf("reason = %s", res.Failure.Reason)
	}
	if r.calls != 0 {
		t.Errorf("test framework ran %d times, want 0", r.calls)
	}
	for _, d := range res.Failure.Diagnostics {
		if d.Source != diag.SourceMergedUnit {
			t.Errorf("diagnostic not stamped as merged-unit: %+v", d)
		}
	}
}

// Scenario E: tests fail on both attempts with budget 2. The code generator
// sees the failure diagnostics but never the test artifact.
func TestRun_TestsExhausted(t *testing.T) {
	a := &scriptedAgent{codeResponses: []string{goodCode}, testResponse: goodTests}
	c := &scriptedChecker{}
	r := &scriptedRunner{results: [][]diag.Diagnostic{testFailures(1), testFailures(1)}}
	p, _ := newTestPipeline(a, c, r, Config{TypeCheckBudget: 4, TestRunBudget: 2})

	res, err := p.Run(context.Background(), "sum two numbers")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Failure == nil {
		t.Fatal("expected failure")
	}
	if res.Failure.Reason != ReasonTestsExhausted {
		t.Errorf("reason = %s", res.Failure.Reason)
	}
	if r.calls != 2 {
		t.Errorf("test runs = %d, want 2", r.calls)
	}
	if a.testCalls != 1 {
		t.Errorf("test-gen calls = %d, want 1", a.testCalls)
	}

	// The revision after the first failure carries test-failure diagnostics
	// and the implementation, never the tests.
	revision := a.codeRequests[len(a.codeRequests)-1]
	if len(revision.Diagnostics) == 0 || revision.Diagnostics[0].Kind != diag.KindTestFailure {
		t.Errorf("revision diagnostics: %+v", revision.Diagnostics)
	}
	if strings.Contains(revision.Artifact, "unittest") {
		t.Errorf("test artifact leaked into revision request: %q", revision.Artifact)
	}
}

// #endregion

// #region property-tests

// The test artifact is byte-for-byte unchanged in every merged unit the
// test runner sees, even across implementation revisions.
func TestRun_TestArtifactImmutableAcrossMerges(t *testing.T) {
	fixed := "def add(a: int, b: int) -> int:\n    \"\"\"Fixed.\"\"\"\n    return a + b"
	a := &scriptedAgent{codeResponses: []string{goodCode, fixed}, testResponse: goodTests}
	c := &scriptedChecker{}
	r := &scriptedRunner{results: [][]diag.Diagnostic{testFailures(1)}}
	p, _ := newTestPipeline(a, c, r, Config{TypeCheckBudget: 4, TestRunBudget: 4})

	res, err := p.Run(context.Background(), "sum two numbers")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res.Failure)
	}
	if len(r.units) != 2 {
		t.Fatalf("test runs = %d, want 2", len(r.units))
	}
	for i, unitSrc := range r.units {
		_, tests, ok := artifact.SplitSource(unitSrc)
		if !ok || tests != goodTests {
			t.Errorf("unit %d does not carry the original test artifact", i)
		}
	}
	if res.Unit.Code.Source != fixed {
		t.Errorf("final code is not the revision: %q", res.Unit.Code.Source)
	}
}

// A merged-unit revision that touches the test half is discarded in favor
// of the canonical test artifact.
func TestRun_MergedRevisionKeepsCanonicalTests(t *testing.T) {
	tampered := goodCode + "\n\n" + artifact.TestSeparator + "\n\ntampered tests"
	a := &scriptedAgent{
		codeResponses: []string{"def add(a, b):\n    return a + b", tampered},
		testResponse:  goodTests,
	}
	c := &scriptedChecker{results: [][]diag.Diagnostic{
		nil,           // implementation passes
		typeErrors(1), // merged unit fails once
	}}
	r := &scriptedRunner{}
	p, _ := newTestPipeline(a, c, r, Config{TypeCheckBudget: 4, TestRunBudget: 4})

	res, err := p.Run(context.Background(), "sum two numbers")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res.Failure)
	}
	if len(r.units) != 1 {
		t.Fatalf("test runs = %d, want 1", len(r.units))
	}
	_, tests, ok := artifact.SplitSource(r.units[0])
	if !ok || tests != goodTests {
		t.Errorf("tampered tests survived the re-merge: %q", tests)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &scriptedAgent{codeResponses: []string{goodCode}, testResponse: goodTests}
	p, _ := newTestPipeline(a, &scriptedChecker{}, &scriptedRunner{}, DefaultConfig())

	res, err := p.Run(ctx, "sum two numbers")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Failure == nil || res.Failure.Reason != ReasonCancelled {
		t.Fatalf("expected cancelled failure, got %+v", res)
	}
	if res.Failure.Diagnostics != nil {
		t.Errorf("cancellation must carry no diagnostics: %+v", res.Failure.Diagnostics)
	}
	if a.codeCalls != 0 {
		t.Errorf("agent invoked after cancellation: %d", a.codeCalls)
	}
}

func TestRetryBudget_Accounting(t *testing.T) {
	b := NewRetryBudget(2)
	if b.Exhausted() {
		t.Error("fresh budget exhausted")
	}
	b.Spend()
	if b.Used != 1 || b.Exhausted() {
		t.Errorf("after one spend: %+v", b)
	}
	b.Spend()
	if !b.Exhausted() {
		t.Errorf("budget not exhausted at max: %+v", b)
	}
	if b.Used > b.Max {
		t.Errorf("used exceeds max: %+v", b)
	}
}

// #endregion
