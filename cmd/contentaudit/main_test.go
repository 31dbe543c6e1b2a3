package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/contentaudit/internal/schema"
)

// testdataDir is the root of the testdata directory.
const testdataDir = "../../testdata"

// postPath returns the path to a file in testdata/posts/.
func postPath(name string) string {
	return filepath.Join(testdataDir, "posts", name)
}

// runCheckFlags returns a checkFlags populated with safe defaults for testing.
func runCheckFlags(t *testing.T) checkFlags {
	return checkFlags{
		format:            "json",
		severityThreshold: "info",
		out:               filepath.Join(t.TempDir(), "out.json"),
	}
}

func readReport(t *testing.T, path string) schema.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var report schema.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, data)
	}
	return report
}

// asExitErr is a type-assertion helper for *exitErr.
func asExitErr(err error, out **exitErr) bool {
	return errors.As(err, out)
}

func wantExitCode(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected exit code %d, got nil error", code)
	}
	var ee *exitErr
	if !asExitErr(err, &ee) {
		t.Fatalf("expected exitErr, got %T: %v", err, err)
	}
	if ee.code != code {
		t.Errorf("exit code = %d, want %d (%s)", ee.code, code, ee.msg)
	}
}

// --- check ---

func TestRunCheck_Guarantee_Rejected(t *testing.T) {
	flags := runCheckFlags(t)
	if err := runCheck(context.Background(), postPath("guarantee.txt"), flags); err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}

	report := readReport(t, flags.out)
	r := report.Result
	if r.Score != 60 {
		t.Errorf("score = %d, want 60", r.Score)
	}
	if r.RiskTier != schema.TierCritical {
		t.Errorf("tier = %s, want critical", r.RiskTier)
	}
	if r.Approved {
		t.Error("expected rejected")
	}
	if report.Counts[schema.SeverityCritical] != 1 {
		t.Errorf("critical count = %d, want 1", report.Counts[schema.SeverityCritical])
	}
	if report.Result.Platform != schema.PlatformInstagram {
		t.Errorf("platform = %s, want instagram default", report.Result.Platform)
	}
}

func TestRunCheck_Clean_Approved(t *testing.T) {
	flags := runCheckFlags(t)
	flags.platform = "site"
	if err := runCheck(context.Background(), postPath("clean.txt"), flags); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	report := readReport(t, flags.out)
	if !report.Result.Approved || report.Result.Score != 100 {
		t.Errorf("got approved=%v score=%d, want approved 100", report.Result.Approved, report.Result.Score)
	}
	if len(report.Result.Violations) != 0 {
		t.Errorf("expected no violations, got %d", len(report.Result.Violations))
	}
	if report.Result.Platform != schema.PlatformSite {
		t.Errorf("platform = %s, want site", report.Result.Platform)
	}
}

func TestRunCheck_MarkdownFormat(t *testing.T) {
	flags := runCheckFlags(t)
	flags.format = "md"
	if err := runCheck(context.Background(), postPath("guarantee.txt"), flags); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	data, err := os.ReadFile(flags.out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	s := string(data)
	for _, want := range []string{"# Content Audit Report", "REJECTED", "pub-002"} {
		if !strings.Contains(s, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRunCheck_OutputContainsInputMetadata(t *testing.T) {
	flags := runCheckFlags(t)
	path := postPath("superlative.txt")
	if err := runCheck(context.Background(), path, flags); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	report := readReport(t, flags.out)
	if report.Tool != "contentaudit" {
		t.Errorf("tool = %q", report.Tool)
	}
	if report.Input.Path != path {
		t.Errorf("input path = %q, want %q", report.Input.Path, path)
	}
	if report.Input.LineCount != 2 {
		t.Errorf("line count = %d, want 2", report.Input.LineCount)
	}
	if !strings.HasPrefix(report.Input.Hash, "sha256:") {
		t.Errorf("hash = %q, want sha256 prefix", report.Input.Hash)
	}
	if got := report.Lines["o melhor"]; len(got) != 1 || got[0] != 1 {
		t.Errorf("lines for %q = %v, want [1]", "o melhor", got)
	}
}

func TestRunCheck_FailOn(t *testing.T) {
	tests := []struct {
		name   string
		post   string
		failOn string
		code   int // 0 means no error
	}{
		{"critical meets critical", "guarantee.txt", "critical", exitFailOn},
		{"critical meets high", "guarantee.txt", "high", exitFailOn},
		{"high below critical", "superlative.txt", "critical", 0},
		{"rejected on high tier", "superlative.txt", "rejected", exitFailOn},
		{"rejected on clean", "clean.txt", "rejected", 0},
		{"low on clean", "clean.txt", "low", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flags := runCheckFlags(t)
			flags.failOn = tc.failOn
			err := runCheck(context.Background(), postPath(tc.post), flags)
			if tc.code == 0 {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			wantExitCode(t, err, tc.code)
			if _, statErr := os.Stat(flags.out); statErr != nil {
				t.Errorf("report should be written before --fail-on exits: %v", statErr)
			}
		})
	}
}

func TestRunCheck_SeverityThreshold_FiltersOutput(t *testing.T) {
	flags := runCheckFlags(t)
	flags.severityThreshold = "critical"
	if err := runCheck(context.Background(), postPath("guarantee.txt"), flags); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	report := readReport(t, flags.out)

	for _, v := range report.Result.Violations {
		if v.Severity != schema.SeverityCritical {
			t.Errorf("violation %s has severity %s, expected only critical", v.RuleID, v.Severity)
		}
	}
	// Counts and score still reflect every finding.
	total := 0
	for _, n := range report.Counts {
		total += n
	}
	if total != 3 {
		t.Errorf("counts total = %d, want 3", total)
	}
	if report.Result.Score != 60 {
		t.Errorf("score = %d, want 60", report.Result.Score)
	}
	if report.Threshold != schema.SeverityCritical {
		t.Errorf("threshold = %q, want critical", report.Threshold)
	}
}

func TestRunCheck_PatchOut(t *testing.T) {
	flags := runCheckFlags(t)
	flags.patchOut = filepath.Join(t.TempDir(), "fix.patch")
	if err := runCheck(context.Background(), postPath("guarantee.txt"), flags); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	data, err := os.ReadFile(flags.patchOut)
	if err != nil {
		t.Fatalf("reading patch: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "# patch for pub-002") {
		t.Errorf("patch missing pub-002 block:\n%s", s)
	}
	if !strings.Contains(s, "@@") {
		t.Errorf("patch missing hunk header:\n%s", s)
	}
}

func TestRunCheck_FixOut(t *testing.T) {
	flags := runCheckFlags(t)
	flags.fixOut = filepath.Join(t.TempDir(), "fixed.txt")
	if err := runCheck(context.Background(), postPath("superlative.txt"), flags); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	data, err := os.ReadFile(flags.fixOut)
	if err != nil {
		t.Fatalf("reading fixed content: %v", err)
	}
	s := string(data)
	if strings.Contains(strings.ToLower(s), "o melhor") {
		t.Errorf("flagged phrase still present:\n%s", s)
	}
	if !strings.Contains(s, "CRM 123456") {
		t.Errorf("unflagged text lost:\n%s", s)
	}
}

func TestRunCheck_InvalidFlags_ExitsCode3(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*checkFlags)
	}{
		{"format", func(f *checkFlags) { f.format = "xml" }},
		{"fail-on", func(f *checkFlags) { f.failOn = "safe" }},
		{"severity", func(f *checkFlags) { f.severityThreshold = "urgent" }},
		{"platform", func(f *checkFlags) { f.platform = "fax" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flags := runCheckFlags(t)
			tc.apply(&flags)
			wantExitCode(t, runCheck(context.Background(), postPath("clean.txt"), flags), exitInput)
		})
	}
}

func TestRunCheck_MissingFile_ExitsCode3(t *testing.T) {
	flags := runCheckFlags(t)
	wantExitCode(t, runCheck(context.Background(), postPath("missing.txt"), flags), exitInput)
}

func TestRunCheck_BadRules_ExitsCode3(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(bad, []byte("version: x\nrules: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	flags := runCheckFlags(t)
	flags.rulesPath = bad
	wantExitCode(t, runCheck(context.Background(), postPath("clean.txt"), flags), exitInput)
}

func TestRunCheck_ConfigDefaultPlatform(t *testing.T) {
	flags := runCheckFlags(t)
	flags.configPath = filepath.Join(testdataDir, "contentaudit.yaml")
	if err := runCheck(context.Background(), postPath("clean.txt"), flags); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	if got := readReport(t, flags.out).Result.Platform; got != schema.PlatformSite {
		t.Errorf("platform = %s, want site from config", got)
	}
}

// --- batch ---

func TestRunBatch_ItemsInCalendarOrder(t *testing.T) {
	out := filepath.Join(t.TempDir(), "batch.json")
	err := runBatch(context.Background(), filepath.Join(testdataDir, "calendar.yaml"), batchFlags{format: "json", out: out, workers: 2})
	if err != nil {
		t.Fatalf("runBatch: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var report schema.BatchReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}

	wantIDs := []string{"week1-tip", "week1-promo", "week2-offer"}
	if len(report.Items) != len(wantIDs) {
		t.Fatalf("got %d items, want %d", len(report.Items), len(wantIDs))
	}
	for i, id := range wantIDs {
		if report.Items[i].ID != id {
			t.Errorf("item %d = %s, want %s", i, report.Items[i].ID, id)
		}
	}
	if report.Items[0].Date != "2026-05-04" {
		t.Errorf("date = %q", report.Items[0].Date)
	}
	if p := report.Items[1].Result.Platform; p != schema.PlatformLinkedIn {
		t.Errorf("platform = %s, want linkedin", p)
	}
	if report.Stats.TotalAudits != 3 || report.Stats.Approved != 1 {
		t.Errorf("stats = %+v, want 3 audits, 1 approved", report.Stats)
	}
}

func TestRunBatch_FailOnRejected(t *testing.T) {
	flags := batchFlags{format: "md", out: filepath.Join(t.TempDir(), "batch.md"), failOn: "rejected"}
	err := runBatch(context.Background(), filepath.Join(testdataDir, "calendar.yaml"), flags)
	wantExitCode(t, err, exitFailOn)

	data, readErr := os.ReadFile(flags.out)
	if readErr != nil {
		t.Fatalf("reading output: %v", readErr)
	}
	if !strings.Contains(string(data), "# Content Calendar Audit") {
		t.Errorf("markdown missing header:\n%s", data)
	}
}

func TestRunBatch_BadCalendar_ExitsCode3(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "calendar.yaml")
	if err := os.WriteFile(bad, []byte("items:\n  - id: a\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	wantExitCode(t, runBatch(context.Background(), bad, batchFlags{format: "json", out: filepath.Join(t.TempDir(), "o.json")}), exitInput)
}

// --- rules ---

func TestRunRules_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := runRules(&buf, rulesFlags{format: "text"}); err != nil {
		t.Fatalf("runRules: %v", err)
	}
	s := buf.String()
	for _, want := range []string{"Catalog ", "ADVERTISING", "pub-002", "bp-001"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestRunRules_JSONCategory(t *testing.T) {
	var buf bytes.Buffer
	if err := runRules(&buf, rulesFlags{format: "json", category: string(schema.Categories[0])}); err != nil {
		t.Fatalf("runRules: %v", err)
	}
	var doc struct {
		Version string                       `json:"version"`
		Rules   map[string][]json.RawMessage `json:"rules"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, buf.String())
	}
	if doc.Version == "" {
		t.Error("missing version")
	}
	if len(doc.Rules) != 1 || len(doc.Rules[string(schema.Categories[0])]) == 0 {
		t.Errorf("expected only %s rules, got %v keys", schema.Categories[0], len(doc.Rules))
	}
}

func TestRunRules_InvalidFlags(t *testing.T) {
	var buf bytes.Buffer
	wantExitCode(t, runRules(&buf, rulesFlags{format: "yaml"}), exitInput)
	wantExitCode(t, runRules(&buf, rulesFlags{format: "text", category: "astrology"}), exitInput)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"check", "batch", "rules", "serve"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}
