package bugdata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

const sampleJSON = `[
  {"bugId": 7, "date": "01.02.2025", "title": "Crash on save", "status": "open", "severity": "Major", "priority": "High"},
  {"bugId": 8, "date": "03.02.2025", "title": "Wrong colour", "status": "Closed", "dateClosed": "05.02.2025"},
  {"bugId": 9, "title": "No status"}
]`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bugs.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseEnums(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"Open", StatusOpen, true},
		{"in progress", StatusInProgress, true},
		{"  CLOSED ", StatusClosed, true},
		{"Fixed", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	if s, ok := ParseSeverity("trivial"); !ok || s != SeverityTrivial {
		t.Errorf("ParseSeverity(trivial) = %q, %v", s, ok)
	}
	if _, ok := ParseSeverity("Blocker"); ok {
		t.Error("Blocker should not parse as a severity")
	}
	if p, ok := ParsePriority("MEDIUM"); !ok || p != PriorityMedium {
		t.Errorf("ParsePriority(MEDIUM) = %q, %v", p, ok)
	}
}

func TestEnumListsAreCopies(t *testing.T) {
	s := Statuses()
	s[0] = "mutated"
	if Statuses()[0] != StatusOpen {
		t.Error("Statuses() exposed its backing array")
	}
	if len(Severities()) != 4 || len(Priorities()) != 4 {
		t.Errorf("severities=%d priorities=%d", len(Severities()), len(Priorities()))
	}
}

func TestBugValidate(t *testing.T) {
	good := Bug{BugID: 1, Title: "ok", Date: "01.01.2025", Status: "Open", Severity: "Minor", Priority: "Low"}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	bad := Bug{BugID: 2, Date: "2025-01-01", Status: "Fixed", Priority: "Urgent"}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"bug 2", "title is required", "date:", `unknown status "Fixed"`, `unknown priority "Urgent"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestDates(t *testing.T) {
	d, m, y, err := SplitDate("09.11.2024")
	if err != nil {
		t.Fatal(err)
	}
	if d != 9 || m != 11 || y != 2024 {
		t.Errorf("SplitDate = %d/%d/%d", d, m, y)
	}

	for _, in := range []string{"9.11.2024", "2024-11-09", "31.02.2024", ""} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) should fail", in)
		}
	}
}

func TestLabels(t *testing.T) {
	b := Bug{BugID: 42, Title: "Broken link"}
	label := b.ListLabel()
	if label != "Broken link (ID: 42)" {
		t.Fatalf("ListLabel() = %q", label)
	}
	if got := TitleFromLabel(label); got != "Broken link" {
		t.Errorf("TitleFromLabel = %q", got)
	}
	if id, ok := IDFromLabel(label); !ok || id != 42 {
		t.Errorf("IDFromLabel = %d, %v", id, ok)
	}
	if _, ok := IDFromLabel("no id here"); ok {
		t.Error("IDFromLabel should fail without an id")
	}
	if got := TitleFromLabel("  plain  "); got != "plain" {
		t.Errorf("TitleFromLabel(plain) = %q", got)
	}
}

func TestProvider(t *testing.T) {
	p := NewProvider(writeSample(t, sampleJSON))

	n, err := p.Count()
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v", n, err)
	}

	first, err := p.Bug(0)
	if err != nil {
		t.Fatal(err)
	}
	want := Bug{BugID: 7, Date: "01.02.2025", Title: "Crash on save", Status: "open", Severity: "Major", Priority: "High"}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("Bug(0) mismatch (-want +got):\n%s", diff)
	}

	if b, err := p.ByID(8); err != nil || b.Title != "Wrong colour" {
		t.Errorf("ByID(8) = %+v, %v", b, err)
	}

	open, err := p.FilterByStatus(StatusOpen)
	if err != nil || len(open) != 1 || open[0].BugID != 7 {
		t.Errorf("FilterByStatus(Open) = %+v, %v", open, err)
	}

	all, _ := p.Bugs()
	all[0].Title = "mutated"
	if again, _ := p.Bug(0); again.Title != "Crash on save" {
		t.Error("Bugs() exposed internal slice")
	}
}

func TestProvider_OutOfRange(t *testing.T) {
	p := FromBugs([]Bug{{BugID: 1, Title: "only"}})

	for _, idx := range []int{-1, 1, 5} {
		_, err := p.Bug(idx)
		if !errors.Is(err, core.ErrTestData) {
			t.Errorf("Bug(%d) error = %v, want test data error", idx, err)
		}
	}
	if _, err := p.ByID(99); !errors.Is(err, core.ErrTestData) {
		t.Errorf("ByID(99) error = %v", err)
	}
}

func TestProvider_LoadErrors(t *testing.T) {
	missing := NewProvider(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := missing.Bugs(); !errors.Is(err, core.ErrTestData) {
		t.Errorf("missing file error = %v", err)
	}

	broken := NewProvider(writeSample(t, `{"not": "an array"}`))
	_, err := broken.Bug(0)
	if !errors.Is(err, core.ErrTestData) {
		t.Errorf("bad json error = %v", err)
	}
	if !strings.Contains(err.Error(), "invalid test data") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestSampleDataFile(t *testing.T) {
	bugs, err := LoadBugs(filepath.Join("..", "..", "testdata", "bugs.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(bugs) == 0 {
		t.Fatal("sample data is empty")
	}
	for _, b := range bugs {
		if err := b.Validate(); err != nil {
			t.Errorf("sample bug invalid: %v", err)
		}
	}
}
