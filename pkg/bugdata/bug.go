// Package bugdata loads the bug records the scenarios type into the app.
package bugdata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the app's date format (DD.MM.YYYY).
const DateLayout = "02.01.2006"

var dateRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

// Bug is one bug record as stored in bugs.json.
type Bug struct {
	BugID            int    `json:"bugId"`
	Date             string `json:"date"`
	Title            string `json:"title"`
	StepsToReproduce string `json:"stepsToReproduce"`
	ExpectedResult   string `json:"expectedResult"`
	ActualResult     string `json:"actualResult"`
	Status           string `json:"status"`
	Severity         string `json:"severity"`
	Priority         string `json:"priority"`
	DetectedBy       string `json:"detectedBy"`
	FixedBy          string `json:"fixedBy"`
	DateClosed       string `json:"dateClosed"`
	AttachedFile     string `json:"attachedFile"`
}

// StatusValue returns the parsed status, ok=false when unknown or empty.
func (b Bug) StatusValue() (Status, bool) { return ParseStatus(b.Status) }

// SeverityValue returns the parsed severity, ok=false when unknown or empty.
func (b Bug) SeverityValue() (Severity, bool) { return ParseSeverity(b.Severity) }

// PriorityValue returns the parsed priority, ok=false when unknown or empty.
func (b Bug) PriorityValue() (Priority, bool) { return ParsePriority(b.Priority) }

// ListLabel is the text the bugs list shows for this bug.
func (b Bug) ListLabel() string {
	return fmt.Sprintf("%s (ID: %d)", b.Title, b.BugID)
}

// Validate checks the fields the create form requires.
func (b Bug) Validate() error {
	var problems []string
	if strings.TrimSpace(b.Title) == "" {
		problems = append(problems, "title is required")
	}
	for _, f := range [][2]string{{"date", b.Date}, {"dateClosed", b.DateClosed}} {
		if f[1] == "" {
			continue
		}
		if _, err := ParseDate(f[1]); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", f[0], err))
		}
	}
	if b.Status != "" {
		if _, ok := b.StatusValue(); !ok {
			problems = append(problems, fmt.Sprintf("unknown status %q", b.Status))
		}
	}
	if b.Severity != "" {
		if _, ok := b.SeverityValue(); !ok {
			problems = append(problems, fmt.Sprintf("unknown severity %q", b.Severity))
		}
	}
	if b.Priority != "" {
		if _, ok := b.PriorityValue(); !ok {
			problems = append(problems, fmt.Sprintf("unknown priority %q", b.Priority))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("bug %d: %s", b.BugID, strings.Join(problems, "; "))
	}
	return nil
}

// ParseDate parses DD.MM.YYYY.
func ParseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("date %q is not DD.MM.YYYY", s)
	}
	return time.Parse(DateLayout, s)
}

// SplitDate returns day, month and year of a DD.MM.YYYY date.
func SplitDate(s string) (day, month, year int, err error) {
	t, err := ParseDate(s)
	if err != nil {
		return 0, 0, 0, err
	}
	return t.Day(), int(t.Month()), t.Year(), nil
}

// TitleFromLabel strips the " (ID: n)" suffix the list appends to titles.
func TitleFromLabel(label string) string {
	if i := strings.Index(label, "(ID:"); i >= 0 {
		return strings.TrimSpace(label[:i])
	}
	return strings.TrimSpace(label)
}

// IDFromLabel extracts n from a "... (ID: n)" label.
func IDFromLabel(label string) (int, bool) {
	i := strings.Index(label, "(ID:")
	if i < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(label[i+len("(ID:"):])
	rest = strings.TrimSuffix(rest, ")")
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}
