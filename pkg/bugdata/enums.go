package bugdata

import "strings"

// Status is a bug's workflow state as shown in the app's dropdown.
type Status string

// Status values.
const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusClosed     Status = "Closed"
)

// Severity is the impact of a bug.
type Severity string

// Severity values.
const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
	SeverityTrivial  Severity = "Trivial"
)

// Priority is the urgency of a bug.
type Priority string

// Priority values.
const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

var (
	statuses   = []Status{StatusOpen, StatusInProgress, StatusClosed}
	severities = []Severity{SeverityCritical, SeverityMajor, SeverityMinor, SeverityTrivial}
	priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
)

// ParseStatus matches a display name case-insensitively.
func ParseStatus(display string) (Status, bool) {
	return parse(statuses, display)
}

// ParseSeverity matches a display name case-insensitively.
func ParseSeverity(display string) (Severity, bool) {
	return parse(severities, display)
}

// ParsePriority matches a display name case-insensitively.
func ParsePriority(display string) (Priority, bool) {
	return parse(priorities, display)
}

// Statuses returns every status in dropdown order.
func Statuses() []Status { return append([]Status(nil), statuses...) }

// Severities returns every severity in dropdown order.
func Severities() []Severity { return append([]Severity(nil), severities...) }

// Priorities returns every priority in dropdown order.
func Priorities() []Priority { return append([]Priority(nil), priorities...) }

func parse[T ~string](values []T, display string) (T, bool) {
	display = strings.TrimSpace(display)
	for _, v := range values {
		if strings.EqualFold(string(v), display) {
			return v, true
		}
	}
	var zero T
	return zero, false
}
