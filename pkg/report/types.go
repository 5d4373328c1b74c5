// Package report writes a JSON run report with live updates and renders it
// to HTML.
//
// Layout:
//   - report.json: run index (small, rewritten on every change)
//   - scenarios/<id>.json: ordered log of one scenario
//   - assets/<id>/: screenshots taken during the scenario
//   - report.html and AutomationTestReport_<timestamp>.html
package report

import "time"

// Version is the report schema version.
const Version = "1.0.0"

// Status is the execution state of a run or scenario.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// Index is report.json.
type Index struct {
	Version     string          `json:"version"`
	RunID       string          `json:"runId"`
	UpdateSeq   uint64          `json:"updateSeq"`
	Status      Status          `json:"status"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
	App         App             `json:"app"`
	Devices     []Device        `json:"devices"`
	Runner      RunnerInfo      `json:"runner"`
	Summary     Summary         `json:"summary"`
	Scenarios   []ScenarioEntry `json:"scenarios"`
}

// Device identifies a device a scenario ran on.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Platform string `json:"platform"`
}

// App identifies the application under test.
type App struct {
	Package  string `json:"package"`
	Activity string `json:"activity,omitempty"`
}

// RunnerInfo describes the automation backend.
type RunnerInfo struct {
	Version   string `json:"version"`
	Driver    string `json:"driver"`
	ServerURL string `json:"serverUrl,omitempty"`
}

// Summary counts scenarios by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
	Pending int `json:"pending"`
}

// ScenarioEntry is the index row of a scenario.
type ScenarioEntry struct {
	Index       int        `json:"index"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Group       string     `json:"group,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	DataFile    string     `json:"dataFile"`
	AssetsDir   string     `json:"assetsDir"`
	Status      Status     `json:"status"`
	UpdateSeq   uint64     `json:"updateSeq"`
	Device      string     `json:"device,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Duration    *int64     `json:"duration,omitempty"` // milliseconds
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	Logs        LogSummary `json:"logs"`
	Error       *string    `json:"error,omitempty"`
}

// LogSummary counts a scenario's log entries by level.
type LogSummary struct {
	Total   int `json:"total"`
	Info    int `json:"info"`
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Skip    int `json:"skip"`
	Warning int `json:"warning"`
}

// ScenarioDetail is scenarios/<id>.json.
type ScenarioDetail struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Group     string     `json:"group,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	Device    *Device    `json:"device,omitempty"`
	Status    Status     `json:"status"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  *int64     `json:"duration,omitempty"` // milliseconds
	Entries   []LogEntry `json:"entries"`
}

// Level is the severity of a log entry.
type Level string

// Log levels.
const (
	LevelInfo    Level = "info"
	LevelPass    Level = "pass"
	LevelFail    Level = "fail"
	LevelSkip    Level = "skip"
	LevelWarning Level = "warning"
)

// LogEntry is one line of a scenario log.
type LogEntry struct {
	Seq        int       `json:"seq"`
	Time       time.Time `json:"time"`
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
	Screenshot string    `json:"screenshot,omitempty"` // relative to the report dir
	Error      *Error    `json:"error,omitempty"`
}

// Error describes a scenario failure.
type Error struct {
	Type    string `json:"type"` // error kind, e.g. element_not_found
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ScenarioUpdate carries the index fields a scenario writer changes.
type ScenarioUpdate struct {
	Status    Status
	Device    string
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int64
	Logs      LogSummary
	Error     *string
}
