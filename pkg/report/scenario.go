package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ScenarioWriter records the log of one scenario. A scenario runs on one
// goroutine, but page helpers may log from callbacks, so writes are locked.
type ScenarioWriter struct {
	mu        sync.Mutex
	detail    *ScenarioDetail
	path      string
	dir       string
	assetsDir string
	index     *IndexWriter
	shots     int
	log       zerolog.Logger
}

// NewScenarioWriter creates the writer for entry.
func NewScenarioWriter(entry ScenarioEntry, index *IndexWriter) *ScenarioWriter {
	dir := index.Dir()
	return &ScenarioWriter{
		detail: &ScenarioDetail{
			ID:      entry.ID,
			Name:    entry.Name,
			Group:   entry.Group,
			Tags:    entry.Tags,
			Status:  StatusPending,
			Entries: []LogEntry{},
		},
		path:      filepath.Join(dir, filepath.FromSlash(entry.DataFile)),
		dir:       dir,
		assetsDir: filepath.Join(dir, filepath.FromSlash(entry.AssetsDir)),
		index:     index,
		log:       logger.WithComponent("report").With().Str("scenario", entry.Name).Logger(),
	}
}

// ID returns the scenario id.
func (w *ScenarioWriter) ID() string { return w.detail.ID }

// SetDevice records the device the scenario runs on.
func (w *ScenarioWriter) SetDevice(d Device) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.detail.Device = &d
}

// Start marks the scenario as running.
func (w *ScenarioWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.detail.StartTime = now
	w.detail.Status = StatusRunning
	w.flushLocked()
	w.updateIndexLocked(&ScenarioUpdate{StartTime: &now})
}

// Info logs a step.
func (w *ScenarioWriter) Info(format string, args ...interface{}) {
	w.add(LevelInfo, fmt.Sprintf(format, args...), "", nil)
}

// Pass logs a passed check.
func (w *ScenarioWriter) Pass(format string, args ...interface{}) {
	w.add(LevelPass, fmt.Sprintf(format, args...), "", nil)
}

// Warning logs a non-fatal problem.
func (w *ScenarioWriter) Warning(format string, args ...interface{}) {
	w.add(LevelWarning, fmt.Sprintf(format, args...), "", nil)
}

// Skip logs why the scenario did not run.
func (w *ScenarioWriter) Skip(reason string) {
	w.add(LevelSkip, reason, "", nil)
}

// Fail logs err with its kind and stack.
func (w *ScenarioWriter) Fail(err error, stack string) {
	if err == nil {
		return
	}
	w.add(LevelFail, err.Error(), "", &Error{
		Type:    core.KindOf(err).String(),
		Message: err.Error(),
		Stack:   stack,
	})
}

// SaveScreenshot stores a PNG under the scenario's assets dir, logs an entry
// pointing at it and returns its path relative to the report dir.
func (w *ScenarioWriter) SaveScreenshot(label string, data []byte) (string, error) {
	w.mu.Lock()
	w.shots++
	name := fmt.Sprintf("%02d-%s.png", w.shots, unsafeName.ReplaceAllString(label, "_"))
	w.mu.Unlock()

	if err := ensureDir(w.assetsDir); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(w.assetsDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	rel, err := filepath.Rel(w.dir, filepath.Join(w.assetsDir, name))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	w.add(LevelInfo, "Screenshot: "+label, rel, nil)
	return rel, nil
}

// End marks the scenario finished with status.
func (w *ScenarioWriter) End(status Status) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.detail.EndTime = &now
	w.detail.Status = status
	var duration int64
	if !w.detail.StartTime.IsZero() {
		duration = now.Sub(w.detail.StartTime).Milliseconds()
	}
	w.detail.Duration = &duration
	w.flushLocked()

	update := &ScenarioUpdate{EndTime: &now, Duration: &duration}
	if status == StatusFailed {
		for _, e := range w.detail.Entries {
			if e.Error != nil {
				msg := e.Error.Message
				update.Error = &msg
				break
			}
		}
	}
	w.updateIndexLocked(update)
}

// Detail returns a copy of the scenario log.
func (w *ScenarioWriter) Detail() ScenarioDetail {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := *w.detail
	d.Entries = append([]LogEntry(nil), w.detail.Entries...)
	return d
}

func (w *ScenarioWriter) add(level Level, msg, screenshot string, e *Error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.detail.Entries = append(w.detail.Entries, LogEntry{
		Seq:        len(w.detail.Entries) + 1,
		Time:       time.Now(),
		Level:      level,
		Message:    msg,
		Screenshot: screenshot,
		Error:      e,
	})
	w.log.Debug().Str("level", string(level)).Msg(msg)
	w.flushLocked()
	w.updateIndexLocked(&ScenarioUpdate{})
}

func (w *ScenarioWriter) flushLocked() {
	if err := atomicWriteJSON(w.path, w.detail); err != nil {
		w.log.Error().Err(err).Str("path", w.path).Msg("failed to write scenario log")
	}
}

// updateIndexLocked fills status, device and log counts into u and sends it.
func (w *ScenarioWriter) updateIndexLocked(u *ScenarioUpdate) {
	u.Status = w.detail.Status
	if w.detail.Device != nil {
		u.Device = w.detail.Device.ID
	}
	u.Logs = w.logSummaryLocked()
	w.index.UpdateScenario(w.detail.ID, u)
}

func (w *ScenarioWriter) logSummaryLocked() LogSummary {
	var s LogSummary
	for _, e := range w.detail.Entries {
		s.Total++
		switch e.Level {
		case LevelInfo:
			s.Info++
		case LevelPass:
			s.Pass++
		case LevelFail:
			s.Fail++
		case LevelSkip:
			s.Skip++
		case LevelWarning:
			s.Warning++
		}
	}
	return s
}
