package report

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/atidcollege/bugtracker-automation/pkg/logger"
)

const flushDelay = 100 * time.Millisecond

// IndexWriter provides thread-safe updates to report.json. Device workers
// update their scenarios concurrently; progress is debounced, terminal
// states are written at once.
type IndexWriter struct {
	mu      sync.Mutex
	dir     string
	path    string
	index   *Index
	pending map[string]*ScenarioUpdate
	timer   *time.Timer
	closed  bool
	title   string
	log     zerolog.Logger
}

// NewIndexWriter creates a writer for index rooted at dir.
func NewIndexWriter(dir string, index *Index) *IndexWriter {
	return &IndexWriter{
		dir:     dir,
		path:    filepath.Join(dir, IndexFile),
		index:   index,
		pending: make(map[string]*ScenarioUpdate),
		title:   "Automation Test Report",
		log:     logger.WithComponent("report"),
	}
}

// Dir returns the report directory.
func (w *IndexWriter) Dir() string { return w.dir }

// Start marks the run as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.Status = StatusRunning
	w.index.StartTime = now
	w.flushLocked(false)
}

// AddDevice records a device the run uses. Duplicates are ignored.
func (w *IndexWriter) AddDevice(d Device) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, existing := range w.index.Devices {
		if existing.ID == d.ID {
			return
		}
	}
	w.index.Devices = append(w.index.Devices, d)
}

// UpdateScenario queues an update for scenario id.
func (w *IndexWriter) UpdateScenario(id string, update *ScenarioUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if prev, ok := w.pending[id]; ok {
		update = mergeUpdate(prev, update)
	}
	w.pending[id] = update
	if update.Status.IsTerminal() {
		w.flushLocked(false)
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(flushDelay, w.flush)
	}
}

// End marks the run as complete and writes the archived HTML report.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.applyPendingLocked()
	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = w.runStatusLocked()
	w.flushLocked(true)
}

// Close stops the debounce timer and writes anything still pending.
func (w *IndexWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	if len(w.pending) > 0 {
		w.flushLocked(false)
	}
	w.stopTimerLocked()
}

// Snapshot returns a copy of the current index.
func (w *IndexWriter) Snapshot() Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := *w.index
	idx.Devices = append([]Device(nil), w.index.Devices...)
	idx.Scenarios = append([]ScenarioEntry(nil), w.index.Scenarios...)
	return idx
}

func (w *IndexWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.flushLocked(false)
}

func (w *IndexWriter) flushLocked(archive bool) {
	w.applyPendingLocked()
	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = w.summaryLocked()
	w.stopTimerLocked()

	if err := atomicWriteJSON(w.path, w.index); err != nil {
		w.log.Error().Err(err).Str("path", w.path).Msg("failed to write report index")
		return
	}
	if _, err := GenerateHTML(w.dir, HTMLConfig{Title: w.title, Archive: archive}); err != nil {
		w.log.Warn().Err(err).Msg("failed to render html report")
	}
}

func (w *IndexWriter) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *IndexWriter) applyPendingLocked() {
	for id, update := range w.pending {
		w.applyUpdateLocked(id, update)
	}
	w.pending = make(map[string]*ScenarioUpdate)
}

func (w *IndexWriter) applyUpdateLocked(id string, update *ScenarioUpdate) {
	for i := range w.index.Scenarios {
		s := &w.index.Scenarios[i]
		if s.ID != id {
			continue
		}
		s.Status = update.Status
		if update.Device != "" {
			s.Device = update.Device
		}
		if update.StartTime != nil {
			s.StartTime = update.StartTime
		}
		if update.EndTime != nil {
			s.EndTime = update.EndTime
		}
		if update.Duration != nil {
			s.Duration = update.Duration
		}
		if update.Error != nil {
			s.Error = update.Error
		}
		s.Logs = update.Logs
		s.UpdateSeq++
		now := time.Now()
		s.LastUpdated = &now
		return
	}
	w.log.Warn().Str("scenario", id).Msg("update for unknown scenario")
}

// mergeUpdate overlays next on prev so that fields set by an earlier,
// not yet flushed update survive.
func mergeUpdate(prev, next *ScenarioUpdate) *ScenarioUpdate {
	merged := *next
	if merged.Device == "" {
		merged.Device = prev.Device
	}
	if merged.StartTime == nil {
		merged.StartTime = prev.StartTime
	}
	if merged.EndTime == nil {
		merged.EndTime = prev.EndTime
	}
	if merged.Duration == nil {
		merged.Duration = prev.Duration
	}
	if merged.Error == nil {
		merged.Error = prev.Error
	}
	return &merged
}

func (w *IndexWriter) summaryLocked() Summary {
	var s Summary
	for _, sc := range w.index.Scenarios {
		s.Total++
		switch sc.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// runStatusLocked derives the run status: failed if any scenario failed,
// running while any is unfinished, passed otherwise.
func (w *IndexWriter) runStatusLocked() Status {
	failed, done := false, true
	for _, sc := range w.index.Scenarios {
		if sc.Status == StatusFailed {
			failed = true
		}
		if !sc.Status.IsTerminal() {
			done = false
		}
	}
	switch {
	case failed:
		return StatusFailed
	case !done:
		return StatusRunning
	default:
		return StatusPassed
	}
}
