// Package executor runs scenarios against one or more devices and records
// every outcome in the run report.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
	"github.com/atidcollege/bugtracker-automation/pkg/mobilecontext"
	"github.com/atidcollege/bugtracker-automation/pkg/pages"
	"github.com/atidcollege/bugtracker-automation/pkg/report"
)

// RunnerConfig configures the scenario runner.
type RunnerConfig struct {
	OutputDir  string // Report output directory
	StopOnFail bool   // Skip queued scenarios after the first failure

	App           report.App
	ServerURL     string
	DriverName    string
	RunnerVersion string

	Data        *bugdata.Provider
	PageOptions []pages.Option

	// Setup runs before each scenario, e.g. to bring the app to the front.
	Setup func(ctx context.Context, env *Env) error

	// Live progress callbacks
	OnScenarioStart func(idx, total int, name, device string)
	OnScenarioEnd   func(name string, status report.Status, durationMs int64, err error)
}

// RunResult contains the outcome of a run.
type RunResult struct {
	Status    report.Status
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	Duration  int64 // milliseconds
	ReportDir string
	Scenarios []ScenarioResult
}

// ScenarioResult contains the outcome of one scenario.
type ScenarioResult struct {
	ID       string
	Name     string
	Group    string
	Device   string
	Status   report.Status
	Duration int64
	Error    string
}

// Runner executes scenarios sequentially on one device.
type Runner struct {
	config RunnerConfig
	worker DeviceWorker
}

// New creates a Runner for driver. deviceID labels the device in the report.
func New(driver core.Driver, deviceID string, cfg RunnerConfig) *Runner {
	return &Runner{
		config: cfg,
		worker: DeviceWorker{ID: 0, DeviceID: deviceID, Driver: driver},
	}
}

// Run executes scenarios in order and writes the report.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*RunResult, error) {
	return run(ctx, r.config, []DeviceWorker{r.worker}, scenarios)
}

// run is shared by Runner and ParallelRunner: it builds the report skeleton,
// drains a queue of scenarios with one goroutine per worker and finalizes
// the report.
func run(ctx context.Context, cfg RunnerConfig, workers []DeviceWorker, scenarios []Scenario) (*RunResult, error) {
	if len(workers) == 0 {
		return nil, fmt.Errorf("no workers available")
	}
	if cfg.App.Package == "" {
		cfg.App.Package = pages.AppPackage
	}

	// Workers own their cleanup once they start; before that it is ours.
	started := false
	defer func() {
		if !started {
			cleanupWorkers(workers)
		}
	}()

	infos := make([]report.ScenarioInfo, len(scenarios))
	for i, s := range scenarios {
		infos[i] = report.ScenarioInfo{Name: s.Name, Group: s.Group, Tags: s.Tags}
	}
	devices := make([]report.Device, len(workers))
	for i, w := range workers {
		devices[i] = report.Device{ID: w.DeviceID, Platform: "Android"}
	}
	index, details := report.BuildSkeleton(infos, report.BuilderConfig{
		App:           cfg.App,
		Devices:       devices,
		DriverName:    cfg.DriverName,
		ServerURL:     cfg.ServerURL,
		RunnerVersion: cfg.RunnerVersion,
	})
	if err := report.WriteSkeleton(cfg.OutputDir, index, details); err != nil {
		return nil, err
	}

	indexWriter := report.NewIndexWriter(cfg.OutputDir, index)
	defer indexWriter.Close()
	indexWriter.Start()
	start := time.Now()

	entries := indexWriter.Snapshot().Scenarios
	started = true
	results := runWorkers(ctx, cfg, workers, scenarios, entries, indexWriter)

	indexWriter.End()
	return buildRunResult(cfg.OutputDir, results, time.Since(start).Milliseconds()), nil
}

type scenarioRun struct {
	cfg      RunnerConfig
	worker   DeviceWorker
	scenario Scenario
	entry    report.ScenarioEntry
	index    *report.IndexWriter
	position int
	total    int
}

func (sr scenarioRun) skip(reason string) ScenarioResult {
	sw := report.NewScenarioWriter(sr.entry, sr.index)
	sw.Skip(reason)
	sw.End(report.StatusSkipped)
	return ScenarioResult{
		ID:     sr.entry.ID,
		Name:   sr.scenario.Name,
		Group:  sr.scenario.Group,
		Status: report.StatusSkipped,
		Error:  reason,
	}
}

// execute runs one scenario and records it.
func (sr scenarioRun) execute(ctx context.Context) ScenarioResult {
	log := logger.WithComponent("executor").With().
		Str("scenario", sr.scenario.Name).
		Str("device", sr.worker.DeviceID).
		Logger()

	sw := report.NewScenarioWriter(sr.entry, sr.index)
	sw.SetDevice(report.Device{ID: sr.worker.DeviceID, Platform: "Android"})
	if sr.cfg.OnScenarioStart != nil {
		sr.cfg.OnScenarioStart(sr.position, sr.total, sr.scenario.Name, sr.worker.DeviceID)
	}
	sw.Start()
	sw.Info("Test execution started")
	log.Info().Msg("starting scenario")

	env := sr.env(sw, log)
	start := time.Now()
	stack, err := sr.invoke(ctx, env)
	duration := time.Since(start).Milliseconds()

	status := report.StatusPassed
	switch {
	case err == nil:
		sw.Pass("Test completed successfully")
		log.Info().Int64("duration_ms", duration).Msg("scenario passed")
	case errors.Is(err, ErrSkipped) || (errors.Is(err, context.Canceled) && ctx.Err() != nil):
		status = report.StatusSkipped
		sw.Skip("Test was aborted: " + err.Error())
		log.Warn().Err(err).Msg("scenario skipped")
	default:
		status = report.StatusFailed
		captureFailure(env, sw, log)
		sw.Fail(err, stack)
		log.Error().Err(err).Str("kind", core.KindOf(err).String()).Msg("scenario failed")
	}
	sw.End(status)

	if sr.cfg.OnScenarioEnd != nil {
		sr.cfg.OnScenarioEnd(sr.scenario.Name, status, duration, err)
	}
	res := ScenarioResult{
		ID:       sr.entry.ID,
		Name:     sr.scenario.Name,
		Group:    sr.scenario.Group,
		Device:   sr.worker.DeviceID,
		Status:   status,
		Duration: duration,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func (sr scenarioRun) env(sw *report.ScenarioWriter, log zerolog.Logger) *Env {
	opts := append([]pages.Option{
		pages.WithContexts(mobilecontext.New(sr.worker.Driver, sr.cfg.App.Package)),
	}, sr.cfg.PageOptions...)
	return &Env{
		Driver: sr.worker.Driver,
		Device: sr.worker.DeviceID,
		Pages:  pages.NewBase(sr.worker.Driver, opts...),
		Data:   sr.cfg.Data,
		Log:    log,
		Report: sw,
	}
}

// invoke runs setup and the scenario body, turning a panic into an error
// with its stack.
func (sr scenarioRun) invoke(ctx context.Context, env *Env) (stack string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scenario panicked: %v", r)
			stack = string(debug.Stack())
		}
	}()
	if sr.cfg.Setup != nil {
		if err := sr.cfg.Setup(ctx, env); err != nil {
			return "", fmt.Errorf("setup: %w", err)
		}
	}
	if sr.scenario.Run == nil {
		return "", Skip("scenario has no body")
	}
	return "", sr.scenario.Run(ctx, env)
}

// captureFailure saves a screenshot of the screen the scenario failed on.
func captureFailure(env *Env, sw *report.ScenarioWriter, log zerolog.Logger) {
	png, err := env.Driver.Screenshot()
	if err != nil {
		log.Warn().Err(err).Msg("failure screenshot unavailable")
		return
	}
	if _, err := sw.SaveScreenshot("failure", png); err != nil {
		log.Warn().Err(err).Msg("failed to save screenshot")
	}
}

// buildRunResult aggregates scenario results. Duration is wall clock time.
func buildRunResult(dir string, results []ScenarioResult, wallClock int64) *RunResult {
	out := &RunResult{
		Total:     len(results),
		Duration:  wallClock,
		ReportDir: dir,
		Scenarios: results,
	}
	for _, r := range results {
		switch r.Status {
		case report.StatusPassed:
			out.Passed++
		case report.StatusFailed:
			out.Failed++
		case report.StatusSkipped:
			out.Skipped++
		}
	}
	out.Status = report.StatusPassed
	if out.Failed > 0 {
		out.Status = report.StatusFailed
	}
	return out
}
