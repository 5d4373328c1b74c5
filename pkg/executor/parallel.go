package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
	"github.com/atidcollege/bugtracker-automation/pkg/report"
)

// DeviceWorker is one device pulling scenarios from the shared queue.
type DeviceWorker struct {
	ID       int
	DeviceID string
	Driver   core.Driver
	Cleanup  func() error // runs once the queue is drained; may be nil
}

type workItem struct {
	scenario Scenario
	index    int
}

// ParallelRunner spreads scenarios across several devices.
type ParallelRunner struct {
	workers []DeviceWorker
	config  RunnerConfig
}

// NewParallelRunner creates a parallel runner with one worker per device.
func NewParallelRunner(workers []DeviceWorker, config RunnerConfig) *ParallelRunner {
	return &ParallelRunner{workers: workers, config: config}
}

// Run executes scenarios with every worker draining the same queue, so a
// fast device picks up more work. All workers share one report.
func (pr *ParallelRunner) Run(ctx context.Context, scenarios []Scenario) (*RunResult, error) {
	return run(ctx, pr.config, pr.workers, scenarios)
}

func runWorkers(ctx context.Context, cfg RunnerConfig, workers []DeviceWorker, scenarios []Scenario,
	entries []report.ScenarioEntry, index *report.IndexWriter) []ScenarioResult {
	log := logger.WithComponent("executor")

	queue := make(chan workItem, len(scenarios))
	for i, s := range scenarios {
		queue <- workItem{scenario: s, index: i}
	}
	close(queue)

	results := make([]ScenarioResult, len(scenarios))
	var stopped atomic.Bool
	var g errgroup.Group

	for _, w := range workers {
		g.Go(func() (err error) {
			if w.Cleanup != nil {
				defer func() {
					if cerr := w.Cleanup(); cerr != nil {
						err = fmt.Errorf("cleanup device %s: %w", w.DeviceID, cerr)
					}
				}()
			}
			for item := range queue {
				sr := scenarioRun{
					cfg:      cfg,
					worker:   w,
					scenario: item.scenario,
					entry:    entries[item.index],
					index:    index,
					position: item.index,
					total:    len(scenarios),
				}
				switch {
				case ctx.Err() != nil:
					results[item.index] = sr.skip("run cancelled")
					continue
				case stopped.Load():
					results[item.index] = sr.skip("run stopped after a failure")
					continue
				}

				res := sr.execute(ctx)
				results[item.index] = res
				if cfg.StopOnFail && res.Status == report.StatusFailed {
					stopped.Store(true)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("device worker finished with error")
	}
	return results
}

// cleanupWorkers releases workers that never ran.
func cleanupWorkers(workers []DeviceWorker) {
	log := logger.WithComponent("executor")
	for _, w := range workers {
		if w.Cleanup == nil {
			continue
		}
		if err := w.Cleanup(); err != nil {
			log.Warn().Err(err).Str("device", w.DeviceID).Msg("cleanup failed")
		}
	}
}
