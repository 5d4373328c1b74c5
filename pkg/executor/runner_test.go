package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/driver/mock"
	"github.com/atidcollege/bugtracker-automation/pkg/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) RunnerConfig {
	t.Helper()
	return RunnerConfig{
		OutputDir:     t.TempDir(),
		DriverName:    "mock",
		RunnerVersion: "test",
		Data:          bugdata.FromBugs([]bugdata.Bug{{BugID: 7, Title: "Crash"}}),
	}
}

func passing(name string) Scenario {
	return Scenario{Name: name, Group: "smoke", Run: func(ctx context.Context, env *Env) error {
		env.Step("doing %s", name)
		return env.Check(true, "%s ok", name)
	}}
}

func failing(name string, err error) Scenario {
	return Scenario{Name: name, Group: "create", Run: func(ctx context.Context, env *Env) error {
		return err
	}}
}

func readDetail(t *testing.T, dir string, entry report.ScenarioEntry) report.ScenarioDetail {
	t.Helper()
	_, details, err := report.ReadReport(dir)
	require.NoError(t, err)
	for _, d := range details {
		if d.ID == entry.ID {
			return d
		}
	}
	t.Fatalf("no detail for %s", entry.ID)
	return report.ScenarioDetail{}
}

func TestRunner_AllPassed(t *testing.T) {
	cfg := testConfig(t)
	res, err := New(mock.New(), "emulator-5554", cfg).Run(context.Background(),
		[]Scenario{passing("one"), passing("two")})
	require.NoError(t, err)

	assert.Equal(t, report.StatusPassed, res.Status)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Passed)
	assert.Equal(t, "emulator-5554", res.Scenarios[1].Device)

	index, details, err := report.ReadReport(cfg.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, report.StatusPassed, index.Status)
	assert.Equal(t, "com.atidcollege.bugtracker", index.App.Package)
	require.Len(t, details, 2)

	var msgs []string
	for _, e := range details[0].Entries {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"Test execution started", "doing one", "one ok", "Test completed successfully"}, msgs)
}

func TestRunner_FailureCapturesScreenshot(t *testing.T) {
	cfg := testConfig(t)
	d := mock.New()
	d.PNG = []byte("fake-png")
	notFound := core.NewElementNotFoundError("Add Bug", core.ByUiAutomator, "not on screen")

	res, err := New(d, "dev", cfg).Run(context.Background(), []Scenario{failing("broken", notFound)})
	require.NoError(t, err)
	require.Equal(t, report.StatusFailed, res.Status)
	assert.Contains(t, res.Scenarios[0].Error, "Element not found: Add Bug")

	index, _, err := report.ReadReport(cfg.OutputDir)
	require.NoError(t, err)
	detail := readDetail(t, cfg.OutputDir, index.Scenarios[0])

	var shot string
	var failure *report.Error
	for _, e := range detail.Entries {
		if e.Screenshot != "" {
			shot = e.Screenshot
		}
		if e.Error != nil {
			failure = e.Error
		}
	}
	require.NotEmpty(t, shot)
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, filepath.FromSlash(shot)))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), data)

	require.NotNil(t, failure)
	assert.Equal(t, "element_not_found", failure.Type)
	require.NotNil(t, index.Scenarios[0].Error)
}

func TestRunner_StopOnFail(t *testing.T) {
	cfg := testConfig(t)
	cfg.StopOnFail = true
	res, err := New(mock.New(), "dev", cfg).Run(context.Background(), []Scenario{
		passing("first"), failing("second", errors.New("boom")), passing("third"),
	})
	require.NoError(t, err)

	assert.Equal(t, report.StatusPassed, res.Scenarios[0].Status)
	assert.Equal(t, report.StatusFailed, res.Scenarios[1].Status)
	assert.Equal(t, report.StatusSkipped, res.Scenarios[2].Status)
	assert.Equal(t, "run stopped after a failure", res.Scenarios[2].Error)
	assert.Equal(t, 1, res.Skipped)
}

func TestRunner_ContinuesAfterFailure(t *testing.T) {
	res, err := New(mock.New(), "dev", testConfig(t)).Run(context.Background(), []Scenario{
		failing("first", errors.New("boom")), passing("second"),
	})
	require.NoError(t, err)
	assert.Equal(t, report.StatusPassed, res.Scenarios[1].Status)
	assert.Equal(t, report.StatusFailed, res.Status)
}

func TestRunner_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	s := Scenario{Name: "never", Run: func(ctx context.Context, env *Env) error {
		ran = true
		return nil
	}}
	res, err := New(mock.New(), "dev", testConfig(t)).Run(ctx, []Scenario{s, s})
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "run cancelled", res.Scenarios[0].Error)
}

func TestRunner_CancelledMidScenario(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := Scenario{Name: "interrupted", Run: func(ctx context.Context, env *Env) error {
		cancel()
		return ctx.Err()
	}}
	res, err := New(mock.New(), "dev", testConfig(t)).Run(ctx, []Scenario{s, passing("after")})
	require.NoError(t, err)
	assert.Equal(t, report.StatusSkipped, res.Scenarios[0].Status)
	assert.Equal(t, report.StatusSkipped, res.Scenarios[1].Status)
	assert.Equal(t, report.StatusPassed, res.Status)
}

func TestRunner_SkipAndPanic(t *testing.T) {
	cfg := testConfig(t)
	res, err := New(mock.New(), "dev", cfg).Run(context.Background(), []Scenario{
		{Name: "skips", Run: func(ctx context.Context, env *Env) error { return Skip("no webview on %s", env.Device) }},
		{Name: "panics", Run: func(ctx context.Context, env *Env) error { panic("nil page") }},
		{Name: "empty"},
	})
	require.NoError(t, err)

	assert.Equal(t, report.StatusSkipped, res.Scenarios[0].Status)
	assert.Contains(t, res.Scenarios[0].Error, "no webview on dev")
	assert.Equal(t, report.StatusFailed, res.Scenarios[1].Status)
	assert.Contains(t, res.Scenarios[1].Error, "scenario panicked: nil page")
	assert.Equal(t, report.StatusSkipped, res.Scenarios[2].Status)

	index, _, err := report.ReadReport(cfg.OutputDir)
	require.NoError(t, err)
	detail := readDetail(t, cfg.OutputDir, index.Scenarios[1])
	last := detail.Entries[len(detail.Entries)-1]
	require.NotNil(t, last.Error)
	assert.Contains(t, last.Error.Stack, "runtime/debug.Stack")
}

func TestRunner_SetupRunsBeforeEachScenario(t *testing.T) {
	cfg := testConfig(t)
	calls := 0
	cfg.Setup = func(ctx context.Context, env *Env) error {
		calls++
		if calls == 2 {
			return errors.New("app not in foreground")
		}
		return nil
	}
	res, err := New(mock.New(), "dev", cfg).Run(context.Background(), []Scenario{passing("a"), passing("b")})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, report.StatusFailed, res.Scenarios[1].Status)
	assert.Equal(t, "setup: app not in foreground", res.Scenarios[1].Error)
}

func TestRunner_EnvWiring(t *testing.T) {
	cfg := testConfig(t)
	d := mock.New()
	var checkErr error
	s := Scenario{Name: "env", Run: func(ctx context.Context, env *Env) error {
		assert.Same(t, d, env.Pages.Driver())
		bug, err := env.Data.Bug(0)
		require.NoError(t, err)
		assert.Equal(t, "Crash", bug.Title)
		assert.Equal(t, "dev", env.Device)
		checkErr = env.Check(false, "title is %q", "x")
		return nil
	}}
	_, err := New(d, "dev", cfg).Run(context.Background(), []Scenario{s})
	require.NoError(t, err)

	var ae *AssertionError
	require.ErrorAs(t, checkErr, &ae)
	assert.Equal(t, "assertion failed: title is \"x\"", checkErr.Error())
}

func TestRunner_Callbacks(t *testing.T) {
	cfg := testConfig(t)
	var started []string
	var ended []report.Status
	cfg.OnScenarioStart = func(idx, total int, name, device string) {
		assert.Equal(t, 2, total)
		started = append(started, name)
	}
	cfg.OnScenarioEnd = func(name string, status report.Status, durationMs int64, err error) {
		ended = append(ended, status)
	}
	_, err := New(mock.New(), "dev", cfg).Run(context.Background(), []Scenario{
		passing("a"), failing("b", errors.New("x")),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, started)
	assert.Equal(t, []report.Status{report.StatusPassed, report.StatusFailed}, ended)
}

func TestParallelRunner_SharesQueue(t *testing.T) {
	cfg := testConfig(t)

	var mu sync.Mutex
	perDevice := map[string]int{}
	cleaned := map[string]bool{}
	worker := func(id int, name string) DeviceWorker {
		return DeviceWorker{ID: id, DeviceID: name, Driver: mock.New(), Cleanup: func() error {
			mu.Lock()
			defer mu.Unlock()
			cleaned[name] = true
			return nil
		}}
	}

	var scenarios []Scenario
	for i := 0; i < 6; i++ {
		scenarios = append(scenarios, Scenario{Name: "s", Run: func(ctx context.Context, env *Env) error {
			mu.Lock()
			defer mu.Unlock()
			perDevice[env.Device]++
			return nil
		}})
	}

	pr := NewParallelRunner([]DeviceWorker{worker(0, "a"), worker(1, "b")}, cfg)
	res, err := pr.Run(context.Background(), scenarios)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Passed)
	assert.Equal(t, 6, perDevice["a"]+perDevice["b"])
	assert.Equal(t, map[string]bool{"a": true, "b": true}, cleaned)

	index, _, err := report.ReadReport(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, index.Devices, 2)
	for _, s := range index.Scenarios {
		assert.Contains(t, []string{"a", "b"}, s.Device)
	}
}

func TestParallelRunner_CleanupErrorIsNotFatal(t *testing.T) {
	w := DeviceWorker{DeviceID: "a", Driver: mock.New(), Cleanup: func() error { return errors.New("quit failed") }}
	res, err := NewParallelRunner([]DeviceWorker{w}, testConfig(t)).Run(context.Background(), []Scenario{passing("x")})
	require.NoError(t, err)
	assert.Equal(t, report.StatusPassed, res.Status)
}

func TestParallelRunner_CleansUpWhenReportCannotBeWritten(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg := testConfig(t)
	cfg.OutputDir = filepath.Join(blocker, "report")

	var cleaned atomic.Int32
	workers := []DeviceWorker{
		{ID: 0, DeviceID: "a", Driver: mock.New(), Cleanup: func() error { cleaned.Add(1); return nil }},
		{ID: 1, DeviceID: "b", Driver: mock.New(), Cleanup: func() error { cleaned.Add(1); return errors.New("quit failed") }},
	}
	_, err := NewParallelRunner(workers, cfg).Run(context.Background(), []Scenario{passing("x")})
	require.Error(t, err)
	assert.Equal(t, int32(2), cleaned.Load())
}

func TestParallelRunner_NoWorkers(t *testing.T) {
	_, err := NewParallelRunner(nil, testConfig(t)).Run(context.Background(), []Scenario{passing("x")})
	assert.EqualError(t, err, "no workers available")
}

func TestScenario_HasTag(t *testing.T) {
	s := Scenario{Tags: []string{"Smoke", "regression"}}
	assert.True(t, s.HasTag("smoke"))
	assert.False(t, s.HasTag("edit"))
}
