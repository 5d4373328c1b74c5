package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/config"
	"github.com/atidcollege/bugtracker-automation/pkg/executor"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
	"github.com/atidcollege/bugtracker-automation/pkg/pages"
	"github.com/atidcollege/bugtracker-automation/pkg/report"
	"github.com/atidcollege/bugtracker-automation/pkg/scenarios"
	"github.com/atidcollege/bugtracker-automation/pkg/session"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the UI scenarios",
	Description: `Starts one Appium session per device, runs the selected scenarios and
writes the report. With several devices the scenarios are shared between
them. Exits with status 1 when any scenario fails.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "group",
			Aliases: []string{"g"},
			Usage:   "Only run scenarios in this group (smoke, create, edit, list, view)",
		},
		&cli.StringFlag{
			Name:    "tag",
			Aliases: []string{"t"},
			Usage:   "Only run scenarios carrying this tag",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Report base directory (default: reportDir from config); a timestamped subfolder is created",
		},
		&cli.StringFlag{
			Name:  "data",
			Usage: "Test data file (default: testDataFile from config)",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip the remaining scenarios after the first failure",
		},
		&cli.BoolFlag{
			Name:  "all-devices",
			Usage: "Run on every online ADB device, sharing the scenarios between them",
		},
		&cli.BoolFlag{
			Name:  "list",
			Usage: "List the selected scenarios without running them",
		},
	},
	Action: runScenarios,
}

func runScenarios(c *cli.Context) error {
	selected := scenarios.Filter(scenarios.All(), c.String("group"), c.String("tag"))
	if len(selected) == 0 {
		return fmt.Errorf("no scenarios match group %q and tag %q (groups: %s)",
			c.String("group"), c.String("tag"), strings.Join(scenarios.Groups(scenarios.All()), ", "))
	}
	if c.Bool("list") {
		return printScenarios(c.App.Writer, selected)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	base := c.String("output")
	if base == "" {
		base = config.Resolve(cfg.ReportDir)
	}
	outputDir := resolveOutputDir(base, time.Now())

	dataFile := c.String("data")
	if dataFile == "" {
		dataFile = config.Resolve(cfg.TestDataFile)
	}

	ctx := contextOf(c)
	if c.Bool("all-devices") {
		serials, err := detectDevices(ctx)
		if err != nil {
			return err
		}
		cfg.Devices = serials
	}
	workers, err := startWorkers(ctx, cfg)
	if err != nil {
		return err
	}

	out := c.App.Writer
	rc := executor.RunnerConfig{
		OutputDir:     outputDir,
		StopOnFail:    c.Bool("stop-on-fail"),
		App:           report.App{Package: cfg.AppPackage, Activity: cfg.AppActivity},
		ServerURL:     cfg.AppiumServerURL,
		DriverName:    cfg.AutomationName,
		RunnerVersion: Version,
		Data:          bugdata.NewProvider(dataFile),
		PageOptions:   pageOptions(cfg),
		Setup:         foreground(cfg.AppPackage),
		OnScenarioStart: func(idx, total int, name, device string) {
			fmt.Fprintf(out, "  [%d/%d] %s (%s)\n", idx+1, total, name, device)
		},
		OnScenarioEnd: func(name string, status report.Status, durationMs int64, err error) {
			fmt.Fprintf(out, "    %s %s (%s)\n", statusLabel(status), name, formatDuration(durationMs))
			if err != nil && status == report.StatusFailed {
				fmt.Fprintf(out, "      ╰─ %v\n", err)
			}
		},
	}

	fmt.Fprintf(out, "\n  Running %d scenarios on %d device(s)\n\n", len(selected), len(workers))

	var result *executor.RunResult
	if len(workers) == 1 {
		w := workers[0]
		defer func() {
			if err := w.Cleanup(); err != nil {
				logger.Warn("%v", err)
			}
		}()
		result, err = executor.New(w.Driver, w.DeviceID, rc).Run(ctx, selected)
	} else {
		result, err = executor.NewParallelRunner(workers, rc).Run(ctx, selected)
	}
	if err != nil {
		return err
	}

	if err := printSummary(out, result); err != nil {
		return err
	}
	fmt.Fprintln(out, "  Reports:")
	fmt.Fprintf(out, "    HTML:   %s\n", filepath.Join(result.ReportDir, "report.html"))
	fmt.Fprintf(out, "    JSON:   %s\n\n", filepath.Join(result.ReportDir, report.IndexFile))

	// Exit with code 1 if any scenario failed (summary already printed)
	if result.Status != report.StatusPassed {
		return cli.Exit("", 1)
	}
	return nil
}

// attachmentDir holds the files bugs can attach, relative to the project home.
const attachmentDir = "testdata/files"

func pageOptions(cfg *config.Config) []pages.Option {
	return []pages.Option{
		pages.WithWaitTimeout(cfg.ExplicitWait()),
		pages.WithFileAttachment(cfg.EnableFileAttachment),
		pages.WithFileRoot(config.Resolve(attachmentDir)),
	}
}

// resolveOutputDir returns <base>/<timestamp>.
func resolveOutputDir(base string, now time.Time) string {
	return filepath.Join(base, now.Format("2006-01-02_15-04-05"))
}

// startWorkers starts one session per configured device. Sessions already
// started are ended again when a later one fails.
func startWorkers(ctx context.Context, cfg *config.Config) ([]executor.DeviceWorker, error) {
	var workers []executor.DeviceWorker
	for i, udid := range cfg.DeviceList() {
		m := session.NewManager(cfg, udid, sessionOptions...)
		driver, err := m.Start(ctx)
		if err != nil {
			for _, w := range workers {
				_ = w.Cleanup()
			}
			return nil, err
		}
		id := udid
		if id == "" {
			id = cfg.DeviceName
		}
		workers = append(workers, executor.DeviceWorker{
			ID:       i,
			DeviceID: id,
			Driver:   driver,
			Cleanup:  m.Quit,
		})
	}
	return workers, nil
}

// foreground brings the app under test to the front before a scenario when
// a previous one left another package on top.
func foreground(pkg string) func(context.Context, *executor.Env) error {
	return func(_ context.Context, env *executor.Env) error {
		if pkg == "" {
			return nil
		}
		current, err := env.Driver.CurrentPackage()
		if err == nil && current == pkg {
			return nil
		}
		env.Log.Debug().Str("current", current).Msg("activating app")
		return env.Driver.ActivateApp(pkg)
	}
}

func printScenarios(w io.Writer, list []executor.Scenario) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Scenario", "Group", "Tags")
	for i, s := range list {
		if err := table.Append(fmt.Sprint(i+1), s.Name, s.Group, strings.Join(s.Tags, ", ")); err != nil {
			return err
		}
	}
	return table.Render()
}

func printSummary(w io.Writer, result *executor.RunResult) error {
	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.Header("Scenario", "Device", "Status", "Duration")
	for _, sr := range result.Scenarios {
		name := sr.Name
		if len(name) > 48 {
			name = name[:45] + "..."
		}
		if err := table.Append(name, sr.Device, statusLabel(sr.Status), formatDuration(sr.Duration)); err != nil {
			return err
		}
	}
	table.Footer("Total", "", fmt.Sprintf("%d/%d", result.Passed, result.Total), formatDuration(result.Duration))
	if err := table.Render(); err != nil {
		return err
	}

	if result.Failed > 0 {
		fmt.Fprintf(w, "\n  %d failing, %d skipped\n\n", result.Failed, result.Skipped)
	} else {
		fmt.Fprintf(w, "\n  %d skipped\n\n", result.Skipped)
	}
	return nil
}

func statusLabel(s report.Status) string {
	switch s {
	case report.StatusPassed:
		return "✓ PASS"
	case report.StatusFailed:
		return "✗ FAIL"
	case report.StatusSkipped:
		return "- SKIP"
	default:
		return strings.ToUpper(string(s))
	}
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
