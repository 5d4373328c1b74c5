// Package cli provides the command-line interface for the bug tracker
// automation suite.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/atidcollege/bugtracker-automation/pkg/config"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
	"github.com/atidcollege/bugtracker-automation/pkg/session"
)

// Version is set at build time.
var Version = "dev"

// sessionOptions are passed to every session manager the CLI creates.
var sessionOptions []session.Option

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Config file (config.json or config.yaml); default looks in the working directory",
		EnvVars: []string{"BUGTRACKER_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL, overrides appiumServerUrl",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"udid"},
		Usage:   "Device ID to run on (can be comma-separated)",
		EnvVars: []string{"BUGTRACKER_DEVICE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"BUGTRACKER_VERBOSE"},
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Also write JSON logs to this file",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "bugtracker",
		Usage:   "Appium UI automation for the Bug Tracker Android app",
		Version: Version,
		Description: `Runs the Bug Tracker UI scenarios against one or more Android devices
through an Appium server and writes a JSON + HTML report.

Examples:
  bugtracker run
  bugtracker run --group smoke --device emulator-5554,emulator-5556
  bugtracker run --all-devices --tag regression
  bugtracker bugs list --data testdata/bugs.json
  bugtracker report html test-output/extent-reports/2025-10-07_14-15-00`,
		Flags:  GlobalFlags,
		Before: setupLogging,
		After: func(*cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			bugsCommand,
			contextsCommand,
			reportCommand,
			devicesCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(c *cli.Context) error {
	level := ""
	if c.Bool("verbose") {
		level = "debug"
	}
	logger.Configure(logger.Config{Level: level, Output: c.App.ErrWriter, Console: true})
	if path := c.String("log-file"); path != "" {
		return logger.Init(path)
	}
	return nil
}

// loadConfig reads the configuration and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if url := c.String("appium-url"); url != "" {
		cfg.AppiumServerURL = url
	}
	if devices := parseDevices(c.String("device")); len(devices) > 0 {
		cfg.Devices = devices
	}
	return cfg, nil
}

// parseDevices splits the --device flag value into device UDIDs.
// Returns nil when no devices are given.
func parseDevices(deviceFlag string) []string {
	var devices []string
	for _, d := range strings.Split(deviceFlag, ",") {
		if d = strings.TrimSpace(d); d != "" {
			devices = append(devices, d)
		}
	}
	return devices
}
