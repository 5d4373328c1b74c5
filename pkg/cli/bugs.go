package cli

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/config"
)

var bugsCommand = &cli.Command{
	Name:  "bugs",
	Usage: "Inspect the bug test data",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "Print every bug in the test data file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "data",
					Usage: "Test data file (default: testDataFile from config)",
				},
				&cli.StringFlag{
					Name:  "status",
					Usage: "Only show bugs with this status (Open, In Progress, Closed)",
				},
			},
			Action: listBugs,
		},
	},
}

func listBugs(c *cli.Context) error {
	path := c.String("data")
	if path == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		path = config.Resolve(cfg.TestDataFile)
	}

	provider := bugdata.NewProvider(path)
	var (
		bugs []bugdata.Bug
		err  error
	)
	if s := c.String("status"); s != "" {
		status, ok := bugdata.ParseStatus(s)
		if !ok {
			return fmt.Errorf("unknown status %q", s)
		}
		bugs, err = provider.FilterByStatus(status)
	} else {
		bugs, err = provider.Bugs()
	}
	if err != nil {
		return err
	}
	return printBugs(c.App.Writer, bugs)
}

func printBugs(w io.Writer, bugs []bugdata.Bug) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Date", "Title", "Status", "Severity", "Priority", "Detected By")
	for _, b := range bugs {
		if err := table.Append(fmt.Sprint(b.BugID), b.Date, b.Title, b.Status, b.Severity, b.Priority, b.DetectedBy); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal bugs: %d\n", len(bugs))
	return nil
}
