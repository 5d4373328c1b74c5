package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/atidcollege/bugtracker-automation/pkg/report"
)

var reportCommand = &cli.Command{
	Name:  "report",
	Usage: "Work with run reports",
	Subcommands: []*cli.Command{
		{
			Name:      "html",
			Usage:     "Regenerate the HTML report from a report directory",
			ArgsUsage: "<report-dir>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "embed",
					Usage: "Inline screenshots so the HTML file is self-contained",
				},
				&cli.BoolFlag{
					Name:  "archive",
					Usage: "Also write a timestamped AutomationTestReport_<ts>.html copy",
					Value: true,
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "HTML output path (default: <report-dir>/report.html)",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return fmt.Errorf("exactly one report directory is required")
				}
				path, err := report.GenerateHTML(c.Args().First(), report.HTMLConfig{
					OutputPath:  c.String("output"),
					EmbedAssets: c.Bool("embed"),
					Archive:     c.Bool("archive"),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "HTML report: %s\n", path)
				return nil
			},
		},
	},
}
