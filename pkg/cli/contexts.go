package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/atidcollege/bugtracker-automation/pkg/logger"
	"github.com/atidcollege/bugtracker-automation/pkg/mobilecontext"
	"github.com/atidcollege/bugtracker-automation/pkg/session"
)

var contextsCommand = &cli.Command{
	Name:  "contexts",
	Usage: "Start a session and print the available automation contexts",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		m := session.NewManager(cfg, cfg.DeviceList()[0], sessionOptions...)
		driver, err := m.Start(contextOf(c))
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Quit(); err != nil {
				logger.Warn("%v", err)
			}
		}()

		contexts := mobilecontext.New(driver, cfg.AppPackage)
		current, err := contexts.Current()
		if err != nil {
			return err
		}
		available, err := contexts.Available()
		if err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "Session: %s\n", driver.SessionID())
		for _, name := range available {
			marker := " "
			if name == current {
				marker = "*"
			}
			fmt.Fprintf(c.App.Writer, "%s %s\n", marker, name)
		}
		return nil
	},
}
