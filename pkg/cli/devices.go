package cli

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/atidcollege/bugtracker-automation/pkg/device"
)

// newADB is replaced in tests.
var newADB = device.New

var devicesCommand = &cli.Command{
	Name:  "devices",
	Usage: "List Android devices attached to the local ADB server",
	Action: func(c *cli.Context) error {
		adb, err := newADB()
		if err != nil {
			return err
		}
		devices, err := adb.List(contextOf(c))
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Fprintln(c.App.Writer, "No devices attached")
			return nil
		}

		table := tablewriter.NewWriter(c.App.Writer)
		table.Header("Serial", "State", "Model", "Type")
		for _, d := range devices {
			kind := "physical"
			if d.IsEmulator() {
				kind = "emulator"
			}
			if err := table.Append(d.Serial, d.State, d.Model, kind); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

// detectDevices returns the serials of every online device.
func detectDevices(ctx context.Context) ([]string, error) {
	adb, err := newADB()
	if err != nil {
		return nil, err
	}
	return adb.OnlineSerials(ctx)
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
