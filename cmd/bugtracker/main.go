// Command bugtracker runs the Bug Tracker UI automation suite.
package main

import "github.com/atidcollege/bugtracker-automation/pkg/cli"

func main() {
	cli.Execute()
}
