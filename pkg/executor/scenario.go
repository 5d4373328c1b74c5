package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/pages"
	"github.com/atidcollege/bugtracker-automation/pkg/report"
)

// Scenario is one end-to-end test against the app.
type Scenario struct {
	Name  string
	Group string
	Tags  []string
	Run   func(ctx context.Context, env *Env) error
}

// HasTag reports whether the scenario carries tag (case-insensitive).
func (s Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Env is what a running scenario gets: the device, a page base bound to it,
// the test data and a report writer.
type Env struct {
	Driver core.Driver
	Device string
	Pages  *pages.Base
	Data   *bugdata.Provider
	Log    zerolog.Logger
	Report *report.ScenarioWriter
}

// Step records a step in the report and the log.
func (e *Env) Step(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	e.Log.Info().Msg(msg)
	e.Report.Info("%s", msg)
}

// Pass records a passed check.
func (e *Env) Pass(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	e.Log.Info().Bool("pass", true).Msg(msg)
	e.Report.Pass("%s", msg)
}

// Check records a pass when ok holds and otherwise returns an assertion
// error carrying the message.
func (e *Env) Check(ok bool, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !ok {
		return &AssertionError{Message: msg}
	}
	e.Pass("%s", msg)
	return nil
}

// AssertionError is returned by Env.Check when a verification fails.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return "assertion failed: " + e.Message
}

// ErrSkipped marks a scenario that chose not to run.
var ErrSkipped = errors.New("scenario skipped")

// Skip returns an error that makes the runner record the scenario as skipped.
func Skip(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSkipped, fmt.Sprintf(format, args...))
}
