// Package scenarios holds the end-to-end tests run against the bug tracker.
package scenarios

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/executor"
	"github.com/atidcollege/bugtracker-automation/pkg/pages"
)

// Groups.
const (
	GroupSmoke  = "smoke"
	GroupCreate = "create"
	GroupEdit   = "edit"
	GroupList   = "list"
	GroupView   = "view"
)

// LaunchTimeout bounds the wait for the first screen after launch.
const LaunchTimeout = 20 * time.Second

// now is replaced in tests to make generated titles predictable.
var now = time.Now

// All returns every scenario in run order.
func All() []executor.Scenario {
	var all []executor.Scenario
	all = append(all, smokeScenarios()...)
	all = append(all, createScenarios()...)
	all = append(all, editScenarios()...)
	all = append(all, listScenarios()...)
	all = append(all, viewScenarios()...)
	return all
}

// Filter keeps scenarios in group (when set) that carry tag (when set).
// Both comparisons ignore case.
func Filter(all []executor.Scenario, group, tag string) []executor.Scenario {
	var out []executor.Scenario
	for _, s := range all {
		if group != "" && !strings.EqualFold(s.Group, group) {
			continue
		}
		if tag != "" && !s.HasTag(tag) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Groups lists the distinct groups of all, sorted.
func Groups(all []executor.Scenario) []string {
	seen := map[string]bool{}
	var groups []string
	for _, s := range all {
		if !seen[s.Group] {
			seen[s.Group] = true
			groups = append(groups, s.Group)
		}
	}
	sort.Strings(groups)
	return groups
}

// launch waits for the home screen the app opens on.
func launch(ctx context.Context, env *executor.Env) (*pages.HomePage, error) {
	home := pages.NewHomePage(env.Pages)
	if err := env.Pages.WaitUntilLoaded(ctx, home, LaunchTimeout); err != nil {
		return nil, err
	}
	if err := env.Check(home.IsLoaded(), "App launched and home screen is visible"); err != nil {
		return nil, err
	}
	return home, nil
}

// openCreateForm navigates from home to a loaded create form.
func openCreateForm(ctx context.Context, env *executor.Env, home *pages.HomePage) (*pages.CreateBugPage, error) {
	form, err := home.Nav.GoToCreateBug(ctx)
	if err != nil {
		return nil, err
	}
	if err := env.Pages.WaitUntilLoaded(ctx, form, pages.DefaultActionTimeout); err != nil {
		return nil, err
	}
	env.Pass("Bug form loaded successfully")
	return form, nil
}

// findInList opens View Bugs and waits for bug id to be listed.
func findInList(ctx context.Context, env *executor.Env, nav *pages.NavigationBar, id int) (*pages.BugsListPage, error) {
	list, err := nav.GoToViewBugs(ctx)
	if err != nil {
		return nil, err
	}
	if err := list.WaitForBugWithID(ctx, id); err != nil {
		return nil, err
	}
	env.Pass("Bug %d appears in the bugs list", id)
	return list, nil
}

// uniqueTitle appends a timestamp to prefix, e.g. Bug_20251007_141500.
func uniqueTitle(prefix, layout string) string {
	return fmt.Sprintf("%s_%s", prefix, now().Format(layout))
}

const (
	stampLong  = "20060102_150405"
	stampShort = "150405"
)

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// requireNative fails when the session exposes no native context.
func requireNative(env *executor.Env) ([]string, error) {
	contexts, err := env.Driver.GetContexts()
	if err != nil {
		return nil, err
	}
	if err := env.Check(contains(contexts, core.NativeContext), "NATIVE_APP context is available"); err != nil {
		return nil, err
	}
	return contexts, nil
}
