package scenarios

import (
	"context"

	"github.com/atidcollege/bugtracker-automation/pkg/executor"
	"github.com/atidcollege/bugtracker-automation/pkg/pages"
)

func smokeScenarios() []executor.Scenario {
	return []executor.Scenario{
		{
			Name:  "Smoke - App Launches Successfully",
			Group: GroupSmoke,
			Tags:  []string{"smoke", "sanity"},
			Run:   appLaunches,
		},
		{
			Name:  "Smoke - Navigation to Create Bug Works",
			Group: GroupSmoke,
			Tags:  []string{"smoke", "navigation"},
			Run:   navigateToCreateBug,
		},
		{
			Name:  "Smoke - Navigation Tabs Reachable",
			Group: GroupSmoke,
			Tags:  []string{"smoke", "navigation"},
			Run:   tabsReachable,
		},
	}
}

func appLaunches(ctx context.Context, env *executor.Env) error {
	env.Step("Starting smoke test: App Launch")
	if _, err := launch(ctx, env); err != nil {
		return err
	}
	if err := env.Check(env.Driver.SessionID() != "", "Driver session is active"); err != nil {
		return err
	}
	contexts, err := requireNative(env)
	if err != nil {
		return err
	}
	env.Step("Available contexts: %v", contexts)
	env.Pass("Smoke test passed - App is functional")
	return nil
}

func navigateToCreateBug(ctx context.Context, env *executor.Env) error {
	env.Step("Starting smoke test: Navigation to Create Bug")
	home, err := launch(ctx, env)
	if err != nil {
		return err
	}
	form, err := openCreateForm(ctx, env, home)
	if err != nil {
		return err
	}
	return env.Check(form.IsLoaded(), "Successfully navigated to Create Bug form")
}

func tabsReachable(ctx context.Context, env *executor.Env) error {
	home, err := launch(ctx, env)
	if err != nil {
		return err
	}
	for _, tab := range []string{pages.HomeText, pages.CreateBugText, pages.ViewBugsText} {
		if err := home.Nav.EnsureTabVisible(ctx, tab); err != nil {
			return err
		}
		env.Pass("Tab %q is reachable", tab)
	}
	return nil
}
