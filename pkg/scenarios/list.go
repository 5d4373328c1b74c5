package scenarios

import (
	"context"

	"github.com/atidcollege/bugtracker-automation/pkg/executor"
	"github.com/atidcollege/bugtracker-automation/pkg/pages"
)

func listScenarios() []executor.Scenario {
	return []executor.Scenario{
		{
			Name:  "List All Bug Titles",
			Group: GroupList,
			Tags:  []string{"list"},
			Run:   listAllTitles,
		},
		{
			Name:  "Filter Bugs by Status",
			Group: GroupList,
			Tags:  []string{"list", "filter"},
			Run:   filterByStatus,
		},
	}
}

func viewScenarios() []executor.Scenario {
	return []executor.Scenario{
		{
			Name:  "View Bugs List - Verify Page Loads",
			Group: GroupView,
			Tags:  []string{"view", "smoke"},
			Run:   viewBugsLoads,
		},
		{
			Name:  "Print All Bugs from Test Data",
			Group: GroupView,
			Tags:  []string{"view", "data"},
			Run:   printTestData,
		},
	}
}

// openList launches and opens the View Bugs tab.
func openList(ctx context.Context, env *executor.Env) (*pages.BugsListPage, error) {
	home, err := launch(ctx, env)
	if err != nil {
		return nil, err
	}
	list, err := home.Nav.GoToViewBugs(ctx)
	if err != nil {
		return nil, err
	}
	if err := env.Pages.WaitUntilLoaded(ctx, list, pages.DefaultActionTimeout); err != nil {
		return nil, err
	}
	env.Pass("Successfully navigated to View Bugs tab")
	return list, nil
}

func listAllTitles(ctx context.Context, env *executor.Env) error {
	env.Step("Starting test: List all bug titles")
	list, err := openList(ctx, env)
	if err != nil {
		return err
	}
	titles, err := list.AllBugTitles(ctx)
	if err != nil {
		return err
	}
	env.Step("Found %d bugs", len(titles))
	for i, t := range titles {
		env.Step("%d. %s", i+1, t)
	}
	if err := env.Check(len(titles) > 0, "Bug list is not empty"); err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, t := range titles {
		seen[t] = true
	}
	return env.Check(len(seen) == len(titles), "Successfully listed %d unique bug titles", len(titles))
}

func filterByStatus(ctx context.Context, env *executor.Env) error {
	list, err := openList(ctx, env)
	if err != nil {
		return err
	}
	for _, f := range []string{pages.FilterAll, pages.FilterOpen, pages.FilterClosed} {
		if err := list.ClickStatusFilter(ctx, f); err != nil {
			return err
		}
		n, err := list.BugCount(ctx)
		if err != nil {
			return err
		}
		env.Pass("Filter %q shows %d bugs", f, n)
	}
	return nil
}

func viewBugsLoads(ctx context.Context, env *executor.Env) error {
	env.Step("Starting test: Verify Bugs List Page Loads")
	list, err := openList(ctx, env)
	if err != nil {
		return err
	}
	return env.Check(list.IsLoaded(), "Bugs list page loaded successfully")
}

func printTestData(ctx context.Context, env *executor.Env) error {
	env.Step("Starting test: Print all bugs from test data")
	bugs, err := env.Data.Bugs()
	if err != nil {
		return err
	}
	if err := env.Check(len(bugs) > 0, "Loaded %d bugs from JSON", len(bugs)); err != nil {
		return err
	}
	for i, b := range bugs {
		env.Step("Bug #%d: %s (ID: %d, Status: %s)", i+1, b.Title, b.BugID, b.Status)
	}
	env.Pass("Successfully printed all %d bugs", len(bugs))
	return nil
}
