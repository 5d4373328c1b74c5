package scenarios

import (
	"context"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/executor"
	"github.com/atidcollege/bugtracker-automation/pkg/pages"
)

const (
	editBugID      = 888
	editDateClosed = "08.10.2025"
)

func editScenarios() []executor.Scenario {
	return []executor.Scenario{
		{
			Name:  "Edit Bug Status - Open to Closed",
			Group: GroupEdit,
			Tags:  []string{"edit", "regression"},
			Run:   editStatusToClosed,
		},
	}
}

func editStatusToClosed(ctx context.Context, env *executor.Env) error {
	env.Step("Starting test: Edit bug status from Open to Closed")
	bug := bugdata.Bug{
		BugID:            editBugID,
		Date:             "08.10.2025",
		Title:            uniqueTitle("EditTest", stampLong),
		StepsToReproduce: "Steps to reproduce",
		ExpectedResult:   "Expected result",
		ActualResult:     "Actual result",
		DetectedBy:       "QA Team",
	}
	if err := createAndFind(ctx, env, bug); err != nil {
		return err
	}
	env.Pass("Bug created successfully")

	list := pages.NewBugsListPage(env.Pages)
	edit, err := list.ClickEditForBug(ctx, bug.BugID)
	if err != nil {
		return err
	}
	if err := env.Check(edit.IsLoaded(), "Edit form is loaded"); err != nil {
		return err
	}
	env.Step("Opened bug for editing")

	if err := closeBug(ctx, env, edit, editDateClosed); err != nil {
		return err
	}

	final, err := edit.Save(ctx)
	if err != nil {
		return err
	}
	if err := final.WaitForBugWithID(ctx, bug.BugID); err != nil {
		return err
	}
	env.Step("Bug found in list after editing")

	if err := final.ClickStatusFilter(ctx, pages.FilterClosed); err != nil {
		return err
	}
	env.Step("Clicked %s filter", pages.FilterClosed)
	return env.Check(final.IsBugInCurrentFilter(ctx, bug.BugID),
		"Bug status verified successfully - found in %s filter", pages.FilterClosed)
}

// closeBug fills the edit form for a bug fixed and closed on date.
func closeBug(ctx context.Context, env *executor.Env, edit *pages.EditBugPage, date string) error {
	if err := edit.SelectStatus(ctx, bugdata.StatusClosed); err != nil {
		return err
	}
	env.Step("Changed status to Closed")
	if err := edit.SetFixedBy(ctx, "QA Automation"); err != nil {
		return err
	}
	if err := edit.SetDateClosed(ctx, date); err != nil {
		return err
	}
	env.Step("Set date closed to %s", date)
	return edit.SetActualResult(ctx, "Fixed and verified")
}
