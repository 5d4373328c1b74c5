package scenarios

import (
	"context"
	"fmt"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/executor"
)

func createScenarios() []executor.Scenario {
	return []executor.Scenario{
		{
			Name:  "Create Bug - Happy Path (All Required Fields)",
			Group: GroupCreate,
			Tags:  []string{"create", "regression"},
			Run:   createHappyPath,
		},
		{
			Name:  "Create Bug - Data Driven",
			Group: GroupCreate,
			Tags:  []string{"create", "data"},
			Run:   createFromFirstRecord,
		},
		{
			Name:  "Create Bug - Every Test Data Record",
			Group: GroupCreate,
			Tags:  []string{"create", "data", "slow"},
			Run:   createEveryRecord,
		},
		{
			Name:  "Create Bug - Minimal Required Fields",
			Group: GroupCreate,
			Tags:  []string{"create"},
			Run:   createMinimal,
		},
	}
}

// happyPathBug is the fully populated bug the happy path submits.
func happyPathBug() bugdata.Bug {
	return bugdata.Bug{
		BugID:            123,
		Date:             "07.10.2025",
		Title:            uniqueTitle("Bug", stampLong),
		StepsToReproduce: "1. Open app\n2. Tap button X\n3. App crashes",
		ExpectedResult:   "App should not crash",
		ActualResult:     "App crashes with error",
		Status:           string(bugdata.StatusOpen),
		Severity:         string(bugdata.SeverityCritical),
		Priority:         string(bugdata.PriorityCritical),
		DetectedBy:       "QA Automation",
	}
}

func createHappyPath(ctx context.Context, env *executor.Env) error {
	env.Step("Starting test: Create Bug with all required fields")
	home, err := launch(ctx, env)
	if err != nil {
		return err
	}
	bug := happyPathBug()
	env.Step("Creating bug with title: %s", bug.Title)

	form, err := openCreateForm(ctx, env, home)
	if err != nil {
		return err
	}
	if err := form.Fill(ctx, bug); err != nil {
		return err
	}
	env.Step("Bug form submitted")
	ok, err := form.SubmitAndConfirm(ctx)
	if err != nil {
		return err
	}
	return env.Check(ok, "Success message confirms the bug was created")
}

func createFromFirstRecord(ctx context.Context, env *executor.Env) error {
	env.Step("Starting test: Create Bug using data from JSON")
	bug, err := env.Data.Bug(0)
	if err != nil {
		return err
	}
	bug.Title = uniqueTitle(bug.Title, stampShort)
	env.Step("Loaded bug data from JSON: %s", bug.ListLabel())

	if err := createAndFind(ctx, env, bug); err != nil {
		return err
	}
	env.Pass("Bug from JSON created successfully: %s", bug.Title)
	return nil
}

func createEveryRecord(ctx context.Context, env *executor.Env) error {
	bugs, err := env.Data.Bugs()
	if err != nil {
		return err
	}
	if err := env.Check(len(bugs) > 0, "Test data holds %d bugs", len(bugs)); err != nil {
		return err
	}
	for i, bug := range bugs {
		if err := bug.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		bug.Title = uniqueTitle(bug.Title, stampShort)
		env.Step("Bug #%d: %s", i+1, bug.ListLabel())
		if err := createAndFind(ctx, env, bug); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	env.Pass("Created all %d bugs", len(bugs))
	return nil
}

func createMinimal(ctx context.Context, env *executor.Env) error {
	env.Step("Starting test: Create Bug with minimal required fields")
	bug := bugdata.Bug{
		BugID:  999,
		Title:  uniqueTitle("MinimalBug", stampLong),
		Status: string(bugdata.StatusOpen),
	}
	if err := createAndFind(ctx, env, bug); err != nil {
		return err
	}
	env.Pass("Minimal bug created successfully: %s", bug.Title)
	return nil
}

// createAndFind creates bug from the home screen and waits for it in the
// bugs list.
func createAndFind(ctx context.Context, env *executor.Env, bug bugdata.Bug) error {
	home, err := launch(ctx, env)
	if err != nil {
		return err
	}
	form, err := openCreateForm(ctx, env, home)
	if err != nil {
		return err
	}
	list, err := form.CreateBug(ctx, bug)
	if err != nil {
		return err
	}
	env.Step("Bug form submitted")
	_, err = findInList(ctx, env, list.Nav, bug.BugID)
	return err
}
