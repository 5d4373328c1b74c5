package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/driver/mock"
	"github.com/atidcollege/bugtracker-automation/pkg/executor"
	"github.com/atidcollege/bugtracker-automation/pkg/pages"
	"github.com/atidcollege/bugtracker-automation/pkg/report"
)

func noPause(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func add(d *mock.Device, loc core.Locator, el *mock.Element) *mock.Element {
	return d.Add(loc.Strategy, loc.Value, el)
}

func byName(t *testing.T, name string) executor.Scenario {
	t.Helper()
	for _, s := range All() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no scenario named %q", name)
	return executor.Scenario{}
}

// runScenario runs s on d and returns its result and the report dir.
func runScenario(t *testing.T, d *mock.Device, s executor.Scenario) (executor.ScenarioResult, string) {
	t.Helper()
	cfg := executor.RunnerConfig{
		OutputDir: t.TempDir(),
		Data:      bugdata.NewProvider("../../testdata/bugs.json"),
		PageOptions: []pages.Option{
			pages.WithPause(noPause),
			pages.WithWaitTimeout(-1),
			pages.WithActionTimeout(-1),
		},
	}
	res, err := executor.New(d, "emulator-5554", cfg).Run(context.Background(), []executor.Scenario{s})
	require.NoError(t, err)
	require.Len(t, res.Scenarios, 1)
	return res.Scenarios[0], cfg.OutputDir
}

func homeScreen() *mock.Device {
	d := mock.New()
	add(d, pages.ByTextContains(pages.WelcomeText), &mock.Element{Text: "Welcome to Bug Tracker"})
	add(d, pages.ByText(pages.HomeText), &mock.Element{})
	add(d, pages.ByText(pages.CreateBugText), &mock.Element{})
	add(d, pages.ByText(pages.ViewBugsText), &mock.Element{})
	return d
}

func TestAll(t *testing.T) {
	all := All()
	names := map[string]bool{}
	for _, s := range all {
		assert.False(t, names[s.Name], "duplicate scenario %q", s.Name)
		names[s.Name] = true
		assert.NotNil(t, s.Run, s.Name)
		assert.NotEmpty(t, s.Tags, s.Name)
	}
	assert.Equal(t, []string{GroupCreate, GroupEdit, GroupList, GroupSmoke, GroupView}, Groups(all))
}

func TestFilter(t *testing.T) {
	all := All()
	tests := []struct {
		name       string
		group, tag string
		want       int
	}{
		{"everything", "", "", len(all)},
		{"smoke group", "smoke", "", 3},
		{"group ignores case", "SMOKE", "", 3},
		{"data tag", "", "data", 3},
		{"group and tag", "view", "smoke", 1},
		{"unknown group", "nope", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Filter(all, tt.group, tt.tag), tt.want)
		})
	}
}

func TestUniqueTitle(t *testing.T) {
	now = func() time.Time { return time.Date(2025, 10, 7, 14, 15, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	assert.Equal(t, "Bug_20251007_141500", uniqueTitle("Bug", stampLong))
	assert.Equal(t, "Crash_141500", uniqueTitle("Crash", stampShort))
	assert.Equal(t, "Bug_20251007_141500", happyPathBug().Title)
}

func TestAppLaunches(t *testing.T) {
	res, dir := runScenario(t, homeScreen(), byName(t, "Smoke - App Launches Successfully"))
	require.Equal(t, report.StatusPassed, res.Status, res.Error)

	_, details, err := report.ReadReport(dir)
	require.NoError(t, err)
	var passes []string
	for _, e := range details[0].Entries {
		if e.Level == report.LevelPass {
			passes = append(passes, e.Message)
		}
	}
	assert.Contains(t, passes, "Driver session is active")
	assert.Contains(t, passes, "NATIVE_APP context is available")
}

func TestAppLaunches_NoNativeContext(t *testing.T) {
	d := homeScreen()
	d.Contexts = []string{"WEBVIEW_com.atidcollege.bugtracker"}

	res, _ := runScenario(t, d, byName(t, "Smoke - App Launches Successfully"))
	assert.Equal(t, report.StatusFailed, res.Status)
	assert.Equal(t, "assertion failed: NATIVE_APP context is available", res.Error)
}

func TestNavigateToCreateBug(t *testing.T) {
	d := homeScreen()
	tab := add(d, core.AccessibilityID(pages.CreateBugAccessibilityID), &mock.Element{
		OnClick: func(d *mock.Device) {
			add(d, pages.ByResourceID(pages.FieldBugID), &mock.Element{})
		},
	})

	res, _ := runScenario(t, d, byName(t, "Smoke - Navigation to Create Bug Works"))
	require.Equal(t, report.StatusPassed, res.Status, res.Error)
	assert.True(t, d.Clicked(tab))
}

func TestTabsReachable_MissingTab(t *testing.T) {
	d := mock.New()
	add(d, pages.ByTextContains(pages.WelcomeText), &mock.Element{})

	res, _ := runScenario(t, d, byName(t, "Smoke - Navigation Tabs Reachable"))
	assert.Equal(t, report.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "Navigation tab 'Home' is not accessible after 3 scroll attempts")
	assert.Len(t, d.Swipes, 3)
}

func TestListAllTitles(t *testing.T) {
	d := homeScreen()
	add(d, core.AccessibilityID(pages.ViewBugsAccessibilityID), &mock.Element{})
	add(d, core.AccessibilityID(pages.CreateBugAccessibilityID),
		&mock.Element{Attributes: map[string]string{"focused": "false"}})
	add(d, pages.ByResourceID(pages.BugListID), &mock.Element{})
	add(d, pages.ListEntries(), &mock.Element{Text: "Login broken (ID: 1001)"})
	add(d, pages.ListEntries(), &mock.Element{Text: "Typo in header (ID: 1002)"})

	res, dir := runScenario(t, d, byName(t, "List All Bug Titles"))
	require.Equal(t, report.StatusPassed, res.Status, res.Error)

	_, details, err := report.ReadReport(dir)
	require.NoError(t, err)
	var msgs []string
	for _, e := range details[0].Entries {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, "Found 2 bugs")
	assert.Contains(t, msgs, "2. Typo in header")
	assert.Contains(t, msgs, "Successfully listed 2 unique bug titles")
}

func TestPrintTestData(t *testing.T) {
	res, dir := runScenario(t, mock.New(), byName(t, "Print All Bugs from Test Data"))
	require.Equal(t, report.StatusPassed, res.Status, res.Error)

	_, details, err := report.ReadReport(dir)
	require.NoError(t, err)
	var msgs []string
	for _, e := range details[0].Entries {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, "Loaded 3 bugs from JSON")
	assert.Contains(t, msgs, "Successfully printed all 3 bugs")
}

func TestCreateFromFirstRecord_MissingData(t *testing.T) {
	s := byName(t, "Create Bug - Data Driven")
	cfg := executor.RunnerConfig{
		OutputDir: t.TempDir(),
		Data:      bugdata.NewProvider("does-not-exist.json"),
	}
	res, err := executor.New(mock.New(), "dev", cfg).Run(context.Background(), []executor.Scenario{s})
	require.NoError(t, err)
	assert.Equal(t, report.StatusFailed, res.Status)
	assert.Contains(t, res.Scenarios[0].Error, "cannot read test data")
}

func TestCloseBug(t *testing.T) {
	d := mock.New()
	add(d, pages.ByResourceID(pages.EditFieldStatus), &mock.Element{})
	closed := add(d, pages.ByText(string(bugdata.StatusClosed)), &mock.Element{})
	fixedBy := add(d, pages.ByResourceID(pages.EditFieldFixedBy), &mock.Element{})
	add(d, pages.ByResourceID(pages.EditFieldDateClosed), &mock.Element{})
	day := add(d, pages.ByDescriptionContains("8 "+pages.MonthName(10)+" 2025"), &mock.Element{})
	ok := add(d, pages.ByText(pages.DatePickerOK), &mock.Element{})
	actual := add(d, pages.ByResourceID(pages.EditFieldActualResult), &mock.Element{})

	s := executor.Scenario{
		Name: "Close Bug",
		Run: func(ctx context.Context, env *executor.Env) error {
			return closeBug(ctx, env, pages.NewEditBugPage(env.Pages), editDateClosed)
		},
	}
	res, dir := runScenario(t, d, s)
	require.Equal(t, report.StatusPassed, res.Status, res.Error)

	assert.True(t, d.Clicked(closed))
	assert.Equal(t, "QA Automation", fixedBy.Text)
	assert.True(t, d.Clicked(day), "close date picked")
	assert.True(t, d.Clicked(ok))
	assert.Equal(t, "Fixed and verified", actual.Text)

	_, details, err := report.ReadReport(dir)
	require.NoError(t, err)
	var msgs []string
	for _, e := range details[0].Entries {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, "Set date closed to 08.10.2025")
}
