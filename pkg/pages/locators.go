package pages

import (
	"fmt"
	"strings"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// AppPackage is the bug tracker's Android package.
const AppPackage = "com.atidcollege.bugtracker"

// Native resource ids.
const (
	ToolbarID       = AppPackage + ":id/my_toolbar"
	HomeContainerID = AppPackage + ":id/container"
	HomeActionID    = AppPackage + ":id/action_home"
)

// Create form fields, exposed by the embedded web form as resource ids.
const (
	FieldBugID          = "bugId"
	FieldDate           = "bugDate"
	FieldTitle          = "bugTitle"
	FieldSteps          = "bugSteps"
	FieldExpectedResult = "bugExpectedResult"
	FieldActualResult   = "bugActualResult"
	FieldStatus         = "bugStatus"
	FieldSeverity       = "bugSeverity"
	FieldPriority       = "bugPriority"
	FieldDetectedBy     = "bugDetectedBy"
	FieldFixedBy        = "bugFixedBy"
	FieldDateClosed     = "bugDateClosed"
	FieldAttachFile     = "bugFile"
)

// Edit form fields.
const (
	EditFieldTitle        = "editBugTitle"
	EditFieldActualResult = "editBugActualResult"
	EditFieldStatus       = "editBugStatus"
	EditFieldSeverity     = "editBugSeverity"
	EditFieldPriority     = "editBugPriority"
	EditFieldFixedBy      = "editBugFixedBy"
	EditFieldDateClosed   = "editBugDateClosed"
	EditFieldAttachFile   = "editBugFile"
)

// Web page ids.
const (
	WebFormID       = "bugForm"
	ViewBugsPageID  = "viewBugsPage"
	CreateBugPageID = "createBugPage"
	WebHomePageID   = "homePage"
	SearchInputID   = "searchInput"
	BugListID       = "bugList"
	StatusMessageID = "statusMessage"
)

// Visible texts.
const (
	CreateBugText   = "Create Bug"
	ViewBugsText    = "View Bugs"
	HomeText        = "Home"
	AppTitleText    = "Bug Tracker Tool"
	CreateFormTitle = "Create a Bug"
	AddBugText      = "Add Bug"
	SubmitText      = "Submit"
	SaveText        = "Save"
	SaveChangesText = "Save Changes"
	EditText        = "Edit"
	WelcomeText     = "Welcome"
	SuccessText     = "bug created successfully"
)

// Accessibility ids of the navigation tabs.
const (
	CreateBugAccessibilityID = "Create Bug"
	ViewBugsAccessibilityID  = "View Bugs"
)

// Status filters on the bugs list.
const (
	FilterAll      = "All"
	FilterOpen     = "Open"
	FilterFixed    = "Fixed"
	FilterClosed   = "Closed"
	FilterNotABug  = "Not a Bug"
	FilterProgress = "In Progress"
)

// Date picker.
const (
	DatePickerOK     = "הגדרה"
	DatePickerCancel = "ביטול"
	DatePickerNext   = "android:id/next"
	DatePickerPrev   = "android:id/prev"
	DatePickerMonth  = "android:id/month_view"
)

// Media picker.
const (
	IntentChooserText = "com.android.intentresolver:id/text1"
	GalleryTile       = "com.sec.android.gallery3d:id/recycler_view_item"
	GalleryDuration   = "com.sec.android.gallery3d:id/content_duration"
	GalleryTypeIcon   = "com.sec.android.gallery3d:id/content_type_icon"
	CameraFolder      = "/sdcard/DCIM/Camera/"
)

var selectorEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func lit(s string) string {
	return `"` + selectorEscaper.Replace(s) + `"`
}

// ByResourceID matches a resource id through UiAutomator.
func ByResourceID(id string) core.Locator {
	return core.UiAutomator("new UiSelector().resourceId("+lit(id)+")", "resource-id "+id)
}

// ByText matches an exact text.
func ByText(text string) core.Locator {
	return core.UiAutomator("new UiSelector().text("+lit(text)+")", fmt.Sprintf("text %q", text))
}

// ByTextContains matches a text substring.
func ByTextContains(text string) core.Locator {
	return core.UiAutomator("new UiSelector().textContains("+lit(text)+")", fmt.Sprintf("text containing %q", text))
}

// ByDescriptionContains matches a content-desc substring.
func ByDescriptionContains(desc string) core.Locator {
	return core.UiAutomator("new UiSelector().descriptionContains("+lit(desc)+")", fmt.Sprintf("content-desc containing %q", desc))
}

// ByClickableText matches a clickable element with an exact text.
func ByClickableText(text string) core.Locator {
	return core.UiAutomator("new UiSelector().clickable(true).text("+lit(text)+")", fmt.Sprintf("clickable text %q", text))
}

// ByResourceIDTextContains matches a resource id whose text contains text.
func ByResourceIDTextContains(id, text string) core.Locator {
	return core.UiAutomator("new UiSelector().resourceId("+lit(id)+").textContains("+lit(text)+")",
		fmt.Sprintf("resource-id %s containing %q", id, text))
}

// Clickables matches every clickable element on screen.
func Clickables() core.Locator {
	return core.UiAutomator("new UiSelector().clickable(true)", "clickable elements")
}

// NumericCells matches clickable calendar days.
func NumericCells() core.Locator {
	return core.UiAutomator(`new UiSelector().clickable(true).textMatches("\\d+")`, "numeric day cells")
}

// ListEntries matches the bug rows, whose text ends in "(ID: n)".
func ListEntries() core.Locator {
	return core.UiAutomator(`new UiSelector().className("android.widget.TextView").textContains("(ID:")`, "bug list entries")
}

// Date picker cells, in the order they are tried to read the shown month.
func pickerCellLocators() []core.Locator {
	return []core.Locator{
		core.UiAutomator(`new UiSelector().resourceId("android:id/month_view").childSelector(new UiSelector().className("android.view.View"))`, "month view cells"),
		core.UiAutomator(`new UiSelector().className("android.view.View").text("1")`, "first day cell"),
		core.UiAutomator(`new UiSelector().descriptionMatches(".* .* \\d{4}")`, "dated cells"),
	}
}

// ScrollIntoView scrolls the first scrollable container until target shows.
func ScrollIntoView(target core.Locator) core.Locator {
	return core.UiAutomator(
		"new UiScrollable(new UiSelector().scrollable(true)).scrollIntoView("+target.Value+")",
		"scroll to "+target.String())
}

// ScrollListIntoView scrolls a vertical list at most maxSwipes times until target shows.
func ScrollListIntoView(target core.Locator, maxSwipes int) core.Locator {
	return core.UiAutomator(
		fmt.Sprintf("new UiScrollable(new UiSelector().scrollable(true)).setAsVerticalList().setMaxSearchSwipes(%d).scrollIntoView(%s)",
			maxSwipes, target.Value),
		"scroll list to "+target.String())
}

func idLabel(id int) string {
	return fmt.Sprintf("(ID: %d)", id)
}
