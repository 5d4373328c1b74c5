package pages

import (
	"context"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
)

// EditBugPage is the form opened from a row's Edit button.
type EditBugPage struct {
	Form
}

// NewEditBugPage creates the edit form page object.
func NewEditBugPage(b *Base) *EditBugPage {
	return &EditBugPage{Form: Form{Base: b}}
}

// Name implements Page.
func (p *EditBugPage) Name() string { return "EditBugPage" }

// IsLoaded reports whether the edit fields or the save button are on screen.
func (p *EditBugPage) IsLoaded() bool {
	return p.IsAnyPresentByID(EditFieldTitle, EditFieldStatus) || p.IsPresent(ByText(SaveChangesText))
}

// SetTitle replaces the title.
func (p *EditBugPage) SetTitle(ctx context.Context, title string) error {
	if err := p.EnsureFieldVisible(ctx, EditFieldTitle); err != nil {
		return err
	}
	return p.SetText(ctx, EditFieldTitle, title)
}

// SetActualResult replaces the actual result.
func (p *EditBugPage) SetActualResult(ctx context.Context, actual string) error {
	if err := p.EnsureFieldVisible(ctx, EditFieldActualResult); err != nil {
		return err
	}
	if err := p.SetText(ctx, EditFieldActualResult, actual); err != nil {
		return err
	}
	return p.HideKeyboard(ctx)
}

// SelectStatus picks a status. The edit form opens scrolled sideways, so the
// status field is revealed by scrolling left, then down.
func (p *EditBugPage) SelectStatus(ctx context.Context, s bugdata.Status) error {
	err := p.EnsureFieldVisible(ctx, EditFieldStatus, p.gestures.ScrollLeft, p.gestures.ScrollDown)
	if err != nil {
		return err
	}
	return p.SelectDropdown(ctx, EditFieldStatus, string(s))
}

// SelectSeverity picks a severity.
func (p *EditBugPage) SelectSeverity(ctx context.Context, s bugdata.Severity) error {
	if err := p.EnsureFieldVisible(ctx, EditFieldSeverity); err != nil {
		return err
	}
	return p.SelectDropdown(ctx, EditFieldSeverity, string(s))
}

// SelectPriority picks a priority.
func (p *EditBugPage) SelectPriority(ctx context.Context, pr bugdata.Priority) error {
	if err := p.EnsureFieldVisible(ctx, EditFieldPriority); err != nil {
		return err
	}
	return p.SelectDropdown(ctx, EditFieldPriority, string(pr))
}

// SetFixedBy replaces the fixer.
func (p *EditBugPage) SetFixedBy(ctx context.Context, name string) error {
	if err := p.EnsureFieldVisible(ctx, EditFieldFixedBy); err != nil {
		return err
	}
	return p.SetText(ctx, EditFieldFixedBy, name)
}

// SetDateClosed picks the close date (DD.MM.YYYY).
func (p *EditBugPage) SetDateClosed(ctx context.Context, date string) error {
	return p.SetDate(ctx, EditFieldDateClosed, date)
}

// AttachFile pushes name to the device and attaches it.
func (p *EditBugPage) AttachFile(ctx context.Context, name string) error {
	return p.Form.AttachFile(ctx, EditFieldAttachFile, name)
}

// Save clicks Save Changes and returns to the list.
func (p *EditBugPage) Save(ctx context.Context) (*BugsListPage, error) {
	return p.Submit(ctx, SaveChangesText)
}
