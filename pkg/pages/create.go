package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// CreateBugPage is the new-bug form.
type CreateBugPage struct {
	Form
	Nav *NavigationBar
}

// NewCreateBugPage creates the create form page object.
func NewCreateBugPage(b *Base) *CreateBugPage {
	return &CreateBugPage{Form: Form{Base: b}, Nav: NewNavigationBar(b)}
}

// Name implements Page.
func (p *CreateBugPage) Name() string { return "CreateBugPage" }

// IsLoaded reports whether the Bug ID field is on screen.
func (p *CreateBugPage) IsLoaded() bool {
	return p.IsPresent(ByResourceID(FieldBugID))
}

// SetBugID types the bug id.
func (p *CreateBugPage) SetBugID(ctx context.Context, id int) error {
	return p.SetText(ctx, FieldBugID, strconv.Itoa(id))
}

// SetDate picks the report date (DD.MM.YYYY).
func (p *CreateBugPage) SetDate(ctx context.Context, date string) error {
	return p.Form.SetDate(ctx, FieldDate, date)
}

// SetTitle types the title.
func (p *CreateBugPage) SetTitle(ctx context.Context, title string) error {
	return p.SetText(ctx, FieldTitle, title)
}

// SetSteps types the steps to reproduce.
func (p *CreateBugPage) SetSteps(ctx context.Context, steps string) error {
	return p.SetText(ctx, FieldSteps, steps)
}

// SetExpectedResult scrolls to the expected result field and types into it.
// The field needs two taps before it takes focus.
func (p *CreateBugPage) SetExpectedResult(ctx context.Context, expected string) error {
	p.scrollTo(FieldExpectedResult)
	if err := p.sleep(ctx, time.Second); err != nil {
		return err
	}
	el, err := p.field(ctx, FieldExpectedResult)
	if err != nil {
		return err
	}
	if err := p.driver.ClickElement(el); err != nil {
		return err
	}
	if err := p.sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	if err := p.typeInto(ctx, el, expected); err != nil {
		return err
	}
	return p.HideKeyboard(ctx)
}

// SetActualResult types the actual result and hides the keyboard so it does
// not cover the dropdowns below.
func (p *CreateBugPage) SetActualResult(ctx context.Context, actual string) error {
	if err := p.SetText(ctx, FieldActualResult, actual); err != nil {
		return err
	}
	return p.HideKeyboard(ctx)
}

// SelectStatus picks a status.
func (p *CreateBugPage) SelectStatus(ctx context.Context, s bugdata.Status) error {
	return p.SelectDropdown(ctx, FieldStatus, string(s))
}

// SelectSeverity picks a severity.
func (p *CreateBugPage) SelectSeverity(ctx context.Context, s bugdata.Severity) error {
	return p.SelectDropdown(ctx, FieldSeverity, string(s))
}

// SelectPriority picks a priority.
func (p *CreateBugPage) SelectPriority(ctx context.Context, pr bugdata.Priority) error {
	return p.SelectDropdown(ctx, FieldPriority, string(pr))
}

// SetDetectedBy types the reporter.
func (p *CreateBugPage) SetDetectedBy(ctx context.Context, name string) error {
	return p.SetText(ctx, FieldDetectedBy, name)
}

// SetFixedBy types the fixer.
func (p *CreateBugPage) SetFixedBy(ctx context.Context, name string) error {
	return p.SetText(ctx, FieldFixedBy, name)
}

// SetDateClosed picks the close date (DD.MM.YYYY).
func (p *CreateBugPage) SetDateClosed(ctx context.Context, date string) error {
	return p.Form.SetDate(ctx, FieldDateClosed, date)
}

// AttachFile pushes name to the device and attaches it.
func (p *CreateBugPage) AttachFile(ctx context.Context, name string) error {
	return p.Form.AttachFile(ctx, FieldAttachFile, name)
}

// Fill sets every non-empty field of bug, in form order.
func (p *CreateBugPage) Fill(ctx context.Context, bug bugdata.Bug) error {
	p.log.Info().Int("bug_id", bug.BugID).Str("title", bug.Title).Msg("filling bug form")

	steps := []struct {
		field string
		skip  bool
		run   func() error
	}{
		{FieldBugID, bug.BugID == 0, func() error { return p.SetBugID(ctx, bug.BugID) }},
		{FieldDate, bug.Date == "", func() error { return p.SetDate(ctx, bug.Date) }},
		{FieldTitle, bug.Title == "", func() error { return p.SetTitle(ctx, bug.Title) }},
		{FieldSteps, bug.StepsToReproduce == "", func() error { return p.SetSteps(ctx, bug.StepsToReproduce) }},
		{FieldExpectedResult, bug.ExpectedResult == "", func() error { return p.SetExpectedResult(ctx, bug.ExpectedResult) }},
		{FieldActualResult, bug.ActualResult == "", func() error { return p.SetActualResult(ctx, bug.ActualResult) }},
		{FieldStatus, bug.Status == "", func() error {
			s, ok := bug.StatusValue()
			if !ok {
				return unknownValue("status", bug.Status)
			}
			return p.SelectStatus(ctx, s)
		}},
		{FieldSeverity, bug.Severity == "", func() error {
			s, ok := bug.SeverityValue()
			if !ok {
				return unknownValue("severity", bug.Severity)
			}
			return p.SelectSeverity(ctx, s)
		}},
		{FieldPriority, bug.Priority == "", func() error {
			pr, ok := bug.PriorityValue()
			if !ok {
				return unknownValue("priority", bug.Priority)
			}
			return p.SelectPriority(ctx, pr)
		}},
		{FieldDetectedBy, bug.DetectedBy == "", func() error { return p.SetDetectedBy(ctx, bug.DetectedBy) }},
		{FieldFixedBy, bug.FixedBy == "", func() error { return p.SetFixedBy(ctx, bug.FixedBy) }},
		{FieldDateClosed, bug.DateClosed == "", func() error { return p.SetDateClosed(ctx, bug.DateClosed) }},
		{FieldAttachFile, bug.AttachedFile == "", func() error { return p.AttachFile(ctx, bug.AttachedFile) }},
	}

	for _, s := range steps {
		if s.skip {
			continue
		}
		if err := s.run(); err != nil {
			return fmt.Errorf("fill %s: %w", s.field, err)
		}
	}
	return nil
}

func unknownValue(field, value string) error {
	return core.NewTestDataError(fmt.Sprintf("unknown %s %q", field, value), nil)
}

// Submit clicks Add Bug.
func (p *CreateBugPage) Submit(ctx context.Context) (*BugsListPage, error) {
	return p.Form.Submit(ctx, AddBugText)
}

// CreateBug fills the form with bug and submits it.
func (p *CreateBugPage) CreateBug(ctx context.Context, bug bugdata.Bug) (*BugsListPage, error) {
	if err := p.Fill(ctx, bug); err != nil {
		return nil, err
	}
	return p.Submit(ctx)
}

// SuccessMessage scrolls down and waits up to timeout for the status line
// shown after submitting.
func (p *CreateBugPage) SuccessMessage(ctx context.Context, timeout time.Duration) (string, error) {
	if err := p.gestures.ScrollDown(); err != nil {
		return "", err
	}
	w := p.waiter().WithTimeout(timeout)
	id, err := w.ForPresent(ctx, ByResourceID(StatusMessageID))
	if err != nil {
		return "", err
	}
	text, err := p.driver.GetElementText(id)
	if err != nil {
		return "", err
	}
	p.log.Info().Str("message", text).Msg("status message after submit")
	return text, nil
}

// IsSuccessMessageDisplayed reports whether the status line confirms the
// bug was created.
func (p *CreateBugPage) IsSuccessMessageDisplayed(ctx context.Context, timeout time.Duration) bool {
	text, err := p.SuccessMessage(ctx, timeout)
	if err != nil {
		p.log.Error().Err(err).Msg("success message not found")
		return false
	}
	return strings.Contains(strings.ToLower(text), SuccessText)
}

// SubmitAndConfirm submits and checks the success message for 5 seconds.
func (p *CreateBugPage) SubmitAndConfirm(ctx context.Context) (bool, error) {
	if _, err := p.Submit(ctx); err != nil {
		return false, err
	}
	return p.IsSuccessMessageDisplayed(ctx, 5*time.Second), nil
}
