package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

const (
	maxListSwipes     = 15
	maxTitlePasses    = 50
	stablePasses      = 2
	editRowTolerance  = 200 // px between a row and its Edit button
	filterScrollLimit = 3
	filterScrollUps   = 5
	clickableDumpMax  = 10
)

// BugsListPage is the View Bugs screen.
type BugsListPage struct {
	*Base
	Nav *NavigationBar
}

// NewBugsListPage creates the list page object.
func NewBugsListPage(b *Base) *BugsListPage {
	return &BugsListPage{Base: b, Nav: NewNavigationBar(b)}
}

// Name implements Page.
func (p *BugsListPage) Name() string { return "BugsListPage" }

// IsLoaded reports whether the list or its filters are on screen.
func (p *BugsListPage) IsLoaded() bool {
	return p.IsAnyPresentByID(ViewBugsPageID, BugListID) || p.IsPresent(ByText(FilterAll))
}

// WaitForBugWithID scrolls the list until the row for id shows.
func (p *BugsListPage) WaitForBugWithID(ctx context.Context, id int) error {
	p.log.Info().Int("bug_id", id).Msg("waiting for bug")
	if err := p.sleep(ctx, 2500*time.Millisecond); err != nil {
		return err
	}
	if err := p.gestures.ScrollDown(); err != nil {
		p.log.Warn().Err(err).Msg("first scroll failed, retrying")
		if err := p.sleep(ctx, time.Second); err != nil {
			return err
		}
		if err := p.gestures.ScrollDown(); err != nil {
			return err
		}
	}
	if err := p.sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}

	loc := ScrollListIntoView(ByTextContains(idLabel(id)), maxListSwipes)
	if _, err := p.driver.FindElement(loc.Strategy, loc.Value); err != nil {
		return core.NewTimeoutError(fmt.Sprintf("Bug not found: ID %d", id), err)
	}
	p.log.Info().Int("bug_id", id).Msg("bug found in list")
	return nil
}

// AllBugTitles scrolls through the list collecting unique titles until two
// consecutive passes add nothing.
func (p *BugsListPage) AllBugTitles(ctx context.Context) ([]string, error) {
	if _, err := p.actionWaiter().ForPresent(ctx, ByResourceID(BugListID)); err != nil {
		return nil, err
	}

	var titles []string
	seen := make(map[string]bool)
	unchanged := 0
	for pass := 0; pass < maxTitlePasses; pass++ {
		ids, err := p.FindAll(ListEntries())
		if err != nil {
			return nil, err
		}
		before := len(titles)
		for _, id := range ids {
			text, err := p.driver.GetElementText(id)
			if err != nil || strings.TrimSpace(text) == "" || seen[text] {
				continue
			}
			seen[text] = true
			titles = append(titles, bugdata.TitleFromLabel(text))
		}

		if len(titles) == before {
			unchanged++
			if unchanged >= stablePasses {
				break
			}
		} else {
			unchanged = 0
		}
		if err := p.gestures.ScrollDown(); err != nil {
			return nil, err
		}
		if err := p.sleep(ctx, 500*time.Millisecond); err != nil {
			return nil, err
		}
	}
	p.log.Info().Int("count", len(titles)).Msg("read bug titles")
	return titles, nil
}

// BugCount returns the number of bugs in the current filter.
func (p *BugsListPage) BugCount(ctx context.Context) (int, error) {
	titles, err := p.AllBugTitles(ctx)
	return len(titles), err
}

// ClickEditForBug opens the edit form of bug id. The Edit buttons live in a
// column scrolled off to the right; the one nearest the row is used.
func (p *BugsListPage) ClickEditForBug(ctx context.Context, id int) (*EditBugPage, error) {
	p.log.Info().Int("bug_id", id).Msg("opening edit form")
	edit, err := p.clickEdit(ctx, id)
	if err == nil {
		return edit, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	available := p.describeClickables()
	p.log.Error().Err(err).Str("clickables", available).Msg("edit button not found")
	return nil, core.NewElementNotFoundError(fmt.Sprintf("Edit button for bug ID: %d", id), core.ByUiAutomator,
		"Could not find Edit button.\n"+available).WithCause(err)
}

func (p *BugsListPage) clickEdit(ctx context.Context, id int) (*EditBugPage, error) {
	row, err := p.actionWaiter().ForPresent(ctx, ByTextContains(idLabel(id)))
	if err != nil {
		return nil, err
	}
	if err := p.gestures.ScrollRight(); err != nil {
		return nil, err
	}
	if err := p.sleep(ctx, 500*time.Millisecond); err != nil {
		return nil, err
	}

	buttons, err := p.FindAll(ByText(EditText))
	if err != nil {
		return nil, err
	}
	if len(buttons) == 0 {
		return nil, fmt.Errorf("no Edit buttons on screen")
	}
	rowRect, err := p.driver.GetElementRect(row)
	if err != nil {
		return nil, err
	}

	target, best := "", editRowTolerance
	for _, b := range buttons {
		r, err := p.driver.GetElementRect(b)
		if err != nil {
			continue
		}
		d := r.Y - rowRect.Y
		if d < 0 {
			d = -d
		}
		if d < best {
			target, best = b, d
		}
	}
	if target == "" {
		return nil, fmt.Errorf("no Edit button within %dpx of bug %d", editRowTolerance, id)
	}
	p.log.Debug().Int("distance", best).Msg("edit button chosen")
	if err := p.driver.ClickElement(target); err != nil {
		return nil, err
	}

	edit := NewEditBugPage(p.Base)
	if err := p.WaitUntilLoaded(ctx, edit, DefaultActionTimeout); err != nil {
		return nil, err
	}
	return edit, nil
}

func (p *BugsListPage) describeClickables() string {
	ids, err := p.FindAll(Clickables())
	if err != nil {
		return "Could not retrieve elements: " + err.Error()
	}
	var sb strings.Builder
	for i, id := range ids {
		if i == clickableDumpMax {
			break
		}
		desc, _ := p.driver.GetElementAttribute(id, "content-desc")
		text, _ := p.driver.GetElementAttribute(id, "text")
		fmt.Fprintf(&sb, "  [%d] desc='%s', text='%s'\n", i, desc, text)
	}
	return sb.String()
}

// ClickStatusFilter applies the status filter labelled filter.
func (p *BugsListPage) ClickStatusFilter(ctx context.Context, filter string) error {
	p.log.Info().Str("filter", filter).Msg("clicking status filter")
	// The list may have been scrolled to the bottom; the filters sit above it.
	for i := 0; i < filterScrollUps && !p.IsDisplayed(ByText(filter)); i++ {
		if err := p.gestures.ScrollUp(); err != nil {
			return err
		}
		if err := p.sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
	if err := p.Click(ctx, ByText(filter)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return core.NewElementNotFoundError("Status filter: "+filter, core.ByUiAutomator,
			"Could not find status filter.").WithCause(err)
	}
	return p.sleep(ctx, 1500*time.Millisecond)
}

// IsBugInCurrentFilter reports whether bug id is listed under the active
// filter, scrolling down up to three times.
func (p *BugsListPage) IsBugInCurrentFilter(ctx context.Context, id int) bool {
	loc := ByTextContains(idLabel(id))
	for i := 0; i <= filterScrollLimit; i++ {
		if p.IsPresent(loc) {
			p.log.Info().Int("bug_id", id).Int("scrolls", i).Msg("bug found in filter")
			return true
		}
		if i == filterScrollLimit {
			break
		}
		if err := p.gestures.ScrollDown(); err != nil {
			p.log.Error().Err(err).Msg("scroll failed")
			return false
		}
		if err := p.sleep(ctx, 500*time.Millisecond); err != nil {
			return false
		}
	}
	p.log.Info().Int("bug_id", id).Msg("bug not in current filter")
	return false
}
