package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// maxTabScrolls bounds scroll-ups when the tab bar has scrolled off screen.
const maxTabScrolls = 3

// NavigationBar is the tab strip at the top of every screen.
type NavigationBar struct {
	*Base
}

// NewNavigationBar creates the navigation bar component.
func NewNavigationBar(b *Base) *NavigationBar {
	return &NavigationBar{Base: b}
}

// GoToHome opens the Home tab.
func (n *NavigationBar) GoToHome(ctx context.Context) (*HomePage, error) {
	n.log.Info().Msg("navigating to Home")
	if err := n.EnsureTabVisible(ctx, HomeText); err != nil {
		return nil, err
	}
	if err := n.Click(ctx, ByText(HomeText)); err != nil {
		return nil, err
	}
	if err := n.sleep(ctx, time.Second); err != nil {
		return nil, err
	}
	return NewHomePage(n.Base), nil
}

// GoToCreateBug opens the Create Bug tab.
func (n *NavigationBar) GoToCreateBug(ctx context.Context) (*CreateBugPage, error) {
	n.log.Info().Msg("navigating to Create Bug")
	if err := n.EnsureTabVisible(ctx, CreateBugText); err != nil {
		return nil, err
	}
	if err := n.Click(ctx, core.AccessibilityID(CreateBugAccessibilityID)); err != nil {
		return nil, err
	}
	if err := n.sleep(ctx, 1500*time.Millisecond); err != nil {
		return nil, err
	}
	return NewCreateBugPage(n.Base), nil
}

// GoToViewBugs opens the View Bugs tab. On small screens the tabs overlap,
// so when the Create Bug tab keeps focus after the click the tab is tapped
// again near its right edge.
func (n *NavigationBar) GoToViewBugs(ctx context.Context) (*BugsListPage, error) {
	n.log.Info().Msg("navigating to View Bugs")
	if err := n.HideKeyboard(ctx); err != nil {
		return nil, err
	}
	if err := n.EnsureTabVisible(ctx, ViewBugsText); err != nil {
		return nil, err
	}

	switched, err := n.clickViewBugs(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		n.log.Warn().Err(err).Msg("accessibility id click failed")
	}
	if !switched {
		n.log.Warn().Msg("focus did not change, tapping inside the tab")
		loc := core.AccessibilityID(ViewBugsAccessibilityID)
		id, err := n.driver.FindElement(loc.Strategy, loc.Value)
		if err != nil {
			return nil, fmt.Errorf("could not navigate to View Bugs tab: %w", err)
		}
		if err := n.gestures.TapElementAt(id, 0.85, 0.5); err != nil {
			return nil, fmt.Errorf("could not navigate to View Bugs tab: %w", err)
		}
	}
	if err := n.sleep(ctx, 1500*time.Millisecond); err != nil {
		return nil, err
	}
	return NewBugsListPage(n.Base), nil
}

func (n *NavigationBar) clickViewBugs(ctx context.Context) (bool, error) {
	if err := n.Click(ctx, core.AccessibilityID(ViewBugsAccessibilityID)); err != nil {
		return false, err
	}
	if err := n.sleep(ctx, time.Second); err != nil {
		return false, err
	}
	loc := core.AccessibilityID(CreateBugAccessibilityID)
	create, err := n.driver.FindElement(loc.Strategy, loc.Value)
	if err != nil {
		return false, err
	}
	focused, err := n.driver.GetElementAttribute(create, "focused")
	if err != nil {
		return false, err
	}
	return focused != "true", nil
}

// EnsureTabVisible scrolls up until the tab labelled text is displayed.
func (n *NavigationBar) EnsureTabVisible(ctx context.Context, text string) error {
	loc := ByText(text)
	if n.IsDisplayed(loc) {
		return nil
	}
	for i := 1; i <= maxTabScrolls; i++ {
		n.log.Debug().Str("tab", text).Int("attempt", i).Msg("scrolling up to reveal tabs")
		if err := n.gestures.ScrollUp(); err != nil {
			return err
		}
		if err := n.sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
		if n.IsDisplayed(loc) {
			return nil
		}
	}
	return core.NewElementNotFoundError(loc.String(), loc.Strategy,
		fmt.Sprintf("Navigation tab '%s' is not accessible after %d scroll attempts", text, maxTabScrolls))
}
