package pages

import "context"

// HomePage is the landing screen with the welcome banner.
type HomePage struct {
	*Base
	Nav *NavigationBar
}

// NewHomePage creates the home page object.
func NewHomePage(b *Base) *HomePage {
	return &HomePage{Base: b, Nav: NewNavigationBar(b)}
}

// Name implements Page.
func (p *HomePage) Name() string { return "HomePage" }

// IsLoaded reports whether the welcome text is on screen.
func (p *HomePage) IsLoaded() bool {
	return p.IsPresent(ByTextContains(WelcomeText))
}

// Title returns the app title shown in the toolbar.
func (p *HomePage) Title(ctx context.Context) (string, error) {
	return p.Text(ctx, ByTextContains(AppTitleText))
}
