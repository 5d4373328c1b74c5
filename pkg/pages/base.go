// Package pages holds one page object per screen of the bug tracker app.
//
// Every page embeds a shared *Base, which owns the driver, the waiters and
// the gesture helper. Navigation methods return the page the app lands on.
package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/gesture"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
	"github.com/atidcollege/bugtracker-automation/pkg/mobilecontext"
	"github.com/atidcollege/bugtracker-automation/pkg/wait"
)

// DefaultActionTimeout bounds waits for buttons, tabs and dropdown options.
const DefaultActionTimeout = 10 * time.Second

const sourcePreviewLen = 800

// Page is a screen that can tell whether it is showing.
type Page interface {
	Name() string
	IsLoaded() bool
}

// Option configures a Base.
type Option func(*Base)

// WithWaitTimeout sets the explicit wait used to locate fields.
// A negative value checks once without polling.
func WithWaitTimeout(d time.Duration) Option {
	return func(b *Base) { b.waitTimeout = d }
}

// WithActionTimeout sets the wait for clickable buttons and options.
func WithActionTimeout(d time.Duration) Option {
	return func(b *Base) { b.actionTimeout = d }
}

// WithPause replaces the settle delay between UI actions.
func WithPause(fn func(context.Context, time.Duration) error) Option {
	return func(b *Base) { b.pause = fn }
}

// WithContexts attaches a context manager; pages then switch to the native
// context before checking whether they are loaded.
func WithContexts(m *mobilecontext.Manager) Option {
	return func(b *Base) { b.contexts = m }
}

// WithFileAttachment toggles attaching files through the media picker.
func WithFileAttachment(enabled bool) Option {
	return func(b *Base) { b.attachFiles = enabled }
}

// WithFileRoot sets the directory attachments are read from.
func WithFileRoot(dir string) Option {
	return func(b *Base) { b.fileRoot = dir }
}

// Base is shared by every page object.
type Base struct {
	driver   core.Driver
	gestures *gesture.Helper
	contexts *mobilecontext.Manager
	log      zerolog.Logger

	waitTimeout   time.Duration
	actionTimeout time.Duration
	pause         func(context.Context, time.Duration) error
	attachFiles   bool
	fileRoot      string
}

// NewBase creates the shared page state for a driver.
func NewBase(driver core.Driver, opts ...Option) *Base {
	b := &Base{
		driver:        driver,
		gestures:      gesture.New(driver),
		log:           logger.WithComponent("pages"),
		waitTimeout:   wait.DefaultTimeout,
		actionTimeout: DefaultActionTimeout,
		pause:         wait.Pause,
		attachFiles:   true,
		fileRoot:      "testdata/files",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Driver returns the underlying driver.
func (b *Base) Driver() core.Driver { return b.driver }

// Gestures returns the gesture helper.
func (b *Base) Gestures() *gesture.Helper { return b.gestures }

// Contexts returns the context manager, or nil when none is attached.
func (b *Base) Contexts() *mobilecontext.Manager { return b.contexts }

func (b *Base) waiter() *wait.Waiter {
	return wait.New(b.driver, b.waitTimeout)
}

func (b *Base) actionWaiter() *wait.Waiter {
	return wait.New(b.driver, b.actionTimeout)
}

func (b *Base) sleep(ctx context.Context, d time.Duration) error {
	return b.pause(ctx, d)
}

// Find waits for loc to be present and returns its element id.
func (b *Base) Find(ctx context.Context, loc core.Locator) (string, error) {
	return b.waiter().ForPresent(ctx, loc)
}

// FindAll returns every element matching loc without waiting.
func (b *Base) FindAll(loc core.Locator) ([]string, error) {
	return b.driver.FindElements(loc.Strategy, loc.Value)
}

// Click waits for loc to be clickable and clicks it.
func (b *Base) Click(ctx context.Context, loc core.Locator) error {
	id, err := b.actionWaiter().ForClickable(ctx, loc)
	if err != nil {
		return err
	}
	b.log.Debug().Str("locator", loc.String()).Msg("click")
	return b.driver.ClickElement(id)
}

// Type focuses the element at loc, clears it and types text.
func (b *Base) Type(ctx context.Context, loc core.Locator, text string) error {
	id, err := b.Find(ctx, loc)
	if err != nil {
		return err
	}
	return b.typeInto(ctx, id, text)
}

func (b *Base) typeInto(ctx context.Context, id, text string) error {
	if err := b.driver.ClickElement(id); err != nil {
		return fmt.Errorf("focus field: %w", err)
	}
	if err := b.sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	if err := b.driver.ClearElement(id); err != nil {
		b.log.Debug().Err(err).Msg("could not clear field")
	}
	if err := b.driver.SendKeysToElement(id, text); err != nil {
		return fmt.Errorf("type into field: %w", err)
	}
	return b.sleep(ctx, 300*time.Millisecond)
}

// Text waits for loc and returns its text.
func (b *Base) Text(ctx context.Context, loc core.Locator) (string, error) {
	id, err := b.Find(ctx, loc)
	if err != nil {
		return "", err
	}
	return b.driver.GetElementText(id)
}

// IsPresent reports whether loc matches anything right now.
func (b *Base) IsPresent(loc core.Locator) bool {
	ids, err := b.FindAll(loc)
	return err == nil && len(ids) > 0
}

// IsDisplayed reports whether the first match of loc is displayed.
func (b *Base) IsDisplayed(loc core.Locator) bool {
	ids, err := b.FindAll(loc)
	if err != nil || len(ids) == 0 {
		return false
	}
	shown, err := b.driver.IsElementDisplayed(ids[0])
	return err == nil && shown
}

// IsAnyPresentByID reports whether any of the resource ids is on screen.
func (b *Base) IsAnyPresentByID(ids ...string) bool {
	for _, id := range ids {
		if b.IsPresent(ByResourceID(id)) {
			return true
		}
	}
	return false
}

// Back presses the device back button.
func (b *Base) Back() error {
	b.log.Debug().Msg("navigating back")
	return b.driver.Back()
}

// HideKeyboard dismisses the soft keyboard if it is showing.
func (b *Base) HideKeyboard(ctx context.Context) error {
	if err := b.driver.HideKeyboard(); err != nil {
		b.log.Debug().Err(err).Msg("keyboard not hidden")
		return nil
	}
	return b.sleep(ctx, 300*time.Millisecond)
}

// EnsureNative switches to the native context when a context manager is attached.
func (b *Base) EnsureNative() error {
	if b.contexts == nil {
		return nil
	}
	return b.contexts.SwitchToNative()
}

// WaitUntilLoaded polls p.IsLoaded every 250ms for up to timeout.
func (b *Base) WaitUntilLoaded(ctx context.Context, p Page, timeout time.Duration) error {
	if err := b.EnsureNative(); err != nil {
		return err
	}
	err := wait.New(b.driver, timeout).Until(ctx, p.Name()+" to load", func() (bool, error) {
		return p.IsLoaded(), nil
	})
	if err == nil {
		b.log.Info().Str("page", p.Name()).Msg("page loaded")
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	source, _ := b.driver.Source()
	preview := []rune(source)
	if len(preview) > sourcePreviewLen {
		preview = preview[:sourcePreviewLen]
	}
	return core.NewTimeoutError(fmt.Sprintf("Page '%s' did not load within %d ms. Page source preview: %s",
		p.Name(), timeout.Milliseconds(), string(preview)), nil)
}
