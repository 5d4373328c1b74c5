// Package mock provides an in-memory device for testing page objects and
// runners without an Appium server.
package mock

import (
	"fmt"
	"sync"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// Element is a fake UI element.
type Element struct {
	ID         string
	Text       string
	Attributes map[string]string
	Rect       core.Rect
	Hidden     bool
	Disabled   bool

	// OnClick runs after the element is clicked; use it to change the screen.
	OnClick func(d *Device)

	children map[string][]*Element
}

// AddChild registers child under this element for the given locator.
func (e *Element) AddChild(strategy, value string, child *Element) *Element {
	if e.children == nil {
		e.children = make(map[string][]*Element)
	}
	k := key(strategy, value)
	e.children[k] = append(e.children[k], child)
	return child
}

// Device is a mock implementation of core.Driver.
type Device struct {
	mu       sync.Mutex
	elements map[string][]*Element
	byID     map[string]*Element
	nextID   int

	// Configuration
	Width, Height int
	Contexts      []string
	Context       string
	Package       string
	Session       string
	SourceXML     string
	PNG           []byte

	// ContextDelay makes GetContexts hide WEBVIEW contexts for that many calls.
	ContextDelay int
	// SetContextErr is returned from SetContext when non-nil.
	SetContextErr error
	// OnSwipe runs after every swipe.
	OnSwipe func(d *Device, startX, startY, endX, endY int)
	// OnBack runs after every back press.
	OnBack func(d *Device)

	// Recorded interactions
	Clicks         []string
	Typed          map[string]string
	Taps           [][2]int
	Swipes         [][4]int
	BackPresses    int
	KeyboardHidden int
	Activated      []string
	Files          map[string][]byte
	Disconnected   bool
}

var _ core.Driver = (*Device)(nil)

// New creates an empty device with the app package in the foreground.
func New() *Device {
	return &Device{
		elements: make(map[string][]*Element),
		byID:     make(map[string]*Element),
		Width:    1080,
		Height:   2340,
		Contexts: []string{core.NativeContext},
		Context:  core.NativeContext,
		Package:  "com.atidcollege.bugtracker",
		Session:  "mock-session",
		Typed:    make(map[string]string),
		Files:    make(map[string][]byte),
	}
}

func key(strategy, value string) string {
	return strategy + "|" + value
}

// Add registers el as a match for (strategy, value) and returns it.
func (d *Device) Add(strategy, value string, el *Element) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.register(el)
	k := key(strategy, value)
	d.elements[k] = append(d.elements[k], el)
	return el
}

// Remove drops every element registered for (strategy, value).
func (d *Device) Remove(strategy, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, key(strategy, value))
}

// Clicked reports whether the element was clicked at least once.
func (d *Device) Clicked(el *Element) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.Clicks {
		if id == el.ID {
			return true
		}
	}
	return false
}

func (d *Device) register(el *Element) {
	if el.ID == "" {
		d.nextID++
		el.ID = fmt.Sprintf("el-%d", d.nextID)
	}
	d.byID[el.ID] = el
	for _, kids := range el.children {
		for _, c := range kids {
			d.register(c)
		}
	}
}

func (d *Device) lookup(id string) (*Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("stale element reference: %s", id)
	}
	return el, nil
}

// Elements

// FindElement returns the first element registered for the locator.
func (d *Device) FindElement(strategy, value string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	els := d.elements[key(strategy, value)]
	if len(els) == 0 {
		return "", core.NewElementNotFoundError(value, strategy, "mock")
	}
	return els[0].ID, nil
}

// FindElements returns all elements registered for the locator.
func (d *Device) FindElements(strategy, value string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []string
	for _, el := range d.elements[key(strategy, value)] {
		ids = append(ids, el.ID)
	}
	return ids, nil
}

// FindChildElement returns the first child of parentID for the locator.
func (d *Device) FindChildElement(parentID, strategy, value string) (string, error) {
	ids, err := d.FindChildElements(parentID, strategy, value)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", core.NewElementNotFoundError(value, strategy, "mock child")
	}
	return ids[0], nil
}

// FindChildElements returns all children of parentID for the locator.
func (d *Device) FindChildElements(parentID, strategy, value string) ([]string, error) {
	parent, err := d.lookup(parentID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []string
	for _, c := range parent.children[key(strategy, value)] {
		d.register(c)
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// ClickElement records the click and runs the element's OnClick hook.
func (d *Device) ClickElement(elementID string) error {
	el, err := d.lookup(elementID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.Clicks = append(d.Clicks, elementID)
	d.mu.Unlock()

	if el.OnClick != nil {
		el.OnClick(d)
	}
	return nil
}

// ClearElement empties the element's text.
func (d *Device) ClearElement(elementID string) error {
	el, err := d.lookup(elementID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	el.Text = ""
	return nil
}

// SendKeysToElement appends text to the element.
func (d *Device) SendKeysToElement(elementID, text string) error {
	el, err := d.lookup(elementID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	el.Text += text
	d.Typed[elementID] = el.Text
	return nil
}

// GetElementText returns the element's text.
func (d *Device) GetElementText(elementID string) (string, error) {
	el, err := d.lookup(elementID)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return el.Text, nil
}

// GetElementAttribute returns an attribute; "text" and "content-desc" fall
// back to the element's text when not set explicitly.
func (d *Device) GetElementAttribute(elementID, name string) (string, error) {
	el, err := d.lookup(elementID)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := el.Attributes[name]; ok {
		return v, nil
	}
	switch name {
	case "text":
		return el.Text, nil
	case "displayed":
		return fmt.Sprint(!el.Hidden), nil
	case "enabled":
		return fmt.Sprint(!el.Disabled), nil
	}
	return "", nil
}

// GetElementRect returns the element's rect.
func (d *Device) GetElementRect(elementID string) (core.Rect, error) {
	el, err := d.lookup(elementID)
	if err != nil {
		return core.Rect{}, err
	}
	return el.Rect, nil
}

// IsElementDisplayed reports !Hidden.
func (d *Device) IsElementDisplayed(elementID string) (bool, error) {
	el, err := d.lookup(elementID)
	if err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return !el.Hidden, nil
}

// IsElementEnabled reports !Disabled.
func (d *Device) IsElementEnabled(elementID string) (bool, error) {
	el, err := d.lookup(elementID)
	if err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return !el.Disabled, nil
}

// Gestures

// Tap records a tap and clicks any visible element whose rect contains it.
func (d *Device) Tap(x, y int) error {
	d.mu.Lock()
	d.Taps = append(d.Taps, [2]int{x, y})
	var hit *Element
	for _, els := range d.elements {
		for _, el := range els {
			if !el.Hidden && el.Rect.Width > 0 && el.Rect.Contains(x, y) {
				hit = el
			}
		}
	}
	d.mu.Unlock()

	if hit != nil && hit.OnClick != nil {
		hit.OnClick(d)
	}
	return nil
}

// Swipe records a swipe and runs OnSwipe.
func (d *Device) Swipe(startX, startY, endX, endY, durationMs int) error {
	d.mu.Lock()
	d.Swipes = append(d.Swipes, [4]int{startX, startY, endX, endY})
	hook := d.OnSwipe
	d.mu.Unlock()

	if hook != nil {
		hook(d, startX, startY, endX, endY)
	}
	return nil
}

// Device

// ScreenSize returns the configured screen size.
func (d *Device) ScreenSize() (int, int) {
	return d.Width, d.Height
}

// HideKeyboard counts keyboard dismissals.
func (d *Device) HideKeyboard() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.KeyboardHidden++
	return nil
}

// Back counts back presses and runs OnBack.
func (d *Device) Back() error {
	d.mu.Lock()
	d.BackPresses++
	hook := d.OnBack
	d.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return nil
}

// ActivateApp brings appID to the foreground.
func (d *Device) ActivateApp(appID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Activated = append(d.Activated, appID)
	d.Package = appID
	return nil
}

// CurrentPackage returns the foreground package.
func (d *Device) CurrentPackage() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Package, nil
}

// PushFile stores data under remotePath.
func (d *Device) PushFile(remotePath string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Files[remotePath] = data
	return nil
}

// Screenshot returns the configured PNG bytes.
func (d *Device) Screenshot() ([]byte, error) {
	if d.PNG == nil {
		return []byte{0x89, 'P', 'N', 'G'}, nil
	}
	return d.PNG, nil
}

// Source returns the configured page source.
func (d *Device) Source() (string, error) {
	return d.SourceXML, nil
}

// Contexts

// GetContext returns the active context.
func (d *Device) GetContext() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Context, nil
}

// GetContexts returns the configured contexts, hiding webviews while
// ContextDelay is positive.
func (d *Device) GetContexts() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ContextDelay > 0 {
		d.ContextDelay--
		return []string{core.NativeContext}, nil
	}
	return append([]string(nil), d.Contexts...), nil
}

// SetContext switches to name when it is one of Contexts.
func (d *Device) SetContext(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SetContextErr != nil {
		return d.SetContextErr
	}
	for _, c := range d.Contexts {
		if c == name {
			d.Context = name
			return nil
		}
	}
	return fmt.Errorf("no such context: %s", name)
}

// Session

// SessionID returns the fake session id.
func (d *Device) SessionID() string {
	return d.Session
}

// Disconnect marks the device as disconnected.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Disconnected = true
	return nil
}
