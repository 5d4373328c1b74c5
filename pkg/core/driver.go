package core

import "fmt"

// Locator strategies understood by the Appium UiAutomator2 driver.
const (
	ByID              = "id"
	ByAccessibilityID = "accessibility id"
	ByXPath           = "xpath"
	ByClassName       = "class name"
	ByUiAutomator     = "-android uiautomator"
)

// Well-known automation contexts.
const (
	NativeContext = "NATIVE_APP"
	WebViewPrefix = "WEBVIEW"
)

// Driver is the device-side surface the page objects are written against.
// The Appium client implements it over HTTP; the mock package implements it
// in memory for tests.
type Driver interface {
	// Elements
	FindElement(strategy, value string) (string, error)
	FindElements(strategy, value string) ([]string, error)
	FindChildElement(parentID, strategy, value string) (string, error)
	FindChildElements(parentID, strategy, value string) ([]string, error)
	ClickElement(elementID string) error
	ClearElement(elementID string) error
	SendKeysToElement(elementID, text string) error
	GetElementText(elementID string) (string, error)
	GetElementAttribute(elementID, name string) (string, error)
	GetElementRect(elementID string) (Rect, error)
	IsElementDisplayed(elementID string) (bool, error)
	IsElementEnabled(elementID string) (bool, error)

	// Gestures
	Tap(x, y int) error
	Swipe(startX, startY, endX, endY, durationMs int) error

	// Device
	ScreenSize() (int, int)
	HideKeyboard() error
	Back() error
	ActivateApp(appID string) error
	CurrentPackage() (string, error)
	PushFile(remotePath string, data []byte) error
	Screenshot() ([]byte, error)
	Source() (string, error)

	// Contexts
	GetContext() (string, error)
	GetContexts() ([]string, error)
	SetContext(name string) error

	// Session
	SessionID() string
	Disconnect() error
}

// Rect is an element's position and size in screen pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the rect.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains checks if a point is within the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// PointAt returns the point at fractional offsets (fx, fy) inside the rect.
func (r Rect) PointAt(fx, fy float64) (int, int) {
	return r.X + int(float64(r.Width)*fx), r.Y + int(float64(r.Height)*fy)
}

// Locator pairs a strategy with its selector and a human-readable name used
// in errors and logs.
type Locator struct {
	Strategy    string
	Value       string
	Description string
}

// String returns the description, falling back to strategy=value.
func (l Locator) String() string {
	if l.Description != "" {
		return l.Description
	}
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// ID returns a resource-id locator.
func ID(resourceID string) Locator {
	return Locator{Strategy: ByID, Value: resourceID, Description: "id " + resourceID}
}

// AccessibilityID returns a content-desc locator.
func AccessibilityID(desc string) Locator {
	return Locator{Strategy: ByAccessibilityID, Value: desc, Description: "accessibility id " + desc}
}

// XPath returns an xpath locator.
func XPath(expr string) Locator {
	return Locator{Strategy: ByXPath, Value: expr, Description: "xpath " + expr}
}

// UiAutomator returns a UiSelector locator with the given description.
func UiAutomator(selector, description string) Locator {
	return Locator{Strategy: ByUiAutomator, Value: selector, Description: description}
}
