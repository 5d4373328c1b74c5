package mock

import (
	"errors"
	"testing"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

func TestDevice_FindAndClick(t *testing.T) {
	d := New()
	opened := false
	btn := d.Add(core.ByAccessibilityID, "Create Bug", &Element{
		Text:    "Create Bug",
		OnClick: func(*Device) { opened = true },
	})

	id, err := d.FindElement(core.ByAccessibilityID, "Create Bug")
	if err != nil {
		t.Fatalf("FindElement() error = %v", err)
	}
	if id != btn.ID {
		t.Errorf("id = %q, want %q", id, btn.ID)
	}
	if err := d.ClickElement(id); err != nil {
		t.Fatalf("ClickElement() error = %v", err)
	}
	if !opened || !d.Clicked(btn) {
		t.Error("click hook not run or not recorded")
	}
}

func TestDevice_FindElementMissing(t *testing.T) {
	d := New()
	if _, err := d.FindElement(core.ByID, "nope"); !errors.Is(err, core.ErrElementNotFound) {
		t.Errorf("expected element-not-found, got %v", err)
	}
	ids, err := d.FindElements(core.ByID, "nope")
	if err != nil || len(ids) != 0 {
		t.Errorf("FindElements() = %v, %v", ids, err)
	}
}

func TestDevice_Children(t *testing.T) {
	d := New()
	tile := &Element{}
	tile.AddChild(core.ByID, "content_duration", &Element{Text: "0:12"})
	d.Add(core.ByID, "tile", tile)

	ids, err := d.FindChildElements(tile.ID, core.ByID, "content_duration")
	if err != nil || len(ids) != 1 {
		t.Fatalf("FindChildElements() = %v, %v", ids, err)
	}
	text, _ := d.GetElementText(ids[0])
	if text != "0:12" {
		t.Errorf("child text = %q", text)
	}
}

func TestDevice_TypeAndClear(t *testing.T) {
	d := New()
	field := d.Add(core.ByID, "bugTitle", &Element{})

	d.SendKeysToElement(field.ID, "Crash")
	if got, _ := d.GetElementText(field.ID); got != "Crash" {
		t.Errorf("text = %q", got)
	}
	d.ClearElement(field.ID)
	if got, _ := d.GetElementText(field.ID); got != "" {
		t.Errorf("text after clear = %q", got)
	}
}

func TestDevice_TapHitsElement(t *testing.T) {
	d := New()
	hit := false
	d.Add(core.ByID, "tab", &Element{
		Rect:    core.Rect{X: 0, Y: 2200, Width: 540, Height: 140},
		OnClick: func(*Device) { hit = true },
	})

	d.Tap(459, 2270)
	if !hit {
		t.Error("tap inside rect should trigger OnClick")
	}
	if len(d.Taps) != 1 {
		t.Errorf("taps = %v", d.Taps)
	}
}

func TestDevice_Contexts(t *testing.T) {
	d := New()
	d.Contexts = []string{core.NativeContext, "WEBVIEW_com.atidcollege.bugtracker"}
	d.ContextDelay = 1

	first, _ := d.GetContexts()
	if len(first) != 1 {
		t.Errorf("first GetContexts() = %v, want native only", first)
	}
	second, _ := d.GetContexts()
	if len(second) != 2 {
		t.Errorf("second GetContexts() = %v", second)
	}
	if err := d.SetContext("WEBVIEW_other"); err == nil {
		t.Error("expected error for unknown context")
	}
	if err := d.SetContext(second[1]); err != nil {
		t.Fatalf("SetContext() error = %v", err)
	}
	if got, _ := d.GetContext(); got != second[1] {
		t.Errorf("GetContext() = %q", got)
	}
}
