// Package gesture wraps W3C pointer gestures in screen-relative terms.
package gesture

import (
	"context"
	"fmt"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
)

// Direction is the direction content moves into view from.
type Direction string

// Scroll directions.
const (
	Down  Direction = "down"
	Up    Direction = "up"
	Left  Direction = "left"
	Right Direction = "right"
)

// Swipe geometry as fractions of the screen.
const (
	nearEdge      = 0.20
	farEdge       = 0.80
	swipeDuration = 800 // ms
)

// Helper performs gestures on a driver.
type Helper struct {
	driver core.Driver
}

// New creates a gesture helper.
func New(driver core.Driver) *Helper {
	return &Helper{driver: driver}
}

// Scroll moves content in dir. Scrolling Down drags the finger upwards.
func (h *Helper) Scroll(dir Direction) error {
	w, ht := h.driver.ScreenSize()
	if w <= 0 || ht <= 0 {
		return fmt.Errorf("scroll %s: unknown screen size %dx%d", dir, w, ht)
	}
	cx, cy := w/2, ht/2
	top, bottom := int(float64(ht)*nearEdge), int(float64(ht)*farEdge)
	left, right := int(float64(w)*nearEdge), int(float64(w)*farEdge)

	switch dir {
	case Down:
		return h.driver.Swipe(cx, bottom, cx, top, swipeDuration)
	case Up:
		return h.driver.Swipe(cx, top, cx, bottom, swipeDuration)
	case Right:
		return h.driver.Swipe(right, cy, left, cy, swipeDuration)
	case Left:
		return h.driver.Swipe(left, cy, right, cy, swipeDuration)
	default:
		return fmt.Errorf("unknown scroll direction %q", dir)
	}
}

// ScrollDown reveals content below.
func (h *Helper) ScrollDown() error { return h.Scroll(Down) }

// ScrollUp reveals content above.
func (h *Helper) ScrollUp() error { return h.Scroll(Up) }

// ScrollLeft reveals content to the left.
func (h *Helper) ScrollLeft() error { return h.Scroll(Left) }

// ScrollRight reveals content to the right.
func (h *Helper) ScrollRight() error { return h.Scroll(Right) }

// TapAt taps absolute screen coordinates.
func (h *Helper) TapAt(x, y int) error {
	return h.driver.Tap(x, y)
}

// TapElementAt taps the point at fractional offsets inside an element.
func (h *Helper) TapElementAt(elementID string, fx, fy float64) error {
	rect, err := h.driver.GetElementRect(elementID)
	if err != nil {
		return fmt.Errorf("rect of %s: %w", elementID, err)
	}
	x, y := rect.PointAt(fx, fy)
	return h.driver.Tap(x, y)
}

// ScrollUntilVisible scrolls in dir until loc matches a displayed element,
// at most maxScrolls times. It returns the element id.
func (h *Helper) ScrollUntilVisible(ctx context.Context, loc core.Locator, dir Direction, maxScrolls int) (string, error) {
	log := logger.WithComponent("gesture")
	for i := 0; i <= maxScrolls; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if id, err := h.driver.FindElement(loc.Strategy, loc.Value); err == nil {
			if shown, _ := h.driver.IsElementDisplayed(id); shown {
				return id, nil
			}
		}
		if i == maxScrolls {
			break
		}
		log.Debug().Str("locator", loc.String()).Int("attempt", i+1).Str("direction", string(dir)).Msg("scrolling")
		if err := h.Scroll(dir); err != nil {
			return "", err
		}
	}
	return "", core.NewElementNotFoundError(loc.String(), loc.Strategy,
		fmt.Sprintf("not visible after %d scrolls %s", maxScrolls, dir))
}
