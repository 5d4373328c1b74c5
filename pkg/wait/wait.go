// Package wait polls the device until a condition holds.
package wait

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// Defaults match the app's slowest screen transitions.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultInterval = 250 * time.Millisecond
)

var errNotYet = errors.New("condition not met")

// Condition reports whether the awaited state has been reached. Errors are
// treated as "not yet" and the last one is attached to the timeout error.
type Condition func() (bool, error)

// Waiter polls conditions against a driver.
type Waiter struct {
	driver   core.Driver
	timeout  time.Duration
	interval time.Duration
}

// New creates a waiter. A zero timeout means DefaultTimeout.
func New(driver core.Driver, timeout time.Duration) *Waiter {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Waiter{driver: driver, timeout: timeout, interval: DefaultInterval}
}

// WithTimeout returns a copy of the waiter using timeout.
func (w *Waiter) WithTimeout(timeout time.Duration) *Waiter {
	c := *w
	c.timeout = timeout
	return &c
}

// WithInterval returns a copy of the waiter polling every interval.
func (w *Waiter) WithInterval(interval time.Duration) *Waiter {
	c := *w
	c.interval = interval
	return &c
}

// Timeout returns the configured timeout.
func (w *Waiter) Timeout() time.Duration {
	return w.timeout
}

// Until polls cond until it returns true, the timeout passes or ctx ends.
// A negative timeout checks the condition exactly once.
func (w *Waiter) Until(ctx context.Context, desc string, cond Condition) error {
	var last error
	op := func() (struct{}, error) {
		ok, err := cond()
		if err != nil {
			last = err
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, errNotYet
		}
		return struct{}{}, nil
	}

	opts := []backoff.RetryOption{backoff.WithBackOff(backoff.NewConstantBackOff(w.interval))}
	if w.timeout < 0 {
		opts = append(opts, backoff.WithMaxTries(1))
	} else {
		opts = append(opts, backoff.WithMaxElapsedTime(w.timeout))
	}

	if _, err := backoff.Retry(ctx, op, opts...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return core.NewTimeoutError(fmt.Sprintf("timed out after %s waiting for %s", w.timeout, desc), last)
	}
	return nil
}

// ForPresent waits until loc matches an element and returns its id.
func (w *Waiter) ForPresent(ctx context.Context, loc core.Locator) (string, error) {
	var id string
	err := w.Until(ctx, loc.String()+" to be present", func() (bool, error) {
		found, err := w.driver.FindElement(loc.Strategy, loc.Value)
		if err != nil {
			return false, err
		}
		id = found
		return true, nil
	})
	if err != nil {
		return "", w.notFound(loc, "not present", err)
	}
	return id, nil
}

// ForVisible waits until loc matches a displayed element and returns its id.
func (w *Waiter) ForVisible(ctx context.Context, loc core.Locator) (string, error) {
	var id string
	err := w.Until(ctx, loc.String()+" to be visible", func() (bool, error) {
		found, err := w.driver.FindElement(loc.Strategy, loc.Value)
		if err != nil {
			return false, err
		}
		shown, err := w.driver.IsElementDisplayed(found)
		if err != nil || !shown {
			return false, err
		}
		id = found
		return true, nil
	})
	if err != nil {
		return "", w.notFound(loc, "not visible", err)
	}
	return id, nil
}

// ForClickable waits until loc matches a displayed, enabled element.
func (w *Waiter) ForClickable(ctx context.Context, loc core.Locator) (string, error) {
	var id string
	err := w.Until(ctx, loc.String()+" to be clickable", func() (bool, error) {
		found, err := w.driver.FindElement(loc.Strategy, loc.Value)
		if err != nil {
			return false, err
		}
		shown, err := w.driver.IsElementDisplayed(found)
		if err != nil || !shown {
			return false, err
		}
		enabled, err := w.driver.IsElementEnabled(found)
		if err != nil || !enabled {
			return false, err
		}
		id = found
		return true, nil
	})
	if err != nil {
		return "", w.notFound(loc, "not clickable", err)
	}
	return id, nil
}

// ForInvisible waits until loc matches nothing or only hidden elements.
func (w *Waiter) ForInvisible(ctx context.Context, loc core.Locator) error {
	return w.Until(ctx, loc.String()+" to disappear", func() (bool, error) {
		ids, err := w.driver.FindElements(loc.Strategy, loc.Value)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			if shown, err := w.driver.IsElementDisplayed(id); err == nil && shown {
				return false, nil
			}
		}
		return true, nil
	})
}

// ForText waits until the element at loc contains substr.
func (w *Waiter) ForText(ctx context.Context, loc core.Locator, substr string) (string, error) {
	var text string
	err := w.Until(ctx, fmt.Sprintf("%s to contain %q", loc, substr), func() (bool, error) {
		id, err := w.driver.FindElement(loc.Strategy, loc.Value)
		if err != nil {
			return false, err
		}
		text, err = w.driver.GetElementText(id)
		if err != nil {
			return false, err
		}
		return strings.Contains(text, substr), nil
	})
	return text, err
}

// Pause sleeps for d unless ctx ends first.
func Pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Waiter) notFound(loc core.Locator, state string, cause error) error {
	if ctxErr := contextErr(cause); ctxErr != nil {
		return ctxErr
	}
	return core.NewElementNotFoundError(loc.String(), loc.Strategy,
		fmt.Sprintf("%s after %s", state, w.timeout)).WithCause(cause)
}

// contextErr returns cause when it is a context error so cancellation is not
// reported as a missing element.
func contextErr(cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	return nil
}
