// Package mobilecontext switches the session between the native UI tree and
// the app's WebView.
package mobilecontext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
	"github.com/atidcollege/bugtracker-automation/pkg/wait"
)

// WebView lookup timing.
const (
	WebViewTimeout  = 15 * time.Second
	WebViewInterval = 250 * time.Millisecond
	logEvery        = 8
)

// Manager tracks and switches automation contexts for one session.
type Manager struct {
	driver     core.Driver
	appPackage string
	waiter     *wait.Waiter
	log        zerolog.Logger
}

// New creates a context manager for the app identified by appPackage.
func New(driver core.Driver, appPackage string) *Manager {
	return &Manager{
		driver:     driver,
		appPackage: appPackage,
		waiter:     wait.New(driver, WebViewTimeout).WithInterval(WebViewInterval),
		log:        logger.WithComponent("context"),
	}
}

// WithTimeout returns a copy of the manager that waits timeout for webviews.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	c := *m
	c.waiter = m.waiter.WithTimeout(timeout)
	return &c
}

// Current returns the active context name.
func (m *Manager) Current() (string, error) {
	return m.driver.GetContext()
}

// Available lists the contexts the device offers.
func (m *Manager) Available() ([]string, error) {
	return m.driver.GetContexts()
}

// IsNative reports whether the native context is active.
func (m *Manager) IsNative() bool {
	c, err := m.Current()
	return err == nil && c == core.NativeContext
}

// IsWebView reports whether a WebView context is active.
func (m *Manager) IsWebView() bool {
	c, err := m.Current()
	return err == nil && strings.HasPrefix(c, core.WebViewPrefix)
}

// SwitchToNative activates NATIVE_APP. It is a no-op when already native.
func (m *Manager) SwitchToNative() error {
	if m.IsNative() {
		return nil
	}
	return m.SwitchTo(core.NativeContext)
}

// SwitchToWebView waits for the app's WebView context and activates it.
func (m *Manager) SwitchToWebView(ctx context.Context) (string, error) {
	var (
		target   string
		attempts int
		seen     []string
	)

	err := m.waiter.Until(ctx, "webview context", func() (bool, error) {
		attempts++
		contexts, err := m.driver.GetContexts()
		if err != nil {
			return false, err
		}
		seen = contexts
		if attempts%logEvery == 0 {
			m.log.Debug().Int("attempt", attempts).Strs("contexts", contexts).Msg("waiting for webview")
		}
		target = m.matchWebView(contexts)
		return target != "", nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		want := core.WebViewPrefix + "_" + m.appPackage
		e := core.NewContextSwitchError(want, seen, fmt.Sprintf("no webview appeared within %s", m.waiter.Timeout()))
		return "", e.WithCause(err)
	}

	if err := m.SwitchTo(target); err != nil {
		return "", err
	}
	return target, nil
}

// SwitchTo activates the named context.
func (m *Manager) SwitchTo(name string) error {
	if err := m.driver.SetContext(name); err != nil {
		available, _ := m.driver.GetContexts()
		return core.NewContextSwitchError(name, available, "").WithCause(err)
	}
	m.log.Info().Str("context", name).Msg("switched context")
	return nil
}

// TrySwitch activates the named context and reports success instead of
// returning an error.
func (m *Manager) TrySwitch(name string) bool {
	if err := m.SwitchTo(name); err != nil {
		m.log.Debug().Err(err).Str("context", name).Msg("context switch failed")
		return false
	}
	return true
}

// matchWebView prefers the app's own WebView over any other.
func (m *Manager) matchWebView(contexts []string) string {
	var fallback string
	for _, c := range contexts {
		if !strings.HasPrefix(c, core.WebViewPrefix) {
			continue
		}
		if m.appPackage != "" && strings.Contains(c, m.appPackage) {
			return c
		}
		if m.appPackage == "" && fallback == "" {
			fallback = c
		}
	}
	return fallback
}
