// Package session owns the lifecycle of one Appium session per device.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/atidcollege/bugtracker-automation/pkg/config"
	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/driver/appium"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
)

// Session start retry policy.
const (
	startAttempts   uint = 3
	startBackoff         = 2 * time.Second
	startMaxBackoff      = 10 * time.Second
)

// Client is what the manager needs from a driver beyond core.Driver.
type Client interface {
	core.Driver
	Connect(capabilities map[string]interface{}) error
	SetImplicitWait(timeout time.Duration) error
}

// Manager starts, exposes and stops the session for one device.
type Manager struct {
	cfg      *config.Config
	udid     string
	dial     func(serverURL string) Client
	attempts uint
	initial  time.Duration

	mu     sync.Mutex
	client Client
	log    zerolog.Logger
}

// Option customises a Manager.
type Option func(*Manager)

// WithDialer replaces the Appium client constructor.
func WithDialer(dial func(serverURL string) Client) Option {
	return func(m *Manager) { m.dial = dial }
}

// WithRetry sets how many times session creation is attempted and the first
// delay between attempts.
func WithRetry(attempts uint, initial time.Duration) Option {
	return func(m *Manager) {
		m.attempts = attempts
		m.initial = initial
	}
}

// NewManager creates a manager for the device udid. An empty udid lets the
// server choose.
func NewManager(cfg *config.Config, udid string, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		udid:     udid,
		dial:     func(serverURL string) Client { return appium.NewClient(serverURL) },
		attempts: startAttempts,
		initial:  startBackoff,
		log:      logger.WithComponent("session").With().Str("device", udid).Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UDID returns the device this manager drives.
func (m *Manager) UDID() string {
	return m.udid
}

// Capabilities builds the W3C capabilities for the configured app and device.
func Capabilities(cfg *config.Config, udid string) map[string]interface{} {
	caps := map[string]interface{}{
		"platformName":                cfg.PlatformName,
		"appium:automationName":       cfg.AutomationName,
		"appium:deviceName":           cfg.DeviceName,
		"appium:newCommandTimeout":    cfg.NewCommandTimeout,
		"appium:autoGrantPermissions": cfg.AutoGrantPermissions,
		"appium:allowInsecure":        []string{"adb_shell"},
		"appium:enableFileAttachment": cfg.EnableFileAttachment,
	}
	if udid != "" {
		caps["appium:udid"] = udid
	}

	// An installed app wins; the APK is only a fallback.
	if cfg.AppPackage != "" && cfg.AppActivity != "" {
		caps["appium:appPackage"] = cfg.AppPackage
		caps["appium:appActivity"] = cfg.AppActivity
		caps["appium:appWaitActivity"] = "*"
		caps["appium:noReset"] = cfg.NoReset
	} else if cfg.App != "" {
		caps["appium:app"] = config.Resolve(cfg.App)
	}
	return caps
}

// Start creates the session, retrying transient failures, then brings the
// app to the foreground.
func (m *Manager) Start(ctx context.Context) (core.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil && m.client.SessionID() != "" {
		return m.client, nil
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}

	caps := Capabilities(m.cfg, m.udid)
	m.log.Info().Str("server", m.cfg.AppiumServerURL).Msg("starting session")

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = m.initial
	exp.MaxInterval = startMaxBackoff

	client, err := backoff.Retry(ctx, func() (Client, error) {
		c := m.dial(m.cfg.AppiumServerURL)
		if err := c.Connect(caps); err != nil {
			return nil, err
		}
		return c, nil
	},
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(m.attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.log.Warn().Err(err).Dur("retry_in", next).Msg("session start failed")
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.NewDriverInitError(
			fmt.Sprintf("could not start session on %s after %d attempts", m.cfg.AppiumServerURL, m.attempts), err)
	}

	if m.cfg.ImplicitWaitSeconds > 0 {
		if err := client.SetImplicitWait(time.Duration(m.cfg.ImplicitWaitSeconds) * time.Second); err != nil {
			m.log.Warn().Err(err).Msg("implicit wait not applied")
		}
	}

	m.client = client
	m.log = m.log.With().Str("session_id", client.SessionID()).Logger()

	if err := m.ensureForeground(); err != nil {
		m.log.Warn().Err(err).Msg("could not bring app to foreground")
	}
	m.log.Info().Msg("session ready")
	return client, nil
}

// ensureForeground activates the app when another package is on top.
func (m *Manager) ensureForeground() error {
	if m.cfg.AppPackage == "" {
		return nil
	}
	current, err := m.client.CurrentPackage()
	if err != nil {
		// Unknown foreground: activate anyway.
		m.log.Warn().Err(err).Msg("cannot read current package")
	} else if current == m.cfg.AppPackage {
		return nil
	}
	m.log.Info().Str("current", current).Str("app", m.cfg.AppPackage).Msg("activating app")
	if err := m.client.ActivateApp(m.cfg.AppPackage); err != nil {
		return fmt.Errorf("activate %s: %w", m.cfg.AppPackage, err)
	}
	return nil
}

// Driver returns the live driver or an error when no session is running.
func (m *Manager) Driver() (core.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil, core.NewDriverInitError("session not started", nil)
	}
	return m.client, nil
}

// IsStarted reports whether a session is running.
func (m *Manager) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil
}

// Quit ends the session. Calling it again is a no-op.
func (m *Manager) Quit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect()
	m.client = nil
	if err != nil {
		return fmt.Errorf("quit session: %w", err)
	}
	m.log.Info().Msg("session ended")
	return nil
}

// IsDriverInitError reports whether err came from a failed session start.
func IsDriverInitError(err error) bool {
	return errors.Is(err, core.ErrDriverInit)
}
