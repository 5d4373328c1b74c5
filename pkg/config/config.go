// Package config loads the framework configuration file.
//
// The file is JSON (config.json) or YAML. Every key has a default, and any
// key can be overridden with a BUGTRACKER_<UPPER_SNAKE_KEY> environment
// variable.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// Defaults for keys that may be absent from the file.
const (
	DefaultAppiumServerURL   = "http://127.0.0.1:4723"
	DefaultPlatformName      = "Android"
	DefaultAutomationName    = "UiAutomator2"
	DefaultDeviceName        = "Android Device"
	DefaultNewCommandTimeout = 120
	DefaultExplicitWait      = 15
	DefaultReportDir         = "test-output/extent-reports"
	DefaultTestDataFile      = "testdata/bugs.json"
	DefaultAppPackage        = "com.atidcollege.bugtracker"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "BUGTRACKER_"

// Config represents the framework configuration (config.json).
type Config struct {
	// Appium server and device
	AppiumServerURL   string   `json:"appiumServerUrl" yaml:"appiumServerUrl"`
	PlatformName      string   `json:"platformName" yaml:"platformName"`
	AutomationName    string   `json:"automationName" yaml:"automationName"`
	DeviceName        string   `json:"deviceName" yaml:"deviceName"`
	UDID              string   `json:"udid" yaml:"udid"`
	Devices           []string `json:"devices" yaml:"devices"` // UDIDs for parallel runs
	NewCommandTimeout int      `json:"newCommandTimeout" yaml:"newCommandTimeout"`

	// App under test: appPackage/appActivity for an installed app, or an APK path
	AppPackage           string `json:"appPackage" yaml:"appPackage"`
	AppActivity          string `json:"appActivity" yaml:"appActivity"`
	App                  string `json:"app" yaml:"app"`
	NoReset              bool   `json:"noReset" yaml:"noReset"`
	AutoGrantPermissions bool   `json:"autoGrantPermissions" yaml:"autoGrantPermissions"`
	EnableFileAttachment bool   `json:"enableFileAttachment" yaml:"enableFileAttachment"`

	// Timeouts in seconds
	ImplicitWaitSeconds int `json:"implicitWaitSeconds" yaml:"implicitWaitSeconds"`
	ExplicitWaitSeconds int `json:"explicitWaitSeconds" yaml:"explicitWaitSeconds"`

	// Output and data
	ReportDir    string `json:"reportDir" yaml:"reportDir"`
	TestDataFile string `json:"testDataFile" yaml:"testDataFile"`

	raw map[string]interface{}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		AppiumServerURL:      DefaultAppiumServerURL,
		PlatformName:         DefaultPlatformName,
		AutomationName:       DefaultAutomationName,
		DeviceName:           DefaultDeviceName,
		NewCommandTimeout:    DefaultNewCommandTimeout,
		AppPackage:           DefaultAppPackage,
		NoReset:              true,
		AutoGrantPermissions: true,
		EnableFileAttachment: true,
		ExplicitWaitSeconds:  DefaultExplicitWait,
		ReportDir:            DefaultReportDir,
		TestDataFile:         DefaultTestDataFile,
		raw:                  map[string]interface{}{},
	}
}

// Load loads configuration from a file, applying defaults and environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("cannot read config file %s", path), err)
	}
	return Parse(data)
}

// Parse decodes configuration bytes, applying defaults and environment
// overrides.
func Parse(data []byte) (*Config, error) {
	// JSON goes through encoding/json: yaml.v3 rejects tab indentation,
	// which JSON files commonly use.
	unmarshal := yaml.Unmarshal
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		unmarshal = json.Unmarshal
	}

	cfg := Default()
	if err := unmarshal(data, cfg); err != nil {
		return nil, core.NewConfigurationError("invalid config file", err)
	}

	raw := map[string]interface{}{}
	if err := unmarshal(data, &raw); err != nil {
		return nil, core.NewConfigurationError("invalid config file", err)
	}
	cfg.raw = raw

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths are the config locations LoadFromDir tries, in order,
// relative to its directory.
var SearchPaths = []string{
	"config.json",
	"config.yaml",
	"config.yml",
	filepath.Join("src", "test", "resources", "config.json"),
}

// LoadFromDir loads the first of SearchPaths present in dir. With none
// present the defaults are returned.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range SearchPaths {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a session cannot start without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.AppiumServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.NewConfigurationError(fmt.Sprintf("invalid appiumServerUrl %q", c.AppiumServerURL), err)
	}
	if c.AppPackage == "" && c.App == "" {
		return core.NewConfigurationError("either appPackage or app must be set", nil)
	}
	if c.AppPackage != "" && c.App == "" && c.AppActivity == "" {
		return core.NewConfigurationError("appActivity is required with appPackage", nil)
	}
	if c.NewCommandTimeout < 0 || c.ExplicitWaitSeconds < 0 || c.ImplicitWaitSeconds < 0 {
		return core.NewConfigurationError("timeouts must not be negative", nil)
	}
	return nil
}

// ExplicitWait returns the default wait timeout.
func (c *Config) ExplicitWait() time.Duration {
	return time.Duration(c.ExplicitWaitSeconds) * time.Second
}

// DeviceList returns the devices to run on: Devices when set, else UDID,
// else a single empty entry meaning "whatever the server picks".
func (c *Config) DeviceList() []string {
	if len(c.Devices) > 0 {
		return c.Devices
	}
	return []string{c.UDID}
}

// Get returns a raw value by key as a string, honouring environment
// overrides. Missing keys return "".
func (c *Config) Get(key string) string {
	if v, ok := os.LookupEnv(EnvName(key)); ok {
		return v
	}
	v, ok := c.raw[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// GetOr returns Get(key) or def when the key is absent or empty.
func (c *Config) GetOr(key, def string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return def
}

// Require returns Get(key) or a ConfigurationError naming the key.
func (c *Config) Require(key string) (string, error) {
	v := c.Get(key)
	if v == "" {
		return "", core.NewConfigurationError(fmt.Sprintf("missing required config key %q", key), nil)
	}
	return v, nil
}

// GetInt returns an integer value or def when absent or unparsable.
func (c *Config) GetInt(key string, def int) int {
	v := c.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetBool returns a boolean value or def when absent or unparsable.
func (c *Config) GetBool(key string, def bool) bool {
	v := c.Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetDuration reads a value in seconds.
func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	v := c.Get(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return time.Duration(f * float64(time.Second))
}

// EnvName converts a camelCase key to its environment variable name,
// e.g. appiumServerUrl -> BUGTRACKER_APPIUM_SERVER_URL.
func EnvName(key string) string {
	var b strings.Builder
	b.WriteString(EnvPrefix)
	for i, r := range key {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"appiumServerUrl": &c.AppiumServerURL,
		"platformName":    &c.PlatformName,
		"automationName":  &c.AutomationName,
		"deviceName":      &c.DeviceName,
		"udid":            &c.UDID,
		"appPackage":      &c.AppPackage,
		"appActivity":     &c.AppActivity,
		"app":             &c.App,
		"reportDir":       &c.ReportDir,
		"testDataFile":    &c.TestDataFile,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvName(key)); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"newCommandTimeout":   &c.NewCommandTimeout,
		"implicitWaitSeconds": &c.ImplicitWaitSeconds,
		"explicitWaitSeconds": &c.ExplicitWaitSeconds,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(EnvName(key)); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return core.NewConfigurationError(fmt.Sprintf("%s must be an integer", EnvName(key)), err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"noReset":              &c.NoReset,
		"autoGrantPermissions": &c.AutoGrantPermissions,
		"enableFileAttachment": &c.EnableFileAttachment,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(EnvName(key)); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return core.NewConfigurationError(fmt.Sprintf("%s must be a boolean", EnvName(key)), err)
			}
			*dst = b
		}
	}

	if v, ok := os.LookupEnv(EnvName("devices")); ok && v != "" {
		c.Devices = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
