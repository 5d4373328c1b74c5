// Package device discovers Android devices attached to the local ADB server.
package device

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// State values reported by `adb devices`.
const (
	StateOnline       = "device"
	StateOffline      = "offline"
	StateUnauthorized = "unauthorized"
)

// Info describes one line of `adb devices -l`.
type Info struct {
	Serial  string
	State   string
	Model   string
	Product string
}

// IsEmulator reports whether the serial belongs to a local emulator.
func (i Info) IsEmulator() bool {
	return strings.HasPrefix(i.Serial, "emulator-")
}

// Online reports whether the device accepts commands.
func (i Info) Online() bool {
	return i.State == StateOnline
}

// CommandFunc runs a command and returns its stdout.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// ADB runs adb commands.
type ADB struct {
	path string
	run  CommandFunc
}

// New locates adb on PATH or under $ANDROID_HOME/platform-tools.
func New() (*ADB, error) {
	path, err := findADB()
	if err != nil {
		return nil, err
	}
	return &ADB{path: path, run: execCommand}, nil
}

// NewWithCommand creates an ADB that runs commands through run.
func NewWithCommand(path string, run CommandFunc) *ADB {
	return &ADB{path: path, run: run}
}

// List returns every device the ADB server knows about.
func (a *ADB) List(ctx context.Context) ([]Info, error) {
	out, err := a.run(ctx, a.path, "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}
	return parseDevices(string(out)), nil
}

// OnlineSerials returns the serials of devices in the "device" state.
func (a *ADB) OnlineSerials(ctx context.Context) ([]string, error) {
	devices, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	var serials []string
	for _, d := range devices {
		if d.Online() {
			serials = append(serials, d.Serial)
		}
	}
	if len(serials) == 0 {
		return nil, fmt.Errorf("no connected devices found")
	}
	return serials, nil
}

func parseDevices(out string) []Info {
	var devices []Info
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		info := Info{Serial: parts[0], State: parts[1]}
		for _, kv := range parts[2:] {
			key, value, ok := strings.Cut(kv, ":")
			if !ok {
				continue
			}
			switch key {
			case "model":
				info.Model = value
			case "product":
				info.Product = value
			}
		}
		devices = append(devices, info)
	}
	return devices
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}

// findADB locates the ADB binary.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}
	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if home := os.Getenv(env); home != "" {
			path := filepath.Join(home, "platform-tools", "adb")
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("adb not found in PATH; ensure Android SDK is installed")
}
