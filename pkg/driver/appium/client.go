// Package appium implements core.Driver against an Appium server using the
// W3C WebDriver protocol.
package appium

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
	"github.com/atidcollege/bugtracker-automation/pkg/logger"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Client handles HTTP communication with Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	platform  string
	screenW   int
	screenH   int
	log       zerolog.Logger
}

var _ core.Driver = (*Client)(nil)

// NewClient creates a new Appium client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute, // app install on session start can be slow
		},
		log: logger.WithComponent("appium"),
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}

	if caps, ok := value["capabilities"].(map[string]interface{}); ok {
		if platform, ok := caps["platformName"].(string); ok {
			c.platform = strings.ToLower(platform)
		}
	}
	c.log = c.log.With().Str("session_id", c.sessionID).Logger()
	c.log.Info().Str("platform", c.platform).Msg("session created")

	c.fetchScreenSize()

	// UiAutomator2 waits for the UI to idle before every lookup by default;
	// the page objects do their own polling.
	waitForIdleTimeout := 0
	if settings, ok := capabilities["appium:settings"].(map[string]interface{}); ok {
		if val, ok := settings["waitForIdleTimeout"].(int); ok {
			waitForIdleTimeout = val
		} else if val, ok := settings["waitForIdleTimeout"].(float64); ok {
			waitForIdleTimeout = int(val)
		}
	}
	if err := c.SetSettings(map[string]interface{}{
		"waitForIdleTimeout":     waitForIdleTimeout,
		"waitForSelectorTimeout": 0,
	}); err != nil {
		c.log.Debug().Err(err).Msg("settings not applied")
	}

	return nil
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.log.Info().Msg("session closed")
	c.sessionID = ""
	return err
}

// SessionID returns the current session id, empty when not connected.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Platform returns the platform reported by the server.
func (c *Client) Platform() string {
	return c.platform
}

// ScreenSize returns the screen dimensions. A size that could not be read
// at connect time is fetched again; it stays 0x0 while the server fails.
func (c *Client) ScreenSize() (int, int) {
	if (c.screenW == 0 || c.screenH == 0) && c.sessionID != "" {
		c.fetchScreenSize()
	}
	return c.screenW, c.screenH
}

func (c *Client) fetchScreenSize() {
	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		c.log.Warn().Err(err).Msg("cannot read window rect")
		return
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		if w, ok := value["width"].(float64); ok {
			c.screenW = int(w)
		}
		if h, ok := value["height"].(float64); ok {
			c.screenH = int(h)
		}
	}
}

// Element Operations

// FindElement finds a single element.
func (c *Client) FindElement(strategy, value string) (string, error) {
	return c.findOne(c.sessionPath()+"/element", strategy, value)
}

// FindElements finds multiple elements. No match is an empty slice, not an error.
func (c *Client) FindElements(strategy, value string) ([]string, error) {
	return c.findMany(c.sessionPath()+"/elements", strategy, value)
}

// FindChildElement finds a single element below parentID.
func (c *Client) FindChildElement(parentID, strategy, value string) (string, error) {
	return c.findOne(c.elementPath(parentID)+"/element", strategy, value)
}

// FindChildElements finds elements below parentID.
func (c *Client) FindChildElements(parentID, strategy, value string) ([]string, error) {
	return c.findMany(c.elementPath(parentID)+"/elements", strategy, value)
}

func (c *Client) findOne(path, strategy, value string) (string, error) {
	resp, err := c.post(path, map[string]interface{}{
		"using": strategy,
		"value": value,
	})
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", core.NewElementNotFoundError(value, strategy, "empty response")
	}
	id := extractElementID(elemValue)
	if id == "" {
		return "", core.NewElementNotFoundError(value, strategy, "no element id in response")
	}
	return id, nil
}

func (c *Client) findMany(path, strategy, value string) ([]string, error) {
	resp, err := c.post(path, map[string]interface{}{
		"using": strategy,
		"value": value,
	})
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ClickElement clicks an element using WebDriver standard endpoint.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", nil)
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", nil)
	return err
}

// SendKeysToElement types text into an element.
func (c *Client) SendKeysToElement(elementID, text string) error {
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

// GetElementText returns an element's text.
func (c *Client) GetElementText(elementID string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// GetElementAttribute returns an element's attribute value.
func (c *Client) GetElementAttribute(elementID, name string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/attribute/" + name)
	if err != nil {
		return "", err
	}
	switch v := resp["value"].(type) {
	case string:
		return v, nil
	case bool:
		return fmt.Sprint(v), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}

// GetElementRect returns an element's position and size.
func (c *Client) GetElementRect(elementID string) (core.Rect, error) {
	resp, err := c.get(c.elementPath(elementID) + "/rect")
	if err != nil {
		return core.Rect{}, err
	}
	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Rect{}, fmt.Errorf("invalid rect response")
	}

	xf, _ := value["x"].(float64)
	yf, _ := value["y"].(float64)
	wf, _ := value["width"].(float64)
	hf, _ := value["height"].(float64)
	return core.Rect{X: int(xf), Y: int(yf), Width: int(wf), Height: int(hf)}, nil
}

// IsElementDisplayed checks if element is visible.
func (c *Client) IsElementDisplayed(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// IsElementEnabled checks if element is enabled.
func (c *Client) IsElementEnabled(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/enabled")
	if err != nil {
		return false, err
	}
	enabled, _ := resp["value"].(bool)
	return enabled, nil
}

// Touch/Gesture Operations (W3C Actions)

func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Tap performs a tap at coordinates using W3C touch actions.
func (c *Client) Tap(x, y int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// Swipe performs a swipe gesture.
func (c *Client) Swipe(startX, startY, endX, endY, durationMs int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": startX, "y": startY, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 100},
		{"type": "pointerMove", "duration": durationMs, "x": endX, "y": endY, "origin": "viewport"},
		{"type": "pointerUp", "button": 0},
	})
}

// Text Input

// SendKeys sends text to the focused element.
func (c *Client) SendKeys(text string) error {
	var keyActions []map[string]interface{}
	for _, ch := range text {
		keyActions = append(keyActions,
			map[string]interface{}{"type": "keyDown", "value": string(ch)},
			map[string]interface{}{"type": "keyUp", "value": string(ch)},
		)
	}

	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{
		"actions": []map[string]interface{}{
			{
				"type":    "key",
				"id":      "keyboard",
				"actions": keyActions,
			},
		},
	})
	return err
}

// HideKeyboard hides the on-screen keyboard.
func (c *Client) HideKeyboard() error {
	_, err := c.post(c.sessionPath()+"/appium/device/hide_keyboard", nil)
	return err
}

// Navigation

// Back presses the back button.
func (c *Client) Back() error {
	return c.PressKeyCode(4) // Android KEYCODE_BACK
}

// PressKeyCode presses a key by Android keycode.
func (c *Client) PressKeyCode(keycode int) error {
	_, err := c.post(c.sessionPath()+"/appium/device/press_keycode", map[string]interface{}{
		"keycode": keycode,
	})
	return err
}

// App Management

// ActivateApp brings an installed app to the foreground.
func (c *Client) ActivateApp(appID string) error {
	_, err := c.post(c.sessionPath()+"/appium/device/activate_app", map[string]interface{}{
		"appId": appID,
	})
	return err
}

// CurrentPackage returns the package of the foreground app.
func (c *Client) CurrentPackage() (string, error) {
	resp, err := c.get(c.sessionPath() + "/appium/device/current_package")
	if err != nil {
		return "", err
	}
	pkg, _ := resp["value"].(string)
	return pkg, nil
}

// PushFile writes data to remotePath on the device.
func (c *Client) PushFile(remotePath string, data []byte) error {
	_, err := c.post(c.sessionPath()+"/appium/device/push_file", map[string]interface{}{
		"path": remotePath,
		"data": base64.StdEncoding.EncodeToString(data),
	})
	return err
}

// Contexts

// GetContext returns the active automation context.
func (c *Client) GetContext() (string, error) {
	resp, err := c.get(c.sessionPath() + "/context")
	if err != nil {
		return "", err
	}
	name, _ := resp["value"].(string)
	return name, nil
}

// GetContexts lists the contexts the device currently offers.
func (c *Client) GetContexts() ([]string, error) {
	resp, err := c.get(c.sessionPath() + "/contexts")
	if err != nil {
		return nil, err
	}
	values, _ := resp["value"].([]interface{})
	contexts := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			contexts = append(contexts, s)
		}
	}
	return contexts, nil
}

// SetContext switches the automation context.
func (c *Client) SetContext(name string) error {
	_, err := c.post(c.sessionPath()+"/context", map[string]interface{}{
		"name": name,
	})
	return err
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Timeouts

// SetImplicitWait sets the implicit wait timeout.
func (c *Client) SetImplicitWait(timeout time.Duration) error {
	_, err := c.post(c.sessionPath()+"/timeouts", map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}

// SetSettings updates Appium driver settings.
func (c *Client) SetSettings(settings map[string]interface{}) error {
	_, err := c.post(c.sessionPath()+"/appium/settings", map[string]interface{}{
		"settings": settings,
	})
	return err
}

// ExecuteMobile executes a mobile: command.
func (c *Client) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	resp, err := c.post(c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": "mobile: " + command,
		"args":   []interface{}{args},
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).Msg("appium request")

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}

	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errType, ok := errValue["error"].(string); ok {
			errMsg, _ := errValue["message"].(string)
			if errType == "no such element" {
				using, value := lookupOf(body)
				return result, core.NewElementNotFoundError(value, using, errMsg)
			}
			return result, fmt.Errorf("%s: %s", errType, errMsg)
		}
	}

	return result, nil
}

// lookupOf pulls the strategy and selector out of a find request body.
func lookupOf(body interface{}) (string, string) {
	m, ok := body.(map[string]interface{})
	if !ok {
		return "", ""
	}
	using, _ := m["using"].(string)
	value, _ := m["value"].(string)
	return using, value
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
