package appium

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// writeJSON encodes data as JSON to the response writer.
func writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// readBody decodes a JSON request body.
func readBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return body
}

// newTestClient returns a client already bound to session "s1".
func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL)
	client.sessionID = "s1"
	return client, server
}

func TestClient_Connect(t *testing.T) {
	var gotCaps map[string]interface{}
	settingsApplied := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/session" && r.Method == "POST":
			body := readBody(t, r)
			caps := body["capabilities"].(map[string]interface{})
			gotCaps = caps["alwaysMatch"].(map[string]interface{})
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"sessionId": "test-session-123",
					"capabilities": map[string]interface{}{
						"platformName": "Android",
					},
				},
			})
		case r.URL.Path == "/session/test-session-123/window/rect":
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"width": 1080.0, "height": 2340.0},
			})
		case r.URL.Path == "/session/test-session-123/appium/settings":
			settingsApplied = true
			writeJSON(w, map[string]interface{}{"value": nil})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	err := client.Connect(map[string]interface{}{
		"platformName":          "Android",
		"appium:automationName": "UiAutomator2",
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if client.SessionID() != "test-session-123" {
		t.Errorf("Expected sessionID 'test-session-123', got '%s'", client.SessionID())
	}
	if client.Platform() != "android" {
		t.Errorf("Expected platform 'android', got '%s'", client.Platform())
	}
	if w, h := client.ScreenSize(); w != 1080 || h != 2340 {
		t.Errorf("Expected screen size 1080x2340, got %dx%d", w, h)
	}
	if gotCaps["appium:automationName"] != "UiAutomator2" {
		t.Errorf("capabilities not sent under alwaysMatch: %v", gotCaps)
	}
	if !settingsApplied {
		t.Error("expected settings to be applied after connect")
	}
}

func TestClient_ScreenSizeRefetchedAfterFailure(t *testing.T) {
	calls := 0
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/s1/window/rect" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"error": "unknown error", "message": "not ready"},
			})
			return
		}
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{"width": 1080.0, "height": 2340.0},
		})
	})
	defer server.Close()

	client.fetchScreenSize()
	if w, h := client.screenW, client.screenH; w != 0 || h != 0 {
		t.Fatalf("expected no size after a failed fetch, got %dx%d", w, h)
	}
	if w, h := client.ScreenSize(); w != 1080 || h != 2340 {
		t.Errorf("Expected screen size 1080x2340, got %dx%d", w, h)
	}
	client.ScreenSize()
	if calls != 2 {
		t.Errorf("window rect fetched %d times, want 2", calls)
	}
}

func TestClient_ConnectError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "session not created",
				"message": "Could not find a connected Android device",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Connect(map[string]interface{}{"platformName": "Android"})
	if err == nil {
		t.Fatal("expected error")
	}
	if client.SessionID() != "" {
		t.Errorf("session id should stay empty, got %q", client.SessionID())
	}
}

func TestClient_Disconnect(t *testing.T) {
	deleteCalled := false
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1" && r.Method == "DELETE" {
			deleteCalled = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	if err := client.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if !deleteCalled {
		t.Error("Expected DELETE to be called")
	}
	if client.SessionID() != "" {
		t.Error("Expected sessionID to be cleared")
	}

	// Second call is a no-op
	deleteCalled = false
	if err := client.Disconnect(); err != nil || deleteCalled {
		t.Errorf("second Disconnect should be a no-op, err=%v called=%v", err, deleteCalled)
	}
}

func TestClient_FindElement(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/element" && r.Method == "POST" {
			body := readBody(t, r)
			if body["using"] != core.ByUiAutomator {
				t.Errorf("using = %v", body["using"])
			}
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{w3cElementKey: "elem-123"},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	id, err := client.FindElement(core.ByUiAutomator, `new UiSelector().text("Save")`)
	if err != nil {
		t.Fatalf("FindElement failed: %v", err)
	}
	if id != "elem-123" {
		t.Errorf("Expected 'elem-123', got '%s'", id)
	}
}

func TestClient_FindElementNoSuchElement(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "no such element",
				"message": "An element could not be located",
			},
		})
	})
	defer server.Close()

	_, err := client.FindElement(core.ByID, "bugTitle")
	if !errors.Is(err, core.ErrElementNotFound) {
		t.Fatalf("expected element-not-found error, got %v", err)
	}
	var ae *core.AutomationError
	if errors.As(err, &ae) && ae.Details["element"] != "bugTitle" {
		t.Errorf("details = %v", ae.Details)
	}
}

func TestClient_FindElements(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/elements" {
			writeJSON(w, map[string]interface{}{
				"value": []interface{}{
					map[string]interface{}{w3cElementKey: "e1"},
					map[string]interface{}{"ELEMENT": "e2"},
					map[string]interface{}{"other": "ignored"},
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	ids, err := client.FindElements(core.ByClassName, "android.widget.Button")
	if err != nil {
		t.Fatalf("FindElements failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e2" {
		t.Errorf("ids = %v", ids)
	}
}

func TestClient_FindChildElement(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/element/parent/element" {
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{w3cElementKey: "child"},
			})
			return
		}
		if r.URL.Path == "/session/s1/element/parent/elements" {
			writeJSON(w, map[string]interface{}{"value": []interface{}{}})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	id, err := client.FindChildElement("parent", core.ByID, "content_duration")
	if err != nil || id != "child" {
		t.Fatalf("FindChildElement = %q, %v", id, err)
	}
	ids, err := client.FindChildElements("parent", core.ByID, "x")
	if err != nil || len(ids) != 0 {
		t.Fatalf("FindChildElements = %v, %v", ids, err)
	}
}

func TestClient_Tap(t *testing.T) {
	var actions []interface{}
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/actions" {
			body := readBody(t, r)
			actions = body["actions"].([]interface{})
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	if err := client.Tap(100, 200); err != nil {
		t.Fatalf("Tap failed: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected one input source, got %d", len(actions))
	}
	source := actions[0].(map[string]interface{})
	if source["type"] != "pointer" || source["id"] != "finger1" {
		t.Errorf("source = %v", source)
	}
	steps := source["actions"].([]interface{})
	move := steps[0].(map[string]interface{})
	if move["x"] != 100.0 || move["y"] != 200.0 {
		t.Errorf("move = %v", move)
	}
}

func TestClient_Swipe(t *testing.T) {
	var steps []interface{}
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/actions" {
			body := readBody(t, r)
			source := body["actions"].([]interface{})[0].(map[string]interface{})
			steps = source["actions"].([]interface{})
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	if err := client.Swipe(540, 1800, 540, 600, 800); err != nil {
		t.Fatalf("Swipe failed: %v", err)
	}
	end := steps[3].(map[string]interface{})
	if end["duration"] != 800.0 || end["y"] != 600.0 {
		t.Errorf("final move = %v", end)
	}
}

func TestClient_SendKeys(t *testing.T) {
	var count int
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/actions" {
			body := readBody(t, r)
			source := body["actions"].([]interface{})[0].(map[string]interface{})
			count = len(source["actions"].([]interface{}))
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	if err := client.SendKeys("ab"); err != nil {
		t.Fatalf("SendKeys failed: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 key actions, got %d", count)
	}
}

func TestClient_SendKeysToElement(t *testing.T) {
	var text string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/element/e1/value" {
			text, _ = readBody(t, r)["text"].(string)
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	if err := client.SendKeysToElement("e1", "Login crash"); err != nil {
		t.Fatalf("SendKeysToElement failed: %v", err)
	}
	if text != "Login crash" {
		t.Errorf("text = %q", text)
	}
}

func TestClient_Screenshot(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/screenshot" {
			writeJSON(w, map[string]interface{}{"value": base64.StdEncoding.EncodeToString(png)})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	data, err := client.Screenshot()
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if string(data) != string(png) {
		t.Errorf("data = %v", data)
	}
}

func TestClient_Source(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/source" {
			writeJSON(w, map[string]interface{}{"value": "<hierarchy/>"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	src, err := client.Source()
	if err != nil || src != "<hierarchy/>" {
		t.Errorf("Source() = %q, %v", src, err)
	}
}

func TestClient_DeviceEndpoints(t *testing.T) {
	calls := map[string]map[string]interface{}{}
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/s1/appium/device/current_package":
			writeJSON(w, map[string]interface{}{"value": "com.android.launcher"})
			return
		case "/session/s1/appium/device/hide_keyboard":
			calls[r.URL.Path] = nil
		default:
			calls[r.URL.Path] = readBody(t, r)
		}
		writeJSON(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	if err := client.Back(); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if err := client.HideKeyboard(); err != nil {
		t.Fatalf("HideKeyboard failed: %v", err)
	}
	if err := client.ActivateApp("com.atidcollege.bugtracker"); err != nil {
		t.Fatalf("ActivateApp failed: %v", err)
	}
	if err := client.PushFile("/sdcard/DCIM/Camera/a.png", []byte("img")); err != nil {
		t.Fatalf("PushFile failed: %v", err)
	}
	pkg, err := client.CurrentPackage()
	if err != nil || pkg != "com.android.launcher" {
		t.Errorf("CurrentPackage() = %q, %v", pkg, err)
	}

	if calls["/session/s1/appium/device/press_keycode"]["keycode"] != 4.0 {
		t.Errorf("Back keycode = %v", calls["/session/s1/appium/device/press_keycode"])
	}
	if _, ok := calls["/session/s1/appium/device/hide_keyboard"]; !ok {
		t.Error("hide_keyboard not called")
	}
	if calls["/session/s1/appium/device/activate_app"]["appId"] != "com.atidcollege.bugtracker" {
		t.Errorf("activate_app body = %v", calls["/session/s1/appium/device/activate_app"])
	}
	push := calls["/session/s1/appium/device/push_file"]
	if push["path"] != "/sdcard/DCIM/Camera/a.png" || push["data"] != base64.StdEncoding.EncodeToString([]byte("img")) {
		t.Errorf("push_file body = %v", push)
	}
}

func TestClient_Contexts(t *testing.T) {
	current := "NATIVE_APP"
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/session/s1/contexts":
			writeJSON(w, map[string]interface{}{"value": []interface{}{"NATIVE_APP", "WEBVIEW_com.atidcollege.bugtracker"}})
		case r.URL.Path == "/session/s1/context" && r.Method == "GET":
			writeJSON(w, map[string]interface{}{"value": current})
		case r.URL.Path == "/session/s1/context" && r.Method == "POST":
			current, _ = readBody(t, r)["name"].(string)
			writeJSON(w, map[string]interface{}{"value": nil})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer server.Close()

	contexts, err := client.GetContexts()
	if err != nil || len(contexts) != 2 {
		t.Fatalf("GetContexts() = %v, %v", contexts, err)
	}
	if err := client.SetContext(contexts[1]); err != nil {
		t.Fatalf("SetContext failed: %v", err)
	}
	got, err := client.GetContext()
	if err != nil || got != "WEBVIEW_com.atidcollege.bugtracker" {
		t.Errorf("GetContext() = %q, %v", got, err)
	}
}

func TestClient_GetElementRect(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/element/e1/rect" {
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"x": 10.0, "y": 20.0, "width": 100.0, "height": 50.0},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	rect, err := client.GetElementRect("e1")
	if err != nil {
		t.Fatalf("GetElementRect failed: %v", err)
	}
	if rect != (core.Rect{X: 10, Y: 20, Width: 100, Height: 50}) {
		t.Errorf("rect = %+v", rect)
	}
}

func TestClient_ElementState(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/s1/element/e1/text":
			writeJSON(w, map[string]interface{}{"value": "Login crash (ID: 3)"})
		case "/session/s1/element/e1/displayed":
			writeJSON(w, map[string]interface{}{"value": true})
		case "/session/s1/element/e1/enabled":
			writeJSON(w, map[string]interface{}{"value": false})
		case "/session/s1/element/e1/attribute/focused":
			writeJSON(w, map[string]interface{}{"value": "true"})
		case "/session/s1/element/e1/attribute/checked":
			writeJSON(w, map[string]interface{}{"value": false})
		case "/session/s1/element/e1/click", "/session/s1/element/e1/clear":
			writeJSON(w, map[string]interface{}{"value": nil})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer server.Close()

	if text, _ := client.GetElementText("e1"); text != "Login crash (ID: 3)" {
		t.Errorf("text = %q", text)
	}
	if shown, _ := client.IsElementDisplayed("e1"); !shown {
		t.Error("expected displayed")
	}
	if enabled, _ := client.IsElementEnabled("e1"); enabled {
		t.Error("expected disabled")
	}
	if v, _ := client.GetElementAttribute("e1", "focused"); v != "true" {
		t.Errorf("focused = %q", v)
	}
	if v, _ := client.GetElementAttribute("e1", "checked"); v != "false" {
		t.Errorf("checked = %q", v)
	}
	if err := client.ClickElement("e1"); err != nil {
		t.Errorf("ClickElement: %v", err)
	}
	if err := client.ClearElement("e1"); err != nil {
		t.Errorf("ClearElement: %v", err)
	}
}

func TestClient_ExecuteMobile(t *testing.T) {
	var script string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/execute/sync" {
			script, _ = readBody(t, r)["script"].(string)
			writeJSON(w, map[string]interface{}{"value": "ok"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	v, err := client.ExecuteMobile("shell", map[string]interface{}{"command": "echo"})
	if err != nil || v != "ok" {
		t.Fatalf("ExecuteMobile = %v, %v", v, err)
	}
	if script != "mobile: shell" {
		t.Errorf("script = %q", script)
	}
}

func TestClient_SetImplicitWait(t *testing.T) {
	var implicit float64
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s1/timeouts" {
			implicit, _ = readBody(t, r)["implicit"].(float64)
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	if err := client.SetImplicitWait(2500 * time.Millisecond); err != nil {
		t.Fatalf("SetImplicitWait failed: %v", err)
	}
	if implicit != 2500 {
		t.Errorf("implicit = %v, want 2500", implicit)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	defer server.Close()

	if _, err := client.Source(); err == nil {
		t.Error("expected parse error")
	}
}

func TestExtractElementID(t *testing.T) {
	tests := []struct {
		name  string
		value map[string]interface{}
		want  string
	}{
		{"w3c", map[string]interface{}{w3cElementKey: "w3c-id"}, "w3c-id"},
		{"legacy", map[string]interface{}{"ELEMENT": "legacy-id"}, "legacy-id"},
		{"empty", map[string]interface{}{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractElementID(tt.value); got != tt.want {
				t.Errorf("extractElementID() = %q, want %q", got, tt.want)
			}
		})
	}
}
