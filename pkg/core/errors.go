// Package core holds the types shared by every layer of the framework: the
// driver contract, element geometry, locators and the error model.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an automation failure for reporting.
type ErrorKind int

const (
	KindAutomation      ErrorKind = iota // Generic automation failure
	KindConfiguration                    // Missing or invalid configuration
	KindDriverInit                       // Session could not be created
	KindContextSwitch                    // Native/WebView switch failed
	KindElementNotFound                  // Locator matched nothing
	KindTimeout                          // Wait condition never held
	KindTestData                         // Test data missing or malformed
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindAutomation:
		return "automation"
	case KindConfiguration:
		return "configuration"
	case KindDriverInit:
		return "driver_init"
	case KindContextSwitch:
		return "context_switch"
	case KindElementNotFound:
		return "element_not_found"
	case KindTimeout:
		return "timeout"
	case KindTestData:
		return "test_data"
	default:
		return "unknown"
	}
}

// AutomationError is the root of every error raised by the framework.
type AutomationError struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface.
func (e *AutomationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AutomationError) Unwrap() error {
	return e.Cause
}

// Is matches any AutomationError of the same kind, so sentinels work with errors.Is.
func (e *AutomationError) Is(target error) bool {
	var t *AutomationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// WithCause returns a copy of the error with the given cause.
func (e *AutomationError) WithCause(cause error) *AutomationError {
	c := *e
	c.Cause = cause
	return &c
}

// WithDetails returns a copy of the error with additional details merged in.
func (e *AutomationError) WithDetails(details map[string]interface{}) *AutomationError {
	merged := make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	c := *e
	c.Details = merged
	return &c
}

// Sentinels for errors.Is. They carry no message and match on Kind.
var (
	ErrAutomation      = &AutomationError{Kind: KindAutomation}
	ErrConfiguration   = &AutomationError{Kind: KindConfiguration}
	ErrDriverInit      = &AutomationError{Kind: KindDriverInit}
	ErrContextSwitch   = &AutomationError{Kind: KindContextSwitch}
	ErrElementNotFound = &AutomationError{Kind: KindElementNotFound}
	ErrTimeout         = &AutomationError{Kind: KindTimeout}
	ErrTestData        = &AutomationError{Kind: KindTestData}
)

// NewAutomationError creates a generic automation error.
func NewAutomationError(msg string, cause error) *AutomationError {
	return &AutomationError{Kind: KindAutomation, Message: msg, Cause: cause}
}

// NewConfigurationError reports a missing or invalid configuration value.
func NewConfigurationError(msg string, cause error) *AutomationError {
	return &AutomationError{Kind: KindConfiguration, Message: msg, Cause: cause}
}

// NewDriverInitError reports a failed session start.
func NewDriverInitError(msg string, cause error) *AutomationError {
	return &AutomationError{Kind: KindDriverInit, Message: msg, Cause: cause}
}

// NewTimeoutError reports a wait condition that never held.
func NewTimeoutError(msg string, cause error) *AutomationError {
	return &AutomationError{Kind: KindTimeout, Message: msg, Cause: cause}
}

// NewTestDataError reports unusable test data.
func NewTestDataError(msg string, cause error) *AutomationError {
	return &AutomationError{Kind: KindTestData, Message: msg, Cause: cause}
}

// NewContextSwitchError reports a failed switch to target, listing what the
// device offered at the time.
func NewContextSwitchError(target string, available []string, msg string) *AutomationError {
	return &AutomationError{
		Kind: KindContextSwitch,
		Message: fmt.Sprintf("Failed to switch to context '%s'. Available contexts: [%s]. %s",
			target, strings.Join(available, ", "), msg),
		Details: map[string]interface{}{
			"target":    target,
			"available": available,
		},
	}
}

// NewElementNotFoundError reports a locator that matched nothing.
func NewElementNotFoundError(description, strategy, msg string) *AutomationError {
	return &AutomationError{
		Kind:    KindElementNotFound,
		Message: fmt.Sprintf("Element not found: %s (using %s). %s", description, strategy, msg),
		Details: map[string]interface{}{
			"element":  description,
			"strategy": strategy,
		},
	}
}

// KindOf returns the kind of the first AutomationError in err's chain.
func KindOf(err error) ErrorKind {
	var ae *AutomationError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindAutomation
}
