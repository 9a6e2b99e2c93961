// Package wordpress implements the outbound gateway to a remote WordPress
// installation's REST API.
package wordpress

import (
	"encoding/json"
	"fmt"

	"wp-pilot/internal/models"
)

// ConnectionTest is the result of a live connection test. Failures are
// reported in the value; TestConnection never returns an error.
type ConnectionTest struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	WPVersion   string `json:"wp_version,omitempty"`
	ActiveTheme string `json:"active_theme,omitempty"`
	PluginCount int    `json:"plugin_count,omitempty"`
}

// Error kinds for failed connection tests.
const (
	ErrorKindConnection = "connection"
	ErrorKindHTTP       = "http"
	ErrorKindUnknown    = "unknown"
)

// SiteStatus is the result of a liveness probe. A failed probe reports
// IsOnline false with zero-value metrics instead of an error.
type SiteStatus struct {
	IsOnline       bool   `json:"is_online"`
	WPVersion      string `json:"wp_version,omitempty"`
	ActiveTheme    string `json:"active_theme,omitempty"`
	PluginCount    int    `json:"plugin_count,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

// Action is one declared unit of work against a site. Params carries the
// type-specific parameters; DecodeParams interprets them per action type.
type Action struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Params      json.RawMessage `json:"params,omitempty"`
}

// ThemeCustomizeParams are the parameters for theme_customize actions.
type ThemeCustomizeParams struct {
	Settings map[string]any `json:"settings"`
}

// PluginInstallParams are the parameters for plugin_install actions.
type PluginInstallParams struct {
	Slug string `json:"slug"`
}

// PluginActivateParams are the parameters for plugin_activate actions.
type PluginActivateParams struct {
	Plugin string `json:"plugin"`
}

// ContentUpdateParams are the parameters for content_update actions. A
// non-empty ID updates existing content; otherwise new content is created.
type ContentUpdateParams struct {
	Type string         `json:"type"`
	ID   string         `json:"id,omitempty"`
	Data map[string]any `json:"data"`
}

// SettingsUpdateParams are the parameters for settings_update actions.
type SettingsUpdateParams struct {
	Settings map[string]any `json:"settings"`
}

// ActionError describes a failed action execution, carrying the remote API's
// error message when one was available.
type ActionError struct {
	ActionType string
	StatusCode int
	Message    string
	Err        error
}

func (e *ActionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.ActionType, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.ActionType, e.Message)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// newActionError builds an ActionError without an HTTP status.
func newActionError(actionType, message string, err error) *ActionError {
	return &ActionError{ActionType: actionType, Message: message, Err: err}
}

// decodeParams unmarshals action params into a typed parameter struct.
func decodeParams(action Action, out any) error {
	if len(action.Params) == 0 {
		return fmt.Errorf("action %s has no params", action.Type)
	}
	if err := json.Unmarshal(action.Params, out); err != nil {
		return fmt.Errorf("invalid params for action %s: %w", action.Type, err)
	}
	return nil
}

// validateAction checks that the action type belongs to the supported set.
func validateAction(action Action) error {
	if !models.IsValidActionType(action.Type) {
		return fmt.Errorf("unsupported action type: %s", action.Type)
	}
	return nil
}
