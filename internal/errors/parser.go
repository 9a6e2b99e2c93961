package errors

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ParseUpstreamError extracts a human-readable message from an upstream error
// body. Remote APIs disagree on the error envelope, so several known shapes
// are probed in order of specificity before falling back to the raw body.
func ParseUpstreamError(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	raw := string(body)
	if !gjson.Valid(raw) {
		return strings.TrimSpace(raw)
	}

	// Standard shape: {"error": {"message": "..."}}
	if msg := gjson.Get(raw, "error.message"); msg.Exists() && msg.String() != "" {
		return strings.TrimSpace(msg.String())
	}

	// Simple shape: {"error": "..."}
	if errField := gjson.Get(raw, "error"); errField.Type == gjson.String && errField.String() != "" {
		return strings.TrimSpace(errField.String())
	}

	// Vendor shape: {"error_msg": "..."}
	if msg := gjson.Get(raw, "error_msg"); msg.Exists() && msg.String() != "" {
		return strings.TrimSpace(msg.String())
	}

	// Root shape: {"message": "..."} (WordPress REST errors use this)
	if msg := gjson.Get(raw, "message"); msg.Exists() && msg.String() != "" {
		return strings.TrimSpace(msg.String())
	}

	return strings.TrimSpace(raw)
}
