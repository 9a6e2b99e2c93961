package provider

import (
	"encoding/json"
	"strings"

	"wp-pilot/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// stripCodeFences removes a surrounding markdown code fence, which models
// emit even when told to return bare JSON.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line ("json" etc).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// normalizeModelOutput coerces raw model text into an AIResponse. Output
// that is not the requested envelope degrades to a plain message with no
// actions; this function never fails.
func normalizeModelOutput(raw string) *AIResponse {
	cleaned := stripCodeFences(raw)
	parsed := gjson.Parse(cleaned)
	if !parsed.IsObject() {
		return &AIResponse{Message: strings.TrimSpace(raw)}
	}

	resp := &AIResponse{Message: parsed.Get("message").String()}
	if resp.Message == "" {
		resp.Message = parsed.Get("response").String()
	}
	if resp.Message == "" {
		resp.Message = strings.TrimSpace(raw)
	}

	parsed.Get("actions").ForEach(func(_, entry gjson.Result) bool {
		action, ok := normalizeAction(entry)
		if ok {
			resp.Actions = append(resp.Actions, action)
		}
		return true
	})
	return resp
}

// normalizeAction shapes one declared action. Only entries with no type at
// all are dropped; unsupported types pass through so the executor can record
// them as failed with a message the user actually sees.
func normalizeAction(entry gjson.Result) (AIAction, bool) {
	actionType := entry.Get("type").String()
	if actionType == "" {
		return AIAction{}, false
	}
	if !models.IsValidActionType(actionType) {
		logrus.WithField("type", actionType).Debug("Model declared an unsupported action type")
	}

	params := entry.Get("params")
	raw := params.Raw
	if params.Type == gjson.String {
		// Some models double-encode params as a JSON string.
		if inner := params.String(); gjson.Valid(inner) {
			raw = inner
		}
	}
	if raw == "" || !gjson.Valid(raw) {
		raw = "{}"
	}

	return AIAction{
		Type:        actionType,
		Description: entry.Get("description").String(),
		Params:      json.RawMessage(raw),
	}, true
}

// parseContentAnalysis decodes an analysis reply, falling back to treating
// the whole text as the summary.
func parseContentAnalysis(raw string) *ContentAnalysis {
	cleaned := stripCodeFences(raw)
	parsed := gjson.Parse(cleaned)
	if !parsed.IsObject() {
		return &ContentAnalysis{Summary: strings.TrimSpace(raw)}
	}

	analysis := &ContentAnalysis{
		Summary:          parsed.Get("summary").String(),
		SEOScore:         int(parsed.Get("seo_score").Int()),
		ReadabilityScore: int(parsed.Get("readability_score").Int()),
	}
	parsed.Get("suggestions").ForEach(func(_, s gjson.Result) bool {
		if text := s.String(); text != "" {
			analysis.Suggestions = append(analysis.Suggestions, text)
		}
		return true
	})
	if analysis.Summary == "" {
		analysis.Summary = strings.TrimSpace(raw)
	}
	return analysis
}

// parseRecommendations decodes a recommendation reply. The payload may be a
// bare array or wrapped in a "recommendations" field.
func parseRecommendations(raw string) []Recommendation {
	cleaned := stripCodeFences(raw)
	parsed := gjson.Parse(cleaned)
	if parsed.IsObject() {
		parsed = parsed.Get("recommendations")
	}
	if !parsed.IsArray() {
		return nil
	}

	var recs []Recommendation
	parsed.ForEach(func(_, entry gjson.Result) bool {
		rec := Recommendation{
			Name:        entry.Get("name").String(),
			Slug:        entry.Get("slug").String(),
			Description: entry.Get("description").String(),
			Reason:      entry.Get("reason").String(),
		}
		if rec.Name != "" || rec.Slug != "" {
			recs = append(recs, rec)
		}
		return true
	})
	return recs
}
