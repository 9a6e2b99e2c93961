// Package provider dispatches AI work to configured model backends.
package provider

import (
	"context"
	"encoding/json"

	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/httpclient"
	"wp-pilot/internal/types"

	"github.com/sirupsen/logrus"
)

// SiteContext is the connected-site summary handed to the model so commands
// can reference the live installation. Credentials never enter the context.
type SiteContext struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	WPVersion   string `json:"wp_version,omitempty"`
	ActiveTheme string `json:"active_theme,omitempty"`
	PluginCount int    `json:"plugin_count"`
	IsOnline    bool   `json:"is_online"`
}

// AIAction is one unit of work the model declared in its reply.
type AIAction struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Params      json.RawMessage `json:"params"`
}

// AIResponse is the normalized model reply. Malformed model output degrades
// to a plain message with no actions rather than an error.
type AIResponse struct {
	Message string     `json:"message"`
	Actions []AIAction `json:"actions,omitempty"`
}

// ContentAnalysis is the structured result of a content review.
type ContentAnalysis struct {
	Summary          string   `json:"summary"`
	SEOScore         int      `json:"seo_score"`
	ReadabilityScore int      `json:"readability_score"`
	Suggestions      []string `json:"suggestions"`
}

// Recommendation is one suggested theme or plugin.
type Recommendation struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// Info describes one backend for the provider listing endpoint.
type Info struct {
	Name      string `json:"name"`
	Model     string `json:"model"`
	IsDefault bool   `json:"is_default"`
}

// Provider is a single AI backend.
type Provider interface {
	Name() string
	ProcessCommand(ctx context.Context, command string, site *SiteContext) (*AIResponse, error)
	AnalyzeContent(ctx context.Context, content string) (*ContentAnalysis, error)
	RecommendThemes(ctx context.Context, description string) ([]Recommendation, error)
	RecommendPlugins(ctx context.Context, needs string) ([]Recommendation, error)
}

// Factory holds the configured providers and applies the selection policy.
type Factory struct {
	config    types.ProviderConfig
	providers map[string]Provider
	order     []string
}

// NewFactory constructs every provider whose key is configured. A backend
// that fails to initialize is logged and skipped rather than taking the
// service down.
func NewFactory(configManager types.ConfigManager, clientManager *httpclient.Manager) *Factory {
	cfg := configManager.GetProviderConfig()
	f := &Factory{
		config:    cfg,
		providers: make(map[string]Provider),
	}

	if cfg.GeminiAPIKey != "" {
		if p, err := newGeminiProvider(cfg); err != nil {
			logrus.WithError(err).Warn("Failed to initialize Gemini provider")
		} else {
			f.register(p)
		}
	}
	if cfg.OpenAIAPIKey != "" {
		f.register(newOpenAIProvider(cfg, clientManager))
	}

	if len(f.order) == 0 {
		logrus.Warn("No AI provider configured; chat commands will be rejected")
	} else {
		logrus.Infof("AI providers ready: %v", f.order)
	}
	return f
}

func (f *Factory) register(p Provider) {
	f.providers[p.Name()] = p
	f.order = append(f.order, p.Name())
}

// Select resolves a provider by name. An empty name picks the configured
// default, falling back to the first registered backend. A named but
// unconfigured provider and an empty registry are reported as distinct
// errors so clients can tell misconfiguration from a bad request.
func (f *Factory) Select(name string) (Provider, *app_errors.APIError) {
	if len(f.order) == 0 {
		return nil, app_errors.ErrNoProviderConfigured
	}

	if name != "" {
		p, ok := f.providers[name]
		if !ok {
			return nil, app_errors.ErrProviderUnavailable
		}
		return p, nil
	}

	if p, ok := f.providers[f.config.DefaultProvider]; ok {
		return p, nil
	}
	return f.providers[f.order[0]], nil
}

// Infos lists the registered backends for the discovery endpoint.
func (f *Factory) Infos() []Info {
	defaultName := f.config.DefaultProvider
	if _, ok := f.providers[defaultName]; !ok && len(f.order) > 0 {
		defaultName = f.order[0]
	}

	infos := make([]Info, 0, len(f.order))
	for _, name := range f.order {
		model := f.config.GeminiModel
		if name == ProviderOpenAI {
			model = f.config.OpenAIModel
		}
		infos = append(infos, Info{Name: name, Model: model, IsDefault: name == defaultName})
	}
	return infos
}
