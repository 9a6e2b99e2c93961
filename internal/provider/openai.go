package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/httpclient"
	"wp-pilot/internal/types"
	"wp-pilot/internal/utils"

	"github.com/tidwall/gjson"
)

const ProviderOpenAI = "openai"

// Model calls tolerate long generations; connection setup should still be quick.
var openaiClientConfig = &httpclient.Config{
	ConnectTimeout:        10 * time.Second,
	RequestTimeout:        120 * time.Second,
	IdleConnTimeout:       90 * time.Second,
	MaxIdleConns:          20,
	MaxIdleConnsPerHost:   10,
	ResponseHeaderTimeout: 60 * time.Second,
}

// openaiProvider speaks the chat completions API over plain HTTP.
type openaiProvider struct {
	apiKey        string
	baseURL       string
	model         string
	clientManager *httpclient.Manager
}

func newOpenAIProvider(cfg types.ProviderConfig, clientManager *httpclient.Manager) *openaiProvider {
	baseURL := cfg.OpenAIBaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/"
	}
	return &openaiProvider{
		apiKey:        cfg.OpenAIAPIKey,
		baseURL:       utils.NormalizeBaseURL(baseURL),
		model:         cfg.OpenAIModel,
		clientManager: clientManager,
	}
}

func (p *openaiProvider) Name() string { return ProviderOpenAI }

// complete performs one chat completion round trip and returns the assistant
// message text.
func (p *openaiProvider) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.7,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.clientManager.GetClient(openaiClientConfig).Do(req)
	if err != nil {
		return "", app_errors.NewAPIError(app_errors.ErrBadGateway, "openai request failed: "+err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := app_errors.ParseUpstreamError(data)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return "", app_errors.NewAPIError(app_errors.ErrBadGateway,
			fmt.Sprintf("openai returned HTTP %d: %s", resp.StatusCode, message))
	}

	text := gjson.GetBytes(data, "choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		return "", app_errors.NewAPIError(app_errors.ErrBadGateway, "openai returned an empty completion")
	}
	return text, nil
}

func (p *openaiProvider) ProcessCommand(ctx context.Context, command string, site *SiteContext) (*AIResponse, error) {
	text, err := p.complete(ctx, commandSystemPrompt, buildCommandPrompt(command, site))
	if err != nil {
		return nil, err
	}
	return normalizeModelOutput(text), nil
}

func (p *openaiProvider) AnalyzeContent(ctx context.Context, content string) (*ContentAnalysis, error) {
	text, err := p.complete(ctx, analysisSystemPrompt, content)
	if err != nil {
		return nil, err
	}
	return parseContentAnalysis(text), nil
}

func (p *openaiProvider) RecommendThemes(ctx context.Context, description string) ([]Recommendation, error) {
	text, err := p.complete(ctx, themeSystemPrompt, description)
	if err != nil {
		return nil, err
	}
	return parseRecommendations(text), nil
}

func (p *openaiProvider) RecommendPlugins(ctx context.Context, needs string) ([]Recommendation, error) {
	text, err := p.complete(ctx, pluginSystemPrompt, needs)
	if err != nil {
		return nil, err
	}
	return parseRecommendations(text), nil
}
