package provider

import (
	"context"
	"fmt"
	"strings"

	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/types"

	"google.golang.org/genai"
)

const ProviderGemini = "gemini"

// geminiProvider uses the official GenAI SDK.
type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(cfg types.ProviderConfig) (*geminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &geminiProvider{client: client, model: cfg.GeminiModel}, nil
}

func (p *geminiProvider) Name() string { return ProviderGemini }

// generate performs one generation round trip and returns the reply text.
func (p *geminiProvider) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", app_errors.NewAPIError(app_errors.ErrBadGateway, "gemini request failed: "+err.Error())
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", app_errors.NewAPIError(app_errors.ErrBadGateway, "gemini returned an empty reply")
	}
	return text, nil
}

func (p *geminiProvider) ProcessCommand(ctx context.Context, command string, site *SiteContext) (*AIResponse, error) {
	text, err := p.generate(ctx, commandSystemPrompt, buildCommandPrompt(command, site))
	if err != nil {
		return nil, err
	}
	return normalizeModelOutput(text), nil
}

func (p *geminiProvider) AnalyzeContent(ctx context.Context, content string) (*ContentAnalysis, error) {
	text, err := p.generate(ctx, analysisSystemPrompt, content)
	if err != nil {
		return nil, err
	}
	return parseContentAnalysis(text), nil
}

func (p *geminiProvider) RecommendThemes(ctx context.Context, description string) ([]Recommendation, error) {
	text, err := p.generate(ctx, themeSystemPrompt, description)
	if err != nil {
		return nil, err
	}
	return parseRecommendations(text), nil
}

func (p *geminiProvider) RecommendPlugins(ctx context.Context, needs string) ([]Recommendation, error) {
	text, err := p.generate(ctx, pluginSystemPrompt, needs)
	if err != nil {
		return nil, err
	}
	return parseRecommendations(text), nil
}
