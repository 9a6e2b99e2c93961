package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/httpclient"
	"wp-pilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfig struct {
	types.ConfigManager
	provider types.ProviderConfig
}

func (s *stubConfig) GetProviderConfig() types.ProviderConfig { return s.provider }

func newFactory(t *testing.T, cfg types.ProviderConfig) *Factory {
	t.Helper()
	return NewFactory(&stubConfig{provider: cfg}, httpclient.NewManager())
}

func TestSelectNoProviderConfigured(t *testing.T) {
	f := newFactory(t, types.ProviderConfig{DefaultProvider: ProviderGemini})

	_, apiErr := f.Select("")
	require.NotNil(t, apiErr)
	assert.Equal(t, "NO_PROVIDER_CONFIGURED", apiErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPStatus)
}

func TestSelectNamedUnavailable(t *testing.T) {
	f := newFactory(t, types.ProviderConfig{
		OpenAIAPIKey:    "sk-test",
		OpenAIModel:     "gpt-4o",
		DefaultProvider: ProviderOpenAI,
	})

	_, apiErr := f.Select(ProviderGemini)
	require.NotNil(t, apiErr)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", apiErr.Code)
}

func TestSelectFallsBackWhenDefaultUnconfigured(t *testing.T) {
	// Default prefers gemini but only openai has a key.
	f := newFactory(t, types.ProviderConfig{
		OpenAIAPIKey:    "sk-test",
		OpenAIModel:     "gpt-4o",
		DefaultProvider: ProviderGemini,
	})

	p, apiErr := f.Select("")
	require.Nil(t, apiErr)
	assert.Equal(t, ProviderOpenAI, p.Name())
}

func TestSelectNamed(t *testing.T) {
	f := newFactory(t, types.ProviderConfig{
		OpenAIAPIKey:    "sk-test",
		OpenAIModel:     "gpt-4o",
		DefaultProvider: ProviderOpenAI,
	})

	p, apiErr := f.Select(ProviderOpenAI)
	require.Nil(t, apiErr)
	assert.Equal(t, ProviderOpenAI, p.Name())
}

func TestInfos(t *testing.T) {
	f := newFactory(t, types.ProviderConfig{
		OpenAIAPIKey:    "sk-test",
		OpenAIModel:     "gpt-4o",
		DefaultProvider: ProviderGemini,
	})

	infos := f.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, ProviderOpenAI, infos[0].Name)
	assert.Equal(t, "gpt-4o", infos[0].Model)
	assert.True(t, infos[0].IsDefault, "sole provider becomes the effective default")
}

func TestOpenAIProcessCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"message\":\"Installing Akismet.\",\"actions\":[{\"type\":\"plugin_install\",\"description\":\"Install Akismet\",\"params\":{\"slug\":\"akismet\"}}]}"}}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := newOpenAIProvider(types.ProviderConfig{
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: server.URL + "/v1",
		OpenAIModel:   "gpt-4o",
	}, httpclient.NewManager())

	resp, err := p.ProcessCommand(context.Background(), "install akismet", &SiteContext{Name: "Blog", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Installing Akismet.", resp.Message)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "plugin_install", resp.Actions[0].Type)
}

func TestOpenAIUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := newOpenAIProvider(types.ProviderConfig{
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: server.URL + "/v1",
		OpenAIModel:   "gpt-4o",
	}, httpclient.NewManager())

	_, err := p.ProcessCommand(context.Background(), "hello", nil)
	require.Error(t, err)
	var apiErr *app_errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
	assert.Contains(t, apiErr.Message, "Rate limit reached")
}
