package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"wp-pilot/internal/httpclient"
	"wp-pilot/internal/models"
	"wp-pilot/internal/types"
	"wp-pilot/internal/utils"

	app_errors "wp-pilot/internal/errors"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// restNamespace is the WordPress core REST API namespace.
const restNamespace = "wp-json/wp/v2/"

// Gateway performs all outbound communication with remote WordPress sites.
// Credentials are passed per call and are never retained.
type Gateway struct {
	clientManager *httpclient.Manager
	config        types.GatewayConfig
}

// NewGateway creates a gateway using the shared HTTP client manager.
func NewGateway(configManager types.ConfigManager, clientManager *httpclient.Manager) *Gateway {
	return &Gateway{
		clientManager: clientManager,
		config:        configManager.GetGatewayConfig(),
	}
}

// credentials holds one call's worth of authentication material.
type credentials struct {
	baseURL    string
	username   string
	secret     string
	authMethod string
}

// probeClient returns the short-timeout client used for connection tests and
// status probes.
func (g *Gateway) probeClient() *http.Client {
	return g.clientManager.GetClient(&httpclient.Config{
		ConnectTimeout:        time.Duration(g.config.ConnectTimeout) * time.Second,
		RequestTimeout:        time.Duration(g.config.ProbeTimeout) * time.Second,
		IdleConnTimeout:       time.Duration(g.config.IdleConnTimeout) * time.Second,
		MaxIdleConns:          g.config.MaxIdleConns,
		MaxIdleConnsPerHost:   g.config.MaxIdleConnsPerHost,
		ResponseHeaderTimeout: time.Duration(g.config.ResponseHeaderTimeout) * time.Second,
	})
}

// actionClient returns the client used for site mutations.
func (g *Gateway) actionClient() *http.Client {
	return g.clientManager.GetClient(&httpclient.Config{
		ConnectTimeout:        time.Duration(g.config.ConnectTimeout) * time.Second,
		RequestTimeout:        time.Duration(g.config.RequestTimeout) * time.Second,
		IdleConnTimeout:       time.Duration(g.config.IdleConnTimeout) * time.Second,
		MaxIdleConns:          g.config.MaxIdleConns,
		MaxIdleConnsPerHost:   g.config.MaxIdleConnsPerHost,
		ResponseHeaderTimeout: time.Duration(g.config.ResponseHeaderTimeout) * time.Second,
	})
}

// restResult is one REST round trip's outcome. A non-nil restResult with a
// 4xx/5xx status is a protocol failure; transport errors surface as Go errors.
type restResult struct {
	status int
	header http.Header
	body   []byte
}

func (r *restResult) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do performs one REST call against the site's core namespace.
func (g *Gateway) do(ctx context.Context, client *http.Client, creds credentials, method, path string, payload any) (*restResult, error) {
	endpoint := creds.baseURL + restNamespace + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", g.config.UserAgent)
	if creds.authMethod == models.AuthMethodToken {
		req.Header.Set("Authorization", "Bearer "+creds.secret)
	} else {
		req.SetBasicAuth(creds.username, creds.secret)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// WordPress error bodies are small JSON documents; cap reads defensively.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &restResult{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// classifyTransportError maps a transport error onto a connection-test error kind.
func classifyTransportError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) {
		return ErrorKindConnection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorKindConnection
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindConnection
	}
	return ErrorKindUnknown
}

// TestConnection performs an authenticated probe against the site's API root
// plus best-effort theme/plugin lookups. It always returns a result value.
func (g *Gateway) TestConnection(ctx context.Context, url, username, secret, authMethod string) ConnectionTest {
	creds := credentials{
		baseURL:    utils.NormalizeBaseURL(url),
		username:   username,
		secret:     secret,
		authMethod: authMethod,
	}
	client := g.probeClient()

	result, err := g.do(ctx, client, creds, http.MethodGet, "", nil)
	if err != nil {
		kind := classifyTransportError(err)
		message := "Unknown connection error: " + err.Error()
		if kind == ErrorKindConnection {
			message = "Connection failed. Check the URL and ensure the site is reachable."
		}
		return ConnectionTest{Success: false, Error: message, ErrorKind: kind}
	}

	if !result.ok() {
		message := app_errors.ParseUpstreamError(result.body)
		if message == "" {
			message = http.StatusText(result.status)
		}
		return ConnectionTest{
			Success:   false,
			Error:     fmt.Sprintf("HTTP %d: %s", result.status, message),
			ErrorKind: ErrorKindHTTP,
		}
	}

	test := ConnectionTest{Success: true}
	test.WPVersion = wpVersionFromResult(result)
	test.ActiveTheme, test.PluginCount = g.fetchSiteMetadata(ctx, client, creds)
	return test
}

// GetSiteStatus re-checks liveness and refreshes cached metadata. On any
// failure it reports offline with zero-value metrics rather than an error.
func (g *Gateway) GetSiteStatus(ctx context.Context, site *models.Site, secret string) SiteStatus {
	creds := credentials{
		baseURL:    utils.NormalizeBaseURL(site.URL),
		username:   site.Username,
		secret:     secret,
		authMethod: site.AuthMethod,
	}
	client := g.probeClient()

	start := time.Now()
	result, err := g.do(ctx, client, creds, http.MethodGet, "", nil)
	elapsed := time.Since(start).Milliseconds()

	if err != nil || !result.ok() {
		if err != nil {
			logrus.WithField("site", site.ID).WithError(err).Debug("Site status probe failed")
		} else {
			logrus.WithField("site", site.ID).Debugf("Site status probe returned HTTP %d", result.status)
		}
		return SiteStatus{IsOnline: false, ResponseTimeMs: 0}
	}

	status := SiteStatus{
		IsOnline:       true,
		ResponseTimeMs: elapsed,
		WPVersion:      site.WPVersion,
		ActiveTheme:    site.ActiveTheme,
		PluginCount:    site.PluginCount,
	}
	if version := wpVersionFromResult(result); version != "" {
		status.WPVersion = version
	}
	if theme, plugins := g.fetchSiteMetadata(ctx, client, creds); theme != "" || plugins > 0 {
		if theme != "" {
			status.ActiveTheme = theme
		}
		status.PluginCount = plugins
	}
	return status
}

// wpVersionFromResult extracts the WordPress version advertised by the API root.
// Hosts that strip the header leave the version unknown.
func wpVersionFromResult(result *restResult) string {
	return result.header.Get("X-WP-Version")
}

// fetchSiteMetadata performs best-effort theme and plugin lookups. Failures
// are swallowed; callers get zero values.
func (g *Gateway) fetchSiteMetadata(ctx context.Context, client *http.Client, creds credentials) (activeTheme string, pluginCount int) {
	if result, err := g.do(ctx, client, creds, http.MethodGet, "themes", nil); err == nil && result.ok() {
		gjson.ParseBytes(result.body).ForEach(func(_, theme gjson.Result) bool {
			if theme.Get("status").String() == "active" {
				if rendered := theme.Get("name.rendered"); rendered.Exists() {
					activeTheme = rendered.String()
				} else {
					activeTheme = theme.Get("name").String()
				}
				return false
			}
			return true
		})
	}

	if result, err := g.do(ctx, client, creds, http.MethodGet, "plugins", nil); err == nil && result.ok() {
		if parsed := gjson.ParseBytes(result.body); parsed.IsArray() {
			pluginCount = len(parsed.Array())
		}
	}

	return activeTheme, pluginCount
}

// ExecuteAction dispatches one declared action against the site. The returned
// map is the remote API's response payload; failures carry the remote error
// message when one was available.
func (g *Gateway) ExecuteAction(ctx context.Context, site *models.Site, secret string, action Action) (map[string]any, error) {
	// Theme switching has no stable REST endpoint; fail fast instead of
	// attempting an unreliable workaround.
	if action.Type == "theme_change" || action.Type == "theme_switch" {
		return nil, newActionError(action.Type, "theme switching is not supported: the WordPress REST API has no stable endpoint for it", nil)
	}
	if err := validateAction(action); err != nil {
		return nil, newActionError(action.Type, err.Error(), err)
	}

	creds := credentials{
		baseURL:    utils.NormalizeBaseURL(site.URL),
		username:   site.Username,
		secret:     secret,
		authMethod: site.AuthMethod,
	}
	client := g.actionClient()

	switch action.Type {
	case models.ActionThemeCustomize:
		return g.customizeTheme(ctx, client, creds, action)
	case models.ActionPluginInstall:
		return g.installPlugin(ctx, client, creds, action)
	case models.ActionPluginActivate:
		return g.activatePlugin(ctx, client, creds, action)
	case models.ActionContentUpdate:
		return g.updateContent(ctx, client, creds, action)
	case models.ActionSettingsUpdate:
		return g.updateSettings(ctx, client, creds, action)
	default:
		return nil, newActionError(action.Type, "unsupported action type", nil)
	}
}

// customizeTheme tries the customizer endpoint first and falls back to
// per-setting theme-mod updates when it is unavailable.
func (g *Gateway) customizeTheme(ctx context.Context, client *http.Client, creds credentials, action Action) (map[string]any, error) {
	var params ThemeCustomizeParams
	if err := decodeParams(action, &params); err != nil {
		return nil, newActionError(action.Type, err.Error(), err)
	}
	if len(params.Settings) == 0 {
		return nil, newActionError(action.Type, "no settings to apply", nil)
	}

	result, err := g.do(ctx, client, creds, http.MethodPost, "customize", map[string]any{"settings": params.Settings})
	if err == nil && result.ok() {
		return parseResponseBody(result.body), nil
	}

	// Fallback: apply each setting as an individual theme mod.
	updated := 0
	for key, value := range params.Settings {
		modResult, modErr := g.do(ctx, client, creds, http.MethodPost, "theme-mods", map[string]any{key: value})
		if modErr == nil && modResult.ok() {
			updated++
		}
	}
	if updated == 0 {
		return nil, g.actionErrorFrom(action.Type, result, err)
	}
	return map[string]any{"updated": updated}, nil
}

func (g *Gateway) installPlugin(ctx context.Context, client *http.Client, creds credentials, action Action) (map[string]any, error) {
	var params PluginInstallParams
	if err := decodeParams(action, &params); err != nil {
		return nil, newActionError(action.Type, err.Error(), err)
	}
	if params.Slug == "" {
		return nil, newActionError(action.Type, "plugin slug is required", nil)
	}

	result, err := g.do(ctx, client, creds, http.MethodPost, "plugins", map[string]any{
		"slug":   params.Slug,
		"status": "active",
	})
	if err != nil || !result.ok() {
		return nil, g.actionErrorFrom(action.Type, result, err)
	}
	return parseResponseBody(result.body), nil
}

func (g *Gateway) activatePlugin(ctx context.Context, client *http.Client, creds credentials, action Action) (map[string]any, error) {
	var params PluginActivateParams
	if err := decodeParams(action, &params); err != nil {
		return nil, newActionError(action.Type, err.Error(), err)
	}
	if params.Plugin == "" {
		return nil, newActionError(action.Type, "plugin identifier is required", nil)
	}

	result, err := g.do(ctx, client, creds, http.MethodPost, "plugins/"+params.Plugin, map[string]any{
		"status": "active",
	})
	if err != nil || !result.ok() {
		return nil, g.actionErrorFrom(action.Type, result, err)
	}
	return parseResponseBody(result.body), nil
}

func (g *Gateway) updateContent(ctx context.Context, client *http.Client, creds credentials, action Action) (map[string]any, error) {
	var params ContentUpdateParams
	if err := decodeParams(action, &params); err != nil {
		return nil, newActionError(action.Type, err.Error(), err)
	}
	contentType := params.Type
	if contentType == "" {
		contentType = "posts"
	}

	path := contentType
	if params.ID != "" {
		path = contentType + "/" + params.ID
	}

	result, err := g.do(ctx, client, creds, http.MethodPost, path, params.Data)
	if err != nil || !result.ok() {
		return nil, g.actionErrorFrom(action.Type, result, err)
	}
	return parseResponseBody(result.body), nil
}

func (g *Gateway) updateSettings(ctx context.Context, client *http.Client, creds credentials, action Action) (map[string]any, error) {
	var params SettingsUpdateParams
	if err := decodeParams(action, &params); err != nil {
		return nil, newActionError(action.Type, err.Error(), err)
	}
	if len(params.Settings) == 0 {
		return nil, newActionError(action.Type, "no settings to update", nil)
	}

	result, err := g.do(ctx, client, creds, http.MethodPost, "settings", params.Settings)
	if err != nil || !result.ok() {
		return nil, g.actionErrorFrom(action.Type, result, err)
	}
	return parseResponseBody(result.body), nil
}

// actionErrorFrom converts a failed round trip into an ActionError, preferring
// the remote API's own error message.
func (g *Gateway) actionErrorFrom(actionType string, result *restResult, err error) *ActionError {
	if err != nil {
		message := "request failed: " + err.Error()
		if classifyTransportError(err) == ErrorKindConnection {
			message = "site unreachable: " + err.Error()
		}
		return newActionError(actionType, message, err)
	}

	message := app_errors.ParseUpstreamError(result.body)
	if message == "" {
		message = http.StatusText(result.status)
	}
	return &ActionError{ActionType: actionType, StatusCode: result.status, Message: message}
}

// parseResponseBody decodes a JSON response, wrapping non-object payloads so
// callers always get a map.
func parseResponseBody(body []byte) map[string]any {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return map[string]any{}
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return parsed
	}

	var parsedSlice []any
	if err := json.Unmarshal(body, &parsedSlice); err == nil {
		return map[string]any{"items": parsedSlice}
	}

	return map[string]any{"raw": utils.TruncateString(trimmed, 2048)}
}
