package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"wp-pilot/internal/encryption"
	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/models"
	"wp-pilot/internal/provider"
	"wp-pilot/internal/wordpress"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int
var testDBMu sync.Mutex

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBMu.Lock()
	testDBCounter++
	name := fmt.Sprintf("svc_test_%d", testDBCounter)
	testDBMu.Unlock()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Site{},
		&models.Conversation{},
		&models.Message{},
		&models.Action{},
		&models.Activity{},
		&models.APIKey{},
		&models.HostingAccount{},
	))
	return db
}

func newTestEncryption(t *testing.T) encryption.Service {
	t.Helper()
	svc, err := encryption.NewService("unit-test-encryption-key")
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{Email: fmt.Sprintf("user-%s@example.com", uuid.NewString())}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedSite(t *testing.T, db *gorm.DB, enc encryption.Service, userID string) *models.Site {
	t.Helper()
	encrypted, err := enc.Encrypt("app pass word")
	require.NoError(t, err)
	site := &models.Site{
		UserID:            userID,
		Name:              "Test Blog",
		URL:               "https://blog.example.com",
		Username:          "admin",
		EncryptedPassword: encrypted,
		AuthMethod:        models.AuthMethodAppPassword,
		IsActive:          true,
	}
	require.NoError(t, db.Create(site).Error)
	return site
}

// fakeGateway is a programmable SiteGateway.
type fakeGateway struct {
	connectionTest wordpress.ConnectionTest
	siteStatus     wordpress.SiteStatus

	executed   []wordpress.Action
	failTypes  map[string]string
	execResult map[string]any
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		connectionTest: wordpress.ConnectionTest{Success: true, WPVersion: "6.5", ActiveTheme: "Astra", PluginCount: 4},
		siteStatus:     wordpress.SiteStatus{IsOnline: true, WPVersion: "6.5", ActiveTheme: "Astra", PluginCount: 4, ResponseTimeMs: 12},
		failTypes:      map[string]string{},
		execResult:     map[string]any{"ok": true},
	}
}

func (g *fakeGateway) TestConnection(ctx context.Context, url, username, secret, authMethod string) wordpress.ConnectionTest {
	return g.connectionTest
}

func (g *fakeGateway) GetSiteStatus(ctx context.Context, site *models.Site, secret string) wordpress.SiteStatus {
	return g.siteStatus
}

func (g *fakeGateway) ExecuteAction(ctx context.Context, site *models.Site, secret string, action wordpress.Action) (map[string]any, error) {
	g.executed = append(g.executed, action)
	if msg, ok := g.failTypes[action.Type]; ok {
		return nil, &wordpress.ActionError{ActionType: action.Type, StatusCode: 500, Message: msg}
	}
	return g.execResult, nil
}

// fakeProvider returns a canned response.
type fakeProvider struct {
	name     string
	response *provider.AIResponse
	err      error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) ProcessCommand(ctx context.Context, command string, site *provider.SiteContext) (*provider.AIResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func (p *fakeProvider) AnalyzeContent(ctx context.Context, content string) (*provider.ContentAnalysis, error) {
	return &provider.ContentAnalysis{Summary: "fine"}, nil
}

func (p *fakeProvider) RecommendThemes(ctx context.Context, description string) ([]provider.Recommendation, error) {
	return []provider.Recommendation{{Name: "Astra", Slug: "astra"}}, nil
}

func (p *fakeProvider) RecommendPlugins(ctx context.Context, needs string) ([]provider.Recommendation, error) {
	return []provider.Recommendation{{Name: "Yoast SEO", Slug: "wordpress-seo"}}, nil
}

// fakeSelector hands out a single provider, or an APIError.
type fakeSelector struct {
	provider provider.Provider
	err      *app_errors.APIError
}

func (s *fakeSelector) Select(name string) (provider.Provider, *app_errors.APIError) {
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

func (s *fakeSelector) Infos() []provider.Info {
	if s.provider == nil {
		return nil
	}
	return []provider.Info{{Name: s.provider.Name(), IsDefault: true}}
}
