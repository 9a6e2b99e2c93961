package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"wp-pilot/internal/encryption"
	"wp-pilot/internal/i18n"
	"wp-pilot/internal/models"
	"wp-pilot/internal/monitor"
	"wp-pilot/internal/services"
	"wp-pilot/internal/store"
	"wp-pilot/internal/types"
	"wp-pilot/internal/wordpress"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handlerDBCounter int
var handlerDBMu sync.Mutex

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	handlerDBMu.Lock()
	handlerDBCounter++
	name := fmt.Sprintf("handler_test_%d", handlerDBCounter)
	handlerDBMu.Unlock()

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
	))
	return db
}

// probeGateway answers every status probe with a fixed result.
type probeGateway struct {
	status wordpress.SiteStatus
}

func (g probeGateway) TestConnection(ctx context.Context, url, username, secret, authMethod string) wordpress.ConnectionTest {
	return wordpress.ConnectionTest{Success: true}
}

func (g probeGateway) GetSiteStatus(ctx context.Context, site *models.Site, secret string) wordpress.SiteStatus {
	return g.status
}

func (g probeGateway) ExecuteAction(ctx context.Context, site *models.Site, secret string, action wordpress.Action) (map[string]any, error) {
	return map[string]any{}, nil
}

type monitorConfigStub struct {
	types.ConfigManager
	cfg types.MonitorConfig
}

func (s monitorConfigStub) GetMonitorConfig() types.MonitorConfig { return s.cfg }

type siteFixture struct {
	server *Server
	mon    *monitor.HealthMonitor
	site   *models.Site
}

func newSiteFixture(t *testing.T, status wordpress.SiteStatus) siteFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Init())

	db := newHandlerTestDB(t)
	enc, err := encryption.NewService("handler-test-encryption-key")
	require.NoError(t, err)

	gw := probeGateway{status: status}
	siteService := services.NewSiteService(db, enc, gw)

	user := &models.User{Email: fmt.Sprintf("user-%s@example.com", uuid.NewString())}
	require.NoError(t, db.Create(user).Error)

	encrypted, err := enc.Encrypt("app pass word")
	require.NoError(t, err)
	site := &models.Site{
		UserID:            user.ID,
		Name:              "Test Blog",
		URL:               "https://blog.example.com",
		Username:          "admin",
		EncryptedPassword: encrypted,
		AuthMethod:        models.AuthMethodAppPassword,
		IsActive:          true,
	}
	require.NoError(t, db.Create(site).Error)

	mem := store.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })
	mon := monitor.NewHealthMonitor(db, siteService, gw, mem, monitorConfigStub{cfg: types.MonitorConfig{
		AlertCooldownMinutes:  60,
		StatusCacheTTLSeconds: 60,
		ProbeConcurrency:      1,
	}})

	server := &Server{
		DB:            db,
		SiteService:   siteService,
		Monitor:       mon,
		defaultUserID: user.ID,
	}
	return siteFixture{server: server, mon: mon, site: site}
}

func getSiteJSON(t *testing.T, fx siteFixture) (int, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/sites/"+fx.site.ID, nil)
	c.Params = gin.Params{{Key: "id", Value: fx.site.ID}}

	fx.server.GetSite(c)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Data
}

func TestGetSiteIncludesCachedLiveness(t *testing.T) {
	fx := newSiteFixture(t, wordpress.SiteStatus{IsOnline: true, WPVersion: "6.5.2", PluginCount: 7})
	fx.mon.RunOnce(context.Background())

	code, data := getSiteJSON(t, fx)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, fx.site.ID, data["id"])
	require.Contains(t, data, "online")
	assert.Equal(t, true, data["online"])
}

func TestGetSiteReportsCachedOffline(t *testing.T) {
	fx := newSiteFixture(t, wordpress.SiteStatus{IsOnline: false})
	fx.mon.RunOnce(context.Background())

	code, data := getSiteJSON(t, fx)
	require.Equal(t, http.StatusOK, code)

	require.Contains(t, data, "online")
	assert.Equal(t, false, data["online"])
}

func TestGetSiteOmitsLivenessWithoutFreshProbe(t *testing.T) {
	fx := newSiteFixture(t, wordpress.SiteStatus{IsOnline: true})

	code, data := getSiteJSON(t, fx)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, fx.site.ID, data["id"])
	assert.NotContains(t, data, "online")
}
