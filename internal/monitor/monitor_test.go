package monitor

import (
	"context"
	"testing"
	"time"

	"wp-pilot/internal/encryption"
	"wp-pilot/internal/models"
	"wp-pilot/internal/services"
	"wp-pilot/internal/store"
	"wp-pilot/internal/types"
	"wp-pilot/internal/wordpress"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubConfig struct {
	types.ConfigManager
	monitor types.MonitorConfig
}

func (s *stubConfig) GetMonitorConfig() types.MonitorConfig { return s.monitor }

type stubGateway struct {
	status wordpress.SiteStatus
	probes int
}

func (g *stubGateway) TestConnection(ctx context.Context, url, username, secret, authMethod string) wordpress.ConnectionTest {
	return wordpress.ConnectionTest{Success: true}
}

func (g *stubGateway) GetSiteStatus(ctx context.Context, site *models.Site, secret string) wordpress.SiteStatus {
	g.probes++
	return g.status
}

func (g *stubGateway) ExecuteAction(ctx context.Context, site *models.Site, secret string, action wordpress.Action) (map[string]any, error) {
	return nil, nil
}

func newMonitorFixture(t *testing.T, cfg types.MonitorConfig) (*HealthMonitor, *stubGateway, *gorm.DB, *models.Site) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:monitor_"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Site{}, &models.Activity{}))

	enc, err := encryption.NewService("monitor-test-key")
	require.NoError(t, err)

	user := &models.User{Email: "monitor@example.com"}
	require.NoError(t, db.Create(user).Error)

	ciphertext, err := enc.Encrypt("app pass word")
	require.NoError(t, err)
	site := &models.Site{
		UserID:            user.ID,
		Name:              "Watched Blog",
		URL:               "https://watched.example.com",
		Username:          "admin",
		EncryptedPassword: ciphertext,
		AuthMethod:        models.AuthMethodAppPassword,
		IsActive:          true,
	}
	require.NoError(t, db.Create(site).Error)

	gateway := &stubGateway{status: wordpress.SiteStatus{IsOnline: true, WPVersion: "6.5", PluginCount: 3}}
	siteService := services.NewSiteService(db, enc, gateway)
	memStore := store.NewMemoryStore()
	t.Cleanup(func() { memStore.Close() })

	m := NewHealthMonitor(db, siteService, gateway, memStore, &stubConfig{monitor: cfg})
	return m, gateway, db, site
}

func defaultMonitorConfig() types.MonitorConfig {
	return types.MonitorConfig{
		Enabled:               true,
		IntervalMinutes:       15,
		AlertCooldownMinutes:  60,
		StatusCacheTTLSeconds: 60,
		ProbeConcurrency:      2,
	}
}

func TestRunOnceRefreshesOnlineSite(t *testing.T) {
	m, gateway, db, site := newMonitorFixture(t, defaultMonitorConfig())
	gateway.status = wordpress.SiteStatus{IsOnline: true, WPVersion: "6.6", ActiveTheme: "Neve", PluginCount: 7}

	m.RunOnce(context.Background())

	assert.Equal(t, 1, gateway.probes)

	var refreshed models.Site
	require.NoError(t, db.First(&refreshed, "id = ?", site.ID).Error)
	assert.Equal(t, "6.6", refreshed.WPVersion)
	assert.Equal(t, "Neve", refreshed.ActiveTheme)
	assert.Equal(t, 7, refreshed.PluginCount)
	assert.NotNil(t, refreshed.LastConnected)

	online, found := m.CachedStatus(site.ID)
	assert.True(t, found)
	assert.True(t, online)

	var activityCount int64
	require.NoError(t, db.Model(&models.Activity{}).Count(&activityCount).Error)
	assert.Zero(t, activityCount, "healthy probes must not produce alerts")
}

func TestRunOnceAlertsOnceWithinCooldown(t *testing.T) {
	m, gateway, db, site := newMonitorFixture(t, defaultMonitorConfig())
	gateway.status = wordpress.SiteStatus{IsOnline: false}

	m.RunOnce(context.Background())
	m.RunOnce(context.Background())
	m.RunOnce(context.Background())

	var activities []models.Activity
	require.NoError(t, db.Where("site_id = ?", site.ID).Find(&activities).Error)
	require.Len(t, activities, 1, "cooldown suppresses repeat alerts")
	assert.Equal(t, "site_offline", activities[0].ActivityType)

	online, found := m.CachedStatus(site.ID)
	assert.True(t, found)
	assert.False(t, online)
}

func TestRecoveryRearmsAlerting(t *testing.T) {
	m, gateway, db, site := newMonitorFixture(t, defaultMonitorConfig())

	gateway.status = wordpress.SiteStatus{IsOnline: false}
	m.RunOnce(context.Background())

	gateway.status = wordpress.SiteStatus{IsOnline: true, WPVersion: "6.5"}
	m.RunOnce(context.Background())

	gateway.status = wordpress.SiteStatus{IsOnline: false}
	m.RunOnce(context.Background())

	var activityCount int64
	require.NoError(t, db.Model(&models.Activity{}).Where("site_id = ? AND activity_type = ?", site.ID, "site_offline").Count(&activityCount).Error)
	assert.Equal(t, int64(2), activityCount, "a recovered site alerts again on its next outage")
}

func TestRunOnceSkipsInactiveSites(t *testing.T) {
	m, gateway, db, site := newMonitorFixture(t, defaultMonitorConfig())
	require.NoError(t, db.Model(&models.Site{}).Where("id = ?", site.ID).Update("is_active", false).Error)

	m.RunOnce(context.Background())
	assert.Zero(t, gateway.probes)
}

func TestStartStopDisabled(t *testing.T) {
	m, _, _, _ := newMonitorFixture(t, types.MonitorConfig{Enabled: false})

	// Neither call should block or panic when the monitor is disabled.
	m.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Stop(ctx)
}

func TestStartStopGraceful(t *testing.T) {
	m, _, _, _ := newMonitorFixture(t, defaultMonitorConfig())

	m.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Stop(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("monitor did not stop in time")
	}
}
