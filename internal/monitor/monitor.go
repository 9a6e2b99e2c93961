// Package monitor runs periodic health checks over connected sites.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wp-pilot/internal/models"
	"wp-pilot/internal/services"
	"wp-pilot/internal/store"
	"wp-pilot/internal/types"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	alertCooldownKeyPrefix = "monitor:alert:"
	statusCacheKeyPrefix   = "monitor:status:"
)

// HealthMonitor probes every active site on an interval, refreshes cached
// metadata, and appends an offline alert to the site's activity log. Alerts
// are de-duplicated through the store so a site that stays down does not
// flood its log. The monitor only ever writes activities, never messages or
// actions.
type HealthMonitor struct {
	db          *gorm.DB
	siteService *services.SiteService
	gateway     services.SiteGateway
	store       store.Store
	config      types.MonitorConfig

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewHealthMonitor(
	db *gorm.DB,
	siteService *services.SiteService,
	gateway services.SiteGateway,
	st store.Store,
	configManager types.ConfigManager,
) *HealthMonitor {
	return &HealthMonitor{
		db:          db,
		siteService: siteService,
		gateway:     gateway,
		store:       st,
		config:      configManager.GetMonitorConfig(),
		stopChan:    make(chan struct{}),
	}
}

// Start launches the probe loop. Disabled monitors start nothing.
func (m *HealthMonitor) Start() {
	if !m.config.Enabled {
		logrus.Info("Health monitor disabled")
		return
	}
	logrus.Infof("Health monitor started, interval %dm", m.config.IntervalMinutes)
	m.wg.Add(1)
	go m.runLoop()
}

// Stop halts the loop, respecting the context for shutdown timeout.
func (m *HealthMonitor) Stop(ctx context.Context) {
	if !m.config.Enabled {
		return
	}
	close(m.stopChan)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("Health monitor stopped gracefully.")
	case <-ctx.Done():
		logrus.Warn("Health monitor stop timed out.")
	}
}

func (m *HealthMonitor) runLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Duration(m.config.IntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunOnce(context.Background())
		case <-m.stopChan:
			return
		}
	}
}

// RunOnce probes all active sites with bounded concurrency.
func (m *HealthMonitor) RunOnce(ctx context.Context) {
	var sites []models.Site
	if err := m.db.WithContext(ctx).Where("is_active = ?", true).Find(&sites).Error; err != nil {
		logrus.WithError(err).Error("Health monitor failed to list sites")
		return
	}
	if len(sites) == 0 {
		return
	}

	concurrency := m.config.ProbeConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i := range sites {
		site := sites[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			m.probeSite(ctx, &site)
		}()
	}
	wg.Wait()
}

// probeSite checks one site and records the outcome.
func (m *HealthMonitor) probeSite(ctx context.Context, site *models.Site) {
	secret, err := m.siteService.DecryptSecret(site)
	if err != nil {
		logrus.WithField("site", site.ID).Warn("Skipping probe, credential unavailable")
		return
	}

	status := m.gateway.GetSiteStatus(ctx, site, secret)
	m.cacheStatus(site.ID, status.IsOnline)

	if status.IsOnline {
		now := time.Now()
		updates := map[string]any{
			"last_connected": &now,
			"wp_version":     status.WPVersion,
			"plugin_count":   status.PluginCount,
		}
		if status.ActiveTheme != "" {
			updates["active_theme"] = status.ActiveTheme
		}
		if err := m.db.WithContext(ctx).Model(&models.Site{}).Where("id = ?", site.ID).Updates(updates).Error; err != nil {
			logrus.WithError(err).WithField("site", site.ID).Warn("Failed to persist probe result")
		}
		// A recovered site may alert again on its next outage.
		if err := m.store.Delete(alertCooldownKeyPrefix + site.ID); err != nil {
			logrus.WithError(err).Debug("Failed to clear alert cooldown")
		}
		return
	}

	m.alertOffline(ctx, site)
}

// alertOffline appends one offline activity per cooldown window.
func (m *HealthMonitor) alertOffline(ctx context.Context, site *models.Site) {
	cooldown := time.Duration(m.config.AlertCooldownMinutes) * time.Minute
	if cooldown <= 0 {
		cooldown = time.Hour
	}

	acquired, err := m.store.SetNX(alertCooldownKeyPrefix+site.ID, []byte("1"), cooldown)
	if err != nil {
		logrus.WithError(err).WithField("site", site.ID).Warn("Alert de-duplication unavailable")
		return
	}
	if !acquired {
		return
	}

	activity := &models.Activity{
		SiteID:       site.ID,
		ActivityType: "site_offline",
		Description:  fmt.Sprintf("Health check failed: %s is unreachable", site.Name),
		Metadata:     datatypes.JSON(`{"severity":"warning","source":"health_monitor"}`),
	}
	if err := m.db.WithContext(ctx).Create(activity).Error; err != nil {
		logrus.WithError(err).WithField("site", site.ID).Error("Failed to record offline alert")
		return
	}
	logrus.WithFields(logrus.Fields{"site": site.ID, "name": site.Name}).Warn("Site is offline")
}

// cacheStatus keeps a short-lived liveness flag for cheap dashboard reads.
func (m *HealthMonitor) cacheStatus(siteID string, online bool) {
	ttl := time.Duration(m.config.StatusCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		return
	}
	value := []byte("offline")
	if online {
		value = []byte("online")
	}
	if err := m.store.Set(statusCacheKeyPrefix+siteID, value, ttl); err != nil {
		logrus.WithError(err).Debug("Failed to cache site status")
	}
}

// CachedStatus reports the last probe outcome, if still fresh.
func (m *HealthMonitor) CachedStatus(siteID string) (online bool, found bool) {
	value, err := m.store.Get(statusCacheKeyPrefix + siteID)
	if err != nil {
		return false, false
	}
	return string(value) == "online", true
}
