// Package services implements the business logic between handlers and storage.
package services

import (
	"context"
	"time"

	"wp-pilot/internal/encryption"
	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/models"
	"wp-pilot/internal/wordpress"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SiteGateway is the outbound WordPress surface the services depend on.
// *wordpress.Gateway satisfies it.
type SiteGateway interface {
	TestConnection(ctx context.Context, url, username, secret, authMethod string) wordpress.ConnectionTest
	GetSiteStatus(ctx context.Context, site *models.Site, secret string) wordpress.SiteStatus
	ExecuteAction(ctx context.Context, site *models.Site, secret string, action wordpress.Action) (map[string]any, error)
}

// SiteCreateRequest carries the fields needed to connect a new site. The
// secret is write-only; it is encrypted at rest and never echoed back.
type SiteCreateRequest struct {
	Name       string `json:"name" binding:"required"`
	URL        string `json:"url" binding:"required"`
	Username   string `json:"username" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
	AuthMethod string `json:"auth_method"`
}

// SiteUpdateRequest carries the mutable site fields. A non-empty secret
// triggers a fresh connection test before being stored.
type SiteUpdateRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Secret   string  `json:"secret"`
	IsActive *bool   `json:"is_active"`
}

// SiteService manages connected WordPress sites.
type SiteService struct {
	db         *gorm.DB
	encryption encryption.Service
	gateway    SiteGateway
}

func NewSiteService(db *gorm.DB, enc encryption.Service, gateway SiteGateway) *SiteService {
	return &SiteService{db: db, encryption: enc, gateway: gateway}
}

// Create connects a new site. The connection is verified live before
// anything is persisted; a failed test rejects the request with the probe's
// classified error message.
func (s *SiteService) Create(ctx context.Context, userID string, req SiteCreateRequest) (*models.Site, error) {
	authMethod := req.AuthMethod
	if authMethod == "" {
		authMethod = models.AuthMethodAppPassword
	}
	if authMethod != models.AuthMethodAppPassword && authMethod != models.AuthMethodToken {
		return nil, app_errors.NewValidationError("auth_method must be app-password or token")
	}

	test := s.gateway.TestConnection(ctx, req.URL, req.Username, req.Secret, authMethod)
	if !test.Success {
		return nil, app_errors.NewAPIError(app_errors.ErrConnectionTest, test.Error)
	}

	encrypted, err := s.encryption.Encrypt(req.Secret)
	if err != nil {
		logrus.WithError(err).Error("Failed to encrypt site credential")
		return nil, app_errors.ErrCredentialAccess
	}

	now := time.Now()
	site := &models.Site{
		UserID:            userID,
		Name:              req.Name,
		URL:               req.URL,
		Username:          req.Username,
		EncryptedPassword: encrypted,
		AuthMethod:        authMethod,
		IsActive:          true,
		LastConnected:     &now,
		WPVersion:         test.WPVersion,
		ActiveTheme:       test.ActiveTheme,
		PluginCount:       test.PluginCount,
	}
	if err := s.db.WithContext(ctx).Create(site).Error; err != nil {
		return nil, err
	}

	s.recordActivity(ctx, site.ID, "site_connected", "Site connected: "+site.Name)
	return site, nil
}

// List returns the user's sites, newest first.
func (s *SiteService) List(ctx context.Context, userID string) ([]models.Site, error) {
	var sites []models.Site
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sites).Error
	return sites, err
}

// Get returns one site, scoped to the owning user.
func (s *SiteService) Get(ctx context.Context, userID, siteID string) (*models.Site, error) {
	var site models.Site
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", siteID, userID).
		First(&site).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// Update applies the mutable fields. A new secret is verified against the
// live site before replacing the stored ciphertext.
func (s *SiteService) Update(ctx context.Context, userID, siteID string, req SiteUpdateRequest) (*models.Site, error) {
	site, err := s.Get(ctx, userID, siteID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		site.Name = *req.Name
	}
	if req.Username != nil {
		site.Username = *req.Username
	}
	if req.IsActive != nil {
		site.IsActive = *req.IsActive
	}
	if req.Secret != "" {
		test := s.gateway.TestConnection(ctx, site.URL, site.Username, req.Secret, site.AuthMethod)
		if !test.Success {
			return nil, app_errors.NewAPIError(app_errors.ErrConnectionTest, test.Error)
		}
		encrypted, encErr := s.encryption.Encrypt(req.Secret)
		if encErr != nil {
			logrus.WithError(encErr).Error("Failed to encrypt site credential")
			return nil, app_errors.ErrCredentialAccess
		}
		site.EncryptedPassword = encrypted
		now := time.Now()
		site.LastConnected = &now
	}

	if err := s.db.WithContext(ctx).Save(site).Error; err != nil {
		return nil, err
	}
	return site, nil
}

// Delete removes a site. Conversations, actions and activities cascade at
// the database level.
func (s *SiteService) Delete(ctx context.Context, userID, siteID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", siteID, userID).
		Delete(&models.Site{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return app_errors.ErrResourceNotFound
	}
	return nil
}

// CheckStatus probes the site and refreshes cached metadata on success.
func (s *SiteService) CheckStatus(ctx context.Context, userID, siteID string) (*wordpress.SiteStatus, error) {
	site, err := s.Get(ctx, userID, siteID)
	if err != nil {
		return nil, err
	}

	secret, err := s.decryptSecret(site)
	if err != nil {
		return nil, err
	}

	status := s.gateway.GetSiteStatus(ctx, site, secret)
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
		if err := s.db.WithContext(ctx).Model(site).Updates(updates).Error; err != nil {
			logrus.WithError(err).WithField("site", site.ID).Warn("Failed to persist refreshed site status")
		}
	}
	return &status, nil
}

// Activities returns the site's audit log, newest first.
func (s *SiteService) Activities(ctx context.Context, userID, siteID string, limit int) ([]models.Activity, error) {
	if _, err := s.Get(ctx, userID, siteID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var activities []models.Activity
	err := s.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

// DecryptSecret exposes credential access to the chat pipeline and monitor.
func (s *SiteService) DecryptSecret(site *models.Site) (string, error) {
	return s.decryptSecret(site)
}

func (s *SiteService) decryptSecret(site *models.Site) (string, error) {
	secret, err := s.encryption.Decrypt(site.EncryptedPassword)
	if err != nil {
		logrus.WithError(err).WithField("site", site.ID).Error("Failed to decrypt site credential")
		return "", app_errors.ErrCredentialAccess
	}
	return secret, nil
}

func (s *SiteService) recordActivity(ctx context.Context, siteID, activityType, description string) {
	activity := &models.Activity{
		SiteID:       siteID,
		ActivityType: activityType,
		Description:  description,
	}
	if err := s.db.WithContext(ctx).Create(activity).Error; err != nil {
		logrus.WithError(err).WithField("site", siteID).Warn("Failed to record activity")
	}
}
