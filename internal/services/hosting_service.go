package services

import (
	"context"
	"time"

	"wp-pilot/internal/encryption"
	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HostingCreateRequest stores a hosting provider account. Credentials are an
// arbitrary JSON object, encrypted as a unit.
type HostingCreateRequest struct {
	Provider    string         `json:"provider" binding:"required"`
	AccountName string         `json:"account_name" binding:"required"`
	ServerURL   string         `json:"server_url" binding:"required"`
	Credentials map[string]any `json:"credentials" binding:"required"`
}

// HostingUpdateRequest updates account fields; non-nil credentials replace
// the stored ciphertext wholesale.
type HostingUpdateRequest struct {
	AccountName *string        `json:"account_name"`
	ServerURL   *string        `json:"server_url"`
	Credentials map[string]any `json:"credentials"`
	IsActive    *bool          `json:"is_active"`
}

// HostingAccountInfo is the client-facing view. HasCredentials stands in for
// the secret payload.
type HostingAccountInfo struct {
	ID             string     `json:"id"`
	Provider       string     `json:"provider"`
	AccountName    string     `json:"account_name"`
	ServerURL      string     `json:"server_url"`
	IsActive       bool       `json:"is_active"`
	HasCredentials bool       `json:"has_credentials"`
	LastConnected  *time.Time `json:"last_connected"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HostingService manages hosting provider accounts.
type HostingService struct {
	db         *gorm.DB
	encryption encryption.Service
}

func NewHostingService(db *gorm.DB, enc encryption.Service) *HostingService {
	return &HostingService{db: db, encryption: enc}
}

func (s *HostingService) Create(ctx context.Context, userID string, req HostingCreateRequest) (*HostingAccountInfo, error) {
	encrypted, err := s.encryption.EncryptJSON(req.Credentials)
	if err != nil {
		logrus.WithError(err).Error("Failed to encrypt hosting credentials")
		return nil, app_errors.ErrCredentialAccess
	}

	account := &models.HostingAccount{
		UserID:               userID,
		Provider:             req.Provider,
		AccountName:          req.AccountName,
		ServerURL:            req.ServerURL,
		EncryptedCredentials: encrypted,
		IsActive:             true,
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return hostingAccountInfo(account), nil
}

func (s *HostingService) List(ctx context.Context, userID string) ([]HostingAccountInfo, error) {
	var accounts []models.HostingAccount
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}

	infos := make([]HostingAccountInfo, 0, len(accounts))
	for i := range accounts {
		infos = append(infos, *hostingAccountInfo(&accounts[i]))
	}
	return infos, nil
}

func (s *HostingService) Update(ctx context.Context, userID, accountID string, req HostingUpdateRequest) (*HostingAccountInfo, error) {
	var account models.HostingAccount
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", accountID, userID).
		First(&account).Error; err != nil {
		return nil, err
	}

	if req.AccountName != nil {
		account.AccountName = *req.AccountName
	}
	if req.ServerURL != nil {
		account.ServerURL = *req.ServerURL
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	if req.Credentials != nil {
		encrypted, err := s.encryption.EncryptJSON(req.Credentials)
		if err != nil {
			logrus.WithError(err).Error("Failed to encrypt hosting credentials")
			return nil, app_errors.ErrCredentialAccess
		}
		account.EncryptedCredentials = encrypted
	}

	if err := s.db.WithContext(ctx).Save(&account).Error; err != nil {
		return nil, err
	}
	return hostingAccountInfo(&account), nil
}

func (s *HostingService) Delete(ctx context.Context, userID, accountID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", accountID, userID).
		Delete(&models.HostingAccount{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return app_errors.ErrResourceNotFound
	}
	return nil
}

func hostingAccountInfo(account *models.HostingAccount) *HostingAccountInfo {
	return &HostingAccountInfo{
		ID:             account.ID,
		Provider:       account.Provider,
		AccountName:    account.AccountName,
		ServerURL:      account.ServerURL,
		IsActive:       account.IsActive,
		HasCredentials: account.EncryptedCredentials != "",
		LastConnected:  account.LastConnected,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
}
