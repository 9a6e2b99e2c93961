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

// APIKeyCreateRequest stores a third-party provider key. The key itself is
// write-only.
type APIKeyCreateRequest struct {
	Provider string `json:"provider" binding:"required"`
	KeyName  string `json:"key_name" binding:"required"`
	Key      string `json:"key" binding:"required"`
}

// APIKeyUpdateRequest rotates or renames a stored key.
type APIKeyUpdateRequest struct {
	KeyName  *string `json:"key_name"`
	Key      string  `json:"key"`
	IsActive *bool   `json:"is_active"`
}

// APIKeyInfo is the client-facing view of a stored key. HasKey stands in
// for the secret, which is never echoed.
type APIKeyInfo struct {
	ID        string     `json:"id"`
	Provider  string     `json:"provider"`
	KeyName   string     `json:"key_name"`
	IsActive  bool       `json:"is_active"`
	HasKey    bool       `json:"has_key"`
	LastUsed  *time.Time `json:"last_used"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// APIKeyService manages users' stored provider keys.
type APIKeyService struct {
	db         *gorm.DB
	encryption encryption.Service
}

func NewAPIKeyService(db *gorm.DB, enc encryption.Service) *APIKeyService {
	return &APIKeyService{db: db, encryption: enc}
}

func (s *APIKeyService) Create(ctx context.Context, userID string, req APIKeyCreateRequest) (*APIKeyInfo, error) {
	hash := s.encryption.Hash(req.Key)
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("user_id = ? AND key_hash = ?", userID, hash).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, app_errors.NewAPIError(app_errors.ErrDuplicateResource, "This API key is already stored")
	}

	encrypted, err := s.encryption.Encrypt(req.Key)
	if err != nil {
		logrus.WithError(err).Error("Failed to encrypt API key")
		return nil, app_errors.ErrCredentialAccess
	}

	key := &models.APIKey{
		UserID:       userID,
		Provider:     req.Provider,
		KeyName:      req.KeyName,
		EncryptedKey: encrypted,
		KeyHash:      hash,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return nil, err
	}
	return apiKeyInfo(key), nil
}

func (s *APIKeyService) List(ctx context.Context, userID string) ([]APIKeyInfo, error) {
	var keys []models.APIKey
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&keys).Error; err != nil {
		return nil, err
	}

	infos := make([]APIKeyInfo, 0, len(keys))
	for i := range keys {
		infos = append(infos, *apiKeyInfo(&keys[i]))
	}
	return infos, nil
}

func (s *APIKeyService) Update(ctx context.Context, userID, keyID string, req APIKeyUpdateRequest) (*APIKeyInfo, error) {
	var key models.APIKey
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", keyID, userID).
		First(&key).Error; err != nil {
		return nil, err
	}

	if req.KeyName != nil {
		key.KeyName = *req.KeyName
	}
	if req.IsActive != nil {
		key.IsActive = *req.IsActive
	}
	if req.Key != "" {
		encrypted, err := s.encryption.Encrypt(req.Key)
		if err != nil {
			logrus.WithError(err).Error("Failed to encrypt API key")
			return nil, app_errors.ErrCredentialAccess
		}
		key.EncryptedKey = encrypted
		key.KeyHash = s.encryption.Hash(req.Key)
	}

	if err := s.db.WithContext(ctx).Save(&key).Error; err != nil {
		return nil, err
	}
	return apiKeyInfo(&key), nil
}

func (s *APIKeyService) Delete(ctx context.Context, userID, keyID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", keyID, userID).
		Delete(&models.APIKey{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return app_errors.ErrResourceNotFound
	}
	return nil
}

func apiKeyInfo(key *models.APIKey) *APIKeyInfo {
	return &APIKeyInfo{
		ID:        key.ID,
		Provider:  key.Provider,
		KeyName:   key.KeyName,
		IsActive:  key.IsActive,
		HasKey:    key.EncryptedKey != "",
		LastUsed:  key.LastUsed,
		CreatedAt: key.CreatedAt,
		UpdatedAt: key.UpdatedAt,
	}
}
