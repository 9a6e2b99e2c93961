// Package handler contains the HTTP handlers for the management API.
package handler

import (
	"wp-pilot/internal/models"
	"wp-pilot/internal/monitor"
	"wp-pilot/internal/services"
	"wp-pilot/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// defaultOwnerEmail identifies the auto-provisioned single-tenant owner.
const defaultOwnerEmail = "owner@wp-pilot.local"

// Server holds the handler dependencies.
type Server struct {
	DB             *gorm.DB
	config         types.ConfigManager
	SiteService    *services.SiteService
	ChatService    *services.ChatService
	APIKeyService  *services.APIKeyService
	HostingService *services.HostingService
	Monitor        *monitor.HealthMonitor

	defaultUserID string
}

// ServerParams contains all dependencies for the Server.
type ServerParams struct {
	dig.In

	DB             *gorm.DB
	Config         types.ConfigManager
	SiteService    *services.SiteService
	ChatService    *services.ChatService
	APIKeyService  *services.APIKeyService
	HostingService *services.HostingService
	Monitor        *monitor.HealthMonitor
}

// NewServer creates a new server instance and provisions the owner account.
func NewServer(params ServerParams) (*Server, error) {
	s := &Server{
		DB:             params.DB,
		config:         params.Config,
		SiteService:    params.SiteService,
		ChatService:    params.ChatService,
		APIKeyService:  params.APIKeyService,
		HostingService: params.HostingService,
		Monitor:        params.Monitor,
	}

	owner, err := ensureOwner(params.DB)
	if err != nil {
		return nil, err
	}
	s.defaultUserID = owner.ID
	return s, nil
}

// ensureOwner creates the single-tenant owner row on first boot.
func ensureOwner(db *gorm.DB) (*models.User, error) {
	var owner models.User
	err := db.Where("email = ?", defaultOwnerEmail).First(&owner).Error
	if err == nil {
		return &owner, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	owner = models.User{Email: defaultOwnerEmail, FirstName: "Site", LastName: "Owner"}
	if createErr := db.Create(&owner).Error; createErr != nil {
		return nil, createErr
	}
	logrus.Infof("Provisioned owner account %s", owner.ID)
	return &owner, nil
}

// currentUserID resolves the acting user. Access control is the shared key;
// the X-User-Id header selects a user row and defaults to the owner.
func (s *Server) currentUserID(c *gin.Context) string {
	if id := c.GetHeader("X-User-Id"); id != "" {
		return id
	}
	return s.defaultUserID
}
