package handler

import (
	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/response"
	"wp-pilot/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateAPIKey stores a third-party provider key. The key is write-only.
func (s *Server) CreateAPIKey(c *gin.Context) {
	var req services.APIKeyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	info, err := s.APIKeyService.Create(c.Request.Context(), s.currentUserID(c), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "credential.created", info)
}

// ListAPIKeys returns the user's stored keys without their secrets.
func (s *Server) ListAPIKeys(c *gin.Context) {
	infos, err := s.APIKeyService.List(c.Request.Context(), s.currentUserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, infos)
}

// UpdateAPIKey rotates or renames a stored key.
func (s *Server) UpdateAPIKey(c *gin.Context) {
	var req services.APIKeyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	info, err := s.APIKeyService.Update(c.Request.Context(), s.currentUserID(c), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "credential.updated", info)
}

// DeleteAPIKey removes a stored key.
func (s *Server) DeleteAPIKey(c *gin.Context) {
	if err := s.APIKeyService.Delete(c.Request.Context(), s.currentUserID(c), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "credential.deleted", nil)
}

// CreateHostingAccount stores a hosting provider account with encrypted
// credentials.
func (s *Server) CreateHostingAccount(c *gin.Context) {
	var req services.HostingCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	info, err := s.HostingService.Create(c.Request.Context(), s.currentUserID(c), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "credential.created", info)
}

// ListHostingAccounts returns the user's hosting accounts without secrets.
func (s *Server) ListHostingAccounts(c *gin.Context) {
	infos, err := s.HostingService.List(c.Request.Context(), s.currentUserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, infos)
}

// UpdateHostingAccount updates account fields or replaces credentials.
func (s *Server) UpdateHostingAccount(c *gin.Context) {
	var req services.HostingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	info, err := s.HostingService.Update(c.Request.Context(), s.currentUserID(c), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "credential.updated", info)
}

// DeleteHostingAccount removes a hosting account.
func (s *Server) DeleteHostingAccount(c *gin.Context) {
	if err := s.HostingService.Delete(c.Request.Context(), s.currentUserID(c), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "credential.deleted", nil)
}
