package handler

import (
	"strconv"

	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/models"
	"wp-pilot/internal/response"
	"wp-pilot/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateSite connects a new WordPress site after a live connection test.
func (s *Server) CreateSite(c *gin.Context) {
	var req services.SiteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	site, err := s.SiteService.Create(c.Request.Context(), s.currentUserID(c), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, site)
}

// ListSites returns the user's connected sites.
func (s *Server) ListSites(c *gin.Context) {
	sites, err := s.SiteService.List(c.Request.Context(), s.currentUserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, sites)
}

// siteView decorates a site with the monitor's last cached probe outcome.
// Online is omitted when no fresh probe exists.
type siteView struct {
	*models.Site
	Online *bool `json:"online,omitempty"`
}

// GetSite returns one site, with cached liveness when the monitor has a
// fresh probe result. A live re-check stays behind POST /:id/check-status.
func (s *Server) GetSite(c *gin.Context) {
	site, err := s.SiteService.Get(c.Request.Context(), s.currentUserID(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	view := siteView{Site: site}
	if s.Monitor != nil {
		if online, found := s.Monitor.CachedStatus(site.ID); found {
			view.Online = &online
		}
	}
	response.Success(c, view)
}

// UpdateSite applies mutable site fields, re-verifying a rotated secret.
func (s *Server) UpdateSite(c *gin.Context) {
	var req services.SiteUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	site, err := s.SiteService.Update(c.Request.Context(), s.currentUserID(c), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, site)
}

// DeleteSite removes a site and its dependent records.
func (s *Server) DeleteSite(c *gin.Context) {
	if err := s.SiteService.Delete(c.Request.Context(), s.currentUserID(c), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "site.deleted", nil)
}

// CheckSiteStatus probes the site live and refreshes cached metadata.
func (s *Server) CheckSiteStatus(c *gin.Context) {
	status, err := s.SiteService.CheckStatus(c.Request.Context(), s.currentUserID(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, status)
}

// ListSiteActivities returns the site's audit log.
func (s *Server) ListSiteActivities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	activities, err := s.SiteService.Activities(c.Request.Context(), s.currentUserID(c), c.Param("id"), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, activities)
}
