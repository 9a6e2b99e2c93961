package handler

import (
	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/response"

	"github.com/gin-gonic/gin"
)

type analyzeContentRequest struct {
	Content  string `json:"content" binding:"required"`
	Provider string `json:"provider"`
}

type recommendRequest struct {
	Description string `json:"description" binding:"required"`
	Provider    string `json:"provider"`
}

// ListProviders reports the configured AI backends. Keys themselves are
// never included.
func (s *Server) ListProviders(c *gin.Context) {
	response.Success(c, s.ChatService.Providers())
}

// AnalyzeContent runs a structured content review.
func (s *Server) AnalyzeContent(c *gin.Context) {
	var req analyzeContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	analysis, err := s.ChatService.AnalyzeContent(c.Request.Context(), req.Content, req.Provider)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, analysis)
}

// RecommendThemes suggests wordpress.org themes for a described site.
func (s *Server) RecommendThemes(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	recommendations, err := s.ChatService.RecommendThemes(c.Request.Context(), req.Description, req.Provider)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, recommendations)
}

// RecommendPlugins suggests wordpress.org plugins for described needs.
func (s *Server) RecommendPlugins(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	recommendations, err := s.ChatService.RecommendPlugins(c.Request.Context(), req.Description, req.Provider)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, recommendations)
}
