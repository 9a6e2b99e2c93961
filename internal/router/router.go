// Package router wires the HTTP routes.
package router

import (
	"wp-pilot/internal/handler"
	"wp-pilot/internal/i18n"
	"wp-pilot/internal/middleware"
	"wp-pilot/internal/types"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// NewRouter creates the gin engine with all routes and middleware.
func NewRouter(serverHandler *handler.Server, configManager types.ConfigManager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RateLimiter(configManager.GetPerformanceConfig()))
	router.Use(middleware.Logger(configManager.GetLogConfig()))
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ErrorHandler())

	router.GET("/health", serverHandler.Health)

	api := router.Group("/api")
	api.Use(i18n.Middleware())
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	api.Use(middleware.Auth(configManager.GetAuthConfig()))
	{
		sites := api.Group("/sites")
		{
			sites.POST("", serverHandler.CreateSite)
			sites.GET("", serverHandler.ListSites)
			sites.GET("/:id", serverHandler.GetSite)
			sites.PUT("/:id", serverHandler.UpdateSite)
			sites.DELETE("/:id", serverHandler.DeleteSite)
			sites.POST("/:id/check-status", serverHandler.CheckSiteStatus)
			sites.GET("/:id/activities", serverHandler.ListSiteActivities)
		}

		conversations := api.Group("/conversations")
		{
			conversations.POST("", serverHandler.CreateConversation)
			conversations.GET("", serverHandler.ListConversations)
			conversations.GET("/:id", serverHandler.GetConversation)
			conversations.DELETE("/:id", serverHandler.DeleteConversation)
			conversations.POST("/:id/messages", serverHandler.SendMessage)
			conversations.GET("/:id/messages", serverHandler.ListMessages)
		}

		ai := api.Group("/ai")
		{
			ai.GET("/providers", serverHandler.ListProviders)
			ai.POST("/analyze-content", serverHandler.AnalyzeContent)
			ai.POST("/recommend-themes", serverHandler.RecommendThemes)
			ai.POST("/recommend-plugins", serverHandler.RecommendPlugins)
		}

		apiKeys := api.Group("/api-keys")
		{
			apiKeys.POST("", serverHandler.CreateAPIKey)
			apiKeys.GET("", serverHandler.ListAPIKeys)
			apiKeys.PUT("/:id", serverHandler.UpdateAPIKey)
			apiKeys.DELETE("/:id", serverHandler.DeleteAPIKey)
		}

		hosting := api.Group("/hosting-accounts")
		{
			hosting.POST("", serverHandler.CreateHostingAccount)
			hosting.GET("", serverHandler.ListHostingAccounts)
			hosting.PUT("/:id", serverHandler.UpdateHostingAccount)
			hosting.DELETE("/:id", serverHandler.DeleteHostingAccount)
		}
	}

	return router
}
