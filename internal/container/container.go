// Package container wires application dependencies.
package container

import (
	"wp-pilot/internal/app"
	"wp-pilot/internal/config"
	"wp-pilot/internal/db"
	"wp-pilot/internal/encryption"
	"wp-pilot/internal/handler"
	"wp-pilot/internal/httpclient"
	"wp-pilot/internal/monitor"
	"wp-pilot/internal/provider"
	"wp-pilot/internal/router"
	"wp-pilot/internal/services"
	"wp-pilot/internal/store"
	"wp-pilot/internal/types"
	"wp-pilot/internal/wordpress"

	"go.uber.org/dig"
)

// BuildContainer creates the dig container and registers every provider.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		config.NewManager,
		newEncryptionService,
		db.NewDB,
		store.NewStore,
		httpclient.NewManager,
		wordpress.NewGateway,
		asSiteGateway,
		provider.NewFactory,
		asProviderSelector,
		services.NewSiteService,
		services.NewActionExecutor,
		services.NewChatService,
		services.NewAPIKeyService,
		services.NewHostingService,
		monitor.NewHealthMonitor,
		handler.NewServer,
		router.NewRouter,
		app.NewApp,
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, err
		}
	}

	return container, nil
}

func newEncryptionService(configManager types.ConfigManager) (encryption.Service, error) {
	return encryption.NewService(configManager.GetEncryptionKey())
}

func asSiteGateway(gateway *wordpress.Gateway) services.SiteGateway {
	return gateway
}

func asProviderSelector(factory *provider.Factory) services.ProviderSelector {
	return factory
}
