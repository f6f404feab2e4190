// Package di provides dependency injection configuration for the mockstore
// emulator binary.
package di

import (
	"github.com/samber/do/v2"

	"github.com/msautoparts/buy-sdk-go/internal/config"
	"github.com/msautoparts/buy-sdk-go/internal/di/providers"
	"github.com/msautoparts/buy-sdk-go/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Fixture catalog (load + hot reload)
	do.Provide(injector, providers.ProvideCatalog)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes every service in dependency order. Construction is
// lazy, so this is what actually opens the store, loads fixtures and binds
// the listen socket.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CatalogHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
