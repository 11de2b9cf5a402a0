//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"schemagraph/application/ports"
	"schemagraph/application/services"
	"schemagraph/infrastructure/config"
	"schemagraph/interfaces/http/rest"
	"schemagraph/interfaces/http/rest/handlers"
	"schemagraph/pkg/auth"

	"github.com/google/wire"
)

// InfrastructureSet provides clients, stores and adapters
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideNeo4jClient,
	ProvideRepositories,
	wire.FieldsOf(new(Repositories), "Users", "DataSources", "Mappings"),
	ProvideQueryExecutor,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideTracer,
	ProvideSchemaCache,
	wire.Bind(new(ports.Cache), new(*InMemoryCache)),
	ProvideSchemaIntrospector,
)

// ApplicationSet provides domain rules and services
var ApplicationSet = wire.NewSet(
	ProvideDomainConfig,
	ProvideJWTConfig,
	ProvideJWTValidator,
	ProvideJWTGenerator,
	wire.Bind(new(services.TokenIssuer), new(*auth.JWTGenerator)),
	ProvideProjector,
	services.NewAuthService,
	services.NewDataSourceService,
	services.NewMappingService,
	services.NewExplorerService,
)

// HTTPSet provides handlers and the router
var HTTPSet = wire.NewSet(
	ProvideErrorHandler,
	handlers.NewAuthHandler,
	handlers.NewDataSourceHandler,
	handlers.NewMappingHandler,
	handlers.NewQueryHandler,
	ProvideHealthHandler,
	ProvideRouterConfig,
	rest.NewRouter,
	ProvideHTTPHandler,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	HTTPSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// closes the graph driver and stops the cache sweeper.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
