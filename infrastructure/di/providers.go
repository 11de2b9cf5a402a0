package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"schemagraph/application/ports"
	"schemagraph/application/services"
	domainconfig "schemagraph/domain/config"
	domainservices "schemagraph/domain/services"
	"schemagraph/infrastructure/config"
	"schemagraph/infrastructure/introspection"
	"schemagraph/infrastructure/messaging/eventbridge"
	dynamostore "schemagraph/infrastructure/persistence/dynamodb"
	"schemagraph/infrastructure/persistence/memory"
	neo4jstore "schemagraph/infrastructure/persistence/neo4j"
	"schemagraph/interfaces/http/rest"
	"schemagraph/interfaces/http/rest/handlers"
	"schemagraph/interfaces/http/rest/middleware"
	"schemagraph/pkg/auth"
	apperrors "schemagraph/pkg/errors"
	"schemagraph/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

const serviceName = "schemagraph"

// Repositories groups the metadata repositories of the selected store backend
type Repositories struct {
	Users       ports.UserRepository
	DataSources ports.DataSourceRepository
	Mappings    ports.MappingRepository
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideNeo4jClient connects to the graph database. Constraints are only
// created when the graph also holds the metadata.
func ProvideNeo4jClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*neo4jstore.Client, func(), error) {
	client, err := neo4jstore.NewClient(ctx, neo4jstore.ClientConfig{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUsername,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
		Identity: neo4jstore.IdentityMode(cfg.IdentityMode),
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.StoreBackend == config.StoreNeo4j {
		if err := client.EnsureConstraints(ctx); err != nil {
			logger.Warn("Failed to ensure graph constraints", zap.Error(err))
		}
	}

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Warn("Failed to close graph driver", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideRepositories selects the metadata store named by STORE_BACKEND
func ProvideRepositories(cfg *config.Config, graph *neo4jstore.Client, dynamo *awsdynamodb.Client, logger *zap.Logger) (Repositories, error) {
	switch cfg.StoreBackend {
	case config.StoreNeo4j:
		return Repositories{
			Users:       neo4jstore.NewUserRepository(graph),
			DataSources: neo4jstore.NewDataSourceRepository(graph),
			Mappings:    neo4jstore.NewMappingRepository(graph),
		}, nil
	case config.StoreDynamoDB:
		store := dynamostore.NewStore(dynamo, cfg.DynamoDBTable, logger)
		return Repositories{
			Users:       store.Users(),
			DataSources: store.DataSources(),
			Mappings:    store.Mappings(),
		}, nil
	case config.StoreMemory:
		logger.Warn("Using in-memory metadata store; data is lost on restart")
		store := memory.NewStore()
		return Repositories{
			Users:       store.Users(),
			DataSources: store.DataSources(),
			Mappings:    store.Mappings(),
		}, nil
	default:
		return Repositories{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// ProvideQueryExecutor creates the graph query executor
func ProvideQueryExecutor(graph *neo4jstore.Client, cfg *config.Config) ports.QueryExecutor {
	return neo4jstore.NewExecutor(graph, cfg.QueryTimeout)
}

// ProvideEventPublisher publishes to EventBridge when events are enabled and
// only logs them otherwise
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return eventbridge.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates the metrics recorder
func ProvideMetrics(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) ports.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewMetrics(cfg.MetricsNamespace, nil, logger)
	}
	return observability.NewMetrics(cfg.MetricsNamespace, client, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideSchemaCache creates the schema cache and stops its sweeper on cleanup
func ProvideSchemaCache() (*InMemoryCache, func()) {
	cache := NewInMemoryCache(time.Minute)
	return cache, cache.Close
}

// ProvideSchemaIntrospector creates the relational schema reader
func ProvideSchemaIntrospector(logger *zap.Logger) ports.SchemaIntrospector {
	return introspection.NewIntrospector(logger)
}

// ProvideDomainConfig returns the business rules for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.Domain()
}

// ProvideJWTConfig maps configuration onto the token settings
func ProvideJWTConfig(cfg *config.Config, logger *zap.Logger) auth.JWTConfig {
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set; using an insecure development secret")
		secret = "schemagraph-development-secret"
	}
	return auth.JWTConfig{
		SecretKey:  secret,
		Issuer:     cfg.JWTIssuer,
		Audience:   []string{cfg.JWTAudience},
		ExpiryTime: cfg.JWTExpiry,
	}
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(jwtCfg auth.JWTConfig) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(jwtCfg)
}

// ProvideJWTGenerator creates the token issuer
func ProvideJWTGenerator(jwtCfg auth.JWTConfig) (*auth.JWTGenerator, error) {
	return auth.NewJWTGenerator(jwtCfg)
}

// ProvideErrorHandler creates the HTTP error handler. Causes and stack traces
// are only rendered when DEBUG_ERRORS is set, whatever the environment.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.DebugErrors)
}

// ProvideProjector creates the record-to-graph projector
func ProvideProjector() *domainservices.Projector {
	return domainservices.NewProjector()
}

// ProvideHealthHandler probes the graph database on /ready
func ProvideHealthHandler(graph *neo4jstore.Client, logger *zap.Logger) *handlers.HealthHandler {
	return handlers.NewHealthHandler(graph, logger)
}

// ProvideRouterConfig maps configuration onto router settings
func ProvideRouterConfig(cfg *config.Config) rest.RouterConfig {
	return rest.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimits:     middleware.DefaultRateLimits,
	}
}

// ProvideHTTPHandler builds the routed handler
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}

var _ services.TokenIssuer = (*auth.JWTGenerator)(nil)
