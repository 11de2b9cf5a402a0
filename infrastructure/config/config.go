package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "schemagraph/domain/config"
)

// Store backends
const (
	StoreNeo4j    = "neo4j"
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

// Identity modes for graph entities returned by the query executor
const (
	IdentityLegacy  = "legacy"
	IdentityElement = "element"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	DebugErrors   bool

	// Graph store
	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string
	IdentityMode  string
	QueryTimeout  time.Duration

	// Metadata store for users, data sources and mappings
	StoreBackend string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration

	// HTTP
	CORSAllowedOrigins []string

	// Schema browsing
	SchemaCacheTTL time.Duration

	// Feature flags
	EnableMetrics    bool
	MetricsNamespace string
	EnableTracing    bool
	EnableEvents     bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":2233"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		DebugErrors:   getEnvBool("DEBUG_ERRORS", false),

		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUsername: getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", ""),
		IdentityMode:  getEnv("IDENTITY_MODE", IdentityLegacy),
		QueryTimeout:  getEnvDuration("QUERY_TIMEOUT", 30*time.Second),

		StoreBackend: getEnv("STORE_BACKEND", StoreNeo4j),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "schemagraph")),
		EventBusName:  getEnv("EVENT_BUS_NAME", "schemagraph-events"),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// Authentication
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "schemagraph"),
		JWTAudience: getEnv("JWT_AUDIENCE", "schemagraph-api"),
		JWTExpiry:   getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		SchemaCacheTTL:     getEnvDuration("SCHEMA_CACHE_TTL", 5*time.Minute),

		// Logging and features
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", false),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "SchemaGraph"),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		EnableEvents:     getEnvBool("ENABLE_EVENTS", false),
	}

	if cfg.LambdaFunctionName != "" {
		cfg.IsLambda = true
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreNeo4j, StoreDynamoDB, StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of neo4j, dynamodb, memory; got %q", c.StoreBackend)
	}

	switch c.IdentityMode {
	case IdentityLegacy, IdentityElement:
	default:
		return fmt.Errorf("IDENTITY_MODE must be legacy or element; got %q", c.IdentityMode)
	}

	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be positive")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StoreBackend == StoreDynamoDB && c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// Domain returns the business rules for the current environment, with the
// timeouts taken from this configuration.
func (c *Config) Domain() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	dc.QueryTimeout = c.QueryTimeout
	if c.SchemaCacheTTL > 0 {
		dc.SchemaCacheTTL = c.SchemaCacheTTL
	}
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
