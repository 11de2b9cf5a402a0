package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Query constraints
	MaxQueryLength int
	QueryTimeout   time.Duration

	// Projection limits
	MaxRecordsPerProjection int

	// Schema browsing
	SchemaCacheTTL    time.Duration
	ConnectionTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxQueryLength: 64 * 1024,
		QueryTimeout:   30 * time.Second,

		MaxRecordsPerProjection: 10000,

		SchemaCacheTTL:    5 * time.Minute,
		ConnectionTimeout: 15 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More restrictive limits for production
	config.MaxRecordsPerProjection = 5000
	config.MaxQueryLength = 16 * 1024

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More permissive for development
	config.MaxRecordsPerProjection = 100000
	config.SchemaCacheTTL = 30 * time.Second

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxQueryLength <= 0 {
		return errInvalid("MaxQueryLength must be positive")
	}
	if c.MaxRecordsPerProjection <= 0 {
		return errInvalid("MaxRecordsPerProjection must be positive")
	}
	if c.QueryTimeout <= 0 {
		return errInvalid("QueryTimeout must be positive")
	}
	return nil
}

type configError string

func (e configError) Error() string { return "invalid domain config: " + string(e) }

func errInvalid(msg string) error { return configError(msg) }
