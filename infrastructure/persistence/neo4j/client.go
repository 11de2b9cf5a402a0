// Package neo4j adapts the Neo4j graph store: the ad-hoc query executor and
// the repositories for users, data sources and mappings.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// IdentityMode selects which driver identifier becomes the canonical identity
type IdentityMode string

const (
	// IdentityLegacy uses the numeric id, matching what older clients expect
	IdentityLegacy IdentityMode = "legacy"
	// IdentityElement uses the element id string
	IdentityElement IdentityMode = "element"
)

// ClientConfig holds connection settings
type ClientConfig struct {
	URI      string
	Username string
	Password string
	Database string
	Identity IdentityMode
}

// Client owns the driver. Every operation opens its own session and closes
// it before returning.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	identity IdentityMode
	logger   *zap.Logger
}

// NewClient creates the driver and verifies the server is reachable
func NewClient(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	identity := cfg.Identity
	if identity == "" {
		identity = IdentityLegacy
	}

	logger.Info("Connected to Neo4j",
		zap.String("uri", cfg.URI),
		zap.String("database", cfg.Database),
		zap.String("identityMode", string(identity)),
	)

	return &Client{
		driver:   driver,
		database: cfg.Database,
		identity: identity,
		logger:   logger,
	}, nil
}

// Close releases the driver and its connection pool
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Ping checks connectivity for readiness probes
func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// EnsureConstraints creates the uniqueness constraints the repositories rely on
func (c *Client) EnsureConstraints(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT user_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE",
		"CREATE CONSTRAINT datasource_id IF NOT EXISTS FOR (d:DataSource) REQUIRE d.id IS UNIQUE",
		"CREATE CONSTRAINT mapping_id IF NOT EXISTS FOR (m:Mapping) REQUIRE m.id IS UNIQUE",
	}

	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, stmt := range statements {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("failed to ensure constraint: %w", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("failed to ensure constraint: %w", err)
		}
	}
	return nil
}

func (c *Client) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   mode,
	})
}
