package ports

import (
	"context"
	"time"

	"schemagraph/domain/core/entities"
	"schemagraph/domain/events"
)

// UserRepository defines the interface for account persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type UserRepository interface {
	// Save persists a new user. A taken username yields a CONFLICT error.
	Save(ctx context.Context, user *entities.User) error

	// FindByUsername retrieves a user, or a NOT_FOUND error
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
}

// DataSourceRepository defines the interface for data source persistence
type DataSourceRepository interface {
	// Save persists a new data source
	Save(ctx context.Context, ds *entities.DataSource) error

	// FindByID retrieves a data source owned by ownerID.
	// Data sources owned by someone else are reported as NOT_FOUND.
	FindByID(ctx context.Context, ownerID, id string) (*entities.DataSource, error)

	// FindByOwner lists the owner's data sources ordered by creation time
	FindByOwner(ctx context.Context, ownerID string) ([]*entities.DataSource, error)
}

// MappingRepository defines the interface for mapping persistence
type MappingRepository interface {
	// Save persists a new mapping and returns the stored record
	Save(ctx context.Context, mapping *entities.Mapping) (*entities.Mapping, error)

	// FindAll lists the owner's mappings for a data source ordered by creation time
	FindAll(ctx context.Context, ownerID, dataSourceID string) ([]*entities.Mapping, error)
}

// QueryExecutor runs an opaque query string against the graph store
type QueryExecutor interface {
	Execute(ctx context.Context, query string) (*QueryResult, error)
}

// QueryResult holds the decoded records and the store's execution summary
type QueryResult struct {
	Records []entities.QueryRecord
	Summary QuerySummary
}

// QuerySummary describes how a query ran
type QuerySummary struct {
	Query                  string         `json:"query"`
	QueryType              string         `json:"queryType"`
	Database               string         `json:"database,omitempty"`
	Counters               map[string]int `json:"counters"`
	ResultAvailableAfterMs int64          `json:"resultAvailableAfter"`
	ResultConsumedAfterMs  int64          `json:"resultConsumedAfter"`
	Notifications          []string       `json:"notifications,omitempty"`
}

// SchemaIntrospector reads table and column metadata from a relational source
type SchemaIntrospector interface {
	Introspect(ctx context.Context, ds *entities.DataSource) (entities.Schema, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error
}

// Metrics records operational measurements
type Metrics interface {
	RecordQuery(ctx context.Context, duration time.Duration, err error)
	RecordProjection(ctx context.Context, nodes, edges int)
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error
}
