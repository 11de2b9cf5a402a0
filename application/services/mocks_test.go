package services

import (
	"context"
	"sync"
	"time"

	"schemagraph/application/ports"
	"schemagraph/domain/core/entities"
	"schemagraph/domain/events"

	"github.com/stretchr/testify/mock"
)

type MockQueryExecutor struct {
	mock.Mock
}

func (m *MockQueryExecutor) Execute(ctx context.Context, query string) (*ports.QueryResult, error) {
	args := m.Called(ctx, query)
	if r := args.Get(0); r != nil {
		return r.(*ports.QueryResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockSchemaIntrospector struct {
	mock.Mock
}

func (m *MockSchemaIntrospector) Introspect(ctx context.Context, ds *entities.DataSource) (entities.Schema, error) {
	args := m.Called(ctx, ds)
	if s := args.Get(0); s != nil {
		return s.(entities.Schema), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordQuery(ctx context.Context, duration time.Duration, err error) {
	m.Called(ctx, duration, err)
}

func (m *MockMetrics) RecordProjection(ctx context.Context, nodes, edges int) {
	m.Called(ctx, nodes, edges)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(userID, username string) (string, error) {
	args := m.Called(userID, username)
	return args.String(0), args.Error(1)
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]interface{})}
}

func (c *mapCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}
