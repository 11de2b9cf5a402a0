package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schemagraph/application/ports"
	"schemagraph/application/services"
	"schemagraph/domain/core/entities"
	"schemagraph/domain/core/valueobjects"
	"schemagraph/domain/events"
	domainservices "schemagraph/domain/services"
	"schemagraph/infrastructure/persistence/memory"
	"schemagraph/interfaces/http/rest/handlers"
	"schemagraph/interfaces/http/rest/middleware"
	"schemagraph/pkg/auth"
	apperrors "schemagraph/pkg/errors"
	"schemagraph/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubExecutor struct {
	result *ports.QueryResult
	err    error
}

func (s *stubExecutor) Execute(ctx context.Context, query string) (*ports.QueryResult, error) {
	return s.result, s.err
}

type stubIntrospector struct{}

func (stubIntrospector) Introspect(ctx context.Context, ds *entities.DataSource) (entities.Schema, error) {
	return entities.Schema{"Customers": {{Name: "Id", Type: "int"}}}, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, event events.DomainEvent) error { return nil }

type mapCache map[string]interface{}

func (c mapCache) Get(ctx context.Context, key string) (interface{}, bool) {
	v, ok := c[key]
	return v, ok
}

func (c mapCache) Set(ctx context.Context, key string, v interface{}, ttl int) error {
	c[key] = v
	return nil
}

func (c mapCache) Delete(ctx context.Context, key string) error {
	delete(c, key)
	return nil
}

type testServer struct {
	handler  http.Handler
	executor *stubExecutor
}

func newTestServer(t *testing.T, limits middleware.RateLimits) *testServer {
	t.Helper()
	logger := zap.NewNop()
	jwtCfg := auth.JWTConfig{SecretKey: "test-secret", Issuer: "schemagraph", Audience: []string{"schemagraph-api"}, ExpiryTime: time.Hour}
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)
	generator, err := auth.NewJWTGenerator(jwtCfg)
	require.NoError(t, err)

	store := memory.NewStore()
	executor := &stubExecutor{result: &ports.QueryResult{}}
	tracer := observability.NewTracer("schemagraph", false)
	errHandler := apperrors.NewErrorHandler(logger, false)

	authSvc := services.NewAuthService(store.Users(), generator, noopPublisher{}, logger)
	dsSvc := services.NewDataSourceService(store.DataSources(), stubIntrospector{}, mapCache{}, noopPublisher{}, nil, logger)
	mappingSvc := services.NewMappingService(store.Mappings(), store.DataSources(), noopPublisher{}, logger)
	explorer := services.NewExplorerService(executor, domainservices.NewProjector(), nil, tracer, nil, logger)

	router := NewRouter(
		RouterConfig{RateLimits: limits},
		handlers.NewAuthHandler(authSvc, errHandler, logger),
		handlers.NewDataSourceHandler(dsSvc, errHandler, logger),
		handlers.NewMappingHandler(mappingSvc, errHandler, logger),
		handlers.NewQueryHandler(explorer, errHandler, logger),
		handlers.NewHealthHandler(nil, logger),
		validator,
		tracer,
		errHandler,
		logger,
	)
	return &testServer{handler: router.Setup(), executor: executor}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": username, "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result services.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimits{})

	rec := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = srv.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimits{})
	srv.register(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"CONFLICT"`)

	rec = srv.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimits{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/datasources"},
		{http.MethodPost, "/api/mappings"},
		{http.MethodPost, "/api/cypher"},
		{http.MethodPost, "/api/graph/project"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = srv.do(t, tt.method, tt.path, "not-a-jwt", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_DataSourcesAndMappings(t *testing.T) {
	// Arrange
	srv := newTestServer(t, middleware.RateLimits{})
	alice := srv.register(t, "alice")
	bob := srv.register(t, "bob")

	// Act
	rec := srv.do(t, http.MethodPost, "/api/datasources", alice, map[string]string{
		"name": "crm", "server": "db.internal", "database": "CRM", "username": "reader", "password": "pw",
	})

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	var ds entities.DataSource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))

	rec = srv.do(t, http.MethodGet, "/api/datasources/"+ds.ID+"/schema", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Customers":[{"name":"Id","type":"int","nullable":false}]}`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/api/datasources/"+ds.ID+"/schema", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mapping := map[string]string{
		"datasourceId": ds.ID, "tableName": "Customers", "columnName": "Id",
		"nodeLabel": "Customer", "propertyName": "id",
	}
	rec = srv.do(t, http.MethodPost, "/api/mappings", alice, mapping)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/mappings", bob, mapping)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/mappings/"+ds.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []entities.Mapping
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Customer", list[0].NodeLabel)

	rec = srv.do(t, http.MethodGet, "/api/mappings/"+ds.ID, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_Cypher(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimits{})
	token := srv.register(t, "alice")

	person := entities.NodeValue{Identity: valueobjects.MustIdentifier(1), Labels: []string{"Person"}, Properties: map[string]interface{}{"name": "Alice"}}
	srv.executor.result = &ports.QueryResult{
		Records: []entities.QueryRecord{entities.NewQueryRecord(entities.Field{Name: "n", Value: person})},
		Summary: ports.QuerySummary{Query: "MATCH (n) RETURN n", QueryType: "r"},
	}

	rec := srv.do(t, http.MethodPost, "/api/cypher", token, map[string]string{"query": "MATCH (n) RETURN n"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data    []map[string]interface{} `json:"data"`
		Summary map[string]interface{}   `json:"summary"`
		Graph   struct {
			Nodes []map[string]interface{} `json:"nodes"`
			Edges []map[string]interface{} `json:"edges"`
		} `json:"graph"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, "r", body.Summary["queryType"])
	require.Len(t, body.Graph.Nodes, 1)
	assert.Equal(t, "Alice", body.Graph.Nodes[0]["label"])
	assert.NotNil(t, body.Graph.Edges)
}

func TestRouter_Cypher_Errors(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimits{})
	token := srv.register(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/cypher", token, map[string]string{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	srv.executor.err = errors.New("Invalid input 'MATC'")
	rec = srv.do(t, http.MethodPost, "/api/cypher", token, map[string]string{"query": "MATC (n)"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid input 'MATC'")
	assert.Contains(t, rec.Body.String(), `"type":"STORE"`)
	assert.NotContains(t, rec.Body.String(), "cause")
	assert.NotContains(t, rec.Body.String(), "stack_trace")
}

func TestRouter_Project(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimits{})
	token := srv.register(t, "alice")

	body := []byte(`{"data":[
		{"a":{"identity":1,"labels":["Person"],"properties":{"name":"Alice"}},
		 "r":{"identity":5,"type":"KNOWS","start":1,"end":2,"properties":{}},
		 "b":{"identity":2,"labels":["Person"],"properties":{"name":"Bob"}}}
	]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/graph/project", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"from":"1"`)
	assert.Contains(t, rec.Body.String(), `"node_count":2`)
}

func TestRouter_RateLimit(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimits{PerIP: 2, PerUser: 100})
	token := srv.register(t, "alice")

	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodGet, "/api/datasources", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := srv.do(t, http.MethodGet, "/api/datasources", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv := newTestServer(t, middleware.RateLimits{})

	rec := srv.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
