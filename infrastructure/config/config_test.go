package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":2233", cfg.ServerAddress)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, IdentityLegacy, cfg.IdentityMode)
	assert.Equal(t, StoreNeo4j, cfg.StoreBackend)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.False(t, cfg.DebugErrors)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("QUERY_TIMEOUT", "5")
	t.Setenv("SCHEMA_CACHE_TTL", "90s")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("DEBUG_ERRORS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 90*time.Second, cfg.SchemaCacheTTL)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.DebugErrors)

	dc := cfg.Domain()
	assert.Equal(t, 5*time.Second, dc.QueryTimeout)
	assert.Equal(t, 90*time.Second, dc.SchemaCacheTTL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "postgres"}},
		{name: "unknown identity mode", env: map[string]string{"IDENTITY_MODE": "uuid"}},
		{name: "production without secret", env: map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
