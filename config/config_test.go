package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DEBUG_ENDPOINTS_ENABLED", "")
	t.Setenv("DEBUG_METRICS_ENABLED", "")
	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.DebugEndpointsEnabled)
	assert.True(t, cfg.DebugMetricsEnabled)
	assert.True(t, cfg.ProtectUserRoutes)
	assert.Equal(t, "access_as_user", cfg.EntraRequiredScope)
	assert.True(t, cfg.CORSAllowAll())
	assert.Nil(t, cfg.Audiences())
	assert.Empty(t, cfg.ESAddrs())
}

func TestLoad_ProductionDisablesDebugEndpoints(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DEBUG_ENDPOINTS_ENABLED", "")
	t.Setenv("DEBUG_METRICS_ENABLED", "")
	cfg := Load()
	assert.False(t, cfg.DebugEndpointsEnabled)
	assert.False(t, cfg.DebugMetricsEnabled)

	t.Setenv("DEBUG_ENDPOINTS_ENABLED", "true")
	t.Setenv("DEBUG_METRICS_ENABLED", "true")
	cfg = Load()
	assert.True(t, cfg.DebugEndpointsEnabled)
	assert.True(t, cfg.DebugMetricsEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "users")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("AZUREAD_AUDIENCES", "api://x,x")
	t.Setenv("USER_CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "oops")

	cfg := Load()
	assert.Equal(t, "postgres://app:pw@db:5433/users?sslmode=require", cfg.PostgresDSN())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.False(t, cfg.CORSAllowAll())
	assert.Equal(t, []string{"api://x", "x"}, cfg.Audiences())
	assert.Equal(t, 30*time.Second, cfg.UserCacheTTL)
	assert.Equal(t, 300, cfg.RateLimitPerMinute)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("AZUREAD_API_CLIENT_ID", "api-client")
	t.Setenv("AZUREAD_TENANT_ID", "tenant")
	t.Setenv("AZUREAD_INSTANCE", "https://login.microsoftonline.com")
	t.Setenv("USUARIOS_API_URL", "http://localhost:5000/")
	t.Setenv("USUARIOS_API_SCOPES", "")

	c := LoadClient()
	assert.Equal(t, "http://localhost:5000", c.APIBaseURL)
	assert.Equal(t, []string{"api://api-client/access_as_user"}, c.APIScopes)
	assert.Equal(t, "https://login.microsoftonline.com/tenant", c.Authority())
	assert.Equal(t, []string{"User.Read"}, c.GraphScopes)
}
