package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"natours_backend/internal/platform/mail"
)

const testSecret = "a-very-long-secret-for-production-use!"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(10<<10), cfg.Server.BodyLimit)
	assert.Equal(t, 90*24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 90*24*time.Hour, cfg.JWT.CookieExpiresIn)
	assert.Equal(t, 12, cfg.Password.BcryptCost)
	assert.Equal(t, 10*time.Minute, cfg.Reset.TTL)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_EXPIRES_IN", "1h")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "natours.db")
	t.Setenv("RUN_MIGRATIONS", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.io, https://b.io")
	t.Setenv("SMTP_HOST", "smtp.natours.io")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, testSecret, cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "natours.db", cfg.DB.Path)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "smtp.natours.io", cfg.SMTP.Host)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ProductionWithoutSMTP(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", testSecret)

	_, err := Load("", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.host (SMTP_HOST) is required in production")
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "natours.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: development
server:
  port: "3000"
jwt:
  secret: from-file
  expires_in: 2h
reset:
  ttl: 5m
`), 0o600))

	t.Setenv("JWT_EXPIRES_IN", "3h")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--port", "4000"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 3*time.Hour, cfg.JWT.ExpiresIn, "env overrides file")
	assert.Equal(t, 5*time.Minute, cfg.Reset.TTL)
	assert.Equal(t, "4000", cfg.Server.Port, "flag overrides file")
	assert.Equal(t, EnvDevelopment, cfg.Env, "unchanged flag keeps file value")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:       EnvProduction,
			JWT:       JWTConfig{Secret: testSecret, ExpiresIn: time.Hour, CookieExpiresIn: time.Hour},
			Reset:     ResetConfig{TTL: 10 * time.Minute},
			RateLimit: RateLimitConfig{Max: 100, Window: time.Hour},
			SMTP:      mail.Config{Host: "smtp.natours.io"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown env", func(c *Config) { c.Env = "staging" }, "env must be"},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret (JWT_SECRET) is required"},
		{"short secret in production", func(c *Config) { c.JWT.Secret = "short" }, "at least 32 characters"},
		{"short secret in development", func(c *Config) { c.Env = EnvDevelopment; c.JWT.Secret = "short" }, ""},
		{"zero reset ttl", func(c *Config) { c.Reset.TTL = 0 }, "reset.ttl"},
		{"zero rate limit", func(c *Config) { c.RateLimit.Max = 0 }, "rate_limit"},
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }, "db.driver"},
		{"no smtp in production", func(c *Config) { c.SMTP.Host = "" }, "smtp.host (SMTP_HOST) is required in production"},
		{"no smtp in development", func(c *Config) { c.Env = EnvDevelopment; c.SMTP.Host = "" }, ""},
		{"trusted proxy ip and cidr", func(c *Config) { c.Server.TrustedProxies = []string{"192.0.2.1", "10.0.0.0/8", "::1"} }, ""},
		{"bad trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"proxy.local"} }, "server.trusted_proxies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			c.DB.Driver = "postgres"
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", "c"}))
	assert.Nil(t, splitList([]string{" ", ""}))
}
