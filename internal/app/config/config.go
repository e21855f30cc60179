// Package config loads the server configuration from defaults, an optional
// YAML file, the environment and command line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"natours_backend/internal/platform/db"
	"natours_backend/internal/platform/mail"
	"natours_backend/internal/platform/redis"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	minSecretLength = 32
)

type Config struct {
	Env       string          `koanf:"env"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	JWT       JWTConfig       `koanf:"jwt"`
	Password  PasswordConfig  `koanf:"password"`
	Reset     ResetConfig     `koanf:"reset"`
	DB        db.Config       `koanf:"db"`
	Redis     redis.Config    `koanf:"redis"`
	SMTP      mail.Config     `koanf:"smtp"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// DrainDelay keeps serving after /readyz turns unhealthy so load balancers can react.
	DrainDelay time.Duration `koanf:"drain_delay"`
	BodyLimit  int64         `koanf:"body_limit"`
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For is honored.
	// Empty means the client IP is always the peer address.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

type JWTConfig struct {
	Secret          string        `koanf:"secret"`
	ExpiresIn       time.Duration `koanf:"expires_in"`
	CookieExpiresIn time.Duration `koanf:"cookie_expires_in"`
}

type PasswordConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

type ResetConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

type RateLimitConfig struct {
	Max    int           `koanf:"max"`
	Window time.Duration `koanf:"window"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func defaults() map[string]any {
	return map[string]any{
		"env":                     EnvDevelopment,
		"server.port":             "8080",
		"server.shutdown_timeout": "15s",
		"server.drain_delay":      "0s",
		"server.body_limit":       10 << 10,
		"log.format":              "",
		"log.level":               "info",
		"jwt.expires_in":          "2160h",
		"jwt.cookie_expires_in":   "2160h",
		"password.bcrypt_cost":    12,
		"reset.ttl":               "10m",
		"db.driver":               db.DriverPostgres,
		"db.host":                 "localhost",
		"db.port":                 "5432",
		"db.sslmode":              "disable",
		"db.connect_timeout":      "60s",
		"db.auto_migrate":         false,
		"redis.ttl":               "1m",
		"smtp.port":               587,
		"smtp.from":               "Natours <hello@natours.io>",
		"rate_limit.max":          100,
		"rate_limit.window":       "1h",
		"cors.allowed_origins":    []string{"*"},
	}
}

// envKeys maps environment variable names onto configuration keys.
var envKeys = map[string]string{
	"APP_ENV":                  "env",
	"PORT":                     "server.port",
	"SHUTDOWN_TIMEOUT":         "server.shutdown_timeout",
	"DRAIN_DELAY":              "server.drain_delay",
	"TRUSTED_PROXIES":          "server.trusted_proxies",
	"LOG_FORMAT":               "log.format",
	"LOG_LEVEL":                "log.level",
	"JWT_SECRET":               "jwt.secret",
	"JWT_EXPIRES_IN":           "jwt.expires_in",
	"JWT_COOKIE_EXPIRES_IN":    "jwt.cookie_expires_in",
	"BCRYPT_COST":              "password.bcrypt_cost",
	"RESET_TOKEN_TTL":          "reset.ttl",
	"DB_DRIVER":                "db.driver",
	"DB_HOST":                  "db.host",
	"DB_PORT":                  "db.port",
	"DB_USER":                  "db.user",
	"DB_PASSWORD":              "db.password",
	"DB_NAME":                  "db.name",
	"DB_SSLMODE":               "db.sslmode",
	"DB_PATH":                  "db.path",
	"DB_CONNECT_TIMEOUT":       "db.connect_timeout",
	"INSTANCE_CONNECTION_NAME": "db.instance",
	"RUN_MIGRATIONS":           "db.auto_migrate",
	"REDIS_ADDR":               "redis.addr",
	"REDIS_PASSWORD":           "redis.password",
	"REDIS_DB":                 "redis.db",
	"REDIS_TTL":                "redis.ttl",
	"SMTP_HOST":                "smtp.host",
	"SMTP_PORT":                "smtp.port",
	"SMTP_USERNAME":            "smtp.username",
	"SMTP_PASSWORD":            "smtp.password",
	"EMAIL_FROM":               "smtp.from",
	"RATE_LIMIT_MAX":           "rate_limit.max",
	"RATE_LIMIT_WINDOW":        "rate_limit.window",
	"CORS_ALLOWED_ORIGINS":     "cors.allowed_origins",
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"env":  "env",
	"port": "server.port",
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("env", EnvDevelopment, "runtime environment (development|production)")
	fs.String("port", "8080", "HTTP listen port")
}

// Load builds the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("config_defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("config_file").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, oops.Code("config_env").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, f.Value.String()
		}), nil); err != nil {
			return nil, oops.Code("config_flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("config_unmarshal").Wrap(err)
	}
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)
	cfg.Server.TrustedProxies = splitList(cfg.Server.TrustedProxies)
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
		if cfg.IsProduction() {
			cfg.Log.Format = "json"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret (JWT_SECRET) is required"))
	} else if c.IsProduction() && len(c.JWT.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("jwt.secret must be at least %d characters in production", minSecretLength))
	}
	if c.JWT.ExpiresIn <= 0 {
		errs = append(errs, errors.New("jwt.expires_in must be positive"))
	}
	if c.JWT.CookieExpiresIn <= 0 {
		errs = append(errs, errors.New("jwt.cookie_expires_in must be positive"))
	}
	if c.Reset.TTL <= 0 {
		errs = append(errs, errors.New("reset.ttl must be positive"))
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.max and rate_limit.window must be positive"))
	}
	// 本番ではLogMailerを使わない
	if c.IsProduction() && c.SMTP.Host == "" {
		errs = append(errs, errors.New("smtp.host (SMTP_HOST) is required in production"))
	}
	for _, p := range c.Server.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			errs = append(errs, fmt.Errorf("server.trusted_proxies: %q is not an IP or CIDR", p))
		}
	}
	if c.DB.Driver != db.DriverPostgres && c.DB.Driver != db.DriverSQLite {
		errs = append(errs, fmt.Errorf("db.driver must be %q or %q", db.DriverPostgres, db.DriverSQLite))
	}

	if len(errs) > 0 {
		return oops.Code("config_invalid").Wrap(errors.Join(errs...))
	}
	return nil
}

// splitList accepts both YAML lists and comma separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
