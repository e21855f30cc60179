package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"natours_backend/internal/feature/auth/domain/entity"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultRetryInterval = 3 * time.Second
)

// Config holds the database connection settings.
type Config struct {
	Driver   string `koanf:"driver"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	SSLMode  string `koanf:"sslmode"`
	// InstanceName is a Cloud SQL instance reached over its unix socket; it wins over Host/Port.
	InstanceName string `koanf:"instance"`
	// Path is the SQLite file used when Driver is sqlite.
	Path string `koanf:"path"`

	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN returns the connection string for cfg.
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		return cfg.Path
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	if cfg.InstanceName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.InstanceName, cfg.User, cfg.Password, cfg.Name, sslmode)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
}

// ConnectWithRetry calls opener at a constant interval until it succeeds or
// timeout elapses.
func ConnectWithRetry(ctx context.Context, dsn string, timeout, interval time.Duration, opener Opener) (*gorm.DB, error) {
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(interval))

	var (
		db      *gorm.DB
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var openErr error
		db, openErr = opener(dsn)
		if openErr != nil {
			slog.Warn("DB connect failed, retrying", "attempt", attempt, "error", openErr)
			return retry.RetryableError(openErr)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code("db_connect_failed").With("attempts", attempt).With("timeout", timeout.String()).Wrap(err)
	}
	return db, nil
}

// OpenerFor returns the gorm opener for cfg.Driver. Duplicate-key errors are
// translated to gorm.ErrDuplicatedKey by both dialects.
func OpenerFor(cfg Config) (Opener, error) {
	gcfg := &gorm.Config{TranslateError: true}
	switch cfg.Driver {
	case DriverPostgres, "":
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gcfg)
		}, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gcfg)
		}, nil
	default:
		return nil, oops.Code("db_driver_unknown").With("driver", cfg.Driver).Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects using cfg and runs migrations when enabled.
func Open(ctx context.Context, cfg Config) (*gorm.DB, error) {
	opener, err := OpenerFor(cfg)
	if err != nil {
		return nil, err
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	db, err := ConnectWithRetry(ctx, BuildDSN(cfg), timeout, defaultRetryInterval, opener)
	if err != nil {
		return nil, err
	}
	slog.Info("DB connection successful", "driver", cfg.Driver, "name", cfg.Name)

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate creates or updates the tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.User{}); err != nil {
		return oops.Code("db_migrate_failed").Wrap(err)
	}
	return nil
}
