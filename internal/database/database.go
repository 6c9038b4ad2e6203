package database

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes the connection pool and query logging. Zero values fall
// back to defaults sized for a handful of app instances sharing one
// postgres.
type Options struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// LogLevel for gorm's own query logger; defaults to Warn so slow
	// queries and errors surface without per-query noise.
	LogLevel logger.LogLevel
}

func (o Options) withDefaults() Options {
	if o.MaxIdleConns == 0 {
		o.MaxIdleConns = 10
	}
	if o.MaxOpenConns == 0 {
		o.MaxOpenConns = 100
	}
	if o.ConnMaxLifetime == 0 {
		o.ConnMaxLifetime = time.Hour
	}
	if o.ConnMaxIdleTime == 0 {
		o.ConnMaxIdleTime = 10 * time.Minute
	}
	if o.LogLevel == 0 {
		o.LogLevel = logger.Warn
	}
	return o
}

// Connect opens a postgres connection with default pool settings.
func Connect(databaseURL string) (*gorm.DB, error) {
	return ConnectWithOptions(databaseURL, Options{})
}

// ConnectWithOptions opens a postgres connection. In production the
// connection string must not switch TLS off. All timestamps written
// through this handle are UTC.
func ConnectWithOptions(databaseURL string, opts Options) (*gorm.DB, error) {
	if os.Getenv("APP_ENV") == "production" {
		if err := ensureTLS(databaseURL); err != nil {
			return nil, err
		}
	}
	opts = opts.withDefaults()

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:  logger.Default.LogMode(opts.LogLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	slog.Info("database connected",
		slog.Int("max_open_conns", opts.MaxOpenConns),
		slog.Int("max_idle_conns", opts.MaxIdleConns))
	return db, nil
}

// ensureTLS rejects connection strings that explicitly disable TLS. An
// absent sslmode is left to the server default.
func ensureTLS(databaseURL string) error {
	if strings.Contains(databaseURL, "sslmode=disable") {
		return fmt.Errorf("SSL mode cannot be disabled in production")
	}
	return nil
}

// Migrate applies the schema for every persisted model. Order follows
// foreign keys: users first, then the aggregates that reference them.
func Migrate(db *gorm.DB) error {
	start := time.Now()

	err := db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Attachment{},
		&models.Requirement{},
		&models.Quote{},
		&models.Design{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database migrations applied", slog.Duration("took", time.Since(start)))
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
