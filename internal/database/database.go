// Package database handles database connections and migrations.
package database

import (
	"context"
	"fmt"
	"time"

	"studybud/internal/config"
	"studybud/internal/middleware"
	"studybud/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialector returns the GORM dialector for the configured driver.
func Dialector(cfg *config.Config) gorm.Dialector {
	if cfg.DBDriver == DriverSQLite {
		return SQLiteDialector(SQLiteDSN(cfg.DBPath))
	}

	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)
	return postgres.Open(dsn)
}

// SQLiteDSN turns a file path (or ":memory:") into a DSN with foreign keys enforced.
func SQLiteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return "file::memory:?cache=shared&_foreign_keys=on"
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on", path)
}

// Connect opens a database connection using the provided configuration and applies the schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(Dialector(cfg), logger.Warn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	middleware.Logger.Info("Database connected successfully", "driver", cfg.DBDriver)

	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := ApplySchema(ctx, db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

// Open opens dialector with the slog GORM logger and registers the participant join table.
func Open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(middleware.Logger, level),
	})
	if err != nil {
		return nil, err
	}
	if err := Prepare(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Prepare registers the custom join model behind Room.Participants.
func Prepare(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Room{}, "Participants", &models.RoomParticipant{}); err != nil {
		return fmt.Errorf("setup room participants join table: %w", err)
	}
	return nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.DBConnMaxLifetimeMinutes
	if lifetime <= 0 {
		lifetime = 5
	}
	if cfg.DBDriver == DriverSQLite {
		// sqlite allows a single writer
		maxOpen, maxIdle = 1, 1
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Duration(lifetime) * time.Minute)
	return nil
}

// Ping checks connectivity, used by the readiness probe.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
