// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"studybud/internal/cache"
	"studybud/internal/config"
	"studybud/internal/database"
	"studybud/internal/middleware"
	"studybud/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
	// Demo, when set, also runs a demo data seed.
	Demo *seed.Options
}

// InitRuntime connects to the database and Redis and optionally seeds.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.Connect(cfg.RedisURL)

	if err := Seed(db, opts); err != nil {
		_ = database.Close(db)
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	return db, rdb, nil
}

// Seed applies the seeding selected by opts to db.
func Seed(db *gorm.DB, opts Options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if opts.SeedBuiltIns {
		if err := seed.Topics(ctx, db); err != nil {
			return fmt.Errorf("failed to seed built-in topics: %w", err)
		}
	}
	if opts.Demo != nil {
		sum, err := seed.Run(ctx, db, *opts.Demo)
		if err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		middleware.Logger.Info("demo data seeded", "users", sum.Users, "rooms", sum.Rooms, "messages", sum.Messages)
	}
	return nil
}
