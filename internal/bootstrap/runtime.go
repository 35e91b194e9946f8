// Package bootstrap wires the process-level dependencies shared by the
// commands: database, schema, Redis and optional demo data.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs the configured schema mode before returning.
	ApplySchema bool
	// SeedDemo fills an empty development database with demo content.
	SeedDemo bool
}

// InitRuntime connects to the database and Redis. The Redis client is nil
// when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	r := cache.Connect(ctx, cfg.RedisURL)

	if opts.SeedDemo {
		if err := seedDemo(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo content: %w", err)
		}
	}

	return db, r, nil
}

// seedDemo seeds only a development database that has no blogs yet.
func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	var n int64
	if err := db.WithContext(ctx).Model(&models.Blog{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	opts := seed.DefaultOptions()
	opts.SkipBcrypt = true
	sum, err := seed.NewSeeder(db.WithContext(ctx), opts).Run(ctx)
	if err != nil {
		return err
	}
	observability.Logger.Info().
		Int("users", sum.Users).
		Int("blogs", sum.Blogs).
		Str("password", seed.DemoPassword).
		Msg("development demo content seeded")
	return nil
}
