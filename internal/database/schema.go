package database

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// Schema modes (DB_SCHEMA_MODE).
const (
	// SchemaModeHybrid runs the SQL migrations, then AutoMigrate outside
	// staging and production.
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	// SchemaModeAuto runs only AutoMigrate. Production-like environments
	// must opt in with DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE.
	SchemaModeAuto = "auto"
)

var prodLikeEnvs = []string{"production", "prod", "staging", "stage"}

// schemaPlan is what ApplySchema will do for one configuration.
type schemaPlan struct {
	mode        string
	env         string
	sql         bool
	auto        bool
	destructive bool
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	p := schemaPlan{
		mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		env:  cfg.Env,
	}
	if p.mode == "" {
		p.mode = SchemaModeHybrid
	}
	prodLike := slices.Contains(prodLikeEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch p.mode {
	case SchemaModeSQL:
		p.sql = true
	case SchemaModeHybrid:
		p.sql, p.auto = true, !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return p, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		p.auto = true
		p.destructive = cfg.DBAutoMigrateAllowDestructive
	default:
		return p, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", p.mode)
	}
	return p, nil
}

// SchemaStatus describes what ApplySchema would do and which migrations are
// already recorded.
type SchemaStatus struct {
	Mode               string      `json:"mode"`
	Environment        string      `json:"environment"`
	WillRunSQL         bool        `json:"will_run_sql"`
	WillRunAutoMigrate bool        `json:"will_run_auto_migrate"`
	AppliedVersions    []int       `json:"applied"`
	PendingMigrations  []Migration `json:"pending"`
}

// ApplySchema brings the blog tables up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}
	log := observability.Ctx(ctx)

	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.auto {
		return nil
	}

	if plan.destructive {
		log.Warn().Str("env", plan.env).Msg("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE is set; review schema diffs before deploying")
	}
	log.Info().Str("mode", plan.mode).Str("env", plan.env).Msg("running gorm automigrate")
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan and the pending migrations without
// changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        plan.env,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.auto,
	}
	if !plan.sql {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	for _, m := range GetMigrations() {
		if !slices.Contains(applied, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
