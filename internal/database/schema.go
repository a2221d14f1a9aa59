package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"studybud/internal/config"
	"studybud/internal/middleware"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Schema modes accepted in DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// schemaPlan says which schema steps ApplySchema runs.
type schemaPlan struct {
	SQL  bool
	Auto bool
}

// SchemaStatus is the migrate tool's view of the database.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// strictEnv reports whether env forbids GORM AutoMigrate against PostgreSQL.
func strictEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// schemaMode resolves the effective mode. The embedded SQL targets PostgreSQL,
// so SQLite databases are always built with AutoMigrate.
func schemaMode(cfg *config.Config) string {
	if cfg.DBDriver == DriverSQLite {
		return SchemaModeAuto
	}
	if mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)); mode != "" {
		return mode
	}
	return SchemaModeHybrid
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	mode := schemaMode(cfg)
	strict := strictEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return schemaPlan{SQL: true}, nil
	case SchemaModeAuto:
		if strict && cfg.DBDriver != DriverSQLite {
			return schemaPlan{}, fmt.Errorf("DB_SCHEMA_MODE=auto is not allowed in %q, use sql", cfg.Env)
		}
		return schemaPlan{Auto: true}, nil
	case SchemaModeHybrid:
		return schemaPlan{SQL: true, Auto: !strict}, nil
	default:
		return schemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// AutoMigrate creates or alters the StudyBud tables from the GORM models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the users, topics, rooms and messages tables up to date.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.Auto {
		middleware.Logger.Info("syncing tables from models",
			slog.String("mode", schemaMode(cfg)), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the schema plan and, when SQL migrations are in play,
// which embedded versions are applied or pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               schemaMode(cfg),
		Environment:        cfg.Env,
		WillRunSQL:         plan.SQL,
		WillRunAutoMigrate: plan.Auto,
	}
	if !plan.SQL {
		return status, nil
	}

	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	status.PendingMigrations = lo.Reject(GetMigrations(), func(m Migration, _ int) bool {
		return lo.Contains(applied, m.Version)
	})
	return status, nil
}
