package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"studybud/internal/middleware"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// SchemaVersion records one applied SQL migration.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaVersion) TableName() string { return "schema_versions" }

const createSchemaVersionsSQL = `CREATE TABLE IF NOT EXISTS schema_versions (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// AppliedVersions lists recorded migration versions in ascending order.
// A database that has never been migrated reports none.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	var versions []int
	err := db.WithContext(ctx).Model(&SchemaVersion{}).Order("version ASC").Pluck("version", &versions).Error
	switch {
	case err == nil:
		return versions, nil
	case missingTable(err):
		return []int{}, nil
	default:
		return nil, fmt.Errorf("read schema versions: %w", err)
	}
}

func missingTable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}

// unknownVersions returns applied versions that no embedded migration declares.
func unknownVersions(applied []int, registered []Migration) []int {
	known := lo.Map(registered, func(m Migration, _ int) int { return m.Version })
	return lo.Without(applied, known...)
}

// RunMigrations applies every embedded migration not yet recorded, each in its own transaction.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.Exec(createSchemaVersionsSQL).Error; err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return err
	}
	if unknown := unknownVersions(applied, migrations); len(unknown) > 0 {
		labels := lo.Map(unknown, func(v int, _ int) string { return fmt.Sprintf("%06d", v) })
		return fmt.Errorf("schema_versions lists versions this build does not know: %s", strings.Join(labels, ", "))
	}

	for _, m := range migrations {
		if lo.Contains(applied, m.Version) {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaVersion{Version: m.Version, Name: m.Name}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.String(), err)
		}
		middleware.Logger.Info("migration applied", slog.String("migration", m.String()))
	}
	return nil
}

// RollbackMigration runs the down script of an applied migration and forgets it.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return err
	}
	if !lo.Contains(applied, version) {
		return fmt.Errorf("migration %s has not been applied", m.String())
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", version).Delete(&SchemaVersion{}).Error
	})
	if err != nil {
		return fmt.Errorf("roll back %s: %w", m.String(), err)
	}
	middleware.Logger.Info("migration rolled back", slog.String("migration", m.String()))
	return nil
}
