// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"studybud/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// likeEscape is the escape character declared in every LIKE clause built by likePattern.
const likeEscape = `ESCAPE '\'`

// likePattern builds a wildcard-escaped "contains" pattern for LIKE.
// Case folding happens in SQL so both operands go through the same LOWER.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// containsClause returns "LOWER(col) LIKE LOWER(?) ESCAPE '\'" for col.
func containsClause(col string) string {
	return "LOWER(" + col + ") LIKE LOWER(?) " + likeEscape
}

// translateError maps storage errors onto AppErrors.
func translateError(err error, resource string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case isUniqueConstraintError(err):
		return models.NewConflictError(resource + " already exists")
	default:
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// PostgreSQL unique violation SQLSTATE 23505
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "23505")
}
