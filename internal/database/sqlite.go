package database

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriverName is the database/sql driver registered with a Unicode-aware LOWER.
const SQLiteDriverName = "sqlite3_studybud"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", foldCase, true)
		},
	})
}

// foldCase replaces SQLite's ASCII-only LOWER so text search folds case the
// same way PostgreSQL does.
func foldCase(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// SQLiteDialector opens dsn through the registered driver.
func SQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriverName, DSN: dsn})
}
