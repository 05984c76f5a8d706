package storage

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

// sqliteLower folds case with Unicode rules. The built-in LOWER only folds
// ASCII letters, so "Électronique" would never match "électron".
const sqliteLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteLower, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		price       INTEGER NOT NULL CHECK (price >= 0),
		order_date  DATE    NOT NULL,
		category    TEXT    NOT NULL DEFAULT '',
		shelf       TEXT    NOT NULL,
		quantity    INTEGER NOT NULL CHECK (quantity >= 0),
		description TEXT    NOT NULL DEFAULT '',
		version     INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)`,
}

// OpenSQLite opens (or creates) a SQLite database at path and ensures the
// products table exists. ":memory:" is pinned to one connection since each
// connection would otherwise see its own empty database.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return db, nil
}
