package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Row position in inventory is the
// display order; saves rewrite it from scratch.
const schema = `
CREATE TABLE IF NOT EXISTS inventory (
    position      INTEGER PRIMARY KEY,
    category      TEXT NOT NULL DEFAULT '',
    item          TEXT NOT NULL,
    quantity      INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    reorder_level INTEGER NOT NULL DEFAULT 0 CHECK (reorder_level >= 0),
    unit_price    TEXT NOT NULL DEFAULT '0',
    supplier      TEXT NOT NULL DEFAULT '',
    last_updated  DATETIME
);

CREATE TABLE IF NOT EXISTS restock_log (
    id        INTEGER PRIMARY KEY,
    timestamp DATETIME NOT NULL,
    item      TEXT NOT NULL,
    quantity  INTEGER NOT NULL,
    user      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_restock_log_item ON restock_log(item)`,
	`CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires ON revoked_tokens(expires_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
