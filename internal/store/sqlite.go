package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/db"
	"github.com/erazemk/stockroom/internal/model"
)

// SQLite keeps the inventory and restock log in a SQLite database. Saves
// still replace the whole table, inside a single transaction.
type SQLite struct {
	db     *sql.DB
	schema model.Schema
}

// NewSQLite wraps an open database whose schema is already ensured.
func NewSQLite(database *sql.DB, schema model.Schema) *SQLite {
	return &SQLite{db: database, schema: schema}
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, schema model.Schema) (*SQLite, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, storeErr("open database", err)
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, storeErr("open database", err)
	}
	return NewSQLite(database, schema), nil
}

// Load returns the inventory in stored order.
func (s *SQLite) Load(ctx context.Context) (model.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, item, quantity, reorder_level, unit_price, supplier, last_updated
		 FROM inventory ORDER BY position`,
	)
	if err != nil {
		return nil, storeErr("load inventory", err)
	}
	defer rows.Close()

	table := model.Table{}
	for rows.Next() {
		var r model.Record
		var price string
		var updated sql.NullTime
		if err := rows.Scan(&r.Category, &r.Item, &r.Quantity, &r.ReorderLevel, &price, &r.Supplier, &updated); err != nil {
			return nil, storeErr("load inventory", fmt.Errorf("scanning record: %w", err))
		}
		if r.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, storeErr("load inventory", fmt.Errorf("item %q unit price: %w", r.Item, err))
		}
		if updated.Valid {
			r.LastUpdated = updated.Time.Local()
		}
		table = append(table, s.schema.Apply(r))
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("load inventory", err)
	}
	return table, nil
}

// Save replaces every inventory row with t.
func (s *SQLite) Save(ctx context.Context, t model.Table) error {
	return storeErr("save inventory", s.replace(ctx, `DELETE FROM inventory`, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO inventory (position, category, item, quantity, reorder_level, unit_price, supplier, last_updated)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i, r := range t {
			r = s.schema.Apply(r)
			if _, err := stmt.ExecContext(ctx, i+1, r.Category, r.Item, r.Quantity, r.ReorderLevel,
				r.UnitPrice.String(), r.Supplier, nullTime(r.LastUpdated)); err != nil {
				return fmt.Errorf("inserting %q: %w", r.Item, err)
			}
		}
		return nil
	}))
}

// LoadLog returns the restock log in append order.
func (s *SQLite) LoadLog(ctx context.Context) ([]model.RestockEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, item, quantity, user FROM restock_log ORDER BY id`,
	)
	if err != nil {
		return nil, storeErr("load restock log", err)
	}
	defer rows.Close()

	var log []model.RestockEntry
	for rows.Next() {
		var e model.RestockEntry
		if err := rows.Scan(&e.Timestamp, &e.Item, &e.Quantity, &e.User); err != nil {
			return nil, storeErr("load restock log", fmt.Errorf("scanning entry: %w", err))
		}
		e.Timestamp = e.Timestamp.Local()
		log = append(log, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("load restock log", err)
	}
	return log, nil
}

// SaveLog replaces the restock log with log.
func (s *SQLite) SaveLog(ctx context.Context, log []model.RestockEntry) error {
	return storeErr("save restock log", s.replace(ctx, `DELETE FROM restock_log`, func(tx *sql.Tx) error {
		for _, e := range log {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO restock_log (timestamp, item, quantity, user) VALUES (?, ?, ?, ?)`,
				e.Timestamp, e.Item, e.Quantity, e.User,
			); err != nil {
				return fmt.Errorf("inserting entry for %q: %w", e.Item, err)
			}
		}
		return nil
	}))
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) replace(ctx context.Context, clear string, fill func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, clear); err != nil {
		return fmt.Errorf("clearing table: %w", err)
	}
	if err := fill(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
