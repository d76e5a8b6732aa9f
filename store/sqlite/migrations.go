package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fibernet/cablebill"
)

type migration struct {
	Version string
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: "20240101000001",
		Name:    "create_cablebill_areas",
		SQL: `
CREATE TABLE IF NOT EXISTS cablebill_areas (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL DEFAULT '',
    connection_number TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cablebill_areas_name ON cablebill_areas (name);
`,
	},
	{
		Version: "20240101000002",
		Name:    "create_cablebill_customers",
		SQL: `
CREATE TABLE IF NOT EXISTS cablebill_customers (
    id                TEXT PRIMARY KEY,
    area_id           TEXT NOT NULL DEFAULT '',
    name              TEXT NOT NULL DEFAULT '',
    connection_number TEXT NOT NULL DEFAULT '',
    father_name       TEXT NOT NULL DEFAULT '',
    cnic              TEXT NOT NULL DEFAULT '',
    phone             TEXT NOT NULL DEFAULT '',
    address           TEXT NOT NULL DEFAULT '',
    router_no         TEXT NOT NULL DEFAULT '',
    monthly_fee       TEXT NOT NULL DEFAULT '0',
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_cablebill_customers_conn ON cablebill_customers (connection_number);
CREATE INDEX IF NOT EXISTS idx_cablebill_customers_area ON cablebill_customers (area_id);
CREATE INDEX IF NOT EXISTS idx_cablebill_customers_name ON cablebill_customers (name);
`,
	},
	{
		Version: "20240101000003",
		Name:    "create_cablebill_payments",
		SQL: `
CREATE TABLE IF NOT EXISTS cablebill_payments (
    id            TEXT PRIMARY KEY,
    area_id       TEXT NOT NULL DEFAULT '',
    customer_id   TEXT NOT NULL DEFAULT '',
    customer_name TEXT NOT NULL DEFAULT '',
    month         TEXT NOT NULL DEFAULT '',
    amount        TEXT NOT NULL DEFAULT '0',
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cablebill_payments_customer ON cablebill_payments (customer_id);
CREATE INDEX IF NOT EXISTS idx_cablebill_payments_area ON cablebill_payments (area_id);
CREATE INDEX IF NOT EXISTS idx_cablebill_payments_month ON cablebill_payments (month);
`,
	},
	{
		Version: "20240101000004",
		Name:    "create_cablebill_users",
		SQL: `
CREATE TABLE IF NOT EXISTS cablebill_users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL DEFAULT '',
    password_hash BLOB NOT NULL,
    role          TEXT NOT NULL DEFAULT 'operator',
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_cablebill_users_username ON cablebill_users (username);
`,
	},
}

// runMigrations applies pending migrations in order, tracked in
// cablebill_migrations by version.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS cablebill_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	if err != nil {
		return fmt.Errorf("sqlite: migration table: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cablebill_migrations WHERE version = ?)`,
			m.Version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: migration %s: %w", m.Version, err)
		}
		if exists {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: migration %s: %v", cablebill.ErrTransactionFailed, m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback on failed migration
			return fmt.Errorf("sqlite: migration %s (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cablebill_migrations (version, name) VALUES (?, ?)`,
			m.Version, m.Name,
		); err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback on failed migration
			return fmt.Errorf("sqlite: migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: migration %s: %v", cablebill.ErrTransactionFailed, m.Version, err)
		}
	}

	return nil
}
