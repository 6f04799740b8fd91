package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register sqlite driver
)

func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	address TEXT NOT NULL,
	direction INTEGER NOT NULL,
	envelope TEXT NOT NULL DEFAULT '',
	payload TEXT NOT NULL,
	decoded INTEGER NOT NULL DEFAULT 0,
	at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_address_at ON entries(address, at);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate history schema: %w", err)
	}

	return nil
}
