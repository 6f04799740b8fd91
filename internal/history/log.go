// Package history is a caller-side record of channel traffic. The channel
// client itself keeps no persisted state; this store observes the bus and
// writes what was delivered. It is a record, never a replay source.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Direction marks an entry as received from or sent to the backend.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

// Entry is one recorded frame.
type Entry struct {
	ID        int64
	Address   string
	Direction Direction
	// Envelope is the "type" field of a decoded JSON event envelope, empty
	// otherwise.
	Envelope string
	Payload  string
	Decoded  bool
	At       time.Time
}

type EntryRepo struct {
	db *sql.DB
}

func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

func (r *EntryRepo) Insert(ctx context.Context, e Entry) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entries(address, direction, envelope, payload, decoded, at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, e.Address, int(e.Direction), e.Envelope, e.Payload, boolToInt(e.Decoded), e.At.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get history entry id: %w", err)
	}

	return id, nil
}

// ListRecent returns the latest entries for an address in chronological
// order.
func (r *EntryRepo) ListRecent(ctx context.Context, address string, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, address, direction, envelope, payload, decoded, at
		FROM entries
		WHERE address = ?
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, address, limit)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			direction int
			decoded   int
			atMillis  int64
		)
		if err := rows.Scan(&e.ID, &e.Address, &direction, &e.Envelope, &e.Payload, &decoded, &atMillis); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Direction = Direction(direction)
		e.Decoded = decoded != 0
		e.At = time.UnixMilli(atMillis)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}

	return 0
}
