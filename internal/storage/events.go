package storage

import (
	"context"
	"fmt"

	"hisab/internal/core"
)

// CreateEvent appends a row to the audit trail. Events are write-once and
// never updated.
func (r *Repository) CreateEvent(ctx context.Context, e core.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (user_id, kind, description, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.UserID, string(e.Kind), e.Description, e.Metadata, utc(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns the most recent audit events across all users, newest
// first. Admin only.
func (r *Repository) ListEvents(ctx context.Context, limit int) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, description, metadata, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		var e core.Event
		var kind string
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &e.Description, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = core.EventKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
