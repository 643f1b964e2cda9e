package storage

import (
	"context"
	"fmt"
	"time"

	"hisab/internal/core"
)

const goalColumns = "id, user_id, name, target_cents, current_cents, target_date, completed, created_at, updated_at"

// CreateGoal inserts a savings goal.
func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, target_cents, current_cents, target_date, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.Target.Cents, g.Current.Cents, nullableTime(g.TargetDate),
		g.Completed, utc(g.CreatedAt), utc(g.UpdatedAt))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", translateErr(err))
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal insert id: %w", err)
	}
	return g, nil
}

// GetGoal fetches one goal owned by the user.
func (r *Repository) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE id = ? AND user_id = ?", id, userID)
	return scanGoal(row)
}

// ListGoals returns all of the user's goals, oldest first.
func (r *Repository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoal stores the mutable fields of a goal.
func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_cents = ?, current_cents = ?, target_date = ?,
		 completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		g.Name, g.Target.Cents, g.Current.Cents, nullableTime(g.TargetDate),
		g.Completed, utc(g.UpdatedAt), g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", translateErr(err))
	}
	return requireRow(res)
}

// DeleteGoal removes one goal owned by the user.
func (r *Repository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM goals WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func scanGoal(row interface{ Scan(...any) error }) (core.Goal, error) {
	var g core.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents, &g.Current.Cents,
		&g.TargetDate, &g.Completed, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", translateErr(err))
	}
	return g, nil
}

// nullableTime binds an optional timestamp, normalized to UTC when present.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return utc(*t)
}
