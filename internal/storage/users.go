package storage

import (
	"context"
	"fmt"
	"time"

	"hisab/internal/core"
)

const userColumns = "id, email, password_hash, full_name, currency, is_admin, is_active, created_at, updated_at"

// CreateUser inserts a new user. A duplicate email is reported as
// core.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, currency, is_admin, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.FullName, u.Currency, u.IsAdmin, u.IsActive, utc(u.CreatedAt), utc(u.UpdatedAt))
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", translateErr(err))
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// GetUserByID looks a user up by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// UpdateUserProfile stores the mutable profile fields.
func (r *Repository) UpdateUserProfile(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET full_name = ?, currency = ?, updated_at = ? WHERE id = ?",
		u.FullName, u.Currency, utc(u.UpdatedAt), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

// SetUserActive bans or unbans a user.
func (r *Repository) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return requireRow(res)
}

// UserStats summarizes one user for the admin listing.
type UserStats struct {
	User         core.User
	ExpenseCount int64
	TotalSpent   core.Money
}

// ListUsersWithStats returns every user with expense aggregates, newest first.
func (r *Repository) ListUsersWithStats(ctx context.Context) ([]UserStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.currency, u.is_admin, u.is_active,
		       u.created_at, u.updated_at,
		       COUNT(e.id), COALESCE(SUM(e.amount_cents), 0)
		FROM users u
		LEFT JOIN expenses e ON e.user_id = u.id
		GROUP BY u.id
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []UserStats
	for rows.Next() {
		var s UserStats
		if err := rows.Scan(&s.User.ID, &s.User.Email, &s.User.PasswordHash, &s.User.FullName,
			&s.User.Currency, &s.User.IsAdmin, &s.User.IsActive,
			&s.User.CreatedAt, &s.User.UpdatedAt,
			&s.ExpenseCount, &s.TotalSpent.Cents); err != nil {
			return nil, fmt.Errorf("scan user stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SystemStats aggregates platform-wide counters for the admin dashboard.
type SystemStats struct {
	TotalUsers    int64
	ActiveUsers   int64
	TotalExpenses int64
	TotalAmount   core.Money
}

// GetSystemStats computes the platform-wide aggregates.
func (r *Repository) GetSystemStats(ctx context.Context) (SystemStats, error) {
	var s SystemStats
	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM users),
		       (SELECT COUNT(*) FROM users WHERE is_active = 1),
		       (SELECT COUNT(*) FROM expenses),
		       (SELECT COALESCE(SUM(amount_cents), 0) FROM expenses)`).
		Scan(&s.TotalUsers, &s.ActiveUsers, &s.TotalExpenses, &s.TotalAmount.Cents)
	if err != nil {
		return SystemStats{}, fmt.Errorf("system stats: %w", err)
	}
	return s, nil
}

// CountUsersCreatedBetween counts signups in [start, end).
func (r *Repository) CountUsersCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE created_at >= ? AND created_at < ?",
		utc(start), utc(end)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count signups: %w", err)
	}
	return n, nil
}

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Currency,
		&u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", translateErr(err))
	}
	return u, nil
}
