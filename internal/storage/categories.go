package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hisab/internal/core"
)

// DefaultCategories are seeded for every new account.
var DefaultCategories = []core.Category{
	{Name: "Food & Dining", Icon: "🍽️", Color: "#f97316"},
	{Name: "Transport", Icon: "🚌", Color: "#3b82f6"},
	{Name: "Groceries", Icon: "🛒", Color: "#22c55e"},
	{Name: "Shopping", Icon: "🛍️", Color: "#a855f7"},
	{Name: "Bills & Utilities", Icon: "💡", Color: "#eab308"},
	{Name: "Entertainment", Icon: "🎬", Color: "#ec4899"},
	{Name: "Health", Icon: "🏥", Color: "#ef4444"},
	{Name: "Other", Icon: "📦", Color: "#6b7280"},
}

const categoryColumns = "id, user_id, name, icon, color, is_default, created_at"

// CreateCategory inserts a category. A duplicate name for the same user is
// reported as core.ErrConflict.
func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, icon, color, is_default, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, c.Icon, c.Color, c.IsDefault, utc(c.CreatedAt))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", translateErr(err))
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	return c, nil
}

// SeedDefaultCategories creates the starter set for a fresh account.
func (r *Repository) SeedDefaultCategories(ctx context.Context, userID int64, now time.Time) error {
	for _, c := range DefaultCategories {
		c.UserID = userID
		c.IsDefault = true
		c.CreatedAt = now
		if _, err := r.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return nil
}

// ListCategories returns the user's categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory fetches one category owned by the user.
func (r *Repository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id = ? AND user_id = ?", id, userID)
	return scanCategory(row)
}

// UpdateCategory stores the mutable fields of a category.
func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ? AND user_id = ?",
		c.Name, c.Icon, c.Color, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", translateErr(err))
	}
	return requireRow(res)
}

// DeleteCategory removes a category. Expenses that referenced it keep their
// rows with a null category via the schema's ON DELETE SET NULL.
func (r *Repository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM categories WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", translateErr(err))
	}
	return c, nil
}

// requireRow converts a zero-row update or delete into core.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
