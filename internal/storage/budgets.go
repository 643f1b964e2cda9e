package storage

import (
	"context"
	"fmt"

	"hisab/internal/core"
)

const budgetColumns = "id, user_id, name, limit_cents, category_id, period, created_at, updated_at"

// CreateBudget inserts a budget row.
func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, name, limit_cents, category_id, period, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Name, b.Limit.Cents, b.CategoryID, string(b.Period), utc(b.CreatedAt), utc(b.UpdatedAt))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", translateErr(err))
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget insert id: %w", err)
	}
	return b, nil
}

// GetBudget fetches one budget owned by the user.
func (r *Repository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	return scanBudget(row)
}

// ListBudgets returns all of the user's budgets, oldest first.
func (r *Repository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBudgetsCovering returns the user's budgets whose scope includes an
// expense in the given category: account-wide budgets plus any budget pinned
// to that category.
func (r *Repository) ListBudgetsCovering(ctx context.Context, userID int64, categoryID *int64) ([]core.Budget, error) {
	query := "SELECT " + budgetColumns + " FROM budgets WHERE user_id = ? AND (category_id IS NULL"
	args := []any{userID}
	if categoryID != nil {
		query += " OR category_id = ?"
		args = append(args, *categoryID)
	}
	query += ") ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list covering budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBudget stores the mutable fields of a budget.
func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET name = ?, limit_cents = ?, category_id = ?, period = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		b.Name, b.Limit.Cents, b.CategoryID, string(b.Period), utc(b.UpdatedAt), b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", translateErr(err))
	}
	return requireRow(res)
}

// DeleteBudget removes one budget owned by the user.
func (r *Repository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	var period string
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Limit.Cents, &b.CategoryID, &period,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", translateErr(err))
	}
	b.Period = core.BudgetPeriod(period)
	return b, nil
}
