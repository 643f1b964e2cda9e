package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hisab/internal/core"
)

// ExpenseFilter narrows an expense listing. Zero values mean "no filter";
// Page and PageSize are normalized by the caller.
type ExpenseFilter struct {
	CategoryID *int64
	Start      *time.Time
	End        *time.Time
	Search     string
	Page       int
	PageSize   int
}

const expenseColumns = `e.id, e.user_id, e.category_id, e.amount_cents, e.description,
	e.tags, e.source, e.spent_at, e.created_at, e.updated_at, COALESCE(c.name, '')`

const expenseJoin = " FROM expenses e LEFT JOIN categories c ON c.id = e.category_id "

// CreateExpense inserts an expense row.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category_id, amount_cents, description, tags, source, spent_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.CategoryID, e.Amount.Cents, e.Description, e.Tags, string(e.Source),
		utc(e.SpentAt), utc(e.CreatedAt), utc(e.UpdatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", translateErr(err))
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	return e, nil
}

// GetExpense fetches one expense owned by the user.
func (r *Repository) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+expenseJoin+"WHERE e.id = ? AND e.user_id = ?", id, userID)
	return scanExpense(row)
}

// ListExpenses returns one page of the user's expenses, newest spend first,
// along with the total number of rows matching the filter.
func (r *Repository) ListExpenses(ctx context.Context, userID int64, f ExpenseFilter) ([]core.Expense, int64, error) {
	where, args := expenseWhere(userID, f)

	var total int64
	countQuery := "SELECT COUNT(*)" + expenseJoin + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	query := "SELECT " + expenseColumns + expenseJoin + where +
		" ORDER BY e.spent_at DESC, e.id DESC LIMIT ? OFFSET ?"
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// ListAllExpenses returns every expense of the user, newest spend first. Used
// for CSV export and spreadsheet sync.
func (r *Repository) ListAllExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+expenseColumns+expenseJoin+"WHERE e.user_id = ? ORDER BY e.spent_at DESC, e.id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list all expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateExpense stores the mutable fields of an expense.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET category_id = ?, amount_cents = ?, description = ?, tags = ?,
		 source = ?, spent_at = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		e.CategoryID, e.Amount.Cents, e.Description, e.Tags, string(e.Source),
		utc(e.SpentAt), utc(e.UpdatedAt), e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", translateErr(err))
	}
	return requireRow(res)
}

// DeleteExpense removes one expense owned by the user.
func (r *Repository) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// DeleteExpenses removes the given expenses in bulk and reports how many
// actually belonged to the user. IDs owned by others are silently skipped.
func (r *Repository) DeleteExpenses(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE user_id = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// SumExpenses totals the user's spending inside [start, end]. A non-nil
// categoryID restricts the sum to that category.
func (r *Repository) SumExpenses(ctx context.Context, userID int64, start, end time.Time, categoryID *int64) (core.Money, error) {
	query := "SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = ? AND spent_at >= ? AND spent_at <= ?"
	args := []any{userID, utc(start), utc(end)}
	if categoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *categoryID)
	}
	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// CountExpenses counts the user's expenses inside [start, end].
func (r *Repository) CountExpenses(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE user_id = ? AND spent_at >= ? AND spent_at <= ?",
		userID, utc(start), utc(end)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// CategoryTotal is one row of a per-category spending breakdown.
type CategoryTotal struct {
	CategoryID *int64
	Name       string
	Total      core.Money
}

// CategoryTotals breaks the user's spending in [start, end] down by category,
// largest total first. Uncategorized expenses appear under an empty name.
func (r *Repository) CategoryTotals(ctx context.Context, userID int64, start, end time.Time) ([]CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.category_id, COALESCE(c.name, ''), SUM(e.amount_cents)
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = ? AND e.spent_at >= ? AND e.spent_at <= ?
		GROUP BY e.category_id, c.name
		ORDER BY SUM(e.amount_cents) DESC`,
		userID, utc(start), utc(end))
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		if err := rows.Scan(&t.CategoryID, &t.Name, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DailyTotal is one day's spending, keyed by calendar date.
type DailyTotal struct {
	Day   string // YYYY-MM-DD
	Total core.Money
}

// DailyTotals returns per-day spending in [start, end], oldest day first.
// Days without expenses are absent.
func (r *Repository) DailyTotals(ctx context.Context, userID int64, start, end time.Time) ([]DailyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(spent_at, 1, 10) AS day, SUM(amount_cents)
		FROM expenses
		WHERE user_id = ? AND spent_at >= ? AND spent_at <= ?
		GROUP BY day
		ORDER BY day`,
		userID, utc(start), utc(end))
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	var out []DailyTotal
	for rows.Next() {
		var t DailyTotal
		if err := rows.Scan(&t.Day, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func expenseWhere(userID int64, f ExpenseFilter) (string, []any) {
	clauses := []string{"e.user_id = ?"}
	args := []any{userID}
	if f.CategoryID != nil {
		clauses = append(clauses, "e.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Start != nil {
		clauses = append(clauses, "e.spent_at >= ?")
		args = append(args, utc(*f.Start))
	}
	if f.End != nil {
		clauses = append(clauses, "e.spent_at <= ?")
		args = append(args, utc(*f.End))
	}
	if f.Search != "" {
		clauses = append(clauses, "(e.description LIKE ? OR e.tags LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	var source string
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Amount.Cents, &e.Description,
		&e.Tags, &source, &e.SpentAt, &e.CreatedAt, &e.UpdatedAt, &e.CategoryName)
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", translateErr(err))
	}
	e.Source = core.ExpenseSource(source)
	return e, nil
}
