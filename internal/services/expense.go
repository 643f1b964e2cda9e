package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/storage"
)

// ExpenseService owns the expense lifecycle. Budget alerts run strictly
// after the expense row is committed.
type ExpenseService struct {
	repo     *storage.Repository
	notifier *Notifier
	clock    core.Clock
	logger   *log.Logger
}

func NewExpenseService(repo *storage.Repository, notifier *Notifier, clock core.Clock, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		repo:     repo,
		notifier: notifier,
		clock:    clock,
		logger:   logger.WithComponent(log.ComponentBudget),
	}
}

// Create validates and stores a new expense, then evaluates budgets. An
// alerting failure is logged, never surfaced to the caller.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Source == "" {
		e.Source = core.SourceManual
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	if err := s.checkCategory(ctx, e.UserID, e.CategoryID); err != nil {
		return core.Expense{}, err
	}

	now := s.clock.Now()
	if e.SpentAt.IsZero() {
		e.SpentAt = now
	}
	e.CreatedAt, e.UpdatedAt = now, now

	created, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.afterCreate(ctx, created)
	return s.repo.GetExpense(ctx, created.UserID, created.ID)
}

// Get fetches one expense owned by the user.
func (s *ExpenseService) Get(ctx context.Context, userID, id int64) (core.Expense, error) {
	return s.repo.GetExpense(ctx, userID, id)
}

// List returns one page of expenses with the total match count. Page and
// PageSize are clamped to sane bounds.
func (s *ExpenseService) List(ctx context.Context, userID int64, f storage.ExpenseFilter) ([]core.Expense, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return s.repo.ListExpenses(ctx, userID, f)
}

// Update validates and stores changed fields. Budget alerts fire on creation
// only, so an update never notifies.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	if err := s.checkCategory(ctx, e.UserID, e.CategoryID); err != nil {
		return core.Expense{}, err
	}

	e.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}

	s.recordEvent(ctx, e.UserID, core.EventExpenseUpdated,
		fmt.Sprintf("expense %d (%d cents)", e.ID, e.Amount.Cents))
	return s.repo.GetExpense(ctx, e.UserID, e.ID)
}

// Delete removes one expense.
func (s *ExpenseService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}
	s.recordEvent(ctx, userID, core.EventExpenseDeleted, fmt.Sprintf("expense %d deleted", id))
	return nil
}

// BulkDelete removes the given expenses and reports how many were the
// caller's to delete.
func (s *ExpenseService) BulkDelete(ctx context.Context, userID int64, ids []int64) (int64, error) {
	n, err := s.repo.DeleteExpenses(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.recordEvent(ctx, userID, core.EventExpenseDeleted, fmt.Sprintf("%d expenses deleted in bulk", n))
	}
	return n, nil
}

// ExportCSV streams the user's full expense history, newest first.
func (s *ExpenseService) ExportCSV(ctx context.Context, userID int64, w io.Writer) error {
	expenses, err := s.repo.ListAllExpenses(ctx, userID)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Description", "Amount", "Category", "Tags", "Source"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range expenses {
		name := e.CategoryName
		if name == "" {
			name = "Uncategorized"
		}
		record := []string{
			e.SpentAt.Format("2006-01-02"),
			e.Description,
			strconv.FormatFloat(e.Amount.Float(), 'f', 2, 64),
			name,
			e.Tags,
			string(e.Source),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// checkCategory rejects an expense that points at a category the user does
// not own. A nil category is always fine.
func (s *ExpenseService) checkCategory(ctx context.Context, userID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.repo.GetCategory(ctx, userID, *categoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: unknown category %d", core.ErrValidation, *categoryID)
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

func (s *ExpenseService) afterCreate(ctx context.Context, e core.Expense) {
	if err := s.notifier.BudgetAlerts(ctx, e.UserID, e.CategoryID); err != nil {
		s.logger.ErrorContext(ctx, "Budget alerting failed after expense commit",
			log.FieldExpenseID, e.ID,
			log.FieldUserID, e.UserID,
			log.FieldError, err)
	}
	s.recordEvent(ctx, e.UserID, core.EventExpenseCreated,
		fmt.Sprintf("expense %d (%d cents)", e.ID, e.Amount.Cents))
}

func (s *ExpenseService) recordEvent(ctx context.Context, userID int64, kind core.EventKind, desc string) {
	if err := s.repo.CreateEvent(ctx, core.Event{
		UserID:      userID,
		Kind:        kind,
		Description: desc,
		CreatedAt:   s.clock.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Audit event write failed",
			log.FieldUserID, userID,
			log.FieldError, err)
	}
}
