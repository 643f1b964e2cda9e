package services

import (
	"context"
	"errors"
	"fmt"

	"hisab/internal/core"
	"hisab/internal/storage"
)

// BudgetService owns budget CRUD and on-demand status evaluation. Status is
// always derived from the current period's expenses, never stored.
type BudgetService struct {
	repo  *storage.Repository
	clock core.Clock
}

func NewBudgetService(repo *storage.Repository, clock core.Clock) *BudgetService {
	return &BudgetService{repo: repo, clock: clock}
}

// BudgetWithStatus pairs a budget with its derived consumption figures.
type BudgetWithStatus struct {
	core.Budget
	Status core.BudgetStatus
}

// Create validates and stores a budget.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (BudgetWithStatus, error) {
	if err := b.Validate(); err != nil {
		return BudgetWithStatus{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	if b.Limit.Cents <= 0 {
		return BudgetWithStatus{}, fmt.Errorf("%w: %s", core.ErrValidation, core.ErrInvalidAmount)
	}
	if err := s.checkCategory(ctx, b.UserID, b.CategoryID); err != nil {
		return BudgetWithStatus{}, err
	}

	now := s.clock.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	created, err := s.repo.CreateBudget(ctx, b)
	if err != nil {
		return BudgetWithStatus{}, fmt.Errorf("create budget: %w", err)
	}

	if err := s.repo.CreateEvent(ctx, core.Event{
		UserID:      b.UserID,
		Kind:        core.EventBudgetCreated,
		Description: fmt.Sprintf("budget %q (%s)", b.Name, b.Period),
		CreatedAt:   now,
	}); err != nil {
		return BudgetWithStatus{}, fmt.Errorf("record budget event: %w", err)
	}

	return s.withStatus(ctx, created)
}

// Get returns one budget with its current status.
func (s *BudgetService) Get(ctx context.Context, userID, id int64) (BudgetWithStatus, error) {
	b, err := s.repo.GetBudget(ctx, userID, id)
	if err != nil {
		return BudgetWithStatus{}, err
	}
	return s.withStatus(ctx, b)
}

// List returns all budgets of the user, each with its current status.
func (s *BudgetService) List(ctx context.Context, userID int64) ([]BudgetWithStatus, error) {
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]BudgetWithStatus, 0, len(budgets))
	for _, b := range budgets {
		ws, err := s.withStatus(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, nil
}

// Update validates and stores budget changes.
func (s *BudgetService) Update(ctx context.Context, b core.Budget) (BudgetWithStatus, error) {
	if err := b.Validate(); err != nil {
		return BudgetWithStatus{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	if b.Limit.Cents <= 0 {
		return BudgetWithStatus{}, fmt.Errorf("%w: %s", core.ErrValidation, core.ErrInvalidAmount)
	}
	if err := s.checkCategory(ctx, b.UserID, b.CategoryID); err != nil {
		return BudgetWithStatus{}, err
	}

	b.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateBudget(ctx, b); err != nil {
		return BudgetWithStatus{}, err
	}
	stored, err := s.repo.GetBudget(ctx, b.UserID, b.ID)
	if err != nil {
		return BudgetWithStatus{}, err
	}
	return s.withStatus(ctx, stored)
}

// Delete removes a budget.
func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteBudget(ctx, userID, id)
}

func (s *BudgetService) withStatus(ctx context.Context, b core.Budget) (BudgetWithStatus, error) {
	now := s.clock.Now()
	spent, err := s.repo.SumExpenses(ctx, b.UserID, b.Period.PeriodStart(now), now, b.CategoryID)
	if err != nil {
		return BudgetWithStatus{}, fmt.Errorf("sum period spend: %w", err)
	}
	return BudgetWithStatus{Budget: b, Status: b.Status(spent)}, nil
}

func (s *BudgetService) checkCategory(ctx context.Context, userID int64, categoryID *int64) error {
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
