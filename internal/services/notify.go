// Package services holds the application logic between the HTTP layer and
// storage. Services validate input, enforce ownership and emit notifications
// and audit events; handlers stay thin.
package services

import (
	"context"
	"fmt"
	"time"

	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/storage"
)

// Notifier evaluates budgets after a spend and records in-app alerts. It runs
// after the expense is committed, so a notifier failure can never roll back
// or fail the write that triggered it.
type Notifier struct {
	repo          *storage.Repository
	clock         core.Clock
	warnThreshold float64
	dedup         bool
	logger        *log.Logger
}

// NewNotifier creates a notifier. warnThreshold is the fraction of a budget
// limit that spending must strictly exceed to trigger a warning; dedup
// suppresses repeated alerts for the same budget within its current period.
func NewNotifier(repo *storage.Repository, clock core.Clock, warnThreshold float64, dedup bool, logger *log.Logger) *Notifier {
	return &Notifier{
		repo:          repo,
		clock:         clock,
		warnThreshold: warnThreshold,
		dedup:         dedup,
		logger:        logger.WithComponent(log.ComponentNotify),
	}
}

// BudgetAlerts checks every budget covering an expense in the given category
// and records warning or exceeded notifications. Failures on one budget are
// logged and do not stop the others.
func (n *Notifier) BudgetAlerts(ctx context.Context, userID int64, categoryID *int64) error {
	budgets, err := n.repo.ListBudgetsCovering(ctx, userID, categoryID)
	if err != nil {
		return fmt.Errorf("list covering budgets: %w", err)
	}

	now := n.clock.Now()
	for _, b := range budgets {
		if err := n.evaluate(ctx, b, now); err != nil {
			n.logger.ErrorContext(ctx, "Budget alert evaluation failed",
				log.FieldBudgetID, b.ID,
				log.FieldUserID, userID,
				log.FieldError, err)
		}
	}
	return nil
}

func (n *Notifier) evaluate(ctx context.Context, b core.Budget, now time.Time) error {
	periodStart := b.Period.PeriodStart(now)
	spent, err := n.repo.SumExpenses(ctx, b.UserID, periodStart, now, b.CategoryID)
	if err != nil {
		return fmt.Errorf("sum period spend: %w", err)
	}

	status := b.Status(spent)
	var (
		kind  core.NotificationKind
		title string
		body  string
	)
	switch {
	case spent.Cents > b.Limit.Cents:
		kind = core.NotifyBudgetExceeded
		title = fmt.Sprintf("Budget %q exceeded", b.Name)
		body = fmt.Sprintf("You spent %.2f of your %.2f %s budget (%.0f%%).",
			spent.Float(), b.Limit.Float(), b.Period, status.PercentUsed)
	case float64(spent.Cents) > n.warnThreshold*float64(b.Limit.Cents):
		kind = core.NotifyBudgetWarning
		title = fmt.Sprintf("Budget %q almost used up", b.Name)
		body = fmt.Sprintf("You have used %.0f%% of your %.2f %s budget.",
			status.PercentUsed, b.Limit.Float(), b.Period)
	default:
		return nil
	}

	if n.dedup {
		seen, err := n.repo.HasRecentNotification(ctx, b.UserID, kind, b.ID, periodStart)
		if err != nil {
			return fmt.Errorf("dedup lookup: %w", err)
		}
		if seen {
			return nil
		}
	}

	if _, err := n.repo.CreateNotification(ctx, core.Notification{
		UserID:    b.UserID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		BudgetID:  &b.ID,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if kind == core.NotifyBudgetExceeded {
		if err := n.repo.CreateEvent(ctx, core.Event{
			UserID:      b.UserID,
			Kind:        core.EventBudgetExceeded,
			Description: fmt.Sprintf("budget %q exceeded at %.0f%%", b.Name, status.PercentUsed),
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("record exceeded event: %w", err)
		}
	}

	n.logger.InfoContext(ctx, "Budget alert recorded",
		log.FieldBudgetID, b.ID,
		log.FieldUserID, b.UserID,
		log.FieldNotifyKind, string(kind),
		log.FieldPercentUsed, status.PercentUsed)
	return nil
}
