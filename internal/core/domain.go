package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
)

const (
	SourceManual ExpenseSource = "manual"
	SourceVoice  ExpenseSource = "voice"
	SourceOCR    ExpenseSource = "ocr"
)

const (
	NotifyBudgetWarning  NotificationKind = "budget_warning"
	NotifyBudgetExceeded NotificationKind = "budget_exceeded"
	NotifyMonthlySummary NotificationKind = "monthly_summary"
	NotifyUnusualSpend   NotificationKind = "unusual_spending"
	NotifySystem         NotificationKind = "system"
)

const (
	EventUserRegistered EventKind = "user_registered"
	EventUserLogin      EventKind = "user_login"
	EventUserBanned     EventKind = "user_banned"
	EventUserUnbanned   EventKind = "user_unbanned"
	EventExpenseCreated EventKind = "expense_created"
	EventExpenseUpdated EventKind = "expense_updated"
	EventExpenseDeleted EventKind = "expense_deleted"
	EventBudgetCreated  EventKind = "budget_created"
	EventBudgetExceeded EventKind = "budget_exceeded"
	EventGoalCompleted  EventKind = "goal_completed"
)

type (
	BudgetPeriod     string
	ExpenseSource    string
	NotificationKind string
	EventKind        string

	User struct {
		ID           int64
		Email        string
		PasswordHash string
		FullName     string
		Currency     string
		IsAdmin      bool
		IsActive     bool
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Category struct {
		ID        int64
		UserID    int64
		Name      string
		Icon      string
		Color     string
		IsDefault bool
		CreatedAt time.Time
	}

	Expense struct {
		ID          int64
		UserID      int64
		CategoryID  *int64
		Amount      Money
		Description string
		Tags        string
		Source      ExpenseSource
		SpentAt     time.Time
		CreatedAt   time.Time
		UpdatedAt   time.Time

		// Denormalized for responses, never persisted.
		CategoryName string
	}

	Budget struct {
		ID         int64
		UserID     int64
		Name       string
		Limit      Money
		CategoryID *int64 // nil means the budget covers the whole account
		Period     BudgetPeriod
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// BudgetStatus carries the derived consumption figures for a budget.
	// These are recomputed on every read and never stored.
	BudgetStatus struct {
		Spent       Money
		Remaining   Money
		PercentUsed float64
	}

	Notification struct {
		ID        int64
		UserID    int64
		Kind      NotificationKind
		Title     string
		Body      string
		BudgetID  *int64 // set for budget alerts, used to suppress repeats
		IsRead    bool
		CreatedAt time.Time
	}

	Goal struct {
		ID         int64
		UserID     int64
		Name       string
		Target     Money
		Current    Money
		TargetDate *time.Time
		Completed  bool
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Event struct {
		ID          int64
		UserID      int64
		Kind        EventKind
		Description string
		Metadata    string // optional JSON blob
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPeriod    = errors.New("invalid budget period")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
)

// Valid reports whether p is one of the supported budget periods.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// AccountWide reports whether the budget covers all spending rather than a
// single category.
func (b Budget) AccountWide() bool {
	return b.CategoryID == nil
}

// Covers reports whether an expense with the given category falls inside the
// budget's scope.
func (b Budget) Covers(categoryID *int64) bool {
	if b.AccountWide() {
		return true
	}
	return categoryID != nil && *categoryID == *b.CategoryID
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	switch e.Source {
	case SourceManual, SourceVoice, SourceOCR:
	default:
		return errors.New("invalid expense source")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Target.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Status computes the derived consumption figures for a budget given the
// period spend. A zero or negative limit yields a zero percentage, never a
// division error.
func (b Budget) Status(spent Money) BudgetStatus {
	remaining := b.Limit.Cents - spent.Cents
	if remaining < 0 {
		remaining = 0
	}
	pct := 0.0
	if b.Limit.Cents > 0 {
		pct = float64(spent.Cents) / float64(b.Limit.Cents) * 100
	}
	return BudgetStatus{
		Spent:       spent,
		Remaining:   Money{Cents: remaining},
		PercentUsed: pct,
	}
}
