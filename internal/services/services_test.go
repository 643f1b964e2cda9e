package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hisab/internal/auth"
	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/storage"
)

var testTime = time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC)

type testEnv struct {
	repo  *storage.Repository
	clock core.Clock
	user  core.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(context.Background(), core.User{
		Email: "user@example.com", PasswordHash: "x", Currency: "INR",
		IsActive: true, CreatedAt: testTime, UpdatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	return &testEnv{repo: repo, clock: core.FixedClock(testTime), user: user}
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError + 4})})
}

func (e *testEnv) expenseService(t *testing.T, dedup bool) *ExpenseService {
	t.Helper()
	notifier := NewNotifier(e.repo, e.clock, 0.9, dedup, quietLogger())
	return NewExpenseService(e.repo, notifier, e.clock, quietLogger())
}

func (e *testEnv) category(t *testing.T, name string) core.Category {
	t.Helper()
	c, err := e.repo.CreateCategory(context.Background(), core.Category{
		UserID: e.user.ID, Name: name, CreatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func (e *testEnv) budget(t *testing.T, name string, limitCents int64, categoryID *int64, period core.BudgetPeriod) core.Budget {
	t.Helper()
	b, err := e.repo.CreateBudget(context.Background(), core.Budget{
		UserID: e.user.ID, Name: name, Limit: core.Money{Cents: limitCents},
		CategoryID: categoryID, Period: period, CreatedAt: testTime, UpdatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	return b
}

func (e *testEnv) notifications(t *testing.T) []core.Notification {
	t.Helper()
	out, err := e.repo.ListNotifications(context.Background(), e.user.ID, 50)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return out
}

func countKind(notifications []core.Notification, kind core.NotificationKind) int {
	n := 0
	for _, notif := range notifications {
		if notif.Kind == kind {
			n++
		}
	}
	return n
}

func TestExpenseCreateTriggersBudgetWarning(t *testing.T) {
	env := newTestEnv(t)
	svc := env.expenseService(t, false)
	env.budget(t, "monthly", 10000, nil, core.PeriodMonthly)

	_, err := svc.Create(context.Background(), core.Expense{
		UserID: env.user.ID, Amount: core.Money{Cents: 9500}, Description: "rent share",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	notifs := env.notifications(t)
	if got := countKind(notifs, core.NotifyBudgetWarning); got != 1 {
		t.Errorf("warning notifications = %d, want 1", got)
	}
	if got := countKind(notifs, core.NotifyBudgetExceeded); got != 0 {
		t.Errorf("exceeded notifications = %d, want 0", got)
	}
}

func TestBudgetWarningRequiresStrictlyOverThreshold(t *testing.T) {
	env := newTestEnv(t)
	svc := env.expenseService(t, false)
	env.budget(t, "monthly", 10000, nil, core.PeriodMonthly)

	// Exactly at the threshold: no alert.
	if _, err := svc.Create(context.Background(), core.Expense{
		UserID: env.user.ID, Amount: core.Money{Cents: 9000}, Description: "spend",
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := len(env.notifications(t)); got != 0 {
		t.Errorf("notifications = %d, want 0 at exactly 90%%", got)
	}

	// One more cent crosses it.
	if _, err := svc.Create(context.Background(), core.Expense{
		UserID: env.user.ID, Amount: core.Money{Cents: 1}, Description: "spend",
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := countKind(env.notifications(t), core.NotifyBudgetWarning); got != 1 {
		t.Errorf("warnings = %d, want 1 just over the threshold", got)
	}
}

func TestExpenseUpdateDoesNotTriggerAlerts(t *testing.T) {
	env := newTestEnv(t)
	svc := env.expenseService(t, false)
	env.budget(t, "monthly", 100000, nil, core.PeriodMonthly)

	created, err := svc.Create(context.Background(), core.Expense{
		UserID: env.user.ID, Amount: core.Money{Cents: 1000}, Description: "small",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := len(env.notifications(t)); got != 0 {
		t.Fatalf("notifications after create = %d, want 0", got)
	}

	created.Amount = core.Money{Cents: 95000}
	if _, err := svc.Update(context.Background(), created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := len(env.notifications(t)); got != 0 {
		t.Errorf("notifications after update = %d, want 0; alerts fire on create only", got)
	}
}

func TestExpenseCreateTriggersBudgetExceeded(t *testing.T) {
	env := newTestEnv(t)
	svc := env.expenseService(t, false)
	env.budget(t, "monthly", 10000, nil, core.PeriodMonthly)

	for _, cents := range []int64{6000, 5000} {
		if _, err := svc.Create(context.Background(), core.Expense{
			UserID: env.user.ID, Amount: core.Money{Cents: cents}, Description: "spend",
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if got := countKind(env.notifications(t), core.NotifyBudgetExceeded); got != 1 {
		t.Errorf("exceeded notifications = %d, want 1", got)
	}

	// The overage is recorded in the audit trail as well.
	events, err := env.repo.ListEvents(context.Background(), 100)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	found := false
	for _, ev := range events {
		if ev.Kind == core.EventBudgetExceeded {
			found = true
		}
	}
	if !found {
		t.Error("expected a budget_exceeded audit event")
	}
}

func TestBudgetAlertDedup(t *testing.T) {
	t.Run("dedup on suppresses repeats in the same period", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.expenseService(t, true)
		env.budget(t, "monthly", 10000, nil, core.PeriodMonthly)

		for i := 0; i < 2; i++ {
			if _, err := svc.Create(context.Background(), core.Expense{
				UserID: env.user.ID, Amount: core.Money{Cents: 9500}, Description: "spend",
			}); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
		}
		// First spend warns; second pushes over the limit but the exceeded
		// alert is fresh, so only the repeated warning kind is suppressed.
		notifs := env.notifications(t)
		if got := countKind(notifs, core.NotifyBudgetWarning); got != 1 {
			t.Errorf("warnings = %d, want 1", got)
		}
	})

	t.Run("dedup off records every alert", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.expenseService(t, false)
		env.budget(t, "monthly", 100000, nil, core.PeriodMonthly)

		// 91% then 92%: both land in the warning band without exceeding.
		for _, cents := range []int64{91000, 1000} {
			if _, err := svc.Create(context.Background(), core.Expense{
				UserID: env.user.ID, Amount: core.Money{Cents: cents}, Description: "spend",
			}); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
		}
		if got := countKind(env.notifications(t), core.NotifyBudgetWarning); got != 2 {
			t.Errorf("warnings = %d, want 2", got)
		}
	})
}

func TestCategoryBudgetIgnoresOtherCategories(t *testing.T) {
	env := newTestEnv(t)
	svc := env.expenseService(t, false)
	food := env.category(t, "Food")
	env.budget(t, "food", 10000, &food.ID, core.PeriodMonthly)

	// A large uncategorized spend must not touch the food budget.
	if _, err := svc.Create(context.Background(), core.Expense{
		UserID: env.user.ID, Amount: core.Money{Cents: 50000}, Description: "rent",
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := len(env.notifications(t)); got != 0 {
		t.Errorf("notifications = %d, want 0", got)
	}

	if _, err := svc.Create(context.Background(), core.Expense{
		UserID: env.user.ID, CategoryID: &food.ID,
		Amount: core.Money{Cents: 9800}, Description: "groceries",
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := countKind(env.notifications(t), core.NotifyBudgetWarning); got != 1 {
		t.Errorf("warnings = %d, want 1", got)
	}
}

func TestExpenseCreateRejectsForeignCategory(t *testing.T) {
	env := newTestEnv(t)
	svc := env.expenseService(t, false)

	other, err := env.repo.CreateUser(context.Background(), core.User{
		Email: "other@example.com", PasswordHash: "x", IsActive: true,
		CreatedAt: testTime, UpdatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	foreign, err := env.repo.CreateCategory(context.Background(), core.Category{
		UserID: other.ID, Name: "Theirs", CreatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	_, err = svc.Create(context.Background(), core.Expense{
		UserID: env.user.ID, CategoryID: &foreign.ID,
		Amount: core.Money{Cents: 100}, Description: "x",
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestExpenseExportCSV(t *testing.T) {
	env := newTestEnv(t)
	svc := env.expenseService(t, false)
	food := env.category(t, "Food")

	for i, cents := range []int64{1250, 300} {
		var catID *int64
		if i == 0 {
			catID = &food.ID
		}
		if _, err := svc.Create(context.Background(), core.Expense{
			UserID: env.user.ID, CategoryID: catID,
			Amount: core.Money{Cents: cents}, Description: "item",
			SpentAt: testTime.AddDate(0, 0, -i),
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), env.user.ID, &buf); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Date,Description,Amount,Category") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "12.50") || !strings.Contains(lines[1], "Food") {
		t.Errorf("newest row = %q, want the 12.50 Food expense first", lines[1])
	}
	if !strings.Contains(lines[2], "Uncategorized") {
		t.Errorf("row = %q, want Uncategorized fallback", lines[2])
	}
}

func TestBulkDeleteReportsOwnedCount(t *testing.T) {
	env := newTestEnv(t)
	svc := env.expenseService(t, false)

	var ids []int64
	for i := 0; i < 3; i++ {
		e, err := svc.Create(context.Background(), core.Expense{
			UserID: env.user.ID, Amount: core.Money{Cents: 100}, Description: "x",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, e.ID)
	}

	n, err := svc.BulkDelete(context.Background(), env.user.ID, append(ids, 9999))
	if err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
}

func TestBudgetServiceStatus(t *testing.T) {
	env := newTestEnv(t)
	expenses := env.expenseService(t, false)
	budgets := NewBudgetService(env.repo, env.clock)

	created, err := budgets.Create(context.Background(), core.Budget{
		UserID: env.user.ID, Name: "monthly", Limit: core.Money{Cents: 10000},
		Period: core.PeriodMonthly,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := expenses.Create(context.Background(), core.Expense{
		UserID: env.user.ID, Amount: core.Money{Cents: 2500}, Description: "x",
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	got, err := budgets.Get(context.Background(), env.user.ID, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status.Spent.Cents != 2500 {
		t.Errorf("Spent = %d, want 2500", got.Status.Spent.Cents)
	}
	if got.Status.Remaining.Cents != 7500 {
		t.Errorf("Remaining = %d, want 7500", got.Status.Remaining.Cents)
	}
	if got.Status.PercentUsed != 25 {
		t.Errorf("PercentUsed = %v, want 25", got.Status.PercentUsed)
	}
}

func TestBudgetServiceRejectsInvalid(t *testing.T) {
	env := newTestEnv(t)
	budgets := NewBudgetService(env.repo, env.clock)

	tests := []struct {
		name   string
		budget core.Budget
	}{
		{"zero limit", core.Budget{UserID: env.user.ID, Name: "b", Period: core.PeriodDaily}},
		{"bad period", core.Budget{UserID: env.user.ID, Name: "b", Limit: core.Money{Cents: 100}, Period: "yearly"}},
		{"empty name", core.Budget{UserID: env.user.ID, Limit: core.Money{Cents: 100}, Period: core.PeriodDaily}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := budgets.Create(context.Background(), tt.budget); !errors.Is(err, core.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func seedExpense(t *testing.T, env *testEnv, cents int64, spentAt time.Time, categoryID *int64) {
	t.Helper()
	_, err := env.repo.CreateExpense(context.Background(), core.Expense{
		UserID: env.user.ID, CategoryID: categoryID, Amount: core.Money{Cents: cents},
		Description: "seed", Source: core.SourceManual,
		SpentAt: spentAt, CreatedAt: spentAt, UpdatedAt: spentAt,
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
}

func TestSummarizeBreakdownPercentages(t *testing.T) {
	env := newTestEnv(t)
	analytics := NewAnalyticsService(env.repo, env.clock)
	food := env.category(t, "Food")
	travel := env.category(t, "Travel")

	seedExpense(t, env, 7500, testTime, &food.ID)
	seedExpense(t, env, 2500, testTime, &travel.ID)

	s, err := analytics.Summarize(context.Background(), env.user.ID, core.PeriodMonthly, nil, nil)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Total.Cents != 10000 || s.Count != 2 {
		t.Errorf("total = %d count = %d, want 10000 and 2", s.Total.Cents, s.Count)
	}
	if len(s.Breakdown) != 2 {
		t.Fatalf("breakdown size = %d, want 2", len(s.Breakdown))
	}
	if s.Breakdown[0].Name != "Food" || s.Breakdown[0].Percentage != 75 {
		t.Errorf("breakdown[0] = %+v, want Food at 75%%", s.Breakdown[0])
	}
	if s.Breakdown[1].Percentage != 25 {
		t.Errorf("breakdown[1] pct = %v, want 25", s.Breakdown[1].Percentage)
	}
}

func TestSummarizeEmptyWindow(t *testing.T) {
	env := newTestEnv(t)
	analytics := NewAnalyticsService(env.repo, env.clock)

	s, err := analytics.Summarize(context.Background(), env.user.ID, core.PeriodDaily, nil, nil)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Total.Cents != 0 || s.Count != 0 || len(s.Breakdown) != 0 {
		t.Errorf("empty window summary = %+v", s)
	}
	if s.Average.Cents != 0 {
		t.Errorf("Average = %d, want 0 for an empty window", s.Average.Cents)
	}
}

func TestSummarizeAverage(t *testing.T) {
	env := newTestEnv(t)
	analytics := NewAnalyticsService(env.repo, env.clock)

	seedExpense(t, env, 100, testTime, nil)
	seedExpense(t, env, 300, testTime, nil)

	s, err := analytics.Summarize(context.Background(), env.user.ID, core.PeriodMonthly, nil, nil)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Average.Cents != 200 {
		t.Errorf("Average = %d, want 200", s.Average.Cents)
	}
}

func TestSummarizeExplicitBoundsOverridePeriod(t *testing.T) {
	env := newTestEnv(t)
	analytics := NewAnalyticsService(env.repo, env.clock)

	seedExpense(t, env, 1000, testTime.AddDate(0, -2, 0), nil)

	start := testTime.AddDate(0, -3, 0)
	end := testTime.AddDate(0, -1, 0)
	s, err := analytics.Summarize(context.Background(), env.user.ID, core.PeriodDaily, &start, &end)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Total.Cents != 1000 {
		t.Errorf("total = %d, want 1000 from the overridden window", s.Total.Cents)
	}

	if _, err := analytics.Summarize(context.Background(), env.user.ID, core.PeriodDaily, &end, &start); !errors.Is(err, core.ErrValidation) {
		t.Errorf("inverted bounds error = %v, want ErrValidation", err)
	}
}

func TestCompareMonths(t *testing.T) {
	t.Run("no prior spending yields nil change", func(t *testing.T) {
		env := newTestEnv(t)
		analytics := NewAnalyticsService(env.repo, env.clock)
		seedExpense(t, env, 5000, testTime, nil)

		cmp, err := analytics.CompareMonths(context.Background(), env.user.ID)
		if err != nil {
			t.Fatalf("CompareMonths() error = %v", err)
		}
		if cmp.ChangePct != nil {
			t.Errorf("ChangePct = %v, want nil against a zero prior month", *cmp.ChangePct)
		}
	})

	t.Run("computes percentage change", func(t *testing.T) {
		env := newTestEnv(t)
		analytics := NewAnalyticsService(env.repo, env.clock)
		seedExpense(t, env, 10000, testTime.AddDate(0, -1, 0), nil) // February
		seedExpense(t, env, 15000, testTime, nil)                   // March

		cmp, err := analytics.CompareMonths(context.Background(), env.user.ID)
		if err != nil {
			t.Fatalf("CompareMonths() error = %v", err)
		}
		if cmp.ChangePct == nil || *cmp.ChangePct != 50 {
			t.Errorf("ChangePct = %v, want 50", cmp.ChangePct)
		}
	})
}

func TestForecastConfidence(t *testing.T) {
	env := newTestEnv(t)
	analytics := NewAnalyticsService(env.repo, env.clock)

	// 10 samples of 900 cents inside the trailing window.
	for i := 0; i < 10; i++ {
		seedExpense(t, env, 900, testTime.AddDate(0, 0, -i), nil)
	}

	f, err := analytics.ForecastSpending(context.Background(), env.user.ID)
	if err != nil {
		t.Fatalf("ForecastSpending() error = %v", err)
	}
	if f.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5 for a small sample", f.Confidence)
	}
	// 9000 cents over 90 days projects to 3000 over 30.
	if f.ProjectedTotal.Cents != 3000 {
		t.Errorf("ProjectedTotal = %d, want 3000", f.ProjectedTotal.Cents)
	}

	for i := 0; i < 25; i++ {
		seedExpense(t, env, 100, testTime.AddDate(0, 0, -(i%30)), nil)
	}
	f, err = analytics.ForecastSpending(context.Background(), env.user.ID)
	if err != nil {
		t.Fatalf("ForecastSpending() error = %v", err)
	}
	if f.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7 for a large sample", f.Confidence)
	}
}

func TestTrendsOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	analytics := NewAnalyticsService(env.repo, env.clock)

	seedExpense(t, env, 1000, testTime.AddDate(0, -2, 0), nil) // January
	seedExpense(t, env, 2000, testTime.AddDate(0, -1, 0), nil) // February
	seedExpense(t, env, 3000, testTime, nil)                   // March

	trends, err := analytics.Trends(context.Background(), env.user.ID, 3)
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}
	if len(trends) != 3 {
		t.Fatalf("trends size = %d, want 3", len(trends))
	}
	if trends[0].Month != "2026-01" || trends[0].Total.Cents != 1000 {
		t.Errorf("trends[0] = %+v, want January first", trends[0])
	}
	if trends[2].Month != "2026-03" || trends[2].Total.Cents != 3000 {
		t.Errorf("trends[2] = %+v, want the running month last", trends[2])
	}
}

func newAccountService(env *testEnv) (*AccountService, *auth.LoginLimiter) {
	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", 30*time.Minute, 7*24*time.Hour, env.clock)
	limiter := auth.NewLoginLimiter(3, 15*time.Minute, env.clock)
	return NewAccountService(env.repo, tokens, limiter, nil, env.clock, quietLogger()), limiter
}

func TestRegisterSeedsDefaultsAndIssuesTokens(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(env)

	session, err := svc.Register(context.Background(), "New@Example.com", "password123", "New User", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if session.User.Email != "new@example.com" {
		t.Errorf("email = %q, want lowercased", session.User.Email)
	}
	if session.Tokens.AccessToken == "" || session.Tokens.RefreshToken == "" {
		t.Error("expected a token pair")
	}

	cats, err := env.repo.ListCategories(context.Background(), session.User.ID)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != len(storage.DefaultCategories) {
		t.Errorf("seeded categories = %d, want %d", len(cats), len(storage.DefaultCategories))
	}

	notifs, err := env.repo.ListNotifications(context.Background(), session.User.ID, 50)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if countKind(notifs, core.NotifySystem) != 1 {
		t.Error("expected a welcome notification")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(env)

	if _, err := svc.Register(context.Background(), "user@example.com", "password123", "", ""); !errors.Is(err, core.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestLoginLockoutAfterFailures(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(env)

	if _, err := svc.Register(context.Background(), "a@example.com", "password123", "", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(context.Background(), "a@example.com", "wrong"); !errors.Is(err, core.ErrUnauthorized) {
			t.Fatalf("attempt %d error = %v, want ErrUnauthorized", i, err)
		}
	}

	// Even the correct password is rejected while locked.
	if _, err := svc.Login(context.Background(), "a@example.com", "password123"); !errors.Is(err, core.ErrLocked) {
		t.Errorf("locked login error = %v, want ErrLocked", err)
	}
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	env := newTestEnv(t)
	svc, limiter := newAccountService(env)

	if _, err := svc.Register(context.Background(), "a@example.com", "password123", "", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	svc.Login(context.Background(), "a@example.com", "wrong")
	svc.Login(context.Background(), "a@example.com", "wrong")

	if _, err := svc.Login(context.Background(), "a@example.com", "password123"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if limiter.Locked("a@example.com") {
		t.Error("successful login must reset the failure count")
	}
}

func TestLoginBannedUser(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(env)

	session, err := svc.Register(context.Background(), "a@example.com", "password123", "", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := env.repo.SetUserActive(context.Background(), session.User.ID, false); err != nil {
		t.Fatalf("ban: %v", err)
	}

	if _, err := svc.Login(context.Background(), "a@example.com", "password123"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
	// Ban also invalidates outstanding refresh tokens.
	if _, err := svc.Refresh(context.Background(), session.Tokens.RefreshToken); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("refresh error = %v, want ErrForbidden", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(env)

	session, err := svc.Register(context.Background(), "a@example.com", "password123", "", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Refresh(context.Background(), session.Tokens.AccessToken); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Refresh(context.Background(), session.Tokens.RefreshToken); err != nil {
		t.Errorf("valid refresh error = %v", err)
	}
}

func TestGoalCompletionTransition(t *testing.T) {
	env := newTestEnv(t)
	svc := NewGoalService(env.repo, env.clock, quietLogger())

	g, err := svc.Create(context.Background(), core.Goal{
		UserID: env.user.ID, Name: "Laptop", Target: core.Money{Cents: 10000},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	g.Current = core.Money{Cents: 10000}
	updated, err := svc.Update(context.Background(), g)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.Completed {
		t.Error("goal should be completed at target")
	}
	if countKind(env.notifications(t), core.NotifySystem) != 1 {
		t.Error("expected exactly one completion notification")
	}

	// A second update past the target must not notify again.
	updated.Current = core.Money{Cents: 12000}
	if _, err := svc.Update(context.Background(), updated); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if countKind(env.notifications(t), core.NotifySystem) != 1 {
		t.Error("completion notification must fire only on the transition")
	}
}

func TestAdminBanAndStats(t *testing.T) {
	env := newTestEnv(t)
	adminSvc := NewAdminService(env.repo, env.clock, quietLogger())

	admin, err := env.repo.CreateUser(context.Background(), core.User{
		Email: "admin@example.com", PasswordHash: "x", IsAdmin: true, IsActive: true,
		CreatedAt: testTime, UpdatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if err := adminSvc.SetUserActive(context.Background(), admin.ID, admin.ID, false); !errors.Is(err, core.ErrValidation) {
		t.Errorf("self-ban error = %v, want ErrValidation", err)
	}

	if err := adminSvc.SetUserActive(context.Background(), admin.ID, env.user.ID, false); err != nil {
		t.Fatalf("ban error = %v", err)
	}

	stats, err := adminSvc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalUsers != 2 || stats.ActiveUsers != 1 {
		t.Errorf("stats = %+v, want 2 users with 1 active", stats)
	}
}

func TestAdminSignupTrend(t *testing.T) {
	env := newTestEnv(t)
	adminSvc := NewAdminService(env.repo, env.clock, quietLogger())

	// A second signup two days back; the env user registered today.
	if _, err := env.repo.CreateUser(context.Background(), core.User{
		Email: "earlier@example.com", PasswordHash: "x", IsActive: true,
		CreatedAt: testTime.AddDate(0, 0, -2), UpdatedAt: testTime.AddDate(0, 0, -2),
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	trend, err := adminSvc.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if len(trend) != 7 {
		t.Fatalf("trend length = %d, want 7", len(trend))
	}
	if trend[0].Date != "2026-03-12" || trend[6].Date != "2026-03-18" {
		t.Errorf("trend bounds = %s..%s, want 2026-03-12..2026-03-18", trend[0].Date, trend[6].Date)
	}
	var total int64
	for _, day := range trend {
		total += day.Count
	}
	if total != 2 || trend[6].Count != 1 || trend[4].Count != 1 {
		t.Errorf("trend counts = %+v, want one signup today and one two days back", trend)
	}
}
