package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hisab/internal/auth"
	"hisab/internal/config"
	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/services"
	"hisab/internal/storage"
)

var testTime = time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC)

type testServer struct {
	srv  *Server
	repo *storage.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo, err := storage.New(filepath.Join(t.TempDir(), "hisab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	clock := core.FixedClock(testTime)
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})

	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", 30*time.Minute, 7*24*time.Hour, clock)
	limiter := auth.NewLoginLimiter(3, 15*time.Minute, clock)
	notifier := services.NewNotifier(repo, clock, 0.9, false, logger)

	cfg := &config.Config{
		Port:              "8080",
		RequestsPerMinute: 10000,
		AllowedOrigin:     "*",
	}

	srv := NewServer(cfg, Deps{
		Repo:          repo,
		Tokens:        tokens,
		Accounts:      services.NewAccountService(repo, tokens, limiter, nil, clock, logger),
		Expenses:      services.NewExpenseService(repo, notifier, clock, logger),
		Categories:    services.NewCategoryService(repo, clock),
		Budgets:       services.NewBudgetService(repo, clock),
		Goals:         services.NewGoalService(repo, clock, logger),
		Notifications: services.NewNotificationService(repo),
		Analytics:     services.NewAnalyticsService(repo, clock),
		AIAssist:      services.NewAIAssistService(repo, nil, clock),
		Admin:         services.NewAdminService(repo, clock, logger),
	}, logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testServer{srv: srv, repo: repo}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (ts *testServer) register(t *testing.T, email string) sessionResponse {
	t.Helper()
	rec := ts.do(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":     email,
		"password":  "correct-horse",
		"full_name": "Test User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[sessionResponse](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "GET", "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	session := ts.register(t, "Nadia@Example.com")
	require.Equal(t, "nadia@example.com", session.User.Email)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, "bearer", session.TokenType)

	rec := ts.do(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":    "nadia@example.com",
		"password": "another-pass",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "nadia@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "nadia@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginLockout(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "locked@example.com")

	for i := 0; i < 3; i++ {
		rec := ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
			"email":    "locked@example.com",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "locked@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ts := newTestServer(t)
	session := ts.register(t, "ref@example.com")

	rec := ts.do(t, "POST", "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.AccessToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/v1/expenses", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/expenses", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpenseLifecycle(t *testing.T) {
	ts := newTestServer(t)
	session := ts.register(t, "spender@example.com")
	token := session.AccessToken

	rec := ts.do(t, "GET", "/api/v1/categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	categories := decodeBody[map[string][]categoryResponse](t, rec)["categories"]
	require.Len(t, categories, 8)

	rec = ts.do(t, "POST", "/api/v1/expenses", token, map[string]any{
		"amount":      12.5,
		"description": "Lunch",
		"category_id": categories[0].ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[expenseResponse](t, rec)
	require.Equal(t, 12.5, created.Amount.Float())
	require.Equal(t, categories[0].Name, created.CategoryName)
	require.Equal(t, "manual", created.Source)

	rec = ts.do(t, "GET", fmt.Sprintf("/api/v1/expenses/%d", created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/expenses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[expenseListResponse](t, rec)
	require.Equal(t, int64(1), list.Total)

	rec = ts.do(t, "PUT", fmt.Sprintf("/api/v1/expenses/%d", created.ID), token, map[string]any{
		"amount":      20,
		"description": "Team lunch",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[expenseResponse](t, rec)
	require.Equal(t, "Team lunch", updated.Description)
	require.Equal(t, created.SpentAt, updated.SpentAt)

	rec = ts.do(t, "DELETE", fmt.Sprintf("/api/v1/expenses/%d", created.ID), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, "GET", fmt.Sprintf("/api/v1/expenses/%d", created.ID), token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "strict@example.com").AccessToken

	rec := ts.do(t, "POST", "/api/v1/expenses", token, map[string]any{
		"amount":      0,
		"description": "free stuff",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/expenses", token, map[string]any{
		"amount":      5,
		"description": "orphan",
		"category_id": 999999,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/expenses/abc", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnershipIsolation(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice@example.com").AccessToken
	bob := ts.register(t, "bob@example.com").AccessToken

	rec := ts.do(t, "POST", "/api/v1/expenses", alice, map[string]any{
		"amount":      9.99,
		"description": "private",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[expenseResponse](t, rec)

	rec = ts.do(t, "GET", fmt.Sprintf("/api/v1/expenses/%d", created.ID), bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBudgetAlertFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "budgeter@example.com").AccessToken

	rec := ts.do(t, "POST", "/api/v1/budgets", token, map[string]any{
		"name":   "Monthly cap",
		"limit":  100,
		"period": "monthly",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	budget := decodeBody[budgetResponse](t, rec)
	require.Equal(t, float64(0), budget.PercentUsed)

	rec = ts.do(t, "POST", "/api/v1/expenses", token, map[string]any{
		"amount":      95,
		"description": "big spend",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "GET", fmt.Sprintf("/api/v1/budgets/%d", budget.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	budget = decodeBody[budgetResponse](t, rec)
	require.Equal(t, float64(95), budget.PercentUsed)
	require.Equal(t, float64(5), budget.Remaining.Float())

	rec = ts.do(t, "GET", "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notifications := decodeBody[map[string][]notificationResponse](t, rec)["notifications"]

	var kinds []string
	for _, n := range notifications {
		kinds = append(kinds, n.Kind)
	}
	require.Contains(t, kinds, string(core.NotifyBudgetWarning))
}

func TestAnalyticsSummary(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "analyst@example.com").AccessToken

	for _, amount := range []float64{30, 10} {
		rec := ts.do(t, "POST", "/api/v1/expenses", token, map[string]any{
			"amount":      amount,
			"description": "spend",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(t, "GET", "/api/v1/analytics/summary?period=monthly", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[summaryResponse](t, rec)
	require.Equal(t, float64(40), summary.Total.Float())
	require.Equal(t, int64(2), summary.Count)
	require.Equal(t, float64(20), summary.Average.Float())

	rec = ts.do(t, "GET", "/api/v1/analytics/summary?period=hourly", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/analytics/forecast", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/analytics/trends?months=3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trends := decodeBody[map[string][]monthTotalResponse](t, rec)["trends"]
	require.Len(t, trends, 3)
	require.Equal(t, "2026-01", trends[0].Month)
}

func TestAIDisabled(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "curious@example.com").AccessToken

	rec := ts.do(t, "POST", "/api/v1/ai/categorize", token, map[string]string{
		"description": "uber ride",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/exports/sheets", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAccess(t *testing.T) {
	ts := newTestServer(t)
	member := ts.register(t, "member@example.com").AccessToken

	rec := ts.do(t, "GET", "/api/v1/admin/stats", member, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	hash, err := auth.HashPassword("admin-pass-123")
	require.NoError(t, err)
	_, err = ts.repo.CreateUser(context.Background(), core.User{
		Email:        "root@example.com",
		PasswordHash: hash,
		Currency:     "INR",
		IsAdmin:      true,
		IsActive:     true,
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	})
	require.NoError(t, err)

	rec = ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "root@example.com",
		"password": "admin-pass-123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	admin := decodeBody[sessionResponse](t, rec)

	rec = ts.do(t, "GET", "/api/v1/admin/stats", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[adminStatsResponse](t, rec)
	require.Equal(t, int64(2), stats.TotalUsers)

	rec = ts.do(t, "GET", "/api/v1/admin/analytics", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trend := decodeBody[map[string][]signupCountResponse](t, rec)["daily_signups"]
	require.Len(t, trend, 7)
	require.Equal(t, testTime.Format("2006-01-02"), trend[6].Date)

	rec = ts.do(t, "POST", fmt.Sprintf("/api/v1/admin/users/%d/ban", admin.User.ID), admin.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBanTakesEffectImmediately(t *testing.T) {
	ts := newTestServer(t)
	session := ts.register(t, "target@example.com")

	require.NoError(t, ts.repo.SetUserActive(context.Background(), session.User.ID, false))

	rec := ts.do(t, "GET", "/api/v1/me", session.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSVExport(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "csv@example.com").AccessToken

	rec := ts.do(t, "POST", "/api/v1/expenses", token, map[string]any{
		"amount":      12.5,
		"description": "Lunch",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/expenses/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "Date,Description,Amount,Category,Tags,Source")
	require.Contains(t, rec.Body.String(), "Lunch")
}
