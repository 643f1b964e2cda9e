// Package http is the JSON API boundary. Handlers decode and authenticate,
// delegate to services and translate domain errors to status codes; no
// business rule lives here.
package http

import (
	"context"
	"net/http"
	"time"

	"hisab/internal/auth"
	"hisab/internal/config"
	"hisab/internal/log"
	"hisab/internal/middleware/ratelimit"
	"hisab/internal/middleware/security"
	"hisab/internal/middleware/trace"
	"hisab/internal/services"
	"hisab/internal/storage"
)

// Server hosts the REST API.
type Server struct {
	httpServer *http.Server
	limiter    *ratelimit.Limiter
	logger     *log.Logger

	repo   *storage.Repository
	tokens *auth.TokenManager

	accounts      *services.AccountService
	expenses      *services.ExpenseService
	categories    *services.CategoryService
	budgets       *services.BudgetService
	goals         *services.GoalService
	notifications *services.NotificationService
	analytics     *services.AnalyticsService
	aiAssist      *services.AIAssistService
	admin         *services.AdminService
	publisher     services.JobPublisher
	sheetsEnabled bool
}

// Deps carries everything the server needs. Publisher may be nil when the
// job queue is not configured.
type Deps struct {
	Repo   *storage.Repository
	Tokens *auth.TokenManager

	Accounts      *services.AccountService
	Expenses      *services.ExpenseService
	Categories    *services.CategoryService
	Budgets       *services.BudgetService
	Goals         *services.GoalService
	Notifications *services.NotificationService
	Analytics     *services.AnalyticsService
	AIAssist      *services.AIAssistService
	Admin         *services.AdminService

	Publisher     services.JobPublisher
	SheetsEnabled bool
}

// NewServer assembles the mux and middleware chain.
func NewServer(cfg *config.Config, deps Deps, logger *log.Logger) *Server {
	s := &Server{
		logger:        logger.WithComponent(log.ComponentHTTP),
		repo:          deps.Repo,
		tokens:        deps.Tokens,
		accounts:      deps.Accounts,
		expenses:      deps.Expenses,
		categories:    deps.Categories,
		budgets:       deps.Budgets,
		goals:         deps.Goals,
		notifications: deps.Notifications,
		analytics:     deps.Analytics,
		aiAssist:      deps.AIAssist,
		admin:         deps.Admin,
		publisher:     deps.Publisher,
		sheetsEnabled: deps.SheetsEnabled,
	}

	s.limiter = ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute})

	headers := security.DefaultHeadersConfig()
	headers.AllowedOrigin = cfg.AllowedOrigin

	var handler http.Handler = s.routes()
	handler = trace.Middleware(handler)
	handler = s.limiter.Middleware(trace.ClientIP)(handler)
	handler = security.Middleware(headers)(handler)
	handler = trace.Recoverer(handler)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)

	mux.HandleFunc("GET /api/v1/me", s.requireAuth(s.handleGetProfile))
	mux.HandleFunc("PUT /api/v1/me", s.requireAuth(s.handleUpdateProfile))

	mux.HandleFunc("POST /api/v1/expenses", s.requireAuth(s.handleCreateExpense))
	mux.HandleFunc("GET /api/v1/expenses", s.requireAuth(s.handleListExpenses))
	mux.HandleFunc("GET /api/v1/expenses/export", s.requireAuth(s.handleExportCSV))
	mux.HandleFunc("POST /api/v1/expenses/bulk-delete", s.requireAuth(s.handleBulkDeleteExpenses))
	mux.HandleFunc("GET /api/v1/expenses/{id}", s.requireAuth(s.handleGetExpense))
	mux.HandleFunc("PUT /api/v1/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/v1/expenses/{id}", s.requireAuth(s.handleDeleteExpense))

	mux.HandleFunc("POST /api/v1/categories", s.requireAuth(s.handleCreateCategory))
	mux.HandleFunc("GET /api/v1/categories", s.requireAuth(s.handleListCategories))
	mux.HandleFunc("PUT /api/v1/categories/{id}", s.requireAuth(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/v1/categories/{id}", s.requireAuth(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/v1/budgets", s.requireAuth(s.handleCreateBudget))
	mux.HandleFunc("GET /api/v1/budgets", s.requireAuth(s.handleListBudgets))
	mux.HandleFunc("GET /api/v1/budgets/{id}", s.requireAuth(s.handleGetBudget))
	mux.HandleFunc("PUT /api/v1/budgets/{id}", s.requireAuth(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/v1/budgets/{id}", s.requireAuth(s.handleDeleteBudget))

	mux.HandleFunc("POST /api/v1/goals", s.requireAuth(s.handleCreateGoal))
	mux.HandleFunc("GET /api/v1/goals", s.requireAuth(s.handleListGoals))
	mux.HandleFunc("GET /api/v1/goals/{id}", s.requireAuth(s.handleGetGoal))
	mux.HandleFunc("PUT /api/v1/goals/{id}", s.requireAuth(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/v1/goals/{id}", s.requireAuth(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/v1/notifications", s.requireAuth(s.handleListNotifications))
	mux.HandleFunc("GET /api/v1/notifications/unread-count", s.requireAuth(s.handleUnreadCount))
	mux.HandleFunc("POST /api/v1/notifications/read-all", s.requireAuth(s.handleMarkAllRead))
	mux.HandleFunc("POST /api/v1/notifications/{id}/read", s.requireAuth(s.handleMarkRead))

	mux.HandleFunc("GET /api/v1/analytics/summary", s.requireAuth(s.handleSummary))
	mux.HandleFunc("GET /api/v1/analytics/comparison", s.requireAuth(s.handleComparison))
	mux.HandleFunc("GET /api/v1/analytics/forecast", s.requireAuth(s.handleForecast))
	mux.HandleFunc("GET /api/v1/analytics/trends", s.requireAuth(s.handleTrends))
	mux.HandleFunc("GET /api/v1/analytics/export", s.requireAuth(s.handleAnalyticsExport))

	mux.HandleFunc("POST /api/v1/ai/categorize", s.requireAuth(s.handleAICategorize))
	mux.HandleFunc("GET /api/v1/ai/insights", s.requireAuth(s.handleAIInsights))
	mux.HandleFunc("POST /api/v1/ai/insights/refresh", s.requireAuth(s.handleAIInsightsRefresh))

	mux.HandleFunc("POST /api/v1/exports/sheets", s.requireAuth(s.handleSheetsExport))

	mux.HandleFunc("GET /api/v1/admin/stats", s.requireAdmin(s.handleAdminStats))
	mux.HandleFunc("GET /api/v1/admin/users", s.requireAdmin(s.handleAdminUsers))
	mux.HandleFunc("GET /api/v1/admin/analytics", s.requireAdmin(s.handleAdminAnalytics))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/ban", s.requireAdmin(s.handleAdminBan))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/unban", s.requireAdmin(s.handleAdminUnban))
	mux.HandleFunc("GET /api/v1/admin/events", s.requireAdmin(s.handleAdminEvents))

	return mux
}

// Start blocks serving requests until the listener fails or closes.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the assembled handler chain, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
