package http

import (
	"net/http"
	"time"

	"hisab/internal/core"
)

type adminStatsResponse struct {
	TotalUsers    int64      `json:"total_users"`
	ActiveUsers   int64      `json:"active_users"`
	TotalExpenses int64      `json:"total_expenses"`
	TotalAmount   core.Money `json:"total_amount"`
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adminStatsResponse(stats))
}

type adminUserResponse struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Currency     string     `json:"currency"`
	IsAdmin      bool       `json:"is_admin"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpenseCount int64      `json:"expense_count"`
	TotalSpent   core.Money `json:"total_spent"`
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.Users(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResponse{
			ID:           u.User.ID,
			Email:        u.User.Email,
			FullName:     u.User.FullName,
			Currency:     u.User.Currency,
			IsAdmin:      u.User.IsAdmin,
			IsActive:     u.User.IsActive,
			CreatedAt:    u.User.CreatedAt,
			ExpenseCount: u.ExpenseCount,
			TotalSpent:   u.TotalSpent,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

type signupCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

func (s *Server) handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	signups, err := s.admin.Analytics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]signupCountResponse, 0, len(signups))
	for _, day := range signups {
		out = append(out, signupCountResponse(day))
	}
	writeJSON(w, http.StatusOK, map[string]any{"daily_signups": out})
}

func (s *Server) handleAdminBan(w http.ResponseWriter, r *http.Request) {
	s.setUserActive(w, r, false)
}

func (s *Server) handleAdminUnban(w http.ResponseWriter, r *http.Request) {
	s.setUserActive(w, r, true)
}

func (s *Server) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.admin.SetUserActive(r.Context(), currentUser(r).ID, id, active); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": active})
}

type eventResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.admin.Events(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:          e.ID,
			UserID:      e.UserID,
			Kind:        string(e.Kind),
			Description: e.Description,
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}
