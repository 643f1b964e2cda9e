package http

import (
	"net/http"
	"time"

	"hisab/internal/core"
	"hisab/internal/services"
)

type budgetRequest struct {
	Name       string     `json:"name"`
	Limit      core.Money `json:"limit"`
	CategoryID *int64     `json:"category_id"`
	Period     string     `json:"period"`
}

type budgetResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Limit       core.Money `json:"limit"`
	CategoryID  *int64     `json:"category_id"`
	Period      string     `json:"period"`
	Spent       core.Money `json:"spent"`
	Remaining   core.Money `json:"remaining"`
	PercentUsed float64    `json:"percent_used"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toBudgetResponse(b services.BudgetWithStatus) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		Name:        b.Name,
		Limit:       b.Limit,
		CategoryID:  b.CategoryID,
		Period:      string(b.Period),
		Spent:       b.Status.Spent,
		Remaining:   b.Status.Remaining,
		PercentUsed: b.Status.PercentUsed,
		CreatedAt:   b.CreatedAt,
	}
}

func (req budgetRequest) toBudget(userID int64) core.Budget {
	return core.Budget{
		UserID:     userID,
		Name:       req.Name,
		Limit:      req.Limit,
		CategoryID: req.CategoryID,
		Period:     core.BudgetPeriod(req.Period),
	}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.budgets.Create(r.Context(), req.toBudget(currentUser(r).ID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.List(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": out})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	budget, err := s.budgets.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	budget := req.toBudget(currentUser(r).ID)
	budget.ID = id
	updated, err := s.budgets.Update(r.Context(), budget)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.budgets.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
