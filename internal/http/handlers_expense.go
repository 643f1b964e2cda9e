package http

import (
	"fmt"
	"net/http"
	"time"

	"hisab/internal/core"
	"hisab/internal/storage"
)

type expenseRequest struct {
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	CategoryID  *int64     `json:"category_id"`
	Tags        string     `json:"tags"`
	Source      string     `json:"source"`
	SpentAt     string     `json:"spent_at"` // YYYY-MM-DD, defaults to today
}

type expenseResponse struct {
	ID           int64      `json:"id"`
	Amount       core.Money `json:"amount"`
	Description  string     `json:"description"`
	CategoryID   *int64     `json:"category_id"`
	CategoryName string     `json:"category_name,omitempty"`
	Tags         string     `json:"tags,omitempty"`
	Source       string     `json:"source"`
	SpentAt      time.Time  `json:"spent_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		Amount:       e.Amount,
		Description:  e.Description,
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		Tags:         e.Tags,
		Source:       string(e.Source),
		SpentAt:      e.SpentAt,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// toExpense converts the request body, leaving amount and description
// validation to the service.
func (req expenseRequest) toExpense(userID int64) (core.Expense, error) {
	e := core.Expense{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		Tags:        req.Tags,
		Source:      core.ExpenseSource(req.Source),
	}
	if req.SpentAt != "" {
		t, err := time.Parse("2006-01-02", req.SpentAt)
		if err != nil {
			return core.Expense{}, fmt.Errorf("%w: invalid spent_at date, want YYYY-MM-DD", core.ErrValidation)
		}
		e.SpentAt = t.UTC()
	}
	return e, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	expense, err := req.toExpense(currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.expenses.Create(r.Context(), expense)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

type expenseListResponse struct {
	Expenses []expenseResponse `json:"expenses"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter := storage.ExpenseFilter{
		Search:   r.URL.Query().Get("search"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
	}
	var err error
	if filter.CategoryID, err = queryID(r, "category_id"); err != nil {
		writeError(w, err)
		return
	}
	if filter.Start, err = queryDate(r, "start"); err != nil {
		writeError(w, err)
		return
	}
	if filter.End, err = queryDate(r, "end"); err != nil {
		writeError(w, err)
		return
	}
	if filter.End != nil {
		end := core.EndOfDay(*filter.End)
		filter.End = &end
	}

	expenses, total, err := s.expenses.List(r.Context(), currentUser(r).ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := expenseListResponse{
		Expenses: make([]expenseResponse, 0, len(expenses)),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if resp.Page < 1 {
		resp.Page = 1
	}
	for _, e := range expenses {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	expense, err := s.expenses.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	expense, err := req.toExpense(currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	expense.ID = id
	if expense.SpentAt.IsZero() {
		existing, err := s.expenses.Get(r.Context(), expense.UserID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		expense.SpentAt = existing.SpentAt
	}

	updated, err := s.expenses.Update(r.Context(), expense)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleBulkDeleteExpenses(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, fmt.Errorf("%w: ids must not be empty", core.ErrValidation))
		return
	}
	deleted, err := s.expenses.BulkDelete(r.Context(), currentUser(r).ID, req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	if err := s.expenses.ExportCSV(r.Context(), currentUser(r).ID, w); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}
