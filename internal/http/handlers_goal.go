package http

import (
	"fmt"
	"net/http"
	"time"

	"hisab/internal/core"
)

type goalRequest struct {
	Name       string     `json:"name"`
	Target     core.Money `json:"target"`
	Current    core.Money `json:"current"`
	TargetDate string     `json:"target_date"` // YYYY-MM-DD, optional
}

type goalResponse struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Target     core.Money `json:"target"`
	Current    core.Money `json:"current"`
	TargetDate *string    `json:"target_date"`
	Completed  bool       `json:"completed"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toGoalResponse(g core.Goal) goalResponse {
	resp := goalResponse{
		ID:        g.ID,
		Name:      g.Name,
		Target:    g.Target,
		Current:   g.Current,
		Completed: g.Completed,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
	if g.TargetDate != nil {
		d := g.TargetDate.Format("2006-01-02")
		resp.TargetDate = &d
	}
	return resp
}

func (req goalRequest) toGoal(userID int64) (core.Goal, error) {
	g := core.Goal{
		UserID:  userID,
		Name:    req.Name,
		Target:  req.Target,
		Current: req.Current,
	}
	if req.TargetDate != "" {
		t, err := time.Parse("2006-01-02", req.TargetDate)
		if err != nil {
			return core.Goal{}, fmt.Errorf("%w: invalid target_date, want YYYY-MM-DD", core.ErrValidation)
		}
		t = t.UTC()
		g.TargetDate = &t
	}
	return g, nil
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	goal, err := req.toGoal(currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.goals.Create(r.Context(), goal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(created))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": out})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	goal, err := s.goals.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(goal))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	goal, err := req.toGoal(currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	goal.ID = id
	updated, err := s.goals.Update(r.Context(), goal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(updated))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.goals.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
