package http

import (
	"fmt"
	"net/http"

	"hisab/internal/amqp"
	"hisab/internal/core"
)

type categorizeRequest struct {
	Description string `json:"description"`
}

type categorizeResponse struct {
	CategoryID *int64  `json:"category_id"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func (s *Server) handleAICategorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	suggestion, err := s.aiAssist.SuggestCategory(r.Context(), currentUser(r).ID, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categorizeResponse{
		CategoryID: suggestion.CategoryID,
		Category:   suggestion.Name,
		Confidence: suggestion.Confidence,
	})
}

func (s *Server) handleAIInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.aiAssist.Insights(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

// handleAIInsightsRefresh queues a background recompute rather than blocking
// the request on the model.
func (s *Server) handleAIInsightsRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.aiAssist.Enabled() {
		writeError(w, fmt.Errorf("%w: AI features are disabled", core.ErrValidation))
		return
	}
	if err := s.enqueue(r, amqp.JobAIInsight); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleSheetsExport(w http.ResponseWriter, r *http.Request) {
	if !s.sheetsEnabled {
		writeError(w, fmt.Errorf("%w: spreadsheet export is not configured", core.ErrValidation))
		return
	}
	if err := s.enqueue(r, amqp.JobSheetsExport); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// enqueue publishes a user-keyed job for the worker.
func (s *Server) enqueue(r *http.Request, kind amqp.JobKind) error {
	if s.publisher == nil {
		return fmt.Errorf("%w: background jobs are not configured", core.ErrValidation)
	}
	job, err := amqp.NewJob(kind, amqp.UserPayload{UserID: currentUser(r).ID})
	if err != nil {
		return fmt.Errorf("build job: %w", err)
	}
	if err := s.publisher.PublishJob(r.Context(), job); err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}
