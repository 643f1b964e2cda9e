package http

import (
	"net/http"

	"hisab/internal/core"
)

type categoryShareResponse struct {
	CategoryID *int64     `json:"category_id"`
	Name       string     `json:"name"`
	Total      core.Money `json:"total"`
	Percentage float64    `json:"percentage"`
}

type dayTotalResponse struct {
	Date  string     `json:"date"`
	Total core.Money `json:"total"`
}

type summaryResponse struct {
	Period     string                  `json:"period"`
	Start      string                  `json:"start"`
	End        string                  `json:"end"`
	Total      core.Money              `json:"total"`
	Count      int64                   `json:"count"`
	Average    core.Money              `json:"average"`
	Breakdown  []categoryShareResponse `json:"breakdown"`
	DailyTrend []dayTotalResponse      `json:"daily_trend"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period := core.BudgetPeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = core.PeriodMonthly
	}
	start, err := queryDate(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.analytics.Summarize(r.Context(), currentUser(r).ID, period, start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := summaryResponse{
		Period:     string(period),
		Start:      summary.Start.Format("2006-01-02"),
		End:        summary.End.Format("2006-01-02"),
		Total:      summary.Total,
		Count:      summary.Count,
		Average:    summary.Average,
		Breakdown:  make([]categoryShareResponse, 0, len(summary.Breakdown)),
		DailyTrend: make([]dayTotalResponse, 0, len(summary.DailyTrend)),
	}
	for _, share := range summary.Breakdown {
		resp.Breakdown = append(resp.Breakdown, categoryShareResponse(share))
	}
	for _, day := range summary.DailyTrend {
		resp.DailyTrend = append(resp.DailyTrend, dayTotalResponse{Date: day.Day, Total: day.Total})
	}
	writeJSON(w, http.StatusOK, resp)
}

type comparisonResponse struct {
	CurrentMonth  core.Money `json:"current_month"`
	PreviousMonth core.Money `json:"previous_month"`
	ChangePct     *float64   `json:"change_pct"`
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.analytics.CompareMonths(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comparisonResponse{
		CurrentMonth:  cmp.CurrentTotal,
		PreviousMonth: cmp.PreviousTotal,
		ChangePct:     cmp.ChangePct,
	})
}

type forecastResponse struct {
	ProjectedTotal core.Money `json:"projected_total"`
	DailyAverage   core.Money `json:"daily_average"`
	Confidence     float64    `json:"confidence"`
	SampleCount    int64      `json:"sample_count"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := s.analytics.ForecastSpending(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forecastResponse(forecast))
}

type monthTotalResponse struct {
	Month string     `json:"month"`
	Total core.Money `json:"total"`
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months", 6)
	trends, err := s.analytics.Trends(r.Context(), currentUser(r).ID, months)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]monthTotalResponse, 0, len(trends))
	for _, m := range trends {
		out = append(out, monthTotalResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"trends": out})
}

func (s *Server) handleAnalyticsExport(w http.ResponseWriter, r *http.Request) {
	period := core.BudgetPeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = core.PeriodMonthly
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.csv"`)
	if err := s.analytics.ExportCSV(r.Context(), currentUser(r).ID, period, w); err != nil {
		s.logger.ErrorContext(r.Context(), "Analytics export failed", "error", err)
	}
}
