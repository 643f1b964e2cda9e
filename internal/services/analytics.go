package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"hisab/internal/core"
	"hisab/internal/storage"
)

// AnalyticsService derives read-only aggregates from the expense history.
// Every figure is recomputed per request; nothing is materialized.
type AnalyticsService struct {
	repo  *storage.Repository
	clock core.Clock
}

func NewAnalyticsService(repo *storage.Repository, clock core.Clock) *AnalyticsService {
	return &AnalyticsService{repo: repo, clock: clock}
}

// CategoryShare is one slice of the spending breakdown.
type CategoryShare struct {
	CategoryID *int64
	Name       string
	Total      core.Money
	Percentage float64
}

// DayTotal is one day's aggregate spend.
type DayTotal struct {
	Day   string // YYYY-MM-DD
	Total core.Money
}

// Summary aggregates one analytics window.
type Summary struct {
	Start      time.Time
	End        time.Time
	Total      core.Money
	Count      int64
	Average    core.Money // mean per expense, zero for an empty window
	Breakdown  []CategoryShare
	DailyTrend []DayTotal
}

// Summarize aggregates spending for the named period (daily, weekly or
// monthly). Explicit start/end bounds override the period window; the end
// bound is extended to the end of its day.
func (s *AnalyticsService) Summarize(ctx context.Context, userID int64, period core.BudgetPeriod, startOverride, endOverride *time.Time) (Summary, error) {
	if !period.Valid() {
		return Summary{}, fmt.Errorf("%w: %s", core.ErrValidation, core.ErrInvalidPeriod)
	}

	start, end := period.SummaryWindow(s.clock.Now())
	if startOverride != nil {
		start = core.StartOfDay(*startOverride)
	}
	if endOverride != nil {
		end = core.EndOfDay(*endOverride)
	}
	if end.Before(start) {
		return Summary{}, fmt.Errorf("%w: end before start", core.ErrValidation)
	}

	total, err := s.repo.SumExpenses(ctx, userID, start, end, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("sum window: %w", err)
	}
	count, err := s.repo.CountExpenses(ctx, userID, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("count window: %w", err)
	}
	byCategory, err := s.repo.CategoryTotals(ctx, userID, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("category totals: %w", err)
	}
	daily, err := s.repo.DailyTotals(ctx, userID, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("daily totals: %w", err)
	}

	summary := Summary{Start: start, End: end, Total: total, Count: count}
	if count > 0 {
		summary.Average = core.Money{Cents: total.Cents / count}
	}
	for _, t := range byCategory {
		share := CategoryShare{CategoryID: t.CategoryID, Name: t.Name, Total: t.Total}
		if t.Name == "" {
			share.Name = "Uncategorized"
		}
		// A zero grand total yields zero percentages, never a division error.
		if total.Cents > 0 {
			share.Percentage = float64(t.Total.Cents) / float64(total.Cents) * 100
		}
		summary.Breakdown = append(summary.Breakdown, share)
	}
	for _, d := range daily {
		summary.DailyTrend = append(summary.DailyTrend, DayTotal{Day: d.Day, Total: d.Total})
	}
	return summary, nil
}

// ExportCSV writes the period's category breakdown as CSV.
func (s *AnalyticsService) ExportCSV(ctx context.Context, userID int64, period core.BudgetPeriod, w io.Writer) error {
	summary, err := s.Summarize(ctx, userID, period, nil, nil)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Category", "Total", "Percentage"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, share := range summary.Breakdown {
		record := []string{
			share.Name,
			strconv.FormatFloat(share.Total.Float(), 'f', 2, 64),
			strconv.FormatFloat(share.Percentage, 'f', 1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := cw.Write([]string{"Total", strconv.FormatFloat(summary.Total.Float(), 'f', 2, 64), ""}); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// MonthComparison contrasts the running month with the previous calendar
// month. ChangePct is nil when the previous month had no spending, since a
// percentage against zero is undefined.
type MonthComparison struct {
	CurrentTotal  core.Money
	PreviousTotal core.Money
	ChangePct     *float64
}

// CompareMonths computes the month-over-month figures.
func (s *AnalyticsService) CompareMonths(ctx context.Context, userID int64) (MonthComparison, error) {
	now := s.clock.Now()

	current, err := s.repo.SumExpenses(ctx, userID, core.StartOfMonth(now), core.EndOfDay(now), nil)
	if err != nil {
		return MonthComparison{}, fmt.Errorf("sum current month: %w", err)
	}
	prevStart, prevEnd := core.PrevMonthBounds(now)
	previous, err := s.repo.SumExpenses(ctx, userID, prevStart, prevEnd, nil)
	if err != nil {
		return MonthComparison{}, fmt.Errorf("sum previous month: %w", err)
	}

	cmp := MonthComparison{CurrentTotal: current, PreviousTotal: previous}
	if previous.Cents > 0 {
		pct := (float64(current.Cents) - float64(previous.Cents)) / float64(previous.Cents) * 100
		cmp.ChangePct = &pct
	}
	return cmp, nil
}

// Forecast projects next month's spending from the trailing 90 days.
type Forecast struct {
	ProjectedTotal core.Money
	DailyAverage   core.Money
	Confidence     float64
	SampleCount    int64
}

const (
	forecastWindowDays = 90
	forecastHorizon    = 30
	// Confidence is a coarse two-level signal based on sample size.
	confidenceHigh       = 0.7
	confidenceLow        = 0.5
	confidenceSampleSize = 30
)

// ForecastSpending projects a 30-day total from the 90-day trailing average.
func (s *AnalyticsService) ForecastSpending(ctx context.Context, userID int64) (Forecast, error) {
	now := s.clock.Now()
	start := core.StartOfDay(now.AddDate(0, 0, -forecastWindowDays))
	end := core.EndOfDay(now)

	total, err := s.repo.SumExpenses(ctx, userID, start, end, nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("sum trailing window: %w", err)
	}
	count, err := s.repo.CountExpenses(ctx, userID, start, end)
	if err != nil {
		return Forecast{}, fmt.Errorf("count trailing window: %w", err)
	}

	dailyAvg := total.Cents / forecastWindowDays
	f := Forecast{
		ProjectedTotal: core.Money{Cents: dailyAvg * forecastHorizon},
		DailyAverage:   core.Money{Cents: dailyAvg},
		Confidence:     confidenceLow,
		SampleCount:    count,
	}
	if count > confidenceSampleSize {
		f.Confidence = confidenceHigh
	}
	return f, nil
}

// MonthTotal is one calendar month's total spend.
type MonthTotal struct {
	Month string // YYYY-MM
	Total core.Money
}

// Trends returns per-month totals for the trailing months window, oldest
// first. The running month is included up to today.
func (s *AnalyticsService) Trends(ctx context.Context, userID int64, months int) ([]MonthTotal, error) {
	if months < 1 || months > 24 {
		return nil, fmt.Errorf("%w: months must be between 1 and 24", core.ErrValidation)
	}

	now := s.clock.Now()
	out := make([]MonthTotal, 0, months)
	for i := months - 1; i >= 0; i-- {
		start, end := core.MonthBounds(now, i)
		total, err := s.repo.SumExpenses(ctx, userID, start, end, nil)
		if err != nil {
			return nil, fmt.Errorf("sum month %s: %w", start.Format("2006-01"), err)
		}
		out = append(out, MonthTotal{Month: start.Format("2006-01"), Total: total})
	}
	return out, nil
}
