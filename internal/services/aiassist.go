package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hisab/internal/ai"
	"hisab/internal/cache"
	"hisab/internal/core"
	"hisab/internal/storage"
)

// AIAssistService fronts the model-backed features. When the feature flag is
// off the client is nil and every call fails with a validation error, so the
// rest of the system never needs to know whether AI is configured.
type AIAssistService struct {
	repo     *storage.Repository
	client   *ai.Client
	clock    core.Clock
	insights *cache.LRU[[]string]
}

const insightsWindowDays = 30

func NewAIAssistService(repo *storage.Repository, client *ai.Client, clock core.Clock) *AIAssistService {
	return &AIAssistService{
		repo:     repo,
		client:   client,
		clock:    clock,
		insights: cache.NewLRU[[]string](256, time.Hour),
	}
}

// Enabled reports whether the AI features are configured.
func (s *AIAssistService) Enabled() bool {
	return s.client != nil
}

// CategorySuggestion is a suggested category for an expense description.
type CategorySuggestion struct {
	CategoryID *int64
	Name       string
	Confidence float64
}

// SuggestCategory asks the model to pick one of the user's categories for a
// description. The suggestion is advisory; nothing is written.
func (s *AIAssistService) SuggestCategory(ctx context.Context, userID int64, description string) (CategorySuggestion, error) {
	if !s.Enabled() {
		return CategorySuggestion{}, fmt.Errorf("%w: AI features are disabled", core.ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return CategorySuggestion{}, fmt.Errorf("%w: %s", core.ErrValidation, core.ErrEmptyDescription)
	}

	categories, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return CategorySuggestion{}, fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		return CategorySuggestion{}, fmt.Errorf("%w: no categories to suggest from", core.ErrValidation)
	}

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}

	suggestion, err := s.client.Categorize(ctx, description, names)
	if err != nil {
		return CategorySuggestion{}, fmt.Errorf("categorize: %w", err)
	}

	out := CategorySuggestion{Name: suggestion.Category, Confidence: suggestion.Confidence}
	for _, c := range categories {
		if strings.EqualFold(c.Name, suggestion.Category) {
			id := c.ID
			out.CategoryID = &id
			out.Name = c.Name
			break
		}
	}
	return out, nil
}

// Insights returns short model-written observations on the user's trailing
// month of spending. Results are cached for an hour per user.
func (s *AIAssistService) Insights(ctx context.Context, userID int64) ([]string, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("%w: AI features are disabled", core.ErrValidation)
	}

	key := strconv.FormatInt(userID, 10)
	if cached, ok := s.insights.Get(key); ok {
		return cached, nil
	}

	summary, err := s.spendingSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summary == "" {
		return []string{"Not enough spending history yet to generate insights."}, nil
	}

	insights, err := s.client.Insights(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}
	s.insights.Set(key, insights)
	return insights, nil
}

// InvalidateInsights drops the cached insights for a user, used by the
// worker after a fresh precompute.
func (s *AIAssistService) InvalidateInsights(userID int64) {
	s.insights.Delete(strconv.FormatInt(userID, 10))
}

// spendingSummary formats the trailing window's category totals for the
// model prompt. Empty when there is no spending.
func (s *AIAssistService) spendingSummary(ctx context.Context, userID int64) (string, error) {
	now := s.clock.Now()
	start := core.StartOfDay(now.AddDate(0, 0, -insightsWindowDays))
	totals, err := s.repo.CategoryTotals(ctx, userID, start, core.EndOfDay(now))
	if err != nil {
		return "", fmt.Errorf("category totals: %w", err)
	}
	if len(totals) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, t := range totals {
		name := t.Name
		if name == "" {
			name = "Uncategorized"
		}
		fmt.Fprintf(&b, "%s: %.2f\n", name, t.Total.Float())
	}
	return b.String(), nil
}
