package services

import (
	"context"
	"fmt"
	"time"

	"hisab/internal/cache"
	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/storage"
)

// AdminService backs the admin surface: platform stats, the user roster and
// ban management. Stats are briefly cached since they scan every table.
type AdminService struct {
	repo   *storage.Repository
	stats  *cache.LRU[storage.SystemStats]
	clock  core.Clock
	logger *log.Logger
}

const statsCacheKey = "system_stats"

func NewAdminService(repo *storage.Repository, clock core.Clock, logger *log.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		stats:  cache.NewLRU[storage.SystemStats](1, time.Minute),
		clock:  clock,
		logger: logger.WithComponent(log.ComponentApp),
	}
}

// Stats returns the platform aggregates, served from a one-minute cache.
func (s *AdminService) Stats(ctx context.Context) (storage.SystemStats, error) {
	if cached, ok := s.stats.Get(statsCacheKey); ok {
		return cached, nil
	}
	stats, err := s.repo.GetSystemStats(ctx)
	if err != nil {
		return storage.SystemStats{}, err
	}
	s.stats.Set(statsCacheKey, stats)
	return stats, nil
}

// Users returns every account with expense aggregates.
func (s *AdminService) Users(ctx context.Context) ([]storage.UserStats, error) {
	return s.repo.ListUsersWithStats(ctx)
}

// SetUserActive bans or unbans an account. Admins cannot ban themselves.
func (s *AdminService) SetUserActive(ctx context.Context, adminID, userID int64, active bool) error {
	if adminID == userID && !active {
		return fmt.Errorf("%w: cannot ban own account", core.ErrValidation)
	}
	if err := s.repo.SetUserActive(ctx, userID, active); err != nil {
		return err
	}

	kind := core.EventUserBanned
	if active {
		kind = core.EventUserUnbanned
	}
	if err := s.repo.CreateEvent(ctx, core.Event{
		UserID:      userID,
		Kind:        kind,
		Description: fmt.Sprintf("by admin %d", adminID),
		CreatedAt:   s.clock.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Ban event write failed",
			log.FieldUserID, userID, log.FieldError, err)
	}
	s.stats.Delete(statsCacheKey)
	return nil
}

// SignupCount is one day's registrations.
type SignupCount struct {
	Date  string // YYYY-MM-DD
	Count int64
}

const signupTrendDays = 7

// Analytics returns the signup trend for the trailing week, oldest first.
// Days without registrations appear with a zero count.
func (s *AdminService) Analytics(ctx context.Context) ([]SignupCount, error) {
	now := s.clock.Now()
	out := make([]SignupCount, 0, signupTrendDays)
	for i := signupTrendDays - 1; i >= 0; i-- {
		dayStart := core.StartOfDay(now.AddDate(0, 0, -i))
		count, err := s.repo.CountUsersCreatedBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("count signups %s: %w", dayStart.Format("2006-01-02"), err)
		}
		out = append(out, SignupCount{Date: dayStart.Format("2006-01-02"), Count: count})
	}
	return out, nil
}

// Events returns the recent audit trail.
func (s *AdminService) Events(ctx context.Context, limit int) ([]core.Event, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.repo.ListEvents(ctx, limit)
}
