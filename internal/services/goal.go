package services

import (
	"context"
	"fmt"

	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/storage"
)

// GoalService owns savings goals. Progress is manual; a goal completes when
// its saved amount reaches the target.
type GoalService struct {
	repo   *storage.Repository
	clock  core.Clock
	logger *log.Logger
}

func NewGoalService(repo *storage.Repository, clock core.Clock, logger *log.Logger) *GoalService {
	return &GoalService{repo: repo, clock: clock, logger: logger.WithComponent(log.ComponentBudget)}
}

// Create validates and stores a goal.
func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	now := s.clock.Now()
	g.Completed = g.Current.Cents >= g.Target.Cents
	g.CreatedAt, g.UpdatedAt = now, now
	return s.repo.CreateGoal(ctx, g)
}

// Get returns one goal.
func (s *GoalService) Get(ctx context.Context, userID, id int64) (core.Goal, error) {
	return s.repo.GetGoal(ctx, userID, id)
}

// List returns all goals of the user.
func (s *GoalService) List(ctx context.Context, userID int64) ([]core.Goal, error) {
	return s.repo.ListGoals(ctx, userID)
}

// Update stores goal changes and handles the completion transition, which
// records a notification and an audit event exactly once.
func (s *GoalService) Update(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	previous, err := s.repo.GetGoal(ctx, g.UserID, g.ID)
	if err != nil {
		return core.Goal{}, err
	}

	now := s.clock.Now()
	g.Completed = g.Current.Cents >= g.Target.Cents
	g.UpdatedAt = now
	if err := s.repo.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, err
	}

	if g.Completed && !previous.Completed {
		if _, err := s.repo.CreateNotification(ctx, core.Notification{
			UserID:    g.UserID,
			Kind:      core.NotifySystem,
			Title:     fmt.Sprintf("Goal %q reached", g.Name),
			Body:      fmt.Sprintf("You saved %.2f and reached your goal.", g.Current.Float()),
			CreatedAt: now,
		}); err != nil {
			s.logger.ErrorContext(ctx, "Goal completion notification failed",
				log.FieldGoalID, g.ID, log.FieldError, err)
		}
		if err := s.repo.CreateEvent(ctx, core.Event{
			UserID:      g.UserID,
			Kind:        core.EventGoalCompleted,
			Description: fmt.Sprintf("goal %q completed", g.Name),
			CreatedAt:   now,
		}); err != nil {
			s.logger.ErrorContext(ctx, "Goal completion event failed",
				log.FieldGoalID, g.ID, log.FieldError, err)
		}
	}

	return s.repo.GetGoal(ctx, g.UserID, g.ID)
}

// Delete removes a goal.
func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteGoal(ctx, userID, id)
}
