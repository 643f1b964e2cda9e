package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hisab/internal/amqp"
	"hisab/internal/auth"
	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/storage"
)

// JobPublisher enqueues background jobs. Nil-able: when the queue is not
// configured the account flow simply skips the async side effects.
type JobPublisher interface {
	PublishJob(ctx context.Context, job amqp.Job) error
}

// AccountService handles registration, login, token refresh and profile
// management.
type AccountService struct {
	repo      *storage.Repository
	tokens    *auth.TokenManager
	limiter   *auth.LoginLimiter
	publisher JobPublisher
	clock     core.Clock
	logger    *log.Logger
}

func NewAccountService(repo *storage.Repository, tokens *auth.TokenManager, limiter *auth.LoginLimiter, publisher JobPublisher, clock core.Clock, logger *log.Logger) *AccountService {
	return &AccountService{
		repo:      repo,
		tokens:    tokens,
		limiter:   limiter,
		publisher: publisher,
		clock:     clock,
		logger:    logger.WithComponent(log.ComponentAuth),
	}
}

// Session is what a successful register, login or refresh returns.
type Session struct {
	User   core.User
	Tokens auth.TokenPair
}

// Register creates an account, seeds its default categories and issues the
// first token pair. The welcome email goes through the job queue.
func (s *AccountService) Register(ctx context.Context, email, password, fullName, currency string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: invalid email", core.ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %s", core.ErrValidation, err)
	}
	if currency == "" {
		currency = "INR"
	}

	now := s.clock.Now()
	user, err := s.repo.CreateUser(ctx, core.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Currency:     currency,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Session{}, err
	}

	if err := s.repo.SeedDefaultCategories(ctx, user.ID, now); err != nil {
		return Session{}, fmt.Errorf("seed categories: %w", err)
	}

	if _, err := s.repo.CreateNotification(ctx, core.Notification{
		UserID:    user.ID,
		Kind:      core.NotifySystem,
		Title:     "Welcome to Hisab",
		Body:      "Your account is ready. Add your first expense to get started.",
		CreatedAt: now,
	}); err != nil {
		s.logger.ErrorContext(ctx, "Welcome notification failed",
			log.FieldUserID, user.ID, log.FieldError, err)
	}

	s.recordEvent(ctx, user.ID, core.EventUserRegistered, email)
	s.enqueueEmail(ctx, user.Email, "Welcome to Hisab",
		fmt.Sprintf("Hi %s,\n\nyour expense tracker account is ready.", displayName(user)))

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	return Session{User: user, Tokens: tokens}, nil
}

// Login verifies credentials under the brute-force lockout. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	if s.limiter.Locked(email) {
		return Session{}, core.ErrLocked
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.limiter.RecordFailure(email)
			return Session{}, core.ErrUnauthorized
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.limiter.RecordFailure(email)
		if s.limiter.Locked(email) {
			s.enqueueEmail(ctx, user.Email, "Account temporarily locked",
				fmt.Sprintf("Hi %s,\n\ntoo many failed sign-in attempts; your account is locked for a short while. If this wasn't you, change your password.", displayName(user)))
		}
		return Session{}, core.ErrUnauthorized
	}
	if !user.IsActive {
		return Session{}, core.ErrForbidden
	}

	s.limiter.Reset(email)
	s.recordEvent(ctx, user.ID, core.EventUserLogin, email)

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	return Session{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The user is
// reloaded so a ban invalidates outstanding refresh tokens.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return Session{}, err
	}
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Session{}, core.ErrUnauthorized
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return Session{}, core.ErrForbidden
	}

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	return Session{User: user, Tokens: tokens}, nil
}

// Profile returns the user's account record.
func (s *AccountService) Profile(ctx context.Context, userID int64) (core.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// UpdateProfile stores the mutable profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, fullName, currency string) (core.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	if fullName != "" {
		user.FullName = fullName
	}
	if currency != "" {
		user.Currency = currency
	}
	user.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		return core.User{}, err
	}
	return user, nil
}

func (s *AccountService) enqueueEmail(ctx context.Context, to, subject, body string) {
	if s.publisher == nil {
		return
	}
	job, err := amqp.NewJob(amqp.JobSendEmail, amqp.EmailPayload{To: to, Subject: subject, Body: body})
	if err == nil {
		err = s.publisher.PublishJob(ctx, job)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Email job enqueue failed",
			log.FieldEmailAddress, to, log.FieldError, err)
	}
}

func (s *AccountService) recordEvent(ctx context.Context, userID int64, kind core.EventKind, desc string) {
	if err := s.repo.CreateEvent(ctx, core.Event{
		UserID:      userID,
		Kind:        kind,
		Description: desc,
		CreatedAt:   s.clock.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Audit event write failed",
			log.FieldUserID, userID, log.FieldError, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func displayName(u core.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
