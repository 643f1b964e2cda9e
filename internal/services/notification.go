package services

import (
	"context"

	"hisab/internal/core"
	"hisab/internal/storage"
)

// notificationPageSize caps a notification listing.
const notificationPageSize = 50

// NotificationService exposes the user's notification feed.
type NotificationService struct {
	repo *storage.Repository
}

func NewNotificationService(repo *storage.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the newest notifications, capped at the page size.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]core.Notification, error) {
	return s.repo.ListNotifications(ctx, userID, notificationPageSize)
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.UnreadNotificationCount(ctx, userID)
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkNotificationRead(ctx, userID, id)
}

// MarkAllRead marks every unread notification as read and reports the count.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}
