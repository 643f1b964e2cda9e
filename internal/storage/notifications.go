package storage

import (
	"context"
	"fmt"
	"time"

	"hisab/internal/core"
)

const notificationColumns = "id, user_id, kind, title, body, budget_id, is_read, created_at"

// CreateNotification inserts a notification row.
func (r *Repository) CreateNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, title, body, budget_id, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, string(n.Kind), n.Title, n.Body, n.BudgetID, n.IsRead, utc(n.CreatedAt))
	if err != nil {
		return core.Notification{}, fmt.Errorf("insert notification: %w", translateErr(err))
	}
	n.ID, err = res.LastInsertId()
	if err != nil {
		return core.Notification{}, fmt.Errorf("notification insert id: %w", err)
	}
	return n, nil
}

// ListNotifications returns up to limit of the user's notifications, newest
// first.
func (r *Repository) ListNotifications(ctx context.Context, userID int64, limit int) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+notificationColumns+` FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var n core.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &n.BudgetID,
			&n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = core.NotificationKind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadNotificationCount counts the user's unread notifications.
func (r *Repository) UnreadNotificationCount(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

// MarkNotificationRead marks one of the user's notifications as read.
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return requireRow(res)
}

// MarkAllNotificationsRead marks every unread notification of the user as
// read and reports how many changed.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0", userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// HasRecentNotification reports whether the user already received a
// notification of the given kind for the given budget since the cutoff. Used
// to suppress duplicate budget alerts within one period.
func (r *Repository) HasRecentNotification(ctx context.Context, userID int64, kind core.NotificationKind, budgetID int64, since time.Time) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE user_id = ? AND kind = ? AND budget_id = ? AND created_at >= ?`,
		userID, string(kind), budgetID, utc(since)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("recent notification lookup: %w", err)
	}
	return n > 0, nil
}
