package pg

import (
	"context"
	"database/sql"
	"fmt"

	"estatehub.app/internal/estate"
	"estatehub.app/internal/ids"
)

const notificationColumns = `n.id, n.user_id, n.title, n.message, n.type, n.category, n.is_read,
	n.action_url, n.created_at`

func scanNotification(row rowScanner) (estate.Notification, error) {
	var (
		n   estate.Notification
		url sql.NullString
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Category, &n.IsRead, &url, &n.CreatedAt); err != nil {
		return estate.Notification{}, notFound(err)
	}
	n.ActionURL = url.String
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, p estate.Page) ([]estate.Notification, int, error) {
	w := &where{}
	w.add("n.user_id = ?", userID)
	return listPage(ctx, s.db, notificationColumns, `from notifications n`, w, "n.created_at desc, n.id desc", p, scanNotification)
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from notifications where user_id = $1 and not is_read`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (s *Store) CreateNotification(ctx context.Context, n *estate.Notification) error {
	if n.ID == "" {
		n.ID = ids.New()
	}
	if n.Type == "" {
		n.Type = estate.NotifyInfo
	}
	if n.Category == "" {
		n.Category = estate.TopicSystem
	}
	err := s.db.QueryRowContext(ctx, `
		insert into notifications(id, user_id, title, message, type, category, action_url)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning created_at
	`, n.ID, n.UserID, n.Title, n.Message, string(n.Type), string(n.Category), nullIfEmpty(n.ActionURL),
	).Scan(&n.CreatedAt)
	if err != nil {
		return integrityError(err)
	}
	return nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return execOne(ctx, s.db,
		`update notifications set is_read = true where id = $1 and user_id = $2 and not is_read`, id, userID)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`update notifications set is_read = true where user_id = $1 and not is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return int(n), nil
}
