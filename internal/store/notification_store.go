package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bus_tracker/internal/models"
)

const DefaultNotificationLimit = 100

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListNotifications returns the rider's latest notifications, newest first.
func (s *GormStore) ListNotifications(ctx context.Context, orgID, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > DefaultNotificationLimit {
		limit = DefaultNotificationLimit
	}
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, orgID, userID, notificationID uuid.UUID) (models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ? AND id = ?", orgID, userID, notificationID).
		First(&n).Error
	if err != nil {
		return models.Notification{}, translate(err, models.ErrNotificationNotFound, "find notification")
	}
	if n.IsRead {
		return n, nil
	}

	if err := s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return models.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	n.IsRead = true
	return n, nil
}
