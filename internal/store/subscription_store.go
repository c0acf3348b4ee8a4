package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bus_tracker/internal/models"
)

// ListActiveSubscriptions returns the active subscriptions for one bus.
func (s *GormStore) ListActiveSubscriptions(ctx context.Context, orgID, busID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND bus_id = ? AND is_active = ?", orgID, busID, true).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	return subs, nil
}

// MarkNotified stamps the cooldown column for the fired kind.
func (s *GormStore) MarkNotified(ctx context.Context, subID uuid.UUID, kind models.NotificationType, at time.Time) error {
	var column string
	switch kind {
	case models.NotificationBusStarted:
		column = "last_start_notified_at"
	case models.NotificationBusNearStop:
		column = "last_near_stop_notified_at"
	default:
		return fmt.Errorf("unknown notification type %q", kind)
	}

	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", subID).
		Update(column, at)
	if res.Error != nil {
		return fmt.Errorf("mark notified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrSubscriptionNotFound
	}
	return nil
}

// UpsertSubscription creates the rider's subscription to a bus or replaces its preferences,
// reactivating it if needed. The bus and the optional stop must belong to the organization.
// On return sub holds the stored row.
func (s *GormStore) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var busCount int64
		if err := tx.Model(&models.Bus{}).
			Where("organization_id = ? AND id = ?", sub.OrganizationID, sub.BusID).
			Count(&busCount).Error; err != nil {
			return fmt.Errorf("check bus: %w", err)
		}
		if busCount == 0 {
			return models.ErrBusNotFound
		}

		if sub.StopID != nil {
			var stopCount int64
			if err := tx.Model(&models.Stop{}).
				Where("organization_id = ? AND id = ?", sub.OrganizationID, *sub.StopID).
				Count(&stopCount).Error; err != nil {
				return fmt.Errorf("check stop: %w", err)
			}
			if stopCount == 0 {
				return models.ErrStopNotFound
			}
		}

		sub.IsActive = true
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "organization_id"}, {Name: "user_id"}, {Name: "bus_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"stop_id",
				"notify_on_bus_start",
				"notify_on_near_stop",
				"user_latitude",
				"user_longitude",
				"near_radius_meters",
				"is_active",
				"updated_at",
			}),
		}).Create(sub).Error
		if err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}

		// On conflict the generated ID is not the stored one; reload by the natural key.
		var stored models.Subscription
		if err := tx.Where("organization_id = ? AND user_id = ? AND bus_id = ?", sub.OrganizationID, sub.UserID, sub.BusID).
			First(&stored).Error; err != nil {
			return fmt.Errorf("reload subscription: %w", err)
		}
		*sub = stored
		return nil
	})
}

// DeactivateSubscription soft-deletes one of the rider's subscriptions.
func (s *GormStore) DeactivateSubscription(ctx context.Context, orgID, userID, subID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("organization_id = ? AND user_id = ? AND id = ?", orgID, userID, subID).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrSubscriptionNotFound
	}
	return nil
}

// ListUserSubscriptions returns the rider's active subscriptions, newest first.
func (s *GormStore) ListUserSubscriptions(ctx context.Context, orgID, userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ? AND is_active = ?", orgID, userID, true).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list user subscriptions: %w", err)
	}
	return subs, nil
}
