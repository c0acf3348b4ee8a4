package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bus_tracker/internal/models"
)

// FindPushToken returns the user's push token. A missing user or an empty token is None.
func (s *GormStore) FindPushToken(ctx context.Context, orgID, userID uuid.UUID) (models.Optional[string], error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Select("id", "push_token").
		Where("organization_id = ? AND id = ?", orgID, userID).
		Limit(1).
		Find(&users).Error
	if err != nil {
		return models.None[string](), fmt.Errorf("find push token: %w", err)
	}
	if len(users) == 0 || users[0].PushToken == "" {
		return models.None[string](), nil
	}
	return models.Some(users[0].PushToken), nil
}

// SetPushToken registers (or clears, with an empty token) the user's device token.
func (s *GormStore) SetPushToken(ctx context.Context, orgID, userID uuid.UUID, token string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("organization_id = ? AND id = ?", orgID, userID).
		Update("push_token", token)
	if res.Error != nil {
		return fmt.Errorf("set push token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// RevokePushToken clears a token the push provider reported as expired, for whichever users
// still hold it.
func (s *GormStore) RevokePushToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("push_token = ?", token).
		Update("push_token", "").Error
	if err != nil {
		return fmt.Errorf("revoke push token: %w", err)
	}
	return nil
}
