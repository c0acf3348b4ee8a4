package store

import (
	"context"

	"github.com/google/uuid"

	"bus_tracker/internal/models"
)

func (s *GormStore) FindDriver(ctx context.Context, orgID, driverID uuid.UUID) (models.Driver, error) {
	var driver models.Driver
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, driverID).
		First(&driver).Error
	if err != nil {
		return models.Driver{}, translate(err, models.ErrDriverNotFound, "find driver")
	}
	return driver, nil
}

// FindStop returns None when the stop does not exist in the organization.
func (s *GormStore) FindStop(ctx context.Context, orgID, stopID uuid.UUID) (models.Optional[models.Stop], error) {
	var stops []models.Stop
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, stopID).
		Limit(1).
		Find(&stops).Error
	if err != nil {
		return models.None[models.Stop](), translate(err, models.ErrStopNotFound, "find stop")
	}
	if len(stops) == 0 {
		return models.None[models.Stop](), nil
	}
	return models.Some(stops[0]), nil
}
