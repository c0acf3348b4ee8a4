package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bus_tracker/internal/models"
)

// FindBus loads a bus scoped to its organization.
func (s *GormStore) FindBus(ctx context.Context, orgID, busID uuid.UUID) (models.Bus, error) {
	var bus models.Bus
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, busID).
		First(&bus).Error
	if err != nil {
		return models.Bus{}, translate(err, models.ErrBusNotFound, "find bus")
	}
	return bus, nil
}

// RecordPosition stores the live position, flips the bus to running and appends the history
// entry in one transaction. The position only moves forward in time: a write older than the
// stored one fails with models.ErrStalePosition and leaves everything untouched.
func (s *GormStore) RecordPosition(ctx context.Context, upd models.PositionUpdate) (models.Bus, bool, error) {
	var bus models.Bus
	var justStarted bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ? AND id = ?", upd.OrganizationID, upd.BusID).First(&bus).Error; err != nil {
			return translate(err, models.ErrBusNotFound, "load bus")
		}
		justStarted = bus.TrackingStatus != models.TrackingRunning

		res := tx.Model(&models.Bus{}).
			Where("organization_id = ? AND id = ?", upd.OrganizationID, upd.BusID).
			Where("last_updated_at IS NULL OR last_updated_at <= ?", upd.RecordedAt).
			Updates(map[string]any{
				"current_latitude":  upd.Latitude,
				"current_longitude": upd.Longitude,
				"last_updated_at":   upd.RecordedAt,
				"tracking_status":   models.TrackingRunning,
			})
		if res.Error != nil {
			return fmt.Errorf("update bus position: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrStalePosition
		}

		entry := models.LocationLogEntry{
			OrganizationID: upd.OrganizationID,
			BusID:          upd.BusID,
			Latitude:       upd.Latitude,
			Longitude:      upd.Longitude,
			RecordedAt:     upd.RecordedAt,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append location log: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Bus{}, false, err
	}

	lat, lng, at := upd.Latitude, upd.Longitude, upd.RecordedAt
	bus.CurrentLatitude = &lat
	bus.CurrentLongitude = &lng
	bus.LastUpdatedAt = &at
	bus.TrackingStatus = models.TrackingRunning
	return bus, justStarted, nil
}

// MarkStaleStopped stops every running bus whose last accepted update is older than cutoff.
func (s *GormStore) MarkStaleStopped(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Bus{}).
		Where("tracking_status = ? AND last_updated_at < ?", models.TrackingRunning, cutoff).
		Update("tracking_status", models.TrackingStopped)
	if res.Error != nil {
		return 0, fmt.Errorf("mark stale buses: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListLocationLog returns the bus history since the given time, oldest first.
func (s *GormStore) ListLocationLog(ctx context.Context, orgID, busID uuid.UUID, since time.Time, limit int) ([]models.LocationLogEntry, error) {
	q := s.db.WithContext(ctx).
		Where("organization_id = ? AND bus_id = ?", orgID, busID)
	if !since.IsZero() {
		q = q.Where("recorded_at >= ?", since)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []models.LocationLogEntry
	if err := q.Order("recorded_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list location log: %w", err)
	}
	return entries, nil
}
