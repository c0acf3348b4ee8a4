package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/geo"
	"bus_tracker/internal/models"
	"bus_tracker/internal/notification"
	"bus_tracker/internal/realtime"
)

// BusStore is the slice of persistence the tracking pipeline needs for buses.
type BusStore interface {
	FindBus(ctx context.Context, orgID, busID uuid.UUID) (models.Bus, error)
	// RecordPosition writes the live position and appends the history entry atomically.
	// justStarted reports a stopped -> running transition.
	RecordPosition(ctx context.Context, upd models.PositionUpdate) (bus models.Bus, justStarted bool, err error)
}

// DriverStore resolves a driver identity within an organization.
type DriverStore interface {
	FindDriver(ctx context.Context, orgID, driverID uuid.UUID) (models.Driver, error)
}

// Broadcaster pushes an event to every connection joined to a bus audience.
type Broadcaster interface {
	BroadcastToBus(busID uuid.UUID, event string, payload any)
}

// Dispatcher queues notification processing off the reporting path.
type Dispatcher interface {
	Dispatch(upd notification.BusUpdate)
}

// LocationResult is what the reporting driver gets back.
type LocationResult struct {
	BusID        uuid.UUID `json:"busId"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RecordedAt   time.Time `json:"recordedAt"`
	Throttled    bool      `json:"throttled"`
	Reason       string    `json:"reason,omitempty"`
	RetryAfterMs int64     `json:"retryAfterMs,omitempty"`
	JustStarted  bool      `json:"justStarted,omitempty"`
}

// PositionResult is the outcome of a persisted update.
type PositionResult struct {
	Bus         models.Bus
	JustStarted bool
	RecordedAt  time.Time
}

// LocationBroadcast is the live-map payload sent on every accepted update.
type LocationBroadcast struct {
	BusID      string  `json:"busId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RecordedAt string  `json:"recordedAt"`
}

// Service runs the location-update pipeline: throttle, persist, broadcast, then hand the
// update to notification processing.
type Service struct {
	buses    BusStore
	drivers  DriverStore
	policy   ThrottlePolicy
	hub      Broadcaster
	notifier Dispatcher
	locks    *busLocks
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(buses BusStore, drivers DriverStore, policy ThrottlePolicy, hub Broadcaster, notifier Dispatcher, opts ...Option) *Service {
	s := &Service{
		buses:    buses,
		drivers:  drivers,
		policy:   policy,
		hub:      hub,
		notifier: notifier,
		locks:    newBusLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveAssignedBus translates a driver identity into the bus it currently drives.
func (s *Service) ResolveAssignedBus(ctx context.Context, orgID, driverID uuid.UUID) (models.Bus, error) {
	driver, err := s.drivers.FindDriver(ctx, orgID, driverID)
	if err != nil {
		return models.Bus{}, err
	}

	busID, ok := driver.AssignedBus().Get()
	if !ok {
		return models.Bus{}, models.ErrNoBusAssigned
	}

	return s.buses.FindBus(ctx, orgID, busID)
}

// ReportLocation is the driver-facing entry point: the driver's self-report is resolved to
// the assigned bus and run through the pipeline.
func (s *Service) ReportLocation(ctx context.Context, orgID, driverID uuid.UUID, lat, lng float64) (LocationResult, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return LocationResult{}, ErrInvalidCoordinates
	}

	bus, err := s.ResolveAssignedBus(ctx, orgID, driverID)
	if err != nil {
		return LocationResult{}, err
	}

	return s.UpdateBusLocation(ctx, orgID, bus.ID, lat, lng)
}

// UpdateBusLocation throttles and, when accepted, persists and fans out a new position.
// Fanout failures never surface here; once the position and history are written the call
// succeeds. Fanout happens under the bus lock so broadcasts and dispatches follow the
// persisted order.
func (s *Service) UpdateBusLocation(ctx context.Context, orgID, busID uuid.UUID, lat, lng float64) (LocationResult, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return LocationResult{}, ErrInvalidCoordinates
	}

	unlock := s.locks.lock(busID)
	defer unlock()

	bus, err := s.buses.FindBus(ctx, orgID, busID)
	if err != nil {
		return LocationResult{}, err
	}

	now := s.now()
	decision := s.policy.Evaluate(bus.LastFix(), lat, lng, now)
	if !decision.Accept {
		logrus.WithFields(logrus.Fields{
			"bus_id":         busID,
			"distance_m":     fmt.Sprintf("%.2f", decision.Distance),
			"retry_after_ms": decision.RetryAfter.Milliseconds(),
		}).Debug("Location update throttled.")
		return throttledResult(bus, decision.Reason, decision.RetryAfter), nil
	}

	res, err := s.RecordAccepted(ctx, orgID, busID, lat, lng, now)
	if errors.Is(err, models.ErrStalePosition) {
		// Another replica stored a newer fix for this bus; report that one.
		current, findErr := s.buses.FindBus(ctx, orgID, busID)
		if findErr != nil {
			return LocationResult{}, findErr
		}
		return throttledResult(current, ReasonSuperseded, 0), nil
	}
	if err != nil {
		return LocationResult{}, err
	}

	logrus.WithFields(logrus.Fields{
		"bus_id":       busID,
		"org_id":       orgID,
		"reason":       decision.Reason,
		"just_started": res.JustStarted,
	}).Info("Bus location saved.")

	s.fanOut(res, lat, lng)

	return LocationResult{
		BusID:       busID,
		Latitude:    lat,
		Longitude:   lng,
		RecordedAt:  res.RecordedAt,
		Reason:      decision.Reason,
		JustStarted: res.JustStarted,
	}, nil
}

// RecordAccepted validates and persists an accepted update. Callers must hold the bus lock.
func (s *Service) RecordAccepted(ctx context.Context, orgID, busID uuid.UUID, lat, lng float64, now time.Time) (PositionResult, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return PositionResult{}, ErrInvalidCoordinates
	}

	bus, justStarted, err := s.buses.RecordPosition(ctx, models.PositionUpdate{
		OrganizationID: orgID,
		BusID:          busID,
		Latitude:       lat,
		Longitude:      lng,
		RecordedAt:     now,
	})
	if err != nil {
		return PositionResult{}, err
	}

	return PositionResult{Bus: bus, JustStarted: justStarted, RecordedAt: now}, nil
}

// fanOut runs while the bus lock is held, so both sinks must return promptly.
func (s *Service) fanOut(res PositionResult, lat, lng float64) {
	if s.hub != nil {
		s.hub.BroadcastToBus(res.Bus.ID, realtime.EventBusLocationUpdate, LocationBroadcast{
			BusID:      res.Bus.ID.String(),
			Latitude:   lat,
			Longitude:  lng,
			RecordedAt: res.RecordedAt.Format(time.RFC3339Nano),
		})
	}

	if s.notifier != nil {
		s.notifier.Dispatch(notification.BusUpdate{
			OrganizationID: res.Bus.OrganizationID,
			BusID:          res.Bus.ID,
			NumberPlate:    res.Bus.NumberPlate,
			Latitude:       lat,
			Longitude:      lng,
			JustStarted:    res.JustStarted,
			RecordedAt:     res.RecordedAt,
		})
	}
}

func throttledResult(bus models.Bus, reason string, retryAfter time.Duration) LocationResult {
	out := LocationResult{
		BusID:        bus.ID,
		Throttled:    true,
		Reason:       reason,
		RetryAfterMs: retryAfter.Milliseconds(),
	}
	if fix, ok := bus.LastFix().Get(); ok {
		out.Latitude = fix.Latitude
		out.Longitude = fix.Longitude
		out.RecordedAt = fix.RecordedAt
	}
	return out
}
