package notification

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"bus_tracker/internal/geo"
	"bus_tracker/internal/models"
)

// BusUpdate is one accepted location update handed to notification processing.
type BusUpdate struct {
	OrganizationID uuid.UUID
	BusID          uuid.UUID
	NumberPlate    string
	Latitude       float64
	Longitude      float64
	JustStarted    bool
	RecordedAt     time.Time
}

// Policy holds the tunables of the matcher.
type Policy struct {
	NearStopCooldown    time.Duration
	DefaultRadiusMeters float64
}

// DefaultPolicy matches the values riders have always seen.
func DefaultPolicy() Policy {
	return Policy{NearStopCooldown: 5 * time.Minute, DefaultRadiusMeters: 150}
}

// Decision is a notification that should fire for one subscription.
type Decision struct {
	Kind     models.NotificationType
	Title    string
	Message  string
	Payload  map[string]any
	PushData map[string]string
	StopID   *uuid.UUID
}

// Evaluate returns the notifications a subscription earns from an update. It has no side
// effects; stamping cooldowns is the caller's job.
func Evaluate(sub models.Subscription, stop models.Optional[models.Stop], upd BusUpdate, now time.Time, policy Policy) []Decision {
	if !sub.IsActive {
		return nil
	}

	var out []Decision

	if upd.JustStarted && sub.NotifyOnBusStart {
		out = append(out, busStarted(upd))
	}

	if sub.NotifyOnNearStop {
		if d, ok := nearStop(sub, stop, upd, now, policy); ok {
			out = append(out, d)
		}
	}

	return out
}

func busStarted(upd BusUpdate) Decision {
	return Decision{
		Kind:    models.NotificationBusStarted,
		Title:   "Bus started",
		Message: fmt.Sprintf("Bus %s has started", upd.NumberPlate),
		Payload: basePayload(upd),
		PushData: map[string]string{
			"type":        string(models.NotificationBusStarted),
			"busId":       upd.BusID.String(),
			"numberPlate": upd.NumberPlate,
		},
	}
}

func nearStop(sub models.Subscription, stop models.Optional[models.Stop], upd BusUpdate, now time.Time, policy Policy) (Decision, bool) {
	target, ok := resolveTarget(sub, stop)
	if !ok {
		return Decision{}, false
	}

	radius := resolveRadius(sub, stop, policy)
	distance := geo.DistanceMeters(upd.Latitude, upd.Longitude, target.Latitude, target.Longitude)
	if distance > radius {
		return Decision{}, false
	}

	if sub.LastNearStopNotifiedAt != nil && now.Sub(*sub.LastNearStopNotifiedAt) < policy.NearStopCooldown {
		return Decision{}, false
	}

	place := "your location"
	var stopID *uuid.UUID
	if s, ok := stop.Get(); ok {
		place = s.Name
		id := s.ID
		stopID = &id
	}

	payload := basePayload(upd)
	payload["targetLatitude"] = target.Latitude
	payload["targetLongitude"] = target.Longitude
	payload["distanceMeters"] = math.Round(distance)
	payload["radiusMeters"] = math.Round(radius)

	data := map[string]string{
		"type":           string(models.NotificationBusNearStop),
		"busId":          upd.BusID.String(),
		"numberPlate":    upd.NumberPlate,
		"distanceMeters": fmt.Sprintf("%.0f", math.Round(distance)),
	}
	if s, ok := stop.Get(); ok {
		data["stopName"] = s.Name
	}

	return Decision{
		Kind:     models.NotificationBusNearStop,
		Title:    "Bus is nearby",
		Message:  fmt.Sprintf("Bus %s is near %s", upd.NumberPlate, place),
		Payload:  payload,
		PushData: data,
		StopID:   stopID,
	}, true
}

// resolveTarget prefers the rider's own coordinates over the stop's.
func resolveTarget(sub models.Subscription, stop models.Optional[models.Stop]) (geo.Point, bool) {
	if sub.UserLatitude != nil && sub.UserLongitude != nil {
		return geo.Point{Latitude: *sub.UserLatitude, Longitude: *sub.UserLongitude}, true
	}
	if s, ok := stop.Get(); ok {
		return geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}, true
	}
	return geo.Point{}, false
}

// resolveRadius treats a non-positive radius as unset at every level.
func resolveRadius(sub models.Subscription, stop models.Optional[models.Stop], policy Policy) float64 {
	if sub.NearRadiusMeters != nil && *sub.NearRadiusMeters > 0 {
		return *sub.NearRadiusMeters
	}
	if s, ok := stop.Get(); ok && s.RadiusMeters > 0 {
		return s.RadiusMeters
	}
	return policy.DefaultRadiusMeters
}

func basePayload(upd BusUpdate) map[string]any {
	return map[string]any{
		"busId":       upd.BusID.String(),
		"numberPlate": upd.NumberPlate,
		"latitude":    upd.Latitude,
		"longitude":   upd.Longitude,
	}
}
