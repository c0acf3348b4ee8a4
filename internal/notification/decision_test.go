package notification

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_tracker/internal/models"
)

func metersNorth(m float64) float64 {
	return m / (6371000 * math.Pi / 180)
}

func ptr[T any](v T) *T { return &v }

func testStop() models.Stop {
	return models.Stop{
		Base:         models.Base{ID: uuid.New()},
		Name:         "Main Gate",
		Latitude:     10,
		Longitude:    10,
		RadiusMeters: 100,
	}
}

func testUpdate(lat, lng float64, started bool) BusUpdate {
	return BusUpdate{
		OrganizationID: uuid.New(),
		BusID:          uuid.New(),
		NumberPlate:    "KA-01-1234",
		Latitude:       lat,
		Longitude:      lng,
		JustStarted:    started,
	}
}

func TestEvaluateBusStarted(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	sub := models.Subscription{IsActive: true, NotifyOnBusStart: true}

	got := Evaluate(sub, models.None[models.Stop](), testUpdate(1, 1, true), now, DefaultPolicy())
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationBusStarted, got[0].Kind)
	assert.Equal(t, "Bus started", got[0].Title)
	assert.Equal(t, "Bus KA-01-1234 has started", got[0].Message)
	assert.Equal(t, "KA-01-1234", got[0].PushData["numberPlate"])

	assert.Empty(t, Evaluate(sub, models.None[models.Stop](), testUpdate(1, 1, false), now, DefaultPolicy()))

	sub.NotifyOnBusStart = false
	assert.Empty(t, Evaluate(sub, models.None[models.Stop](), testUpdate(1, 1, true), now, DefaultPolicy()))
}

func TestEvaluateNearStopCooldown(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	stop := testStop()
	sub := models.Subscription{IsActive: true, NotifyOnNearStop: true, StopID: &stop.ID}
	upd := testUpdate(10+metersNorth(50), 10, false)

	got := Evaluate(sub, models.Some(stop), upd, t0, DefaultPolicy())
	require.Len(t, got, 1)
	d := got[0]
	assert.Equal(t, models.NotificationBusNearStop, d.Kind)
	assert.Equal(t, "Bus is nearby", d.Title)
	assert.Equal(t, "Bus KA-01-1234 is near Main Gate", d.Message)
	assert.Equal(t, float64(50), d.Payload["distanceMeters"])
	assert.Equal(t, float64(100), d.Payload["radiusMeters"])
	assert.Equal(t, float64(10), d.Payload["targetLatitude"])
	assert.Equal(t, "Main Gate", d.PushData["stopName"])
	assert.Equal(t, "50", d.PushData["distanceMeters"])
	require.NotNil(t, d.StopID)
	assert.Equal(t, stop.ID, *d.StopID)

	sub.LastNearStopNotifiedAt = ptr(t0)
	assert.Empty(t, Evaluate(sub, models.Some(stop), upd, t0.Add(2*time.Minute), DefaultPolicy()))
	assert.Len(t, Evaluate(sub, models.Some(stop), upd, t0.Add(6*time.Minute), DefaultPolicy()), 1)
	assert.Len(t, Evaluate(sub, models.Some(stop), upd, t0.Add(5*time.Minute), DefaultPolicy()), 1)
}

func TestEvaluateNearStopOutsideRadius(t *testing.T) {
	stop := testStop()
	sub := models.Subscription{IsActive: true, NotifyOnNearStop: true, StopID: &stop.ID}

	got := Evaluate(sub, models.Some(stop), testUpdate(10+metersNorth(150), 10, false), time.Now(), DefaultPolicy())
	assert.Empty(t, got)
}

func TestEvaluateNearStopTargetAndRadiusFallbacks(t *testing.T) {
	now := time.Now()
	stop := testStop()

	t.Run("user coordinates win over stop", func(t *testing.T) {
		sub := models.Subscription{IsActive: true, NotifyOnNearStop: true, UserLatitude: ptr(20.0), UserLongitude: ptr(20.0)}
		got := Evaluate(sub, models.Some(stop), testUpdate(20, 20+0.0001, false), now, DefaultPolicy())
		require.Len(t, got, 1)
		assert.Equal(t, float64(20), got[0].Payload["targetLatitude"])
	})

	t.Run("no target is skipped", func(t *testing.T) {
		sub := models.Subscription{IsActive: true, NotifyOnNearStop: true, UserLatitude: ptr(20.0)}
		assert.Empty(t, Evaluate(sub, models.None[models.Stop](), testUpdate(20, 20, false), now, DefaultPolicy()))
	})

	t.Run("user location without stop", func(t *testing.T) {
		sub := models.Subscription{IsActive: true, NotifyOnNearStop: true, UserLatitude: ptr(0.0), UserLongitude: ptr(0.0)}
		got := Evaluate(sub, models.None[models.Stop](), testUpdate(metersNorth(140), 0, false), now, DefaultPolicy())
		require.Len(t, got, 1)
		assert.Equal(t, "Bus KA-01-1234 is near your location", got[0].Message)
		assert.Equal(t, float64(150), got[0].Payload["radiusMeters"])
		assert.Nil(t, got[0].StopID)
		_, hasStop := got[0].PushData["stopName"]
		assert.False(t, hasStop)
	})

	t.Run("subscription radius overrides stop radius", func(t *testing.T) {
		sub := models.Subscription{IsActive: true, NotifyOnNearStop: true, NearRadiusMeters: ptr(300.0)}
		got := Evaluate(sub, models.Some(stop), testUpdate(10+metersNorth(250), 10, false), now, DefaultPolicy())
		require.Len(t, got, 1)
		assert.Equal(t, float64(300), got[0].Payload["radiusMeters"])
	})

	t.Run("zero radius is treated as unset", func(t *testing.T) {
		sub := models.Subscription{IsActive: true, NotifyOnNearStop: true, NearRadiusMeters: ptr(0.0)}
		got := Evaluate(sub, models.Some(stop), testUpdate(10+metersNorth(80), 10, false), now, DefaultPolicy())
		require.Len(t, got, 1)
		assert.Equal(t, float64(100), got[0].Payload["radiusMeters"])
	})
}

func TestEvaluateInactiveSubscription(t *testing.T) {
	stop := testStop()
	sub := models.Subscription{IsActive: false, NotifyOnBusStart: true, NotifyOnNearStop: true}
	assert.Empty(t, Evaluate(sub, models.Some(stop), testUpdate(10, 10, true), time.Now(), DefaultPolicy()))
}

func TestEvaluateBothKinds(t *testing.T) {
	stop := testStop()
	sub := models.Subscription{IsActive: true, NotifyOnBusStart: true, NotifyOnNearStop: true}
	got := Evaluate(sub, models.Some(stop), testUpdate(10, 10, true), time.Now(), DefaultPolicy())
	require.Len(t, got, 2)
	assert.Equal(t, models.NotificationBusStarted, got[0].Kind)
	assert.Equal(t, models.NotificationBusNearStop, got[1].Kind)
}
