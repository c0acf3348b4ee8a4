package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_tracker/internal/middleware"
	"bus_tracker/internal/models"
	"bus_tracker/internal/tracking"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

type caller struct {
	userID uuid.UUID
	orgID  uuid.UUID
	token  string
}

func newCaller(t *testing.T, role string) caller {
	t.Helper()
	c := caller{userID: uuid.New(), orgID: uuid.New()}
	tok, err := middleware.NewJWTAuth(testSecret).GenerateToken(c.userID, c.orgID, role, time.Hour)
	require.NoError(t, err)
	c.token = tok
	return c
}

func newRouter(register func(r *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	g := r.Group("/")
	g.Use(middleware.NewJWTAuth(testSecret).RequireAuth())
	register(g)
	return r
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type fakeTracker struct {
	result tracking.LocationResult
	bus    models.Bus
	err    error

	gotOrg, gotDriver uuid.UUID
	gotLat, gotLng    float64
}

func (f *fakeTracker) ReportLocation(_ context.Context, orgID, driverID uuid.UUID, lat, lng float64) (tracking.LocationResult, error) {
	f.gotOrg, f.gotDriver, f.gotLat, f.gotLng = orgID, driverID, lat, lng
	return f.result, f.err
}

func (f *fakeTracker) ResolveAssignedBus(_ context.Context, orgID, driverID uuid.UUID) (models.Bus, error) {
	f.gotOrg, f.gotDriver = orgID, driverID
	return f.bus, f.err
}

func (f *fakeTracker) UpdateBusLocation(_ context.Context, _, _ uuid.UUID, lat, lng float64) (tracking.LocationResult, error) {
	f.gotLat, f.gotLng = lat, lng
	return f.result, f.err
}

func trackingRouter(f *fakeTracker) *gin.Engine {
	tc := NewTrackingController(f)
	return newRouter(func(g *gin.RouterGroup) {
		g.POST("/tracking/me/location", tc.ReportMyLocation)
		g.GET("/driver/me/bus", tc.MyBus)
	})
}

func TestReportMyLocationAccepted(t *testing.T) {
	drv := newCaller(t, middleware.RoleDriver)
	f := &fakeTracker{result: tracking.LocationResult{BusID: uuid.New(), Latitude: -1.28, Longitude: 36.82, Reason: tracking.ReasonFirstReport}}
	r := trackingRouter(f)

	w := do(r, http.MethodPost, "/tracking/me/location", drv.token, gin.H{"latitude": -1.28, "longitude": 36.82})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, drv.orgID, f.gotOrg)
	assert.Equal(t, drv.userID, f.gotDriver)
	assert.InDelta(t, -1.28, f.gotLat, 1e-9)

	body := decode(t, w)
	assert.NotContains(t, body, "throttled")
	loc := body["location"].(map[string]any)
	assert.Equal(t, f.result.BusID.String(), loc["busId"])
}

func TestReportMyLocationThrottled(t *testing.T) {
	drv := newCaller(t, middleware.RoleDriver)
	f := &fakeTracker{result: tracking.LocationResult{Throttled: true, Reason: tracking.ReasonThrottled, RetryAfterMs: 3000}}
	r := trackingRouter(f)

	w := do(r, http.MethodPost, "/tracking/me/location", drv.token, gin.H{"latitude": 0, "longitude": 0})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["throttled"])
	assert.Equal(t, tracking.ReasonThrottled, body["reason"])
	assert.EqualValues(t, 3000, body["retryAfterMs"])
}

func TestReportMyLocationErrors(t *testing.T) {
	drv := newCaller(t, middleware.RoleDriver)

	cases := []struct {
		name string
		body any
		err  error
		want int
	}{
		{"missing longitude", gin.H{"latitude": 1}, nil, http.StatusBadRequest},
		{"invalid coordinates", gin.H{"latitude": 91, "longitude": 0}, tracking.ErrInvalidCoordinates, http.StatusBadRequest},
		{"no bus assigned", gin.H{"latitude": 1, "longitude": 1}, models.ErrNoBusAssigned, http.StatusNotFound},
		{"unknown driver", gin.H{"latitude": 1, "longitude": 1}, models.ErrDriverNotFound, http.StatusNotFound},
		{"storage failure", gin.H{"latitude": 1, "longitude": 1}, assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := trackingRouter(&fakeTracker{err: tc.err})
			w := do(r, http.MethodPost, "/tracking/me/location", drv.token, tc.body)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestReportMyLocationRequiresToken(t *testing.T) {
	r := trackingRouter(&fakeTracker{})
	w := do(r, http.MethodPost, "/tracking/me/location", "", gin.H{"latitude": 1, "longitude": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMyBus(t *testing.T) {
	drv := newCaller(t, middleware.RoleDriver)
	bus := models.Bus{NumberPlate: "KBX 123A", OrganizationID: drv.orgID}
	bus.ID = uuid.New()
	r := trackingRouter(&fakeTracker{bus: bus})

	w := do(r, http.MethodGet, "/driver/me/bus", drv.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)["bus"].(map[string]any)
	assert.Equal(t, "KBX 123A", got["numberPlate"])
}

type fakeBusReader struct {
	bus     models.Bus
	err     error
	entries []models.LocationLogEntry
	since   time.Time
	limit   int
}

func (f *fakeBusReader) FindBus(_ context.Context, _, busID uuid.UUID) (models.Bus, error) {
	if f.err != nil {
		return models.Bus{}, f.err
	}
	return f.bus, nil
}

func (f *fakeBusReader) ListLocationLog(_ context.Context, _, _ uuid.UUID, since time.Time, limit int) ([]models.LocationLogEntry, error) {
	f.since, f.limit = since, limit
	return f.entries, nil
}

func busRouter(f *fakeBusReader) *gin.Engine {
	bc := NewBusController(f)
	return newRouter(func(g *gin.RouterGroup) {
		g.GET("/app/buses/:busId/live", bc.Live)
		g.GET("/app/buses/:busId/path", bc.Path)
	})
}

func TestBusLive(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)
	lat, lng, at := -1.3, 36.8, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	bus := models.Bus{NumberPlate: "KCA 001B", TrackingStatus: models.TrackingRunning, CurrentLatitude: &lat, CurrentLongitude: &lng, LastUpdatedAt: &at}
	bus.ID = uuid.New()
	r := busRouter(&fakeBusReader{bus: bus})

	w := do(r, http.MethodGet, "/app/buses/"+bus.ID.String()+"/live", rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "running", body["trackingStatus"])
	loc := body["location"].(map[string]any)
	assert.InDelta(t, lat, loc["latitude"], 1e-9)

	bus.CurrentLatitude = nil
	r = busRouter(&fakeBusReader{bus: bus})
	w = do(r, http.MethodGet, "/app/buses/"+bus.ID.String()+"/live", rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["location"])
}

func TestBusLiveErrors(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)

	w := do(busRouter(&fakeBusReader{}), http.MethodGet, "/app/buses/not-a-uuid/live", rider.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(busRouter(&fakeBusReader{err: models.ErrBusNotFound}), http.MethodGet, "/app/buses/"+uuid.NewString()+"/live", rider.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBusPath(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)
	f := &fakeBusReader{entries: []models.LocationLogEntry{
		{Latitude: -1.0, Longitude: 36.0},
		{Latitude: -1.1, Longitude: 36.1},
	}}
	r := busRouter(f)

	w := do(r, http.MethodGet, "/app/buses/"+uuid.NewString()+"/path?since=2026-03-01T00:00:00Z", rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), f.since.UTC())
	assert.Equal(t, maxPathPoints, f.limit)

	body := decode(t, w)
	assert.Equal(t, "LineString", body["type"])
	coords := body["coordinates"].([]any)
	require.Len(t, coords, 2)
	first := coords[0].([]any)
	assert.InDelta(t, 36.0, first[0], 1e-9)
	assert.InDelta(t, -1.0, first[1], 1e-9)
}

func TestBusPathEmptyAndBadSince(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)
	r := busRouter(&fakeBusReader{})

	w := do(r, http.MethodGet, "/app/buses/"+uuid.NewString()+"/path", rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "LineString", body["type"])
	assert.Empty(t, body["coordinates"])

	w = do(r, http.MethodGet, "/app/buses/"+uuid.NewString()+"/path?since=yesterday", rider.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeSubStore struct {
	saved       *models.Subscription
	upsertErr   error
	subs        []models.Subscription
	deactivated uuid.UUID
	deactErr    error
}

func (f *fakeSubStore) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	sub.ID = uuid.New()
	sub.IsActive = true
	cp := *sub
	f.saved = &cp
	return nil
}

func (f *fakeSubStore) ListUserSubscriptions(_ context.Context, _, _ uuid.UUID) ([]models.Subscription, error) {
	return f.subs, nil
}

func (f *fakeSubStore) DeactivateSubscription(_ context.Context, _, _, subID uuid.UUID) error {
	f.deactivated = subID
	return f.deactErr
}

func subscriptionRouter(f *fakeSubStore) *gin.Engine {
	sc := NewSubscriptionController(f)
	return newRouter(func(g *gin.RouterGroup) {
		g.POST("/app/subscriptions", sc.Subscribe)
		g.GET("/app/subscriptions", sc.List)
		g.DELETE("/app/subscriptions/:subscriptionId", sc.Unsubscribe)
	})
}

func TestSubscribeDefaults(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)
	f := &fakeSubStore{}
	busID := uuid.New()

	w := do(subscriptionRouter(f), http.MethodPost, "/app/subscriptions", rider.token, gin.H{"busId": busID.String()})
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, f.saved)
	assert.Equal(t, rider.orgID, f.saved.OrganizationID)
	assert.Equal(t, rider.userID, f.saved.UserID)
	assert.Equal(t, busID, f.saved.BusID)
	assert.True(t, f.saved.NotifyOnBusStart)
	assert.True(t, f.saved.NotifyOnNearStop)
	assert.Nil(t, f.saved.StopID)

	sub := decode(t, w)["subscription"].(map[string]any)
	assert.Equal(t, true, sub["isActive"])
}

func TestSubscribeWithPreferences(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)
	f := &fakeSubStore{}
	stopID := uuid.New()

	w := do(subscriptionRouter(f), http.MethodPost, "/app/subscriptions", rider.token, gin.H{
		"busId":            uuid.NewString(),
		"stopId":           stopID.String(),
		"notifyOnBusStart": false,
		"userLatitude":     -1.29,
		"userLongitude":    36.82,
		"nearRadiusMeters": 300,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, f.saved.StopID)
	assert.Equal(t, stopID, *f.saved.StopID)
	assert.False(t, f.saved.NotifyOnBusStart)
	assert.True(t, f.saved.NotifyOnNearStop)
	assert.InDelta(t, 300, *f.saved.NearRadiusMeters, 1e-9)
	assert.InDelta(t, -1.29, *f.saved.UserLatitude, 1e-9)
}

func TestSubscribeRejects(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)

	cases := []struct {
		name  string
		body  any
		store *fakeSubStore
		want  int
	}{
		{"missing bus", gin.H{}, &fakeSubStore{}, http.StatusBadRequest},
		{"bad bus id", gin.H{"busId": "nope"}, &fakeSubStore{}, http.StatusBadRequest},
		{"bad stop id", gin.H{"busId": uuid.NewString(), "stopId": "nope"}, &fakeSubStore{}, http.StatusBadRequest},
		{"half a location", gin.H{"busId": uuid.NewString(), "userLatitude": 1.0}, &fakeSubStore{}, http.StatusBadRequest},
		{"location out of range", gin.H{"busId": uuid.NewString(), "userLatitude": 1.0, "userLongitude": 200.0}, &fakeSubStore{}, http.StatusBadRequest},
		{"bus in another org", gin.H{"busId": uuid.NewString()}, &fakeSubStore{upsertErr: models.ErrBusNotFound}, http.StatusNotFound},
		{"unknown stop", gin.H{"busId": uuid.NewString()}, &fakeSubStore{upsertErr: models.ErrStopNotFound}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(subscriptionRouter(tc.store), http.MethodPost, "/app/subscriptions", rider.token, tc.body)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusBadRequest {
				assert.Nil(t, tc.store.saved)
			}
		})
	}
}

func TestListAndUnsubscribe(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)
	sub := models.Subscription{BusID: uuid.New(), IsActive: true}
	sub.ID = uuid.New()
	f := &fakeSubStore{subs: []models.Subscription{sub}}
	r := subscriptionRouter(f)

	w := do(r, http.MethodGet, "/app/subscriptions", rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["subscriptions"], 1)

	w = do(r, http.MethodDelete, "/app/subscriptions/"+sub.ID.String(), rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sub.ID, f.deactivated)

	f.deactErr = models.ErrSubscriptionNotFound
	w = do(r, http.MethodDelete, "/app/subscriptions/"+uuid.NewString(), rider.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type fakeInbox struct {
	items  []models.Notification
	limit  int
	read   models.Notification
	err    error
	tokens []string
}

func (f *fakeInbox) ListNotifications(_ context.Context, _, _ uuid.UUID, limit int) ([]models.Notification, error) {
	f.limit = limit
	return f.items, nil
}

func (f *fakeInbox) MarkNotificationRead(_ context.Context, _, _, id uuid.UUID) (models.Notification, error) {
	if f.err != nil {
		return models.Notification{}, f.err
	}
	n := f.read
	n.ID = id
	n.IsRead = true
	return n, nil
}

func (f *fakeInbox) SetPushToken(_ context.Context, _, _ uuid.UUID, token string) error {
	f.tokens = append(f.tokens, token)
	return f.err
}

func inboxRouter(f *fakeInbox) *gin.Engine {
	nc := NewNotificationController(f)
	return newRouter(func(g *gin.RouterGroup) {
		g.GET("/app/notifications", nc.List)
		g.PATCH("/app/notifications/:id/read", nc.MarkRead)
		g.PUT("/app/me/push-token", nc.SetPushToken)
	})
}

func TestNotificationInbox(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)
	f := &fakeInbox{items: []models.Notification{{Type: models.NotificationBusStarted, Title: "Bus started"}}}
	r := inboxRouter(f)

	w := do(r, http.MethodGet, "/app/notifications", rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, f.limit)
	assert.Len(t, decode(t, w)["notifications"], 1)

	id := uuid.New()
	w = do(r, http.MethodPatch, "/app/notifications/"+id.String()+"/read", rider.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	n := decode(t, w)["notification"].(map[string]any)
	assert.Equal(t, id.String(), n["id"])
	assert.Equal(t, true, n["isRead"])

	f.err = models.ErrNotificationNotFound
	w = do(r, http.MethodPatch, "/app/notifications/"+id.String()+"/read", rider.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetPushToken(t *testing.T) {
	rider := newCaller(t, middleware.RoleRider)
	f := &fakeInbox{}
	r := inboxRouter(f)

	w := do(r, http.MethodPut, "/app/me/push-token", rider.token, gin.H{"token": "device-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPut, "/app/me/push-token", rider.token, gin.H{"token": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"device-1", ""}, f.tokens)

	f.err = models.ErrUserNotFound
	w = do(r, http.MethodPut, "/app/me/push-token", rider.token, gin.H{"token": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
