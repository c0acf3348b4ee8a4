package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_tracker/internal/controllers"
	"bus_tracker/internal/middleware"
	"bus_tracker/internal/realtime"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter() (*gin.Engine, *middleware.JWTAuth) {
	auth := middleware.NewJWTAuth("routes-secret")
	hub := realtime.NewHub(nil)
	r := SetupRouter(Dependencies{
		Auth:          auth,
		Tracking:      controllers.NewTrackingController(nil),
		Buses:         controllers.NewBusController(nil),
		Subscriptions: controllers.NewSubscriptionController(nil),
		Notifications: controllers.NewNotificationController(nil),
		WebSocket:     controllers.NewWebSocketController(auth, hub, nil, nil),
		RateLimit:     100,
		RateBurst:     100,
	})
	return r, auth
}

func TestHealthz(t *testing.T) {
	r, _ := testRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRoutesRequireAuthentication(t *testing.T) {
	r, _ := testRouter()

	paths := []struct{ method, path string }{
		{http.MethodPost, "/tracking/me/location"},
		{http.MethodGet, "/driver/me/bus"},
		{http.MethodPost, "/app/subscriptions"},
		{http.MethodGet, "/app/subscriptions"},
		{http.MethodDelete, "/app/subscriptions/" + uuid.NewString()},
		{http.MethodPut, "/app/me/push-token"},
		{http.MethodGet, "/app/notifications"},
		{http.MethodPatch, "/app/notifications/" + uuid.NewString() + "/read"},
		{http.MethodGet, "/app/buses/" + uuid.NewString() + "/live"},
		{http.MethodGet, "/app/buses/" + uuid.NewString() + "/path"},
		{http.MethodGet, "/ws"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestDriverRoutesRejectRiders(t *testing.T) {
	r, auth := testRouter()
	tok, err := auth.GenerateToken(uuid.New(), uuid.New(), middleware.RoleRider, time.Hour)
	require.NoError(t, err)

	for _, p := range []struct{ method, path string }{
		{http.MethodPost, "/tracking/me/location"},
		{http.MethodGet, "/driver/me/bus"},
	} {
		req := httptest.NewRequest(p.method, p.path, nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", p.method, p.path)
	}
}
