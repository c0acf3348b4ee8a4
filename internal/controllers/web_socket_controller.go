package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/middleware"
	"bus_tracker/internal/realtime"
)

// WebSocketController upgrades authenticated callers onto the realtime hub. Riders join bus
// rooms; drivers may also stream their position.
type WebSocketController struct {
	auth     *middleware.JWTAuth
	hub      *realtime.Hub
	tracker  LocationReporter
	upgrader websocket.Upgrader
}

func NewWebSocketController(auth *middleware.JWTAuth, hub *realtime.Hub, tracker LocationReporter, allowedOrigins []string) *WebSocketController {
	return &WebSocketController{
		auth:    auth,
		hub:     hub,
		tracker: tracker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// HandleWebSocket is the gin handler for GET /ws. The token may come from the Authorization
// header, the token query parameter or the accessToken cookie.
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	tokenString, ok := middleware.ExtractToken(c.Request)
	if !ok {
		logrus.Warn("WebSocket connection attempt: missing token.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}

	p, err := wc.auth.ValidateToken(tokenString)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket connection attempt: invalid token.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}

	client := realtime.NewClient(wc.hub, conn, realtime.DefaultSendBuffer)
	if err := client.Authenticate(realtime.Identity{
		UserID:         p.UserID,
		OrganizationID: p.OrganizationID,
		Role:           p.Role,
	}); err != nil {
		conn.Close()
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  p.UserID,
		"role":     p.Role,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("WebSocket connection established.")

	client.Serve(c.Request.Context(), wc)

	logrus.WithFields(logrus.Fields{
		"user_id":  p.UserID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("WebSocket connection closed.")
}

// HandleDriverLocation runs a socket location report through the same pipeline as the HTTP
// endpoint and acknowledges it to the driver.
func (wc *WebSocketController) HandleDriverLocation(ctx context.Context, c *realtime.Client, msg realtime.DriverLocationMessage) {
	if msg.Latitude == nil || msg.Longitude == nil {
		c.Send(realtime.EventError, gin.H{"message": "latitude and longitude are required"})
		return
	}

	id, ok := c.Identity().Get()
	if !ok || id.Role != middleware.RoleDriver {
		logrus.Warn("Non-driver client sent a location update. Ignoring.")
		c.Send(realtime.EventError, gin.H{"message": "only drivers can send location updates"})
		return
	}

	bus, err := wc.tracker.ResolveAssignedBus(ctx, id.OrganizationID, id.UserID)
	if err != nil {
		logrus.WithError(err).WithField("driver_id", id.UserID).Warn("Socket location update without a resolvable bus.")
		wc.sendError(c, err)
		return
	}

	if msg.BusID != "" {
		claimed, err := uuid.Parse(msg.BusID)
		if err != nil || claimed != bus.ID {
			logrus.WithFields(logrus.Fields{
				"driver_id":    id.UserID,
				"assigned_bus": bus.ID,
				"claimed_bus":  msg.BusID,
			}).Warn("Driver sent location for a bus other than the assigned one. Denying.")
			c.Send(realtime.EventError, gin.H{"message": "bus mismatch"})
			return
		}
	}

	res, err := wc.tracker.UpdateBusLocation(ctx, id.OrganizationID, bus.ID, *msg.Latitude, *msg.Longitude)
	if err != nil {
		wc.sendError(c, err)
		return
	}
	c.Send(realtime.EventLocationAck, res)
}

func (wc *WebSocketController) sendError(c *realtime.Client, err error) {
	status, msg := classifyError(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).Error("Socket location update failed.")
	}
	c.Send(realtime.EventError, gin.H{"message": msg})
}
