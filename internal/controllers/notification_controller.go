package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bus_tracker/internal/models"
)

// InboxStore backs the notification inbox and push token registration.
type InboxStore interface {
	ListNotifications(ctx context.Context, orgID, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, orgID, userID, notificationID uuid.UUID) (models.Notification, error)
	SetPushToken(ctx context.Context, orgID, userID uuid.UUID, token string) error
}

type NotificationController struct {
	store InboxStore
}

func NewNotificationController(store InboxStore) *NotificationController {
	return &NotificationController{store: store}
}

// List handles GET /app/notifications and returns the latest 100.
func (nc *NotificationController) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	items, err := nc.store.ListNotifications(c.Request.Context(), p.OrganizationID, p.UserID, 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkRead handles PATCH /app/notifications/:id/read.
func (nc *NotificationController) MarkRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	n, err := nc.store.MarkNotificationRead(c.Request.Context(), p.OrganizationID, p.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

// SetPushToken handles PUT /app/me/push-token. An empty token unregisters the device.
func (nc *NotificationController) SetPushToken(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := nc.store.SetPushToken(c.Request.Context(), p.OrganizationID, p.UserID, req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push token updated"})
}
