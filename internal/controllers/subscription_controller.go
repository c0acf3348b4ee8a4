package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bus_tracker/internal/geo"
	"bus_tracker/internal/models"
)

// SubscriptionStore is what the rider subscription endpoints need.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	ListUserSubscriptions(ctx context.Context, orgID, userID uuid.UUID) ([]models.Subscription, error)
	DeactivateSubscription(ctx context.Context, orgID, userID, subID uuid.UUID) error
}

type SubscriptionController struct {
	store SubscriptionStore
}

func NewSubscriptionController(store SubscriptionStore) *SubscriptionController {
	return &SubscriptionController{store: store}
}

type subscriptionRequest struct {
	BusID            string   `json:"busId" binding:"required"`
	StopID           *string  `json:"stopId"`
	NotifyOnBusStart *bool    `json:"notifyOnBusStart"`
	NotifyOnNearStop *bool    `json:"notifyOnNearStop"`
	UserLatitude     *float64 `json:"userLatitude"`
	UserLongitude    *float64 `json:"userLongitude"`
	NearRadiusMeters *float64 `json:"nearRadiusMeters"`
}

// Subscribe handles POST /app/subscriptions. Subscribing again to the same bus replaces the
// preferences of the existing subscription.
func (sc *SubscriptionController) Subscribe(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "busId is required"})
		return
	}

	busID, err := uuid.Parse(req.BusID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid busId"})
		return
	}

	sub := models.Subscription{
		OrganizationID:   p.OrganizationID,
		UserID:           p.UserID,
		BusID:            busID,
		NotifyOnBusStart: boolOr(req.NotifyOnBusStart, true),
		NotifyOnNearStop: boolOr(req.NotifyOnNearStop, true),
		NearRadiusMeters: req.NearRadiusMeters,
	}

	if req.StopID != nil && *req.StopID != "" {
		stopID, err := uuid.Parse(*req.StopID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stopId"})
			return
		}
		sub.StopID = &stopID
	}

	if (req.UserLatitude == nil) != (req.UserLongitude == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userLatitude and userLongitude must be sent together"})
		return
	}
	if req.UserLatitude != nil {
		if !geo.ValidCoordinates(*req.UserLatitude, *req.UserLongitude) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates"})
			return
		}
		sub.UserLatitude = req.UserLatitude
		sub.UserLongitude = req.UserLongitude
	}

	if err := sc.store.UpsertSubscription(c.Request.Context(), &sub); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// List handles GET /app/subscriptions.
func (sc *SubscriptionController) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	subs, err := sc.store.ListUserSubscriptions(c.Request.Context(), p.OrganizationID, p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// Unsubscribe handles DELETE /app/subscriptions/:subscriptionId.
func (sc *SubscriptionController) Unsubscribe(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	subID, ok := uuidParam(c, "subscriptionId")
	if !ok {
		return
	}

	if err := sc.store.DeactivateSubscription(c.Request.Context(), p.OrganizationID, p.UserID, subID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
