package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/models"
)

// Authorizer decides whether a member of orgID may watch busID.
type Authorizer interface {
	CanJoin(ctx context.Context, orgID, busID uuid.UUID) bool
}

// BusLookup is the bus read the authorizer needs.
type BusLookup interface {
	FindBus(ctx context.Context, orgID, busID uuid.UUID) (models.Bus, error)
}

// BusAuthorizer allows a join when the bus belongs to the caller's organization. Only positive
// answers are cached, so a bus created after a refused join becomes joinable immediately.
type BusAuthorizer struct {
	buses BusLookup
	cache *cache.Cache
}

func NewBusAuthorizer(buses BusLookup, ttl time.Duration) *BusAuthorizer {
	return &BusAuthorizer{
		buses: buses,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (a *BusAuthorizer) CanJoin(ctx context.Context, orgID, busID uuid.UUID) bool {
	key := orgID.String() + ":" + busID.String()
	if _, ok := a.cache.Get(key); ok {
		return true
	}

	if _, err := a.buses.FindBus(ctx, orgID, busID); err != nil {
		if !errors.Is(err, models.ErrBusNotFound) {
			logrus.WithError(err).WithField("bus_id", busID).Error("Failed to authorize bus room join.")
		}
		return false
	}

	a.cache.SetDefault(key, struct{}{})
	return true
}
