package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"bus_tracker/internal/models"
	"bus_tracker/internal/push"
)

// Store is the persistence the processor reads and writes.
type Store interface {
	ListActiveSubscriptions(ctx context.Context, orgID, busID uuid.UUID) ([]models.Subscription, error)
	FindStop(ctx context.Context, orgID, stopID uuid.UUID) (models.Optional[models.Stop], error)
	FindPushToken(ctx context.Context, orgID, userID uuid.UUID) (models.Optional[string], error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	MarkNotified(ctx context.Context, subID uuid.UUID, kind models.NotificationType, at time.Time) error
}

// Processor turns bus updates into notification records, push messages and cooldown stamps.
type Processor struct {
	store  Store
	push   push.Gateway
	policy Policy
	now    func() time.Time
}

func NewProcessor(store Store, gateway push.Gateway, policy Policy) *Processor {
	if gateway == nil {
		gateway = push.NopGateway{}
	}
	return &Processor{
		store:  store,
		push:   gateway,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProcessUpdate evaluates every active subscription for the bus. Subscriptions are handled
// independently; one failing never stops the others.
func (p *Processor) ProcessUpdate(ctx context.Context, upd BusUpdate) {
	subs, err := p.store.ListActiveSubscriptions(ctx, upd.OrganizationID, upd.BusID)
	if err != nil {
		logrus.WithError(err).WithField("bus_id", upd.BusID).Error("Failed to load subscriptions.")
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		if err := p.processSubscription(ctx, sub, upd); err != nil {
			logrus.WithFields(logrus.Fields{
				"subscription_id": sub.ID,
				"user_id":         sub.UserID,
				"bus_id":          upd.BusID,
			}).WithError(err).Error("Failed to process subscription.")
		}
	}
}

func (p *Processor) processSubscription(ctx context.Context, sub models.Subscription, upd BusUpdate) error {
	stop := models.None[models.Stop]()
	if sub.StopID != nil {
		found, err := p.store.FindStop(ctx, sub.OrganizationID, *sub.StopID)
		if err != nil {
			return fmt.Errorf("resolve stop: %w", err)
		}
		stop = found
	}

	now := upd.RecordedAt
	if now.IsZero() {
		now = p.now()
	}
	decisions := Evaluate(sub, stop, upd, now, p.policy)
	if len(decisions) == 0 {
		return nil
	}

	token, err := p.store.FindPushToken(ctx, sub.OrganizationID, sub.UserID)
	if err != nil {
		return fmt.Errorf("resolve push token: %w", err)
	}

	for _, d := range decisions {
		if err := p.apply(ctx, sub, upd, d, token, now); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) apply(ctx context.Context, sub models.Subscription, upd BusUpdate, d Decision, token models.Optional[string], now time.Time) error {
	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	busID := upd.BusID
	record := &models.Notification{
		OrganizationID: sub.OrganizationID,
		UserID:         sub.UserID,
		BusID:          &busID,
		StopID:         d.StopID,
		Type:           d.Kind,
		Title:          d.Title,
		Message:        d.Message,
		Payload:        datatypes.JSON(payload),
	}
	if err := p.store.CreateNotification(ctx, record); err != nil {
		return fmt.Errorf("create %s notification: %w", d.Kind, err)
	}

	if t, ok := token.Get(); ok {
		p.push.Send(ctx, t, d.Title, d.Message, d.PushData)
	}

	if err := p.store.MarkNotified(ctx, sub.ID, d.Kind, now); err != nil {
		return fmt.Errorf("stamp %s cooldown: %w", d.Kind, err)
	}

	logrus.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"user_id":         sub.UserID,
		"type":            d.Kind,
	}).Info("Notification sent.")
	return nil
}
