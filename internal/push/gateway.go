package push

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Gateway delivers a push message to one device token. Delivery is best effort: failures are
// logged by the implementation and never returned.
type Gateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string)
}

// TokenRevoker forgets a token the push provider reported as permanently invalid.
type TokenRevoker interface {
	RevokePushToken(ctx context.Context, token string) error
}

// NopGateway is used when no push backend is configured.
type NopGateway struct{}

func (NopGateway) Send(ctx context.Context, token, title, body string, data map[string]string) {}

func revoke(ctx context.Context, revoker TokenRevoker, token, backend string) {
	if revoker == nil {
		return
	}
	if err := revoker.RevokePushToken(ctx, token); err != nil {
		logrus.WithError(err).WithField("backend", backend).Error("Failed to revoke expired push token.")
		return
	}
	logrus.WithField("backend", backend).Info("Revoked expired push token.")
}
