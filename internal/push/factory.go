package push

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	BackendAuto    = "auto"
	BackendFCM     = "fcm"
	BackendWebPush = "webpush"
	BackendNone    = "none"
)

// Settings groups everything New needs to pick a backend.
type Settings struct {
	Backend string
	FCM     FCMConfig
	VAPID   VAPIDConfig
}

// New builds the configured gateway. "auto" prefers FCM, then Web Push, and falls back to a
// silent no-op when neither is configured. A selected backend that cannot be initialized is
// logged and replaced by the no-op so tracking keeps running; only an unknown backend name is
// an error.
func New(ctx context.Context, s Settings, revoker TokenRevoker) (Gateway, error) {
	backend := s.Backend
	if backend == "" || backend == BackendAuto {
		switch {
		case s.FCM.Configured():
			backend = BackendFCM
		case s.VAPID.Configured():
			backend = BackendWebPush
		default:
			backend = BackendNone
		}
	}

	switch backend {
	case BackendFCM:
		client, err := NewFirebaseMessaging(ctx, s.FCM)
		if err != nil {
			logrus.WithError(err).Error("Failed to initialize Firebase, push notifications disabled.")
			return NopGateway{}, nil
		}
		logrus.Info("Push backend: Firebase Cloud Messaging.")
		return NewFCMGateway(client, revoker), nil
	case BackendWebPush:
		if !s.VAPID.Configured() {
			logrus.Error("Web push selected but VAPID keys are missing, push notifications disabled.")
			return NopGateway{}, nil
		}
		logrus.Info("Push backend: Web Push.")
		return NewWebPushGateway(s.VAPID, nil, revoker), nil
	case BackendNone:
		logrus.Info("Push backend disabled.")
		return NopGateway{}, nil
	default:
		return nil, fmt.Errorf("unknown push backend %q", backend)
	}
}
