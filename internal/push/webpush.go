package push

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real NotificationSender.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// VAPIDConfig carries the application server keys.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        int
}

func (c VAPIDConfig) Configured() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// WebPushGateway sends to browsers. The device token is a JSON encoded push subscription
// ({"endpoint": ..., "keys": {"p256dh": ..., "auth": ...}}).
type WebPushGateway struct {
	sender  NotificationSender
	options *webpush.Options
	revoker TokenRevoker
}

func NewWebPushGateway(cfg VAPIDConfig, sender NotificationSender, revoker TokenRevoker) *WebPushGateway {
	if sender == nil {
		sender = &WebPushSender{}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 60
	}
	return &WebPushGateway{
		sender: sender,
		options: &webpush.Options{
			Subscriber:      cfg.Subject,
			VAPIDPublicKey:  cfg.PublicKey,
			VAPIDPrivateKey: cfg.PrivateKey,
			TTL:             ttl,
		},
		revoker: revoker,
	}
}

type webPushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func (g *WebPushGateway) Send(ctx context.Context, token, title, body string, data map[string]string) {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token), &sub); err != nil || sub.Endpoint == "" {
		logrus.WithError(err).Warn("Push token is not a web push subscription.")
		return
	}

	payload, err := json.Marshal(webPushMessage{Title: title, Body: body, Data: data})
	if err != nil {
		logrus.WithError(err).Error("Failed to encode web push payload.")
		return
	}

	resp, err := g.sender.Send(payload, &sub, g.options)
	if err != nil {
		logrus.WithError(err).WithField("endpoint", sub.Endpoint).Error("Error sending web push notification.")
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		logrus.WithField("endpoint", sub.Endpoint).Info("Web push subscription expired.")
		revoke(ctx, g.revoker, token, "webpush")
	case resp.StatusCode >= 400:
		logrus.WithFields(logrus.Fields{
			"endpoint": sub.Endpoint,
			"status":   resp.StatusCode,
		}).Warn("Web push service rejected notification.")
	}
}
