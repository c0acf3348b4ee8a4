package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// MessagingClient is the part of *messaging.Client the gateway uses.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMConfig selects Firebase credentials. CredentialsFile wins over the inline service
// account fields.
type FCMConfig struct {
	CredentialsFile string
	ProjectID       string
	ClientEmail     string
	PrivateKey      string
}

// Configured reports whether enough is set to build a Firebase app.
func (c FCMConfig) Configured() bool {
	return c.CredentialsFile != "" || (c.ProjectID != "" && c.ClientEmail != "" && c.PrivateKey != "")
}

// FCMGateway sends through Firebase Cloud Messaging.
type FCMGateway struct {
	client  MessagingClient
	revoker TokenRevoker
}

func NewFCMGateway(client MessagingClient, revoker TokenRevoker) *FCMGateway {
	return &FCMGateway{client: client, revoker: revoker}
}

// NewFirebaseMessaging creates the Firebase app and its messaging client.
func NewFirebaseMessaging(ctx context.Context, cfg FCMConfig) (*messaging.Client, error) {
	opt, err := credentialsOption(cfg)
	if err != nil {
		return nil, err
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app [%w]", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase messaging [%w]", err)
	}
	return client, nil
}

func credentialsOption(cfg FCMConfig) (option.ClientOption, error) {
	if cfg.CredentialsFile != "" {
		return option.WithCredentialsFile(cfg.CredentialsFile), nil
	}
	if !cfg.Configured() {
		return nil, fmt.Errorf("firebase credentials are not configured")
	}

	// Keys coming from env files usually carry literal \n sequences.
	key := strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")
	raw, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   cfg.ProjectID,
		"client_email": cfg.ClientEmail,
		"private_key":  key,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, err
	}
	return option.WithCredentialsJSON(raw), nil
}

func (g *FCMGateway) Send(ctx context.Context, token, title, body string, data map[string]string) {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	id, err := g.client.Send(ctx, msg)
	if err != nil {
		if messaging.IsUnregistered(err) {
			revoke(ctx, g.revoker, token, "fcm")
			return
		}
		logrus.WithError(err).WithField("type", data["type"]).Error("Error sending FCM message.")
		return
	}

	logrus.WithFields(logrus.Fields{
		"message_id": id,
		"type":       data["type"],
	}).Debug("FCM message sent.")
}
