package notification

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var ErrNoCredentials = errors.New("no firebase credentials configured")

type FCMService struct {
	client *messaging.Client
}

// NewFCMService prefers base64 encoded service account JSON and falls back
// to a key file on disk.
func NewFCMService(ctx context.Context, encodedCreds, localFilePath string) (*FCMService, error) {
	var opt option.ClientOption

	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		zap.L().Info("fcm: initializing from encoded credentials")
	} else {
		if localFilePath == "" {
			return nil, ErrNoCredentials
		}
		if _, err := os.Stat(localFilePath); err != nil {
			return nil, fmt.Errorf("firebase credentials file %s: %w", localFilePath, ErrNoCredentials)
		}
		opt = option.WithCredentialsFile(localFilePath)
		zap.L().Info("fcm: initializing from credentials file", zap.String("path", localFilePath))
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// SendPush sends one message per token. It fails only when every send fails.
// Tokens Firebase reports as unregistered are returned so the caller can
// forget them.
func (s *FCMService) SendPush(ctx context.Context, tokens []DeviceToken, n *Notification) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var stale []string
	successCount, failureCount := 0, 0
	for _, t := range tokens {
		_, err := s.client.Send(ctx, buildMessage(t, n))
		if err != nil {
			unregistered := messaging.IsUnregistered(err)
			if unregistered {
				stale = append(stale, t.Token)
			}
			zap.L().Warn("fcm: send failed",
				zap.String("user_id", n.UserID),
				zap.String("platform", t.Platform),
				zap.Bool("unregistered", unregistered),
				zap.Error(err))
			failureCount++
			continue
		}
		successCount++
	}

	zap.L().Debug("fcm: batch done", zap.Int("sent", successCount), zap.Int("failed", failureCount))
	if successCount == 0 && failureCount > 0 {
		return stale, fmt.Errorf("all %d push notifications failed", failureCount)
	}
	return stale, nil
}

func buildMessage(t DeviceToken, n *Notification) *messaging.Message {
	msg := &messaging.Message{
		Token: t.Token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}
	switch t.Platform {
	case "ios":
		msg.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		}
	case "web":
		msg.Webpush = &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{Title: n.Title, Body: n.Body},
		}
	default:
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		}
	}
	return msg
}
