package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goodfit-api/internal/config"
	"goodfit-api/internal/models"
	"goodfit-api/internal/redis"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/websocket"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// EventPublisher delivers realtime events to connected users.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event websocket.Event) error
}

// Cache is the part of redis the services write through.
type Cache interface {
	HSetWithTTL(ctx context.Context, key string, values map[string]interface{}, ttl time.Duration) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
}

// Pusher sends a mobile push to device tokens and returns the tokens the
// provider reported as no longer registered.
type Pusher interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error)
}

// RedisEventBus publishes events on the shared channel so every instance's
// hub can deliver them to its own connections.
type RedisEventBus struct {
	client *redis.Client
}

func NewRedisEventBus(client *redis.Client) *RedisEventBus {
	return &RedisEventBus{client: client}
}

func (b *RedisEventBus) PublishEvent(ctx context.Context, event websocket.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, websocket.EventsChannel, data)
}

// fcmBatchSize is the multicast limit of the FCM API.
const fcmBatchSize = 500

type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(ctx context.Context, cfg *config.Config) (*FCMPusher, error) {
	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.FirebaseProjectID},
		option.WithCredentialsFile(cfg.FirebaseCredentialsPath),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return &FCMPusher{client: client}, nil
}

func (p *FCMPusher) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	var dead []string
	for start := 0; start < len(tokens); start += fcmBatchSize {
		end := start + fcmBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		response, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		})
		if err != nil {
			return dead, fmt.Errorf("failed to send multicast message: %w", err)
		}

		if response.FailureCount > 0 {
			logrus.WithFields(logrus.Fields{
				"failure_count": response.FailureCount,
				"success_count": response.SuccessCount,
			}).Warn("some push notifications failed to send")
			for i, resp := range response.Responses {
				if resp.Error != nil && messaging.IsRegistrationTokenNotRegistered(resp.Error) {
					dead = append(dead, batch[i])
				}
			}
		}
	}
	return dead, nil
}

// Notice is one user-facing notification fanned out to the in-app inbox, the
// websocket and push.
type Notice struct {
	Type    string
	Title   string
	Body    string
	Data    map[string]string
	Payload interface{}
}

// Notifier delivers notices on a best effort basis. Failures are logged and
// never undo the write that triggered them.
type Notifier struct {
	repo   storage.NotificationRepository
	events EventPublisher
	push   Pusher
}

// NewNotifier builds a notifier. events and push may be nil.
func NewNotifier(repo storage.NotificationRepository, events EventPublisher, push Pusher) *Notifier {
	return &Notifier{repo: repo, events: events, push: push}
}

func (n *Notifier) Notify(ctx context.Context, userIDs []uint, notice Notice) {
	if len(userIDs) == 0 {
		return
	}
	log := logrus.WithFields(logrus.Fields{"type": notice.Type, "users": userIDs})

	data, err := json.Marshal(notice.Data)
	if err != nil {
		log.WithError(err).Warn("failed to encode notification data")
		data = []byte("{}")
	}
	rows := make([]models.Notification, len(userIDs))
	for i, userID := range userIDs {
		rows[i] = models.Notification{
			UserID: userID,
			Type:   notice.Type,
			Title:  notice.Title,
			Body:   notice.Body,
			Data:   string(data),
		}
	}
	if err := n.repo.CreateNotifications(ctx, rows); err != nil {
		log.WithError(err).Error("failed to store notifications")
	}

	if n.events != nil {
		payload, err := json.Marshal(notice.Payload)
		if err == nil {
			err = n.events.PublishEvent(ctx, websocket.Event{
				Type:    notice.Type,
				UserIDs: userIDs,
				Payload: payload,
			})
		}
		if err != nil {
			log.WithError(err).Warn("failed to publish event")
		}
	}

	if n.push == nil {
		return
	}
	tokens, err := n.repo.DeviceTokens(ctx, userIDs)
	if err != nil {
		log.WithError(err).Warn("failed to load device tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}
	dead, err := n.push.Send(ctx, tokens, notice.Title, notice.Body, notice.Data)
	if err != nil {
		log.WithError(err).Warn("failed to send push notification")
	}
	if len(dead) > 0 {
		if err := n.repo.DeleteDeviceTokens(ctx, dead); err != nil {
			log.WithError(err).Warn("failed to remove dead device tokens")
		}
	}
}

// RegisterDevice stores a push token for the user.
func (n *Notifier) RegisterDevice(ctx context.Context, userID uint, token, platform string) (*models.DeviceToken, error) {
	if token == "" {
		return nil, invalidf("device token is required")
	}
	device := &models.DeviceToken{UserID: userID, Token: token, Platform: platform}
	if err := n.repo.SaveDeviceToken(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to save device token: %w", err)
	}
	return device, nil
}
