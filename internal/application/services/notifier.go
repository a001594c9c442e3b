package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/domain/repositories"
	"github.com/rmaulana/pocketpay/internal/infrastructure/push"
)

// Notification is the composed payload of one push message
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Notifier fans a notification out to a set of users
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, n Notification)
}

// NotificationDispatcher sends push notifications to every device a set
// of users has registered, pruning tokens the gateway reports as dead.
// It never propagates an error: a failed notification must not fail the
// reconciliation that triggered it.
type NotificationDispatcher struct {
	tokenRepo repositories.DeviceTokenRepository
	sender    push.Sender
	logger    *zap.Logger
}

// Ensure NotificationDispatcher implements Notifier
var _ Notifier = (*NotificationDispatcher)(nil)

// NewNotificationDispatcher creates a new notification dispatcher
func NewNotificationDispatcher(
	tokenRepo repositories.DeviceTokenRepository,
	sender push.Sender,
	logger *zap.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		tokenRepo: tokenRepo,
		sender:    sender,
		logger:    logger,
	}
}

// Notify composes and sends one push message per registered device
func (d *NotificationDispatcher) Notify(ctx context.Context, userIDs []string, n Notification) {
	tokens, err := d.tokenRepo.ListForUsers(ctx, userIDs)
	if err != nil {
		d.logger.Warn("Failed to list device tokens",
			zap.Strings("user_ids", userIDs),
			zap.Error(err),
		)
		return
	}

	messages := make([]push.Message, 0, len(tokens))
	for _, t := range tokens {
		if !push.IsValidToken(t.Token) {
			continue
		}
		messages = append(messages, push.Message{
			To:    t.Token,
			Title: n.Title,
			Body:  n.Body,
			Data:  n.Data,
			Sound: "default",
		})
	}

	if len(messages) == 0 {
		return
	}

	tickets, err := d.sender.Send(ctx, messages)
	if err != nil {
		d.logger.Warn("Push send failed", zap.Int("messages", len(messages)), zap.Error(err))
		return
	}

	sent := 0
	for i, ticket := range tickets {
		if i >= len(messages) {
			break
		}
		if ticket.StaleToken() {
			if err := d.tokenRepo.DeleteToken(ctx, messages[i].To); err != nil {
				d.logger.Warn("Failed to prune dead token", zap.Error(err))
			}
			continue
		}
		if ticket.Status == "ok" {
			sent++
		}
	}

	d.logger.Info("Notification dispatched",
		zap.String("title", n.Title),
		zap.Int("devices", len(messages)),
		zap.Int("delivered", sent),
	)
}
