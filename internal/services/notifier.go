package services

import (
	"context"

	"viewora-deals/internal/domain"
	"viewora-deals/pkg/logger"
)

// Notifier stores a notification row and hands it to the push gateway.
// Both steps are best-effort: failures are logged here and never reach the
// state transition that triggered them.
type Notifier struct {
	store domain.NotificationRepository
	push  domain.PushGateway
	log   logger.Logger
}

func NewNotifier(store domain.NotificationRepository, push domain.PushGateway, log logger.Logger) *Notifier {
	return &Notifier{
		store: store,
		push:  push,
		log:   log,
	}
}

func (n *Notifier) Notify(ctx context.Context, userID, title, body string, data map[string]string) {
	notification := &domain.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Data:   data,
	}

	if err := n.store.Save(ctx, notification); err != nil {
		n.log.Error("Failed to store notification", "user_id", userID,
			"title", title, "error", err)
	}

	if n.push == nil {
		return
	}
	if err := n.push.Push(ctx, userID, title, body, data); err != nil {
		n.log.Error("Failed to push notification", "user_id", userID,
			"title", title, "error", err)
	}
}

// LogPushGateway stands in for the real push provider, which lives in the
// notification service.
type LogPushGateway struct {
	log logger.Logger
}

func NewLogPushGateway(log logger.Logger) *LogPushGateway {
	return &LogPushGateway{log: log}
}

func (g *LogPushGateway) Push(ctx context.Context, userID, title, body string, data map[string]string) error {
	g.log.Debug("Push notification", "user_id", userID, "title", title)
	return nil
}
