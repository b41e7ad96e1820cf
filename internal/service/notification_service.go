package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/autoescola/admin-service/internal/events"
)

// NotificationService logs user lifecycle events. Email/webhook delivery is a
// stub; the internal audience reads the structured log stream.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserCreated, n.handle)
	n.dispatcher.Subscribe(events.EventUserUpdated, n.handle)
	n.dispatcher.Subscribe(events.EventUserDeactivated, n.handle)
	n.dispatcher.Subscribe(events.EventUserDeleted, n.handle)
}

func (n *NotificationService) handle(_ context.Context, event events.Event) error {
	n.logger.Info("user event",
		zap.String("type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload),
	)
	return nil
}
