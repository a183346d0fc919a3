package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gigwork/instantjob/shared/rabbitmq"
)

// NotificationHandler receives each decoded push message. Handlers must
// be idempotent: the channel is best effort and may miss or duplicate
// messages, so the required reaction is a full refresh, not an
// incremental patch.
type NotificationHandler func(ctx context.Context, n Notification)

// Listener consumes a realtime delivery stream and hands decoded
// notifications to its handler. Reconnection and delivery ordering are
// owned by the transport; the listener just drains what it is given.
type Listener struct {
	logger  *slog.Logger
	handler NotificationHandler
}

// NewListener creates a push listener.
func NewListener(logger *slog.Logger, handler NotificationHandler) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		logger:  logger,
		handler: handler,
	}
}

// Run drains deliveries until the context is cancelled or the channel
// closes. Undecodable payloads are logged and skipped; they never stop
// the loop.
func (l *Listener) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	l.logger.Info("Push listener started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Push listener stopped - context cancelled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				l.logger.Info("Push listener stopped - delivery channel closed")
				return
			}

			n, err := ParseNotification(delivery.Body)
			if err != nil {
				l.logger.Warn("Dropping malformed push message",
					slog.Any("error", err),
				)
				continue
			}

			l.logger.Debug("Push message received",
				slog.String("title", n.Title),
				slog.Int64("job_id", n.JobID),
			)

			l.handler(ctx, n)
		}
	}
}

// SubscribeEmployee opens the per-employee notification stream on the
// realtime exchange. The returned consumer tag identifies the
// subscription for teardown; call Unsubscribe with it (and cancel the
// listener context) when the owning view goes away, so subscriptions do
// not pile up for the same employee.
func SubscribeEmployee(rabbit *rabbitmq.Client, employeeID int64) (<-chan amqp.Delivery, string, error) {
	if employeeID == 0 {
		return nil, "", fmt.Errorf("employee id is required")
	}

	consumerTag := fmt.Sprintf("employee-%d-%s", employeeID, uuid.New().String())
	queueName := fmt.Sprintf("instantjob.notifications.employee.%d.%s", employeeID, uuid.New().String())
	bindingKey := fmt.Sprintf("employee.%d", employeeID)

	deliveries, err := rabbit.Subscribe(queueName, bindingKey, consumerTag)
	if err != nil {
		return nil, "", fmt.Errorf("failed to subscribe employee channel: %w", err)
	}

	return deliveries, consumerTag, nil
}

// SubscribeUser opens the poster's notification stream.
func SubscribeUser(rabbit *rabbitmq.Client, userID int64) (<-chan amqp.Delivery, string, error) {
	if userID == 0 {
		return nil, "", fmt.Errorf("user id is required")
	}

	consumerTag := fmt.Sprintf("user-%d-%s", userID, uuid.New().String())
	queueName := fmt.Sprintf("instantjob.notifications.user.%d.%s", userID, uuid.New().String())
	bindingKey := fmt.Sprintf("user.%d", userID)

	deliveries, err := rabbit.Subscribe(queueName, bindingKey, consumerTag)
	if err != nil {
		return nil, "", fmt.Errorf("failed to subscribe user channel: %w", err)
	}

	return deliveries, consumerTag, nil
}
