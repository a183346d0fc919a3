package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gigwork/instantjob/shared/rabbitmq"
)

// Notification is the push payload. Title is always present; the rest
// depends on the transition that produced it.
type Notification struct {
	Title  string `json:"title"`
	JobID  int64  `json:"job_id,omitempty"`
	Status string `json:"status,omitempty"`
}

// Notifier publishes transition notifications to the realtime exchange.
// Delivery is best effort: a failed publish is logged, never surfaced to
// the API caller.
type Notifier struct {
	rabbit *rabbitmq.Client
	logger *slog.Logger
}

func New(rabbit *rabbitmq.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		rabbit: rabbit,
		logger: logger,
	}
}

// EmployeeKey is the routing key for an employee's notifications.
func EmployeeKey(employeeID int64) string {
	return fmt.Sprintf("employee.%d", employeeID)
}

// UserKey is the routing key for a poster's notifications.
func UserKey(userID int64) string {
	return fmt.Sprintf("user.%d", userID)
}

// NotifyEmployee publishes a notification routed to one employee.
func (n *Notifier) NotifyEmployee(ctx context.Context, employeeID int64, notification Notification) {
	n.publish(ctx, EmployeeKey(employeeID), notification)
}

// NotifyUser publishes a notification routed to one poster.
func (n *Notifier) NotifyUser(ctx context.Context, userID int64, notification Notification) {
	n.publish(ctx, UserKey(userID), notification)
}

func (n *Notifier) publish(ctx context.Context, routingKey string, notification Notification) {
	body, err := json.Marshal(notification)
	if err != nil {
		n.logger.Error("Failed to marshal notification",
			slog.Any("error", err),
			slog.String("routing_key", routingKey),
		)
		return
	}

	if err := n.rabbit.PublishWithRetry(ctx, routingKey, body); err != nil {
		n.logger.Error("Failed to publish notification",
			slog.Any("error", err),
			slog.String("routing_key", routingKey),
			slog.String("title", notification.Title),
		)
		return
	}

	n.logger.Debug("Notification published",
		slog.String("routing_key", routingKey),
		slog.String("title", notification.Title),
	)
}
