// Package agent runs the headless client: it subscribes to the
// account's realtime channel and keeps the lifecycle store reconciled
// with the server on every push message.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gigwork/instantjob/pkg/client"
	"github.com/gigwork/instantjob/shared/rabbitmq"
)

// Config holds agent configuration
type Config struct {
	Logger       *slog.Logger
	RabbitClient *rabbitmq.Client
	Lifecycle    *client.Lifecycle
	Role         string // "user" or "employee"
	AccountID    int64
}

// Agent subscribes one account to its push channel and refreshes the
// store on every notification.
type Agent struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	lifecycle    *client.Lifecycle
	role         string
	accountID    int64
	consumerTag  string
}

// NewAgent creates a new agent instance
func NewAgent(cfg *Config) *Agent {
	return &Agent{
		logger:       cfg.Logger,
		rabbitClient: cfg.RabbitClient,
		lifecycle:    cfg.Lifecycle,
		role:         cfg.Role,
		accountID:    cfg.AccountID,
	}
}

// Start subscribes the account's channel and drains it until the
// context is cancelled or the transport closes the stream.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting agent",
		slog.String("role", a.role),
		slog.Int64("account_id", a.accountID),
	)

	deliveries, consumerTag, err := a.subscribe()
	if err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}
	a.consumerTag = consumerTag

	listener := client.NewListener(a.logger, a.refresh)
	listener.Run(ctx, deliveries)

	return nil
}

// Stop cancels the channel subscription.
func (a *Agent) Stop() {
	a.logger.Info("Stopping agent...")

	if a.consumerTag != "" {
		if err := a.rabbitClient.Unsubscribe(a.consumerTag); err != nil {
			a.logger.Error("Failed to cancel subscription",
				slog.Any("error", err),
				slog.String("consumer_tag", a.consumerTag),
			)
		}
	}

	a.logger.Info("Agent stopped")
}

func (a *Agent) subscribe() (<-chan amqp.Delivery, string, error) {
	switch a.role {
	case client.SessionKeyEmployee:
		return client.SubscribeEmployee(a.rabbitClient, a.accountID)
	case client.SessionKeyUser:
		return client.SubscribeUser(a.rabbitClient, a.accountID)
	default:
		return nil, "", fmt.Errorf("unknown role %q", a.role)
	}
}

func (a *Agent) refresh(ctx context.Context, n client.Notification) {
	if err := a.lifecycle.RefreshOnNotification(ctx, n); err != nil {
		a.logger.Error("Failed to refresh after notification",
			slog.Any("error", err),
			slog.Int64("job_id", n.JobID),
			slog.String("title", n.Title),
		)
	}
}
