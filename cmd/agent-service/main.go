package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gigwork/instantjob/internal/agent"
	"github.com/gigwork/instantjob/internal/config"
	"github.com/gigwork/instantjob/pkg/client"
	"github.com/gigwork/instantjob/shared/logger"
	"github.com/gigwork/instantjob/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("AGENT_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/agent-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAgentConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting agent service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Load the persisted session; the agent cannot run without one.
	sessions, err := client.NewSessionStore(cfg.Client.SessionPath)
	if err != nil {
		return fmt.Errorf("failed to load session store: %w", err)
	}

	profile, err := sessions.Profile(cfg.Client.Role)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if profile == nil {
		return fmt.Errorf("no stored session for role %q, sign in first", cfg.Client.Role)
	}

	appLogger.Info("Session loaded",
		slog.String("role", cfg.Client.Role),
		slog.Int64("account_id", profile.ID),
		slog.String("name", profile.Name),
	)

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	// Wire the API client and the lifecycle
	api, err := client.New(client.Config{
		BaseURL:  cfg.Client.BaseURL,
		Role:     cfg.Client.Role,
		Sessions: sessions,
		Logger:   appLogger.Logger,
		HTTPClient: &http.Client{
			Timeout: cfg.Client.RequestTimeout,
		},
		OnUnauthorized: func(role string) {
			appLogger.Warn("Session revoked by server, agent needs a fresh sign-in",
				slog.String("role", role),
			)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	lifecycle := client.NewLifecycle(api, client.NewStore(), appLogger.Logger, cfg.Client.ThrottleWindow)

	// Create agent instance
	agentInstance := agent.NewAgent(&agent.Config{
		Logger:       appLogger.Logger,
		RabbitClient: rabbitClient,
		Lifecycle:    lifecycle,
		Role:         cfg.Client.Role,
		AccountID:    profile.ID,
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start agent in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := agentInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Agent service started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Agent error",
			slog.Any("error", err),
		)
		return err
	}

	// Cancel context to stop the listener loop
	cancel()

	// Give the agent time to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		agentInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Agent stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Agent shutdown timeout exceeded, forcing exit")
	}

	if rabbitClient != nil {
		rabbitClient.Close()
	}

	appLogger.Info("Agent service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		AddSource:  cfg.EnableCaller,
		TimeFormat: time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}
