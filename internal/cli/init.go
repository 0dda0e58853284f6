// Package cli wires configuration, logging and services into the
// spendlog commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendlog/internal/amqp"
	"spendlog/internal/config"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/snapshot"
	"spendlog/internal/storage"
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg config.Config) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     cfg.SlogLevel(),
		Format:    cfg.Log.Format,
		Output:    os.Stderr,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from path and the environment
// and validates it.
func LoadAndValidateConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Runtime holds the services shared by every command.
type Runtime struct {
	Store     *snapshot.FileStore
	Repo      *storage.AnalyticsRepository
	Tracker   *services.TrackerService
	Analytics *services.AnalyticsService
	Publisher *amqp.Client
}

// OpenRuntime loads the snapshot and opens the analytics database. When
// publish is set and an AMQP URL is configured, committed changes are
// announced on the broker; a broker that cannot be reached only disables
// notifications.
func OpenRuntime(ctx context.Context, cfg config.Config, logger *applog.Logger, publish bool) (*Runtime, error) {
	store, err := snapshot.NewFileStore(cfg.Data.File)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Store: store}

	var publisher services.ChangePublisher
	if publish && cfg.AMQP.URL != "" {
		client, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			logger.WithComponent(applog.ComponentAMQP).Warn("Change notifications disabled", applog.FieldError, err)
		} else {
			rt.Publisher = client
			publisher = client
		}
	}

	rt.Tracker, err = services.NewTrackerService(ctx, store, publisher)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Repo, err = storage.NewAnalyticsRepository(cfg.Analytics.DBPath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open analytics database: %w", err)
	}
	rt.Analytics = services.NewAnalyticsService(rt.Repo, rt.Tracker)

	return rt, nil
}

// Close releases the database and broker connections.
func (rt *Runtime) Close() {
	if rt.Repo != nil {
		_ = rt.Repo.Close()
	}
	if rt.Publisher != nil {
		_ = rt.Publisher.Close()
	}
}
