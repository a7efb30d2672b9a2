package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/upb/provider-gateway/config"
	"github.com/upb/provider-gateway/metrics"
	"github.com/upb/provider-gateway/middleware"
	"github.com/upb/provider-gateway/repositories"
	"github.com/upb/provider-gateway/repositories/inmemory"
	"github.com/upb/provider-gateway/repositories/postgres"
	"github.com/upb/provider-gateway/services/guard"
	"github.com/upb/provider-gateway/services/providers"
	"github.com/upb/provider-gateway/services/providers/openai"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central
// wiring point; every component receives its collaborators explicitly
// and nothing lives in package-level state.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	// DB is nil when keys live in memory
	DB   *postgres.DB
	Keys repositories.KeyRepository

	Guard    *guard.Guard
	Registry *providers.Registry
	Metrics  *metrics.Metrics

	GuardMiddleware *middleware.GuardMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(prometheus.NewRegistry()),
	}

	if err := deps.initKeyStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize key store: %w", err)
	}

	deps.Guard = guard.NewGuard(deps.Keys, logger)

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.GuardMiddleware = middleware.NewGuardMiddleware(
		deps.Guard, deps.Metrics, cfg.Guard.AdminToken, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initKeyStore wires the configured key repository: Postgres when a
// database is configured, in-memory otherwise
func (d *Dependencies) initKeyStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Keys = inmemory.NewKeyRepository()
		d.Logger.Info("using in-memory key store")
		return nil
	}

	db, err := postgres.NewDB(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.DB = db
	d.Keys = postgres.NewAPIKeyRepository(db, d.Logger)
	d.Logger.Info("using postgres key store")
	return nil
}

// initProviders builds the provider registry from the configured
// upstream credentials
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	if cfg.Providers.OpenAI.APIKey != "" {
		adapter := openai.NewAdapter(providers.ProviderConfig{
			APIKey:     cfg.Providers.OpenAI.APIKey,
			BaseURL:    cfg.Providers.OpenAI.BaseURL,
			Timeout:    cfg.Providers.OpenAI.Timeout,
			MaxRetries: cfg.Providers.OpenAI.MaxRetries,
			BaseDelay:  cfg.Providers.OpenAI.BaseDelay,
			MaxTokens:  cfg.Providers.OpenAI.MaxTokens,
		}, d.Metrics, d.Logger)

		if err := registry.Register(adapter); err != nil {
			return err
		}
		if err := registry.RegisterModelPrefix("gpt-", adapter.Name()); err != nil {
			return err
		}
		if err := registry.RegisterModelPrefix("o1", adapter.Name()); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI provider",
			zap.String("base_url", cfg.Providers.OpenAI.BaseURL))
	}

	if len(registry.ListProviders()) == 0 {
		d.Logger.Warn("no upstream providers configured")
	}

	d.Registry = registry
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
