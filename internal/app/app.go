// Package app wires configuration, storage and services into one handle
// for the command-line tools.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/auth"
	"github.com/prn-tf/itlibrary/internal/config"
	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/logging"
	"github.com/prn-tf/itlibrary/internal/repository"
	"github.com/prn-tf/itlibrary/internal/service"
)

// App holds the services built from one configuration.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry

	Catalog  *service.CatalogService
	Users    *service.UserService
	Transfer *service.TransferService
	Init     *service.InitService
	Gate     *auth.Gate

	repos *repository.CreateRepositoriesResult
}

// New loads configuration from configPath and builds an App.
// The caller must Close it.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return NewWithConfig(ctx, cfg, logging.New(cfg.Logging))
}

// NewWithConfig builds an App from an already loaded configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()

	result, err := repository.NewFactory(cfg, logger).Create(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	opts := service.Options{
		Locker: result.Locker,
		Lock: lock.Options{
			TTL:        cfg.Lock.TTL,
			MaxRetries: cfg.Lock.MaxRetries,
			RetryDelay: cfg.Lock.RetryDelay,
		},
		Metrics:               result.Metrics,
		RejectOrphanResources: !cfg.Catalog.AllowOrphanResources,
		ValidateStage:         cfg.Users.ValidateStage,
	}

	repos := result.Repos
	catalog := service.NewCatalogService(repos.Subjects, repos.Resources, repos, opts, logger)
	users := service.NewUserService(repos.Users, opts, logger)

	var sessions repository.SessionRepository
	if cfg.Session.Persist {
		sessions = repos.Session
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Catalog:  catalog,
		Users:    users,
		Transfer: service.NewTransferService(repos.Users, repos.Subjects, repos.Resources, repos, opts, logger),
		Init:     service.NewInitService(result.Adapter, repos, catalog, opts, logger),
		Gate:     auth.NewGate(users, sessions, logger),
		repos:    result,
	}, nil
}

// Close releases storage, cache and lock connections.
func (a *App) Close() error {
	return a.repos.Close()
}
