package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/roomwire-server/internal/config"
	"github.com/mkravets/roomwire-server/internal/core"
	"github.com/mkravets/roomwire-server/internal/identity"
	"github.com/mkravets/roomwire-server/internal/store"
	"github.com/mkravets/roomwire-server/internal/store/sqlite"
	transporthttp "github.com/mkravets/roomwire-server/internal/transport/http"
	"github.com/mkravets/roomwire-server/internal/transport/ws"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	cleanupInterval time.Duration
	ids             *identity.Service
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	ids := identity.NewService(st, cfg.IdentityTTL, logger)

	hub := core.NewHub()
	svc := core.NewService(core.NewRoomRegistry(), core.NewMembershipStore(), hub, ids, logger)

	wsHandler := ws.NewHandler(svc, hub, ids, cfg, logger)
	server := transporthttp.NewServer(ids, st, hub, wsHandler, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		cleanupInterval: cfg.IdentityCleanupInterval,
		ids:             ids,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	if a.cleanupInterval > 0 {
		go a.ids.RunCleanup(ctx, a.cleanupInterval)
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
