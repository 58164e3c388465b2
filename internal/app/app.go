package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/chatter-hq/chatter-server/internal/archive"
	"github.com/chatter-hq/chatter-server/internal/auth"
	"github.com/chatter-hq/chatter-server/internal/broker"
	"github.com/chatter-hq/chatter-server/internal/config"
	"github.com/chatter-hq/chatter-server/internal/directory"
	"github.com/chatter-hq/chatter-server/internal/store"
	"github.com/chatter-hq/chatter-server/internal/store/sqlite"
	transporthttp "github.com/chatter-hq/chatter-server/internal/transport/http"
)

// App wires together the session core, its collaborators, and the transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	broker          broker.Broker
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

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	bk, err := newBroker(cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	deps := transporthttp.Deps{
		Auth:      authService,
		Store:     st,
		Directory: directory.NewStoreDirectory(st),
		Broker:    bk,
		Archiver:  archive.NewLogArchiver(logger),
	}
	server := transporthttp.NewServer(deps, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		broker:          bk,
		store:           st,
		log:             logger,
	}, nil
}

func newBroker(cfg *config.Config, logger *zerolog.Logger) (broker.Broker, error) {
	switch cfg.Broker {
	case config.BrokerRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}

		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("redis broker initialized")
		return broker.NewRedis(client, logger), nil
	default:
		return broker.NewMemory(), nil
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

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

// cleanup closes the broker, database and other resources.
func (a *App) cleanup() {
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close broker")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
