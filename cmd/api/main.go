// @title						Dice API
// @version					1.0
// @description				Token-authenticated backend for dice games.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				Type "Bearer" followed by a space and the session token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dicegame/dice-api/internal/api"
	"github.com/dicegame/dice-api/internal/api/handler"
	"github.com/dicegame/dice-api/internal/core/ports"
	"github.com/dicegame/dice-api/internal/core/service"
	"github.com/dicegame/dice-api/internal/infrastructure/config"
	"github.com/dicegame/dice-api/internal/infrastructure/db/mongo"
	"github.com/dicegame/dice-api/internal/infrastructure/db/redis"
	"github.com/dicegame/dice-api/internal/infrastructure/queue"
	"github.com/dicegame/dice-api/pkg/logger"
)

const (
	tokenIssuer     = "dice-api"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{Service: tokenIssuer})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(logger.Options{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
		Service:     tokenIssuer,
	})

	log := logger.Get()
	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exiting")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	users := mongo.NewUserRepository(db, cfg.Mongo.Timeout)
	games := mongo.NewGameRepository(db, cfg.Mongo.Timeout, cfg.Games.SoftDelete)
	auditRepo := mongo.NewAuditRepository(db, cfg.Mongo.Timeout)
	for _, ix := range []interface{ EnsureIndexes(context.Context) error }{users, games, auditRepo} {
		if err := ix.EnsureIndexes(ctx); err != nil {
			return err
		}
	}

	var (
		rdb     *goredis.Client
		limiter ports.LoginLimiter
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = redis.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login throttling disabled")
	}

	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, tokenIssuer)
	if err != nil {
		return err
	}

	audit := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, cfg.Mongo.Timeout, log)
	audit.Start(context.Background())
	defer audit.Stop()

	creds := service.NewCredentialStore(users, 0)
	authSvc := service.NewAuthService(creds, tokens, limiter, audit, log)
	gameSvc := service.NewGameService(games, audit, log)
	playerSvc := service.NewPlayerService(creds, audit, log)

	if cfg.Admin.Username != "" {
		if _, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Dependencies{
		Logger:    log,
		Tokens:    tokens,
		Auth:      authSvc,
		Games:     gameSvc,
		Players:   playerSvc,
		Readiness: handler.NewHealthDependenciesHandler(db, rdb, log),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
