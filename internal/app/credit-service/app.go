// Package creditservice собирает основное HTTP-приложение: хранилище,
// кеш, очередь уведомлений, сервисы и маршруты.
package creditservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/instagrowth/credit-service/internal/aigen"
	"github.com/instagrowth/credit-service/internal/cache"
	"github.com/instagrowth/credit-service/internal/config"
	"github.com/instagrowth/credit-service/internal/lib/jwt"
	"github.com/instagrowth/credit-service/internal/lib/rabbitmq"
	"github.com/instagrowth/credit-service/internal/migrations"
	"github.com/instagrowth/credit-service/internal/ratelimit"
	authservice "github.com/instagrowth/credit-service/internal/services/auth"
	"github.com/instagrowth/credit-service/internal/services/authorize"
	creditsservice "github.com/instagrowth/credit-service/internal/services/credits"
	"github.com/instagrowth/credit-service/internal/services/notify"
	"github.com/instagrowth/credit-service/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	publisher := notify.NewPublisher(ch)
	creditService := creditsservice.NewCreditService(db, db, cacheRedis, publisher, logger)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	loginLimiter := ratelimit.NewRedisWindow(cacheRedis.Db, "login", cfg.LoginLimit, cfg.LoginWindow)
	blocklist := ratelimit.NewBlocklist(cacheRedis.Db, "blocked_ip")
	authService := authservice.New(db, jwtMaker, loginLimiter, blocklist, cfg.BlockDuration, logger)

	aiLimiter := ratelimit.NewRedisWindow(cacheRedis.Db, "ai", cfg.AIRequestLimit, cfg.AIWindow)
	authorizeService := authorize.New(aiLimiter, db, creditService, logger)

	generator := aigen.New(cfg, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, authService, creditService, authorizeService, generator)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}
