package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"

	"github.com/ignatzorin/proposal-engine/internal/app"
	"github.com/ignatzorin/proposal-engine/internal/config"
	"github.com/ignatzorin/proposal-engine/internal/db"
	"github.com/ignatzorin/proposal-engine/internal/http/router"
	"github.com/ignatzorin/proposal-engine/internal/infrastructure/eventbus"
	"github.com/ignatzorin/proposal-engine/internal/infrastructure/persistence/memory"
	"github.com/ignatzorin/proposal-engine/internal/infrastructure/webhook"
	"github.com/ignatzorin/proposal-engine/internal/logger"
	"github.com/ignatzorin/proposal-engine/internal/service"
	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
	"github.com/ignatzorin/proposal-engine/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.IsProduction() {
		logger.Init("info")
	} else {
		logger.Init("debug")
		logger.SetTextFormatter()
	}

	var (
		repos  app.Repositories
		pinger *sqlx.DB
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Log.Warn("main: используется хранилище в памяти, данные не сохранятся после перезапуска")
		repos = app.MemoryRepositories(memory.NewStore())
	default:
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		applied, err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath)
		if err != nil {
			logger.Log.Fatalf("main: ошибка миграций: %v", err)
		}
		if len(applied) > 0 {
			logger.Log.WithField("migrations", applied).Info("main: миграции применены")
		}
		repos = app.PostgresRepositories(dbConn)
		pinger = dbConn
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Каналы уведомлений владельца.
	sinks := []notify.Sink{ws.NewHubSink(hub)}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, webhook.NewSink(cfg.WebhookURL, cfg.WebhookSecret))
	}
	if cfg.NATSURL != "" {
		nc, err := eventbus.Connect(cfg.NATSURL)
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к NATS: %v", err)
		}
		defer drainNATS(nc)
		sinks = append(sinks, eventbus.NewPublisher(nc))
	}

	opts := app.Options{
		PublicBaseURL:  cfg.PublicBaseURL,
		AllowedOrigins: cfg.AllowedOrigins,
		Tokens:         tokenManager,
		Notifier:       notify.NewDispatcher(sinks...),
		Hub:            hub,
	}
	// nil *sqlx.DB в интерфейсе не равен nil, поэтому присваиваем только живое соединение.
	if pinger != nil {
		opts.DB = pinger
	}

	handlers := app.BuildHandlers(ctx, repos, opts)
	engine := router.SetupRouter(cfg, handlers, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}

func drainNATS(nc *nats.Conn) {
	if err := nc.Drain(); err != nil {
		logger.Log.WithError(err).Warn("main: ошибка остановки NATS")
	}
}
