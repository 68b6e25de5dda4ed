package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/api"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/health"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/status"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("STOREFRONT_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open journal error")
	}
	defer journal.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	snap := cache.New(rdb, cfg.Redis.Prefix)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	bus := events.NewEventBus(&logger)
	if cfg.Telegram.Enabled {
		notifier, err := newNotifier(cfg, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram notifier error")
		}
		notifier.Attach(bus)
		notifier.Start(ctx)
		defer notifier.Stop()
	}

	svc := status.NewService(nil, status.Options{
		HoursInterval:  cfg.HoursRefreshInterval(),
		SeasonInterval: cfg.SeasonRefreshInterval(),
		Journal:        journal,
		Bus:            bus,
		Cache:          snap,
		Logger:         &logger,
	})

	err = config.WatchStore(ctx, cfg.Store.Path, cfg.StoreReloadInterval(), &logger, func(store *config.StoreConfig) {
		svc.Reload(ctx, store)
	})
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to load store config")
	}
	svc.Start(ctx)
	defer svc.Stop()

	backups := database.NewBackupService(journal, cfg.Backup, cfg.BackupInterval(), cfg.JournalRetention(), &logger)
	go backups.Start(ctx)

	server := api.NewHTTPServer(cfg, svc, journal, snap, &logger)
	server.AddReadinessCheck("journal", journal.PingContext)
	if snap.Enabled() {
		server.AddReadinessCheck("redis", snap.Ping)
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, server.Handler(), &logger)

	if cfg.Monitoring.GRPCHealthPort > 0 {
		grpcHealth := health.NewServer(&logger)
		go grpcHealth.Track(ctx, svc.Ready, 5*time.Second)
		go func() {
			if err := grpcHealth.Serve(ctx, cfg.Monitoring.GRPCHealthPort); err != nil {
				logger.Error().Err(err).Msg("grpc health server error")
			}
		}()
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("store", svc.Store().String()).Msg("Storefront started")
	if err := server.Start(); err != nil {
		logger.Error().Err(err).Msg("http server error")
		stop()
	}
	<-ctx.Done()
	logger.Info().Msg("Storefront stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Logging.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "storefront").Logger()
}

func newNotifier(cfg *config.Config, logger *zerolog.Logger) (*notify.Notifier, error) {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
		return nil, errors.New("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("Telegram bot authorized")
	return notify.NewNotifier(bot, cfg.Telegram.ChatID, cfg.Telegram.MessagesPerMinute, logger), nil
}

func startHealthServer(ctx context.Context, port int, apiHandler http.Handler, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/healthz", apiHandler)
	mux.Handle("/readyz", apiHandler)
	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}, "metrics", logger)
}

func serve(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msgf("%s server error", name)
	}
}
