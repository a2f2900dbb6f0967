package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yogastudio/internal/api"
	"yogastudio/internal/bot"
	"yogastudio/internal/config"
	"yogastudio/internal/database"
	"yogastudio/internal/events"
	"yogastudio/internal/google"
	"yogastudio/internal/logging"
	"yogastudio/internal/metrics"
	"yogastudio/internal/repository"
	"yogastudio/internal/service"
	"yogastudio/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	eventBus := events.NewEventBus(&logger)
	startMirror(ctx, cfg, db, redisClient, eventBus, &logger)

	userService := service.NewUserService(db, eventBus, &logger)

	if cfg.API.Enabled {
		apiServer := api.NewHTTPServer(&cfg.API, api.Services{
			Bookings:      service.NewBookingService(db, eventBus, &logger),
			Subscriptions: service.NewSubscriptionService(db, eventBus, &logger),
			Classes:       service.NewClassService(db, eventBus, cfg.API.ClassesCacheTTL, &logger),
		}, db, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	var reg prometheus.Registerer
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		reg = prometheus.DefaultRegisterer
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	return startBot(ctx, cfg, stateService, userService, bot.NewMetrics(reg), &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

// initStateService keeps onboarding state in redis and falls back to memory
// whenever redis is not configured or stops answering.
func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable, state kept in memory until it recovers")
		}
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, cfg.Redis.StateTTL)
	fallbackRepo := repository.NewMemoryStateRepository(cfg.Redis.StateTTL)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

// startMirror wires booking events to the spreadsheet mirror when Google is configured.
func startMirror(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	bus *events.EventBus,
	logger *zerolog.Logger,
) {
	if !cfg.Google.SheetsEnabled() {
		logger.Info().Msg("Google Sheets not configured, bookings mirror disabled")
		return
	}

	sheet, err := google.NewBookingsSheet(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID, cfg.App.Location)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets, bookings mirror disabled")
		return
	}

	mirrorWorker := worker.NewMirrorWorker(db, sheet, redisClient, worker.DefaultRetryPolicy(), logger)
	go mirrorWorker.Start(ctx)
	worker.SubscribeMirror(ctx, bus, db, mirrorWorker, logger)
	logger.Info().Msg("Bookings mirror started")
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	userService *service.UserService,
	botMetrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	client, err := bot.Connect(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create bot API client")
		return err
	}

	tgService := service.NewTelegramService(client, logger)

	telegramBot, err := bot.NewBot(tgService, cfg, stateService, userService, botMetrics, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create bot")
		return err
	}

	telegramBot.ScheduleStartupSweep(ctx, cfg.Telegram.StartupCheckDelay)

	logger.Info().Msg("Bot started")
	telegramBot.Start(ctx)
	telegramBot.Stop()

	logger.Info().Msg("Shutdown complete")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("Metrics server error")
	}
}
