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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pixelperfect/internal/admin"
	"pixelperfect/internal/api"
	"pixelperfect/internal/auth"
	"pixelperfect/internal/booking"
	"pixelperfect/internal/catalog"
	"pixelperfect/internal/config"
	"pixelperfect/internal/contact"
	"pixelperfect/internal/events"
	"pixelperfect/internal/gallery"
	"pixelperfect/internal/metrics"
	"pixelperfect/internal/notify"
	"pixelperfect/internal/payment"
	"pixelperfect/internal/repository"
	"pixelperfect/internal/slots"
	"pixelperfect/internal/store"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("failed to read .env")
	}

	cfg, err := config.Load(os.Getenv("STUDIO_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalog.New(nil)
	if path := cfg.CatalogPath(); path != "" {
		err := config.WatchCatalog(ctx, path, cfg.CatalogReloadInterval(),
			func(c *config.CatalogConfig) {
				cat.Replace(c.Services())
				logger.Info().Str("catalog", c.String()).Msg("catalog loaded")
			},
			func(err error) {
				logger.Error().Err(err).Msg("catalog reload failed, keeping previous catalog")
			})
		if err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("failed to load catalog")
		}
	}

	bus := events.NewBus("pixelperfect-studio", &logger)

	var sink *events.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		sink = events.NewKafkaSink(cfg.Kafka.Brokers, cfg.KafkaTopic(), cfg.Kafka.Buffer, &logger)
		sink.Start(ctx)
		bus.SubscribeAll(sink.Handle)
	}

	if cfg.Telegram.BotToken != "" {
		bot, err := notify.NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifications disabled")
		} else {
			notify.NewTelegramNotifier(bot, cfg.Telegram.Managers, cat, &logger).Register(bus)
		}
	}

	var sessions repository.SessionRepository = repository.NewMemoryRepository()
	var redisRepo *repository.RedisRepository
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		redisRepo = repository.NewRedisRepository(rdb)
		sessions = repository.NewFailoverRepository(redisRepo, sessions, &logger)
	}

	authSvc := auth.NewService(sessions, auth.Config{
		AdminEmail: cfg.AdminEmail(),
		Delay:      cfg.AuthDelay(),
		SessionTTL: cfg.SessionTTL(),
	}, logger)

	processor, err := payment.NewMockProcessor(cfg.PaymentDelay(), cfg.Payment.NodeID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create payment processor")
	}

	opts := []store.Option{
		store.WithCatalog(cat),
		store.WithProcessor(processor),
		store.WithPublisher(bus),
		store.WithLogger(&logger),
	}
	if cfg.Booking.ConflictCheck {
		opts = append(opts, store.WithConflictCheck())
	}
	bookings := store.New(opts...)

	calc, err := slots.NewCalculator(bookings, cfg.Schedule.Times)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid schedule")
	}

	flows := booking.NewFlowStore(cfg.FlowTimeout())
	engine := booking.NewEngine(flows, cat, calc, bookings, &logger)
	go cleanupFlows(ctx, flows, cfg.CleanupInterval(), &logger)

	adminSvc := admin.NewService(bookings, cat, authSvc, logger)
	portfolio := gallery.New(cat, gallery.Defaults(), &logger)
	inquiries := contact.New(bus, &logger)

	perSecond, burst := cfg.RateLimit()
	server := api.NewServer(api.Deps{
		Catalog: cat,
		Slots:   calc,
		Store:   bookings,
		Flows:   engine,
		Auth:    authSvc,
		Admin:   adminSvc,

		Gallery:  portfolio,
		Contacts: inquiries,
	}, api.Options{
		RequestTimeout: cfg.RequestTimeout(),
		RatePerSecond:  perSecond,
		RateBurst:      burst,
	}, &logger)

	go startHealthServer(ctx, cfg.HealthCheckPort(), redisRepo, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.PrometheusPort(), &logger)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("address", srv.Addr).Msg("studio API started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("api server error")
	}

	if sink != nil {
		sink.Wait()
	}
	logger.Info().Msg("studio API stopped")
}

func cleanupFlows(ctx context.Context, flows *booking.FlowStore, interval time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := flows.Cleanup(); n > 0 {
				logger.Debug().Int("removed", n).Msg("expired booking flows removed")
			}
		}
	}
}

func startHealthServer(ctx context.Context, port int, redisRepo *repository.RedisRepository, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if redisRepo != nil {
			ctxPing, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			if err := redisRepo.Ping(ctxPing); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
