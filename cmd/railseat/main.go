package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/railseat/internal/api"
	"github.com/railseat/internal/common/config"
	"github.com/railseat/internal/common/db"
	"github.com/railseat/internal/common/logger"
	"github.com/railseat/internal/common/maintenance"
	"github.com/railseat/internal/common/ratelimiter"
	"github.com/railseat/internal/railway/events"
	"github.com/railseat/internal/railway/lock"
	"github.com/railseat/internal/railway/service"
	"github.com/railseat/internal/railway/store"
	"github.com/railseat/internal/railway/timetable"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with configured level and Discord support
	log := logger.NewFromConfig(logger.LoggerConfig{
		Level:           logger.ParseLogLevel(cfg.Logging.Level),
		Console:         true,
		File:            cfg.Logging.FilePath != "",
		FilePath:        cfg.Logging.FilePath,
		MaxSizeMB:       10,
		MaxBackups:      5,
		MaxAgeDays:      30,
		Compress:        true,
		TimeFieldFormat: "2006-01-02T15:04:05Z07:00",
		DiscordURL:      cfg.Logging.DiscordURL,
	})

	if envErr != nil {
		log.Debug("No .env file loaded", "error", envErr)
	}

	log.Info("Railseat service starting",
		"version", "1.0.0",
		"log_level", cfg.Logging.Level,
		"store", cfg.Store.Backend,
		"redis", cfg.Redis.Addr != "",
		"kafka_brokers", len(cfg.Kafka.Brokers),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Railseat service failed", "error", err)
	}

	log.Info("Railseat service stopped")
}

// run wires the service and blocks until a shutdown signal or a server error. Every
// resource it opens is closed before it returns.
func run(cfg *config.Config, log logger.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// Redis backs the train lock and the booking rate limiter when configured
	var (
		locker  lock.Locker = lock.NewLocal(cfg.Redis.LockWait)
		limiter api.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}

		locker = lock.NewRedis(rdb, lock.RedisOptions{
			TTL:           cfg.Redis.LockTTL,
			Wait:          cfg.Redis.LockWait,
			RetryInterval: cfg.Redis.RetryInterval,
		}, log)
		limiter = ratelimiter.NewRedisRateLimiter(rdb, cfg.Booking.RateWindow, cfg.Booking.RateMax)
		log.Info("Using Redis train lock and booking rate limit", "addr", cfg.Redis.Addr)
	} else {
		log.Info("Using in-process train lock (no Redis configured)")
	}

	// Without brokers events are still built, then dropped by the Nop producer
	var producer events.Producer = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		saramaProducer, err := events.NewSaramaProducer(cfg.Kafka.Brokers)
		if err != nil {
			return fmt.Errorf("creating kafka producer: %w", err)
		}
		producer = saramaProducer
		log.Info("Publishing booking events", "topic", cfg.Kafka.TicketTopic)
	} else {
		log.Info("Booking events disabled (no Kafka brokers configured)")
	}
	ticketEvents := events.NewTicketPublisher(producer, cfg.Kafka.TicketTopic)
	defer ticketEvents.Close()

	svc := service.New(service.Options{
		Store:     st,
		Locker:    locker,
		Publisher: ticketEvents,
		CacheSize: cfg.Booking.RouteCacheSize,
		Logger:    log,
	})

	audits := maintenance.NewAuditScheduler(
		maintenance.NewAuditor(st, log),
		log,
		maintenance.SchedulerConfig{
			Interval:     cfg.Audit.Interval,
			InitialDelay: 30 * time.Second,
		},
	)

	if cfg.Timetable.File != "" {
		audits.LockForImport()
		if _, err := timetable.NewImporter(svc, log).Import(ctx, cfg.Timetable.File); err != nil {
			log.Error("Timetable import failed", "path", cfg.Timetable.File, "error", err)
		}
		audits.UnlockAfterImport()
	}

	if err := audits.Start(ctx); err != nil {
		return fmt.Errorf("starting audit scheduler: %w", err)
	}
	defer audits.Stop()

	handler := api.NewHandler(api.Options{
		Inventory: svc,
		Limiter:   limiter,
		Audit:     audits,
		Logger:    log,
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("HTTP server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal
	var runErr error
	select {
	case <-sigChan:
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	// Cancel context to stop background work
	cancel()
	wg.Wait()

	return runErr
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	if cfg.Store.Backend != config.StorePostgres {
		log.Info("Using in-memory store")
		return store.NewMemory(), nil
	}

	database, err := db.New(ctx, cfg.Database.ConnectionString(), log)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return store.NewPostgres(database), nil
}
