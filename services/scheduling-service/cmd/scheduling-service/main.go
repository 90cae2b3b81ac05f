package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/teambook/libs/config"
	"github.com/md-rashed-zaman/teambook/libs/db"
	"github.com/md-rashed-zaman/teambook/libs/httpx"
	"github.com/md-rashed-zaman/teambook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/teambook/libs/otel"
	"github.com/md-rashed-zaman/teambook/libs/runtime"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/automation"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/directory"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/handlers"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	// Upstream endpoints have no defaults; a missing one stops startup.
	webhookURL, err := config.RequiredString("AUTOMATION_WEBHOOK_URL")
	if err != nil {
		panic(err)
	}
	baseURL, err := config.RequiredString("AUTOMATION_BASE_URL")
	if err != nil {
		panic(err)
	}
	loc, err := loadLocation(config.String("SCHEDULING_TIMEZONE", ""))
	if err != nil {
		panic(err)
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(config.Int("DATABASE_MAX_CONNS", 10))})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	client, err := automation.NewClient(automation.Config{
		WebhookURL: webhookURL,
		BaseURL:    baseURL,
		APIKey:     config.String("AUTOMATION_API_KEY", ""),
	})
	if err != nil {
		panic(err)
	}
	policy := automation.Policy{
		MaxAttempts: config.Int("AUTOMATION_POLL_ATTEMPTS", 30),
		Delay:       config.Duration("AUTOMATION_POLL_DELAY", 2*time.Second),
	}
	resolver := automation.NewResolver(client, policy, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	availabilitySvc := availability.NewService(client, resolver, availability.Options{
		Location: loc,
		Metrics:  availability.NewMetrics(registry),
		Logger:   logger,
	})

	teamRepo := storage.NewTeamRepository(pool)
	members := directory.NewCache(teamRepo,
		config.Int("DIRECTORY_CACHE_SIZE", directory.DefaultSize),
		config.Duration("DIRECTORY_CACHE_TTL", directory.DefaultTTL),
	)
	bookingRepo := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository()

	brokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if strings.TrimSpace(brokers) != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 30)
	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB(),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "teambook:availability"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
		logger.Info("availability rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rateLimitMW = httpx.NewRateLimiter(limitPerMinute, time.Minute).Middleware()
		logger.Info("availability rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := newRouter(routerDeps{
		Availability:   handlers.NewAvailabilityHandler(availabilitySvc, logger),
		Team:           handlers.NewTeamHandler(members, logger),
		Booking:        handlers.NewBookingHandler(bookingRepo, outboxRepo, members, loc.String(), logger),
		Checks:         checks,
		Metrics:        registry,
		RateLimit:      rateLimitMW,
		RequestTimeout: config.Duration("REQUEST_TIMEOUT", 10*time.Second),
		BodyLimit:      int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)),
		CORS: httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		},
		Logger: logger,
	}, service)

	// Availability may poll the upstream for up to attempts x delay, so the
	// write deadline sits above that ceiling.
	pollCeiling := policy.Budget()
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      pollCeiling + 30*time.Second,
	}
	runtime.Serve(ctx, srv, logger, 10*time.Second)
}

// loadLocation resolves SCHEDULING_TIMEZONE. Empty means the server's local zone.
func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func redisDB() int {
	if strings.TrimSpace(config.String("REDIS_DB", "")) == "" {
		return 0
	}
	return config.Int("REDIS_DB", 0)
}
