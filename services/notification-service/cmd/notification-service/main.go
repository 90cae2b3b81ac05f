package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/teambook/libs/config"
	"github.com/md-rashed-zaman/teambook/libs/db"
	"github.com/md-rashed-zaman/teambook/libs/httpx"
	"github.com/md-rashed-zaman/teambook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/teambook/libs/otel"
	"github.com/md-rashed-zaman/teambook/libs/runtime"
	"github.com/md-rashed-zaman/teambook/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/teambook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/teambook/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/teambook/services/notification-service/internal/notify"
	"github.com/md-rashed-zaman/teambook/services/notification-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8091")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

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
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(config.Int("DATABASE_MAX_CONNS", 5))})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	sender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@teambook.local"),
	)
	processor := notify.NewProcessor(sender, storage.NewRepository(pool), config.String("EMAIL_BRAND", "Teambook"), logger)

	brokers := config.String("KAFKA_BROKERS", "")
	eventConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
		Brokers:    brokers,
		GroupID:    config.String("KAFKA_GROUP_ID", "notification-service"),
		Topic:      config.String("KAFKA_CONSUME_TOPIC", "booking.confirmed.v1"),
		RetryDelay: config.Duration("KAFKA_RETRY_DELAY", time.Second),
	}, processor.Handle)
	go eventConsumer.Run(ctx)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	handler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger, 10*time.Second)
}
