package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/trainer-booking-service/config"
	"github.com/Eursukkul/trainer-booking-service/internal/consumer"
	"github.com/Eursukkul/trainer-booking-service/internal/handler"
	"github.com/Eursukkul/trainer-booking-service/internal/middleware"
	"github.com/Eursukkul/trainer-booking-service/internal/outbox"
	"github.com/Eursukkul/trainer-booking-service/internal/repository"
	"github.com/Eursukkul/trainer-booking-service/internal/service"
	"github.com/Eursukkul/trainer-booking-service/pkg/database"
	"github.com/Eursukkul/trainer-booking-service/pkg/logger"
	"github.com/Eursukkul/trainer-booking-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, cfg.DSN())
	if err != nil {
		zl.Fatal("Failed to open database", zap.Error(err))
	}

	// RabbitMQ: outbox relay publishes, notification consumer drains
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		zl.Fatal("Failed to connect publisher to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		zl.Fatal("Failed to connect consumer to RabbitMQ", zap.Error(err))
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		zl.Fatal("Failed to start consuming", zap.Error(err))
	}

	// Repositories
	tx := repository.NewTransactor(db)
	requestRepo := repository.NewRequestRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// Services
	retry := database.RetryPolicy{MaxRetries: cfg.StoreMaxRetries, Base: cfg.StoreRetryBase}
	requestSvc := service.NewRequestService(tx, requestRepo, bookingRepo, zl)
	applicationSvc := service.NewApplicationService(tx, requestRepo, applicationRepo, outboxRepo, zl)
	bookingSvc := service.NewBookingService(tx, bookingRepo, requestRepo, applicationRepo, agreementRepo, outboxRepo, zl)
	agreementSvc := service.NewAgreementService(tx, bookingRepo, requestRepo, agreementRepo, profileRepo, outboxRepo, retry, zl)
	feedbackSvc := service.NewFeedbackService(tx, bookingRepo, feedbackRepo, outboxRepo, cfg.FeedbackLinkTTL, retry, zl)

	relay := outbox.NewRelay(tx, outboxRepo, publisher, outbox.Options{
		Interval:       cfg.OutboxPollInterval,
		BatchSize:      cfg.OutboxBatchSize,
		MaxAttempts:    cfg.OutboxMaxAttempts,
		PublishTimeout: cfg.PublishTimeout,
		RetryBase:      cfg.OutboxRetryBase,
	}, zl)
	notifications := consumer.NewNotificationConsumer(consumer.NewLogNotifier(zl), zl)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.NewErrorHandler(zl)
	e.Validator = middleware.NewValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			zl.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.ContextTimeoutWithConfig(echoMw.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}))

	handler.Handlers{
		Requests:     handler.NewRequestHandler(requestSvc),
		Applications: handler.NewApplicationHandler(applicationSvc),
		Bookings:     handler.NewBookingHandler(bookingSvc),
		Agreements:   handler.NewAgreementHandler(agreementSvc),
		Feedback:     handler.NewFeedbackHandler(feedbackSvc),
	}.Register(e, middleware.Auth([]byte(cfg.JWTSecret)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return notifications.Run(gctx, msgs) })
	g.Go(func() error {
		zl.Info("Trainer booking service starting", zap.String("port", cfg.ServerPort), zap.String("env", cfg.AppEnv))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Error("Service stopped with error", zap.Error(err))
		return
	}
	zl.Info("Service stopped")
}
