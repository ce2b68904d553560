package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/database"
	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/lock"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/notify"
	"github.com/iliyamo/bus-seat-reservation/internal/payment"
	"github.com/iliyamo/bus-seat-reservation/internal/pkg/logger"
	"github.com/iliyamo/bus-seat-reservation/internal/pkg/metrics"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/router"
	"github.com/iliyamo/bus-seat-reservation/internal/worker"
)

func main() {
	_ = godotenv.Load() // .env is optional; real envs are set by the platform

	cfg := config.Load()
	logger.Set(logger.New(cfg.Env))
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(database.Options{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.MigrationsDir); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; cross-instance locking, webhook dedup and rate limiting disabled")
	}

	m := metrics.New()

	tripRepo := repository.NewTripRepo(db)
	holdRepo := repository.NewHoldRepo(db)
	resRepo := repository.NewReservationRepo(db)

	locks := booking.NewTripLocks()
	registry := booking.NewSeatMapRegistry(tripRepo)
	ledger := booking.NewLedger(holdRepo, resRepo, locks)
	var dist booking.TripLocker
	if rdb != nil {
		dist = lock.NewRedisTripLocker(rdb)
	}
	holds := booking.NewHoldManager(registry, ledger, holdRepo, locks, dist, cfg.HoldTTL, m)
	verifier := payment.NewHMACVerifier(cfg.PaymentSecrets)
	orch := booking.NewOrchestrator(holds, ledger, verifier, notify.NewPublisher(), m)

	sweeper := worker.NewHoldSweeper(holds, cfg.SweepInterval)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	go queue.StartNotificationConsumer()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.Metrics(m))

	router.Register(e, router.Deps{
		Booking:   handler.NewBookingHandler(orch),
		Trips:     handler.NewTripHandler(tripRepo, registry, ledger),
		Webhook:   handler.NewWebhookHandler(orch, payment.NewIdempotencyStore(rdb)),
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(middleware.LoadRateLimitConfig(), rdb),
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
