package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/database"
	"github.com/travelco/travel-planner/internal/gateway"
	"github.com/travelco/travel-planner/internal/handler"
	"github.com/travelco/travel-planner/internal/logger"
	"github.com/travelco/travel-planner/internal/middleware"
	"github.com/travelco/travel-planner/internal/repository"
	"github.com/travelco/travel-planner/internal/router"
	"github.com/travelco/travel-planner/internal/service"
	"github.com/travelco/travel-planner/internal/validation"
)

func main() {
	cfg := config.Load()
	logger.InitLoggers(logger.Options{Env: cfg.Env, Dir: cfg.LogDir, Level: cfg.LogLevel})

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.ErrorLogger.WithError(err).Fatal("database open failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		logger.ErrorLogger.WithError(err).Fatal("database migration failed")
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	customers := repository.NewCustomerRepo(db)
	creds := repository.NewCredentialRepo(db)
	trips := repository.NewTripRepo(db)
	transports := repository.NewTransportRepo(db)
	stays := repository.NewAccommodationRepo(db)
	payments := repository.NewPaymentRepo(db)
	sessions := repository.NewBookingSessionRepo(db)

	gw := gateway.New(cfg.Razorpay)
	pub := service.NewQueuePublisher(cfg.RabbitURL)
	defer pub.Close()
	bookings := service.NewBookingService(trips, transports, stays, sessions, gw, pub)

	e := echo.New()
	e.Validator = validation.New()
	router.Setup(e, cfg, rdb)

	authLimit, err := middleware.NewAuthLimiter(cfg.AuthRateLimit, rdb)
	if err != nil {
		logger.ErrorLogger.WithError(err).Fatal("invalid AUTH_RATE_LIMIT")
	}
	router.RegisterRoutes(e, router.Handlers{
		Health:        handler.NewHealthHandler(db),
		Auth:          handler.NewAuthHandler(cfg, customers, creds),
		Customers:     handler.NewCustomerHandler(customers, cfg.BcryptCost),
		Trips:         handler.NewTripHandler(trips),
		Transports:    handler.NewTransportHandler(trips, transports),
		Accommodation: handler.NewAccommodationHandler(trips, stays),
		Payments:      handler.NewPaymentHandler(trips, payments, gw),
		Sessions:      handler.NewSessionHandler(bookings),
	}, cfg, rdb, authLimit)
	router.RegisterStatic(e, cfg.StaticDir)

	addr := ":" + cfg.Port
	go func() {
		logger.InfoLogger.WithField("env", cfg.Env).WithField("gateway", gw.Name()).Infof("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLogger.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.ErrorLogger.WithError(err).Error("graceful shutdown failed")
	}
	logger.InfoLogger.Info("server stopped")
}
