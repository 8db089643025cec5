package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/movietix/booking-api/internal/config"
	"github.com/movietix/booking-api/internal/database"
	"github.com/movietix/booking-api/internal/handler"
	"github.com/movietix/booking-api/internal/payment"
	"github.com/movietix/booking-api/internal/queue"
	"github.com/movietix/booking-api/internal/repository"
	"github.com/movietix/booking-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}

	// Bookings can live in MySQL or, for demos, in an in-memory map.
	// Users and refresh tokens always live in MySQL.
	var store repository.BookingStore
	if cfg.BookingStore == "memory" {
		logrus.Warn("using in-memory booking store; bookings will not survive a restart")
		store = repository.NewMemoryBookingStore()
	} else {
		store = repository.NewMySQLBookingStore(db)
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	payCfg := payment.Config{
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		Currency:      cfg.Currency,
	}
	var gateway payment.Gateway
	if payCfg.Configured() {
		gateway = payment.NewClient(payCfg)
	} else {
		logrus.Warn("payment gateway keys not configured; payment endpoints will answer 503")
	}
	if payCfg.WebhookSecret == "" {
		logrus.Warn("no webhook secret configured; webhook events will be accepted unauthenticated")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logrus.Warn("redis unavailable; payment rate limiting disabled")
	}

	// Background dispatcher for confirmation notifications.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			logrus.WithError(err).Error("notification consumer stopped")
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterBooking(e, handler.NewBookingHandler(store), cfg.JWTSecret)
	router.RegisterPayment(e,
		handler.NewPaymentHandler(store, userRepo, gateway, payCfg),
		cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.BookingStore}).
		Info("listening")
	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
