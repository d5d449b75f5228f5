package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/database"
	"github.com/Ananth-NQI/smartservice-backend/internal/config"
	"github.com/Ananth-NQI/smartservice-backend/internal/handlers"
	"github.com/Ananth-NQI/smartservice-backend/internal/middleware"
	"github.com/Ananth-NQI/smartservice-backend/internal/routes"
	"github.com/Ananth-NQI/smartservice-backend/internal/services"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
	"github.com/Ananth-NQI/smartservice-backend/internal/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.InitializeLogger(cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	// Initialize storage
	var store storage.Store
	storageKind := "postgres"
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
		storageKind = "memory"
	} else {
		db, err := database.Connect(cfg, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		logger.Info("running database migrations")
		if err := database.Migrate(db); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		store = storage.NewDatabaseStore(db)
	}

	if cfg.SeedDemoData {
		if err := storage.SeedDemoData(context.Background(), store); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
		logger.Info("demo employee and workers ready")
	}

	messenger, err := newMessenger(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize messaging", zap.Error(err))
	}

	// Initialize all services
	otp := services.NewOTPService(store, messenger, logger)
	notifier := services.NewNotifier(store, logger)
	requests := services.NewServiceRequestService(store, otp, notifier, logger)
	accounts := services.NewAccountService(store, otp, notifier, requests, logger)

	app := fiber.New(fiber.Config{
		AppName:      "Smart Service Backend v" + routes.Version,
		ErrorHandler: handlers.ErrorHandler(logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.RequestIDHeader,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Deps{
		Store:         store,
		StorageKind:   storageKind,
		Accounts:      accounts,
		Requests:      requests,
		Tokens:        services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Receipts:      services.NewReceiptRenderer(cfg.PublicURL),
		OTPLimiter:    middleware.NewRateLimiter(cfg.OTPPerMin, cfg.OTPBurst),
		VerifyLimiter: middleware.NewRateLimiter(cfg.VerifyPerMin, cfg.VerifyBurst),
		Logger:        logger,
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("gracefully shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("smart service backend starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("storage", storageKind),
		zap.String("sms_backend", cfg.SMSBackend),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newMessenger picks the outbound channel for OTP codes.
func newMessenger(cfg config.Config, logger *zap.Logger) (services.Messenger, error) {
	switch cfg.SMSBackend {
	case "twilio", "whatsapp":
		channel := services.ChannelSMS
		if cfg.SMSBackend == "whatsapp" {
			channel = services.ChannelWhatsApp
		}
		twilio, err := services.NewTwilioService(services.TwilioConfig{
			AccountSID:  cfg.TwilioAccountSID,
			AuthToken:   cfg.TwilioAuthToken,
			From:        cfg.TwilioPhoneNumber,
			CountryCode: cfg.SMSCountryCode,
			Channel:     channel,
		}, logger)
		if err != nil {
			return nil, err
		}
		return twilio, nil
	default:
		if cfg.IsProduction() {
			logger.Warn("console SMS backend in production: OTPs are only logged")
		}
		return services.NewConsoleMessenger(logger), nil
	}
}
