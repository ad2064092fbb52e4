package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"ms-companion/internal/auth"
	"ms-companion/internal/checkin/checkin_api"
	checkin_db "ms-companion/internal/checkin/db"
	checkin "ms-companion/internal/checkin/service"
	"ms-companion/internal/config"
	"ms-companion/internal/database"
	"ms-companion/internal/database/migrations"
	identity_db "ms-companion/internal/identity/db"
	"ms-companion/internal/identity/identity_api"
	identity "ms-companion/internal/identity/service"
	"ms-companion/internal/kafka"
	"ms-companion/internal/logger"
	"ms-companion/internal/qr"
	"ms-companion/internal/raffle"
	raffle_api "ms-companion/internal/raffle/api"
	schedule_db "ms-companion/internal/schedule/db"
	"ms-companion/internal/schedule/schedule_api"
	schedule "ms-companion/internal/schedule/service"
	"ms-companion/internal/utils"
)

func runMigrations(cfg config.DatabaseConfig, logger *logger.Logger) {
	runner := migrations.NewRunner(cfg.AdminDSN, cfg.MigrationsDir, logger)
	defer func() {
		if err := runner.Close(); err != nil {
			logger.Warn("MIGRATION", fmt.Sprintf("Closing migrator: %v", err))
		}
	}()

	if err := runner.Up(); err != nil {
		logger.Fatal("MIGRATION", fmt.Sprintf("Failed to apply migrations: %v", err))
	}
	logger.Info("MIGRATION", "✅ Schema is up to date")
}

func healthz(clients *database.Clients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := clients.Admin.PingContext(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("database unavailable", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", nil))
	}
}

func main() {
	log := logger.NewLogger("companion")
	defer log.Close()

	log.Info("APP", "Starting companion service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Auth.SessionSecret == "" {
		log.Fatal("CONFIG", "SESSION_SECRET not set")
	}

	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	clients, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer clients.Close()

	if cfg.Database.AutoMigrate {
		runMigrations(cfg.Database, log)
	}

	redisClient, err := auth.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("REDIS", err.Error())
	}
	defer redisClient.Close()

	var (
		smsSender auth.SMSSender
		publisher checkin.Publisher
	)
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Kafka.Brokers))
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()

		requiredTopics := []string{
			cfg.Kafka.Topics.CheckInRecorded,
			cfg.Kafka.Topics.TicketIssued,
			cfg.Kafka.Topics.SMSOutbound,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}

		smsSender = &auth.KafkaSMSSender{Producer: producer, Topic: cfg.Kafka.Topics.SMSOutbound}
		publisher = producer
	} else {
		log.Warn("KAFKA", "KAFKA_ENABLED=false, SMS codes are logged and check-in events are not published")
		smsSender = &auth.LogSMSSender{Logger: log}
	}

	provider := auth.NewOTPProvider(
		clients.Admin,
		auth.NewRedisSessionStore(redisClient),
		smsSender,
		auth.NewTokenIssuer(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL),
		auth.OTPProviderConfig{
			CodeTTL:        cfg.Auth.OTPTTL,
			ResendInterval: cfg.Auth.OTPResendInterval,
			MaxAttempts:    cfg.Auth.OTPMaxAttempts,
		},
		log,
	)

	staffAuth, err := auth.StaffMiddleware(ctx, cfg.Staff, log)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	qrGenerator := qr.NewGenerator(cfg.QR)

	identityService := identity.NewIdentityService(&identity_db.DB{Admin: clients.Admin, User: clients.User}, provider, log)
	scheduleService := schedule.NewScheduleService(&schedule_db.DB{Bun: clients.User}, log)
	checkInService := checkin.NewCheckInService(&checkin_db.DB{Bun: clients.Admin}, publisher, cfg.Kafka.Topics, log)
	raffleService := raffle.NewService(raffle.NewDB(clients.User), log)
	staffRaffleService := raffle.NewService(raffle.NewDB(clients.Admin), log)

	identityHandler := identity_api.NewHandler(identityService, qrGenerator, cfg.Auth, log)
	scheduleHandler := schedule_api.NewHandler(scheduleService, log)
	checkInHandler := checkin_api.NewHandler(checkInService, qrGenerator, log)
	raffleHandler := raffle_api.NewHandler(raffleService, log)
	staffRaffleHandler := raffle_api.NewHandler(staffRaffleService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	// Credentials are allowed for the session cookie, so origins must be listed explicitly.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthz(clients))

	r.Route("/api", func(r chi.Router) {
		// --- Participant Routes ---
		r.Group(func(r chi.Router) {
			r.Use(identity_api.SessionMiddleware(identityService, cfg.Auth.CookieName))

			identityHandler.RegisterPublicRoutes(r)
			scheduleHandler.RegisterPublicRoutes(r)
			log.Info("ROUTER", "Public auth, session and event routes registered under /api")

			r.Group(func(r chi.Router) {
				r.Use(identity_api.RequireSession)
				identityHandler.RegisterSessionRoutes(r)
				scheduleHandler.RegisterSessionRoutes(r)
				raffleHandler.RegisterSessionRoutes(r)
				log.Info("ROUTER", "Session routes registered for profile, bookmarks, QR and raffle")
			})
		})

		// --- Staff Routes ---
		r.Route("/admin", func(r chi.Router) {
			r.Use(staffAuth)
			checkInHandler.RegisterStaffRoutes(r)
			scheduleHandler.RegisterStaffRoutes(r)
			staffRaffleHandler.RegisterStaffRoutes(r)
			log.Info("ROUTER", "Staff routes registered under /api/admin")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Companion service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Companion service shutdown complete")
	}
}
