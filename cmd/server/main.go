package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openmarket/market-server/internal/config"
	"github.com/openmarket/market-server/internal/database"
	"github.com/openmarket/market-server/internal/handler"
	"github.com/openmarket/market-server/internal/jobs"
	"github.com/openmarket/market-server/internal/mailer"
	"github.com/openmarket/market-server/internal/middleware"
	"github.com/openmarket/market-server/internal/redis"
	"github.com/openmarket/market-server/internal/repository"
	"github.com/openmarket/market-server/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	var mail mailer.Mailer = mailer.NewLogMailer()
	if cfg.MailEnabled() {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, config.MailDialTimeout)
	}

	sellerRepo := repository.NewSellerRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	verifier := service.NewCredentialVerifier(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AdminPassword)
	tokens := service.NewSessionTokenService(cfg.AdminSessionSecret, cfg.AdminTokenIssuer, cfg.AdminSessionTTL())
	revocations := redis.NewSessionRevocationStore(redisClient.Client)
	authService := service.NewAdminAuthService(verifier, tokens, revocations)
	sellerService := service.NewSellerService(db, sellerRepo, notificationRepo, mail)
	notificationService := service.NewNotificationService(notificationRepo)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	isProduction := cfg.IsProduction()
	sessionMiddleware := middleware.NewAdminSessionMiddleware(authService)
	pathGuard := middleware.NewPathGuard(cfg.AdminPathToken)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxRequestBodySize)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	loginLimiter := middleware.NewIPRateLimitMiddleware(
		rateLimiter, cfg.AdminLoginMaxAttempts, config.LoginAttemptWindow, "admin-login", redis.LoginAttemptKey,
	)
	applicationLimiter := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.ApplicationRateLimit, config.ApplicationRateWindow, "seller-application", redis.ApplicationAttemptKey,
	)

	adminHandler := handler.NewAdminHandler(
		authService, sellerService, notificationService,
		sessionMiddleware, pathGuard, csrfMiddleware, loginLimiter, isProduction,
	)
	applicationHandler := handler.NewApplicationHandler(sellerService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api/seller-applications", func(r chi.Router) {
		r.Use(applicationLimiter.Handler)
		r.Mount("/", applicationHandler.Routes())
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Mount("/", adminHandler.Routes())
	})

	reviewJob := jobs.NewSuspensionReviewJob(sellerService, config.SuspensionReviewInterval)
	reviewJob.Start()
	defer reviewJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
