package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/diagnosis/vms/internal/http/handlers"
	authmw "github.com/diagnosis/vms/internal/http/middleware"
	"github.com/diagnosis/vms/internal/platform/mailer"
	"github.com/diagnosis/vms/internal/platform/password"
	"github.com/diagnosis/vms/internal/repository"
	"github.com/diagnosis/vms/internal/service"
	"github.com/diagnosis/vms/pkg/auth"
	"github.com/diagnosis/vms/pkg/config"
	"github.com/diagnosis/vms/pkg/database"
	"github.com/diagnosis/vms/pkg/events"
	"github.com/diagnosis/vms/pkg/logger"
	mw "github.com/diagnosis/vms/pkg/middleware"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.New(cfg)
	if err != nil {
		logger.Error("Failed to connect to event bus", "backend", cfg.Events.Backend, "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	loginLimit, closeLimiter, err := loginRateLimit(cfg, pool)
	if err != nil {
		logger.Error("Failed to set up login rate limiting", "backend", cfg.RateLimit.Backend, "error", err)
		os.Exit(1)
	}
	defer closeLimiter()

	// Repositories
	visitorRepo := repository.NewVisitorRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	emergencyRepo := repository.NewEmergencyRepository(pool)

	// Services
	hasher := password.New(cfg.Auth.BcryptCost)
	visitorService := service.NewVisitorService(visitorRepo, eventBus, cfg.Visitors.EditWindow)
	authService := service.NewAuthService(adminRepo, hasher, auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		service.LockoutPolicy{MaxAttempts: cfg.Auth.MaxLoginAttempts, LockDuration: cfg.Auth.LockDuration})
	adminService := service.NewAdminService(adminRepo, hasher)
	emergencyService := service.NewEmergencyService(emergencyRepo, eventBus, newAlerter(cfg.Email))

	h := handlers.New(visitorService, service.NewIdentifierResolver(visitorRepo), authService,
		adminService, emergencyService, cfg.Server.DemoMode)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("vms-api"))
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(mw.DemoMode(cfg.Server.DemoMode))

	h.Routes(r, loginLimit)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting server", "port", cfg.Server.Port, "demo_mode", cfg.Server.DemoMode,
		"events", cfg.Events.Backend, "rate_limit", cfg.RateLimit.Backend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// loginRateLimit builds the login throttle. A nil middleware disables it.
func loginRateLimit(cfg *config.Config, db database.DB) (func(http.Handler) http.Handler, func(), error) {
	limits := authmw.RateLimitConfig{Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window}

	switch cfg.RateLimit.Backend {
	case "postgres":
		return authmw.NewRateLimiter(authmw.NewPostgresRateLimitStore(db), limits).Middleware(), func() {}, nil
	case "redis":
		client, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Error("Failed to close redis client", "error", err)
			}
		}
		return authmw.NewRateLimiter(authmw.NewRedisRateLimitStore(client), limits).Middleware(), closeFn, nil
	default:
		logger.Warn("Login rate limiting disabled", "backend", cfg.RateLimit.Backend)
		return nil, func() {}, nil
	}
}

func newAlerter(cfg config.EmailConfig) service.AlertSender {
	if cfg.SecurityAlertEmail == "" {
		logger.Warn("SECURITY_ALERT_EMAIL not set; emergency emails disabled")
		return nil
	}
	if cfg.DevMode || cfg.MailerSendKey == "" {
		return mailer.NewAlerter(mailer.NewDevMailer(), cfg.SecurityAlertEmail)
	}
	return mailer.NewAlerter(mailer.NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail), cfg.SecurityAlertEmail)
}
