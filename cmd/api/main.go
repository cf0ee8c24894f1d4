package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetnet/config"
	_ "meetnet/docs"
	"meetnet/internal/adapters/auth"
	"meetnet/internal/adapters/email"
	httpdelivery "meetnet/internal/delivery/http"
	"meetnet/internal/delivery/http/controllers"
	"meetnet/internal/delivery/http/middleware"
	"meetnet/internal/repository/postgres"
	"meetnet/internal/services"
)

const (
	serviceTimeout  = 5 * time.Second
	notifierTimeout = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	bcryptCost      = 12
)

// @title MeetNet API
// @version 1.0
// @description Event networking backend: events, membership, connections, and notifications.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := postgres.Open(cfg.DBUrl)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	store := postgres.NewStore(db)

	hasher := auth.NewBcryptHasher(bcryptCost)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("mailer init failed", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	notifier := services.NewNotifier(store, emailService, logger, notifierTimeout)

	userService := services.NewUserService(store, hasher, issuer, emailService, logger, serviceTimeout)
	eventService := services.NewEventService(store, serviceTimeout)
	membershipService := services.NewMembershipService(store, notifier, serviceTimeout)
	connectionService := services.NewConnectionService(store, notifier, serviceTimeout)
	notificationService := services.NewNotificationService(store, membershipService, serviceTimeout)

	mux := httpdelivery.NewRouter(
		logger,
		verifier,
		controllers.NewAuthController(logger, userService),
		controllers.NewEventController(logger, eventService),
		controllers.NewMembershipController(logger, membershipService),
		controllers.NewConnectionController(logger, connectionService),
		controllers.NewNotificationController(logger, notificationService),
	)

	var handler http.Handler = middleware.LoggingMiddleware(logger, mux)
	if len(cfg.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.AllowedOrigins, handler)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	notifier.Wait()
	logger.Info("stopped")
}
