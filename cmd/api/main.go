package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	_ "eventinvites/docs"

	"eventinvites/config"
	"eventinvites/internal/adapters/auth"
	"eventinvites/internal/adapters/blob"
	"eventinvites/internal/adapters/email"
	"eventinvites/internal/adapters/qr"
	"eventinvites/internal/adapters/spreadsheet"
	delivery "eventinvites/internal/delivery/http"
	"eventinvites/internal/delivery/http/controllers"
	"eventinvites/internal/delivery/http/middleware"
	"eventinvites/internal/repository/postgres"
	"eventinvites/internal/services"
)

const (
	serviceTimeout  = 30 * time.Second
	tokenExpiry     = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

// @title Event Invites API
// @version 1.0
// @description Event invitation management: roster ingestion, invitation emails and guest check-in.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	userRepo := postgres.NewUserRepository(db)
	codeRepo := postgres.NewVerificationCodeRepository(db)

	rosterParser := spreadsheet.NewRosterParser()
	qrGenerator := qr.NewGenerator()
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokenIssuer, tokenVerifier := auth.NewJWTTokens(cfg.JWTSecret)

	blobStore, err := blob.NewLocalStore(cfg.UploadDir)
	if err != nil {
		logger.Error("failed to initialize blob store", "error", err)
		os.Exit(1)
	}

	renderer := email.NewTemplateRenderer()
	mailer := email.NewMailer(email.MailerConfig{
		Provider:        cfg.Mailer.Provider,
		FromAddress:     cfg.Mailer.FromAddress,
		FromName:        cfg.Mailer.FromName,
		Region:          cfg.Mailer.SESRegion,
		AccessKeyID:     cfg.Mailer.SESAccessKeyID,
		SecretAccessKey: cfg.Mailer.SESSecretAccessKey,
	}, logger)

	emailService := services.NewEmailService(mailer, renderer, logger)
	rosterService := services.NewRosterService(rosterParser)
	eventService := services.NewEventService(eventRepo, invitationRepo, rosterService, blobStore, serviceTimeout)
	checkInService := services.NewCheckInService(invitationRepo)
	invitationMailService := services.NewInvitationMailService(eventRepo, invitationRepo, emailService, qrGenerator, cfg.PublicURL, logger)
	userService := services.NewUserService(userRepo, codeRepo, hasher, tokenIssuer, tokenExpiry, emailService)

	authController := controllers.NewAuthController(logger, userService)
	eventController := controllers.NewEventController(logger, eventService)
	checkInController := controllers.NewCheckInController(logger, checkInService)
	invitationController := controllers.NewInvitationController(logger, invitationMailService)

	mux := delivery.NewRouter(authController, eventController, checkInController, invitationController, tokenVerifier, logger)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.AllowedOrigins, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "environment", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
