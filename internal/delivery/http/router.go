package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventinvites/internal/delivery/http/controllers"
	"eventinvites/internal/delivery/http/middleware"
	"eventinvites/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	checkInController *controllers.CheckInController,
	invitationController *controllers.InvitationController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/signin", authController.SignIn)
	mux.HandleFunc("POST /auth/verify-email", authController.VerifyEmail)
	mux.HandleFunc("POST /auth/resend-code", authController.ResendCode)
	mux.HandleFunc("GET /auth/me", auth(authController.Me))

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEvent))
	mux.HandleFunc("GET /events/{eventID}/invitations", auth(eventController.ListInvitations))

	// Invitation emails
	mux.HandleFunc("POST /events/{eventID}/invitations/send", auth(invitationController.SendAll))
	mux.HandleFunc("POST /invitations/{invitationID}/send", auth(invitationController.SendOne))

	// Check-in
	mux.HandleFunc("GET /checkin", auth(checkInController.Lookup))
	mux.HandleFunc("POST /checkin/{invitationID}", auth(checkInController.Confirm))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
