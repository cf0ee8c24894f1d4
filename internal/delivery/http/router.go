package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"meetnet/internal/delivery/http/controllers"
	"meetnet/internal/delivery/http/middleware"
	"meetnet/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Everything except signup, login, and swagger requires a Bearer token.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	auth *controllers.AuthController,
	events *controllers.EventController,
	membership *controllers.MembershipController,
	connections *controllers.ConnectionController,
	notifications *controllers.NotificationController,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", auth.SignUp)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("GET /users/me", requireAuth(auth.Me))
	mux.HandleFunc("GET /users/{userID}", requireAuth(auth.GetUser))

	// Events
	mux.HandleFunc("POST /events", requireAuth(events.CreateEvent))
	mux.HandleFunc("GET /events", requireAuth(events.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", requireAuth(events.GetEvent))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(events.DeleteEvent))

	// Membership
	mux.HandleFunc("POST /events/{eventID}/join", requireAuth(membership.Join))
	mux.HandleFunc("POST /events/{eventID}/leave", requireAuth(membership.Leave))
	mux.HandleFunc("GET /events/{eventID}/membership", requireAuth(membership.GetState))
	mux.HandleFunc("POST /events/{eventID}/invites", requireAuth(membership.Invite))
	mux.HandleFunc("POST /events/{eventID}/invites/accept", requireAuth(membership.AcceptInvite))
	mux.HandleFunc("GET /events/{eventID}/attendees", requireAuth(membership.ListAttendees))
	mux.HandleFunc("POST /events/{eventID}/attendees/{userID}/approve", requireAuth(membership.Approve))
	mux.HandleFunc("POST /events/{eventID}/attendees/{userID}/decline", requireAuth(membership.DeclineRequest))
	mux.HandleFunc("DELETE /events/{eventID}/attendees/{userID}", requireAuth(membership.RemoveAttendee))

	// Connections
	mux.HandleFunc("GET /connections", requireAuth(connections.List))
	mux.HandleFunc("GET /connections/{userID}/status", requireAuth(connections.GetStatus))
	mux.HandleFunc("POST /connections/{userID}/request", requireAuth(connections.Request))
	mux.HandleFunc("POST /connections/{userID}/accept", requireAuth(connections.Accept))
	mux.HandleFunc("POST /connections/{userID}/decline", requireAuth(connections.Decline))
	mux.HandleFunc("DELETE /connections/{userID}", requireAuth(connections.Remove))

	// Notifications
	mux.HandleFunc("GET /notifications", requireAuth(notifications.List))
	mux.HandleFunc("POST /notifications/{notificationID}/read", requireAuth(notifications.MarkRead))
	mux.HandleFunc("POST /notifications/{notificationID}/respond", requireAuth(notifications.Respond))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
