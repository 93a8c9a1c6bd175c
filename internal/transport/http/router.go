package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/marshalhq/marshals-api/internal/application/attendance"
	"github.com/marshalhq/marshals-api/internal/application/auth"
	"github.com/marshalhq/marshals-api/internal/application/broadcast"
	"github.com/marshalhq/marshals-api/internal/application/event"
	"github.com/marshalhq/marshals-api/internal/application/marshal"
	"github.com/marshalhq/marshals-api/internal/application/notification"
	"github.com/marshalhq/marshals-api/internal/application/notifier"
	"github.com/marshalhq/marshals-api/internal/application/roster"
	"github.com/marshalhq/marshals-api/internal/config"
	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/transport/http/handler"
	appmiddleware "github.com/marshalhq/marshals-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10. Applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	reconciler := roster.NewReconciler(deps.RosterRepo, deps.AttendanceRepo, deps.MarshalRepo)
	dispatcher := notifier.NewDispatcher(deps.NotificationRepo, deps.PushSender, deps.Mailer, deps.Log)

	authSvc := auth.NewService(deps.MarshalRepo, deps.SessionRepo, deps.JWTProvider, cfg, deps.Log)
	marshalSvc := marshal.NewService(deps.MarshalRepo, deps.SessionRepo, deps.Log)
	eventSvc := event.NewService(event.ServiceDeps{
		EventRepo:   deps.EventRepo,
		RosterRepo:  deps.RosterRepo,
		MarshalRepo: deps.MarshalRepo,
		Reconciler:  reconciler,
		Dispatcher:  dispatcher,
		Log:         deps.Log,
	})
	attendanceSvc := attendance.NewService(attendance.ServiceDeps{
		AttendanceRepo: deps.AttendanceRepo,
		RosterRepo:     deps.RosterRepo,
		EventRepo:      deps.EventRepo,
		MarshalRepo:    deps.MarshalRepo,
		Reconciler:     reconciler,
		Dispatcher:     dispatcher,
		Log:            deps.Log,
	})
	notifSvc := notification.NewService(deps.NotificationRepo)
	broadcastSvc := broadcast.NewService(broadcast.ServiceDeps{
		MarshalRepo:    deps.MarshalRepo,
		AttendanceRepo: deps.AttendanceRepo,
		EventRepo:      deps.EventRepo,
		BroadcastRepo:  deps.BroadcastRepo,
		Dispatcher:     dispatcher,
		Log:            deps.Log,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(authSvc)
	marshalH := handler.NewMarshalHandler(marshalSvc)
	eventH := handler.NewEventHandler(eventSvc)
	attendanceH := handler.NewAttendanceHandler(attendanceSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	broadcastH := handler.NewBroadcastHandler(broadcastSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public routes (no auth).
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/marshals", marshalH.Register)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.Current)
			r.Post("/sessions/logout", sessionH.Logout)

			// Any authenticated marshal
			r.Get("/marshals/{id}", marshalH.Get)
			r.Put("/marshals/{id}", marshalH.Update)

			r.Get("/events", eventH.List)
			r.Get("/events/{id}", eventH.Get)
			r.Get("/events/{id}/roster", eventH.Roster)

			r.Post("/events/{id}/attendance-requests", attendanceH.Register)
			r.Get("/attendance-requests", attendanceH.ListMine)
			r.Get("/attendance-requests/{id}", attendanceH.Get)
			r.Put("/attendance-requests/{id}/cancel", attendanceH.Cancel)

			r.Put("/roster-entries/{entryID}/response", eventH.Respond)

			r.Get("/notifications", notifH.ListUnread)
			r.Get("/notifications/count", notifH.UnreadCount)
			r.Put("/notifications/{id}", notifH.MarkAsRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/marshals", marshalH.List)
				r.Delete("/marshals/{id}", marshalH.Delete)

				r.Post("/events", eventH.Create)
				r.Put("/events/{id}", eventH.Update)
				r.Delete("/events/{id}", eventH.Delete)
				r.Post("/events/{id}/roster/invitations", eventH.Invite)
				r.Delete("/events/{id}/roster/{marshalID}", eventH.RemoveMember)

				r.Get("/events/{id}/attendance-requests", attendanceH.ListByEvent)
				r.Put("/attendance-requests/{id}/decision", attendanceH.Decide)

				r.Post("/broadcasts", broadcastH.Send)
				r.Get("/broadcasts", broadcastH.History)
			})
		})
	})

	return r
}
