package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/controllers"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/middleware"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/auth"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/companies"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/membership"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/notifications"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/quizzes"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/users"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/auth/session"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/config"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	Sessions      sessionManager
	Readiness     map[string]controllers.ReadinessPinger
	Registry      *prometheus.Registry
	Auth          auth.Service
	Users         users.Service
	Companies     companies.Service
	Membership    membership.Service
	Quizzes       quizzes.Service
	Notifications notifications.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signup", controllers.AuthSignup(deps.Auth, logg))
		r.Post("/signin", controllers.AuthSignin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Get("/me", controllers.AuthMe(deps.Auth, logg))
		r.Patch("/me", controllers.UpdateMyProfile(deps.Users, logg))
		r.Put("/me/password", controllers.ChangeMyPassword(deps.Users, logg))
		r.Delete("/me", controllers.DeleteMyAccount(deps.Users, logg))
		r.Get("/me/invites", controllers.ListMyInvites(deps.Membership, logg))
		r.Get("/me/join-requests", controllers.ListMyJoinRequests(deps.Membership, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(deps.Users, logg))
			r.Get("/{userId}", controllers.GetUser(deps.Users, logg))
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", controllers.ListCompanies(deps.Companies, logg))
			r.Post("/", controllers.CreateCompany(deps.Companies, logg))
			r.Get("/own", controllers.ListMyCompanies(deps.Companies, logg))

			r.Route("/{companyId}", func(r chi.Router) {
				r.Get("/", controllers.GetCompany(deps.Companies, logg))
				r.Patch("/", controllers.UpdateCompany(deps.Companies, logg))
				r.Put("/visibility", controllers.SetCompanyVisibility(deps.Companies, logg))
				r.Delete("/", controllers.DeleteCompany(deps.Companies, logg))

				r.Post("/invites", controllers.CreateInvite(deps.Membership, logg))
				r.Get("/invites", controllers.ListCompanyInvites(deps.Membership, logg))
				r.Post("/join-requests", controllers.CreateJoinRequest(deps.Membership, logg))
				r.Get("/join-requests", controllers.ListCompanyJoinRequests(deps.Membership, logg))

				r.Get("/members", controllers.ListMembers(deps.Membership, logg))
				r.Delete("/members/{userId}", controllers.RemoveMember(deps.Membership, logg))
				r.Post("/admins/{userId}", controllers.AppointAdmin(deps.Membership, logg))
				r.Post("/leave", controllers.LeaveCompany(deps.Membership, logg))

				r.Post("/quizzes", controllers.CreateQuiz(deps.Quizzes, logg))
				r.Get("/quizzes", controllers.ListQuizzes(deps.Quizzes, logg))
			})
		})

		r.Route("/invites/{inviteId}", func(r chi.Router) {
			r.Post("/accept", controllers.AcceptInvite(deps.Membership, logg))
			r.Post("/reject", controllers.RejectInvite(deps.Membership, logg))
			r.Delete("/", controllers.WithdrawInvite(deps.Membership, logg))
		})

		r.Route("/join-requests/{requestId}", func(r chi.Router) {
			r.Post("/confirm", controllers.ConfirmJoinRequest(deps.Membership, logg))
			r.Post("/deny", controllers.DenyJoinRequest(deps.Membership, logg))
			r.Delete("/", controllers.CancelJoinRequest(deps.Membership, logg))
		})

		r.Route("/quizzes/{quizId}", func(r chi.Router) {
			r.Get("/", controllers.GetQuiz(deps.Quizzes, logg))
			r.Patch("/", controllers.UpdateQuiz(deps.Quizzes, logg))
			r.Delete("/", controllers.DeleteQuiz(deps.Quizzes, logg))
			r.Post("/attempts", controllers.SubmitQuizAttempt(deps.Quizzes, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
		})
	})

	return r
}
