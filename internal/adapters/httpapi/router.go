package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
	"github.com/stoop-politics/stoop/internal/ratelimit"
)

// Rule est une limite par IP : Max requêtes par Window.
type Rule struct {
	Max    int
	Window time.Duration
}

type Limits struct {
	Subscribe     Rule
	Verify        Rule
	Notifications Rule
	Inbox         Rule
}

func DefaultLimits() Limits {
	return Limits{
		Subscribe:     Rule{Max: 5, Window: time.Minute},
		Verify:        Rule{Max: 10, Window: time.Minute},
		Notifications: Rule{Max: 10, Window: time.Minute},
		Inbox:         Rule{Max: 5, Window: time.Minute},
	}
}

// Deps regroupe les services exposés. Un service nil désactive ses routes.
type Deps struct {
	Episodes    *app.EpisodeService
	Subscribers *app.SubscriberService
	Notifier    *app.NotificationService
	Jobs        *app.JobService
	Settings    *app.SettingsService
	Health      *app.HealthService
	Inbox       *app.InboxService
	Auth        ports.AuthProvider
	Bus         ports.EventBus

	// Limiter est partagé par toutes les routes publiques en écriture.
	Limiter *ratelimit.FixedWindow
	Limits  Limits

	// Cookies signe le cookie abonné ; nil = pas de cookie.
	Cookies       *securecookie.SecureCookie
	SecureCookies bool

	// OnSettingsUpdated est optionnel (ex: ajuster le nombre de workers).
	OnSettingsUpdated func(domain.Settings)
}

type Server struct {
	logger zerolog.Logger
	Deps
}

func NewServer(logger zerolog.Logger, deps Deps) *Server {
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewFixedWindow()
	}
	if deps.Limits == (Limits{}) {
		deps.Limits = DefaultLimits()
	}
	return &Server{logger: logger, Deps: deps}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))

			r.Get("/health", s.handleHealth)
			r.Get("/version", s.handleVersion)
			r.Get("/openapi.json", s.handleOpenAPI)

			if s.Episodes != nil {
				NewEpisodesHandler(s.Episodes, s.Settings, s.Cookies).PublicRoutes(r)
			}
			if s.Subscribers != nil {
				NewSubscribersHandler(s.Subscribers, s.Cookies, s.SecureCookies).PublicRoutes(r, s)
			}
			if s.Inbox != nil {
				NewInboxHandler(s.Inbox).PublicRoutes(r, s)
			}
			if s.Health != nil {
				r.Get("/notifications/health", s.handleNotificationsHealth)
			}
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.RequireAdmin)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(defaultRequestTimeout))

				r.Get("/me", s.handleMe)
				if s.Episodes != nil {
					NewEpisodesHandler(s.Episodes, s.Settings, s.Cookies).AdminRoutes(r)
				}
				if s.Subscribers != nil {
					NewSubscribersHandler(s.Subscribers, s.Cookies, s.SecureCookies).AdminRoutes(r)
				}
				if s.Inbox != nil {
					NewInboxHandler(s.Inbox).AdminRoutes(r)
				}
				if s.Jobs != nil {
					NewJobsHandler(s.Jobs).Routes(r)
				}
				if s.Settings != nil {
					NewSettingsHandler(s.Settings, s.OnSettingsUpdated).Routes(r)
				}
			})

			// Un envoi groupé synchrone dure au moins (n-1) × intervalle.
			if s.Notifier != nil {
				r.Group(func(r chi.Router) {
					r.Use(middleware.Timeout(broadcastTimeout))
					NewBroadcastHandler(s.Notifier, s.Jobs).Routes(r)
				})
			}

			if s.Bus != nil {
				r.Get("/events", s.handleEvents)
			}
		})
	})

	return r
}
