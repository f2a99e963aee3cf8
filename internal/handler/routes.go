package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/logging"
	"github.com/msomdec/estate-listings/internal/ratelimit"
	"github.com/msomdec/estate-listings/internal/service"
	"github.com/msomdec/estate-listings/internal/telemetry"
)

// Deps carries everything the router needs. Files and AuthLimiter are
// optional.
type Deps struct {
	Auth       *service.AuthService
	Properties *service.PropertyService
	Leads      *service.LeadService

	DB          Pinger
	Files       domain.FileStore
	AuthLimiter ratelimit.Limiter

	CORSOrigins []string
	Development bool
	ServiceName string
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(telemetry.HTTPMiddleware(d.ServiceName))
	r.Use(logging.RequestLogger)
	r.Use(Recoverer(d.Development))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", HandleHealthz(d.DB))
	if d.Files != nil {
		r.Get("/media/{key}", NewMediaHandler(d.Files).HandleServe)
	}

	requireAuth := RequireAuth(d.Auth)
	authH := NewAuthHandler(d.Auth)
	propH := NewPropertyHandler(d.Properties)
	leadH := NewLeadHandler(d.Leads)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(RateLimit(d.AuthLimiter, "auth"))
				r.Post("/register", authH.HandleRegister)
				r.Post("/login", authH.HandleLogin)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authH.HandleMe)
				r.Put("/profile", authH.HandleUpdateProfile)
				r.Put("/change-password", authH.HandleChangePassword)
			})
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", propH.HandleList)
			r.Get("/{id}", propH.HandleGet)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/my-properties", propH.HandleListMine)
				r.Post("/", propH.HandleCreate)

				owner := RequireOwnership(d.Properties.Guard())
				r.With(owner).Put("/{id}", propH.HandleUpdate)
				r.With(owner).Delete("/{id}", propH.HandleDelete)
			})
		})

		r.Route("/leads", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(RequireRole(domain.RoleBuyer)).Post("/", leadH.HandleCreate)
			r.With(RequireRole(domain.RoleAdmin)).Get("/", leadH.HandleListAll)
			r.With(RequireRole(domain.RoleAgent)).Get("/agent", leadH.HandleListForAgent)
			r.With(RequireRole(domain.RoleBuyer)).Get("/buyer", leadH.HandleListForBuyer)
			r.With(RequireOwnership(d.Leads.ReadGuard())).Get("/{id}", leadH.HandleGet)
			r.With(RequireOwnership(d.Leads.WriteGuard())).Put("/{id}", leadH.HandleUpdate)
			r.With(RequireRole(domain.RoleAdmin)).Delete("/{id}", leadH.HandleDelete)
		})
	})

	return r
}
