/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RequestLogger: One structured line per request (zerolog)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/auth/*        Login, recovery, password management
  /api/usuarios/*    User administration
  /api/hospitales/*  Hospital catalog
  /api/gases/*       Gas catalog
  /api/consumos/*    Consumption records and validation
  /api/dashboard/*   Analytics summaries
  /api/reportes/*    PDF/CSV exports
  /api/auditoria/*   Audit trail
  /api/alertas/*     Alerts

  Everything except /api/auth/login, /api/auth/recuperar and
  /api/auth/restablecer sits behind bearer authentication.

SEE ALSO:
  - handlers.go, catalog_handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/recuperar", h.RequestRecovery)
			r.Post("/restablecer", h.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(h.Authenticate)
				r.Get("/me", h.Me)
				r.Post("/logout", h.Logout)
				r.Post("/cambiar-password", h.ChangePassword)
			})
		})

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Route("/usuarios", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeactivateUser)
			})

			r.Route("/hospitales", func(r chi.Router) {
				r.Get("/", h.ListHospitals)
				r.Post("/", h.CreateHospital)
				r.Get("/departamentos", h.ListDepartments)
				r.Get("/{id}", h.GetHospital)
				r.Get("/{id}/estadisticas", h.HospitalDashboard)
				r.Put("/{id}", h.UpdateHospital)
				r.Delete("/{id}", h.DeactivateHospital)
			})

			r.Route("/gases", func(r chi.Router) {
				r.Get("/", h.ListGases)
				r.Post("/", h.CreateGas)
				r.Get("/{id}", h.GetGas)
				r.Put("/{id}", h.UpdateGas)
				r.Delete("/{id}", h.DeactivateGas)
			})

			r.Route("/consumos", func(r chi.Router) {
				r.Get("/", h.ListRecords)
				r.Post("/", h.CreateRecord)
				r.Get("/{id}", h.GetRecord)
				r.Put("/{id}", h.UpdateRecord)
				r.Delete("/{id}", h.DeleteRecord)
				r.Put("/{id}/validar", h.ValidateRecord)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", h.Dashboard)
				r.Get("/hospital/{id}", h.HospitalDashboard)
				r.Get("/series", h.MonthlySeries)
			})

			r.Route("/reportes", func(r chi.Router) {
				r.Get("/consumos", h.ExportReport)
			})

			r.Route("/auditoria", func(r chi.Router) {
				r.Get("/", h.ListAuditEvents)
				r.Get("/acciones", h.ListAuditActions)
				r.Get("/estadisticas", h.AuditStats)
				r.Delete("/purgar", h.PurgeAudit)
			})

			r.Route("/alertas", func(r chi.Router) {
				r.Get("/", h.ListAlerts)
				r.Put("/{id}/resolver", h.ResolveAlert)
			})
		})
	})

	return r
}
