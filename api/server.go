/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the entry forms

ROUTE GROUPS:
  /api/employees/*       Employee management
  /api/departments/*     Department listings
  /api/kpis/*            KPI definitions and their entries
  /api/entries           KPI entry submission
  /api/weekly-entries/*  Weekly self-reports
  /api/cache/*           Entry cache status and sync
  /api/export, /import   CSV transfer
  /api/reports/*         Dashboards
  /healthz               Liveness

SEE ALSO:
  - handlers.go:        Handler implementations
  - cli/serve.go:       Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultOrigins are the local dev servers allowed when none are configured.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultOrigins
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Patch("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/reports", h.DirectReports)
		})
		r.Get("/departments/{name}/employees", h.DepartmentEmployees)

		r.Route("/kpis", func(r chi.Router) {
			r.Get("/", h.ListKPIs)
			r.Post("/", h.CreateKPI)
			r.Get("/{id}", h.GetKPI)
			r.Patch("/{id}", h.UpdateKPI)
			r.Post("/{id}/archive", h.ArchiveKPI)
			r.Get("/{id}/entries", h.KPIEntries)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.SubmitEntry)
		})

		r.Route("/weekly-entries", func(r chi.Router) {
			r.Get("/", h.ListWeeklyEntries)
			r.Post("/", h.CreateWeeklyEntry)
			r.Put("/{id}", h.ReplaceWeeklyEntry)
			r.Get("/employee/{employeeId}", h.EmployeeWeeklyEntries)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/", h.CacheStats)
			r.Post("/sync", h.SyncCache)
		})

		r.Get("/export/{kind}", h.Export)
		r.Post("/import/{kind}", h.Import)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.Summary)
			r.Get("/departments", h.Departments)
			r.Get("/team", h.Team)
			r.Get("/trends", h.Trends)
			r.Get("/integrity", h.Integrity)
		})
	})

	return r
}
