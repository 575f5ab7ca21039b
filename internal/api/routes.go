package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luocfprime/labtasker/internal/api/handlers"
	apiMiddleware "github.com/luocfprime/labtasker/internal/api/middleware"
	"github.com/luocfprime/labtasker/internal/config"
	"github.com/luocfprime/labtasker/internal/events"
	"github.com/luocfprime/labtasker/internal/store"
)

// Server wires the coordinator's HTTP surface (spec §6.1) on top of a
// Store and an event Hub.
type Server struct {
	router *chi.Mux
	store  *store.Store
	hub    *events.Hub
	config *config.Config

	queueHandler  *handlers.QueueHandler
	taskHandler   *handlers.TaskHandler
	workerHandler *handlers.WorkerHandler
	healthHandler *handlers.HealthHandler
	eventsHandler *handlers.EventsHandler
}

// NewServer constructs the HTTP server and wires its routes.
func NewServer(cfg *config.Config, st *store.Store, hub *events.Hub) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		store:         st,
		hub:           hub,
		config:        cfg,
		queueHandler:  handlers.NewQueueHandler(st),
		taskHandler:   handlers.NewTaskHandler(st),
		workerHandler: handlers.NewWorkerHandler(st),
		healthHandler: handlers.NewHealthHandler(st),
		eventsHandler: handlers.NewEventsHandler(hub),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(apiMiddleware.RequestLogger())
	s.router.Use(middleware.Recoverer)
	// Not chi's middleware.Heartbeat: /health must report real database
	// connectivity (§6.1), not a static liveness ping.
}

func (s *Server) setupRoutes() {
	basicAuth := apiMiddleware.BasicAuth(s.store)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		if s.config.Server.RateLimitRPS > 0 {
			r.Use(apiMiddleware.ClientRateLimit(s.config.Server.RateLimitRPS))
		}

		// Queue creation is unauthenticated: there is no queue to
		// authenticate against yet.
		r.Post("/queues", s.queueHandler.Create)

		r.Route("/queues/me", func(r chi.Router) {
			r.Use(basicAuth)

			r.Get("/", s.queueHandler.GetMe)
			r.Put("/", s.queueHandler.UpdateMe)
			r.Delete("/", s.queueHandler.DeleteMe)

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", s.taskHandler.Create)
				r.Get("/", s.taskHandler.List)
				r.Post("/next", s.taskHandler.Next)
				r.Get("/{id}", s.taskHandler.Get)
				r.Delete("/{id}", s.taskHandler.Delete)
				r.Post("/{id}/status", s.taskHandler.ReportStatus)
				r.Post("/{id}/heartbeat", s.taskHandler.Heartbeat)
			})

			r.Route("/workers", func(r chi.Router) {
				r.Post("/", s.workerHandler.Create)
				r.Get("/", s.workerHandler.List)
				r.Post("/{id}/status", s.workerHandler.ReportStatus)
			})

			r.Get("/events", s.eventsHandler.Stream)
		})
	})

	s.router.Get("/health", s.healthHandler.Check)

	if s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, promhttp.Handler())
	}
}

// Router returns the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
