package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/diana/internal/collect"
	"github.com/fortuna/diana/internal/reconcile"
	"github.com/fortuna/diana/internal/store"
	"github.com/fortuna/diana/internal/store/repository"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, db *store.Database, collector *collect.Service, profiles *repository.ProfileRepository, reconciler *reconcile.Engine, sched SchedulerStatus) *Server {
	handler := NewHandler(db, collector, profiles, reconciler, sched)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/status", handler.GetStatus).Methods("GET")
	api.HandleFunc("/runs", handler.ListRuns).Methods("GET")
	api.HandleFunc("/runs/{runID}/events", handler.GetRunEvents).Methods("GET")
	api.HandleFunc("/collect", handler.HandleCollectRequest).Methods("POST")
	api.HandleFunc("/profiles", handler.ListProfiles).Methods("GET")
	api.HandleFunc("/reconcile", handler.HandleReconcile).Methods("POST")

	// Preflight requests must match a route for the middleware chain to
	// run; the CORS middleware answers them before this handler is reached.
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Router returns the configured route handler
func (s *Server) Router() http.Handler {
	return s.server.Handler
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
