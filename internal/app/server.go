package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markagu-dev/Vectora/internal/api/handlers"
	"github.com/markagu-dev/Vectora/internal/config"
	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/core/ingestion_engine"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, ing *ingestion_engine.Ingestor, hist core.HistoryStore, vectors core.VectorStore, log *zap.Logger) *Server {
	ingestHandler := handlers.NewIngestHandler(ing, log)
	dashHandler := handlers.NewDashboardHandler(hist, vectors, cfg.CollectionName, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	// Large uploads spend minutes in embedding calls; the timeout covers the
	// slowest acceptable batch, not a single request-response hop.
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/upload", ingestHandler.Upload)
		api.Get("/history", dashHandler.History)
		api.Get("/collections", dashHandler.Collections)
		api.Get("/health", dashHandler.Health)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
