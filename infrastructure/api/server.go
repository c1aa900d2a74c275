package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"montage-media/application/pipeline"
	"montage-media/domain/analysis"

	"github.com/rs/zerolog"
)

// Analyzer runs the full analysis pipeline and reframe renders
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
	Reframe(ctx context.Context, input, output string, cfg analysis.ReframeConfig) (analysis.ReframeResult, error)
}

// ServerConfig wires the HTTP surface to the application services
type ServerConfig struct {
	Address  string
	Scenes   pipeline.SceneDetector
	Silences pipeline.SilenceDetector
	Pipeline Analyzer

	// Reframe fills in reframe request fields left empty
	Reframe analysis.ReframeConfig

	// Keywords are used by highlight requests that name none
	Keywords []string

	Logger    zerolog.Logger
	StartTime time.Time
	Version   string
}

// Server is the HTTP API
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer creates a server listening on cfg.Address
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      NewRouter(cfg),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger.With().Str("component", "api").Logger(),
	}
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
