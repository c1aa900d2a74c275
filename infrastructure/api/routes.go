package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"montage-media/application/pipeline"
	"montage-media/domain/analysis"
	"montage-media/infrastructure/config"
	"montage-media/infrastructure/export"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router for the API
func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scenes", scenesHandler(cfg))
		r.Post("/silences", silencesHandler(cfg))
		r.Post("/highlights", highlightsHandler(cfg))
		r.Post("/reframe", reframeHandler(cfg))
	})

	return r
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

// MediaRequest names the file to analyze
type MediaRequest struct {
	Path string `json:"path"`
}

// HighlightsRequest is the body of POST /v1/highlights
type HighlightsRequest struct {
	Path          string   `json:"path"`
	Keywords      []string `json:"keywords"`
	SubtitlesPath string   `json:"subtitles_path"`
}

// ReframeRequest is the body of POST /v1/reframe
type ReframeRequest struct {
	Input     string   `json:"input"`
	Output    string   `json:"output"`
	Aspect    string   `json:"aspect"`
	EnableGPU bool     `json:"enable_gpu"`
	Smoothing *float64 `json:"smoothing"`
}

// ScenesResponse is the body of a successful POST /v1/scenes
type ScenesResponse struct {
	Path   string            `json:"path"`
	Scenes []export.Interval `json:"scenes"`
}

// SilencesResponse is the body of a successful POST /v1/silences
type SilencesResponse struct {
	Path     string            `json:"path"`
	Silences []export.Interval `json:"silences"`
}

// ReframeResponse is the body of a successful POST /v1/reframe
type ReframeResponse struct {
	OutputPath          string `json:"output_path"`
	ProcessedDurationMs int64  `json:"processed_duration_ms"`
	FramesProcessed     int    `json:"frames_processed"`
	Width               int    `json:"width"`
	Height              int    `json:"height"`
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = "dev"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func scenesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MediaRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		scenes, err := cfg.Scenes.Detect(r.Context(), req.Path)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ScenesResponse{Path: req.Path, Scenes: export.SceneIntervals(scenes)})
	}
}

func silencesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MediaRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		silences, err := cfg.Silences.Detect(r.Context(), req.Path)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SilencesResponse{Path: req.Path, Silences: export.SilenceIntervals(silences)})
	}
}

func highlightsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HighlightsRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		keywords := req.Keywords
		if len(keywords) == 0 {
			keywords = cfg.Keywords
		}

		report, err := cfg.Pipeline.Analyze(r.Context(), pipeline.Request{
			Path:          req.Path,
			Keywords:      keywords,
			SubtitlesPath: req.SubtitlesPath,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, export.NewReportDocument(report))
	}
}

func reframeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReframeRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Input == "" || req.Output == "" {
			WriteError(w, http.StatusBadRequest, "input and output are required", "BAD_REQUEST")
			return
		}

		rc, err := reframeConfig(cfg.Reframe, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		result, err := cfg.Pipeline.Reframe(r.Context(), req.Input, req.Output, rc)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ReframeResponse{
			OutputPath:          result.OutputPath,
			ProcessedDurationMs: result.ProcessedDuration.Milliseconds(),
			FramesProcessed:     result.FramesProcessed,
			Width:               result.Width,
			Height:              result.Height,
		})
	}
}

// reframeConfig overlays the request on the server defaults
func reframeConfig(defaults analysis.ReframeConfig, req ReframeRequest) (analysis.ReframeConfig, error) {
	aw, ah := defaults.AspectWidth, defaults.AspectHeight
	if strings.TrimSpace(req.Aspect) != "" {
		var err error
		if aw, ah, err = config.ParseAspect(req.Aspect); err != nil {
			return analysis.ReframeConfig{}, err
		}
	}
	smoothing := defaults.Smoothing
	if req.Smoothing != nil {
		smoothing = *req.Smoothing
	}
	return analysis.NewReframeConfigWithSmoothing(aw, ah, req.EnableGPU || defaults.EnableGPU, smoothing)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// writeServiceError maps domain sentinels onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrInputNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, analysis.ErrInvalidConfiguration), errors.Is(err, analysis.ErrInvalidSegment):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
