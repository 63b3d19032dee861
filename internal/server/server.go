// Package server exposes radio renders over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/radio-t/webradio/internal/audio"
	"github.com/radio-t/webradio/internal/radio"
	"github.com/radio-t/webradio/podcast"
)

// RadioService renders and serves programs
type RadioService interface {
	Render(ctx context.Context, req podcast.RenderRequest) (podcast.Render, error)
	Lookup(ctx context.Context, req podcast.RenderRequest) (podcast.Render, bool)
	Key(req podcast.RenderRequest) string
	Get(ctx context.Context, key string) (podcast.Render, error)
	List(ctx context.Context) ([]podcast.Render, error)
	Audio(ctx context.Context, key string) ([]byte, error)
	Styles() []podcast.Style
}

// Enqueuer schedules background renders
type Enqueuer interface {
	EnqueueRender(ctx context.Context, key string, req podcast.RenderRequest) (string, error)
}

// Params contains dependencies of the server
type Params struct {
	Service       RadioService
	Queue         Enqueuer // optional, async requests are rejected without it
	RenderTimeout time.Duration
	Logger        zerolog.Logger
}

// Server is the HTTP API of the radio
type Server struct {
	svc     RadioService
	queue   Enqueuer
	timeout time.Duration
	log     zerolog.Logger
}

type renderRequest struct {
	URL      string `json:"url"`
	Style    string `json:"style"`
	Language string `json:"language"`
	Async    bool   `json:"async"`
}

type queuedResponse struct {
	Key    string `json:"key"`
	TaskID string `json:"task_id"`
}

// New creates a new server
func New(params Params) *Server {
	timeout := params.RenderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Server{svc: params.Service, queue: params.Queue, timeout: timeout, log: params.Logger}
}

// Routes returns the router of the API
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/styles", s.styles)
		r.Route("/radios", func(r chi.Router) {
			r.Post("/", s.render)
			r.Get("/", s.list)
			r.Get("/{key}", s.get)
			r.Get("/{key}/audio", s.audio)
		})
	})
	return r
}

// Run serves the API on addr until ctx is done
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("server shutdown")
		}
	}()

	s.log.Info().Str("addr", addr).Msg("http server started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) styles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"styles": s.svc.Styles()})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var body renderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}
	req := podcast.RenderRequest{URL: body.URL, Style: body.Style, Language: body.Language}

	if body.Async {
		if rec, ok := s.svc.Lookup(r.Context(), req); ok {
			writeJSON(w, http.StatusOK, rec)
			return
		}
		if s.queue == nil {
			writeError(w, http.StatusNotImplemented, "async rendering is not configured")
			return
		}
		key := s.svc.Key(req)
		taskID, err := s.queue.EnqueueRender(r.Context(), key, req)
		if err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("failed to enqueue render")
			writeError(w, http.StatusInternalServerError, "failed to enqueue render")
			return
		}
		writeJSON(w, http.StatusAccepted, queuedResponse{Key: key, TaskID: taskID})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	rec, err := s.svc.Render(ctx, req)
	if err != nil {
		s.writeRenderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) writeRenderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, radio.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, radio.ErrNothingToRender), errors.Is(err, audio.ErrAssemblyEmpty):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, audio.ErrAssemblyCancelled):
		writeError(w, http.StatusGatewayTimeout, "render timed out")
	default:
		s.log.Error().Err(err).Msg("render failed")
		writeError(w, http.StatusBadGateway, "render failed")
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	renders, err := s.svc.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list renders")
		writeError(w, http.StatusInternalServerError, "failed to list renders")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 0 && limit < len(renders) {
		renders = renders[:limit]
	}
	if renders == nil {
		renders = []podcast.Render{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"radios": renders, "count": len(renders)})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, radio.ErrNotFound) {
		writeError(w, http.StatusNotFound, "radio not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get render")
		writeError(w, http.StatusInternalServerError, "failed to get radio")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) audio(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	data, err := s.svc.Audio(r.Context(), key)
	if errors.Is(err, radio.ErrNotFound) {
		writeError(w, http.StatusNotFound, "audio not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to load audio")
		writeError(w, http.StatusInternalServerError, "failed to load audio")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).Dur("took", time.Since(start)).Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
