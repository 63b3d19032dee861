package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/radio-t/webradio/podcast"
)

//go:generate moq -out mocks/renderer.go -pkg mocks -skip-ensure -fmt goimports . Renderer

// Renderer renders a radio program
type Renderer interface {
	Render(ctx context.Context, req podcast.RenderRequest) (podcast.Render, error)
}

// RenderHandler processes render tasks
type RenderHandler struct {
	renderer  Renderer
	permanent func(error) bool
	log       zerolog.Logger
}

// HandlerParams contains dependencies of the handler
type HandlerParams struct {
	Renderer  Renderer
	Permanent func(error) bool // errors that must not be retried, none by default
	Logger    zerolog.Logger
}

// NewRenderHandler creates a new render task handler
func NewRenderHandler(params HandlerParams) *RenderHandler {
	permanent := params.Permanent
	if permanent == nil {
		permanent = func(error) bool { return false }
	}
	return &RenderHandler{renderer: params.Renderer, permanent: permanent, log: params.Logger}
}

// ProcessTask renders the program described by the task payload
func (h *RenderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload RenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log := h.log.With().Str("task", t.Type()).Str("key", payload.Key).Logger()
	log.Info().Str("url", payload.URL).Msg("processing render task")

	r, err := h.renderer.Render(ctx, payload.Request())
	if err != nil {
		if h.permanent(err) {
			log.Warn().Err(err).Msg("render task dropped")
			return fmt.Errorf("render %s: %w: %w", payload.Key, err, asynq.SkipRetry)
		}
		return fmt.Errorf("render %s: %w", payload.Key, err)
	}

	log.Info().Int("segments", r.Segments).Float64("duration", r.Duration).Msg("render task completed")
	return nil
}

// NewServeMux registers the render handler on a new asynq mux
func NewServeMux(h *RenderHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRender, h.ProcessTask)
	return mux
}

// NewServer creates an asynq server processing up to concurrency tasks at once
func NewServer(redis RedisConfig, concurrency int, log zerolog.Logger) *asynq.Server {
	if concurrency < 1 {
		concurrency = 1
	}
	return asynq.NewServer(redis.clientOpt(), asynq.Config{
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			log.Error().Err(err).Str("task", t.Type()).Msg("task failed")
		}),
	})
}
