// Package app wires configuration into a ready radio service.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/radio-t/webradio/internal/ai"
	"github.com/radio-t/webradio/internal/audio"
	"github.com/radio-t/webradio/internal/cache"
	"github.com/radio-t/webradio/internal/config"
	"github.com/radio-t/webradio/internal/content"
	"github.com/radio-t/webradio/internal/queue"
	"github.com/radio-t/webradio/internal/radio"
	"github.com/radio-t/webradio/internal/storage"
)

// App holds the wired components
type App struct {
	Service   *radio.Service
	Processor *audio.FFmpegAudioProcessor
	Cache     cache.Store
}

// New builds the radio service from the configuration
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	chatModel, anthropicModel := cfg.ScriptModel, cfg.ScriptModel
	if cfg.ScriptProvider == "anthropic" {
		chatModel = ""
	} else {
		anthropicModel = ""
	}

	openAI := ai.NewOpenAIService(ai.OpenAIParams{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		ChatModel:   chatModel,
		SpeechModel: cfg.OpenAI.SpeechModel,
		HTTPClient:  &http.Client{Timeout: content.OpenAIHTTPTimeout},
	})
	writer, err := ai.NewScriptWriter(cfg.ScriptProvider, openAI, ai.AnthropicParams{
		APIKey: cfg.Anthropic.APIKey,
		Model:  anthropicModel,
	})
	if err != nil {
		return nil, err
	}

	opts, err := cfg.AssemblerOptions()
	if err != nil {
		return nil, err
	}
	processor := audio.NewFFmpegAudioProcessor()
	assembler := audio.NewAssembler(audio.AssemblerParams{
		Synthesizer: openAI,
		Encoder:     processor,
		Options:     opts,
		Logger:      log.With().Str("component", "assembler").Logger(),
	})

	store, err := cache.New(ctx, cfg.CacheStoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	svc := radio.NewService(radio.ServiceParams{
		Fetcher:         content.NewHTTPArticleFetcher(nil),
		Writer:          writer,
		Assembler:       assembler,
		Cache:           store,
		Audio:           storage.NewFileStore(cfg.AudioDir),
		Styles:          cfg.Styles,
		DefaultLanguage: cfg.Language,
		Speed:           cfg.TTS.Speed,
		TargetMinutes:   cfg.TTS.TargetMinutes,
		RenderTimeout:   cfg.RenderTimeout,
		Logger:          log.With().Str("component", "radio").Logger(),
	})

	log.Info().Str("provider", cfg.ScriptProvider).Str("cache", cfg.Cache.Backend).Int("tts_workers", opts.Workers).
		Str("gap_policy", opts.Policy.String()).Msg("radio service ready")
	return &App{Service: svc, Processor: processor, Cache: store}, nil
}

// Close releases the render cache
func (a *App) Close() error {
	return a.Cache.Close()
}

// QueueRedis returns the redis settings of the render queue
func QueueRedis(cfg *config.Config) queue.RedisConfig {
	return queue.RedisConfig{Addr: cfg.Cache.RedisAddr, Password: cfg.Cache.RedisPassword, DB: cfg.Cache.RedisDB}
}

// NewLogger returns a console logger at debug or info level
func NewLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.NewConsoleWriter()).Level(level).With().Timestamp().Logger()
}
