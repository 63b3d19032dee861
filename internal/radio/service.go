// Package radio renders articles into cached radio programs.
package radio

import (
	"context"
	"crypto/md5" // #nosec G501 -- cache key, not security
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/radio-t/webradio/internal/ai"
	"github.com/radio-t/webradio/internal/audio"
	"github.com/radio-t/webradio/internal/cache"
	"github.com/radio-t/webradio/internal/content"
	"github.com/radio-t/webradio/internal/script"
	"github.com/radio-t/webradio/podcast"
)

// service errors
var (
	ErrNotFound        = errors.New("radio not found")
	ErrNothingToRender = errors.New("nothing to render")
	ErrInvalidRequest  = errors.New("invalid render request")
)

// DefaultLanguage of the broadcast when the request names none
const DefaultLanguage = "English"

// ArticleFetcher loads the source text
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (podcast.Article, error)
}

// Assembler renders script lines into one audio track
type Assembler interface {
	Assemble(ctx context.Context, lines []podcast.Line, voices podcast.VoiceConfig) (audio.Result, error)
}

// AudioStore keeps rendered audio by cache key
type AudioStore interface {
	Save(key string, data []byte) (string, error)
	Load(key string) ([]byte, error)
	Exists(key string) bool
}

// ServiceParams contains dependencies of the service
type ServiceParams struct {
	Fetcher         ArticleFetcher
	Writer          ai.ScriptWriter
	Assembler       Assembler
	Cache           cache.Store
	Audio           AudioStore
	Styles          []podcast.Style // defaults to podcast.DefaultStyles
	DefaultLanguage string
	Speed           float64       // fixed speech speed, 1.0 by default
	TargetMinutes   int           // when set, speed is adjusted to fit the program into this length
	RenderTimeout   time.Duration // limit of one shared render, 10 minutes by default
	Logger          zerolog.Logger
}

// Service renders and serves radio programs
type Service struct {
	fetcher   ArticleFetcher
	writer    ai.ScriptWriter
	assembler Assembler
	cache     cache.Store
	audio     AudioStore
	styles    map[string]podcast.Style
	language  string
	speed     float64
	target    int
	timeout   time.Duration
	tp        *content.TextProcessor
	log       zerolog.Logger
	group     singleflight.Group
	now       func() time.Time
}

// NewService creates a new radio service
func NewService(params ServiceParams) *Service {
	styles := params.Styles
	if len(styles) == 0 {
		styles = podcast.DefaultStyles()
	}
	styleMap := podcast.CreateStyleMap(styles)
	if _, ok := styleMap[podcast.StandardStyle]; !ok {
		for _, s := range podcast.DefaultStyles() {
			if s.Key == podcast.StandardStyle {
				styleMap[s.Key] = s
			}
		}
	}

	language := params.DefaultLanguage
	if language == "" {
		language = DefaultLanguage
	}
	c := params.Cache
	if c == nil {
		c = cache.NewMemoryStore()
	}
	timeout := params.RenderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	return &Service{
		fetcher:   params.Fetcher,
		writer:    params.Writer,
		assembler: params.Assembler,
		cache:     c,
		audio:     params.Audio,
		styles:    styleMap,
		language:  language,
		speed:     params.Speed,
		target:    params.TargetMinutes,
		timeout:   timeout,
		tp:        content.NewTextProcessor(),
		log:       params.Logger,
		now:       time.Now,
	}
}

// CacheKey returns the hex md5 of "source_style_language"
func CacheKey(source, style, language string) string {
	sum := md5.Sum([]byte(source + "_" + style + "_" + language)) // #nosec G401 -- cache key, not security
	return hex.EncodeToString(sum[:])
}

// IsPermanent reports whether a render error will repeat on retry
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNothingToRender) || errors.Is(err, ErrInvalidRequest) || errors.Is(err, audio.ErrAssemblyEmpty)
}

// Style returns the style for the key, unknown keys resolve to the standard style
func (s *Service) Style(key string) podcast.Style {
	if st, ok := s.styles[key]; ok {
		return st
	}
	return s.styles[podcast.StandardStyle]
}

// Styles returns available styles ordered by key
func (s *Service) Styles() []podcast.Style {
	return podcast.SortedStyles(s.styles)
}

// Normalize resolves style and language defaults of the request
func (s *Service) Normalize(req podcast.RenderRequest) podcast.RenderRequest {
	req.URL = strings.TrimSpace(req.URL)
	req.Style = s.Style(strings.TrimSpace(req.Style)).Key
	req.Language = strings.TrimSpace(req.Language)
	if req.Language == "" {
		req.Language = s.language
	}
	return req
}

// Key returns the cache key of the normalized request
func (s *Service) Key(req podcast.RenderRequest) string {
	req = s.Normalize(req)
	return CacheKey(req.URL, req.Style, req.Language)
}

// Get returns the cached render for the key
func (s *Service) Get(ctx context.Context, key string) (podcast.Render, error) {
	r, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return podcast.Render{}, ErrNotFound
	}
	if err != nil {
		return podcast.Render{}, fmt.Errorf("failed to get render: %w", err)
	}
	return r, nil
}

// List returns all cached renders
func (s *Service) List(ctx context.Context) ([]podcast.Render, error) {
	renders, err := s.cache.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list renders: %w", err)
	}
	return renders, nil
}

// Audio returns the stored audio of a cached render
func (s *Service) Audio(ctx context.Context, key string) ([]byte, error) {
	if _, err := s.Get(ctx, key); err != nil {
		return nil, err
	}
	if s.audio == nil {
		return nil, ErrNotFound
	}
	data, err := s.audio.Load(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return data, nil
}

// Lookup returns the cached render if both the record and its audio exist
func (s *Service) Lookup(ctx context.Context, req podcast.RenderRequest) (podcast.Render, bool) {
	key := s.Key(req)
	r, err := s.cache.Get(ctx, key)
	if err != nil {
		return podcast.Render{}, false
	}
	if s.audio != nil && !s.audio.Exists(key) {
		return podcast.Render{}, false
	}
	return r, true
}

// Render returns the cached program for the request or renders a new one.
// Concurrent requests for the same key share one render, which keeps running
// until the render timeout even when the caller's ctx is done.
func (s *Service) Render(ctx context.Context, req podcast.RenderRequest) (podcast.Render, error) {
	req = s.Normalize(req)
	if req.URL == "" {
		return podcast.Render{}, fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	if s.fetcher == nil || s.writer == nil || s.assembler == nil || s.audio == nil {
		return podcast.Render{}, errors.New("radio service is not fully configured")
	}

	key := CacheKey(req.URL, req.Style, req.Language)
	log := s.log.With().Str("request_id", uuid.NewString()).Str("key", key).Logger()

	if r, ok := s.Lookup(ctx, req); ok {
		log.Info().Str("url", req.URL).Msg("cache hit")
		return r, nil
	}

	// the shared run is detached from the caller, so one caller leaving does not fail the others
	ch := s.group.DoChan(key, func() (any, error) {
		renderCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.render(renderCtx, key, req, log)
	})

	select {
	case <-ctx.Done():
		log.Info().Err(ctx.Err()).Msg("caller left in-flight render")
		return podcast.Render{}, fmt.Errorf("render %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Shared {
			log.Debug().Msg("joined in-flight render")
		}
		if res.Err != nil {
			return podcast.Render{}, res.Err
		}
		return res.Val.(podcast.Render), nil
	}
}

// render runs the whole pipeline and persists the result
func (s *Service) render(ctx context.Context, key string, req podcast.RenderRequest, log zerolog.Logger) (podcast.Render, error) {
	start := s.now()
	style := s.Style(req.Style)
	log.Info().Str("url", req.URL).Str("style", style.Key).Str("language", req.Language).Msg("render started")

	article, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		if errors.Is(err, content.ErrEmptyArticle) {
			return podcast.Render{}, fmt.Errorf("%w: %w", ErrNothingToRender, err)
		}
		return podcast.Render{}, fmt.Errorf("failed to fetch article: %w", err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = ai.DefaultTitle
	}

	raw, err := s.writer.GenerateScript(ctx, podcast.GenerateScriptParams{
		Title:    title,
		Content:  article.Content,
		Style:    style,
		Language: req.Language,
	})
	if err != nil {
		return podcast.Render{}, fmt.Errorf("failed to generate script: %w", err)
	}

	lines, err := script.ParseStrict(raw)
	if err != nil {
		return podcast.Render{}, fmt.Errorf("%w: %w", ErrNothingToRender, err)
	}
	log.Debug().Int("lines", len(lines)).Str("first", s.tp.TruncateString(lines[0].Text, content.DisplayTruncateLength)).
		Msg("script parsed")

	voices := style.VoiceConfig(s.speechSpeed(lines))
	res, err := s.assembler.Assemble(ctx, lines, voices)
	if err != nil {
		// a partial program is never cached under the full key
		return podcast.Render{}, fmt.Errorf("failed to assemble program: %w", err)
	}
	if res.Segments == 0 || len(res.Audio) == 0 {
		return podcast.Render{}, audio.ErrAssemblyEmpty
	}
	for _, f := range res.Failed {
		log.Warn().Int("line", f.Line).Str("voice", f.Voice).Err(f.Err).Msg("line skipped")
	}

	// audio first, the record only points at audio that exists
	path, err := s.audio.Save(key, res.Audio)
	if err != nil {
		return podcast.Render{}, fmt.Errorf("failed to save audio: %w", err)
	}

	record := podcast.Render{
		Key:       key,
		SourceURL: req.URL,
		Style:     style.Key,
		Language:  req.Language,
		Title:     title,
		AudioPath: path,
		Lines:     res.Lines,
		Segments:  res.Segments,
		Bytes:     len(res.Audio),
		Duration:  res.Duration.Seconds(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.cache.Save(ctx, record); err != nil {
		return podcast.Render{}, fmt.Errorf("failed to save render: %w", err)
	}

	log.Info().Int("segments", record.Segments).Int("lines", record.Lines).Float64("duration", record.Duration).
		Dur("took", s.now().Sub(start)).Msg("render completed")
	return record, nil
}

// speechSpeed returns the fixed speed or the one fitting the target length
func (s *Service) speechSpeed(lines []podcast.Line) float64 {
	if s.target > 0 {
		return s.tp.CalculateSpeechSpeed(s.tp.EstimateScriptDuration(lines), s.target)
	}
	if s.speed > 0 {
		return s.speed
	}
	return 1.0
}
