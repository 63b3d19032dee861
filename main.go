// Command webradio renders an article into a two-host radio program and plays,
// saves or streams it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/radio-t/webradio/internal/app"
	"github.com/radio-t/webradio/internal/config"
	"github.com/radio-t/webradio/podcast"
)

// Renderer renders a radio program
type Renderer interface {
	Render(ctx context.Context, req podcast.RenderRequest) (podcast.Render, error)
}

// Player plays or streams a rendered file
type Player interface {
	Play(ctx context.Context, filename string) error
	StreamToIcecast(ctx context.Context, inputFile string, cfg podcast.IcecastConfig) error
}

func main() {
	articleURL := flag.String("url", "", "URL of the article to broadcast")
	style := flag.String("style", podcast.StandardStyle, "program style")
	lang := flag.String("lang", "", "broadcast language, DEFAULT_LANGUAGE by default")
	outputFile := flag.String("mp3", "", "copy the program to this mp3 file")
	dryRun := flag.Bool("dry", false, "dry run: play locally instead of streaming to Icecast")
	stream := flag.Bool("stream", false, "stream the program to Icecast")
	icecastURL := flag.String("icecast", "localhost:8000", "Icecast server address")
	icecastMount := flag.String("mount", "/radio.mp3", "Icecast mount point")
	icecastUser := flag.String("user", "source", "Icecast username")
	icecastPass := flag.String("pass", "hackme", "Icecast password")
	workers := flag.Int("workers", 0, "parallel speech synthesis calls, TTS_WORKERS by default")
	duration := flag.Int("duration", 0, "target program length in minutes, adjusts speech speed")
	timeout := flag.Duration("timeout", 0, "render timeout, RENDER_TIMEOUT by default")
	envFile := flag.String("env", ".env", "env file to load")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log := app.NewLogger(*debug)

	if *articleURL == "" {
		log.Fatal().Msg("please provide an article URL with -url")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *workers > 0 {
		cfg.TTS.Workers = *workers
	}
	if *duration > 0 {
		cfg.TTS.TargetMinutes = *duration
	}
	if *timeout > 0 {
		cfg.RenderTimeout = *timeout
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	opts := podcast.Config{
		Request:    podcast.RenderRequest{URL: *articleURL, Style: *style, Language: *lang},
		Icecast:    podcast.IcecastConfig{URL: *icecastURL, Mount: *icecastMount, User: *icecastUser, Pass: *icecastPass},
		DryRun:     *dryRun,
		OutputFile: *outputFile,
		Stream:     *stream,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}

	err = run(ctx, opts, cfg.RenderTimeout, a.Service, a.Processor, log)
	if cerr := a.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("failed to close render cache")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

// run renders the program and delivers it the way the options ask
func run(ctx context.Context, opts podcast.Config, timeout time.Duration, r Renderer, p Player, log zerolog.Logger) error {
	renderCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rec, err := r.Render(renderCtx, opts.Request)
	if err != nil {
		return fmt.Errorf("error rendering program: %w", err)
	}
	log.Info().Str("title", rec.Title).Str("key", rec.Key).Int("segments", rec.Segments).Int("lines", rec.Lines).
		Float64("duration", rec.Duration).Str("file", rec.AudioPath).Msg("program ready")
	if rec.Segments < rec.Lines {
		log.Warn().Int("skipped", rec.Lines-rec.Segments).Msg("some lines were not synthesized")
	}

	if opts.OutputFile != "" {
		if err := copyFile(rec.AudioPath, opts.OutputFile); err != nil {
			return err
		}
		log.Info().Str("file", opts.OutputFile).Msg("program saved")
	}

	switch {
	case opts.DryRun:
		log.Info().Msg("playing program locally")
		if err := p.Play(ctx, rec.AudioPath); err != nil {
			return fmt.Errorf("error playing program locally: %w", err)
		}
	case opts.Stream:
		log.Info().Str("server", opts.Icecast.URL).Str("mount", opts.Icecast.Mount).Msg("streaming to icecast")
		if err := p.StreamToIcecast(ctx, rec.AudioPath, opts.Icecast); err != nil {
			return fmt.Errorf("error streaming program: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	if src == "" {
		return errors.New("rendered program has no audio file")
	}
	data, err := os.ReadFile(src) // #nosec G304 -- path from the audio store
	if err != nil {
		return fmt.Errorf("failed to read program: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
