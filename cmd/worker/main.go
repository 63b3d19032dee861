// Command worker renders queued radio programs.
package main

import (
	"context"
	"flag"

	"github.com/radio-t/webradio/internal/app"
	"github.com/radio-t/webradio/internal/config"
	"github.com/radio-t/webradio/internal/queue"
	"github.com/radio-t/webradio/internal/radio"
)

func main() {
	envFile := flag.String("env", ".env", "env file to load")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log := app.NewLogger(*debug)

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	handler := queue.NewRenderHandler(queue.HandlerParams{
		Renderer:  a.Service,
		Permanent: radio.IsPermanent,
		Logger:    log.With().Str("component", "worker").Logger(),
	})
	srv := queue.NewServer(app.QueueRedis(cfg), cfg.Worker.Concurrency, log)

	log.Info().Int("concurrency", cfg.Worker.Concurrency).Msg("starting worker")
	// Run blocks until SIGTERM or SIGINT
	if err := srv.Run(queue.NewServeMux(handler)); err != nil {
		log.Error().Err(err).Msg("worker error")
	}
}
