// Command server serves radio renders over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/radio-t/webradio/internal/app"
	"github.com/radio-t/webradio/internal/config"
	"github.com/radio-t/webradio/internal/queue"
	"github.com/radio-t/webradio/internal/server"
)

func main() {
	envFile := flag.String("env", ".env", "env file to load")
	async := flag.Bool("async", false, "accept async renders through the redis queue")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	params := server.Params{Service: a.Service, RenderTimeout: cfg.RenderTimeout, Logger: log}
	if *async {
		qc := queue.NewClient(queue.ClientParams{Redis: app.QueueRedis(cfg), Timeout: cfg.RenderTimeout})
		defer qc.Close()
		params.Queue = qc
	}

	if err := server.New(params).Run(ctx, cfg.ServerAddr); err != nil {
		log.Error().Err(err).Msg("server error")
	}
}
