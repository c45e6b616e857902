package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"audio-transcription-service/internal/app"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/events"
	"audio-transcription-service/internal/httpapi"
	"audio-transcription-service/internal/observability"
	"audio-transcription-service/internal/service/batch"
	"audio-transcription-service/internal/service/engine"
	"audio-transcription-service/internal/service/ingest"
	"audio-transcription-service/internal/service/scheduler"
)

func main() {
	// Optional .env for local development; the environment always wins.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("application start failed")
	}
	defer application.Shutdown()

	metrics := observability.DefaultMetrics

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	var backend engine.Engine
	switch cfg.Whisper.Provider {
	case "mock":
		backend = engine.NewMock()
	default:
		backend = engine.NewFasterWhisper(cfg.Whisper)
	}
	handle := engine.NewHandle(backend)

	// The model loads in the background; health reports "loading" until it
	// completes and "unavailable" forever if it fails.
	go func() {
		if err := handle.EnsureLoaded(context.Background()); err != nil {
			log.Error().Err(err).Msg("engine load failed, transcription requests will be refused")
		}
	}()

	sched := scheduler.New(handle, cfg.Scheduler, metrics)
	sched.Start()
	defer sched.Stop()

	api := httpapi.New(
		cfg,
		ingest.New(cfg.Upload),
		sched,
		batch.New(sched, metrics),
		handle,
		publisher,
		metrics,
	)

	obsServer := observability.NewServer(":"+cfg.Service.MetricsPort, handle.Ready)
	obsServer.Start()

	server := &http.Server{
		Addr:        cfg.Service.Host + ":" + cfg.Service.Port,
		Handler:     httpapi.NewRouter(api),
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("audio transcription service started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("observability shutdown failed")
	}
}
