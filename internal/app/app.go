package app

import (
	"io"
	"os"
	"time"

	"audio-transcription-service/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	a.Logger.Info().
		Str("model", cfg.Whisper.Model).
		Str("device", cfg.Whisper.Device).
		Str("computeType", cfg.Whisper.ComputeType).
		Msg("audio transcription service application created")
	return a
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	logLevel := zerolog.InfoLevel
	if parsedLevel, err := zerolog.ParseLevel(a.Cfg.Log.Level); err == nil {
		logLevel = parsedLevel
	}

	zerolog.SetGlobalLevel(logLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if a.Cfg.Log.Format == "console" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	a.Logger = zerolog.New(output).With().
		Timestamp().
		Str("service", "audio-transcription-service").
		Logger()
	log.Logger = a.Logger

	a.Logger.Info().
		Str("logLevel", logLevel.String()).
		Str("logFormat", a.Cfg.Log.Format).
		Msg("logger setup completed")
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("audio transcription service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("audio transcription service shutting down")
}
