// Package config loads the service configuration from environment variables.
// Everything is read once at startup; there is no hot-reload.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ServiceConfig holds HTTP server settings.
type ServiceConfig struct {
	Host        string
	Port        string
	MetricsPort string
	CORSOrigins []string
}

// WhisperConfig selects the model the engine loads.
type WhisperConfig struct {
	Model       string
	Device      string
	ComputeType string
	// Provider selects the engine backend: "fasterwhisper" or "mock".
	Provider string
}

// UploadConfig bounds what AudioIngest accepts.
type UploadConfig struct {
	MaxFileSize int64 // bytes
	TempDir     string
}

// DefaultsConfig holds per-request option defaults and ceilings.
type DefaultsConfig struct {
	BeamSize       int
	MaxBeamSize    int
	Language       string
	WordTimestamps bool
	VADFilter      bool
}

// SchedulerConfig sizes the worker pool and wait queue.
type SchedulerConfig struct {
	Workers    int
	QueueDepth int
	JobTimeout time.Duration
}

// KafkaConfig configures the optional transcript event publisher.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string // json, console
}

// Configuration is the full service configuration.
type Configuration struct {
	Service   ServiceConfig
	Whisper   WhisperConfig
	Upload    UploadConfig
	Defaults  DefaultsConfig
	Scheduler SchedulerConfig
	Kafka     KafkaConfig
	Log       LogConfig
}

// AllowedExtensions is the supported audio container/codec set.
var AllowedExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".aac"}

var (
	validModels       = []string{"tiny", "base", "small", "medium", "large-v3", "distil-large-v3"}
	validDevices      = []string{"cpu", "cuda", "auto"}
	validComputeTypes = []string{"int8", "int16", "float16", "float32"}
	validProviders    = []string{"fasterwhisper", "mock"}
)

// Load reads configuration from the environment.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Host:        envOrDefault("HOST", "0.0.0.0"),
			Port:        envOrDefault("PORT", "8000"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
			CORSOrigins: envOrDefaultSlice("CORS_ORIGINS", []string{"*"}),
		},
		Whisper: WhisperConfig{
			Model:       envOrDefault("WHISPER_MODEL", "base"),
			Device:      envOrDefault("WHISPER_DEVICE", "cpu"),
			ComputeType: envOrDefault("WHISPER_COMPUTE_TYPE", "int8"),
			Provider:    envOrDefault("WHISPER_PROVIDER", "fasterwhisper"),
		},
		Upload: UploadConfig{
			MaxFileSize: envOrDefaultInt64("MAX_FILE_SIZE", 100) * 1024 * 1024,
			TempDir:     envOrDefault("TEMP_DIR", os.TempDir()),
		},
		Defaults: DefaultsConfig{
			BeamSize:       envOrDefaultInt("DEFAULT_BEAM_SIZE", 5),
			MaxBeamSize:    envOrDefaultInt("MAX_BEAM_SIZE", 10),
			Language:       envOrDefault("DEFAULT_LANGUAGE", "auto"),
			WordTimestamps: envOrDefaultBool("DEFAULT_WORD_TIMESTAMPS", false),
			VADFilter:      envOrDefaultBool("DEFAULT_VAD_FILTER", true),
		},
		Scheduler: SchedulerConfig{
			Workers:    envOrDefaultInt("WORKER_CONCURRENCY", runtime.NumCPU()),
			QueueDepth: envOrDefaultInt("QUEUE_DEPTH", 32),
			JobTimeout: envOrDefaultDuration("JOB_TIMEOUT", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:   envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:   envOrDefaultSlice("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC_TRANSCRIPTS", "audio.transcript.completed"),
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-audio-transcription"),
		},
		Log: LogConfig{
			Level:  envOrDefault("LOG_LEVEL", "info"),
			Format: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

// Validate checks the configuration. Any issue is fatal at startup; serving
// with a half-valid configuration is worse than failing fast.
func (c *Configuration) Validate() error {
	var issues []string
	if !contains(validModels, c.Whisper.Model) {
		issues = append(issues, fmt.Sprintf("invalid model %q, valid: %v", c.Whisper.Model, validModels))
	}
	if !contains(validDevices, c.Whisper.Device) {
		issues = append(issues, fmt.Sprintf("invalid device %q, valid: %v", c.Whisper.Device, validDevices))
	}
	if !contains(validComputeTypes, c.Whisper.ComputeType) {
		issues = append(issues, fmt.Sprintf("invalid compute type %q, valid: %v", c.Whisper.ComputeType, validComputeTypes))
	}
	if !contains(validProviders, c.Whisper.Provider) {
		issues = append(issues, fmt.Sprintf("invalid provider %q, valid: %v", c.Whisper.Provider, validProviders))
	}
	if c.Upload.MaxFileSize <= 0 {
		issues = append(issues, "MAX_FILE_SIZE must be positive")
	}
	if c.Defaults.BeamSize < 1 || c.Defaults.BeamSize > c.Defaults.MaxBeamSize {
		issues = append(issues, fmt.Sprintf("DEFAULT_BEAM_SIZE must be in [1, %d]", c.Defaults.MaxBeamSize))
	}
	if c.Scheduler.Workers < 1 || c.Scheduler.Workers > 64 {
		issues = append(issues, fmt.Sprintf("WORKER_CONCURRENCY %d out of range [1, 64]", c.Scheduler.Workers))
	}
	if c.Scheduler.QueueDepth < 0 {
		issues = append(issues, "QUEUE_DEPTH must not be negative")
	}
	if c.Scheduler.JobTimeout <= 0 {
		issues = append(issues, "JOB_TIMEOUT must be positive")
	}
	if len(issues) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(issues, "; "))
	}
	return nil
}

// ModelInfo describes the configured model for the health endpoint.
type ModelInfo struct {
	Size    string `json:"size"`
	Speed   string `json:"speed"`
	Quality string `json:"quality"`
}

var modelCatalog = map[string]ModelInfo{
	"tiny":     {Size: "39 MB", Speed: "fastest", Quality: "basic"},
	"base":     {Size: "74 MB", Speed: "fast", Quality: "good"},
	"small":    {Size: "244 MB", Speed: "medium", Quality: "very good"},
	"medium":   {Size: "769 MB", Speed: "slow", Quality: "excellent"},
	"large-v3": {Size: "1550 MB", Speed: "slowest", Quality: "best"},
}

// ModelInfo returns catalog details for the configured model.
func (c *Configuration) ModelInfo() ModelInfo {
	if info, ok := modelCatalog[c.Whisper.Model]; ok {
		return info
	}
	return ModelInfo{Size: "unknown", Speed: "unknown", Quality: "unknown"}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
