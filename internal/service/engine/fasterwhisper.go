package engine

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"audio-transcription-service/internal/apperr"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/service/params"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed assets/faster_whisper.py
var helperFS embed.FS

// FasterWhisper runs faster-whisper through an embedded python helper.
// Each invocation is a separate subprocess, so a context cancellation kills
// the inference outright rather than leaving it running detached.
type FasterWhisper struct {
	cfg        config.WhisperConfig
	python     string
	scriptPath string
	logger     zerolog.Logger
}

type helperError struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewFasterWhisper creates the subprocess backend. The python interpreter is
// taken from WHISPER_PYTHON, defaulting to python3.
func NewFasterWhisper(cfg config.WhisperConfig) *FasterWhisper {
	python := os.Getenv("WHISPER_PYTHON")
	if python == "" {
		python = "python3"
	}
	return &FasterWhisper{
		cfg:    cfg,
		python: python,
		logger: log.With().Str("component", "engine").Str("provider", "fasterwhisper").Logger(),
	}
}

// Name returns the backend name.
func (f *FasterWhisper) Name() string { return "fasterwhisper" }

// Load writes the helper script to disk and verifies the model can be loaded.
func (f *FasterWhisper) Load(ctx context.Context) error {
	script, err := helperFS.ReadFile("assets/faster_whisper.py")
	if err != nil {
		return fmt.Errorf("read embedded helper: %w", err)
	}
	f.scriptPath = filepath.Join(os.TempDir(), "transcribe_helper.py")
	if err := os.WriteFile(f.scriptPath, script, 0o755); err != nil {
		return fmt.Errorf("write helper script: %w", err)
	}

	f.logger.Info().
		Str("model", f.cfg.Model).
		Str("device", f.cfg.Device).
		Msg("loading whisper model")

	cmd := exec.CommandContext(ctx, f.python, f.scriptPath,
		"--check",
		"--model", f.cfg.Model,
		"--device", f.cfg.Device,
		"--compute-type", f.cfg.ComputeType,
	)
	if _, err := cmd.Output(); err != nil {
		return fmt.Errorf("model check failed: %w", helperFailure(err))
	}

	f.logger.Info().Str("model", f.cfg.Model).Msg("whisper model loaded")
	return nil
}

// Transcribe runs the helper against one audio file.
func (f *FasterWhisper) Transcribe(ctx context.Context, audioPath string, opts params.Options) (*Result, error) {
	args := []string{
		f.scriptPath,
		"--audio", audioPath,
		"--model", f.cfg.Model,
		"--device", f.cfg.Device,
		"--compute-type", f.cfg.ComputeType,
		"--beam-size", strconv.Itoa(opts.BeamSize),
		"--language", opts.Language,
	}
	if opts.WordTimestamps {
		args = append(args, "--word-timestamps")
	}
	if opts.VADFilter {
		args = append(args, "--vad-filter")
	}

	cmd := exec.CommandContext(ctx, f.python, args...)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyHelperError(err)
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, apperr.InferenceError(fmt.Errorf("parse helper output: %w", err))
	}
	return &result, nil
}

// classifyHelperError maps the helper's stderr JSON to the pipeline's typed
// errors, keeping decode failures distinct from inference failures.
func classifyHelperError(err error) error {
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return apperr.InferenceError(err)
	}
	var he helperError
	if jsonErr := json.Unmarshal(ee.Stderr, &he); jsonErr != nil {
		return apperr.InferenceError(fmt.Errorf("helper exited: %s", ee.Stderr))
	}
	switch he.Error.Kind {
	case "decode":
		return apperr.DecodeError(errors.New(he.Error.Message))
	default:
		return apperr.InferenceError(errors.New(he.Error.Message))
	}
}

// helperFailure extracts stderr detail from a failed helper run.
func helperFailure(err error) error {
	var ee *exec.ExitError
	if errors.As(err, &ee) && len(ee.Stderr) > 0 {
		var he helperError
		if json.Unmarshal(ee.Stderr, &he) == nil {
			return errors.New(he.Error.Message)
		}
		return errors.New(string(ee.Stderr))
	}
	return err
}
