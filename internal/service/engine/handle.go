package engine

import (
	"context"
	"sync"

	"audio-transcription-service/internal/apperr"
	"audio-transcription-service/internal/service/params"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Status describes the handle's load state.
type Status string

const (
	// StatusLoading - no load attempt has completed yet.
	StatusLoading Status = "loading"
	// StatusReady - the model loaded and invocations are accepted.
	StatusReady Status = "ready"
	// StatusFailed - the one load attempt failed; readiness stays false for
	// the rest of the process lifetime.
	StatusFailed Status = "failed"
)

// Handle is the process-wide wrapper around one loaded engine. Loading runs
// at most once: the first caller performs it, concurrent callers block until
// it completes or fails, and the outcome is permanent. Status checks never
// block on an in-flight load.
type Handle struct {
	engine Engine
	logger zerolog.Logger

	once    sync.Once
	done    chan struct{}
	loadErr error
}

// NewHandle wraps an engine without loading it.
func NewHandle(e Engine) *Handle {
	return &Handle{
		engine: e,
		done:   make(chan struct{}),
		logger: log.With().Str("component", "engine-handle").Logger(),
	}
}

// EnsureLoaded loads the model if no load has been attempted yet. Every
// caller returns the outcome of the single attempt.
func (h *Handle) EnsureLoaded(ctx context.Context) error {
	h.once.Do(func() {
		h.loadErr = h.engine.Load(ctx)
		if h.loadErr != nil {
			h.logger.Error().Err(h.loadErr).Str("provider", h.engine.Name()).Msg("engine load failed")
		}
		close(h.done)
	})
	<-h.done
	return h.loadErr
}

// Ready reports whether the engine loaded successfully.
func (h *Handle) Ready() bool {
	select {
	case <-h.done:
		return h.loadErr == nil
	default:
		return false
	}
}

// Status returns the current load state without blocking.
func (h *Handle) Status() Status {
	select {
	case <-h.done:
		if h.loadErr != nil {
			return StatusFailed
		}
		return StatusReady
	default:
		return StatusLoading
	}
}

// LoadErr returns the load failure, if any.
func (h *Handle) LoadErr() error {
	select {
	case <-h.done:
		return h.loadErr
	default:
		return nil
	}
}

// Invoke runs one blocking transcription. Callers must hold a scheduler
// worker slot; this method applies no concurrency bound of its own.
func (h *Handle) Invoke(ctx context.Context, audioPath string, opts params.Options) (*Result, error) {
	switch h.Status() {
	case StatusReady:
		return h.engine.Transcribe(ctx, audioPath, opts)
	case StatusFailed:
		return nil, apperr.EngineLoadFailure(h.loadErr)
	default:
		return nil, apperr.ServiceOverloaded()
	}
}

// Name returns the wrapped engine's name.
func (h *Handle) Name() string { return h.engine.Name() }
