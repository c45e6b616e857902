package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"audio-transcription-service/internal/apperr"
	"audio-transcription-service/internal/service/params"
)

// stubEngine implements Engine for testing the handle.
type stubEngine struct {
	loadCalls int32
	loadErr   error
	loadDelay time.Duration
	result    *Result
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Load(ctx context.Context) error {
	atomic.AddInt32(&s.loadCalls, 1)
	if s.loadDelay > 0 {
		time.Sleep(s.loadDelay)
	}
	return s.loadErr
}

func (s *stubEngine) Transcribe(ctx context.Context, audioPath string, opts params.Options) (*Result, error) {
	return s.result, nil
}

func TestHandle_LoadsOnce(t *testing.T) {
	stub := &stubEngine{result: &Result{Language: "en"}}
	h := NewHandle(stub)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.EnsureLoaded(context.Background()); err != nil {
				t.Errorf("unexpected load error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&stub.loadCalls); n != 1 {
		t.Errorf("expected exactly 1 load, got %d", n)
	}
	if !h.Ready() {
		t.Error("expected handle to be ready")
	}
	if h.Status() != StatusReady {
		t.Errorf("expected status ready, got %s", h.Status())
	}
}

func TestHandle_LoadFailureIsPermanent(t *testing.T) {
	stub := &stubEngine{loadErr: errors.New("model missing")}
	h := NewHandle(stub)

	if err := h.EnsureLoaded(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	// A second call must not retry the load.
	if err := h.EnsureLoaded(context.Background()); err == nil {
		t.Fatal("expected load error on second call")
	}
	if n := atomic.LoadInt32(&stub.loadCalls); n != 1 {
		t.Errorf("expected exactly 1 load attempt, got %d", n)
	}
	if h.Ready() {
		t.Error("expected handle not ready after load failure")
	}
	if h.Status() != StatusFailed {
		t.Errorf("expected status failed, got %s", h.Status())
	}

	_, err := h.Invoke(context.Background(), "audio.wav", params.Options{})
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindEngineLoadFailure {
		t.Errorf("expected engine load failure, got %v", err)
	}
}

func TestHandle_StatusDuringLoad(t *testing.T) {
	stub := &stubEngine{loadDelay: 100 * time.Millisecond}
	h := NewHandle(stub)

	go h.EnsureLoaded(context.Background())
	time.Sleep(10 * time.Millisecond)

	// Status must not block on the in-flight load.
	if h.Status() != StatusLoading {
		t.Errorf("expected status loading, got %s", h.Status())
	}
	if h.Ready() {
		t.Error("expected not ready while loading")
	}

	if err := h.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if h.Status() != StatusReady {
		t.Errorf("expected status ready, got %s", h.Status())
	}
}

func TestHandle_InvokeWhileLoading(t *testing.T) {
	stub := &stubEngine{loadDelay: 100 * time.Millisecond}
	h := NewHandle(stub)
	go h.EnsureLoaded(context.Background())
	time.Sleep(10 * time.Millisecond)

	_, err := h.Invoke(context.Background(), "audio.wav", params.Options{})
	var e *apperr.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	if !e.Retryable {
		t.Error("refusal during load should be retryable")
	}
}
