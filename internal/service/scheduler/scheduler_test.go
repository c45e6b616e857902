package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"audio-transcription-service/internal/apperr"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/observability"
	"audio-transcription-service/internal/service/engine"
	"audio-transcription-service/internal/service/params"
)

// gateEngine blocks each invocation until released, so tests can control
// exactly how many jobs are in flight.
type gateEngine struct {
	started       chan struct{}
	release       chan struct{}
	invocations   int32
	concurrent    int32
	maxConcurrent int32
	err           error
}

func newGateEngine() *gateEngine {
	return &gateEngine{
		started: make(chan struct{}, 64),
		release: make(chan struct{}, 64),
	}
}

func (g *gateEngine) Name() string                 { return "gate" }
func (g *gateEngine) Load(ctx context.Context) error { return nil }

func (g *gateEngine) Transcribe(ctx context.Context, audioPath string, opts params.Options) (*engine.Result, error) {
	atomic.AddInt32(&g.invocations, 1)
	cur := atomic.AddInt32(&g.concurrent, 1)
	for {
		max := atomic.LoadInt32(&g.maxConcurrent)
		if cur <= max || atomic.CompareAndSwapInt32(&g.maxConcurrent, max, cur) {
			break
		}
	}
	defer atomic.AddInt32(&g.concurrent, -1)

	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return &engine.Result{Language: "en", Segments: []engine.Segment{{End: 1, Text: "ok"}}}, nil
}

func newTestScheduler(t *testing.T, eng engine.Engine, workers, queueDepth int, timeout time.Duration) *Scheduler {
	t.Helper()
	h := engine.NewHandle(eng)
	if err := h.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s := New(h, config.SchedulerConfig{
		Workers:    workers,
		QueueDepth: queueDepth,
		JobTimeout: timeout,
	}, observability.DefaultMetrics)
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestTranscribe_Completes(t *testing.T) {
	eng := newGateEngine()
	s := newTestScheduler(t, eng, 1, 4, time.Second)

	eng.release <- struct{}{}
	res, err := s.Transcribe(context.Background(), "a.wav", params.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Language != "en" {
		t.Errorf("expected language 'en', got %s", res.Language)
	}
}

func TestTranscribe_QueueFullRejectsImmediately(t *testing.T) {
	eng := newGateEngine()
	s := newTestScheduler(t, eng, 1, 1, time.Second)

	done := make(chan error, 2)
	// First job occupies the single worker.
	go func() {
		_, err := s.Transcribe(context.Background(), "a.wav", params.Options{})
		done <- err
	}()
	<-eng.started

	// Second job fills the queue.
	go func() {
		_, err := s.Transcribe(context.Background(), "b.wav", params.Options{})
		done <- err
	}()
	waitFor(t, func() bool { return s.QueueDepth() == 1 }, "second job never queued")

	// Third job must be rejected without blocking.
	start := time.Now()
	_, err := s.Transcribe(context.Background(), "c.wav", params.Options{})
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("rejection took %v, expected fast-fail", elapsed)
	}
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindServiceOverloaded {
		t.Fatalf("expected service overloaded, got %v", err)
	}
	if !e.Retryable {
		t.Error("overload must be retryable")
	}

	// The two admitted jobs still complete.
	eng.release <- struct{}{}
	eng.release <- struct{}{}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Errorf("admitted job failed: %v", err)
		}
	}
}

func TestTranscribe_ExpiredInQueueNeverInvokesEngine(t *testing.T) {
	eng := newGateEngine()
	s := newTestScheduler(t, eng, 1, 2, 50*time.Millisecond)

	blocked := make(chan error, 1)
	go func() {
		_, err := s.Transcribe(context.Background(), "a.wav", params.Options{})
		blocked <- err
	}()
	<-eng.started

	// This job expires while waiting behind the blocked worker.
	_, err := s.Transcribe(context.Background(), "b.wav", params.Options{})
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}

	// Unblock the worker; it must skip the expired job without invoking the
	// engine for it.
	eng.release <- struct{}{}
	<-blocked
	waitFor(t, func() bool { return s.QueueDepth() == 0 }, "queue never drained")
	if n := atomic.LoadInt32(&eng.invocations); n != 1 {
		t.Errorf("expected 1 engine invocation, got %d", n)
	}
}

func TestTranscribe_ConcurrencyBound(t *testing.T) {
	eng := newGateEngine()
	const workers = 2
	s := newTestScheduler(t, eng, workers, 8, 2*time.Second)

	const jobs = 6
	var wg sync.WaitGroup
	errs := make([]error, jobs)
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Transcribe(context.Background(), "a.wav", params.Options{})
		}(i)
	}
	go func() {
		for i := 0; i < jobs; i++ {
			<-eng.started
			eng.release <- struct{}{}
		}
	}()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("job %d failed: %v", i, err)
		}
	}
	if max := atomic.LoadInt32(&eng.maxConcurrent); max > workers {
		t.Errorf("observed %d concurrent invocations, bound is %d", max, workers)
	}
}

func TestTranscribe_EngineFailureNotRetried(t *testing.T) {
	eng := newGateEngine()
	eng.err = apperr.DecodeError(errors.New("garbled header"))
	s := newTestScheduler(t, eng, 1, 4, time.Second)

	eng.release <- struct{}{}
	_, err := s.Transcribe(context.Background(), "bad.wav", params.Options{})
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindDecodeError {
		t.Fatalf("expected decode error, got %v", err)
	}
	if e.Retryable {
		t.Error("decode error must not be retryable")
	}
	if n := atomic.LoadInt32(&eng.invocations); n != 1 {
		t.Errorf("expected exactly 1 invocation, got %d", n)
	}
}

func TestTranscribe_TimeoutMidRunDoesNotBlockOthers(t *testing.T) {
	eng := newGateEngine()
	s := newTestScheduler(t, eng, 1, 4, 50*time.Millisecond)

	start := time.Now()
	_, err := s.Transcribe(context.Background(), "slow.wav", params.Options{})
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("caller waited %v past the deadline", elapsed)
	}
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}

	// Drain the first invocation's start signal; the worker observed the
	// cancellation and is free for the next job.
	<-eng.started
	eng.release <- struct{}{}
	res, err := s.Transcribe(context.Background(), "next.wav", params.Options{})
	if err != nil {
		t.Fatalf("follow-up job failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result")
	}
}
