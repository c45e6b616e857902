// Package scheduler is the admission-control and concurrency core of the
// pipeline. A fixed pool of workers bounds how many engine invocations run
// concurrently; excess jobs queue up to a bound and anything beyond that is
// rejected immediately rather than buffered without limit.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"audio-transcription-service/internal/apperr"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/observability"
	"audio-transcription-service/internal/service/engine"
	"audio-transcription-service/internal/service/params"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// outcome is what a worker delivers back to the single awaiting caller.
type outcome struct {
	result *engine.Result
	err    error
}

// Job is one scheduled unit of transcription work.
type Job struct {
	ID        string
	AudioPath string
	Options   params.Options
	Submitted time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	outcome chan outcome

	mu    sync.Mutex
	state State
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// deliver hands the outcome to the waiting caller. The channel is buffered,
// so a caller that stopped listening after its deadline never blocks the
// worker. Workers deliver exactly once per job.
func (j *Job) deliver(s State, res *engine.Result, err error) {
	j.setState(s)
	j.outcome <- outcome{result: res, err: err}
}

// Scheduler bounds concurrent engine invocations.
type Scheduler struct {
	handle  *engine.Handle
	queue   chan *Job
	workers int
	timeout time.Duration
	metrics *observability.Metrics
	logger  zerolog.Logger

	quit chan struct{}
	wg   sync.WaitGroup
}

// New creates a scheduler with cfg.Workers workers and a wait queue of
// cfg.QueueDepth. Workers are not started until Start is called.
func New(handle *engine.Handle, cfg config.SchedulerConfig, m *observability.Metrics) *Scheduler {
	return &Scheduler{
		handle:  handle,
		queue:   make(chan *Job, cfg.QueueDepth),
		workers: cfg.Workers,
		timeout: cfg.JobTimeout,
		metrics: m,
		logger:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start launches the worker pool.
func (s *Scheduler) Start() {
	s.quit = make(chan struct{})
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Info().
		Int("workers", s.workers).
		Int("queueDepth", cap(s.queue)).
		Dur("jobTimeout", s.timeout).
		Msg("scheduler started")
}

// Stop waits for in-flight jobs to finish. Queued jobs that never reach a
// worker are resolved by their callers' deadlines.
func (s *Scheduler) Stop() {
	close(s.quit)
	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

// Transcribe admits one job and blocks until its terminal outcome. The
// caller's context bounds the wait; the per-job timeout bounds wait plus run.
func (s *Scheduler) Transcribe(ctx context.Context, audioPath string, opts params.Options) (*engine.Result, error) {
	jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
	job := &Job{
		ID:        uuid.NewString(),
		AudioPath: audioPath,
		Options:   opts,
		Submitted: time.Now(),
		ctx:       jobCtx,
		cancel:    cancel,
		outcome:   make(chan outcome, 1),
		state:     StateQueued,
	}
	defer cancel()

	// Admission: fast-fail when the queue is full, never block the caller.
	select {
	case s.queue <- job:
		s.metrics.RecordJobQueued()
	default:
		job.setState(StateRejected)
		s.metrics.RecordJobRejected()
		s.logger.Warn().Str("jobId", job.ID).Msg("queue full, job rejected")
		return nil, apperr.ServiceOverloaded()
	}

	select {
	case out := <-job.outcome:
		return out.result, out.err
	case <-jobCtx.Done():
		// The worker may still be running; its result is discarded when it
		// lands on the buffered channel.
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			return nil, apperr.Timeout()
		}
		return nil, jobCtx.Err()
	}
}

// QueueDepth returns the number of jobs currently waiting.
func (s *Scheduler) QueueDepth() int { return len(s.queue) }

// Capacity returns the worker and queue bounds.
func (s *Scheduler) Capacity() (workers, queueDepth int) {
	return s.workers, cap(s.queue)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	logger := s.logger.With().Int("worker", id).Logger()
	for {
		select {
		case <-s.quit:
			return
		case job := <-s.queue:
			s.runJob(logger, job)
		}
	}
}

func (s *Scheduler) runJob(logger zerolog.Logger, job *Job) {
	wait := time.Since(job.Submitted)
	s.metrics.RecordJobDequeued(wait.Seconds())

	// A job already past its deadline is failed without touching the engine.
	if job.ctx.Err() != nil {
		job.deliver(StateTimedOut, nil, apperr.Timeout())
		s.metrics.RecordJobTimedOut()
		logger.Warn().
			Str("jobId", job.ID).
			Dur("queueWait", wait).
			Msg("job expired in queue")
		return
	}

	job.setState(StateRunning)
	s.metrics.RecordWorkerBusy()
	defer s.metrics.RecordWorkerIdle()

	start := time.Now()
	res, err := s.handle.Invoke(job.ctx, job.AudioPath, job.Options)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		job.deliver(StateCompleted, res, nil)
		s.metrics.RecordJobCompleted(elapsed.Seconds())
		logger.Info().
			Str("jobId", job.ID).
			Dur("queueWait", wait).
			Dur("runTime", elapsed).
			Msg("job completed")
	case job.ctx.Err() != nil:
		job.deliver(StateTimedOut, nil, apperr.Timeout())
		s.metrics.RecordJobTimedOut()
		logger.Warn().
			Str("jobId", job.ID).
			Dur("runTime", elapsed).
			Msg("job cancelled mid-run")
	default:
		job.deliver(StateFailed, nil, apperr.From(err))
		s.metrics.RecordJobFailed(string(apperr.From(err).Kind))
		logger.Error().
			Err(err).
			Str("jobId", job.ID).
			Dur("runTime", elapsed).
			Msg("job failed")
	}
}
