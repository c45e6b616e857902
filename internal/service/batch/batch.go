// Package batch fans a multi-file request out to the scheduler and collects
// per-file outcomes without letting one failure abort its siblings.
package batch

import (
	"context"
	"sync"

	"audio-transcription-service/internal/observability"
	"audio-transcription-service/internal/service/engine"
	"audio-transcription-service/internal/service/ingest"
	"audio-transcription-service/internal/service/params"
	"audio-transcription-service/internal/service/scheduler"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Input is one batch member. Either Source is set, or Err records an ingest
// failure that keeps this member out of the scheduler while preserving its
// position in the response.
type Input struct {
	Filename string
	Source   *ingest.AudioSource
	Err      error
}

// Outcome is one per-file result, positionally aligned with the inputs.
type Outcome struct {
	Filename string
	Result   *engine.Result
	Err      error
}

// Coordinator submits batch members as independent jobs.
type Coordinator struct {
	sched   *scheduler.Scheduler
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// New creates a batch coordinator on top of the scheduler.
func New(sched *scheduler.Scheduler, m *observability.Metrics) *Coordinator {
	return &Coordinator{
		sched:   sched,
		metrics: m,
		logger:  log.With().Str("component", "batch").Logger(),
	}
}

// Run submits every input with a source as its own job, concurrently, and
// awaits all outcomes. Jobs compete for the same global worker pool as
// single requests; there is no per-batch quota. Each member's temporary
// storage is released here once its job reaches a terminal state.
func (c *Coordinator) Run(ctx context.Context, inputs []Input, opts params.Options) []Outcome {
	c.metrics.RecordBatch(len(inputs))

	outcomes := make([]Outcome, len(inputs))
	var wg sync.WaitGroup

	for i, in := range inputs {
		outcomes[i].Filename = in.Filename
		if in.Err != nil {
			outcomes[i].Err = in.Err
			continue
		}

		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			defer in.Source.Release()
			res, err := c.sched.Transcribe(ctx, in.Source.Path, opts)
			outcomes[i].Result = res
			outcomes[i].Err = err
		}(i, in)
	}

	wg.Wait()

	c.logger.Info().
		Int("files", len(inputs)).
		Int("failed", countFailed(outcomes)).
		Msg("batch completed")
	return outcomes
}

func countFailed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
