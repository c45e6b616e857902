// Package engine wraps the transcription model behind a process-wide handle.
// The model is loaded at most once; invocation is the single CPU-bound,
// blocking boundary of the pipeline and must only be reached through the
// scheduler's concurrency gate.
package engine

import (
	"context"

	"audio-transcription-service/internal/service/params"
)

// Word is a word-level timing produced by the model.
type Word struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Word        string  `json:"word"`
	Probability float64 `json:"probability"`
}

// Segment is a model-native transcript segment.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Result is the model-native output of one transcription.
type Result struct {
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
	Duration            float64   `json:"duration"`
	Segments            []Segment `json:"segments"`
}

// Engine is a transcription backend. Load is called once per process;
// Transcribe is blocking and CPU-bound by contract.
type Engine interface {
	// Name identifies the backend.
	Name() string
	// Load prepares the model. Called at most once.
	Load(ctx context.Context) error
	// Transcribe decodes the audio at audioPath and transcribes it.
	Transcribe(ctx context.Context, audioPath string, opts params.Options) (*Result, error)
}
