package engine

import (
	"context"
	"os"

	"audio-transcription-service/internal/service/params"
)

// simulatedUtterance is a canned transcript the mock engine cycles through.
type simulatedUtterance struct {
	text       string
	words      []string
	confidence float64
}

var simulatedUtterances = []simulatedUtterance{
	{
		text:       "I want to cancel my subscription",
		words:      []string{"I", "want", "to", "cancel", "my", "subscription"},
		confidence: 0.94,
	},
	{
		text:       "Yes please go ahead",
		words:      []string{"Yes", "please", "go", "ahead"},
		confidence: 0.97,
	},
	{
		text:       "Can you help me with my account",
		words:      []string{"Can", "you", "help", "me", "with", "my", "account"},
		confidence: 0.91,
	},
	{
		text:       "Thank you very much",
		words:      []string{"Thank", "you", "very", "much"},
		confidence: 0.98,
	},
}

// Mock is a deterministic in-process engine for tests and deployments
// without a python runtime. Output depends only on the payload size, except
// that an all-silence WAV body with VAD enabled yields an empty transcript.
type Mock struct{}

// NewMock creates the mock engine.
func NewMock() *Mock { return &Mock{} }

// Name returns the backend name.
func (m *Mock) Name() string { return "mock" }

// Load is instantaneous for the mock engine.
func (m *Mock) Load(ctx context.Context) error { return nil }

// Transcribe fabricates a transcript from the payload.
func (m *Mock) Transcribe(ctx context.Context, audioPath string, opts params.Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, err
	}

	lang := opts.Language
	if lang == "auto" {
		lang = "en"
	}

	if opts.VADFilter && isSilence(data) {
		return &Result{
			Language:            lang,
			LanguageProbability: 1,
			Duration:            float64(len(data)) / 32000, // 16kHz 16-bit mono
			Segments:            nil,
		}, nil
	}

	utt := simulatedUtterances[len(data)%len(simulatedUtterances)]
	duration := float64(len(data)) / 32000
	if duration < 1 {
		duration = 1
	}

	seg := Segment{Start: 0, End: duration, Text: utt.text}
	if opts.WordTimestamps {
		step := duration / float64(len(utt.words))
		for i, w := range utt.words {
			seg.Words = append(seg.Words, Word{
				Start:       float64(i) * step,
				End:         float64(i+1) * step,
				Word:        w,
				Probability: utt.confidence,
			})
		}
	}

	return &Result{
		Language:            lang,
		LanguageProbability: utt.confidence,
		Duration:            duration,
		Segments:            []Segment{seg},
	}, nil
}

// isSilence reports whether the payload carries no non-zero samples past a
// WAV header.
func isSilence(data []byte) bool {
	const headerLen = 44
	if len(data) <= headerLen {
		return true
	}
	for _, b := range data[headerLen:] {
		if b != 0 {
			return false
		}
	}
	return true
}
