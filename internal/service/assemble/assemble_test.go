package assemble

import (
	"testing"

	"audio-transcription-service/internal/service/engine"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		Language:            "en",
		LanguageProbability: 0.98765,
		Duration:            12.3456789,
		Segments: []engine.Segment{
			{
				Start: 0.0001,
				End:   2.71828,
				Text:  " Hello there. ",
				Words: []engine.Word{
					{Start: 0.0001, End: 1.11119, Word: "Hello", Probability: 0.91234},
					{Start: 1.2, End: 2.71828, Word: "there.", Probability: 0.99999},
				},
			},
			{
				Start: 2.9, End: 5.5, Text: " General Kenobi.",
				Words: []engine.Word{
					{Start: 2.9, End: 4.0, Word: "General", Probability: 0.8},
					{Start: 4.1, End: 5.5, Word: "Kenobi.", Probability: 0.85},
				},
			},
		},
	}
}

func TestTranscript_Shape(t *testing.T) {
	got := Transcript(sampleResult(), false)

	if got.Text != "Hello there. General Kenobi." {
		t.Errorf("unexpected full text: %q", got.Text)
	}
	if got.Language != "en" {
		t.Errorf("expected language 'en', got %s", got.Language)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got.Segments))
	}
	for i, seg := range got.Segments {
		if seg.ID != i {
			t.Errorf("segment %d: expected id %d, got %d", i, i, seg.ID)
		}
	}
}

func TestTranscript_FixedPrecision(t *testing.T) {
	got := Transcript(sampleResult(), true)

	if got.LanguageProbability != 0.988 {
		t.Errorf("expected language probability rounded to 0.988, got %v", got.LanguageProbability)
	}
	if got.Duration != 12.346 {
		t.Errorf("expected duration rounded to 12.346, got %v", got.Duration)
	}
	if got.Segments[0].Start != 0 {
		t.Errorf("expected start rounded to 0, got %v", got.Segments[0].Start)
	}
	if got.Segments[0].End != 2.718 {
		t.Errorf("expected end rounded to 2.718, got %v", got.Segments[0].End)
	}
	if got.Segments[0].Words[0].End != 1.111 {
		t.Errorf("expected word end rounded to 1.111, got %v", got.Segments[0].Words[0].End)
	}
}

func TestTranscript_WordsOnlyWhenRequested(t *testing.T) {
	without := Transcript(sampleResult(), false)
	for i, seg := range without.Segments {
		if seg.Words != nil {
			t.Errorf("segment %d: words must be absent when not requested", i)
		}
	}

	with := Transcript(sampleResult(), true)
	for i, seg := range with.Segments {
		if len(seg.Words) == 0 {
			t.Errorf("segment %d: expected words when requested", i)
		}
	}
}

func TestTranscript_TimesSortedAndNonNegative(t *testing.T) {
	got := Transcript(sampleResult(), false)

	prev := 0.0
	for i, seg := range got.Segments {
		if seg.Start < 0 || seg.End < 0 {
			t.Errorf("segment %d: negative time", i)
		}
		if seg.End < seg.Start {
			t.Errorf("segment %d: end %v before start %v", i, seg.End, seg.Start)
		}
		if seg.Start < prev {
			t.Errorf("segment %d: start %v before previous start %v", i, seg.Start, prev)
		}
		prev = seg.Start
	}
}

func TestTranscript_Empty(t *testing.T) {
	got := Transcript(&engine.Result{Language: "en", LanguageProbability: 1}, false)

	if got.Text != "" {
		t.Errorf("expected empty text, got %q", got.Text)
	}
	if len(got.Segments) != 0 {
		t.Errorf("expected zero segments, got %d", len(got.Segments))
	}
}
