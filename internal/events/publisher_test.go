package events

import (
	"context"
	"testing"

	"audio-transcription-service/internal/models"
)

func TestNew_DisabledModes(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config", cfg: nil},
		{name: "explicitly disabled", cfg: &Config{Enabled: false, Brokers: []string{"localhost:9092"}, Topic: "transcripts"}},
		{name: "enabled without brokers", cfg: &Config{Enabled: true, Topic: "transcripts"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writer != nil {
				t.Error("expected no Kafka writer in disabled mode")
			}
		})
	}
}

func TestNew_Enabled(t *testing.T) {
	p := New(&Config{
		Enabled:   true,
		Brokers:   []string{"localhost:9092"},
		Topic:     "audio.transcripts",
		Principal: "transcriber",
	})
	defer p.Close()

	if !p.enabled {
		t.Error("expected publisher to be enabled")
	}
	if p.writer == nil {
		t.Fatal("expected a Kafka writer")
	}
	if p.topic != "audio.transcripts" {
		t.Errorf("expected topic audio.transcripts, got %s", p.topic)
	}
}

func TestPublish_DisabledIsNoop(t *testing.T) {
	p := New(nil)

	ev := models.TranscriptCompleted{
		EventType: "audio.transcript.completed",
		RequestID: "req-1",
		Filename:  "speech.wav",
		Language:  "en",
		Text:      "hello world",
	}
	if err := p.PublishCompleted(context.Background(), "req-1", ev); err != nil {
		t.Errorf("disabled publish must not error, got %v", err)
	}

	fail := models.TranscriptFailed{
		EventType: "audio.transcript.failed",
		RequestID: "req-2",
		Filename:  "broken.mp3",
		ErrorKind: "DECODE_ERROR",
		Message:   "could not decode audio",
	}
	if err := p.PublishFailed(context.Background(), "req-2", fail); err != nil {
		t.Errorf("disabled publish must not error, got %v", err)
	}
}

func TestPublish_UnmarshalableEvent(t *testing.T) {
	p := New(nil)

	// A channel cannot be marshaled to JSON.
	if err := p.PublishCompleted(context.Background(), "req-3", make(chan int)); err == nil {
		t.Error("expected a marshal error")
	}
}

func TestClose_WithoutWriter(t *testing.T) {
	p := New(nil)
	if err := p.Close(); err != nil {
		t.Errorf("close on disabled publisher must not error, got %v", err)
	}
}
