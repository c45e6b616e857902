// Package events publishes transcript lifecycle events to Kafka so
// downstream consumers can index or post-process completed transcriptions.
package events

import (
	"context"
	"encoding/json"
	"time"

	"audio-transcription-service/internal/observability"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Publisher publishes transcript events to a Kafka topic. When disabled it
// degrades to log-only mode so the pipeline never depends on a broker.
type Publisher struct {
	writer    *kafka.Writer
	principal string
	topic     string
	enabled   bool
	metrics   *observability.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers   []string
	Topic     string
	Principal string
	Enabled   bool
}

// New creates a new Kafka event publisher.
func New(cfg *Config) *Publisher {
	m := observability.DefaultMetrics

	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, transcript events run in log-only mode")
		p := &Publisher{enabled: false, metrics: m}
		if cfg != nil {
			p.principal = cfg.Principal
			p.topic = cfg.Topic
		}
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writer:    writer,
		principal: cfg.Principal,
		topic:     cfg.Topic,
		enabled:   true,
		metrics:   m,
	}
}

// PublishCompleted publishes a transcript-completed event keyed by request ID.
func (p *Publisher) PublishCompleted(ctx context.Context, requestID string, event any) error {
	return p.publish(ctx, "completed", requestID, event)
}

// PublishFailed publishes a transcript-failed event keyed by request ID.
func (p *Publisher) PublishFailed(ctx context.Context, requestID string, event any) error {
	return p.publish(ctx, "failed", requestID, event)
}

func (p *Publisher) publish(ctx context.Context, eventType, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", p.topic).Msg("failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", p.topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("publishing event")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordEventPublish(p.topic, eventType, nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", key).
			Msg("failed to write to Kafka")
		p.metrics.RecordEventPublish(p.topic, eventType, err)
		return err
	}

	p.metrics.RecordEventPublish(p.topic, eventType, nil)
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
