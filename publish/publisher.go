// Package publish fans delivered transcripts out to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"voxsheet/log"
	"voxsheet/metrics"
)

// TranscriptEvent is the message published for every delivered result,
// failures included.
type TranscriptEvent struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Confidence  float64   `json:"confidence"`
	Failed      bool      `json:"failed"`
	FailureKind string    `json:"failure_kind,omitempty"`
	Cell        string    `json:"cell"`
	Spreadsheet string    `json:"spreadsheet,omitempty"`
	Sheet       string    `json:"sheet,omitempty"`
	Sink        string    `json:"sink"`
	Backend     string    `json:"backend"`
	Timestamp   time.Time `json:"timestamp"`
}

type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer  messageWriter
	topic   string
	enabled bool
	metrics *metrics.Metrics
}

// New returns a publisher. Without brokers it runs in log-only mode.
func New(cfg Config) *Publisher {
	m := metrics.DefaultMetrics
	if len(cfg.Brokers) == 0 {
		log.Info("kafka disabled, transcript events are only logged")
		return &Publisher{topic: cfg.Topic, metrics: m}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}
	log.Info("kafka publisher initialized, topic " + cfg.Topic)
	return &Publisher{writer: w, topic: cfg.Topic, enabled: true, metrics: m}
}

func (p *Publisher) Enabled() bool { return p.enabled }

// Publish assigns an ID when ev has none and writes the event keyed by it.
func (p *Publisher) Publish(ctx context.Context, ev TranscriptEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.metrics.RecordPublish(metrics.OutcomeError)
		return err
	}

	if !p.enabled || p.writer == nil {
		log.Debug("transcript event " + string(payload))
		p.metrics.RecordPublish(metrics.OutcomeDisabled)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(ev.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("transcript")},
			{Key: "backend", Value: []byte(ev.Backend)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Errorf("kafka write to %s: %v", p.topic, err)
		p.metrics.RecordPublish(metrics.OutcomeError)
		return err
	}
	p.metrics.RecordPublish(metrics.OutcomeOK)
	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
