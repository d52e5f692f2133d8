package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error {
	c.closed = true
	return nil
}

func TestNewDisabledWithoutBrokers(t *testing.T) {
	p := New(Config{Topic: "voxsheet.transcripts"})
	if p.Enabled() || p.writer != nil {
		t.Fatal("expected log-only publisher")
	}
	if err := p.Publish(context.Background(), TranscriptEvent{Text: "x"}); err != nil {
		t.Errorf("Publish when disabled = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestNewEnabledWithBrokers(t *testing.T) {
	p := New(Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
	defer p.Close()
	if !p.Enabled() {
		t.Error("expected enabled publisher")
	}
	w, ok := p.writer.(*kafka.Writer)
	if !ok || w.Topic != "t" {
		t.Errorf("writer = %#v", p.writer)
	}
}

func TestPublishWritesEvent(t *testing.T) {
	w := &captureWriter{}
	p := New(Config{})
	p.writer, p.enabled = w, true

	err := p.Publish(context.Background(), TranscriptEvent{
		Text:       "안녕하세요",
		Confidence: 0.91,
		Cell:       "A1",
		Backend:    "google",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(w.msgs))
	}
	msg := w.msgs[0]

	var ev TranscriptEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(ev.ID); err != nil {
		t.Errorf("ID %q is not a uuid", ev.ID)
	}
	if string(msg.Key) != ev.ID {
		t.Errorf("key = %q, want event ID %q", msg.Key, ev.ID)
	}
	if ev.Text != "안녕하세요" || ev.Cell != "A1" || ev.Timestamp.IsZero() {
		t.Errorf("event = %+v", ev)
	}

	p.Close()
	if !w.closed {
		t.Error("Close should close the writer")
	}
}

func TestPublishWriteError(t *testing.T) {
	w := &captureWriter{err: errors.New("broker down")}
	p := New(Config{})
	p.writer, p.enabled = w, true

	if err := p.Publish(context.Background(), TranscriptEvent{Text: "x"}); err == nil {
		t.Error("expected write error")
	}
}
