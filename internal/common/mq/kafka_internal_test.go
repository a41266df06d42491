package mq

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestToKafkaMessage(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := toKafkaMessage("scoreboard.runs", &Message{
		Key:     "final",
		Value:   []byte(`{"id":42}`),
		Headers: map[string]string{"x-run-id": "42"},
		Time:    ts,
	})

	if msg.Topic != "scoreboard.runs" || string(msg.Key) != "final" {
		t.Fatalf("unexpected topic/key: %s %s", msg.Topic, msg.Key)
	}
	if !msg.Time.Equal(ts) {
		t.Fatalf("unexpected time: %v", msg.Time)
	}
	if len(msg.Headers) != 1 || msg.Headers[0].Key != "x-run-id" || string(msg.Headers[0].Value) != "42" {
		t.Fatalf("unexpected headers: %v", msg.Headers)
	}

	if stamped := toKafkaMessage("t", &Message{}); stamped.Time.IsZero() {
		t.Fatalf("expected a zero time to be stamped")
	}
}

func TestParseKafkaOptions(t *testing.T) {
	acks := map[string]kafka.RequiredAcks{"": kafka.RequireOne, "all": kafka.RequireAll, "NONE": kafka.RequireNone}
	for in, want := range acks {
		got, err := parseAcks(in)
		if err != nil || got != want {
			t.Fatalf("acks %q: got %v %v", in, got, err)
		}
	}
	if _, err := parseAcks("most"); err == nil {
		t.Fatalf("expected unknown acks error")
	}
	if c, err := parseCompression("zstd"); err != nil || c != kafka.Zstd {
		t.Fatalf("zstd: %v %v", c, err)
	}
	if _, err := parseCompression("brotli"); err == nil {
		t.Fatalf("expected unknown compression error")
	}
}

func TestNewKafkaQueueValidation(t *testing.T) {
	if _, err := NewKafkaQueue(KafkaConfig{}); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"b:9092"}, Compression: "brotli"}); err == nil {
		t.Fatalf("expected compression error")
	}
}

func TestPublishValidation(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}})
	if err != nil {
		t.Fatalf("create queue failed: %v", err)
	}
	defer q.Close()

	if err := q.Publish(t.Context(), "", &Message{Key: "1"}); err == nil {
		t.Fatalf("expected topic error")
	}
	if err := q.Publish(t.Context(), "topic"); err != nil {
		t.Fatalf("empty publish should be a no-op: %v", err)
	}
	if err := q.Publish(t.Context(), "topic", nil); err == nil {
		t.Fatalf("expected nil message error")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
