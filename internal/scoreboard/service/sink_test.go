package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"scoreboard/internal/common/mq"
	"scoreboard/internal/scoreboard/model"
	pkgerrors "scoreboard/pkg/errors"
)

type fakeProducer struct {
	topic    string
	messages []*mq.Message
	err      error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, messages ...*mq.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestMQRunPublisher(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewMQRunPublisher(producer, "scoreboard.runs")

	runs := []model.Run{
		{ID: 7, Time: 12, TeamLogin: "n1", Problem: "C", Verdict: model.Accepted(12)},
		{ID: 8, Time: 13, TeamLogin: "s1", Problem: "A", Verdict: model.Rejected()},
	}
	if err := pub.Consume(context.Background(), "finals", runs); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if producer.topic != "scoreboard.runs" || len(producer.messages) != 2 {
		t.Fatalf("unexpected publish: topic=%s messages=%d", producer.topic, len(producer.messages))
	}

	msg := producer.messages[0]
	if msg.Key != "finals" || msg.Headers["x-run-id"] != "7" {
		t.Fatalf("unexpected message metadata: %+v", msg)
	}
	var event RunEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Contest != "finals" || event.Run.ID != 7 || !event.Run.Verdict.IsAccepted() {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestMQRunPublisherErrors(t *testing.T) {
	runs := []model.Run{{ID: 1, TeamLogin: "n1", Problem: "A"}}

	var unset *MQRunPublisher
	if err := unset.Consume(context.Background(), "finals", runs); !pkgerrors.Is(err, pkgerrors.ServiceUnavailable) {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
	if err := NewMQRunPublisher(&fakeProducer{}, "").Consume(context.Background(), "finals", runs); !pkgerrors.Is(err, pkgerrors.InvalidParams) {
		t.Fatalf("expected InvalidParams, got %v", err)
	}
	failing := NewMQRunPublisher(&fakeProducer{err: errors.New("broker down")}, "t")
	if err := failing.Consume(context.Background(), "finals", runs); !pkgerrors.Is(err, pkgerrors.ServiceUnavailable) {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
	if err := NewMQRunPublisher(&fakeProducer{}, "t").Consume(context.Background(), "finals", nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

type memoryJournal struct {
	runs map[string][]model.Run
}

func (j *memoryJournal) Append(_ context.Context, contest string, runs []model.Run) error {
	j.runs[contest] = append(j.runs[contest], runs...)
	return nil
}

func (j *memoryJournal) LoadRuns(_ context.Context, contest string) ([]model.Run, error) {
	return j.runs[contest], nil
}

func TestJournalSink(t *testing.T) {
	journal := &memoryJournal{runs: make(map[string][]model.Run)}
	sink := NewJournalSink(journal)
	if sink.Name() != "journal" {
		t.Fatalf("unexpected name %s", sink.Name())
	}
	if err := sink.Consume(context.Background(), "finals", []model.Run{{ID: 1}}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(journal.runs["finals"]) != 1 {
		t.Fatalf("run not journaled")
	}
}
