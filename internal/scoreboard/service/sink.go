package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"scoreboard/internal/common/mq"
	"scoreboard/internal/scoreboard/model"
	"scoreboard/internal/scoreboard/repository"
	pkgerrors "scoreboard/pkg/errors"
)

// RunSink receives the fresh runs of every ingest tick.
type RunSink interface {
	Name() string
	Consume(ctx context.Context, contest string, runs []model.Run) error
}

// RunEvent is the message published for every fresh run.
type RunEvent struct {
	Contest string    `json:"contest"`
	Run     model.Run `json:"run"`
	SeenAt  int64     `json:"seen_at"`
}

// MQRunPublisher publishes fresh runs to a message queue, keyed by contest
// so that one contest keeps its arrival order within a partition.
type MQRunPublisher struct {
	producer mq.Producer
	topic    string
}

func NewMQRunPublisher(producer mq.Producer, topic string) *MQRunPublisher {
	return &MQRunPublisher{producer: producer, topic: topic}
}

func (p *MQRunPublisher) Name() string { return "mq" }

func (p *MQRunPublisher) Consume(ctx context.Context, contest string, runs []model.Run) error {
	if p == nil || p.producer == nil {
		return pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("run publisher is not configured")
	}
	if p.topic == "" {
		return pkgerrors.New(pkgerrors.InvalidParams).WithMessage("run topic is required")
	}
	if len(runs) == 0 {
		return nil
	}

	now := time.Now()
	messages := make([]*mq.Message, 0, len(runs))
	for _, r := range runs {
		payload, err := json.Marshal(RunEvent{Contest: contest, Run: r, SeenAt: now.Unix()})
		if err != nil {
			return pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "marshal run event: %v", err)
		}
		messages = append(messages, &mq.Message{
			Key:     contest,
			Value:   payload,
			Headers: map[string]string{"x-run-id": strconv.FormatInt(r.ID, 10)},
			Time:    now,
		})
	}
	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.ServiceUnavailable, "publish run events: %v", err)
	}
	return nil
}

// JournalSink stores fresh runs in the run journal.
type JournalSink struct {
	journal repository.RunJournal
}

func NewJournalSink(journal repository.RunJournal) *JournalSink {
	return &JournalSink{journal: journal}
}

func (s *JournalSink) Name() string { return "journal" }

func (s *JournalSink) Consume(ctx context.Context, contest string, runs []model.Run) error {
	return s.journal.Append(ctx, contest, runs)
}
