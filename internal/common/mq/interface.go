package mq

import (
	"context"
	"time"
)

// Producer publishes messages to a topic.
type Producer interface {
	Publish(ctx context.Context, topic string, messages ...*Message) error
	// Close flushes pending writes.
	Close() error
}

// Message is one record. Records sharing a Key land on the same partition.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
	Time    time.Time
}
