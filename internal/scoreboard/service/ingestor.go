package service

import (
	"context"
	"time"

	"scoreboard/internal/scoreboard/model"
	"scoreboard/internal/scoreboard/webcast"
	"scoreboard/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultPollInterval = time.Second

// Ingestor polls a webcast source and feeds every snapshot to a contest.
type Ingestor struct {
	contest      *ContestService
	source       webcast.Source
	interval     time.Duration
	fetchTimeout time.Duration
	decode       func([]byte) (*webcast.Archive, error)
}

// IngestOptions configures the polling of one contest.
type IngestOptions struct {
	Interval     time.Duration
	FetchTimeout time.Duration
}

func NewIngestor(contest *ContestService, source webcast.Source, opts IngestOptions) *Ingestor {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Ingestor{
		contest:      contest,
		source:       source,
		interval:     interval,
		fetchTimeout: opts.FetchTimeout,
		decode:       webcast.Decode,
	}
}

// Run ticks immediately and then on every interval until ctx is done.
// Failed ticks are logged and the loop keeps going.
func (i *Ingestor) Run(ctx context.Context) error {
	ctx = logger.WithContest(ctx, i.contest.Name())
	logger.Info(ctx, "ingest started", zap.String("source", i.source.String()), zap.Duration("interval", i.interval))

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()
	for {
		if _, err := i.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "ingest tick failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			logger.Info(ctx, "ingest stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick fetches, decodes and applies one snapshot.
func (i *Ingestor) Tick(ctx context.Context) ([]model.Run, error) {
	name := i.contest.Name()
	metrics := i.contest.Metrics()
	start := time.Now()
	defer func() {
		metrics.ObserveIngest(name, time.Since(start))
	}()

	fetchCtx := ctx
	if i.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, i.fetchTimeout)
		defer cancel()
	}
	blob, err := i.source.Fetch(fetchCtx)
	if err != nil {
		metrics.IngestError(name, "fetch")
		return nil, err
	}
	archive, err := i.decode(blob)
	if err != nil {
		metrics.IngestError(name, "decode")
		return nil, err
	}
	fresh, err := i.contest.Refresh(ctx, archive)
	if err != nil {
		metrics.IngestError(name, "refresh")
		return nil, err
	}
	return fresh, nil
}
