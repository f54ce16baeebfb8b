// Package scheduler runs periodic maintenance jobs beside the poller.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/correlator"
	"github.com/mimic-fi/v3-subgraph/internal/metrics"
)

// Reporter counts records left without a relayed execution in a block range.
type Reporter interface {
	Report(ctx context.Context, fromBlock, toBlock uint64) (map[correlator.Kind]int, error)
}

// Cursor exposes the last indexed block.
type Cursor interface {
	LastBlock(ctx context.Context) (uint64, bool, error)
}

// QualityScheduler periodically reports unlinked movements and vault calls
// written in the last lookback blocks.
type QualityScheduler struct {
	reporter  Reporter
	cursor    Cursor
	interval  time.Duration
	lookback  uint64
	metrics   *metrics.Metrics
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

func NewQualityScheduler(reporter Reporter, cursor Cursor, interval time.Duration, lookback uint64, m *metrics.Metrics, logger zerolog.Logger) (*QualityScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &QualityScheduler{
		reporter:  reporter,
		cursor:    cursor,
		interval:  interval,
		lookback:  lookback,
		metrics:   m,
		scheduler: s,
		logger:    logger.With().Str("component", "quality-scheduler").Logger(),
	}, nil
}

func (s *QualityScheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.Check, ctx),
		gocron.WithName("unlinked-records"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	s.logger.Info().Dur("interval", s.interval).Msg("Data quality scheduler started")
	s.scheduler.Start()
	return nil
}

func (s *QualityScheduler) Stop() {
	s.logger.Info().Msg("Stopping data quality scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down scheduler")
	}
}

// Check runs one report and publishes the counts.
func (s *QualityScheduler) Check(ctx context.Context) {
	start := time.Now()

	last, _, err := s.cursor.LastBlock(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read cursor")
		return
	}
	var from uint64
	if last > s.lookback {
		from = last - s.lookback
	}

	counts, err := s.reporter.Report(ctx, from, last)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to report unlinked records")
		return
	}

	event := s.logger.Info()
	for kind, n := range counts {
		s.metrics.SetUnlinked(string(kind), n)
		if n > 0 {
			event = s.logger.Warn()
		}
	}
	event.
		Uint64("from_block", from).
		Uint64("to_block", last).
		Int("movements", counts[correlator.KindMovement]).
		Int("calls", counts[correlator.KindCall]).
		Dur("duration", time.Since(start)).
		Msg("Unlinked records checked")
}
