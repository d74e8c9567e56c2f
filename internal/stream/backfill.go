package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/emojicoin/indexer/internal/config"
	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/metrics"
)

// Backfill fetches a closed historical version range with several independent
// range workers. Each worker owns a disjoint contiguous sub-range and keeps
// mandatory contiguity within it; the merged output interleaves sub-ranges
// arbitrarily, which is safe because they touch disjoint versions.
type Backfill struct {
	cfg     config.FeedConfig
	workers int
	logger  *slog.Logger
	metrics *metrics.Metrics

	out chan *event.Batch
}

// NewBackfill creates a backfill coordinator with the given worker count.
func NewBackfill(cfg config.FeedConfig, workers int, m *metrics.Metrics, logger *slog.Logger) *Backfill {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &Backfill{
		cfg:     cfg,
		workers: workers,
		logger:  logger,
		metrics: m,
		out:     make(chan *event.Batch, cfg.ChannelBuffer),
	}
}

// Batches returns the merged output channel. It is closed when Run returns.
func (b *Backfill) Batches() <-chan *event.Batch {
	return b.out
}

// Run streams [fromVersion, toVersion] and returns once every sub-range has
// been delivered. The first worker failure cancels the rest.
func (b *Backfill) Run(ctx context.Context, fromVersion, toVersion int64) error {
	if toVersion < fromVersion {
		return fmt.Errorf("invalid backfill range [%d, %d]", fromVersion, toVersion)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ranges := splitRange(fromVersion, toVersion, b.workers)
	b.logger.Info("backfill starting",
		"from_version", fromVersion,
		"to_version", toVersion,
		"workers", len(ranges),
	)

	var wg sync.WaitGroup
	errs := make(chan error, len(ranges))

	for i, r := range ranges {
		client := NewClient(b.cfg, b.metrics, b.logger.With("worker", i))
		wg.Add(2)
		go func() {
			defer wg.Done()
			for batch := range client.Batches() {
				select {
				case b.out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}()
		go func(r versionRange) {
			defer wg.Done()
			if err := client.RunRange(ctx, r.from, r.to); err != nil {
				errs <- fmt.Errorf("range [%d, %d]: %w", r.from, r.to, err)
				cancel()
			}
		}(r)
	}

	wg.Wait()
	close(b.out)
	close(errs)
	return <-errs
}

type versionRange struct {
	from, to int64
}

// splitRange divides the closed range into at most n contiguous sub-ranges.
func splitRange(from, to int64, n int) []versionRange {
	total := to - from + 1
	if int64(n) > total {
		n = int(total)
	}
	size := total / int64(n)
	rem := total % int64(n)

	ranges := make([]versionRange, 0, n)
	cursor := from
	for i := 0; i < n; i++ {
		span := size
		if int64(i) < rem {
			span++
		}
		ranges = append(ranges, versionRange{from: cursor, to: cursor + span - 1})
		cursor += span
	}
	return ranges
}
