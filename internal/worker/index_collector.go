package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arnabmitra/topcap-index/internal/index"
	"github.com/arnabmitra/topcap-index/internal/ingest"
	"github.com/arnabmitra/topcap-index/internal/lock"
	"github.com/arnabmitra/topcap-index/internal/sanitize"
)

type Ingester interface {
	Run(ctx context.Context, lookbackDays int) (ingest.Summary, error)
}

type Builder interface {
	Build(ctx context.Context, start, end string) ([]index.PerformanceRecord, error)
}

// IndexCollector ingests fresh market data and rebuilds the index for the
// lookback window on start and then every interval.
type IndexCollector struct {
	ingester     Ingester
	builder      Builder
	lookbackDays int
	interval     time.Duration
	timeout      time.Duration
	logger       *slog.Logger
	now          func() time.Time
	stop         chan struct{}
	done         chan struct{}
}

func NewIndexCollector(ingester Ingester, builder Builder, logger *slog.Logger, interval time.Duration, lookbackDays int) *IndexCollector {
	return &IndexCollector{
		ingester:     ingester,
		builder:      builder,
		lookbackDays: lookbackDays,
		interval:     interval,
		timeout:      30 * time.Minute,
		logger:       logger.With(slog.String("component", "collector")),
		now:          time.Now,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (c *IndexCollector) Start() {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		// Run immediately on start
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running collection to finish.
func (c *IndexCollector) Stop() {
	close(c.stop)
	<-c.done
}

func (c *IndexCollector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	go func() {
		select {
		case <-c.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := c.ingester.Run(ctx, c.lookbackDays); err != nil {
		c.logger.Error("ingest failed", slog.Any("error", err))
		return
	}

	end := c.now().UTC()
	start := end.AddDate(0, 0, -c.lookbackDays)
	records, err := c.builder.Build(ctx, sanitize.Date(start), sanitize.Date(end))
	switch {
	case errors.Is(err, lock.ErrHeld):
		c.logger.Info("skipping scheduled build, another build is running")
	case err != nil:
		c.logger.Error("scheduled build failed", slog.Any("error", err))
	default:
		c.logger.Info("scheduled build complete",
			slog.String("start", sanitize.Date(start)),
			slog.String("end", sanitize.Date(end)),
			slog.Int("records", len(records)))
	}
}
