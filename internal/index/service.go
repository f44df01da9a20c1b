// Package index builds the equal-weighted top-N market cap index and serves
// its performance, composition and turnover through a read cache.
package index

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arnabmitra/topcap-index/internal/lock"
	"github.com/arnabmitra/topcap-index/internal/metrics"
)

const DefaultSize = 100

// Options tunes a Service. The zero value builds a 100 stock index with no
// build lease and no cache invalidation.
type Options struct {
	Size              int
	Locker            lock.Locker
	LockTTL           time.Duration
	InvalidateOnBuild bool
	Metrics           *metrics.Metrics
}

type Service struct {
	store   Store
	cache   Cache
	logger  *slog.Logger
	opts    Options
	metrics *metrics.Metrics
	group   singleflight.Group
}

func NewService(store Store, cache Cache, logger *slog.Logger, opts Options) *Service {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	return &Service{
		store:   store,
		cache:   cache,
		logger:  logger.With(slog.String("component", "index")),
		opts:    opts,
		metrics: opts.Metrics,
	}
}

// Size is the number of constituents a day needs to be included.
func (s *Service) Size() int {
	return s.opts.Size
}

func (s *Service) writeCache(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, payload)
}

// readCache decodes the entry at key into dst. A payload that no longer
// decodes is logged and treated as a miss.
func (s *Service) readCache(ctx context.Context, kind, key string, dst any) (bool, error) {
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		s.metrics.CacheMiss(kind)
		return false, nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		s.logger.Warn("discarding unreadable cache entry", slog.String("key", key), slog.Any("error", err))
		s.metrics.CacheMiss(kind)
		return false, nil
	}
	s.metrics.CacheHit(kind)
	return true, nil
}
