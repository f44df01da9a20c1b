package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnabmitra/topcap-index/internal/index"
	"github.com/arnabmitra/topcap-index/internal/ingest"
	"github.com/arnabmitra/topcap-index/internal/lock"
)

type recorder struct {
	mu        sync.Mutex
	calls     []string
	ingestErr error
	buildErr  error
}

func (r *recorder) Run(_ context.Context, lookbackDays int) (ingest.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("ingest %d", lookbackDays))
	return ingest.Summary{}, r.ingestErr
}

func (r *recorder) Build(_ context.Context, start, end string) ([]index.PerformanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "build "+start+" "+end)
	return nil, r.buildErr
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newCollector(r *recorder) *IndexCollector {
	c := NewIndexCollector(r, r, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour, 40)
	c.now = func() time.Time { return time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC) }
	return c
}

func TestIndexCollectorRunsOnStart(t *testing.T) {
	r := &recorder{}
	c := newCollector(r)

	c.Start()
	require.Eventually(t, func() bool { return len(r.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
	c.Stop()

	assert.Equal(t, []string{"ingest 40", "build 2024-01-21 2024-03-01"}, r.snapshot())
}

func TestIndexCollectorSkipsBuildWhenIngestFails(t *testing.T) {
	r := &recorder{ingestErr: errors.New("yahoo down")}
	c := newCollector(r)

	c.collect()
	assert.Equal(t, []string{"ingest 40"}, r.snapshot())
}

func TestIndexCollectorToleratesHeldLease(t *testing.T) {
	r := &recorder{buildErr: lock.ErrHeld}
	c := newCollector(r)

	assert.NotPanics(t, c.collect)
	assert.Len(t, r.snapshot(), 2)
}

func TestIndexCollectorUsesUTCDates(t *testing.T) {
	r := &recorder{}
	c := newCollector(r)
	// 05:00 on 1 March at UTC+14 is still 29 February in UTC
	c.now = func() time.Time { return time.Date(2024, 3, 1, 5, 0, 0, 0, time.FixedZone("LINT", 14*60*60)) }

	c.collect()
	assert.Equal(t, []string{"ingest 40", "build 2024-01-20 2024-02-29"}, r.snapshot())
}
