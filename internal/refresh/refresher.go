// Package refresh keeps the rating distribution cached and refreshes it on
// a schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/rating"
)

// ErrNoDistribution is returned when nothing has been fetched yet and the
// catalog cannot be reached
var ErrNoDistribution = errors.New("distribution not available")

// Fetcher returns problem counts per bucket key
type Fetcher interface {
	Distribution(ctx context.Context) (map[string]int, error)
}

// Refresher periodically fetches the distribution and keeps the last good one
type Refresher struct {
	fetcher  Fetcher
	interval time.Duration
	timeout  time.Duration

	mu      sync.RWMutex
	current *models.Distribution

	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

// NewRefresher creates a refresher
func NewRefresher(fetcher Fetcher, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &Refresher{
		fetcher:  fetcher,
		interval: interval,
		timeout:  30 * time.Second,
	}
}

// Start schedules the refresh job and runs it once immediately
func (r *Refresher) Start(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	job, err := s.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			r.Refresh(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("distribution-refresh"),
	)
	if err != nil {
		cancel()
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule distribution refresh: %w", err)
	}

	r.scheduler = s
	r.cancel = cancel

	s.Start()
	slog.Info("distribution refresher started", "interval", r.interval)

	// duration jobs don't fire on start
	if err := job.RunNow(); err != nil {
		slog.Warn("failed to trigger initial distribution refresh", "error", err)
	}

	return nil
}

// Stop shuts the scheduler down
func (r *Refresher) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	r.cancel()
	if err := r.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	slog.Info("distribution refresher stopped")
	return nil
}

// Refresh fetches the distribution once. A failure keeps the previous cache.
func (r *Refresher) Refresh(ctx context.Context) error {
	slog.Debug("refreshing distribution")

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	counts, err := r.fetcher.Distribution(ctx)
	if err != nil {
		slog.Error("failed to refresh distribution", "error", err)
		return err
	}

	dist := Build(counts, time.Now())

	r.mu.Lock()
	r.current = &dist
	r.mu.Unlock()

	slog.Info("distribution refreshed", "buckets", len(dist.Buckets), "total", dist.Total)
	return nil
}

// Cached returns the last good distribution
func (r *Refresher) Cached() (models.Distribution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return models.Distribution{}, false
	}
	return *r.current, true
}

// Current returns the cached distribution, fetching it first when the cache
// is still empty.
func (r *Refresher) Current(ctx context.Context) (models.Distribution, error) {
	if dist, ok := r.Cached(); ok {
		return dist, nil
	}

	if err := r.Refresh(ctx); err != nil {
		return models.Distribution{}, fmt.Errorf("%w: %v", ErrNoDistribution, err)
	}

	dist, _ := r.Cached()
	return dist, nil
}

// Build turns raw counts into an ascending distribution. Keys that are not
// buckets are skipped.
func Build(counts map[string]int, fetchedAt time.Time) models.Distribution {
	type entry struct {
		bucket rating.Bucket
		count  int
	}

	entries := make([]entry, 0, len(counts))
	for key, count := range counts {
		b, err := rating.ParseBucket(key)
		if err != nil {
			slog.Debug("skipping distribution key", "key", key, "error", err)
			continue
		}
		entries = append(entries, entry{bucket: b, count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].bucket.Lower < entries[j].bucket.Lower
	})

	dist := models.Distribution{
		Buckets:   make([]models.BucketCount, 0, len(entries)),
		FetchedAt: fetchedAt,
	}
	for _, e := range entries {
		dist.Buckets = append(dist.Buckets, models.BucketCount{
			Bucket:  e.bucket.String(),
			Display: e.bucket.Display(),
			Count:   e.count,
			Color:   string(rating.ColorFor(e.bucket.Lower)),
			Label:   string(rating.LabelFor(e.bucket.Lower)),
		})
		dist.Total += e.count
	}

	return dist
}
