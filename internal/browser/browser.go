// Package browser drives the problem listing of one client: bucket
// selection, search, sorting and solve toggles. Fetches run in the
// background; only the most recent one may touch the view.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/progress"
	"github.com/terra-clan/rating-ladder/internal/rating"
	"github.com/terra-clan/rating-ladder/internal/render"
	"github.com/terra-clan/rating-ladder/pkg/client"
)

const (
	// DefaultDebounce is the quiet period before a search is sent
	DefaultDebounce = 300 * time.Millisecond

	// MinGlobalQuery is the shortest trimmed query a global search accepts
	MinGlobalQuery = 2

	searchHeader = "Search Results"
)

// ErrNoDistribution is returned by Distribution when no source is configured
var ErrNoDistribution = errors.New("no distribution source configured")

// Catalog is the part of the catalog backend the browser reads
type Catalog interface {
	ListProblems(ctx context.Context, bucket rating.Bucket, opts client.ListOptions) (*client.ProblemList, error)
	Search(ctx context.Context, q string, sort models.SortSpec) (*client.SearchResult, error)
}

// DistributionSource provides the rating distribution
type DistributionSource interface {
	Current(ctx context.Context) (models.Distribution, error)
}

// Config holds browser dependencies
type Config struct {
	Catalog      Catalog
	Progress     *progress.Store
	Distribution DistributionSource
	View         View
	Debounce     time.Duration
	ClientID     string
}

// Session is the query state of the listing
type Session struct {
	Bucket      rating.Bucket   `json:"bucket"`
	Sort        models.SortSpec `json:"sort"`
	Search      string          `json:"search"`
	Query       string          `json:"query,omitempty"` // set while showing global search results
	TagsVisible bool            `json:"tagsVisible"`
}

// Global reports whether the listing shows global search results
func (s Session) Global() bool {
	return s.Query != ""
}

func (s Session) header() string {
	if s.Global() {
		return searchHeader
	}
	return "Problems With Rating " + s.Bucket.Display()
}

// loadResult is what a fetch hands back to the session
type loadResult struct {
	records []models.Problem
	stats   string
	empty   string // placeholder override for an empty result
}

type fetchFunc func(ctx context.Context) (loadResult, error)

// Browser is the listing state machine of one client
type Browser struct {
	catalog  Catalog
	progress *progress.Store
	dist     DistributionSource
	view     View
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	state   State
	session Session
	records []models.Problem
	empty   string
	table   render.Table
	stats   string
	seq     uint64
	cancel  context.CancelFunc

	timer     *time.Timer
	searchGen uint64

	wg sync.WaitGroup
}

// New creates a browser. The tags preference is read from the progress
// store; failing to read it falls back to the defaults.
func New(ctx context.Context, cfg Config) *Browser {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.View == nil {
		cfg.View = ViewFunc(func(Event) {})
	}

	b := &Browser{
		catalog:  cfg.Catalog,
		progress: cfg.Progress,
		dist:     cfg.Distribution,
		view:     cfg.View,
		debounce: cfg.Debounce,
		log:      slog.Default().With("client", cfg.ClientID),
		state:    StateIdle,
		session: Session{
			Sort:        models.DefaultSort(),
			TagsVisible: progress.DefaultPreferences().ShowTags,
		},
	}

	prefs, err := cfg.Progress.Preferences(ctx)
	if err != nil {
		b.log.Warn("failed to read preferences, using defaults", "error", err)
	} else {
		b.session.TagsVisible = prefs.ShowTags
	}

	return b
}

// State returns the current listing state
func (b *Browser) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Session returns a copy of the query state
func (b *Browser) Session() Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Table returns the last rendered table
func (b *Browser) Table() render.Table {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.table
}

// SelectBucket loads a bucket with the default sort and no search text.
// A zero bucket clears the listing.
func (b *Browser) SelectBucket(ctx context.Context, bucket rating.Bucket) *Pending {
	if bucket.IsZero() {
		b.ClearBucket()
		return finished(false)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	b.session.Bucket = bucket
	b.session.Sort = models.DefaultSort()
	b.session.Search = ""
	b.session.Query = ""

	return b.startLocked(ctx, "Error loading problems", b.listFetchLocked())
}

// ClearBucket drops the selection and any in-flight fetch
func (b *Browser) ClearBucket() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	b.supersedeLocked()

	b.session.Bucket = rating.Bucket{}
	b.session.Search = ""
	b.session.Query = ""
	b.records = nil
	b.table = render.Table{}
	b.stats = ""
	b.state = StateIdle

	sess := b.session
	b.view.Publish(Event{Type: EventCleared, State: StateIdle, Session: &sess})
}

// SetSearch records the filter text and reloads the bucket once typing has
// paused for the debounce period. Without a selected bucket the text is
// only remembered.
func (b *Browser) SetSearch(ctx context.Context, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session.Search = text
	b.stopTimerLocked()
	if b.session.Bucket.IsZero() {
		return
	}

	b.searchGen++
	gen := b.searchGen

	b.wg.Add(1)
	b.timer = time.AfterFunc(b.debounce, func() {
		defer b.wg.Done()

		b.mu.Lock()
		defer b.mu.Unlock()

		// a newer keystroke or an explicit load took over
		if gen != b.searchGen || b.session.Bucket.IsZero() {
			return
		}
		b.timer = nil
		b.session.Query = ""
		b.startLocked(ctx, "Error loading problems", b.listFetchLocked())
	})
}

// SortBy applies a header activation and reloads the bucket. It is ignored
// while no bucket is selected or global results are shown.
func (b *Browser) SortBy(ctx context.Context, field models.SortField) *Pending {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session.Bucket.IsZero() || b.session.Global() {
		return finished(false)
	}

	b.stopTimerLocked()
	b.session.Sort = b.session.Sort.Toggle(field)

	return b.startLocked(ctx, "Error loading problems", b.listFetchLocked())
}

// GlobalSearch searches the whole catalog. Queries shorter than
// MinGlobalQuery after trimming are ignored.
func (b *Browser) GlobalSearch(ctx context.Context, query string) *Pending {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinGlobalQuery {
		return finished(false)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	b.session.Query = query
	b.session.Sort = models.DefaultSort()
	sort := b.session.Sort

	return b.startLocked(ctx, "Error", func(ctx context.Context) (loadResult, error) {
		res, err := b.catalog.Search(ctx, query, sort)
		if err != nil {
			return loadResult{}, err
		}
		return loadResult{records: res.Problems, stats: res.Message, empty: res.Message}, nil
	})
}

// ToggleSolved flips a problem's solved mark and patches its row
func (b *Browser) ToggleSolved(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	solved, err := b.progress.Toggle(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle problem %s: %w", id, err)
	}

	if patch, ok := b.table.Toggle(id, solved); ok {
		b.view.Publish(Event{Type: EventRowPatch, Patch: &patch})
	}

	b.log.Debug("problem toggled", "id", id, "solved", solved)
	return solved, nil
}

// ToggleTags flips tag visibility, persists it and re-renders the current
// records without fetching.
func (b *Browser) ToggleTags(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	visible := !b.session.TagsVisible
	if err := b.progress.SetShowTags(ctx, visible); err != nil {
		return b.session.TagsVisible, fmt.Errorf("failed to save tags preference: %w", err)
	}
	b.session.TagsVisible = visible

	sess := b.session
	if b.state == StateLoaded {
		b.renderLocked(b.solvedSet(ctx))
		b.publishTableLocked()
	} else {
		b.view.Publish(Event{Type: EventTags, Session: &sess})
	}

	return visible, nil
}

// ResetProgress clears every solved mark and refreshes the shown table
func (b *Browser) ResetProgress(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.progress.ResetAll(ctx); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}

	if b.state == StateLoaded {
		b.table.Recount(render.SolvedSet{})
		b.publishTableLocked()
	}
	b.view.Publish(Event{Type: EventProgressReset})

	b.log.Info("progress reset")
	return nil
}

// Distribution publishes the rating distribution
func (b *Browser) Distribution(ctx context.Context) error {
	if b.dist == nil {
		return ErrNoDistribution
	}

	dist, err := b.dist.Current(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.view.Publish(Event{Type: EventDistribution, Error: "Error loading distribution: " + err.Error()})
		return err
	}
	b.view.Publish(Event{Type: EventDistribution, Distribution: &dist})
	return nil
}

// Wait blocks until pending debounced searches and fetches have settled
func (b *Browser) Wait() {
	b.wg.Wait()
}

// Close cancels pending work and waits for it
func (b *Browser) Close() {
	b.mu.Lock()
	b.stopTimerLocked()
	b.supersedeLocked()
	b.mu.Unlock()

	b.wg.Wait()
}

// listFetchLocked captures the current query for a bucket listing
func (b *Browser) listFetchLocked() fetchFunc {
	bucket := b.session.Bucket
	opts := client.ListOptions{Search: b.session.Search, Sort: b.session.Sort}

	return func(ctx context.Context) (loadResult, error) {
		list, err := b.catalog.ListProblems(ctx, bucket, opts)
		if err != nil {
			return loadResult{}, err
		}
		return loadResult{
			records: list.Problems,
			stats:   fmt.Sprintf("%d problems found", list.Count),
		}, nil
	}
}

// startLocked issues a fetch under a fresh token. The previous fetch is
// cancelled, and its response is dropped should it still arrive.
func (b *Browser) startLocked(parent context.Context, errPrefix string, fetch fetchFunc) *Pending {
	b.supersedeLocked()
	token := b.seq

	ctx, cancel := context.WithCancel(parent)
	b.cancel = cancel
	b.state = StateLoading

	sess := b.session
	b.view.Publish(Event{Type: EventLoading, State: StateLoading, Header: sess.header(), Session: &sess})

	p := newPending()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()

		res, err := fetch(ctx)

		var solved render.SolvedSet
		if err == nil {
			solved = b.solvedSet(ctx)
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		if token != b.seq {
			b.log.Debug("dropping stale response", "token", token, "latest", b.seq)
			p.finish(false)
			return
		}
		b.cancel = nil

		if err != nil {
			b.failLocked(errPrefix, err)
			p.finish(false)
			return
		}

		b.records = res.records
		b.empty = res.empty
		b.stats = res.stats
		b.state = StateLoaded
		b.renderLocked(solved)
		b.publishTableLocked()
		p.finish(true)
	}()

	return p
}

// supersedeLocked invalidates the in-flight fetch
func (b *Browser) supersedeLocked() {
	b.seq++
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Browser) stopTimerLocked() {
	b.searchGen++
	if b.timer != nil && b.timer.Stop() {
		b.wg.Done()
	}
	b.timer = nil
}

func (b *Browser) failLocked(prefix string, err error) {
	b.log.Warn("failed to load problems", "error", err)

	b.state = StateError
	b.records = nil
	b.table = render.Table{}
	b.stats = ""

	msg := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}

	sess := b.session
	b.view.Publish(Event{
		Type:    EventError,
		State:   StateError,
		Header:  sess.header(),
		Session: &sess,
		Error:   prefix + ": " + msg,
	})
}

func (b *Browser) renderLocked(solved render.SolvedLookup) {
	b.table = render.Render(b.records, solved, render.Options{
		TagsVisible:  b.session.TagsVisible,
		Sort:         b.session.Sort,
		GlobalSearch: b.session.Global(),
	})
	if b.table.IsEmpty() && b.empty != "" {
		b.table.Placeholder = b.empty
	}
}

func (b *Browser) publishTableLocked() {
	sess := b.session
	table := b.table
	b.view.Publish(Event{
		Type:    EventTable,
		State:   b.state,
		Header:  sess.header(),
		Stats:   b.stats,
		Session: &sess,
		Table:   &table,
	})
}

func (b *Browser) solvedSet(ctx context.Context) render.SolvedSet {
	snap, err := b.progress.Snapshot(ctx)
	if err != nil {
		b.log.Warn("failed to read progress", "error", err)
		return render.SolvedSet{}
	}
	return render.SolvedSet(snap)
}
