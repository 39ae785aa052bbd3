package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/terra-clan/rating-ladder/internal/browser"
	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/progress"
	"github.com/terra-clan/rating-ladder/internal/rating"
	"github.com/terra-clan/rating-ladder/internal/storage"
	"github.com/terra-clan/rating-ladder/pkg/client"
)

type fakeFetcher struct {
	profiles map[string]*models.UserProfile
	err      error
	block    chan struct{}
}

func (f *fakeFetcher) UserProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	if f.block != nil && username == "slow" {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[username]
	if !ok {
		return nil, client.ErrUserNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	buckets []rating.Bucket
}

func (c *fakeCatalog) ListProblems(ctx context.Context, bucket rating.Bucket, opts client.ListOptions) (*client.ProblemList, error) {
	c.mu.Lock()
	c.buckets = append(c.buckets, bucket)
	c.mu.Unlock()
	return &client.ProblemList{Problems: []models.Problem{{ID: 1, Name: "A"}}, Count: 1}, nil
}

func (c *fakeCatalog) Search(ctx context.Context, q string, sort models.SortSpec) (*client.SearchResult, error) {
	return &client.SearchResult{}, nil
}

func (c *fakeCatalog) requested() []rating.Bucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]rating.Bucket(nil), c.buckets...)
}

type recorder struct {
	mu     sync.Mutex
	events []browser.Event
}

func (r *recorder) Publish(e browser.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []browser.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]browser.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) last(t browser.EventType) (browser.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return browser.Event{}, false
}

func ratedProfile(name string, r float64) *models.UserProfile {
	rounded := int(r + 0.5)
	return &models.UserProfile{Username: name, ContestRating: &rounded, ExactRating: r}
}

func newTestLookup(t *testing.T, fetcher Fetcher) (*Lookup, *browser.Browser, *fakeCatalog, *recorder) {
	t.Helper()

	rec := &recorder{}
	catalog := &fakeCatalog{}
	b := browser.New(context.Background(), browser.Config{
		Catalog:  catalog,
		Progress: progress.NewStore(storage.NewMemoryStorage()),
		View:     rec,
	})
	l := NewLookup(fetcher, b, rec)

	t.Cleanup(func() {
		l.Close()
		b.Close()
	})
	return l, b, catalog, rec
}

func TestFetchFillsTier(t *testing.T) {
	l := NewLookup(&fakeFetcher{profiles: map[string]*models.UserProfile{
		"alice": ratedProfile("alice", 1950),
		"bob":   {Username: "bob"},
	}}, nil, nil)

	p, err := l.Fetch(context.Background(), " alice ")
	if err != nil {
		t.Fatal(err)
	}
	if p.RatingLabel != "Candidate Master" || p.RatingColor != "#aa00aa" {
		t.Errorf("unexpected tier %s %s", p.RatingLabel, p.RatingColor)
	}

	p, err = l.Fetch(context.Background(), "bob")
	if err != nil {
		t.Fatal(err)
	}
	if p.RatingLabel != "Unrated" {
		t.Errorf("label = %s", p.RatingLabel)
	}

	if _, err := l.Fetch(context.Background(), "  "); !errors.Is(err, ErrEmptyUsername) {
		t.Errorf("err = %v", err)
	}
}

func TestLookupRecommendsBucket(t *testing.T) {
	l, b, catalog, rec := newTestLookup(t, &fakeFetcher{profiles: map[string]*models.UserProfile{
		"alice": ratedProfile("alice", 1450),
	}})

	l.Lookup(context.Background(), "alice")
	l.Wait()
	b.Wait()

	ev, ok := rec.last(browser.EventProfile)
	if !ok || ev.Recommended != "1600_to_1699" {
		t.Fatalf("unexpected profile event %+v", ev)
	}
	if ev.Header != "Problems With Rating 1600-1699" {
		t.Errorf("header = %q", ev.Header)
	}

	if got := catalog.requested(); len(got) != 1 || got[0].String() != "1600_to_1699" {
		t.Errorf("requested buckets = %v", got)
	}
	if b.Session().Bucket.String() != "1600_to_1699" {
		t.Errorf("browser bucket = %s", b.Session().Bucket)
	}

	scroll, ok := rec.last(browser.EventScroll)
	if !ok || scroll.Recommended != "1600_to_1699" {
		t.Errorf("no scroll event after load: %v", rec.types())
	}

	types := rec.types()
	if types[0] != browser.EventProfileLoading || types[len(types)-1] != browser.EventScroll {
		t.Errorf("unexpected event order %v", types)
	}
}

func TestLookupUnratedShowsProfileOnly(t *testing.T) {
	l, b, catalog, rec := newTestLookup(t, &fakeFetcher{profiles: map[string]*models.UserProfile{
		"bob": {Username: "bob"},
	}})

	l.Lookup(context.Background(), "bob")
	l.Wait()
	b.Wait()

	ev, ok := rec.last(browser.EventProfile)
	if !ok || ev.Recommended != "" {
		t.Fatalf("unexpected profile event %+v", ev)
	}
	if len(catalog.requested()) != 0 {
		t.Error("unrated profile should not load a bucket")
	}
	if _, ok := rec.last(browser.EventScroll); ok {
		t.Error("unexpected scroll")
	}
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", client.ErrUserNotFound, "User not found"},
		{"payload", client.ErrPayload, "malformed payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, catalog, rec := newTestLookup(t, &fakeFetcher{err: tt.err})

			l.Lookup(context.Background(), "x")
			l.Wait()

			ev, ok := rec.last(browser.EventProfileError)
			if !ok || ev.Error != tt.want {
				t.Errorf("error event = %+v", ev)
			}
			if len(catalog.requested()) != 0 {
				t.Error("failed lookup loaded a bucket")
			}
		})
	}
}

func TestStaleLookupIsDropped(t *testing.T) {
	fetcher := &fakeFetcher{
		block: make(chan struct{}),
		profiles: map[string]*models.UserProfile{
			"slow": ratedProfile("slow", 2500),
			"fast": ratedProfile("fast", 1450),
		},
	}
	l, b, catalog, rec := newTestLookup(t, fetcher)

	l.Lookup(context.Background(), "slow")
	l.Lookup(context.Background(), "fast")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := rec.last(browser.EventScroll); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(fetcher.block)
	l.Wait()
	b.Wait()

	ev, _ := rec.last(browser.EventProfile)
	if ev.Profile == nil || ev.Profile.Username != "fast" {
		t.Errorf("latest profile = %+v", ev.Profile)
	}
	for _, bucket := range catalog.requested() {
		if bucket.Lower != 1600 {
			t.Errorf("stale lookup loaded %s", bucket)
		}
	}
}
