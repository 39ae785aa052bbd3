// Package profile looks up a third-party user profile and loads the
// problem bucket recommended for the user's contest rating.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/terra-clan/rating-ladder/internal/browser"
	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/rating"
	"github.com/terra-clan/rating-ladder/pkg/client"
)

const (
	unratedColor = "#666"
	unratedLabel = "Unrated"
)

// ErrEmptyUsername is returned for a blank username
var ErrEmptyUsername = errors.New("username is required")

// Fetcher retrieves a parsed profile
type Fetcher interface {
	UserProfile(ctx context.Context, username string) (*models.UserProfile, error)
}

// Selector loads a problem bucket
type Selector interface {
	SelectBucket(ctx context.Context, bucket rating.Bucket) *browser.Pending
}

// Lookup runs profile lookups for one client
type Lookup struct {
	fetcher  Fetcher
	selector Selector
	view     browser.View
	log      *slog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewLookup creates a lookup that recommends through selector
func NewLookup(fetcher Fetcher, selector Selector, view browser.View) *Lookup {
	if view == nil {
		view = browser.ViewFunc(func(browser.Event) {})
	}
	return &Lookup{
		fetcher:  fetcher,
		selector: selector,
		view:     view,
		log:      slog.Default(),
	}
}

// Fetch returns the profile summary with its tier color and label filled in
func (l *Lookup) Fetch(ctx context.Context, username string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}

	p, err := l.fetcher.UserProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	if p.Rated() {
		p.RatingColor = string(rating.ColorFor(*p.ContestRating))
		p.RatingLabel = string(rating.LabelFor(*p.ContestRating))
	} else {
		p.RatingColor = unratedColor
		p.RatingLabel = unratedLabel
	}

	return p, nil
}

// Lookup fetches a profile in the background and publishes it. For a rated
// user the recommended bucket is loaded, and a scroll event follows once
// that bucket is shown. A newer lookup supersedes an older one.
func (l *Lookup) Lookup(ctx context.Context, username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	token := l.seq
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.view.Publish(browser.Event{Type: browser.EventProfileLoading, Header: "Fetching profile for " + username + "..."})

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()

		p, err := l.Fetch(fetchCtx, username)

		rec, ok := l.publish(token, p, err)
		if !ok {
			return
		}

		l.log.Info("recommending bucket", "username", p.Username, "rating", p.ExactRating, "bucket", rec.String())

		if !l.selector.SelectBucket(ctx, rec).Wait() {
			return
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		if token == l.seq {
			l.view.Publish(browser.Event{Type: browser.EventScroll, Recommended: rec.String()})
		}
	}()
}

// publish shows the outcome of a lookup if it is still the latest one and
// returns the bucket to recommend, if any.
func (l *Lookup) publish(token uint64, p *models.UserProfile, err error) (rating.Bucket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if token != l.seq {
		l.log.Debug("dropping stale profile", "token", token, "latest", l.seq)
		return rating.Bucket{}, false
	}
	l.cancel = nil

	if err != nil {
		l.log.Warn("profile lookup failed", "error", err)
		l.view.Publish(browser.Event{Type: browser.EventProfileError, Error: errorText(err)})
		return rating.Bucket{}, false
	}

	ev := browser.Event{Type: browser.EventProfile, Profile: p}
	if !p.Rated() {
		l.view.Publish(ev)
		return rating.Bucket{}, false
	}

	rec := rating.Recommend(p.ExactRating)
	ev.Recommended = rec.String()
	ev.Header = "Problems With Rating " + rec.Display()
	l.view.Publish(ev)

	return rec, true
}

// Wait blocks until background lookups, and the loads they started, settle
func (l *Lookup) Wait() {
	l.wg.Wait()
}

// Close cancels the in-flight lookup and waits for it
func (l *Lookup) Close() {
	l.mu.Lock()
	l.seq++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	l.wg.Wait()
}

func errorText(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUserNotFound):
		return "User not found"
	case errors.As(err, &apiErr) && errors.Is(err, client.ErrNetwork):
		return apiErr.Message
	case errors.Is(err, client.ErrNetwork):
		return "Network error: " + err.Error()
	default:
		return err.Error()
	}
}
