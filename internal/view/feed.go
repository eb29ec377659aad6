// Package view holds the in-memory state and operations backing the wall's
// UI components, as distinguished from their rendering.
package view

import (
	"context"
	"sync"

	"wall/internal/models"
	"wall/internal/observability"
	"wall/internal/platform"
	"wall/internal/posts"
)

// RefreshEvent is a tagged trigger delivered to the feed over an explicit
// channel. The tags keep "a post was created" distinct from "a session was
// established" instead of conflating both into one counter.
type RefreshEvent int

// Refresh triggers.
const (
	PostCreated RefreshEvent = iota
	SessionEstablished
)

func (e RefreshEvent) String() string {
	switch e {
	case PostCreated:
		return "post_created"
	case SessionEstablished:
		return "session_established"
	}
	return "unknown"
}

// PostLister fetches one feed page.
type PostLister interface {
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
}

// Subscription is a live change-notification subscription.
type Subscription interface {
	Events() <-chan platform.ChangeEvent
	Close() error
}

// ChangeSource opens change-notification subscriptions by table name.
type ChangeSource interface {
	Subscribe(ctx context.Context, table string) (Subscription, error)
}

type platformChanges struct {
	changes *platform.Changes
}

func (p platformChanges) Subscribe(ctx context.Context, table string) (Subscription, error) {
	return p.changes.Subscribe(ctx, table)
}

// PlatformChanges adapts the platform change-stream client to ChangeSource.
func PlatformChanges(c *platform.Changes) ChangeSource {
	return platformChanges{changes: c}
}

// Feed holds the ordered first page of posts and reloads it on demand. Every
// trigger, whether a tagged refresh event or any change event on the posts
// table, causes exactly one full reload; there is no coalescing and no delta
// application. Fetch errors keep the previous list in place.
type Feed struct {
	lister   PostLister
	source   ChangeSource
	onUpdate func([]*models.Post)

	mu      sync.Mutex
	posts   []*models.Post
	loading bool
	seq     uint64 // generation of the most recently issued fetch

	refresh chan RefreshEvent
	sub     Subscription
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFeed creates a feed view-model. source may be nil when the change stream
// is unavailable; the feed then reloads only on explicit triggers.
func NewFeed(lister PostLister, source ChangeSource) *Feed {
	return &Feed{
		lister:  lister,
		source:  source,
		loading: true,
		refresh: make(chan RefreshEvent, 64),
		done:    make(chan struct{}),
	}
}

// OnUpdate registers a callback invoked with the new list after each applied
// reload. Must be set before Start.
func (f *Feed) OnUpdate(fn func([]*models.Post)) {
	f.onUpdate = fn
}

// Start opens the change subscription, performs the initial load, and runs
// the trigger loop until Close.
func (f *Feed) Start(ctx context.Context) error {
	ctx, f.cancel = context.WithCancel(ctx)

	var events <-chan platform.ChangeEvent
	if f.source != nil {
		sub, err := f.source.Subscribe(ctx, "posts")
		if err != nil {
			f.cancel()
			return err
		}
		f.sub = sub
		events = sub.Events()
	}

	f.reload(ctx)

	go func() {
		defer close(f.done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				f.reload(ctx)
			case ev := <-f.refresh:
				observability.Logger.Debug("feed refresh", "reason", ev.String())
				f.reload(ctx)
			}
		}
	}()

	return nil
}

// Close tears the view down: the subscription is closed so no live connection
// outlives the feed instance.
func (f *Feed) Close() error {
	if f.cancel != nil {
		f.cancel()
	}
	var err error
	if f.sub != nil {
		err = f.sub.Close()
	}
	<-f.done
	return err
}

// Trigger requests one reload for the given reason.
func (f *Feed) Trigger(ev RefreshEvent) {
	select {
	case f.refresh <- ev:
	case <-f.done:
	}
}

// reload refetches the entire first page.
func (f *Feed) reload(ctx context.Context) {
	gen := f.begin()
	page, err := f.lister.List(ctx, posts.DefaultLimit, 0)
	if applied := f.complete(gen, page, err); applied && f.onUpdate != nil {
		f.onUpdate(page)
	}
}

func (f *Feed) begin() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.loading = true
	return f.seq
}

// complete applies a fetch result. Responses from superseded generations are
// dropped so the displayed state always reflects the most recently issued
// request, not whichever response arrived last.
func (f *Feed) complete(gen uint64, page []*models.Post, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.seq {
		return false
	}
	f.loading = false
	if err != nil {
		observability.Logger.Error("error loading posts", "error", err)
		return false
	}
	f.posts = page
	return true
}

// Posts returns a snapshot of the current list.
func (f *Feed) Posts() []*models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

// Loading reports whether a fetch is in flight.
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}
