package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wall/internal/models"
	"wall/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu    sync.Mutex
	calls int
	pages [][]*models.Post
	errAt int // 1-based call index that fails; 0 means never
}

func (f *fakeLister) List(context.Context, int, int) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.errAt != 0 && f.calls >= f.errAt {
		return nil, errors.New("list failed")
	}
	idx := f.calls - 1
	if idx >= len(f.pages) {
		idx = len(f.pages) - 1
	}
	if idx < 0 {
		return nil, nil
	}
	return f.pages[idx], nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSub struct {
	events chan platform.ChangeEvent
	closed bool
}

func (s *fakeSub) Events() <-chan platform.ChangeEvent { return s.events }

func (s *fakeSub) Close() error {
	s.closed = true
	close(s.events)
	return nil
}

type fakeSource struct {
	sub    *fakeSub
	tables []string
	err    error
}

func (f *fakeSource) Subscribe(_ context.Context, table string) (Subscription, error) {
	f.tables = append(f.tables, table)
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

func page(contents ...string) []*models.Post {
	out := make([]*models.Post, len(contents))
	for i, c := range contents {
		out[i] = &models.Post{ID: uint(i + 1), Content: c}
	}
	return out
}

func TestFeedInitialLoad(t *testing.T) {
	lister := &fakeLister{pages: [][]*models.Post{page("first", "second")}}
	f := NewFeed(lister, nil)
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.Start(context.Background()))

	assert.Equal(t, 1, lister.callCount())
	assert.False(t, f.Loading())
	got := f.Posts()
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
}

func TestFeedReloadsOncePerChangeEvent(t *testing.T) {
	lister := &fakeLister{pages: [][]*models.Post{page("a")}}
	sub := &fakeSub{events: make(chan platform.ChangeEvent, 16)}
	source := &fakeSource{sub: sub}
	f := NewFeed(lister, source)
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.Start(context.Background()))
	assert.Equal(t, []string{"posts"}, source.tables)

	for i := 0; i < 5; i++ {
		sub.events <- platform.ChangeEvent{Table: "posts", Type: platform.ChangeInsert, RowID: uint(i)}
	}

	// Initial load plus one reload per event, no coalescing.
	assert.Eventually(t, func() bool { return lister.callCount() == 6 },
		2*time.Second, 10*time.Millisecond)
}

func TestFeedTrigger(t *testing.T) {
	lister := &fakeLister{pages: [][]*models.Post{page("a")}}
	f := NewFeed(lister, nil)
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.Start(context.Background()))
	f.Trigger(PostCreated)
	f.Trigger(SessionEstablished)

	assert.Eventually(t, func() bool { return lister.callCount() == 3 },
		2*time.Second, 10*time.Millisecond)
}

func TestFeedErrorKeepsPreviousList(t *testing.T) {
	lister := &fakeLister{pages: [][]*models.Post{page("keep me")}, errAt: 2}
	f := NewFeed(lister, nil)
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.Start(context.Background()))
	f.Trigger(PostCreated)

	assert.Eventually(t, func() bool { return lister.callCount() == 2 },
		2*time.Second, 10*time.Millisecond)
	got := f.Posts()
	require.Len(t, got, 1)
	assert.Equal(t, "keep me", got[0].Content)
}

func TestFeedStaleFetchDropped(t *testing.T) {
	f := NewFeed(nil, nil)

	gen1 := f.begin()
	gen2 := f.begin()

	assert.False(t, f.complete(gen1, page("stale"), nil))
	assert.True(t, f.complete(gen2, page("fresh"), nil))

	got := f.Posts()
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Content)
}

func TestFeedOnUpdateFiresPerAppliedReload(t *testing.T) {
	lister := &fakeLister{pages: [][]*models.Post{page("a")}}
	f := NewFeed(lister, nil)
	t.Cleanup(func() { _ = f.Close() })

	var mu sync.Mutex
	updates := 0
	f.OnUpdate(func([]*models.Post) {
		mu.Lock()
		updates++
		mu.Unlock()
	})

	require.NoError(t, f.Start(context.Background()))
	f.Trigger(PostCreated)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return updates == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFeedCloseClosesSubscription(t *testing.T) {
	lister := &fakeLister{pages: [][]*models.Post{page("a")}}
	sub := &fakeSub{events: make(chan platform.ChangeEvent, 1)}
	f := NewFeed(lister, &fakeSource{sub: sub})

	require.NoError(t, f.Start(context.Background()))
	require.NoError(t, f.Close())

	assert.True(t, sub.closed)
}

func TestFeedStartFailsWhenSubscribeFails(t *testing.T) {
	lister := &fakeLister{}
	source := &fakeSource{err: errors.New("stream unavailable")}
	f := NewFeed(lister, source)

	err := f.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, lister.callCount())
}
