package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	mu       sync.Mutex
	titles   []string
	searches []string
	fail     error
}

func (f *fakeCatalog) list(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.titles...), nil
}

func (f *fakeCatalog) search(_ context.Context, q string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, q)
	if f.fail != nil {
		return nil, f.fail
	}
	var out []string
	for _, t := range f.titles {
		if strings.Contains(strings.ToLower(t), strings.ToLower(q)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func newCatalog(n int) *fakeCatalog {
	f := &fakeCatalog{}
	for i := 1; i <= n; i++ {
		f.titles = append(f.titles, fmt.Sprintf("Book %02d", i))
	}
	return f
}

func newBookStream(cat *fakeCatalog, clock Clock, opts ...StreamOption[string]) *Stream[string] {
	opts = append([]StreamOption[string]{
		WithDefaultList[string](cat.list),
		WithClock[string](clock),
		WithLogger[string](zap.NewNop()),
	}, opts...)
	return NewStream(StreamConfig{Name: "books", PageSize: 8, Window: 500 * time.Millisecond}, cat.search, opts...)
}

func TestStream_MountPaginatesDefaultList(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Unix(0, 0))
	s := newBookStream(newCatalog(17), clock)

	require.NoError(t, s.Mount(ctx))
	v := s.View()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, 3, v.Page.Count)
	assert.Len(t, v.Page.Items, 8)

	s.GoToPage(3)
	v = s.View()
	assert.Equal(t, []string{"Book 17"}, v.Page.Items)

	s.GoToPage(4)
	assert.Equal(t, 3, s.View().Page.Number)
}

func TestStream_DebouncesTyping(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Unix(0, 0))
	cat := newCatalog(17)
	s := newBookStream(cat, clock)
	require.NoError(t, s.Mount(ctx))

	s.Update(ctx, "B")
	clock.Advance(200 * time.Millisecond)
	s.Update(ctx, "Bo")
	clock.Advance(200 * time.Millisecond)
	s.Update(ctx, "Book 1")
	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, cat.searches)

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"Book 1"}, cat.searches)
	v := s.View()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, 8, v.Page.Total)
	assert.Equal(t, 1, v.Page.Number)
}

func TestStream_EmptyQueryResetsSynchronously(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Unix(0, 0))
	cat := newCatalog(17)
	s := newBookStream(cat, clock)
	require.NoError(t, s.Mount(ctx))

	require.NoError(t, s.Submit(ctx, "Book 0"))
	s.NextPage()
	s.Update(ctx, "Book 1")
	assert.True(t, s.Pending())

	s.Update(ctx, "   ")

	assert.False(t, s.Pending())
	v := s.View()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, 17, v.Page.Total)
	assert.Equal(t, 1, v.Page.Number)

	clock.Advance(time.Second)
	assert.Equal(t, []string{"Book 0"}, cat.searches, "cancelled query must not be sent")
}

func TestStream_EmptyQueryWithoutDefaultListClears(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog(3)
	s := NewStream(StreamConfig{Name: "search", PageSize: 8}, cat.search)

	require.NoError(t, s.Submit(ctx, "book"))
	assert.Equal(t, StateReady, s.View().State)

	s.Update(ctx, "")
	assert.Equal(t, StateNeverSearched, s.View().State)
}

func TestStream_LatestResponseWins(t *testing.T) {
	ctx := context.Background()

	release := map[string]chan struct{}{"A": make(chan struct{}), "B": make(chan struct{})}
	started := make(chan string, 2)
	search := func(_ context.Context, q string) ([]string, error) {
		started <- q
		<-release[q]
		return []string{"result " + q}, nil
	}
	s := NewStream(StreamConfig{Name: "books", PageSize: 8}, search)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = s.Submit(ctx, "A") }()
	require.Equal(t, "A", <-started)
	go func() { defer wg.Done(); _ = s.Submit(ctx, "B") }()
	require.Equal(t, "B", <-started)

	close(release["B"])
	close(release["A"])
	wg.Wait()

	assert.Equal(t, []string{"result B"}, s.Items())
	assert.Equal(t, StateReady, s.View().State)
}

func TestStream_FailureKeepsItemsAndNotifies(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog(5)
	log := &noticeLog{}
	s := newBookStream(cat, NewManualClock(time.Unix(0, 0)), WithNotifier[string](log))
	require.NoError(t, s.Mount(ctx))

	cat.fail = errors.New("server down")
	require.Error(t, s.Submit(ctx, "Book"))

	v := s.View()
	assert.Equal(t, StateReady, v.State)
	assert.Len(t, v.Page.Items, 5)
	assert.Error(t, v.Err)
	assert.Equal(t, []NoticeKind{NoticeError}, log.kinds())
}

func TestStream_RefreshKeepsPage(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog(17)
	s := newBookStream(cat, NewManualClock(time.Unix(0, 0)))
	require.NoError(t, s.Mount(ctx))

	s.GoToPage(2)
	cat.titles = append(cat.titles, "Book 18")
	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 2, s.View().Page.Number)
	assert.Equal(t, 18, s.View().Page.Total)
}

func TestStream_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := newBookStream(newCatalog(2), NewManualClock(time.Unix(0, 0)))

	var states []ViewState
	s.Subscribe(func(v View[string]) { states = append(states, v.State) })
	require.NoError(t, s.Mount(ctx))

	assert.Equal(t, []ViewState{StateLoading, StateReady}, states)
}

func TestStream_MountForgetsSearch(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog(17)
	s := newBookStream(cat, NewManualClock(time.Unix(0, 0)))
	require.NoError(t, s.Mount(ctx))

	require.NoError(t, s.Submit(ctx, "Book 1"))
	require.NoError(t, s.Mount(ctx))

	v := s.View()
	assert.Empty(t, v.Query)
	assert.Equal(t, 17, v.Page.Total)

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 17, s.View().Page.Total)
	assert.Equal(t, []string{"Book 1"}, cat.searches, "refresh loads the full list")
}

func TestStream_MountCancelsPendingSearch(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Unix(0, 0))
	cat := newCatalog(17)
	s := newBookStream(cat, clock)
	require.NoError(t, s.Mount(ctx))

	s.Update(ctx, "Book 1")
	require.NoError(t, s.Mount(ctx))
	assert.False(t, s.Pending())

	clock.Advance(time.Second)
	assert.Empty(t, cat.searches)
	v := s.View()
	assert.Empty(t, v.Query)
	assert.Equal(t, 17, v.Page.Total)
}

func TestStream_ClearAfterRefreshShowsFreshList(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog(5)
	s := newBookStream(cat, NewManualClock(time.Unix(0, 0)))
	require.NoError(t, s.Mount(ctx))

	require.NoError(t, s.Submit(ctx, "Book"))
	cat.mu.Lock()
	cat.titles = append(cat.titles, "New Title")
	cat.mu.Unlock()
	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 5, s.View().Page.Total, "New Title does not match the search")

	s.Update(ctx, "")
	v := s.View()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, 6, v.Page.Total)
	assert.Contains(t, s.Items(), "New Title")
}
