package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/reelscout/tmdb"
)

// fakeClock schedules timers on a virtual timeline advanced by the test.
// Due timers run synchronously inside Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) schedule(d time.Duration, f func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type searchCall struct {
	query string
	at    time.Duration
}

type fakeSearcher struct {
	clock *fakeClock

	mu     sync.Mutex
	calls  []searchCall
	movies []tmdb.Movie
	err    error
}

func (s *fakeSearcher) Search(ctx context.Context, query string) ([]tmdb.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, searchCall{query: query, at: s.clock.Now()})
	if s.err != nil {
		return nil, s.err
	}
	return s.movies, nil
}

func (s *fakeSearcher) searches() []searchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]searchCall(nil), s.calls...)
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []string
	ids   []int64
	err   error
}

func (r *fakeRecorder) RecordSearch(ctx context.Context, query string, movie tmdb.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, query)
	r.ids = append(r.ids, movie.ID)
	return r.err
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeClock, *fakeSearcher) {
	t.Helper()

	clock := &fakeClock{}
	searcher := &fakeSearcher{
		clock:  clock,
		movies: []tmdb.Movie{{ID: 438631, Title: "Dune"}, {ID: 693134, Title: "Dune: Part Two"}},
	}
	opts = append([]Option{withScheduler(clock.schedule), WithLogger(zerolog.Nop())}, opts...)
	c := New(searcher, opts...)
	t.Cleanup(c.Close)

	return c, clock, searcher
}

func TestTypingDebouncesToLastQuery(t *testing.T) {
	c, clock, searcher := newTestController(t)

	c.SetQuery("a")
	clock.Advance(100 * time.Millisecond)
	c.SetQuery("ab")
	clock.Advance(100 * time.Millisecond)
	c.SetQuery("abc")

	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, searcher.searches())
	assert.Equal(t, Pending, c.Snapshot().Phase)

	clock.Advance(1 * time.Millisecond)

	calls := searcher.searches()
	require.Len(t, calls, 1)
	assert.Equal(t, "abc", calls[0].query)
	assert.Equal(t, 700*time.Millisecond, calls[0].at)

	snap := c.Snapshot()
	assert.Equal(t, Loaded, snap.Phase)
	assert.Equal(t, "abc", snap.Query)
	assert.Len(t, snap.Movies, 2)
	assert.Nil(t, snap.Err)
}

func TestManyChangesProduceAtMostOneSearch(t *testing.T) {
	c, clock, searcher := newTestController(t)

	queries := []string{"d", "du", "dun", "dune", "dune ", "dune 2"}
	for _, q := range queries {
		c.SetQuery(q)
		clock.Advance(50 * time.Millisecond)
	}
	assert.Equal(t, 1, clock.active())

	clock.Advance(time.Second)

	calls := searcher.searches()
	require.Len(t, calls, 1)
	assert.Equal(t, "dune 2", calls[0].query)
}

func TestEmptyQueriesResetWithoutSearching(t *testing.T) {
	for _, q := range []string{"", " ", "   ", "\t\n"} {
		t.Run("query "+q, func(t *testing.T) {
			c, clock, searcher := newTestController(t)

			c.SetQuery("dune")
			clock.Advance(DefaultDebounce)
			require.Equal(t, Loaded, c.Snapshot().Phase)

			c.SetQuery("heat")
			c.SetQuery(q)
			assert.Equal(t, 0, clock.active())

			clock.Advance(time.Second)

			assert.Len(t, searcher.searches(), 1)
			snap := c.Snapshot()
			assert.Equal(t, Idle, snap.Phase)
			assert.Nil(t, snap.Movies)
			assert.Nil(t, snap.Err)
		})
	}
}

func TestCustomDebounce(t *testing.T) {
	c, clock, searcher := newTestController(t, WithDebounce(200*time.Millisecond))

	c.SetQuery("heat")
	clock.Advance(199 * time.Millisecond)
	assert.Empty(t, searcher.searches())
	clock.Advance(time.Millisecond)
	assert.Len(t, searcher.searches(), 1)
}

func TestSearchFailure(t *testing.T) {
	c, clock, searcher := newTestController(t)
	searcher.err = errors.New("boom")

	c.SetQuery("dune")
	clock.Advance(DefaultDebounce)

	snap := c.Snapshot()
	assert.Equal(t, Failed, snap.Phase)
	require.NotNil(t, snap.Err)
	assert.Equal(t, "boom", snap.Err.Message)
	assert.Nil(t, snap.Movies)
}

func TestSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status_code":11,"status_message":"Internal error"}`))
	}))
	defer server.Close()

	client, err := tmdb.NewClient(server.URL, "token", zerolog.Nop())
	require.NoError(t, err)

	clock := &fakeClock{}
	c := New(client, withScheduler(clock.schedule))
	defer c.Close()

	c.SetQuery("dune")
	clock.Advance(DefaultDebounce)

	snap := c.Snapshot()
	assert.Equal(t, Failed, snap.Phase)
	require.NotNil(t, snap.Err)
	assert.Nil(t, snap.Movies)

	var httpErr *tmdb.HTTPError
	require.ErrorAs(t, snap.Err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestQueryChangeCancelsInFlightSearch(t *testing.T) {
	clock := &fakeClock{}
	started := make(chan struct{})
	cancelled := make(chan struct{})

	searcher := searcherFunc(func(ctx context.Context, query string) ([]tmdb.Movie, error) {
		if query == "slow" {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return []tmdb.Movie{{ID: 1, Title: query}}, nil
	})

	c := New(searcher, withScheduler(clock.schedule))
	defer c.Close()

	c.SetQuery("slow")
	done := make(chan struct{})
	go func() {
		clock.Advance(DefaultDebounce)
		close(done)
	}()

	<-started
	assert.Equal(t, Loading, c.Snapshot().Phase)

	c.SetQuery("fast")

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight search was not cancelled")
	}
	<-done

	snap := c.Snapshot()
	assert.Equal(t, Pending, snap.Phase)
	assert.Nil(t, snap.Err)

	clock.Advance(DefaultDebounce)
	snap = c.Snapshot()
	assert.Equal(t, Loaded, snap.Phase)
	require.Len(t, snap.Movies, 1)
	assert.Equal(t, "fast", snap.Movies[0].Title)
}

func TestClearingQueryWhileLoadingStartsNoSearch(t *testing.T) {
	c, clock, searcher := newTestController(t)

	var once sync.Once
	c.Subscribe(func(s Snapshot) {
		if s.Phase != Loading {
			return
		}
		once.Do(func() {
			go c.SetQuery("")

			// SetQuery sets the phase before it notifies, so poll instead of
			// waiting for a notification this listener is blocking
			deadline := time.Now().Add(time.Second)
			for c.Snapshot().Phase != Idle && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
		})
	})

	c.SetQuery("dune")
	clock.Advance(DefaultDebounce)

	assert.Empty(t, searcher.searches())

	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.Phase)
	assert.Nil(t, snap.Movies)
	assert.Nil(t, snap.Err)
}

func TestCloseStopsTimer(t *testing.T) {
	c, clock, searcher := newTestController(t)

	c.SetQuery("dune")
	assert.Equal(t, 1, clock.active())

	c.Close()
	assert.Equal(t, 0, clock.active())

	clock.Advance(time.Second)
	assert.Empty(t, searcher.searches())

	// No-ops after close
	c.SetQuery("heat")
	clock.Advance(time.Second)
	assert.Empty(t, searcher.searches())
	c.Close()
}

func TestRecorderReceivesTopResult(t *testing.T) {
	recorder := &fakeRecorder{}
	c, clock, _ := newTestController(t, WithRecorder(recorder))

	c.SetQuery("dune")
	clock.Advance(DefaultDebounce)
	c.Close()

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, []string{"dune"}, recorder.calls)
	assert.Equal(t, []int64{438631}, recorder.ids)
}

func TestRecorderSkipsEmptyAndFailedSearches(t *testing.T) {
	recorder := &fakeRecorder{}
	c, clock, searcher := newTestController(t, WithRecorder(recorder))

	searcher.movies = nil
	c.SetQuery("nothing")
	clock.Advance(DefaultDebounce)

	searcher.err = errors.New("boom")
	c.SetQuery("broken")
	clock.Advance(DefaultDebounce)
	c.Close()

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Empty(t, recorder.calls)
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("store down")}
	c, clock, _ := newTestController(t, WithRecorder(recorder))

	c.SetQuery("dune")
	clock.Advance(DefaultDebounce)
	c.Close()

	assert.Equal(t, Loaded, c.Snapshot().Phase)
}

func TestSubscribeReceivesPhases(t *testing.T) {
	c, clock, _ := newTestController(t)

	var (
		mu     sync.Mutex
		phases []Phase
	)
	c.Subscribe(func(s Snapshot) {
		mu.Lock()
		phases = append(phases, s.Phase)
		mu.Unlock()
	})

	c.SetQuery("dune")
	clock.Advance(DefaultDebounce)
	c.SetQuery("")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{Pending, Loading, Loaded, Idle}, phases)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

type searcherFunc func(ctx context.Context, query string) ([]tmdb.Movie, error)

func (f searcherFunc) Search(ctx context.Context, query string) ([]tmdb.Movie, error) {
	return f(ctx, query)
}
