package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/reelscout/asyncstate"
	"github.com/s0up4200/reelscout/tmdb"
)

const recordTimeout = 10 * time.Second

type queryKey struct{}

// Controller turns query changes into debounced catalog searches. At most
// one debounce timer exists at a time; a query change cancels the pending
// timer and any in-flight request for the previous query.
type Controller struct {
	searcher Searcher
	recorder Recorder
	debounce time.Duration
	schedule scheduler
	logger   zerolog.Logger

	state *asyncstate.AsyncState[[]tmdb.Movie]

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	query     string
	phase     Phase
	timer     stopper
	seq       uint64
	runCancel context.CancelFunc
	closed    bool

	listenersMu sync.Mutex
	listeners   []func(Snapshot)
	notifyMu    sync.Mutex

	records sync.WaitGroup
}

// New creates a Controller that searches through searcher
func New(searcher Searcher, opts ...Option) *Controller {
	c := &Controller{
		searcher: searcher,
		debounce: DefaultDebounce,
		schedule: afterFunc,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.state = asyncstate.New(c.produce, asyncstate.WithLogger(c.logger))

	return c
}

func (c *Controller) produce(ctx context.Context) ([]tmdb.Movie, error) {
	query, _ := ctx.Value(queryKey{}).(string)
	return c.searcher.Search(ctx, query)
}

// SetQuery handles a query change. Empty or whitespace-only queries reset
// the results immediately; anything else (re)starts the debounce timer.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.stopTimerLocked()
	c.cancelRunLocked()
	c.seq++
	c.query = q

	if strings.TrimSpace(q) == "" {
		c.phase = Idle
		c.state.Reset()
		c.mu.Unlock()

		c.logger.Debug().Msg("Query cleared")
		c.notify()
		return
	}

	seq := c.seq
	c.phase = Pending
	c.state.Cancel()
	c.timer = c.schedule(c.debounce, func() { c.fire(seq) })
	c.mu.Unlock()

	c.logger.Trace().Str("query", q).Dur("debounce", c.debounce).Msg("Search scheduled")
	c.notify()
}

// fire runs the search for the query set by change seq. A fire for an
// older change is ignored.
func (c *Controller) fire(seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.phase = Loading
	query := c.query
	// Cancelled by the next query change even if Run has not started yet
	runCtx, runCancel := context.WithCancel(context.WithValue(c.ctx, queryKey{}, query))
	c.runCancel = runCancel
	c.mu.Unlock()
	defer runCancel()

	c.notify()

	// A listener may have changed the query during notify
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.logger.Debug().Str("query", query).Msg("Searching")

	// Run is a no-op once runCtx is cancelled by a later query change
	c.state.Run(runCtx)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.runCancel = nil
	st := c.state.State()
	if st.Err != nil {
		c.phase = Failed
	} else {
		c.phase = Loaded
	}
	c.mu.Unlock()

	if st.Err != nil {
		c.logger.Warn().Str("query", query).Str("error", st.Err.Message).Msg("Search failed")
	} else {
		c.logger.Debug().Str("query", query).Int("results", len(st.Data)).Msg("Search completed")
		c.record(query, st.Data)
	}
	c.notify()
}

// record hands the top result to the recorder without blocking the search
func (c *Controller) record(query string, movies []tmdb.Movie) {
	if c.recorder == nil || len(movies) == 0 {
		return
	}

	movie := movies[0]
	c.records.Add(1)
	go func() {
		defer c.records.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), recordTimeout)
		defer cancel()

		if err := c.recorder.RecordSearch(ctx, query, movie); err != nil {
			c.logger.Warn().Err(err).Str("query", query).Msg("Failed to record search")
		}
	}()
}

func (c *Controller) cancelRunLocked() {
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Snapshot returns the current query, phase and results
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	query, phase := c.query, c.phase
	c.mu.Unlock()

	st := c.state.State()
	snap := Snapshot{Query: query, Phase: phase}
	if st.HasData {
		snap.Movies = st.Data
	}
	if phase == Failed {
		snap.Err = st.Err
	}
	return snap
}

// Subscribe registers fn to receive a snapshot after every phase change
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.listenersMu.Lock()
	listeners := c.listeners
	c.listenersMu.Unlock()
	if len(listeners) == 0 {
		return
	}

	snap := c.Snapshot()
	for _, fn := range listeners {
		fn(snap)
	}
}

// Close stops the pending timer, abandons any in-flight search and waits
// for outstanding search records. Later calls are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.seq++
	c.stopTimerLocked()
	c.cancelRunLocked()
	c.mu.Unlock()

	c.state.Close()
	c.cancel()
	c.records.Wait()
}
