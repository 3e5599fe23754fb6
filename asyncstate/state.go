package asyncstate

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// FallbackMessage is used when a producer fails with something that is not an error
const FallbackMessage = "An error occurred"

// Producer is a zero-argument operation whose result is tracked by an AsyncState
type Producer[T any] func(ctx context.Context) (T, error)

// ErrorInfo is the normalized failure stored in State
type ErrorInfo struct {
	Message string
	err     error
}

// Error implements the error interface
func (e *ErrorInfo) Error() string {
	return e.Message
}

// Unwrap returns the producer error this info was built from, if any
func (e *ErrorInfo) Unwrap() error {
	return e.err
}

// normalizeError converts a producer failure into an ErrorInfo
func normalizeError(err error) *ErrorInfo {
	if err == nil {
		return &ErrorInfo{Message: FallbackMessage}
	}
	msg := err.Error()
	if msg == "" {
		msg = FallbackMessage
	}
	return &ErrorInfo{Message: msg, err: err}
}

// State is a snapshot of an AsyncState
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Err     *ErrorInfo
}

// Option configures an AsyncState
type Option func(*options)

type options struct {
	autoStart bool
	logger    zerolog.Logger
}

// WithAutoStart runs the producer once, asynchronously, right after construction
func WithAutoStart() Option {
	return func(o *options) {
		o.autoStart = true
	}
}

// WithLogger sets the logger used for transition tracing
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// AsyncState tracks the lifecycle of one producer: idle, loading, then
// success or failure. Every Run takes a new generation; a completion is
// applied only if its generation is still the latest one issued, so
// overlapping runs and resets never let a stale result overwrite state.
type AsyncState[T any] struct {
	producer Producer[T]
	logger   zerolog.Logger

	mu         sync.Mutex
	state      State[T]
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	listeners  []func(State[T])
	pending    []State[T]

	// notifyMu is held by the goroutine delivering queued snapshots
	notifyMu sync.Mutex
}

// New creates an AsyncState for producer
func New[T any](producer Producer[T], opts ...Option) *AsyncState[T] {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &AsyncState[T]{
		producer: producer,
		logger:   o.logger,
	}

	if o.autoStart {
		s.state.Loading = true
		go s.Run(context.Background())
	}

	return s
}

// State returns a snapshot of the current state
func (s *AsyncState[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called with a snapshot after every transition.
// fn may call State but must not call Run, Reset, Cancel or Close synchronously.
func (s *AsyncState[T]) Subscribe(fn func(State[T])) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Run invokes the producer and records its outcome. It blocks until the
// producer settles and never reports failure to the caller: errors and
// panics are captured into State. A run superseded by a later Run, Reset,
// Cancel or Close has its context cancelled and its result discarded.
// A run whose context is already done leaves the state untouched.
func (s *AsyncState[T]) Run(ctx context.Context) {
	s.mu.Lock()
	if s.closed || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.Loading = true
	s.state.Err = nil
	s.commitLocked()
	defer cancel()

	s.logger.Trace().Uint64("generation", gen).Msg("Producer started")

	data, err := s.invoke(runCtx)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug().
			Uint64("generation", gen).
			Err(err).
			Msg("Discarding stale producer result")
		return
	}
	s.cancel = nil
	if err != nil {
		s.state.Err = normalizeError(err)
		s.logger.Debug().Uint64("generation", gen).Err(err).Msg("Producer failed")
	} else {
		s.state.Data = data
		s.state.HasData = true
		s.state.Err = nil
	}
	s.state.Loading = false
	s.commitLocked()
}

// Reset clears data, loading and error synchronously. Any in-flight run is
// cancelled and its result will be discarded.
func (s *AsyncState[T]) Reset() {
	s.mu.Lock()
	s.abandonLocked()
	s.state = State[T]{}
	s.commitLocked()
}

// Cancel abandons the in-flight run, if any, keeping data and error.
func (s *AsyncState[T]) Cancel() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.abandonLocked()
	s.state.Loading = false
	s.commitLocked()
}

// Close cancels any in-flight run and turns later runs into no-ops
func (s *AsyncState[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.abandonLocked()
	s.state.Loading = false
	s.commitLocked()
}

// abandonLocked invalidates the current generation. s.mu must be held.
func (s *AsyncState[T]) abandonLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// commitLocked queues a snapshot of the state, releases s.mu and delivers
// queued snapshots to listeners in the order they were taken.
func (s *AsyncState[T]) commitLocked() {
	s.pending = append(s.pending, s.state)
	s.mu.Unlock()
	s.deliver()
}

func (s *AsyncState[T]) deliver() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		batch := s.pending
		s.pending = nil
		listeners := s.listeners
		s.mu.Unlock()

		for _, snap := range batch {
			for _, fn := range listeners {
				fn(snap)
			}
		}
	}
}

// invoke calls the producer, turning a panic into an error
func (s *AsyncState[T]) invoke(ctx context.Context) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = errors.New(FallbackMessage)
		}
	}()
	return s.producer(ctx)
}
