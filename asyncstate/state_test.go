package asyncstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutAutoStartDoesNotInvokeProducer(t *testing.T) {
	var calls atomic.Int32
	s := New(func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	})

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, State[int]{}, s.State())
}

func TestAutoStartRunsExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	s := New(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "popular", nil
	}, WithAutoStart())

	require.Eventually(t, func() bool {
		st := s.State()
		return st.HasData && !st.Loading
	}, time.Second, 5*time.Millisecond)

	st := s.State()
	assert.Equal(t, "popular", st.Data)
	assert.Nil(t, st.Err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAutoStartBeginsInLoadingState(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	s := New(func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	}, WithAutoStart())

	assert.True(t, s.State().Loading)
}

func TestRunSuccess(t *testing.T) {
	s := New(func(ctx context.Context) ([]string, error) {
		return []string{"Dune", "Arrival"}, nil
	})

	s.Run(context.Background())

	st := s.State()
	assert.True(t, st.HasData)
	assert.Equal(t, []string{"Dune", "Arrival"}, st.Data)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
}

func TestRunFailureKeepsPreviousData(t *testing.T) {
	fail := false
	s := New(func(ctx context.Context) (int, error) {
		if fail {
			return 0, errors.New("catalog unavailable")
		}
		return 42, nil
	})

	s.Run(context.Background())
	fail = true
	s.Run(context.Background())

	st := s.State()
	require.NotNil(t, st.Err)
	assert.Equal(t, "catalog unavailable", st.Err.Message)
	assert.True(t, st.HasData)
	assert.Equal(t, 42, st.Data)
	assert.False(t, st.Loading)
}

func TestRunFailureWithoutPriorData(t *testing.T) {
	s := New(func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})

	s.Run(context.Background())

	st := s.State()
	require.NotNil(t, st.Err)
	assert.False(t, st.HasData)
	assert.Equal(t, 0, st.Data)
}

func TestRunNormalizesPanics(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "error value", value: errors.New("bad payload"), expected: "bad payload"},
		{name: "string value", value: "not an error", expected: FallbackMessage},
		{name: "int value", value: 7, expected: FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(func(ctx context.Context) (int, error) {
				panic(tt.value)
			})

			assert.NotPanics(t, func() { s.Run(context.Background()) })

			st := s.State()
			require.NotNil(t, st.Err)
			assert.Equal(t, tt.expected, st.Err.Message)
			assert.False(t, st.Loading)
		})
	}
}

func TestErrorInfoUnwrapsProducerError(t *testing.T) {
	sentinel := errors.New("not found")
	s := New(func(ctx context.Context) (int, error) {
		return 0, sentinel
	})

	s.Run(context.Background())

	st := s.State()
	require.NotNil(t, st.Err)
	assert.ErrorIs(t, st.Err, sentinel)
}

func TestResetClearsState(t *testing.T) {
	fail := false
	s := New(func(ctx context.Context) (int, error) {
		if fail {
			return 0, errors.New("boom")
		}
		return 5, nil
	})

	s.Run(context.Background())
	fail = true
	s.Run(context.Background())
	require.NotNil(t, s.State().Err)

	s.Reset()

	assert.Equal(t, State[int]{}, s.State())
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := New(func(ctx context.Context) (int, error) {
		close(started)
		<-release
		// Ignore cancellation on purpose: a late result must still be dropped.
		return 99, nil
	})

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	<-started
	assert.True(t, s.State().Loading)

	s.Reset()
	assert.Equal(t, State[int]{}, s.State())

	close(release)
	<-done

	assert.Equal(t, State[int]{}, s.State())
}

func TestOverlappingRunsLatestWins(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var firstCtx context.Context

	var call atomic.Int32
	s := New(func(ctx context.Context) (string, error) {
		if call.Add(1) == 1 {
			firstCtx = ctx
			close(firstStarted)
			<-releaseFirst
			return "stale", nil
		}
		return "fresh", nil
	})

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	<-firstStarted

	s.Run(context.Background())
	assert.Equal(t, "fresh", s.State().Data)
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)

	close(releaseFirst)
	<-done

	st := s.State()
	assert.Equal(t, "fresh", st.Data)
	assert.False(t, st.Loading)
}

func TestCancelKeepsDataAndStopsLoading(t *testing.T) {
	var call atomic.Int32
	started := make(chan struct{})
	s := New(func(ctx context.Context) (int, error) {
		if call.Add(1) == 1 {
			return 1, nil
		}
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	s.Run(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	<-started

	s.Cancel()
	<-done

	st := s.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
	assert.Equal(t, 1, st.Data)
}

func TestCloseMakesRunNoop(t *testing.T) {
	var calls atomic.Int32
	s := New(func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	})

	s.Close()
	s.Close()
	s.Run(context.Background())

	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, s.State().HasData)
}

func TestRunWithCancelledContextIsNoop(t *testing.T) {
	var calls atomic.Int32
	s := New(func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	})

	var transitions atomic.Int32
	s.Subscribe(func(State[int]) { transitions.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, int32(0), transitions.Load())
	assert.Equal(t, State[int]{}, s.State())
}

func TestSubscribeReceivesTransitionsInOrder(t *testing.T) {
	s := New(func(ctx context.Context) (int, error) {
		return 3, nil
	})

	var mu sync.Mutex
	var seen []State[int]
	s.Subscribe(func(st State[int]) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})

	s.Run(context.Background())
	s.Reset()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.True(t, seen[0].Loading)
	assert.Equal(t, State[int]{Data: 3, HasData: true}, seen[1])
	assert.Equal(t, State[int]{}, seen[2])
}

func TestSubscriberMayReadState(t *testing.T) {
	s := New(func(ctx context.Context) (int, error) {
		return 8, nil
	})

	var last State[int]
	s.Subscribe(func(State[int]) {
		last = s.State()
	})

	s.Run(context.Background())

	assert.Equal(t, 8, last.Data)
}
