package search

import (
	"context"
	"time"

	"github.com/s0up4200/reelscout/asyncstate"
	"github.com/s0up4200/reelscout/tmdb"
)

// Searcher runs a catalog search. An empty query lists popular movies.
type Searcher interface {
	Search(ctx context.Context, query string) ([]tmdb.Movie, error)
}

// Recorder receives the query and top movie of each successful search
type Recorder interface {
	RecordSearch(ctx context.Context, query string, movie tmdb.Movie) error
}

// Phase is the search lifecycle as seen by a view
type Phase int

const (
	// Idle means the query is empty and nothing is shown
	Idle Phase = iota
	// Pending means the debounce timer is running
	Pending
	// Loading means a search request is in flight
	Loading
	// Loaded means the last search succeeded
	Loaded
	// Failed means the last search failed
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is the observable state of a Controller
type Snapshot struct {
	Query  string
	Phase  Phase
	Movies []tmdb.Movie
	Err    *asyncstate.ErrorInfo
}

// stopper is the part of *time.Timer the controller needs
type stopper interface {
	Stop() bool
}

// scheduler runs f once after d
type scheduler func(d time.Duration, f func()) stopper

func afterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}
