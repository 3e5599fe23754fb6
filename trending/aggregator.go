package trending

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/s0up4200/reelscout/docstore"
	"github.com/s0up4200/reelscout/tmdb"
)

// ErrEmptyQuery is returned when RecordSearch gets an empty search term
var ErrEmptyQuery = errors.New("search term is required")

// Option configures an Aggregator
type Option func(*Aggregator)

// WithPosterBase sets the image base URL used for the stored poster_url
func WithPosterBase(base string) Option {
	return func(a *Aggregator) {
		a.posterBase = base
	}
}

// Aggregator counts how often each search term leads to a result and
// reports the most popular ones
type Aggregator struct {
	store      docstore.Store
	logger     zerolog.Logger
	posterBase string
	locks      *keyedMutex
}

// New creates an Aggregator on top of store
func New(store docstore.Store, logger zerolog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:      store,
		logger:     logger,
		posterBase: tmdb.DefaultImageBaseURL,
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordSearch increments the counter for query, creating it with the
// top movie's details on first use. Any store failure is returned as a
// *docstore.StoreError.
//
// The lookup and the write are separate store calls. Writes for the same
// term are serialized within this process; two processes recording the
// same new term at once can still both create a record.
func (a *Aggregator) RecordSearch(ctx context.Context, query string, movie tmdb.Movie) error {
	if query == "" {
		return docstore.Wrap("record", ErrEmptyQuery, false)
	}

	unlock := a.locks.Lock(query)
	defer unlock()

	docs, err := a.store.ListDocuments(ctx, docstore.NewQuery(docstore.Equal(FieldSearchTerm, query)))
	if err != nil {
		return docstore.Wrap("list", err, docstore.IsRecoverable(err))
	}

	if len(docs) > 0 {
		existing := docs[0]
		count := existing.Int(FieldCount) + 1
		if _, err := a.store.UpdateDocument(ctx, existing.ID, map[string]any{FieldCount: count}); err != nil {
			return docstore.Wrap("update", err, docstore.IsRecoverable(err))
		}

		a.logger.Debug().
			Str("term", query).
			Int64("count", count).
			Msg("Incremented search count")
		return nil
	}

	fields := map[string]any{
		FieldSearchTerm: query,
		FieldMovieID:    movie.ID,
		FieldTitle:      movie.Title,
		FieldCount:      1,
		FieldPosterURL:  tmdb.PosterURL(a.posterBase, movie.PosterPath),
	}
	if _, err := a.store.CreateDocument(ctx, fields); err != nil {
		return docstore.Wrap("create", err, docstore.IsRecoverable(err))
	}

	a.logger.Debug().
		Str("term", query).
		Int64("movie_id", movie.ID).
		Msg("Recorded new search term")
	return nil
}

// ListTrending returns the records with the highest counts, largest first.
// A limit <= 0 means DefaultLimit. Failures are returned as
// *docstore.StoreError; callers decide whether to show "no data".
func (a *Aggregator) ListTrending(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	docs, err := a.store.ListDocuments(ctx, docstore.NewQuery(
		docstore.OrderDesc(FieldCount),
		docstore.Limit(limit),
	))
	if err != nil {
		return nil, docstore.Wrap("list", err, docstore.IsRecoverable(err))
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDocument(doc))
	}
	// Stores are asked for at most limit documents but not all enforce it
	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// RecordTopResult records query against the first movie of results. It does
// nothing when there are no results.
func (a *Aggregator) RecordTopResult(ctx context.Context, query string, results []tmdb.Movie) error {
	if len(results) == 0 {
		return nil
	}
	if err := a.RecordSearch(ctx, query, results[0]); err != nil {
		return fmt.Errorf("failed to record search %q: %w", query, err)
	}
	return nil
}
