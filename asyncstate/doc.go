// Package asyncstate manages the request lifecycle of a single asynchronous
// producer: idle, loading, then success or failure.
//
// An AsyncState never lets a producer failure escape to its caller. Errors
// and panics are normalized into an ErrorInfo stored alongside the last
// successful data. Each Run takes a new generation token, and completions
// from superseded generations are discarded, so a Reset or a newer Run is
// never overwritten by a slow, stale call.
//
//	popular := asyncstate.New(func(ctx context.Context) ([]tmdb.Movie, error) {
//		return client.Search(ctx, "")
//	}, asyncstate.WithAutoStart())
//	defer popular.Close()
package asyncstate
