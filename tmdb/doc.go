// Package tmdb provides a client for the TMDB movie catalog API.
//
// The client authenticates with a static bearer token and covers the three
// endpoints the application browses: text search, popularity-sorted
// discovery and single-movie details.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := tmdb.NewClient(tmdb.DefaultBaseURL, token, logger,
//		tmdb.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// An empty query returns popular movies
//	movies, err := client.Search(ctx, "dune")
//
// # Error Handling
//
// Non-2xx responses are returned as *HTTPError, which carries the status
// code and status text. errors.Is matches it against ErrNotFound and
// ErrUnauthorized:
//
//	if errors.Is(err, tmdb.ErrNotFound) {
//		// Unknown movie id
//	}
package tmdb
