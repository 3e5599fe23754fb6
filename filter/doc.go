// Package filter compiles expr-lang expressions into movie filters.
//
// Expressions see the movie's fields (Title, Year, VoteAverage, VoteCount,
// Popularity, ReleaseDate, Released, Overview, Adult, Runtime, Genres) and
// helper functions such as hasGenre, releasedAfter, releasedBefore,
// contains, startsWith, lower and daysSince:
//
//	f, err := filter.CompileFilter(`VoteAverage >= 7 and hasGenre(878)`)
//	if err != nil {
//		return err
//	}
//	movies = filter.Apply(f, movies)
//
// Compiled programs are kept in an LRU cache keyed by expression text.
package filter
