package trending

import "github.com/s0up4200/reelscout/docstore"

// Document field names, shared with documents written by the mobile app
const (
	FieldSearchTerm = "searchTerm"
	FieldMovieID    = "movie_id"
	FieldTitle      = "title"
	FieldPosterURL  = "poster_url"
	FieldCount      = "count"
)

// DefaultLimit is the number of records ListTrending returns when no
// positive limit is given
const DefaultLimit = 3

// Record is one popularity counter. There is at most one record per
// search term.
type Record struct {
	ID         string
	SearchTerm string
	MovieID    int64
	Title      string
	PosterURL  string
	Count      int64
}

func recordFromDocument(doc docstore.Document) Record {
	return Record{
		ID:         doc.ID,
		SearchTerm: doc.String(FieldSearchTerm),
		MovieID:    doc.Int(FieldMovieID),
		Title:      doc.String(FieldTitle),
		PosterURL:  doc.String(FieldPosterURL),
		Count:      doc.Int(FieldCount),
	}
}
