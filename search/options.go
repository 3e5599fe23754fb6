package search

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period after the last query change before a
// search is issued
const DefaultDebounce = 500 * time.Millisecond

// Option configures a Controller
type Option func(*Controller)

// WithDebounce sets the debounce period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRecorder reports the top result of every successful search to r
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// withScheduler replaces time.AfterFunc
func withScheduler(s scheduler) Option {
	return func(c *Controller) {
		c.schedule = s
	}
}
