// Package trending keeps per-search-term popularity counters in a
// docstore.Store and lists the most searched terms.
package trending
