// Package radarr reports whether catalog movies are already part of a
// Radarr library, using the golift.io/starr client.
package radarr
