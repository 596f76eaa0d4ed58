// Package cache provides content-addressed caching for rendered artifacts.
//
// The pipeline uses it to skip re-rendering SVG snapshots when the same
// frame sequence and options have been processed before. Layout geometry
// itself is always recomputed in memory - only derived artifacts are
// cached.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTLs.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was found; expired entries count as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ArtifactKeyOpts are the options that distinguish rendered artifacts of
// the same frame sequence.
type ArtifactKeyOpts struct {
	Format string  // output format (e.g. "svg")
	Width  float64 // canvas width
	Height float64 // canvas height
	Frame  int     // frame index within the sequence
}

// ArtifactKey generates a cache key for a rendered artifact.
// framesHash is the content hash of the input frame sequence.
func ArtifactKey(framesHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", framesHash, opts)
}
