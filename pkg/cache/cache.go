// Package cache stores rendered artifacts keyed by scene content.
//
// Rendering is deterministic in the scene, so the scene hash plus the
// render options identify an artifact. Backends:
//
//   - [NullCache]: caching disabled
//   - [MemoryCache]: in-process, for a single server
//   - [FileCache]: on disk, for the CLI
//   - [RedisCache]: shared between server instances
//
// [Fetch] wraps the lookup-render-store sequence and reports hits, misses
// and writes to the observability cache hooks.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/spacetime/pkg/observability"
)

// Cache is a byte-oriented key/value store with per-entry expiration.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Scale       float64 `json:"scale,omitempty"`
	Interactive bool    `json:"interactive,omitempty"`
	Detailed    bool    `json:"detailed,omitempty"`
	Title       string  `json:"title,omitempty"`
	Report      bool    `json:"report,omitempty"`
}

// DefaultKeyer hashes the scene hash together with the options.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

// Fetch returns the cached value for key, or calls produce, stores its
// result for ttl and returns it. Cache read and write failures degrade to
// producing uncached output; only produce's error is returned.
func Fetch(ctx context.Context, c Cache, key, keyType string, ttl time.Duration, produce func() ([]byte, error)) ([]byte, error) {
	hooks := observability.Cache()
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, keyType)
		return data, nil
	}
	hooks.OnCacheMiss(ctx, keyType)

	data, err := produce()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}
