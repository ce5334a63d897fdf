// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about diagram interactions, rendering, cache operations
// and server sessions.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The server registers Prometheus-backed hooks; the CLI and TUI leave the
// no-op defaults in place.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetInteractionHooks(&myInteractionHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Interaction().OnReject(ctx, x, y)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Interaction Hooks
// =============================================================================

// InteractionHooks receives events from diagram state transitions.
type InteractionHooks interface {
	// OnPlace records an accepted placement; outcome is "started",
	// "appended" or "duplicate".
	OnPlace(ctx context.Context, outcome string, label int)

	// OnReject records a placement outside the light cone.
	OnReject(ctx context.Context, x, y int)

	// OnDelete records a deletion by label.
	OnDelete(ctx context.Context, label int)

	// OnMove records a drag relocation of the labeled point.
	OnMove(ctx context.Context, label int)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from artifact rendering.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events about server-side diagram sessions.
type SessionHooks interface {
	OnSessionOpen(ctx context.Context, id string)
	OnSessionClose(ctx context.Context, id string, lifetime time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopInteractionHooks is a no-op implementation of InteractionHooks.
type NoopInteractionHooks struct{}

func (NoopInteractionHooks) OnPlace(context.Context, string, int) {}
func (NoopInteractionHooks) OnReject(context.Context, int, int)   {}
func (NoopInteractionHooks) OnDelete(context.Context, int)        {}
func (NoopInteractionHooks) OnMove(context.Context, int)          {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string) {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnSessionOpen(context.Context, string)                 {}
func (NoopSessionHooks) OnSessionClose(context.Context, string, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	interactionHooks InteractionHooks = NoopInteractionHooks{}
	renderHooks      RenderHooks      = NoopRenderHooks{}
	cacheHooks       CacheHooks       = NoopCacheHooks{}
	sessionHooks     SessionHooks     = NoopSessionHooks{}
	hooksMu          sync.RWMutex
)

// SetInteractionHooks registers custom interaction hooks.
// This should be called once at application startup.
func SetInteractionHooks(h InteractionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		interactionHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetSessionHooks registers custom session hooks.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// Interaction returns the registered interaction hooks.
func Interaction() InteractionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return interactionHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	interactionHooks = NoopInteractionHooks{}
	renderHooks = NoopRenderHooks{}
	cacheHooks = NoopCacheHooks{}
	sessionHooks = NoopSessionHooks{}
}
