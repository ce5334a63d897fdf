package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/spacetime/pkg/observability"
)

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte("svg"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "svg" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry should miss")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) == 0 {
		t.Error("file cache should shard entries into subdirectories")
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "a", []byte("1"), 0)
	now = now.Add(time.Second)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)
	now = now.Add(time.Second)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("oldest entry should have been evicted")
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("expired entry should miss")
	}
	data, hit, _ := c.Get(ctx, "c")
	if !hit || string(data) != "3" {
		t.Errorf("Get(c) = %q, %v", data, hit)
	}

	// returned slices are copies
	data[0] = 'x'
	again, _, _ := c.Get(ctx, "c")
	if string(again) != "3" {
		t.Error("Get must not expose internal storage")
	}

	_ = c.Delete(ctx, "c")
	_ = c.Close()
	if c.Len() != 0 {
		t.Errorf("Len after Close = %d", c.Len())
	}
}

func TestFetch(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)

	ctx := context.Background()
	c := NewMemoryCache(0)
	calls := 0
	produce := func() ([]byte, error) {
		calls++
		return []byte("artifact"), nil
	}

	for range 3 {
		data, err := Fetch(ctx, c, "key", "artifact", time.Hour, produce)
		if err != nil || string(data) != "artifact" {
			t.Fatalf("Fetch = %q, %v", data, err)
		}
	}
	if calls != 1 {
		t.Errorf("produce called %d times, want 1", calls)
	}
	if hooks.hits != 2 || hooks.misses != 1 || hooks.sets != 1 {
		t.Errorf("hits=%d misses=%d sets=%d", hooks.hits, hooks.misses, hooks.sets)
	}

	boom := errors.New("render failed")
	if _, err := Fetch(ctx, c, "other", "artifact", 0, func() ([]byte, error) { return nil, boom }); err != boom {
		t.Errorf("Fetch error = %v, want %v", err, boom)
	}
	if _, hit, _ := c.Get(ctx, "other"); hit {
		t.Error("failed render must not be cached")
	}
}

func TestFetchWithNullCache(t *testing.T) {
	calls := 0
	for range 2 {
		_, _ = Fetch(context.Background(), NewNullCache(), "k", "artifact", 0, func() ([]byte, error) {
			calls++
			return []byte("x"), nil
		})
	}
	if calls != 2 {
		t.Errorf("NullCache should never hit, produce called %d times", calls)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, "127.0.0.1:1"); err == nil {
		t.Error("expected connection error")
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	if IsRetryable(classify(errBoom)) {
		t.Error("plain errors are not retryable")
	}
	err := classify(&timeoutError{})
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("network error should be retryable ErrNetwork: %v", err)
	}
}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }

type countingHooks struct {
	hits, misses, sets int
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestFileCacheCorruptAndCanceled(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	fc := c.(*FileCache)

	path := fc.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}

	if err := c.Set(ctx, "k", []byte("pdf"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("shard holds %d files, want only the entry", len(entries))
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := c.Set(canceled, "k2", []byte("x"), 0); err == nil {
		t.Error("Set with canceled context should fail")
	}
	if _, _, err := c.Get(canceled, "k"); err == nil {
		t.Error("Get with canceled context should fail")
	}
}
