package storage

import (
	"encoding/json"
	"github.com/maypok86/otter/v2"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache is an otter-backed TTL cache, optionally mirrored to a JSON file so
// lookups survive restarts.
type Cache[T any] struct {
	outer *otter.Cache[string, T]

	filePath  string
	stopFlush chan struct{}
	flushMu   sync.Mutex
}

type CacheOptions struct {
	Capacity      int
	TTL           time.Duration
	FilePath      string
	FlushInterval time.Duration
}

func NewCache[T any](o CacheOptions) *Cache[T] {
	c := &Cache[T]{
		filePath:  o.FilePath,
		stopFlush: make(chan struct{}),
	}

	opts := &otter.Options[string, T]{
		InitialCapacity: o.Capacity,
	}
	if o.Capacity > 0 {
		opts.MaximumSize = o.Capacity
	}
	if o.TTL > 0 {
		opts.ExpiryCalculator = otter.ExpiryWriting[string, T](o.TTL)
	}
	c.outer = otter.Must(opts)

	if c.filePath != "" {
		_ = c.loadFromDisk()
		if o.FlushInterval > 0 {
			go c.periodicFlush(o.FlushInterval)
		}
	}

	return c
}

func (c *Cache[T]) Set(key string, val T) {
	c.outer.Set(key, val)
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.outer.GetIfPresent(key)
}

func (c *Cache[T]) ClearKey(key string) {
	c.outer.Invalidate(key)
}

func (c *Cache[T]) FlushToDisk() error {
	if c.filePath == "" {
		return nil
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	cacheData := make(map[string]T)
	for k, v := range c.outer.All() {
		cacheData[k] = v
	}

	data, err := json.MarshalIndent(cacheData, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0o755); err != nil {
		return err
	}

	tmp := c.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, c.filePath)
}

func (c *Cache[T]) periodicFlush(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.FlushToDisk()
		case <-c.stopFlush:
			return
		}
	}
}

func (c *Cache[T]) loadFromDisk() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return err
	}

	var items map[string]T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	for k, v := range items {
		c.outer.Set(k, v)
	}

	return nil
}

// Close stops the flusher and writes the final snapshot.
func (c *Cache[T]) Close() error {
	select {
	case <-c.stopFlush:
		return nil
	default:
		close(c.stopFlush)
	}
	return c.FlushToDisk()
}
