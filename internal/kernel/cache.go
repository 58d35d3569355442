package kernel

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache holds compiled kernel objects for one device, keyed by source hash and entry point.
// It is safe for concurrent use; concurrent misses on one key compile once.
type Cache struct {
	compiler Compiler
	logger   *slog.Logger

	mu      sync.RWMutex
	objects map[Key]Object

	group singleflight.Group
}

// NewCache creates a cache compiling through compiler.
func NewCache(compiler Compiler) *Cache {
	return &Cache{
		compiler: compiler,
		logger:   slog.Default().With("component", "kernel.cache"),
		objects:  make(map[Key]Object),
	}
}

// SetLogger replaces the cache logger.
func (c *Cache) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// GetOrCompile returns a new Kernel handle for src, compiling it on first use.
// Compilation failures are returned as *CompilationError and are not cached.
func (c *Cache) GetOrCompile(src Source) (*Kernel, error) {
	key := src.Key()
	if obj, ok := c.lookup(key); ok {
		cacheHits.WithLabelValues(src.EntryPoint).Inc()
		return NewKernel(obj, src), nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A concurrent caller may have finished between lookup and Do.
		if obj, ok := c.lookup(key); ok {
			cacheHits.WithLabelValues(src.EntryPoint).Inc()
			return obj, nil
		}
		return c.compile(key, src)
	})
	if err != nil {
		return nil, err
	}
	return NewKernel(v.(Object), src), nil
}

// Len returns the number of cached objects.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}

// Release releases every cached object. The cache is empty afterwards.
func (c *Cache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, obj := range c.objects {
		obj.Release()
	}
	c.objects = make(map[Key]Object)
}

func (c *Cache) lookup(key Key) (Object, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects[key]
	return obj, ok
}

func (c *Cache) compile(key Key, src Source) (Object, error) {
	cacheMisses.WithLabelValues(src.EntryPoint).Inc()
	start := time.Now()
	obj, err := c.compiler.Compile(src)
	elapsed := time.Since(start)
	compileDuration.WithLabelValues(src.EntryPoint).Observe(elapsed.Seconds())

	if err != nil {
		compileFailures.WithLabelValues(src.EntryPoint).Inc()
		var ce *CompilationError
		if !errors.As(err, &ce) {
			err = &CompilationError{EntryPoint: src.EntryPoint, Err: err}
		}
		c.logger.Warn("kernel compilation failed", "entry_point", src.EntryPoint, "key", key.String()[:12], "error", err)
		return nil, err
	}

	c.mu.Lock()
	c.objects[key] = obj
	c.mu.Unlock()

	c.logger.Debug("kernel compiled", "entry_point", src.EntryPoint, "key", key.String()[:12], "elapsed", elapsed)
	return obj, nil
}
