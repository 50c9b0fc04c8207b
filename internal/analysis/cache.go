package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Cache layers a run-scoped memory map over the persistent store. Memory
// hits cost nothing, store hits are promoted into memory, and store write
// failures degrade to memory-only caching rather than failing the item.
type Cache struct {
	store  Store
	logger *slog.Logger

	mu  sync.RWMutex
	mem map[uuid.UUID]*Result
}

// NewCache creates a Cache over the given store. A nil store yields a
// memory-only cache.
func NewCache(store Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.With("system", "analysis-cache"),
		mem:    make(map[uuid.UUID]*Result),
	}
}

// Reset discards the memory tier. The pipeline calls it at the start of
// every run; the memory map lives for one run, the store outlives it.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.mem = make(map[uuid.UUID]*Result)
	c.mu.Unlock()
}

// Get returns the cached result for an answer, checking memory before the
// store. Returns ErrCacheMiss when neither tier has it.
func (c *Cache) Get(ctx context.Context, answerID uuid.UUID) (*Result, error) {
	c.mu.RLock()
	cached, ok := c.mem[answerID]
	c.mu.RUnlock()

	if ok {
		return cached, nil
	}

	if c.store == nil {
		return nil, ErrCacheMiss
	}

	result, err := c.store.Get(ctx, answerID)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		// Treat a broken store read as a miss; staleness degrades
		// performance, never correctness.
		c.logger.Warn("cache store read failed", "answer_id", answerID, "error", err)
		return nil, ErrCacheMiss
	}

	c.mu.Lock()
	c.mem[answerID] = result
	c.mu.Unlock()

	return result, nil
}

// Put caches a result in both tiers. Store write failures are logged and
// swallowed.
func (c *Cache) Put(ctx context.Context, answerID uuid.UUID, result *Result) {
	c.mu.Lock()
	c.mem[answerID] = result
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	if err := c.store.Put(ctx, answerID, result); err != nil {
		c.logger.Warn("cache store write failed", "answer_id", answerID, "error", err)
	}
}
