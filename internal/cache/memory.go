package cache

import (
	"context"
	"sync"
	"time"
)

// memEntry holds one cached outcome with its expiry.
type memEntry struct {
	negative  bool
	mapping   Mapping
	expiresAt time.Time
}

// Memory is an in-process Cache for tests and single-node deployments.
// Expired entries are dropped lazily on read and by Evict.
type Memory struct {
	mu          sync.RWMutex
	entries     map[string]memEntry
	positiveTTL time.Duration
	negativeTTL time.Duration
}

// NewMemory creates a Memory cache. Non-positive TTLs select the defaults.
func NewMemory(positiveTTL, negativeTTL time.Duration) *Memory {
	if positiveTTL <= 0 {
		positiveTTL = DefaultPositiveTTL
	}
	if negativeTTL <= 0 {
		negativeTTL = DefaultNegativeTTL
	}
	return &Memory{
		entries:     make(map[string]memEntry),
		positiveTTL: positiveTTL,
		negativeTTL: negativeTTL,
	}
}

func (c *Memory) Get(_ context.Context, hostname string) Result {
	c.mu.RLock()
	e, ok := c.entries[hostname]
	c.mu.RUnlock()
	if !ok {
		return Result{Kind: Miss}
	}
	if time.Now().After(e.expiresAt) {
		c.dropExpired(hostname)
		return Result{Kind: Miss}
	}
	if e.negative {
		return Result{Kind: Negative}
	}
	return Result{Kind: Hit, Mapping: e.mapping}
}

// dropExpired removes hostname only if its entry is still expired. The
// expiry is re-checked under the write lock: a Set racing between Get's two
// lock acquisitions must not have its fresh entry deleted.
func (c *Memory) dropExpired(hostname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[hostname]; ok && time.Now().After(e.expiresAt) {
		delete(c.entries, hostname)
	}
}

func (c *Memory) Set(_ context.Context, hostname string, m Mapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hostname] = memEntry{mapping: m, expiresAt: time.Now().Add(c.positiveTTL)}
}

func (c *Memory) SetNegative(_ context.Context, hostname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hostname] = memEntry{negative: true, expiresAt: time.Now().Add(c.negativeTTL)}
}

func (c *Memory) Invalidate(_ context.Context, hostname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, hostname)
}

// Evict removes all expired entries and reports how many were dropped.
func (c *Memory) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	n := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, including expired ones.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
