/**
 * @description
 * This file implements the in-memory replay cache that enforces at-most-once
 * acceptance of deposit notifications. The cache remembers the most recently
 * accepted transaction ids in strict insertion order and evicts the oldest
 * entry once the configured capacity is exceeded.
 *
 * @notes
 * - This is deliberately FIFO, not LRU: lookups never refresh an entry's
 *   position. Re-delivery of a txId that has already been evicted is
 *   reprocessed as a new deposit; that is the bounded-memory trade-off.
 * - The cache is process-local and empty after a restart.
 */
package store

import "sync"

// DefaultTxCacheSize bounds the replay cache when no explicit capacity is
// configured.
const DefaultTxCacheSize = 1000

// TxCache is a bounded, insertion-ordered set of recently seen transaction
// ids. It is safe for concurrent use; Remember performs the duplicate check
// and the insert under one lock so concurrent deliveries of the same txId
// cannot both pass.
type TxCache struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	order    []string
	head     int
	capacity int
}

// NewTxCache creates an empty cache holding at most capacity entries.
// Non-positive capacities fall back to DefaultTxCacheSize.
func NewTxCache(capacity int) *TxCache {
	if capacity <= 0 {
		capacity = DefaultTxCacheSize
	}
	return &TxCache{
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Remember records txID and returns true if it was not already present.
// It returns false for a duplicate without modifying the cache. Inserting
// beyond capacity evicts the oldest remembered id.
func (c *TxCache) Remember(txID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[txID]; ok {
		return false
	}
	c.seen[txID] = struct{}{}
	c.order = append(c.order, txID)

	for len(c.seen) > c.capacity {
		oldest := c.order[c.head]
		c.order[c.head] = ""
		c.head++
		delete(c.seen, oldest)
	}

	// Compact the queue once the dead prefix dominates so the slice does not
	// grow without bound.
	if c.head >= c.capacity && c.head*2 >= len(c.order) {
		trimmed := make([]string, len(c.order)-c.head, c.capacity)
		copy(trimmed, c.order[c.head:])
		c.order = trimmed
		c.head = 0
	}
	return true
}

// Contains reports whether txID is currently remembered.
func (c *TxCache) Contains(txID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[txID]
	return ok
}

// Len returns the number of remembered transaction ids.
func (c *TxCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
