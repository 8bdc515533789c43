// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package framecache stores rendered animation frames of an image, keyed
// by frame time. The image router drops every entry whenever a structural
// or color change makes the rendered frames stale.
package framecache

import (
	"sync"
	"sync/atomic"
)

const (
	// shardCount must be a power of 2.
	shardCount = 8
	shardMask  = shardCount - 1

	// DefaultCapacity is the default number of frames per shard.
	DefaultCapacity = 32
)

// Stats holds cache counters.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Invalidations uint64
}

// Cache is a thread-safe sharded LRU of rendered frames.
type Cache[V any] struct {
	shards   [shardCount]*shard[V]
	capacity int

	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	invalidations atomic.Uint64
}

type shard[V any] struct {
	mu      sync.Mutex
	entries map[int]*entry[V]
	lru     lruList
}

type entry[V any] struct {
	value V
	node  *lruNode
}

// New creates a cache holding up to capacity frames per shard. If
// capacity <= 0, DefaultCapacity is used.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache[V]{capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard[V]{entries: make(map[int]*entry[V])}
	}
	return c
}

func (c *Cache[V]) shardFor(frame int) *shard[V] {
	// Consecutive frames land in different shards.
	return c.shards[uint(frame)&shardMask]
}

// Get returns the cached frame.
func (c *Cache[V]) Get(frame int) (V, bool) {
	s := c.shardFor(frame)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[frame]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.moveToFront(e.node)
	c.hits.Add(1)
	return e.value, true
}

// Set stores a frame, evicting the least recently used frame of the shard
// when it is full.
func (c *Cache[V]) Set(frame int, value V) {
	s := c.shardFor(frame)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.setLocked(s, frame, value)
}

func (c *Cache[V]) setLocked(s *shard[V], frame int, value V) {
	if e, ok := s.entries[frame]; ok {
		e.value = value
		s.lru.moveToFront(e.node)
		return
	}
	for s.lru.len >= c.capacity {
		oldest, ok := s.lru.removeOldest()
		if !ok {
			break
		}
		delete(s.entries, oldest)
		c.evictions.Add(1)
	}
	s.entries[frame] = &entry[V]{value: value, node: s.lru.pushFront(frame)}
}

// GetOrRender returns the cached frame or renders and stores it. render
// runs with the shard locked, so concurrent requests for the same frame
// render it once.
func (c *Cache[V]) GetOrRender(frame int, render func() V) V {
	s := c.shardFor(frame)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[frame]; ok {
		s.lru.moveToFront(e.node)
		c.hits.Add(1)
		return e.value
	}
	c.misses.Add(1)
	v := render()
	c.setLocked(s, frame, v)
	return v
}

// Invalidate drops one frame.
func (c *Cache[V]) Invalidate(frame int) {
	s := c.shardFor(frame)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[frame]; ok {
		s.lru.unlink(e.node)
		delete(s.entries, frame)
	}
}

// InvalidateAll drops every frame.
func (c *Cache[V]) InvalidateAll() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[int]*entry[V])
		s.lru = lruList{}
		s.mu.Unlock()
	}
	c.invalidations.Add(1)
}

// Len returns the number of cached frames.
func (c *Cache[V]) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Stats returns a snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
	}
}
