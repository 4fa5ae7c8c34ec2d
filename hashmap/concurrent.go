// Package hashmap provides a reference CPU implementation of the
// block.HashMap external collaborator: a sharded, mutex-guarded map from
// block key to block address. It stands in for the device-side hash map
// the spec treats as external; kernels only ever see it through the
// block.HashMap interface.
package hashmap

import (
	"sync"

	"go.volu.dev/fusion/block"
)

const shardCount = 16

func shardFor(k block.Key) uint32 {
	h := uint32(2166136261)
	h = (h ^ uint32(k.BX)) * 16777619
	h = (h ^ uint32(k.BY)) * 16777619
	h = (h ^ uint32(k.BZ)) * 16777619
	return h % shardCount
}

type shard struct {
	mu sync.RWMutex
	m  map[block.Key]block.Address
}

// Concurrent is a sharded-mutex map satisfying block.HashMap, safe for
// concurrent reads during kernel execution and concurrent writes during
// external allocation between kernel calls.
type Concurrent struct {
	shards [shardCount]*shard
}

// New returns an empty Concurrent hash map.
func New() *Concurrent {
	c := &Concurrent{}
	for i := range c.shards {
		c.shards[i] = &shard{m: make(map[block.Key]block.Address)}
	}
	return c
}

// Find implements block.HashMap.
func (c *Concurrent) Find(key block.Key) (block.Address, bool) {
	s := c.shards[shardFor(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	addr, ok := s.m[key]
	return addr, ok
}

// Allocate inserts or overwrites the address for key. Allocation happens
// externally, before a kernel launches; kernels never call this.
func (c *Concurrent) Allocate(key block.Key, addr block.Address) {
	s := c.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = addr
}

// Size returns the number of allocated blocks.
func (c *Concurrent) Size() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}
