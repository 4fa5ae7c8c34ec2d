package hashmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.volu.dev/fusion/block"
)

func TestConcurrent_FindMiss(t *testing.T) {
	c := New()
	_, ok := c.Find(block.Key{BX: 1, BY: 2, BZ: 3})
	assert.False(t, ok)
}

func TestConcurrent_AllocateThenFind(t *testing.T) {
	c := New()
	key := block.Key{BX: 1, BY: 2, BZ: 3}
	c.Allocate(key, block.Address(42))

	addr, ok := c.Find(key)
	assert.True(t, ok)
	assert.Equal(t, block.Address(42), addr)
	assert.Equal(t, 1, c.Size())
}

func TestConcurrent_ConcurrentAllocateDistinctKeys(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Allocate(block.Key{BX: int32(i)}, block.Address(i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 200, c.Size())
	for i := 0; i < 200; i++ {
		addr, ok := c.Find(block.Key{BX: int32(i)})
		assert.True(t, ok)
		assert.Equal(t, block.Address(i), addr)
	}
}
