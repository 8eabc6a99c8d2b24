package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwalk/nightwalk/internal/cache"
)

func TestTTL_GetPut(t *testing.T) {
	c := cache.New[string](time.Minute, 10)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", "value")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestTTL_Expiry(t *testing.T) {
	c := cache.New[int](10*time.Millisecond, 10)

	c.Put("a", 1)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTL_CapacitySweep(t *testing.T) {
	c := cache.New[int](time.Minute, 5)

	for i := 0; i < 20; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}

	assert.LessOrEqual(t, c.Len(), 5)
}

func TestTTL_Clear(t *testing.T) {
	c := cache.New[int](time.Minute, 10)
	c.Put("a", 1)
	c.Clear()

	assert.Zero(t, c.Len())
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c := cache.New[int](time.Minute, 100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%10)
				c.Put(key, n)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 100)
}
