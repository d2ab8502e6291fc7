package order

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_StartsAtSeed(t *testing.T) {
	seq := NewSequence()
	assert.Equal(t, int64(1000), seq.Next())
	assert.Equal(t, int64(1001), seq.Next())
	assert.Equal(t, int64(1002), seq.Next())
}

func TestSequence_ConcurrentNextIsUnique(t *testing.T) {
	const (
		goroutines = 8
		perG       = 100
	)

	seq := NewSequence()
	ids := make(chan int64, goroutines*perG)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				ids <- seq.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make([]int64, 0, goroutines*perG)
	for id := range ids {
		seen = append(seen, id)
	}
	require.Len(t, seen, goroutines*perG)

	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i, id := range seen {
		assert.Equal(t, int64(1000+i), id)
	}
}
