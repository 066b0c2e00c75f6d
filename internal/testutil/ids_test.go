package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDGenerator_Sequence(t *testing.T) {
	gen := NewSequentialIDGenerator("proj")

	assert.Equal(t, "proj-1", gen.Generate())
	assert.Equal(t, "proj-2", gen.Generate())
	assert.Equal(t, 2, gen.Count())
}

func TestSequentialIDGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "query-1", NewSequentialIDGenerator("").Generate())
}

func TestSequentialIDGenerator_Reset(t *testing.T) {
	gen := NewSequentialIDGenerator("q")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, 0, gen.Count())
	assert.Equal(t, "q-1", gen.Generate())
}

func TestSequentialIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDGenerator("q")
	const goroutines = 50
	const calls = 20

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*calls, "ids must be unique")
	assert.Equal(t, goroutines*calls, gen.Count())
}
