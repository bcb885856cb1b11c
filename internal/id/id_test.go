package id

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence_Next(t *testing.T) {
	seq := NewSequence()

	assert.Equal(t, "req-1", seq.Next())
	assert.Equal(t, "req-2", seq.Next())
}

func TestFormat_Base36(t *testing.T) {
	assert.Equal(t, "req-z", Format(35))
	assert.Equal(t, "req-10", Format(36))
}

func TestSequence_ConcurrentUnique(t *testing.T) {
	seq := NewSequence()

	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- seq.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
