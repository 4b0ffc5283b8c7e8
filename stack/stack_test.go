package stack

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackLIFO(t *testing.T) {
	s := New[int]()

	_, ok := s.Pop()
	assert.False(t, ok)
	_, ok = s.Peek()
	assert.False(t, ok)

	s.Push(1)
	s.Push(2)
	s.Push(3)

	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, 3, top)
	assert.Equal(t, 3, s.Len())

	for _, want := range []int{3, 2, 1} {
		got, ok := s.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestStackConcurrent(t *testing.T) {
	s := New[int]()
	const workers, perWorker = 8, 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Push(base*perWorker + i)
			}
		}(w)
	}
	wg.Wait()
	require.Equal(t, workers*perWorker, s.Len())

	var (
		mu  sync.Mutex
		got []int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				x, ok := s.Pop()
				if !ok {
					return
				}
				mu.Lock()
				got = append(got, x)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Ints(got)
	require.Len(t, got, workers*perWorker)
	for i, x := range got {
		assert.Equal(t, i, x)
	}
}

func TestStackDestroy(t *testing.T) {
	s := New[string]()
	s.Push("a")
	s.Destroy()
	assert.Equal(t, 0, s.Len())
}
