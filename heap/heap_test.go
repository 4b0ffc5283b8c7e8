package heap

import (
	"cmp"
	"slices"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapEmpty(t *testing.T) {
	h := New(cmp.Compare[int])
	assert.True(t, h.Empty())
	_, ok := h.Top()
	assert.False(t, ok)
	_, ok = h.Pop()
	assert.False(t, ok)
}

func TestHeapMinAndMax(t *testing.T) {
	in := []int{5, 3, 8, 1, 4, 7, 9, 2, 6}

	minH := New(cmp.Compare[int])
	maxH := New(func(a, b int) int { return cmp.Compare(b, a) })
	for _, x := range in {
		minH.Push(x)
		maxH.Push(x)
	}

	top, ok := minH.Top()
	require.True(t, ok)
	assert.Equal(t, 1, top)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, minH.Drain())
	assert.Equal(t, []int{9, 8, 7, 6, 5, 4, 3, 2, 1}, maxH.Drain())
}

func TestHeapInterleavedPopsAreOrdered(t *testing.T) {
	f := fuzz.NewWithSeed(42).NilChance(0)
	h := New(cmp.Compare[int32])
	var mirror []int32

	for round := 0; round < 200; round++ {
		var batch []int32
		f.NumElements(1, 20).Fuzz(&batch)
		for _, x := range batch {
			h.Push(x)
			mirror = append(mirror, x)
		}
		slices.Sort(mirror)

		pops := len(batch) / 2
		for i := 0; i < pops; i++ {
			got, ok := h.Pop()
			require.True(t, ok)
			require.Equal(t, mirror[0], got)
			mirror = mirror[1:]
		}
		require.Equal(t, len(mirror), h.Len())
	}

	assert.True(t, slices.IsSorted(h.Drain()))
}
