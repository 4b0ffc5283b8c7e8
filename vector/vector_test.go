package vector

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushBackGrowth(t *testing.T) {
	v := New[uint64](0)
	for i := 0; i < 1000; i++ {
		v.PushBack(uint64(i))
		require.GreaterOrEqual(t, v.Cap(), v.Len())
	}
	assert.Equal(t, 1000, v.Len())
	for i := 0; i < 1000; i++ {
		assert.Equal(t, uint64(i), v.At(i))
	}
}

func TestGrowthIsGeometric(t *testing.T) {
	v := New[int](0)
	v.PushBack(1)
	assert.Equal(t, 2, v.Cap())
	v.PushBack(2)
	v.PushBack(3)
	assert.Equal(t, 6, v.Cap())
}

func TestPopAndLast(t *testing.T) {
	v := New[int](0)

	_, ok := v.Pop()
	assert.False(t, ok)
	_, ok = v.Last()
	assert.False(t, ok)

	v.PushBack(10)
	v.PushBack(20)

	x, ok := v.Last()
	require.True(t, ok)
	assert.Equal(t, 20, x)

	x, ok = v.Pop()
	require.True(t, ok)
	assert.Equal(t, 20, x)
	assert.Equal(t, 1, v.Len())

	x, ok = v.Pop()
	require.True(t, ok)
	assert.Equal(t, 10, x)

	_, ok = v.Pop()
	assert.False(t, ok)
}

func TestResizeAndReserve(t *testing.T) {
	v := New[int](4)
	assert.Equal(t, 4, v.Len())
	assert.Equal(t, 4, v.Cap())

	v.Resize(10)
	assert.Equal(t, 10, v.Len())
	assert.Equal(t, 10, v.Cap())

	// Shrinking keeps the storage.
	v.Resize(2)
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, 10, v.Cap())

	// Reserve below the live length is ignored.
	v.Reserve(1)
	assert.Equal(t, 10, v.Cap())

	v.Reserve(64)
	assert.Equal(t, 64, v.Cap())
	assert.Equal(t, 2, v.Len())
}

func TestFromSliceCopies(t *testing.T) {
	src := []int{3, 1, 2}
	v := FromSlice(src)
	src[0] = 99
	assert.Equal(t, []int{3, 1, 2}, v.Slice())
}

func TestSortStableFunc(t *testing.T) {
	type kv struct{ k, v int }
	v := FromSlice([]kv{{2, 0}, {1, 1}, {2, 2}, {1, 3}})
	v.SortStableFunc(func(a, b kv) int { return cmp.Compare(a.k, b.k) })
	assert.Equal(t, []kv{{1, 1}, {1, 3}, {2, 0}, {2, 2}}, v.Slice())
}

func TestDestroy(t *testing.T) {
	v := FromSlice([]int{1, 2})
	v.Destroy()
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, 0, v.Cap())
}
