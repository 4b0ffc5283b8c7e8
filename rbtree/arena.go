package rbtree

const (
	pageBits = 8
	pageSize = 1 << pageBits
	pageMask = pageSize - 1

	null int32 = -1
)

type color uint8

const (
	black color = iota
	red
)

const (
	left  = 0
	right = 1
)

type node[K, V any] struct {
	key    K
	val    V
	parent int32
	child  [2]int32
	color  color
}

// arena hands out nodes from fixed-size pages. Pages never move, so
// pointers to a node's value stay valid while the node is live.
type arena[K, V any] struct {
	pages []*[pageSize]node[K, V]
	next  int32   // first never-used index
	free  []int32 // released indices
}

func (a *arena[K, V]) at(i int32) *node[K, V] {
	return &a.pages[i>>pageBits][i&pageMask]
}

func (a *arena[K, V]) alloc() int32 {
	if n := len(a.free); n > 0 {
		i := a.free[n-1]
		a.free = a.free[:n-1]

		return i
	}

	i := a.next
	if int(i>>pageBits) == len(a.pages) {
		a.pages = append(a.pages, new([pageSize]node[K, V]))
	}
	a.next++

	return i
}

func (a *arena[K, V]) release(i int32) {
	*a.at(i) = node[K, V]{parent: null, child: [2]int32{null, null}}
	a.free = append(a.free, i)
}

func (a *arena[K, V]) reset() {
	a.pages = nil
	a.next = 0
	a.free = nil
}
