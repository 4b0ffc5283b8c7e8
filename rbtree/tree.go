package rbtree

import (
	"iter"

	"github.com/hupe1980/blobkv/value"
)

// Tree is an ordered map from K to V.
type Tree[K, V any] struct {
	arena arena[K, V]
	root  int32
	n     int
	cmp   value.Comparator[K]
	opts  options[K, V]
}

// New creates an empty tree ordered by cmp.
func New[K, V any](cmp value.Comparator[K], optFns ...Option[K, V]) *Tree[K, V] {
	t := &Tree[K, V]{root: null, cmp: cmp}
	for _, fn := range optFns {
		fn(&t.opts)
	}

	return t
}

// Len returns the number of keys.
func (t *Tree[K, V]) Len() int { return t.n }

func (t *Tree[K, V]) at(i int32) *node[K, V] { return t.arena.at(i) }

func (t *Tree[K, V]) handle(i int32) Node[K, V] {
	if i == null {
		return Node[K, V]{}
	}

	return Node[K, V]{t: t, idx: i}
}

func (t *Tree[K, V]) colorOf(i int32) color {
	if i == null {
		return black
	}

	return t.at(i).color
}

// side returns which child of its parent i is. The root reports left.
func (t *Tree[K, V]) side(i int32) int {
	p := t.at(i).parent
	if p != null && t.at(p).child[right] == i {
		return right
	}

	return left
}

// rotate lifts np's child on side dir into np's place.
func (t *Tree[K, V]) rotate(np int32, dir int) {
	n := t.at(np)
	c := n.child[dir]
	cn := t.at(c)

	n.child[dir] = cn.child[1-dir]
	if n.child[dir] != null {
		t.at(n.child[dir]).parent = np
	}

	cn.child[1-dir] = np
	cn.parent = n.parent

	if cn.parent == null {
		t.root = c
	} else {
		t.at(cn.parent).child[t.side(np)] = c
	}

	n.parent = c
}

// find returns the node holding key and the last node visited on the way,
// which is the found node itself when the key is present.
func (t *Tree[K, V]) find(key K) (int32, int32) {
	parent := null

	for i := t.root; i != null; {
		n := t.at(i)

		c := t.cmp.Compare(key, n.key)
		if c == 0 {
			return i, i
		}

		parent = i
		if c < 0 {
			i = n.child[left]
		} else {
			i = n.child[right]
		}
	}

	return null, parent
}

// Find returns the node holding key and the last node visited by the
// search. When the key is present both results are that node; when it is
// absent the first result is invalid and the second is the node under
// which key would be inserted.
func (t *Tree[K, V]) Find(key K) (Node[K, V], Node[K, V]) {
	i, p := t.find(key)
	return t.handle(i), t.handle(p)
}

// Get returns the value stored under key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	if i, _ := t.find(key); i != null {
		return t.at(i).val, true
	}

	var zero V

	return zero, false
}

// Ref returns a pointer to the value stored under key, or nil. The pointer
// stays valid until the key is removed.
func (t *Tree[K, V]) Ref(key K) *V {
	if i, _ := t.find(key); i != null {
		return &t.at(i).val
	}

	return nil
}

// Contains reports whether key is present.
func (t *Tree[K, V]) Contains(key K) bool {
	i, _ := t.find(key)
	return i != null
}

// Set associates val with key, destroying any value it replaces.
func (t *Tree[K, V]) Set(key K, val V) Node[K, V] {
	i, parent := t.find(key)
	if i != null {
		n := t.at(i)
		if t.opts.valueDestroy != nil {
			t.opts.valueDestroy(n.val)
		}
		n.val = val

		return t.handle(i)
	}

	i = t.arena.alloc()
	*t.at(i) = node[K, V]{
		key:    key,
		val:    val,
		parent: parent,
		child:  [2]int32{null, null},
		color:  red,
	}

	if parent == null {
		t.root = i
	} else if t.cmp.Compare(key, t.at(parent).key) < 0 {
		t.at(parent).child[left] = i
	} else {
		t.at(parent).child[right] = i
	}

	t.n++
	t.insertFixup(i)

	return t.handle(i)
}

func (t *Tree[K, V]) insertFixup(i int32) {
	for {
		p := t.at(i).parent
		if p == null || t.at(p).color == black {
			break
		}

		// A red parent is never the root, so the grandparent exists.
		g := t.at(p).parent
		pdir := t.side(p)
		u := t.at(g).child[1-pdir]

		if t.colorOf(u) == red {
			t.at(p).color = black
			t.at(u).color = black
			t.at(g).color = red
			i = g

			continue
		}

		if t.side(i) != pdir {
			t.rotate(p, 1-pdir)
			p = i
		}

		t.at(p).color = black
		t.at(g).color = red
		t.rotate(g, pdir)

		break
	}

	t.at(t.root).color = black
}

// Remove deletes key, running destructors for its key and value. It
// reports whether the key was present.
func (t *Tree[K, V]) Remove(key K) bool {
	z, _ := t.find(key)
	if z == null {
		return false
	}

	zn := t.at(z)
	if t.opts.keyDestroy != nil {
		t.opts.keyDestroy(zn.key)
	}
	if t.opts.valueDestroy != nil {
		t.opts.valueDestroy(zn.val)
	}

	// x takes the place of the node that leaves its position: z itself
	// with at most one child, otherwise z's successor y, which is then
	// relinked into z's position. Only z's slot is released, so handles
	// to every other key stay valid.
	var (
		x, parent    int32
		dir          int
		removedColor = zn.color
	)

	switch {
	case zn.child[left] == null || zn.child[right] == null:
		x = zn.child[left]
		if x == null {
			x = zn.child[right]
		}
		parent, dir = zn.parent, t.side(z)
		t.transplant(z, x)
	default:
		y := t.leftmost(zn.child[right])
		yn := t.at(y)
		removedColor = yn.color
		x = yn.child[right]

		if yn.parent == z {
			parent, dir = y, right
		} else {
			parent, dir = yn.parent, left
			t.transplant(y, x)
			yn.child[right] = zn.child[right]
			t.at(yn.child[right]).parent = y
		}

		t.transplant(z, y)
		yn.child[left] = zn.child[left]
		t.at(yn.child[left]).parent = y
		yn.color = zn.color
	}

	t.arena.release(z)
	t.n--

	if removedColor == red {
		return true
	}
	if t.colorOf(x) == red {
		t.at(x).color = black
		return true
	}

	t.removeFixup(x, parent, dir)

	return true
}

// transplant puts v (possibly null) where u hangs from its parent.
func (t *Tree[K, V]) transplant(u, v int32) {
	p := t.at(u).parent
	if p == null {
		t.root = v
	} else {
		t.at(p).child[t.side(u)] = v
	}

	if v != null {
		t.at(v).parent = p
	}
}

// removeFixup restores black height after a black node was spliced out
// of parent's dir side, leaving x (possibly null) in its place.
func (t *Tree[K, V]) removeFixup(x, parent int32, dir int) {
	for parent != null {
		s := t.at(parent).child[1-dir]

		if t.colorOf(s) == red {
			t.rotate(parent, 1-dir)
			t.at(parent).color = red
			t.at(s).color = black
			s = t.at(parent).child[1-dir]
		}

		sn := t.at(s)
		near, far := sn.child[dir], sn.child[1-dir]

		if t.colorOf(near) == red && t.colorOf(far) == black {
			t.rotate(s, dir)
			t.at(near).color = black
			sn.color = red
			s = near
			sn = t.at(s)
			far = sn.child[1-dir]
		}

		if t.colorOf(far) == red {
			t.rotate(parent, 1-dir)
			sn.color = t.at(parent).color
			t.at(parent).color = black
			t.at(far).color = black

			return
		}

		if t.at(parent).color == red {
			t.at(parent).color = black
			sn.color = red

			return
		}

		sn.color = red
		x = parent
		parent = t.at(x).parent
		if parent != null {
			dir = t.side(x)
		}
	}

	if x != null {
		t.at(x).color = black
	}
}

func (t *Tree[K, V]) leftmost(i int32) int32 {
	for i != null {
		l := t.at(i).child[left]
		if l == null {
			break
		}
		i = l
	}

	return i
}

func (t *Tree[K, V]) rightmost(i int32) int32 {
	for i != null {
		r := t.at(i).child[right]
		if r == null {
			break
		}
		i = r
	}

	return i
}

func (t *Tree[K, V]) next(i int32) int32 {
	if r := t.at(i).child[right]; r != null {
		return t.leftmost(r)
	}

	for {
		p := t.at(i).parent
		if p == null || t.at(p).child[left] == i {
			return p
		}
		i = p
	}
}

func (t *Tree[K, V]) prev(i int32) int32 {
	if l := t.at(i).child[left]; l != null {
		return t.rightmost(l)
	}

	for {
		p := t.at(i).parent
		if p == null || t.at(p).child[right] == i {
			return p
		}
		i = p
	}
}

// Min returns the node with the smallest key.
func (t *Tree[K, V]) Min() Node[K, V] { return t.handle(t.leftmost(t.root)) }

// Max returns the node with the largest key.
func (t *Tree[K, V]) Max() Node[K, V] { return t.handle(t.rightmost(t.root)) }

// LowerBound returns the node with the greatest key <= key.
func (t *Tree[K, V]) LowerBound(key K) Node[K, V] {
	i, p := t.find(key)
	if i != null || p == null {
		return t.handle(i)
	}

	if t.cmp.Compare(key, t.at(p).key) > 0 {
		return t.handle(p)
	}

	return t.handle(t.prev(p))
}

// UpperBound returns the node with the least key >= key.
func (t *Tree[K, V]) UpperBound(key K) Node[K, V] {
	i, p := t.find(key)
	if i != null || p == null {
		return t.handle(i)
	}

	if t.cmp.Compare(key, t.at(p).key) < 0 {
		return t.handle(p)
	}

	return t.handle(t.next(p))
}

// AnyBound returns LowerBound(key), falling back to Min.
func (t *Tree[K, V]) AnyBound(key K) Node[K, V] {
	if n := t.LowerBound(key); n.Valid() {
		return n
	}

	return t.Min()
}

// All iterates over entries in ascending key order.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := t.leftmost(t.root); i != null; i = t.next(i) {
			n := t.at(i)
			if !yield(n.key, n.val) {
				return
			}
		}
	}
}

// Backward iterates over entries in descending key order.
func (t *Tree[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := t.rightmost(t.root); i != null; i = t.prev(i) {
			n := t.at(i)
			if !yield(n.key, n.val) {
				return
			}
		}
	}
}

// Destroy frees every node in post order, running destructors, and leaves
// the tree empty.
func (t *Tree[K, V]) Destroy() {
	t.destroy(t.root)
	t.arena.reset()
	t.root = null
	t.n = 0
}

func (t *Tree[K, V]) destroy(i int32) {
	if i == null {
		return
	}

	n := t.at(i)
	t.destroy(n.child[left])
	t.destroy(n.child[right])

	if t.opts.keyDestroy != nil {
		t.opts.keyDestroy(n.key)
	}
	if t.opts.valueDestroy != nil {
		t.opts.valueDestroy(n.val)
	}
}
