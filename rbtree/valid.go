package rbtree

// IsValid checks the red-black and search-tree invariants: the root is
// black, no red node has a red child, every root-to-leaf path has the same
// number of black nodes, keys are ordered, parent links agree with child
// links, and the node count matches Len.
func (t *Tree[K, V]) IsValid() bool {
	if t.root == null {
		return t.n == 0
	}

	if t.at(t.root).color != black || t.at(t.root).parent != null {
		return false
	}

	count := 0
	want := -1

	var walk func(i int32, blacks int) bool
	walk = func(i int32, blacks int) bool {
		if i == null {
			if want < 0 {
				want = blacks
			}

			return want == blacks
		}

		count++
		n := t.at(i)

		if n.color == red && (t.colorOf(n.child[left]) == red || t.colorOf(n.child[right]) == red) {
			return false
		}

		if l := n.child[left]; l != null {
			if t.at(l).parent != i || t.cmp.Compare(t.at(l).key, n.key) >= 0 {
				return false
			}
		}

		if r := n.child[right]; r != null {
			if t.at(r).parent != i || t.cmp.Compare(t.at(r).key, n.key) <= 0 {
				return false
			}
		}

		if n.color == black {
			blacks++
		}

		return walk(n.child[left], blacks) && walk(n.child[right], blacks)
	}

	if !walk(t.root, 0) {
		return false
	}

	if count != t.n {
		return false
	}

	// Local order checks miss violations across subtrees.
	first := true

	var last K

	for k := range t.All() {
		if !first && t.cmp.Compare(last, k) >= 0 {
			return false
		}
		first, last = false, k
	}

	return true
}
