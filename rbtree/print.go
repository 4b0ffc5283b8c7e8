package rbtree

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

// Print renders the tree sideways, one node per line: the right subtree
// above its parent, the left subtree below, each level indented by the
// width of its ancestors' labels.
func (t *Tree[K, V]) Print(w io.Writer, label func(Node[K, V]) string) error {
	bw := bufio.NewWriter(w)

	var walk func(i int32, indent int)
	walk = func(i int32, indent int) {
		if i == null {
			return
		}

		s := label(t.handle(i))
		width := utf8.RuneCountInString(s)

		walk(t.at(i).child[right], indent+width)
		bw.WriteString(strings.Repeat(" ", indent))
		bw.WriteString(s)
		bw.WriteByte('\n')
		walk(t.at(i).child[left], indent+width)
	}

	walk(t.root, 0)

	return bw.Flush()
}
