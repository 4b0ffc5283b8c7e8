package dict

// entry is one key/value association. It is owned by the table and
// referenced from two places: its lookup position and the order list.
type entry[K, V any] struct {
	key  K
	val  V
	hash uint64

	prev, next *entry[K, V] // insertion order
	chain      *entry[K, V] // bucket chain, Chained only
}

// orderList is an intrusive doubly linked list of entries in insertion order.
type orderList[K, V any] struct {
	head, tail *entry[K, V]
	n          int
}

func (l *orderList[K, V]) pushBack(e *entry[K, V]) {
	e.next = nil
	e.prev = l.tail
	if l.tail != nil {
		l.tail.next = e
	} else {
		l.head = e
	}
	l.tail = e
	l.n++
}

func (l *orderList[K, V]) unlink(e *entry[K, V]) {
	switch {
	case e.prev == nil:
		l.head = e.next
		if l.head != nil {
			l.head.prev = nil
		} else {
			l.tail = nil
		}
	case e == l.tail:
		l.tail = e.prev
		l.tail.next = nil
	default:
		e.prev.next = e.next
		e.next.prev = e.prev
	}
	e.prev, e.next = nil, nil
	l.n--
}
