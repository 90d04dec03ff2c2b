package cache

// lruList is an intrusive doubly linked list of keys with a sentinel
// root. The front holds the most recently used key, the back the
// oldest.
type lruList[K comparable] struct {
	root lruNode[K]
	len  int
}

// lruNode is one list element. A node outside any list has nil links.
type lruNode[K comparable] struct {
	key        K
	prev, next *lruNode[K]
}

func newLRUList[K comparable]() *lruList[K] {
	l := &lruList[K]{}
	l.root.prev = &l.root
	l.root.next = &l.root
	return l
}

// Len returns the number of elements in the list.
func (l *lruList[K]) Len() int { return l.len }

// PushFront inserts key at the front and returns its node.
func (l *lruList[K]) PushFront(key K) *lruNode[K] {
	n := &lruNode[K]{key: key}
	l.insert(n, &l.root)
	return n
}

// insert links n after at.
func (l *lruList[K]) insert(n, at *lruNode[K]) {
	n.prev = at
	n.next = at.next
	n.prev.next = n
	n.next.prev = n
	l.len++
}

// Remove unlinks n from the list. Nil nodes and nodes already removed
// are ignored.
func (l *lruList[K]) Remove(n *lruNode[K]) {
	if n == nil || n.next == nil {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	l.len--
}

// MoveToFront makes n the most recently used node.
func (l *lruList[K]) MoveToFront(n *lruNode[K]) {
	if n == nil || n.next == nil || l.root.next == n {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	l.len--
	l.insert(n, &l.root)
}

// Oldest returns the key at the back without removing it.
func (l *lruList[K]) Oldest() (K, bool) {
	if l.len == 0 {
		var zero K
		return zero, false
	}
	return l.root.prev.key, true
}

// RemoveOldest unlinks and returns the key at the back.
func (l *lruList[K]) RemoveOldest() (K, bool) {
	if l.len == 0 {
		var zero K
		return zero, false
	}
	n := l.root.prev
	key := n.key
	l.Remove(n)
	return key, true
}

// Clear resets the list to empty. Nodes previously handed out become
// detached and are ignored by later operations.
func (l *lruList[K]) Clear() {
	for n := l.root.next; n != &l.root; {
		next := n.next
		n.prev = nil
		n.next = nil
		n = next
	}
	l.root.prev = &l.root
	l.root.next = &l.root
	l.len = 0
}
