// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framecache

// lruNode is an element of the recency list. It stores the key so the
// oldest entry can be removed from the shard map in O(1).
type lruNode struct {
	frame      int
	prev, next *lruNode
}

// lruList orders frames by recency: head is the most recently used.
// Not thread-safe; shards synchronize access.
type lruList struct {
	head, tail *lruNode
	len        int
}

func (l *lruList) pushFront(frame int) *lruNode {
	n := &lruNode{frame: frame, next: l.head}
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.len++
	return n
}

func (l *lruList) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}

func (l *lruList) moveToFront(n *lruNode) {
	if n == l.head {
		return
	}
	l.unlink(n)
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.len++
}

func (l *lruList) removeOldest() (int, bool) {
	if l.tail == nil {
		return 0, false
	}
	n := l.tail
	l.unlink(n)
	return n.frame, true
}
