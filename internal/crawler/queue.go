package crawler

// workQueue is an unbounded FIFO of paths awaiting consideration.
// It is owned by the scheduler goroutine and is not safe for concurrent use.
//
// Duplicates are allowed: the same path may be queued many times before it
// is first popped. Deduplication happens when the driver pops a path.
type workQueue struct {
	items []string
	head  int
}

// push appends paths to the tail.
func (q *workQueue) push(paths ...string) {
	q.items = append(q.items, paths...)
}

// peek returns the head without removing it. ok is false when empty.
func (q *workQueue) peek() (string, bool) {
	if q.len() == 0 {
		return "", false
	}
	return q.items[q.head], true
}

// pop removes and returns the head. ok is false when empty.
func (q *workQueue) pop() (string, bool) {
	path, ok := q.peek()
	if !ok {
		return "", false
	}
	q.items[q.head] = ""
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return path, true
}

// len returns the number of queued paths.
func (q *workQueue) len() int {
	return len(q.items) - q.head
}
