package flow

// fifo is an unbounded first-in first-out queue.
type fifo struct {
	items []any
	head  int
}

func (q *fifo) len() int {
	return len(q.items) - q.head
}

func (q *fifo) push(v any) {
	q.items = append(q.items, v)
}

func (q *fifo) pop() (any, bool) {
	if q.head >= len(q.items) {
		return nil, false
	}
	v := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head > 64 && q.head*2 > len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v, true
}

// replace keeps v as the only element.
func (q *fifo) replace(v any) {
	q.reset()
	q.items = append(q.items, v)
}

func (q *fifo) reset() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}
