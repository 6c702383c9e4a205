package queue

import "fmt"

// Hold locks q from the calling goroutine and returns the unlock func.
func (q *Blocking[T]) Hold() (release func()) {
	q.mu.Lock()
	return q.mu.Unlock
}

// Waiting returns the number of goroutines parked in Pop.
func (q *Blocking[T]) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiting
}

// Check walks the list in both directions and verifies its invariants.
func (q *Blocking[T]) Check() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if (q.head == nil) != (q.tail == nil) {
		return fmt.Errorf("head nil=%v but tail nil=%v", q.head == nil, q.tail == nil)
	}

	count := 0
	var prev *Link[T]
	for l := q.head; l != nil; l = l.next {
		if count > q.n {
			return fmt.Errorf("forward walk exceeds length %d (cycle?)", q.n)
		}
		if l.prev != prev {
			return fmt.Errorf("node %d: prev link does not point at predecessor", count)
		}
		if l.state != queued {
			return fmt.Errorf("node %d: state is not queued", count)
		}
		prev = l
		count++
	}
	if prev != q.tail {
		return fmt.Errorf("forward walk does not end at tail")
	}
	if count != q.n {
		return fmt.Errorf("forward walk found %d nodes, length is %d", count, q.n)
	}

	back := 0
	for l := q.tail; l != nil; l = l.prev {
		back++
		if back > q.n {
			return fmt.Errorf("backward walk exceeds length %d (cycle?)", q.n)
		}
	}
	if back != q.n {
		return fmt.Errorf("backward walk found %d nodes, length is %d", back, q.n)
	}
	return nil
}
