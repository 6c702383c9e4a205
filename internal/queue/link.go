package queue

type linkState uint8

const (
	detached linkState = iota
	queued
)

// Link is the queue-private part of a node. Embed it in the task type:
//
//	type Task struct {
//		queue.Link[*Task]
//		run func()
//	}
//
// The zero value is a detached link. All fields are owned by the queue
// while the node is queued and must not be touched by the caller.
type Link[T any] struct {
	next  *Link[T] // toward the tail
	prev  *Link[T] // toward the head
	node  T
	state linkState
}

// QueueLink returns l. Embedding Link makes the outer type a Node.
func (l *Link[T]) QueueLink() *Link[T] { return l }

// Linked reports whether the node currently sits in a queue.
//
// The answer is only stable while the caller owns the node, i.e. before
// pushing it or after popping it.
func (l *Link[T]) Linked() bool { return l.state == queued }

func (l *Link[T]) reset() {
	var zero T
	l.next = nil
	l.prev = nil
	l.node = zero
	l.state = detached
}

// Node is implemented by any type embedding Link[T] where T is the
// pointer type of the node itself.
type Node[T any] interface {
	QueueLink() *Link[T]
}
