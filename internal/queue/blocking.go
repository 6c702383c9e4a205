package queue

import (
	"log/slog"
	"sync"

	"github.com/randomizedcoder/workqueue/internal/diag"
)

// Option configures a Blocking queue.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for lifecycle warnings.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Blocking is an unbounded intrusive FIFO guarded by a mutex and a
// condition variable. Use NewBlocking; the zero value is not usable.
//
// A single mutex protects head, tail, the stop flag and the links of every
// queued node. Push signals one waiter, Stop broadcasts to all.
type Blocking[T Node[T]] struct {
	mu   sync.Mutex
	cond sync.Cond

	head *Link[T] // oldest, next to pop
	tail *Link[T] // newest
	n    int

	waiting    int
	stopped    bool
	lateWarned bool

	log *slog.Logger
}

// NewBlocking creates an empty, running queue.
func NewBlocking[T Node[T]](opts ...Option) *Blocking[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	q := &Blocking[T]{log: o.logger}
	q.cond.L = &q.mu
	return q
}

// Push links v at the tail and wakes one consumer blocked in Pop.
//
// v must be detached. Pushing a node that is already queued is reported
// through diag and leaves the queue unchanged.
func (q *Blocking[T]) Push(v T) {
	q.mu.Lock()
	r := q.linkLocked(v)
	q.mu.Unlock()

	q.afterLink(r)
}

// TryPush is Push without waiting: if the mutex is held by someone else it
// returns false immediately, leaving v untouched and waking nobody.
func (q *Blocking[T]) TryPush(v T) bool {
	if !q.mu.TryLock() {
		return false
	}
	r := q.linkLocked(v)
	q.mu.Unlock()

	q.afterLink(r)
	return r != rejected
}

// Pop removes and returns the head, waiting while the queue is empty and
// running. Returns false once Stop was called and every node was drained;
// callers must treat that as end-of-stream.
func (q *Blocking[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == nil && !q.stopped {
		q.waiting++
		q.cond.Wait()
		q.waiting--
	}
	return q.unlinkLocked()
}

// TryPop removes and returns the head if the mutex is free and a node is
// queued. A false result does not mean the queue is stopped.
func (q *Blocking[T]) TryPop() (T, bool) {
	if !q.mu.TryLock() {
		var zero T
		return zero, false
	}
	defer q.mu.Unlock()

	return q.unlinkLocked()
}

// Stop marks the queue stopped and wakes every goroutine blocked in Pop.
// Queued nodes are still returned in order; once the queue is empty, Pop
// returns false. Stop is idempotent and cannot be undone.
func (q *Blocking[T]) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Stopped reports whether Stop has been called.
func (q *Blocking[T]) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

// Len returns the number of queued nodes.
func (q *Blocking[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

type linkResult uint8

const (
	linked linkResult = iota
	linkedAfterStop
	rejected
)

// linkLocked appends v unless it is already queued.
func (q *Blocking[T]) linkLocked(v T) linkResult {
	l := v.QueueLink()
	if l.state != detached {
		return rejected
	}

	l.node = v
	l.state = queued
	l.prev = q.tail
	if q.tail != nil {
		q.tail.next = l
	} else {
		q.head = l
	}
	q.tail = l
	q.n++

	if q.stopped && !q.lateWarned {
		q.lateWarned = true
		return linkedAfterStop
	}
	return linked
}

// afterLink must run without the lock held: the diag handler may panic.
func (q *Blocking[T]) afterLink(r linkResult) {
	switch r {
	case rejected:
		diag.Failf("queue: push of a node that is already queued")
	case linkedAfterStop:
		q.cond.Signal()
		q.log.Warn("queue: push after stop; node will still be delivered")
	default:
		q.cond.Signal()
	}
}

func (q *Blocking[T]) unlinkLocked() (T, bool) {
	l := q.head
	if l == nil {
		var zero T
		return zero, false
	}

	q.head = l.next
	if q.head != nil {
		q.head.prev = nil
	} else {
		q.tail = nil
	}
	q.n--

	v := l.node
	l.reset()
	return v, true
}
