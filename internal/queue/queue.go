// Package queue provides the work queue used to hand tasks between
// producer and consumer goroutines.
//
// The main implementation, Blocking, is an unbounded intrusive FIFO:
// callers embed a Link in their task type and the queue threads tasks
// together through those links without allocating.
//
// # Operations
//
//   - Push: links a task at the tail, blocking only on the internal mutex
//   - TryPush: same, but gives up immediately if the mutex is held
//   - Pop: removes the head, waiting while the queue is empty
//   - TryPop: removes the head if the mutex is free and a task is queued
//   - Stop: wakes every waiter; Pop drains what is left, then reports
//     end-of-stream forever
//
// # Real-time callers
//
// TryPush and TryPop never wait. A false result means "not now": the queue
// may be empty, stopped, or simply contended. Goroutines that must not stall
// use them and decide their own retry policy.
//
// # Lifecycle
//
//	Running  --Stop-->  Draining (tasks left)  --last Pop-->  Stopped
//
// Pushing after Stop is accepted; the task is still delivered to a
// subsequent Pop. The first such push logs a warning.
package queue

// Queue is a multi-producer multi-consumer work queue of intrusive nodes.
//
// Implementations must be safe for concurrent use by any number of
// goroutines.
type Queue[T any] interface {
	// Push enqueues v at the tail and wakes one waiting consumer.
	Push(v T)

	// TryPush enqueues v only if it can do so without waiting.
	// Returns false if nothing happened.
	TryPush(v T) bool

	// Pop dequeues the oldest node, waiting while the queue is empty.
	// Returns false once the queue is stopped and drained.
	Pop() (T, bool)

	// TryPop dequeues the oldest node without waiting.
	// Returns false if no node could be taken right now.
	TryPop() (T, bool)

	// Stop releases all waiters. Safe to call multiple times.
	Stop()
}
