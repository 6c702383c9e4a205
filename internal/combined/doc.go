// Package combined provides hand-off benchmarks that exercise the work
// queue together with its consumers.
//
// These benchmarks are more representative of real-world performance
// than isolated micro-benchmarks: they include wake-ups of parked
// consumers, lock contention between producers, and the cost of the
// real-time poller's yield loop.
package combined
