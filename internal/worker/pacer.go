package worker

import (
	"sync/atomic"
	_ "unsafe" // Required for go:linkname
)

// nanotime returns the runtime's monotonic clock in nanoseconds without
// building a time.Time.
//
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// pacer fires at most once per interval and reads the clock only every
// N calls, so a hot polling loop can ask "is it time?" for almost free.
//
// due is meant for a single polling goroutine; the timestamp is atomic so
// reset may be called from elsewhere.
type pacer struct {
	interval int64 // nanoseconds
	every    uint64
	count    uint64
	last     atomic.Int64
}

func newPacer(interval int64, every int) *pacer {
	if every < 1 {
		every = 1
	}
	p := &pacer{
		interval: interval,
		every:    uint64(every),
	}
	p.last.Store(nanotime())
	return p
}

// due reports whether the interval has elapsed since the last time it
// returned true. A pacer with a zero interval never fires.
func (p *pacer) due() bool {
	if p.interval <= 0 {
		return false
	}
	p.count++
	if p.count%p.every != 0 {
		return false
	}

	now := nanotime()
	last := p.last.Load()
	if now-last >= p.interval {
		return p.last.CompareAndSwap(last, now)
	}
	return false
}

func (p *pacer) reset() {
	p.last.Store(nanotime())
}
