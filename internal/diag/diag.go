// Package diag reports programming errors through a swappable handler.
//
// A single process-wide slot holds the active Handler. It can be replaced at
// any time with SetHandler; the last write wins. The built-in handler logs the
// failure at ERROR level and panics, so misuse halts the offending goroutine
// unless something upstream recovers.
//
// Typical use is guarding preconditions that callers must never violate:
//
//	diag.Assert(!l.Linked(), "queue: push of a node that is already queued")
package diag

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
)

// Failure describes a violated precondition.
type Failure struct {
	Message string
	File    string
	Line    int
}

// Error implements error so a Failure can be recovered and inspected.
func (f Failure) Error() string {
	if f.File == "" {
		return "diag: " + f.Message
	}
	return fmt.Sprintf("diag: %s (%s:%d)", f.Message, f.File, f.Line)
}

// Handler receives every reported Failure.
//
// A handler that returns lets the caller continue; callers are written so
// that returning leaves their data structures consistent.
type Handler func(Failure)

var handler atomic.Pointer[Handler]

// SetHandler installs h as the process-wide failure handler.
// Passing nil restores the built-in fail-fast handler.
func SetHandler(h Handler) {
	if h == nil {
		handler.Store(nil)
		return
	}
	handler.Store(&h)
}

// Failf reports a Failure built from the format and the caller's location.
func Failf(format string, args ...any) {
	report(2, fmt.Sprintf(format, args...))
}

// Assert reports a Failure when cond is false.
func Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	report(2, fmt.Sprintf(format, args...))
}

func report(skip int, msg string) {
	f := Failure{Message: msg}
	if _, file, line, ok := runtime.Caller(skip); ok {
		f.File, f.Line = file, line
	}

	if h := handler.Load(); h != nil {
		(*h)(f)
		return
	}
	failFast(f)
}

func failFast(f Failure) {
	slog.Default().Error("assertion failed",
		"msg", f.Message,
		"file", f.File,
		"line", f.Line,
	)
	panic(f)
}
