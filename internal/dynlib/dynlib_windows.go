//go:build windows

package dynlib

import (
	"fmt"
	"sync"
	"syscall"

	"golang.org/x/sys/windows"
)

var defaultLoader Loader = LoaderFunc(openDLL)

type dllLibrary struct {
	mu     sync.Mutex
	path   string
	h      windows.Handle
	closed bool
}

func openDLL(path string) (Library, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("dynlib: load %s: %w", path, err)
	}
	return &dllLibrary{path: path, h: h}, nil
}

func (l *dllLibrary) Symbol(name string) (Symbol, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	proc, err := windows.GetProcAddress(l.h, name)
	if err != nil {
		return nil, fmt.Errorf("dynlib: resolve %s in %s: %w", name, l.path, err)
	}
	return proc, nil
}

func (l *dllLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	l.closed = true
	if err := windows.FreeLibrary(l.h); err != nil {
		return fmt.Errorf("dynlib: free %s: %w", l.path, err)
	}
	return nil
}

// procCaller turns a procedure address into a no-argument call.
func procCaller(sym Symbol) (func(), bool) {
	addr, ok := sym.(uintptr)
	if !ok || addr == 0 {
		return nil, false
	}
	return func() { _, _, _ = syscall.SyscallN(addr) }, true
}
