// Package dynlib loads externally compiled modules that supply task bodies.
//
// The capability is expressed as two small interfaces so scheduling code
// never depends on a platform loader directly:
//   - Loader: opens a module by path
//   - Library: resolves symbols and releases the module
//
// Backends are selected at build time:
//   - windows: LoadLibrary / GetProcAddress / FreeLibrary (golang.org/x/sys/windows)
//   - linux, darwin, freebsd with cgo: the plugin package (modules cannot be
//     unloaded; Close only invalidates the handle)
//   - everything else: Default returns a Loader that always fails with
//     ErrNotSupported
//
// Tests and embedders can supply their own Loader.
package dynlib

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported is returned when no loader backend exists for this build.
	ErrNotSupported = errors.New("dynlib: dynamic loading not supported on this platform")

	// ErrClosed is returned when using a Library after Close.
	ErrClosed = errors.New("dynlib: library is closed")

	// ErrSymbolType is returned when a symbol cannot be used as a task body.
	ErrSymbolType = errors.New("dynlib: symbol is not a task function")
)

// Symbol is a resolved symbol. Plugin backends return the plugin.Symbol
// value; the Windows backend returns the procedure address as a uintptr.
type Symbol any

// Library is an opened module.
type Library interface {
	// Symbol resolves an exported name.
	Symbol(name string) (Symbol, error)

	// Close releases the module. Symbols resolved earlier must not be used
	// afterwards.
	Close() error
}

// Loader opens modules.
type Loader interface {
	Load(path string) (Library, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (Library, error)

// Load calls f(path).
func (f LoaderFunc) Load(path string) (Library, error) { return f(path) }

// Default returns the loader backend compiled into this build.
func Default() Loader { return defaultLoader }

// TaskFunc resolves name in lib and returns it as a task body.
//
// Accepted symbol shapes are a func(), a *func() (an exported function
// variable), or a Windows procedure address, which is invoked with no
// arguments.
func TaskFunc(lib Library, name string) (func(), error) {
	sym, err := lib.Symbol(name)
	if err != nil {
		return nil, err
	}

	switch fn := sym.(type) {
	case func():
		return fn, nil
	case *func():
		if fn == nil || *fn == nil {
			return nil, fmt.Errorf("%w: %s is nil", ErrSymbolType, name)
		}
		return *fn, nil
	}

	if call, ok := procCaller(sym); ok {
		return call, nil
	}
	return nil, fmt.Errorf("%w: %s has type %T", ErrSymbolType, name, sym)
}
