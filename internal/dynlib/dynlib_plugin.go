//go:build (linux || darwin || freebsd) && cgo

package dynlib

import (
	"fmt"
	"plugin"
	"sync"
)

var defaultLoader Loader = LoaderFunc(openPlugin)

// pluginLibrary wraps a Go plugin. The runtime never unloads plugins, so
// Close only stops further lookups through this handle.
type pluginLibrary struct {
	mu   sync.Mutex
	path string
	p    *plugin.Plugin
}

func openPlugin(path string) (Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dynlib: load %s: %w", path, err)
	}
	return &pluginLibrary{path: path, p: p}, nil
}

func (l *pluginLibrary) Symbol(name string) (Symbol, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.p == nil {
		return nil, ErrClosed
	}
	sym, err := l.p.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("dynlib: resolve %s in %s: %w", name, l.path, err)
	}
	return sym, nil
}

func (l *pluginLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.p == nil {
		return ErrClosed
	}
	l.p = nil
	return nil
}

func procCaller(Symbol) (func(), bool) { return nil, false }
