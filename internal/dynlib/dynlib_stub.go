//go:build !windows && !((linux || darwin || freebsd) && cgo)

package dynlib

var defaultLoader Loader = LoaderFunc(func(string) (Library, error) {
	return nil, ErrNotSupported
})

func procCaller(Symbol) (func(), bool) { return nil, false }
