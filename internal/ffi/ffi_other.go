//go:build !(darwin || linux || freebsd || netbsd || ios || android || windows)

package ffi

import (
	"errors"
	"fmt"
	"runtime"
)

// errUnsupported is returned on platforms purego cannot load libraries on.
var errUnsupported = fmt.Errorf("ffi: dynamic loading not supported on %s: %w", runtime.GOOS, errors.ErrUnsupported)

func openLibrary(path string) (uintptr, error) {
	return 0, errUnsupported
}

func getSymbol(handle uintptr, name string) (uintptr, error) {
	return 0, errUnsupported
}

func closeLibrary(handle uintptr) error {
	return errUnsupported
}

func registerFunc(fptr any, addr uintptr) {}
