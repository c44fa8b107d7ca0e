//go:build darwin || linux || freebsd || netbsd || ios || android

package ffi

import (
	"github.com/ebitengine/purego"
)

// openLibrary loads a dynamic library on Unix-like systems
func openLibrary(path string) (uintptr, error) {
	const RTLD_LAZY = 0x1
	return purego.Dlopen(path, RTLD_LAZY)
}

// getSymbol retrieves a symbol from the loaded library
func getSymbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func closeLibrary(handle uintptr) error {
	return purego.Dlclose(handle)
}

// registerFunc binds fptr, a pointer to a Go func variable, to the C
// function at addr.
func registerFunc(fptr any, addr uintptr) {
	purego.RegisterFunc(fptr, addr)
}
