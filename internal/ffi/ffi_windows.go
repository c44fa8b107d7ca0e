//go:build windows

package ffi

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

var (
	winDLLs  = map[uintptr]*windows.DLL{}
	winDLLMu sync.Mutex
)

// openLibrary loads a dynamic library on Windows
func openLibrary(path string) (uintptr, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return 0, fmt.Errorf("LoadDLL failed: %w", err)
	}
	handle := uintptr(dll.Handle)
	winDLLMu.Lock()
	winDLLs[handle] = dll
	winDLLMu.Unlock()
	return handle, nil
}

// getSymbol retrieves a symbol from the loaded library on Windows
func getSymbol(handle uintptr, name string) (uintptr, error) {
	winDLLMu.Lock()
	dll := winDLLs[handle]
	winDLLMu.Unlock()
	if dll == nil {
		return 0, ErrNotLoaded
	}
	proc, err := dll.FindProc(name)
	if err != nil {
		return 0, fmt.Errorf("FindProc(%s) failed: %w", name, err)
	}
	return proc.Addr(), nil
}

func closeLibrary(handle uintptr) error {
	winDLLMu.Lock()
	dll := winDLLs[handle]
	delete(winDLLs, handle)
	winDLLMu.Unlock()
	if dll == nil {
		return ErrNotLoaded
	}
	return dll.Release()
}

func registerFunc(fptr any, addr uintptr) {
	purego.RegisterFunc(fptr, addr)
}
