// Package ffi binds the native engine's surface entry points via purego.
// The library is loaded at runtime, so no CGo toolchain is needed and the
// same binary works with any engine exporting the expected symbols.
package ffi

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// LibraryPathEnv overrides the library search when set.
const LibraryPathEnv = "GLVIEW_LIB_PATH"

// DefaultSymbolPrefix is prepended to every entry point name.
const DefaultSymbolPrefix = "glview_"

var (
	// ErrNotLoaded is returned when an operation needs a library that was
	// closed or never opened.
	ErrNotLoaded = errors.New("ffi: library not loaded")

	// ErrMissingSymbol is returned by Open when a required entry point is
	// not exported by the library.
	ErrMissingSymbol = errors.New("ffi: missing required symbol")
)

// Options configures Open.
type Options struct {
	// Path to the shared library. Empty means: $GLVIEW_LIB_PATH, then the
	// usual search locations.
	Path string

	// SymbolPrefix is prepended to entry point names (default "glview_").
	SymbolPrefix string

	Transport TransportMode

	Logger *slog.Logger
}

// Library is a loaded engine library. Its Handle* methods are not safe for
// concurrent use; the view only calls them from the render thread.
type Library struct {
	path   string
	prefix string
	handle uintptr
	mode   TransportMode
	logger *slog.Logger

	mu       sync.Mutex
	resolved []string
	missing  []string

	batch    *batchTransport
	batchErr error

	// Required entry points.
	fnInit      func(storagePath uintptr)
	fnResize    func(width, height int32)
	fnRedraw    func()
	fnMouseDown func(x, y int32)
	fnMouseUp   func(x, y int32)
	fnMouseMove func(x, y int32)
	fnScroll    func(originX, originY int32, velocityX, velocityY float32)

	// Optional entry points. Nil when the library does not export them.
	fnPointerDown   func(x, y float32, pointerID int32)
	fnPointerUp     func(x, y float32, pointerID int32)
	fnPointerMove   func(x, y float32, pointerID int32)
	fnLongPress     func(x, y int32)
	fnKineticScroll func(x, y int32)
	fnExecuteBatch  func(requestPtr, requestLen, responsePtr, responseCapacity, responseLenOut uintptr) int32
}

// Report describes which entry points a library exports.
type Report struct {
	Path     string
	Resolved []string
	Missing  []string
}

// OK reports whether all required entry points were found.
func (r Report) OK() bool {
	for _, name := range r.Missing {
		if Required(name) {
			return false
		}
	}
	return true
}

type symbol struct {
	name     string
	fn       any
	required bool
}

func (l *Library) symbols() []symbol {
	return []symbol{
		{"handle_init", &l.fnInit, true},
		{"handle_resize", &l.fnResize, true},
		{"handle_redraw", &l.fnRedraw, true},
		{"handle_mouse_button_down", &l.fnMouseDown, true},
		{"handle_mouse_button_up", &l.fnMouseUp, true},
		{"handle_mouse_move", &l.fnMouseMove, true},
		{"handle_scroll", &l.fnScroll, true},
		{"handle_pointer_button_down", &l.fnPointerDown, false},
		{"handle_pointer_button_up", &l.fnPointerUp, false},
		{"handle_pointer_move", &l.fnPointerMove, false},
		{"handle_long_press", &l.fnLongPress, false},
		{"handle_kinetic_scroll", &l.fnKineticScroll, false},
		{"execute_batch", &l.fnExecuteBatch, false},
	}
}

// Required reports whether the unprefixed name is a required entry point.
func Required(name string) bool {
	for _, s := range (&Library{}).symbols() {
		if s.name == name {
			return s.required
		}
	}
	return false
}

// Open loads the library and binds its entry points. It fails if any
// required entry point is missing, or if batch transport is requested and
// the library has no batch entry point.
func Open(opts Options) (*Library, error) {
	l, err := load(opts)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range l.missing {
		if Required(name) {
			missing = append(missing, l.prefix+name)
		}
	}
	if l.mode == TransportBatch && l.fnExecuteBatch == nil {
		missing = append(missing, l.prefix+"execute_batch")
	}
	if len(missing) > 0 {
		l.Close()
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingSymbol, strings.Join(missing, ", "), l.path)
	}

	if l.mode == TransportBatch {
		l.batch = newBatchTransport(l.executeBatch)
	}
	l.logger.Info("ffi: engine library loaded", "path", l.path, "transport", l.mode, "symbols", len(l.resolved))
	return l, nil
}

// Probe loads the library, records which entry points it exports and closes
// it again. Missing symbols are reported, not returned as errors.
func Probe(opts Options) (Report, error) {
	l, err := load(opts)
	if err != nil {
		return Report{}, err
	}
	defer l.Close()
	return Report{Path: l.path, Resolved: l.resolved, Missing: l.missing}, nil
}

func load(opts Options) (*Library, error) {
	if opts.SymbolPrefix == "" {
		opts.SymbolPrefix = DefaultSymbolPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	path := libraryPath(opts.Path)
	opts.Logger.Debug("ffi: loading engine library", "path", path, "goos", runtime.GOOS, "goarch", runtime.GOARCH)

	handle, err := openLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine library from %s: %w", path, err)
	}

	l := &Library{
		path:   path,
		prefix: opts.SymbolPrefix,
		handle: handle,
		mode:   opts.Transport,
		logger: opts.Logger,
	}
	for _, s := range l.symbols() {
		addr, err := getSymbol(handle, opts.SymbolPrefix+s.name)
		if err != nil || addr == 0 {
			l.missing = append(l.missing, s.name)
			continue
		}
		registerFunc(s.fn, addr)
		l.resolved = append(l.resolved, s.name)
	}
	return l, nil
}

// libraryName returns the platform file name of the engine library.
func libraryName() string {
	switch runtime.GOOS {
	case "darwin", "ios":
		return "libglview_engine.dylib"
	case "windows":
		return "glview_engine.dll"
	default:
		return "libglview_engine.so"
	}
}

// libraryPath resolves the library location: explicit path, then the
// environment, then the working directory and the executable's directory.
func libraryPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if path := os.Getenv(LibraryPathEnv); path != "" {
		return path
	}

	libName := libraryName()
	searchPaths := []string{
		libName,
		filepath.Join("engine", "target", "release", libName),
		filepath.Join("engine", "target", "debug", libName),
	}
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		searchPaths = append(searchPaths,
			filepath.Join(execDir, libName),
			filepath.Join(execDir, "..", "lib", libName),
		)
		if runtime.GOOS == "ios" || runtime.GOOS == "darwin" {
			searchPaths = append(searchPaths,
				filepath.Join(execDir, "Frameworks", libName),
				filepath.Join(execDir, "..", "Frameworks", libName),
			)
		}
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}

	// Let the dynamic loader search its own paths.
	return libName
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Mode returns the transport the library was opened with.
func (l *Library) Mode() TransportMode {
	return l.mode
}

// Err returns the first error reported by a batch flush, if any.
func (l *Library) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.batchErr
}

// Close unloads the library. Entry points must not be called afterwards.
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := closeLibrary(l.handle)
	l.handle = 0
	return err
}

// ============================================================================
// Entry points
// ============================================================================

func (l *Library) HandleInit(storagePath string) {
	l.flush()
	b := append([]byte(storagePath), 0)
	l.fnInit(uintptr(unsafe.Pointer(&b[0])))
	runtime.KeepAlive(b)
}

func (l *Library) HandleResize(width, height int) {
	l.flush()
	l.fnResize(int32(width), int32(height))
}

// HandleRedraw flushes any batched input and draws the frame.
func (l *Library) HandleRedraw() {
	l.flush()
	l.fnRedraw()
}

func (l *Library) HandleMouseButtonDown(x, y int) {
	if l.batch != nil {
		l.batch.Add(CmdMouseButtonDown, encodePoint(x, y))
		return
	}
	l.fnMouseDown(int32(x), int32(y))
}

func (l *Library) HandleMouseButtonUp(x, y int) {
	if l.batch != nil {
		l.batch.Add(CmdMouseButtonUp, encodePoint(x, y))
		return
	}
	l.fnMouseUp(int32(x), int32(y))
}

func (l *Library) HandleMouseMove(x, y int) {
	if l.batch != nil {
		l.batch.Add(CmdMouseMove, encodePoint(x, y))
		return
	}
	l.fnMouseMove(int32(x), int32(y))
}

func (l *Library) HandleScroll(originX, originY int, velocityX, velocityY float32) {
	if l.batch != nil {
		l.batch.Add(CmdScroll, encodeScroll(originX, originY, velocityX, velocityY))
		return
	}
	l.fnScroll(int32(originX), int32(originY), velocityX, velocityY)
}

// HandlePointerButtonDown is a no-op when the library does not export it.
func (l *Library) HandlePointerButtonDown(x, y float32, pointerID int) {
	l.pointer(CmdPointerButtonDown, l.fnPointerDown, x, y, pointerID)
}

func (l *Library) HandlePointerButtonUp(x, y float32, pointerID int) {
	l.pointer(CmdPointerButtonUp, l.fnPointerUp, x, y, pointerID)
}

func (l *Library) HandlePointerMove(x, y float32, pointerID int) {
	l.pointer(CmdPointerMove, l.fnPointerMove, x, y, pointerID)
}

func (l *Library) pointer(cmd CommandType, fn func(x, y float32, pointerID int32), x, y float32, pointerID int) {
	if fn == nil {
		return
	}
	if l.batch != nil {
		l.batch.Add(cmd, encodePointer(x, y, pointerID))
		return
	}
	fn(x, y, int32(pointerID))
}

func (l *Library) HandleLongPress(x, y int) {
	if l.fnLongPress == nil {
		return
	}
	if l.batch != nil {
		l.batch.Add(CmdLongPress, encodePoint(x, y))
		return
	}
	l.fnLongPress(int32(x), int32(y))
}

func (l *Library) HandleKineticScroll(x, y int) {
	if l.fnKineticScroll == nil {
		return
	}
	if l.batch != nil {
		l.batch.Add(CmdKineticScroll, encodePoint(x, y))
		return
	}
	l.fnKineticScroll(int32(x), int32(y))
}

// flush sends batched commands ahead of a direct call so the engine sees
// every call in the order it was made.
func (l *Library) flush() {
	if l.batch == nil || l.batch.Pending() == 0 {
		return
	}
	if err := l.batch.Flush(); err != nil {
		l.logger.Error("ffi: batch flush failed", "error", err)
		l.mu.Lock()
		if l.batchErr == nil {
			l.batchErr = err
		}
		l.mu.Unlock()
	}
}

// executeBatch hands the request buffer to the library and reports how many
// response bytes were written.
func (l *Library) executeBatch(request, response []byte) (int, int32) {
	var responseLen uintptr
	result := l.fnExecuteBatch(
		uintptr(unsafe.Pointer(&request[0])),
		uintptr(len(request)),
		uintptr(unsafe.Pointer(&response[0])),
		uintptr(len(response)),
		uintptr(unsafe.Pointer(&responseLen)),
	)
	runtime.KeepAlive(request)
	runtime.KeepAlive(response)
	return int(responseLen), result
}
