package glview

import (
	"fmt"

	"github.com/agiangrant/glview/internal/ffi"
)

// Engine is the set of entry points a native rendering engine exposes to the
// view. Every method is called on the render thread only.
type Engine interface {
	// HandleInit is called once each time a drawing surface becomes ready.
	// storagePath is a directory the engine may use for persistent data; it
	// is empty when no storage was configured.
	HandleInit(storagePath string)

	// HandleResize is called when the surface pixel size changes.
	HandleResize(width, height int)

	// HandleRedraw draws one frame. It runs after the task queue has been
	// drained for that frame.
	HandleRedraw()

	HandleMouseButtonDown(x, y int)
	HandleMouseButtonUp(x, y int)
	HandleMouseMove(x, y int)

	// HandleScroll reports a scroll gesture starting at (originX, originY).
	HandleScroll(originX, originY int, velocityX, velocityY float32)
}

// PointerHandler is implemented by engines that track multiple touch
// pointers. When present, every pointer is reported in addition to the
// mouse-style calls for the primary pointer.
type PointerHandler interface {
	HandlePointerButtonDown(x, y float32, pointerID int)
	HandlePointerButtonUp(x, y float32, pointerID int)
	HandlePointerMove(x, y float32, pointerID int)
}

// LongPressHandler is implemented by engines that want long-press gestures.
type LongPressHandler interface {
	HandleLongPress(x, y int)
}

// KineticScrollHandler is implemented by engines that want fling positions
// delivered once per frame while a fling is animating.
type KineticScrollHandler interface {
	HandleKineticScroll(x, y int)
}

// NativeEngine is an Engine backed by a dynamically loaded native library.
type NativeEngine struct {
	*ffi.Library
}

var (
	_ Engine               = (*NativeEngine)(nil)
	_ PointerHandler       = (*NativeEngine)(nil)
	_ LongPressHandler     = (*NativeEngine)(nil)
	_ KineticScrollHandler = (*NativeEngine)(nil)
)

// OpenEngine loads the native library described by cfg and binds its entry
// points.
func OpenEngine(cfg LibraryConfig) (*NativeEngine, error) {
	mode, err := ffi.ParseTransportMode(cfg.Transport)
	if err != nil {
		return nil, err
	}
	lib, err := ffi.Open(ffi.Options{
		Path:         cfg.Path,
		SymbolPrefix: cfg.SymbolPrefix,
		Transport:    mode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return &NativeEngine{Library: lib}, nil
}
