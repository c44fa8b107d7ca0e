package glview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"
)

// View connects a host window to an Engine. Input arriving on any goroutine
// is queued and handed to the engine on the render thread at the start of
// the next frame.
type View struct {
	engine   Engine
	config   Config
	logger   *slog.Logger
	now      func() time.Time
	surface  *Surface
	queue    *TaskQueue
	gestures *GestureDetector
	scroller *Scroller

	mu       sync.Mutex
	pointers map[int]pointerState
	primary  int
}

// Option configures a View.
type Option func(*View)

// WithConfig sets the storage path and input tuning.
func WithConfig(cfg Config) Option {
	return func(v *View) { v.config = cfg }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(v *View) { v.logger = logger }
}

// WithSurface renders into an existing surface handle.
func WithSurface(s *Surface) Option {
	return func(v *View) { v.surface = s }
}

// WithClock replaces time.Now for event timestamps and fling animation.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

// NewView returns a view driving engine.
func NewView(engine Engine, opts ...Option) *View {
	v := &View{
		engine:   engine,
		config:   DefaultConfig(),
		now:      time.Now,
		pointers: make(map[int]pointerState),
		primary:  -1,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if v.surface == nil {
		v.surface = NewSurface()
	}
	v.queue = NewTaskQueue(v.surface)
	v.scroller = NewScroller(v.config.Input.Density, v.now)
	v.gestures = NewGestureDetector(v.config.Input, gestureHandler{v})
	return v
}

// Surface returns the surface the view renders into.
func (v *View) Surface() *Surface {
	return v.surface
}

// Pending returns the number of queued actions not yet run.
func (v *View) Pending() int {
	return v.queue.Len()
}

// Run drives the render loop until ctx is done. It must be called from the
// goroutine that owns the drawing context.
func (v *View) Run(ctx context.Context) error {
	return v.surface.Run(ctx, renderer{v})
}

// OnUIThread schedules fn to run on the render thread before the next
// frame is drawn.
func (v *View) OnUIThread(fn func()) {
	v.queue.Enqueue(fn)
}

// Send delivers a host event. It accepts the golang.org/x/mobile event
// types and is safe to call from any goroutine.
func (v *View) Send(e any) {
	switch e := e.(type) {
	case lifecycle.Event:
		switch e.Crosses(lifecycle.StageVisible) {
		case lifecycle.CrossOn:
			v.logger.Debug("surface visible")
			v.surface.Created()
		case lifecycle.CrossOff:
			v.logger.Debug("surface hidden")
			v.surface.Destroyed()
		}
	case size.Event:
		v.surface.Resized(e.WidthPx, e.HeightPx)
	case paint.Event:
		v.surface.RequestRender()
	case touch.Event:
		v.Touch(MotionEvent{
			Action:    touchAction(e.Type),
			X:         e.X,
			Y:         e.Y,
			PointerID: int(e.Sequence),
			Time:      v.now(),
		})
	default:
		v.logger.Debug("ignoring event", "type", fmt.Sprintf("%T", e))
	}
}

func touchAction(t touch.Type) Action {
	switch t {
	case touch.TypeBegin:
		return ActionDown
	case touch.TypeEnd:
		return ActionUp
	default:
		return ActionMove
	}
}

// Touch queues one pointer event. The first pointer down in a gesture is
// the primary pointer: it alone drives the mouse-style entry points and
// gesture recognition. Moves and ups of pointers that are not down are
// dropped. A cancel releases every pointer that is down.
func (v *View) Touch(e MotionEvent) {
	v.mu.Lock()
	_, down := v.pointers[e.PointerID]
	primary := down && e.PointerID == v.primary
	var released []pointerState
	switch e.Action {
	case ActionDown:
		if len(v.pointers) == 0 {
			v.primary = e.PointerID
		}
		primary = e.PointerID == v.primary
		down = true
		v.pointers[e.PointerID] = pointerState{id: e.PointerID, x: e.X, y: e.Y}
	case ActionMove:
		if down {
			v.pointers[e.PointerID] = pointerState{id: e.PointerID, x: e.X, y: e.Y}
		}
	case ActionUp:
		delete(v.pointers, e.PointerID)
		if primary {
			v.primary = -1
		}
	case ActionCancel:
		for _, id := range slices.Sorted(maps.Keys(v.pointers)) {
			p := v.pointers[id]
			p.primary = id == v.primary
			released = append(released, p)
		}
		clear(v.pointers)
		v.primary = -1
	}
	v.mu.Unlock()

	// Releases reach the detector first, so a long press racing the release
	// is queued ahead of it or not at all.
	if (e.Action == ActionUp && primary) || e.Action == ActionCancel {
		v.gestures.OnTouchEvent(e)
	}

	if e.Action == ActionCancel {
		v.release(released)
		return
	}
	if !down {
		return
	}

	x, y := int(e.X), int(e.Y)
	if primary {
		switch e.Action {
		case ActionDown:
			v.queue.Enqueue(func() { v.engine.HandleMouseButtonDown(x, y) })
		case ActionMove:
			v.queue.Enqueue(func() { v.engine.HandleMouseMove(x, y) })
		case ActionUp:
			v.queue.Enqueue(func() { v.engine.HandleMouseButtonUp(x, y) })
		}
	}

	if ph, ok := v.engine.(PointerHandler); ok {
		id := e.PointerID
		switch e.Action {
		case ActionDown:
			v.queue.Enqueue(func() { ph.HandlePointerButtonDown(e.X, e.Y, id) })
		case ActionMove:
			v.queue.Enqueue(func() { ph.HandlePointerMove(e.X, e.Y, id) })
		case ActionUp:
			v.queue.Enqueue(func() { ph.HandlePointerButtonUp(e.X, e.Y, id) })
		}
	}

	if primary && (e.Action == ActionDown || e.Action == ActionMove) {
		v.gestures.OnTouchEvent(e)
	}
}

type pointerState struct {
	id      int
	x, y    float32
	primary bool
}

// release queues ups for cancelled pointers at their last known positions.
func (v *View) release(pointers []pointerState) {
	if len(pointers) == 0 {
		return
	}
	ph, hasPointers := v.engine.(PointerHandler)
	v.queue.Enqueue(func() {
		for _, p := range pointers {
			if p.primary {
				v.engine.HandleMouseButtonUp(int(p.x), int(p.y))
			}
			if hasPointers {
				ph.HandlePointerButtonUp(p.x, p.y, p.id)
			}
		}
	})
}

// renderer adapts a View to the Surface callbacks.
type renderer struct {
	v *View
}

func (r renderer) SurfaceCreated() {
	r.v.logger.Info("surface created", "storage", r.v.config.Storage.Path)
	r.v.engine.HandleInit(r.v.config.Storage.Path)
}

func (r renderer) SurfaceChanged(width, height int) {
	r.v.logger.Info("surface changed", "width", width, "height", height)
	r.v.engine.HandleResize(width, height)
}

func (r renderer) DrawFrame() {
	v := r.v
	if n := v.queue.DrainAndExecute(); n > 0 {
		v.logger.Debug("drained", "actions", n)
	}

	if v.scroller.ComputeScrollOffset() {
		if ks, ok := v.engine.(KineticScrollHandler); ok {
			ks.HandleKineticScroll(v.scroller.CurrX(), v.scroller.CurrY())
		}
		v.engine.HandleRedraw()
		v.surface.RequestRender()
		return
	}
	v.engine.HandleRedraw()
}

// gestureHandler turns recognized gestures into queued engine calls. The
// scroller is only touched from queued actions, which run on the render
// thread.
type gestureHandler struct {
	v *View
}

func (g gestureHandler) OnDown(e MotionEvent) {
	g.v.queue.Enqueue(func() { g.v.scroller.ForceFinished(true) })
}

func (g gestureHandler) OnScroll(down, current MotionEvent, distanceX, distanceY float32) {
	x, y := int(down.X), int(down.Y)
	g.v.queue.Enqueue(func() { g.v.engine.HandleScroll(x, y, distanceX, distanceY) })
}

func (g gestureHandler) OnFling(down, up MotionEvent, velocityX, velocityY float32) {
	x, y := int(down.X), int(down.Y)
	limit := g.v.config.Input.MaxFlingDistance
	if limit <= 0 {
		limit = DefaultInputConfig().MaxFlingDistance
	}
	g.v.logger.Debug("fling", "vx", velocityX, "vy", velocityY)
	g.v.queue.Enqueue(func() {
		g.v.scroller.Fling(x, y, velocityX, velocityY, 0, limit, 0, limit)
	})
}

func (g gestureHandler) OnLongPress(e MotionEvent) {
	lp, ok := g.v.engine.(LongPressHandler)
	if !ok {
		return
	}
	x, y := int(e.X), int(e.Y)
	g.v.queue.Enqueue(func() { lp.HandleLongPress(x, y) })
}
