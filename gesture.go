package glview

import (
	"math"
	"sync"
	"time"
)

// Action is the kind of a MotionEvent.
type Action int

const (
	ActionDown Action = iota
	ActionMove
	ActionUp
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionMove:
		return "move"
	case ActionUp:
		return "up"
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// MotionEvent is one pointer sample in surface pixel coordinates.
type MotionEvent struct {
	Action    Action
	X, Y      float32
	PointerID int
	Time      time.Time
}

// GestureListener receives recognized gestures. OnLongPress is called from
// a timer goroutine with the detector locked, so it must not feed the
// detector; the others from the goroutine calling OnTouchEvent.
type GestureListener interface {
	OnDown(e MotionEvent)

	// OnScroll reports movement since the previous scroll event. distanceX
	// and distanceY are previous minus current position.
	OnScroll(down, current MotionEvent, distanceX, distanceY float32)

	// OnFling reports a release with velocity in pixels per second.
	OnFling(down, up MotionEvent, velocityX, velocityY float32)

	OnLongPress(e MotionEvent)
}

// GestureDetector recognizes scroll, fling and long-press gestures from a
// single pointer's events.
type GestureDetector struct {
	listener GestureListener

	touchSlop        float32
	minFlingVelocity float32
	maxFlingVelocity float32
	longPressTimeout time.Duration

	mu          sync.Mutex
	tracker     VelocityTracker
	down        MotionEvent
	lastX       float32
	lastY       float32
	pressed     bool
	scrolling   bool
	longPressed bool
	timer       *time.Timer
	generation  uint64
}

// NewGestureDetector returns a detector with thresholds from cfg.
func NewGestureDetector(cfg InputConfig, listener GestureListener) *GestureDetector {
	density := cfg.Density
	if density <= 0 {
		density = 1
	}
	return &GestureDetector{
		listener:         listener,
		touchSlop:        cfg.TouchSlop * density,
		minFlingVelocity: cfg.MinFlingVelocity * density,
		maxFlingVelocity: cfg.MaxFlingVelocity * density,
		longPressTimeout: time.Duration(cfg.LongPressTimeoutMs) * time.Millisecond,
	}
}

// OnTouchEvent feeds one event of the tracked pointer.
func (d *GestureDetector) OnTouchEvent(e MotionEvent) {
	var notify func()

	d.mu.Lock()
	switch e.Action {
	case ActionDown:
		d.cancelLongPress()
		d.tracker.Clear()
		d.tracker.Add(e)
		d.down = e
		d.lastX, d.lastY = e.X, e.Y
		d.pressed = true
		d.scrolling = false
		d.longPressed = false
		if d.longPressTimeout > 0 {
			gen := d.generation
			d.timer = time.AfterFunc(d.longPressTimeout, func() { d.fireLongPress(gen) })
		}
		notify = func() { d.listener.OnDown(e) }

	case ActionMove:
		if !d.pressed || d.longPressed {
			break
		}
		d.tracker.Add(e)
		distanceX, distanceY := d.lastX-e.X, d.lastY-e.Y
		if !d.scrolling {
			dx, dy := e.X-d.down.X, e.Y-d.down.Y
			if dx*dx+dy*dy <= d.touchSlop*d.touchSlop {
				break
			}
			d.scrolling = true
			d.cancelLongPress()
		} else if distanceX == 0 && distanceY == 0 {
			break
		}
		d.lastX, d.lastY = e.X, e.Y
		down := d.down
		notify = func() { d.listener.OnScroll(down, e, distanceX, distanceY) }

	case ActionUp:
		if !d.pressed {
			break
		}
		d.cancelLongPress()
		d.tracker.Add(e)
		if d.scrolling && !d.longPressed {
			vx, vy := d.tracker.Velocity()
			if abs32(vx) >= d.minFlingVelocity || abs32(vy) >= d.minFlingVelocity {
				vx = clampFloat32(vx, -d.maxFlingVelocity, d.maxFlingVelocity)
				vy = clampFloat32(vy, -d.maxFlingVelocity, d.maxFlingVelocity)
				down := d.down
				notify = func() { d.listener.OnFling(down, e, vx, vy) }
			}
		}
		d.pressed = false
		d.scrolling = false

	case ActionCancel:
		d.cancelLongPress()
		d.tracker.Clear()
		d.pressed = false
		d.scrolling = false
		d.longPressed = false
	}
	d.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// cancelLongPress must be called with mu held.
func (d *GestureDetector) cancelLongPress() {
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *GestureDetector) fireLongPress(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || !d.pressed || d.scrolling {
		d.mu.Unlock()
		return
	}
	d.longPressed = true
	d.timer = nil
	// Still locked: a release racing the timer is either cancelled above or
	// waits until the long press has been delivered.
	d.listener.OnLongPress(d.down)
	d.mu.Unlock()
}

// velocityWindow is how far back VelocityTracker looks.
const velocityWindow = 100 * time.Millisecond

// VelocityTracker estimates pointer velocity from recent samples.
type VelocityTracker struct {
	samples []MotionEvent
}

func (v *VelocityTracker) Clear() {
	v.samples = v.samples[:0]
}

// Add records a sample and forgets samples older than the window.
func (v *VelocityTracker) Add(e MotionEvent) {
	v.samples = append(v.samples, e)
	cutoff := e.Time.Add(-velocityWindow)
	i := 0
	for i < len(v.samples)-1 && v.samples[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		n := copy(v.samples, v.samples[i:])
		v.samples = v.samples[:n]
	}
}

// Velocity returns pixels per second over the sampled window.
func (v *VelocityTracker) Velocity() (vx, vy float32) {
	if len(v.samples) < 2 {
		return 0, 0
	}
	first, last := v.samples[0], v.samples[len(v.samples)-1]
	dt := last.Time.Sub(first.Time).Seconds()
	if dt <= 0 {
		return 0, 0
	}
	return float32(float64(last.X-first.X) / dt), float32(float64(last.Y-first.Y) / dt)
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
