package glview

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrSurfaceRunning is returned by Run when the surface's render loop is
// already active.
var ErrSurfaceRunning = errors.New("glview: surface render loop already running")

// Renderer receives surface callbacks on the render thread.
type Renderer interface {
	// SurfaceCreated is called when a drawing surface becomes ready.
	SurfaceCreated()

	// SurfaceChanged is called after SurfaceCreated and whenever the pixel
	// size changes.
	SurfaceChanged(width, height int)

	// DrawFrame draws one frame.
	DrawFrame()
}

// Surface is the handle for one rendering surface. Producers hold it to
// request render passes; the render thread runs its loop.
//
// Rendering is on demand: a frame is drawn only after RequestRender (or a
// lifecycle change) wakes the loop. Requests made while a frame is pending
// are coalesced into that frame.
type Surface struct {
	requests chan struct{}

	mu        sync.Mutex
	created   bool // pending SurfaceCreated
	lost      bool // pending surface loss
	sizeDirty bool
	width     int
	height    int

	running atomic.Bool
	frames  atomic.Uint64
}

// NewSurface returns a surface with no drawing target yet.
func NewSurface() *Surface {
	return &Surface{requests: make(chan struct{}, 1)}
}

// RequestRender wakes the render loop. It never blocks and is safe to call
// from any goroutine.
func (s *Surface) RequestRender() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// Created reports that the platform drawing surface is ready.
func (s *Surface) Created() {
	s.mu.Lock()
	s.created = true
	s.mu.Unlock()
	s.RequestRender()
}

// Destroyed reports that the platform drawing surface went away. No frames
// are drawn until the next Created.
func (s *Surface) Destroyed() {
	s.mu.Lock()
	s.created = false
	s.lost = true
	s.mu.Unlock()
	s.RequestRender()
}

// Resized records the surface's new pixel size. Only the latest size is
// delivered if several arrive between frames.
func (s *Surface) Resized(width, height int) {
	s.mu.Lock()
	if width != s.width || height != s.height {
		s.width, s.height = width, height
		s.sizeDirty = true
	}
	s.mu.Unlock()
	s.RequestRender()
}

// Size returns the last reported pixel size.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Frames returns the number of frames drawn so far.
func (s *Surface) Frames() uint64 {
	return s.frames.Load()
}

// Run is the render loop. It locks the calling goroutine to its OS thread,
// since native drawing contexts are bound to the thread that created them,
// and returns nil when ctx is done.
func (s *Surface) Run(ctx context.Context, r Renderer) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSurfaceRunning
	}
	defer s.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ready := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.requests:
		}

		s.mu.Lock()
		created, lost := s.created, s.lost
		s.created, s.lost = false, false
		if lost {
			ready = false
		}
		if created {
			ready = true
			s.sizeDirty = s.width > 0 || s.height > 0
		}
		resized := ready && s.sizeDirty
		width, height := s.width, s.height
		if resized {
			s.sizeDirty = false
		}
		s.mu.Unlock()

		if !ready {
			continue
		}
		if created {
			r.SurfaceCreated()
		}
		if resized {
			r.SurfaceChanged(width, height)
		}
		r.DrawFrame()
		s.frames.Add(1)
	}
}
