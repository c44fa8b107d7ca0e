package glview

import (
	"math"
	"time"
)

const (
	gravityEarth   = 9.80665 // m/s²
	inchesPerMeter = 39.37
	scrollFriction = 0.015
)

// Scroller animates a fling with constant deceleration. It is not safe for
// concurrent use; the view only touches it on the render thread.
type Scroller struct {
	now          func() time.Time
	deceleration float64 // px/s²

	finished bool
	start    time.Time
	duration time.Duration
	velocity float64
	coeffX   float64
	coeffY   float64
	startX   int
	startY   int
	finalX   int
	finalY   int
	currX    int
	currY    int
	minX     int
	maxX     int
	minY     int
	maxY     int
}

// NewScroller returns a finished scroller for a display of the given
// density (1.0 = 160 dpi). now may be nil to use time.Now.
func NewScroller(density float32, now func() time.Time) *Scroller {
	if density <= 0 {
		density = 1
	}
	if now == nil {
		now = time.Now
	}
	ppi := float64(density) * 160
	return &Scroller{
		now:          now,
		deceleration: gravityEarth * inchesPerMeter * ppi * scrollFriction,
		finished:     true,
	}
}

// Fling starts a fling from (startX, startY) with velocity in px/s. The
// position stays within [minX, maxX] x [minY, maxY].
func (s *Scroller) Fling(startX, startY int, velocityX, velocityY float32, minX, maxX, minY, maxY int) {
	velocity := math.Hypot(float64(velocityX), float64(velocityY))

	s.start = s.now()
	s.startX, s.startY = startX, startY
	s.currX, s.currY = startX, startY
	s.minX, s.maxX, s.minY, s.maxY = minX, maxX, minY, maxY
	s.velocity = velocity

	if velocity == 0 {
		s.coeffX, s.coeffY = 0, 0
		s.finalX, s.finalY = startX, startY
		s.duration = 0
		s.finished = true
		return
	}

	s.coeffX = float64(velocityX) / velocity
	s.coeffY = float64(velocityY) / velocity
	s.duration = time.Duration(velocity / s.deceleration * float64(time.Second))

	distance := velocity * velocity / (2 * s.deceleration)
	s.finalX = clampInt(startX+int(math.Round(distance*s.coeffX)), minX, maxX)
	s.finalY = clampInt(startY+int(math.Round(distance*s.coeffY)), minY, maxY)
	s.finished = false
}

// ComputeScrollOffset advances the animation to the current time. It returns
// true while the fling is still running.
func (s *Scroller) ComputeScrollOffset() bool {
	if s.finished {
		return false
	}

	elapsed := s.now().Sub(s.start)
	if elapsed >= s.duration {
		s.currX, s.currY = s.finalX, s.finalY
		s.finished = true
		return true
	}

	t := elapsed.Seconds()
	distance := s.velocity*t - s.deceleration*t*t/2
	s.currX = clampInt(s.startX+int(math.Round(distance*s.coeffX)), s.minX, s.maxX)
	s.currY = clampInt(s.startY+int(math.Round(distance*s.coeffY)), s.minY, s.maxY)
	if s.currX == s.finalX && s.currY == s.finalY {
		s.finished = true
	}
	return true
}

// ForceFinished stops (or marks as running) the animation without moving.
func (s *Scroller) ForceFinished(finished bool) {
	s.finished = finished
}

func (s *Scroller) IsFinished() bool {
	return s.finished
}

func (s *Scroller) CurrX() int { return s.currX }
func (s *Scroller) CurrY() int { return s.currY }

// FinalX and FinalY return where the fling will stop.
func (s *Scroller) FinalX() int { return s.finalX }
func (s *Scroller) FinalY() int { return s.finalY }

// Duration returns the total length of the current fling.
func (s *Scroller) Duration() time.Duration {
	return s.duration
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
