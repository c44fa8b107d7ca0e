package glview

import "sync"

// RenderRequester asks a render thread to produce a new frame.
type RenderRequester interface {
	RequestRender()
}

// TaskQueue is a FIFO of actions that must run on the render thread.
//
// Any number of goroutines may Enqueue. Exactly one goroutine, the render
// thread, calls DrainAndExecute once per frame before drawing. Enqueue asks
// for a render pass so every queued action is eventually drained even when
// nothing else is animating.
type TaskQueue struct {
	mu      sync.Mutex
	pending []func()
	head    int

	surface RenderRequester
}

// NewTaskQueue returns an empty queue that requests render passes on r.
// r may be nil, in which case draining is left entirely to the caller.
func NewTaskQueue(r RenderRequester) *TaskQueue {
	return &TaskQueue{surface: r}
}

// Enqueue appends action and requests a render pass. It never blocks on the
// render thread. Nil actions are ignored.
func (q *TaskQueue) Enqueue(action func()) {
	if action == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, action)
	q.mu.Unlock()

	if q.surface != nil {
		q.surface.RequestRender()
	}
}

// TryPop removes and returns the oldest action. ok is false when the queue
// is empty.
func (q *TaskQueue) TryPop() (action func(), ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.pending) {
		return nil, false
	}
	action = q.pending[q.head]
	q.pending[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.pending):
		q.pending = q.pending[:0]
		q.head = 0
	case q.head >= 256 && q.head*2 >= len(q.pending):
		// Producers are keeping up with the drain; drop the consumed prefix.
		n := copy(q.pending, q.pending[q.head:])
		clear(q.pending[n:])
		q.pending = q.pending[:n]
		q.head = 0
	}
	return action, true
}

// DrainAndExecute runs queued actions in order until the queue is empty and
// returns how many ran. Each action completes before the next is removed,
// and actions enqueued while draining run in the same call. Must only be
// called from the render thread.
func (q *TaskQueue) DrainAndExecute() int {
	n := 0
	for {
		action, ok := q.TryPop()
		if !ok {
			return n
		}
		action()
		n++
	}
}

// Len returns the number of actions waiting to run.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) - q.head
}
