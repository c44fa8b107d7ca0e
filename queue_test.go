package glview

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type countingRequester struct {
	n atomic.Int64
}

func (c *countingRequester) RequestRender() {
	c.n.Add(1)
}

func TestQueueDrainsInEnqueueOrder(t *testing.T) {
	q := NewTaskQueue(nil)

	var order []int
	for i := 0; i < 100; i++ {
		q.Enqueue(func() { order = append(order, i) })
	}

	assert.Equal(t, 100, q.DrainAndExecute())
	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueueCounterAndFlag(t *testing.T) {
	q := NewTaskQueue(nil)

	counter := 0
	flag := false
	q.Enqueue(func() { counter++ })
	q.Enqueue(func() { counter++ })
	q.Enqueue(func() { flag = true })

	q.DrainAndExecute()
	assert.Equal(t, 2, counter)
	assert.True(t, flag)
}

func TestQueueDrainEmpty(t *testing.T) {
	r := &countingRequester{}
	q := NewTaskQueue(r)

	assert.Equal(t, 0, q.DrainAndExecute())
	assert.Equal(t, 0, q.Len())
	assert.Zero(t, r.n.Load(), "draining must not request renders")

	action, ok := q.TryPop()
	assert.False(t, ok)
	assert.Nil(t, action)
}

func TestQueueSeparateDrains(t *testing.T) {
	q := NewTaskQueue(nil)

	first, second := 0, 0
	q.Enqueue(func() { first++ })
	assert.Equal(t, 1, q.DrainAndExecute())
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)

	q.Enqueue(func() { second++ })
	assert.Equal(t, 1, q.DrainAndExecute())
	assert.Equal(t, 1, first, "first action must not run again")
	assert.Equal(t, 1, second)
}

func TestQueueEnqueueRequestsRender(t *testing.T) {
	r := &countingRequester{}
	q := NewTaskQueue(r)

	q.Enqueue(func() {})
	q.Enqueue(func() {})
	q.Enqueue(nil)

	assert.Equal(t, int64(2), r.n.Load())
	assert.Equal(t, 2, q.Len())
}

func TestQueueActionEnqueuedDuringDrain(t *testing.T) {
	q := NewTaskQueue(nil)

	var order []string
	q.Enqueue(func() {
		order = append(order, "a")
		q.Enqueue(func() { order = append(order, "c") })
	})
	q.Enqueue(func() { order = append(order, "b") })

	assert.Equal(t, 3, q.DrainAndExecute())
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestQueueConcurrentProducers(t *testing.T) {
	const perProducer = 5000
	q := NewTaskQueue(&countingRequester{})

	type item struct{ producer, seq int }
	var got []item

	var g errgroup.Group
	for p := 0; p < 2; p++ {
		g.Go(func() error {
			for i := 0; i < perProducer; i++ {
				q.Enqueue(func() { got = append(got, item{p, i}) })
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 2*perProducer, q.DrainAndExecute())
	require.Len(t, got, 2*perProducer)

	next := map[int]int{}
	for _, it := range got {
		assert.Equal(t, next[it.producer], it.seq, "producer %d out of order", it.producer)
		next[it.producer] = it.seq + 1
	}
	assert.Equal(t, perProducer, next[0])
	assert.Equal(t, perProducer, next[1])
}

func TestQueueDrainWhileProducing(t *testing.T) {
	const total = 10000
	q := NewTaskQueue(nil)

	var ran atomic.Int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			q.Enqueue(func() { ran.Add(1) })
		}
	}()

	executed := 0
	for {
		executed += q.DrainAndExecute()
		select {
		case <-done:
			executed += q.DrainAndExecute()
			assert.Equal(t, total, executed)
			assert.Equal(t, int64(total), ran.Load())
			assert.Equal(t, 0, q.Len())
			return
		default:
		}
	}
}
