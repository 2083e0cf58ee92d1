package rtkernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTCB(name string, p Priority) *TCB {
	return &TCB{name: name, priority: p}
}

func TestTaskQueueFIFO(t *testing.T) {
	q := newTaskQueue(false)
	a, b, c := newTestTCB("a", 5), newTestTCB("b", 1), newTestTCB("c", 9)

	q.Add(a)
	q.Add(b)
	q.Add(c)
	require.Equal(t, 3, q.Len())

	assert.Same(t, a, q.Get())
	assert.Same(t, b, q.Get())
	assert.Same(t, c, q.Get())
	assert.True(t, q.Empty())
}

func TestTaskQueuePriorityOrder(t *testing.T) {
	q := newTaskQueue(true)
	low, mid, high := newTestTCB("low", 200), newTestTCB("mid", 100), newTestTCB("high", 1)

	q.Add(low)
	q.Add(high)
	q.Add(mid)

	assert.Same(t, high, q.Get())
	assert.Same(t, mid, q.Get())
	assert.Same(t, low, q.Get())
}

func TestTaskQueuePriorityTiesAreFIFO(t *testing.T) {
	q := newTaskQueue(true)
	first := newTestTCB("first", 50)
	second := newTestTCB("second", 50)
	third := newTestTCB("third", 50)

	q.Add(first)
	q.Add(second)
	q.Add(third)

	assert.Same(t, first, q.Get())
	assert.Same(t, second, q.Get())
	assert.Same(t, third, q.Get())
}

func TestTaskQueueRemoveMidList(t *testing.T) {
	q := newTaskQueue(false)
	a, b, c := newTestTCB("a", 0), newTestTCB("b", 0), newTestTCB("c", 0)
	q.Add(a)
	q.Add(b)
	q.Add(c)

	q.Remove(b)
	require.Equal(t, 2, q.Len())
	assert.Nil(t, b.queue)

	assert.Same(t, a, q.Get())
	assert.Same(t, c, q.Get())
}

func TestTaskQueueRemoveNotQueuedIsNoop(t *testing.T) {
	q := newTaskQueue(false)
	other := newTaskQueue(false)
	a := newTestTCB("a", 0)
	other.Add(a)

	q.Remove(a) // a belongs to other, not q
	assert.Equal(t, 1, other.Len())
	assert.Same(t, other, a.queue)
}

func TestTaskQueueAddPanicsWhenAlreadyQueued(t *testing.T) {
	q := newTaskQueue(false)
	a := newTestTCB("a", 0)
	q.Add(a)
	assert.Panics(t, func() { q.Add(a) })
}

func TestTaskQueueEachAllowsSelfRemoval(t *testing.T) {
	q := newTaskQueue(false)
	a, b, c := newTestTCB("a", 0), newTestTCB("b", 0), newTestTCB("c", 0)
	q.Add(a)
	q.Add(b)
	q.Add(c)

	var visited []string
	q.Each(func(t *TCB) {
		visited = append(visited, t.name)
		if t == b {
			q.Remove(b)
		}
	})

	assert.Equal(t, []string{"a", "b", "c"}, visited)
	assert.Equal(t, 2, q.Len())
	assert.Nil(t, b.queue)
}
