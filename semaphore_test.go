package rtkernel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSemaphoreGiveSatisfiesWaitingTakeImmediately is the "producer wakes
// waiting consumer" property: a Take blocked on an empty semaphore must be
// released by the very next Give, without ever observing StatusTimeout. The
// give itself comes from a second, lower-priority task rather than the test
// goroutine directly: Give can trigger an immediate context switch, and that
// protocol may only run on the currently scheduled task's own goroutine
// (scheduler.go's file header), so only another task may safely call it
// once the scheduler is running.
func TestSemaphoreGiveSatisfiesWaitingTakeImmediately(t *testing.T) {
	k := newTestKernel()
	s := k.NewSemaphore(0, 1)
	result := make(chan Status, 1)

	giveResult := make(chan Status, 1)

	waiter := k.TaskDefine("waiter", 10, func(any) {
		result <- k.SemaphoreTake(s, TaskMaxWait)
		k.TaskSleepTicks(TaskMaxWait)
	}, nil)
	giver := k.TaskDefine("giver", 20, func(any) {
		for {
			k.cs.Enter()
			ready := s.waitQueue.Len() == 1
			k.cs.Exit()
			if ready {
				break
			}
			k.TaskSleepTicks(1)
		}
		giveResult <- k.SemaphoreGive(s)
	}, nil)
	k.TaskStart(waiter)
	k.TaskStart(giver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Run(ctx)

	select {
	case st := <-giveResult:
		assert.Equal(t, StatusOK, st)
	case <-time.After(time.Second):
		t.Fatal("giver never gave")
	}
	select {
	case st := <-result:
		assert.Equal(t, StatusOK, st)
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}

	k.cs.Enter()
	count := s.count
	k.cs.Exit()
	assert.Equal(t, uint32(0), count, "direct hand-off must not also bump count")
}

// TestSemaphoreTakeNoWaitReturnsBusyWhenEmpty covers the non-blocking path.
func TestSemaphoreTakeNoWaitReturnsBusyWhenEmpty(t *testing.T) {
	k := newTestKernel()
	s := k.NewSemaphore(0, 1)
	assert.Equal(t, StatusBusy, k.SemaphoreTake(s, TaskNoWait))
}

// TestSemaphoreGiveBeyondMaxCountReturnsNoSem covers the saturation edge
// case: Give past maxCount must not silently wrap or overflow count.
func TestSemaphoreGiveBeyondMaxCountReturnsNoSem(t *testing.T) {
	k := newTestKernel()
	s := k.NewSemaphore(1, 1)
	assert.Equal(t, StatusNoSem, k.SemaphoreGive(s))
	assert.Equal(t, uint32(1), s.count)
}

// TestSemaphoreGiveThenTakeRoundTrips covers the trivial uncontended path
// with no task context at all (k.current is nil), exercising the
// TaskNoWait/immediate-availability branches that never touch k.current.
func TestSemaphoreGiveThenTakeRoundTrips(t *testing.T) {
	k := newTestKernel()
	s := k.NewSemaphore(0, 4)
	require.Equal(t, StatusOK, k.SemaphoreGive(s))
	require.Equal(t, StatusOK, k.SemaphoreGive(s))
	assert.Equal(t, uint32(2), s.count)

	assert.Equal(t, StatusOK, k.SemaphoreTake(s, TaskNoWait))
	assert.Equal(t, uint32(1), s.count)
}
