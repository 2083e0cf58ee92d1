package rtkernel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestCondVarWaitUnblocksOnSignalAfterPredicateBecomesTrue is the
// "condvar ping-pong" property: a waiter parked on a predicate loop must be
// released once a signaler sets the predicate and signals, and must observe
// the mutex reacquired and the predicate true by the time Wait returns.
func TestCondVarWaitUnblocksOnSignalAfterPredicateBecomesTrue(t *testing.T) {
	k := newTestKernel()
	m := k.NewMutex()
	cv := k.NewCondVar()
	ready := false
	result := make(chan bool, 1)
	signalResult := make(chan bool, 1)

	waiter := k.TaskDefine("waiter", 10, func(any) {
		k.MutexLock(m, TaskMaxWait)
		for !ready {
			k.CondVarWait(cv, m, TaskMaxWait)
		}
		result <- ready
		k.MutexUnlock(m)
		k.TaskSleepTicks(TaskMaxWait)
	}, nil)
	signaler := k.TaskDefine("signaler", 20, func(any) {
		for {
			k.cs.Enter()
			blocked := cv.waitQueue.Len() == 1
			k.cs.Exit()
			if blocked {
				break
			}
			k.TaskSleepTicks(1)
		}
		k.MutexLock(m, TaskMaxWait)
		ready = true
		signalResult <- k.CondVarSignal(cv)
		k.MutexUnlock(m)
		k.TaskSleepTicks(TaskMaxWait)
	}, nil)
	k.TaskStart(waiter)
	k.TaskStart(signaler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Run(ctx)

	select {
	case woke := <-signalResult:
		assert.True(t, woke, "signal against a non-empty waitQueue must report true")
	case <-time.After(time.Second):
		t.Fatal("signaler never signalled")
	}
	select {
	case got := <-result:
		assert.True(t, got)
	case <-time.After(time.Second):
		t.Fatal("waiter never observed the predicate becoming true")
	}
}

// TestCondVarSignalOnEmptyWaitQueueReturnsFalse covers the no-op case named
// in spec.md §4.5 scenario 3: Signal against a condvar nobody is waiting on
// must report false rather than pretending success.
func TestCondVarSignalOnEmptyWaitQueueReturnsFalse(t *testing.T) {
	k := newTestKernel()
	cv := k.NewCondVar()
	assert.False(t, k.CondVarSignal(cv))
}

// TestCondVarBroadcastOnEmptyWaitQueueReturnsFalse mirrors
// TestCondVarSignalOnEmptyWaitQueueReturnsFalse for Broadcast.
func TestCondVarBroadcastOnEmptyWaitQueueReturnsFalse(t *testing.T) {
	k := newTestKernel()
	cv := k.NewCondVar()
	assert.False(t, k.CondVarBroadcast(cv))
}

// TestCondVarBroadcastWakesEveryWaiter covers Broadcast releasing more than
// one waiter at once, rather than only the highest-priority one as Signal
// does.
func TestCondVarBroadcastWakesEveryWaiter(t *testing.T) {
	k := newTestKernel()
	m := k.NewMutex()
	cv := k.NewCondVar()
	woke := make(chan string, 2)
	broadcastResult := make(chan bool, 1)

	waiterA := k.TaskDefine("waiter-a", 10, func(any) {
		k.MutexLock(m, TaskMaxWait)
		k.CondVarWait(cv, m, TaskMaxWait)
		k.MutexUnlock(m)
		woke <- "waiter-a"
		k.TaskSleepTicks(TaskMaxWait)
	}, nil)
	waiterB := k.TaskDefine("waiter-b", 11, func(any) {
		k.MutexLock(m, TaskMaxWait)
		k.CondVarWait(cv, m, TaskMaxWait)
		k.MutexUnlock(m)
		woke <- "waiter-b"
		k.TaskSleepTicks(TaskMaxWait)
	}, nil)
	broadcaster := k.TaskDefine("broadcaster", 20, func(any) {
		for {
			k.cs.Enter()
			both := cv.waitQueue.Len() == 2
			k.cs.Exit()
			if both {
				break
			}
			k.TaskSleepTicks(1)
		}
		broadcastResult <- k.CondVarBroadcast(cv)
		k.TaskSleepTicks(TaskMaxWait)
	}, nil)
	k.TaskStart(waiterA)
	k.TaskStart(waiterB)
	k.TaskStart(broadcaster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Run(ctx)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-woke:
			seen[name] = true
		case <-time.After(time.Second):
			t.Fatalf("only %d of 2 waiters woke", i)
		}
	}
	assert.True(t, seen["waiter-a"])
	assert.True(t, seen["waiter-b"])

	select {
	case woke := <-broadcastResult:
		assert.True(t, woke, "broadcast against a non-empty waitQueue must report true")
	case <-time.After(time.Second):
		t.Fatal("broadcaster never broadcast")
	}
}
