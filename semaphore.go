package rtkernel

// Semaphore is a counting semaphore per spec.md §4.4. Give hands off
// directly to the highest-priority waiter rather than incrementing count
// when a waiter exists, so a pending Take always wins the token instead of
// racing a freshly-arrived Take for it.
type Semaphore struct {
	k *Kernel

	count    uint32
	maxCount uint32

	waitQueue *taskQueue
}

// NewSemaphore creates a counting semaphore starting at initial, capped at
// maxCount (Give beyond maxCount is a no-op returning StatusNoSem).
func (k *Kernel) NewSemaphore(initial, maxCount uint32) *Semaphore {
	return &Semaphore{k: k, count: initial, maxCount: maxCount, waitQueue: newTaskQueue(true)}
}

// Take acquires one unit of s, waiting up to waitTicks ticks if none are
// available.
func (k *Kernel) SemaphoreTake(s *Semaphore, waitTicks uint32) Status {
	k.cs.Enter()

	if s.count == 0 && waitTicks != TaskNoWait && k.current == nil {
		k.fatalf("SemaphoreTake would block outside any task context")
	}

	if s.count > 0 {
		s.count--
		k.cs.Exit()
		return StatusOK
	}

	if waitTicks == TaskNoWait {
		k.cs.Exit()
		return StatusBusy
	}

	s.waitQueue.Add(k.current)
	reason := k.taskBlock(BlockWaitSemaphore, waitTicks)
	if reason == WakeupWaitTimeout {
		return StatusTimeout
	}
	return StatusOK
}

// Give releases one unit of s. If a task is already waiting it is woken
// directly (count is left unchanged, it never rose above zero); otherwise
// count is incremented, up to maxCount.
func (k *Kernel) SemaphoreGive(s *Semaphore) Status {
	k.cs.Enter()

	if waiter := s.waitQueue.Get(); waiter != nil {
		k.wakeAndMaybePreempt(waiter, WakeupSemaphoreTaken)
		return StatusOK
	}

	if s.count >= s.maxCount {
		k.cs.Exit()
		return StatusNoSem
	}
	s.count++
	k.cs.Exit()
	return StatusOK
}
