package rtkernel

// Mutex is a binary lock with optional priority inheritance, grounded on
// spec.md §4.3. Unlike sync.Mutex it is owner-aware: only the task that
// locked it may unlock it, and it tracks the owner's priority so it can be
// temporarily boosted and later restored.
type Mutex struct {
	k *Kernel

	locked bool
	owner  *TCB

	// ownerDefaultPriority is the owner's priority before any inheritance
	// boost, or -1 if the owner has not been boosted while holding this
	// lock. Saved once on the first boost, restored in full on unlock.
	ownerDefaultPriority int

	waitQueue *taskQueue
}

// NewMutex creates an unlocked mutex bound to k.
func (k *Kernel) NewMutex() *Mutex {
	return &Mutex{k: k, ownerDefaultPriority: -1, waitQueue: newTaskQueue(true)}
}

// Lock attempts to acquire m, waiting up to waitTicks ticks if it is
// already held (TaskMaxWait to wait forever, TaskNoWait to never block).
// When the kernel is configured with priority inheritance and the calling
// task outranks the current owner, the owner's priority is boosted for as
// long as it holds m.
func (k *Kernel) MutexLock(m *Mutex, waitTicks uint32) Status {
	k.cs.Enter()

	if k.current == nil {
		k.fatalf("MutexLock called outside any task context")
	}

	if !m.locked {
		m.locked = true
		m.owner = k.current
		k.cs.Exit()
		return StatusOK
	}

	if m.owner == k.current {
		k.cs.Exit()
		return StatusBusy
	}

	if waitTicks == TaskNoWait {
		k.cs.Exit()
		return StatusBusy
	}

	if k.cfg.PriorityInheritance && k.current.priority < m.owner.priority {
		if m.ownerDefaultPriority < 0 {
			m.ownerDefaultPriority = int(m.owner.priority)
		}
		k.setPriority(m.owner, k.current.priority)
	}

	m.waitQueue.Add(k.current)
	reason := k.taskBlock(BlockWaitMutex, waitTicks)
	if reason == WakeupWaitTimeout {
		return StatusTimeout
	}
	return StatusOK
}

// Unlock releases m, restoring the caller's inherited priority (if any)
// and handing the lock directly to the highest-priority waiter, if there
// is one. If that waiter's priority is at least as high as the caller's
// own (post-restore) priority, the caller yields immediately so the new
// owner runs next, per spec.md §4.3's scheduling note.
func (k *Kernel) MutexUnlock(m *Mutex) Status {
	k.cs.Enter()

	if !m.locked {
		k.cs.Exit()
		return StatusNotLocked
	}
	if m.owner != k.current {
		k.cs.Exit()
		return StatusNotOwner
	}

	if m.ownerDefaultPriority >= 0 {
		k.setPriority(m.owner, Priority(m.ownerDefaultPriority))
		m.ownerDefaultPriority = -1
	}

	next := m.waitQueue.Get()
	if next == nil {
		m.locked = false
		m.owner = nil
		k.cs.Exit()
		return StatusOK
	}

	m.owner = next
	k.wakeAndMaybePreempt(next, WakeupMutexLocked)
	return StatusOK
}
