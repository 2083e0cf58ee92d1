package rtkernel

import "time"

// This file implements spec.md §4.2's scheduler operations. The task
// control flow is modelled with one goroutine per task, each parked on its
// own TCB.resumeCh except while logically "current"; apart from each task
// goroutine's initial Park in spawn (kernel.go), switchTo (kernel.go) is
// the only place that ever calls Park/Resume, and apart from Run's first
// dispatch it is only ever called from the currently running task's own
// goroutine. SysTickHandler
// runs on the tick source's goroutine instead, so it only ever updates
// queues under the critical section and never requests a switch directly -
// a newly-ready higher-priority task is picked up at the current task's
// next checkpoint (yield, block, or a primitive call). Real hardware can
// tail-chain a PendSV mid-instruction; spec.md §1 leaves that mechanism
// out of scope, so this is the documented host-simulation rendering of it.

// taskStart marks t ready and enqueues it. Caller must hold the critical
// section.
func (k *Kernel) taskStart(t *TCB) {
	t.status = TaskReady
	t.wakeupReason = WakeupNone
	k.ready.Add(t)
}

// TaskStart transitions a task from TaskSuspended (its state immediately
// after TaskDefine) to ready, matching spec.md §3's two-step lifecycle.
func (k *Kernel) TaskStart(t *TCB) {
	k.cs.Enter()
	k.taskStart(t)
	if k.current == nil {
		// Scheduler not running yet; Run's own startup sequence will pick
		// the first task to switch to.
		k.cs.Exit()
		return
	}
	k.reschedule()
}

// TaskResume reverses TaskSuspend, restoring a suspended task to ready.
// It is a no-op if t is not currently suspended.
func (k *Kernel) TaskResume(t *TCB) {
	k.cs.Enter()
	if t.status != TaskSuspended {
		k.cs.Exit()
		return
	}
	k.taskStart(t)
	t.wakeupReason = WakeupResume
	if k.current == nil {
		k.cs.Exit()
		return
	}
	k.reschedule()
}

// TaskSuspend removes t from scheduling entirely, wherever it currently
// sits - ready, blocked, or any primitive's wait queue - per the safest
// reading of spec.md §9's open question on whether suspend must unwind a
// pending wait: a suspended task must not be silently woken by a mutex
// unlock or timer expiry it can no longer observe.
func (k *Kernel) TaskSuspend(t *TCB) {
	k.cs.Enter()
	if t.queue != nil {
		t.queue.Remove(t)
	}
	t.status = TaskSuspended
	t.wakeupReason = WakeupNone
	t.timedWait = false
	t.remainingSleepTicks = 0
	if t != k.current {
		k.cs.Exit()
		return
	}
	k.scheduleNextTask()
}

// taskYield is the internal, lock-managed half of TaskYield.
func (k *Kernel) taskYield() {
	k.cs.Enter()
	k.reschedule()
}

// TaskYield gives up the remainder of the current task's turn, per
// TASKS_RUN_PRIV routing the actual reschedule either directly or through
// the PrivilegeTrap (spec.md §6).
func (k *Kernel) TaskYield() {
	if k.cfg.TasksRunPriv {
		k.taskYield()
		return
	}
	k.trap.Trap(k.taskYield)
}

// taskBlock marks the current task blocked and hands off to whoever is
// next. Callers that are waiting on a primitive (mutex, semaphore,
// condition variable, message queue) must add the current task to that
// primitive's own wait queue before calling taskBlock, since that queue is
// what taskSetReady later removes it from; a plain sleep has no wait
// queue, so TaskSleepTicks calls this directly. Caller must hold the
// critical section; it is released as part of the handoff. By the time
// taskBlock returns - after this task has been made ready again by
// taskSetReady - the critical section is NOT held; callers that need to
// inspect shared state afterward must re-enter it themselves.
func (k *Kernel) taskBlock(reason BlockReason, waitTicks uint32) WakeupReason {
	cur := k.current
	cur.status = TaskBlocked
	cur.blockedReason = reason
	cur.wakeupReason = WakeupNone
	if waitTicks == TaskMaxWait {
		cur.timedWait = false
		cur.remainingSleepTicks = 0
	} else {
		cur.timedWait = true
		cur.remainingSleepTicks = waitTicks
	}
	k.scheduleNextTask()
	return cur.wakeupReason
}

// taskSetReady moves t (out of a primitive's own wait queue, if it sits in
// one; a plain sleep has none) onto the ready queue, recording why it was
// woken. Caller must hold the critical section; taskSetReady does not
// release it or request a switch, so a caller running as the current task
// can batch several wakeups before calling reschedule once.
func (k *Kernel) taskSetReady(t *TCB, reason WakeupReason) {
	if t.queue != nil {
		t.queue.Remove(t)
	}
	t.status = TaskReady
	t.wakeupReason = reason
	t.timedWait = false
	t.remainingSleepTicks = 0
	k.ready.Add(t)
}

// reschedule re-queues the current task as ready (if there is one) and
// lets scheduleNextTask pick whoever should actually run - used any time a
// kernel operation may have just made a higher- or equal-priority task
// ready while the caller keeps running otherwise. Caller must hold the
// critical section; scheduleNextTask releases it.
func (k *Kernel) reschedule() {
	if k.current != nil {
		k.current.status = TaskReady
		k.ready.Add(k.current)
	}
	k.scheduleNextTask()
}

// scheduleNextTask pops the highest-priority ready task and switches to
// it. Callers must have already placed the previously running task (if
// any) into whichever queue matches its new status before calling this.
// Caller must hold the critical section; scheduleNextTask releases it.
func (k *Kernel) scheduleNextTask() {
	next := k.ready.Get()
	k.cs.Exit()
	if next == nil {
		k.fatalf("no ready task available")
		return
	}
	k.switchTo(next)
}

// wakeAndMaybePreempt marks t ready via taskSetReady, then lets it preempt
// the currently running task immediately if t's priority is at least as
// high as the current task's (equal priority included) - the
// "yield if the woken waiter's priority is at least as high" rule spec.md
// §4.3/§4.4 calls for on mutex unlock and semaphore give. If there is no
// current task (this primitive was given from outside any task, e.g. test
// setup or an interrupt-context caller with no task context), there is
// nothing to preempt and t simply stays on the ready queue. Caller must
// hold the critical section; it is always released by the time this
// returns.
func (k *Kernel) wakeAndMaybePreempt(t *TCB, reason WakeupReason) {
	k.taskSetReady(t, reason)
	if k.current != nil && t.priority <= k.current.priority {
		k.reschedule()
		return
	}
	k.cs.Exit()
}

// setPriority changes t's priority, re-homing it within whatever queue it
// currently occupies so priority-ordered queues (the ready queue, or a
// mutex's priority-ordered wait queue) stay correctly sorted. Caller must
// hold the critical section.
func (k *Kernel) setPriority(t *TCB, p Priority) {
	if t.priority == p {
		return
	}
	q := t.queue
	if q != nil && q.priorityOrder {
		q.Remove(t)
		t.priority = p
		q.Add(t)
		return
	}
	t.priority = p
}

// ticksFromDuration converts a wall-clock duration to a tick count against
// the configured TickInterval, rounding up so a sleep never wakes early.
func (k *Kernel) ticksFromDuration(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	interval := k.cfg.TickInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticks := (d + interval - 1) / interval
	return uint32(ticks)
}

// TaskSleepTicks blocks the current task for exactly ticks SysTick periods.
func (k *Kernel) TaskSleepTicks(ticks uint32) {
	k.cs.Enter()
	if ticks == 0 {
		k.cs.Exit()
		return
	}
	k.taskBlock(BlockSleep, ticks)
}

// TaskSleepMS blocks the current task for approximately ms milliseconds,
// rounded up to the nearest whole tick.
func (k *Kernel) TaskSleepMS(ms uint32) {
	k.TaskSleepTicks(k.ticksFromDuration(time.Duration(ms) * time.Millisecond))
}

// TaskSleepUS blocks the current task for approximately us microseconds,
// rounded up to the nearest whole tick.
func (k *Kernel) TaskSleepUS(us uint32) {
	k.TaskSleepTicks(k.ticksFromDuration(time.Duration(us) * time.Microsecond))
}

// SysTickHandler is the periodic tick entry point (spec.md §6's
// SYSTICK_HANDLER), registered with the configured board.TickSource. It
// scans every defined task, decrements each blocked task's timed wait,
// promotes any that
// reach zero, and drives the software timer list (timer.go). It never
// requests a context switch itself - see the file-level doc comment - so
// it is safe to call from a goroutine other than the current task's.
func (k *Kernel) SysTickHandler() {
	k.cs.Enter()
	timedOut := 0
	for _, t := range k.tasks {
		if t.status != TaskBlocked || !t.timedWait {
			continue
		}
		t.remainingSleepTicks--
		if t.remainingSleepTicks != 0 {
			continue
		}
		reason := WakeupWaitTimeout
		if t.blockedReason == BlockSleep {
			reason = WakeupSleepTimeTimeout
		}
		k.taskSetReady(t, reason)
		timedOut++
	}
	k.timers.tick(k)
	k.traceTick(timedOut)
	k.cs.Exit()
}
