package rtkernel

// TimerMode selects whether a Timer fires once or repeatedly.
type TimerMode int

const (
	TimerSingleShot TimerMode = iota
	TimerPeriodic
)

// TimerHandler is a software timer's expiry callback. It always runs on
// the kernel's dedicated timer task, never on the tick source's own
// goroutine, per spec.md §4.7.
type TimerHandler func(params any)

// Timer is a software timer per spec.md §4.7. It is driven entirely by
// SysTickHandler; intervalTicks/remaining count down in whole ticks, there
// is no sub-tick resolution.
type Timer struct {
	handler       TimerHandler
	params        any
	intervalTicks uint32
	remaining     uint32
	mode          TimerMode
	running       bool
}

// timerJob is one expired timer's handler queued for the timer task to
// run, decoupling "an interrupt noticed this timer expired" from "the
// handler actually ran" exactly as spec.md §4.7 requires.
type timerJob struct {
	handler TimerHandler
	params  any
}

// timerList is the running-timer list: a plain singly linked list walked
// in full on every tick, per spec.md §4.7's explicit "save next before
// mutating" traversal discipline (a single-shot timer unlinks itself on
// expiry mid-walk).
type timerList struct {
	head *timerNode
}

type timerNode struct {
	timer *Timer
	next  *timerNode
}

func newTimerList() *timerList {
	return &timerList{}
}

func (tl *timerList) add(t *Timer) *timerNode {
	n := &timerNode{timer: t}
	n.next = tl.head
	tl.head = n
	return n
}

func (tl *timerList) remove(target *Timer) {
	var prev *timerNode
	cur := tl.head
	for cur != nil {
		if cur.timer == target {
			if prev == nil {
				tl.head = cur.next
			} else {
				prev.next = cur.next
			}
			return
		}
		prev = cur
		cur = cur.next
	}
}

// tick decrements every running timer by one and, for any that reach zero,
// queues its handler for the timer task and either reloads it (periodic)
// or unlinks it (single-shot). Caller must hold the critical section; tick
// never releases it and never requests a switch - see scheduler.go's
// file-level note on why SysTickHandler must not call reschedule.
func (tl *timerList) tick(k *Kernel) {
	prev := (*timerNode)(nil)
	cur := tl.head
	for cur != nil {
		next := cur.next
		t := cur.timer

		t.remaining--
		if t.remaining != 0 {
			prev = cur
			cur = next
			continue
		}

		k.timerJobs = append(k.timerJobs, timerJob{handler: t.handler, params: t.params})
		k.giveSemaphoreLocked(k.timerSignal)

		if t.mode == TimerPeriodic {
			t.remaining = t.intervalTicks
			prev = cur
			cur = next
			continue
		}

		t.running = false
		if prev == nil {
			tl.head = next
		} else {
			prev.next = next
		}
		cur = next
	}
}

// NewTimer creates a software timer. It is not running until TimerStart is
// called.
func (k *Kernel) NewTimer(mode TimerMode, intervalTicks uint32, handler TimerHandler, params any) *Timer {
	return &Timer{mode: mode, intervalTicks: intervalTicks, handler: handler, params: params}
}

// TimerStart arms t, starting its countdown from intervalTicks. Starting
// an already-running timer restarts its countdown rather than stacking a
// second entry in the running-timer list.
func (k *Kernel) TimerStart(t *Timer) Status {
	k.cs.Enter()
	defer k.cs.Exit()
	if t.intervalTicks == 0 {
		return StatusInvalid
	}
	if t.running {
		t.remaining = t.intervalTicks
		return StatusOK
	}
	t.running = true
	t.remaining = t.intervalTicks
	k.timers.add(t)
	return StatusOK
}

// TimerStop disarms t. It is a no-op if t is not currently running.
func (k *Kernel) TimerStop(t *Timer) Status {
	k.cs.Enter()
	defer k.cs.Exit()
	if !t.running {
		return StatusOK
	}
	t.running = false
	k.timers.remove(t)
	return StatusOK
}

// giveSemaphoreLocked is SemaphoreGive's body without the critical-section
// management or the reschedule-on-higher-priority-waiter step: it is only
// ever called from SysTickHandler, which runs on the tick source's own
// goroutine and must never request a context switch directly (see
// scheduler.go).
func (k *Kernel) giveSemaphoreLocked(s *Semaphore) {
	if waiter := s.waitQueue.Get(); waiter != nil {
		k.taskSetReady(waiter, WakeupSemaphoreTaken)
		return
	}
	if s.count < s.maxCount {
		s.count++
	}
}

// timerTaskLoop is the dedicated timer task's entry point: drain the
// expired-handler queue, run each handler at task context (never holding
// the critical section while it runs), and block for more work when the
// queue is empty. Grounded on microbatch's submit/flush channel loop,
// adapted from a batch-of-jobs shape to a single-job-at-a-time drain since
// timer handlers must run in expiry order, not batched.
func (k *Kernel) timerTaskLoop(any) {
	for {
		k.SemaphoreTake(k.timerSignal, TaskMaxWait)

		k.cs.Enter()
		var job timerJob
		if len(k.timerJobs) > 0 {
			job = k.timerJobs[0]
			k.timerJobs = k.timerJobs[1:]
		}
		k.cs.Exit()

		if job.handler != nil {
			job.handler(job.params)
		}
	}
}
