package rtkernel

import (
	"context"

	"github.com/cortexkernel/rtkernel/board"
)

// IdlePriority is the priority given to the kernel's own idle task: always
// ready, never anything else's equal, so it only runs when nothing else is.
const IdlePriority Priority = 255

// TimerTaskPriority is the priority given to the dedicated timer task
// spec.md §4.7 requires: it must preempt every application task so expired
// handlers run promptly.
const TimerTaskPriority Priority = 0

// Kernel is the Go rendering of what spec.md §9 calls the "taskPool" global
// singleton: every piece of scheduler-owned state, gathered behind one
// critical section instead of scattered package-level variables. Grounded
// on eventloop/loop.go's single Loop struct owning its run queue, timer
// heap and registry behind one mutex.
type Kernel struct {
	cfg    Config
	logger *Logger

	cs       board.CriticalSection
	switcher board.ContextSwitcher
	trap     board.PrivilegeTrap
	tick     board.TickSource

	// ready is the only queue the scheduler itself owns. A task blocked on
	// a primitive sits in that primitive's own wait queue instead (spec.md
	// §9: a task occupies at most one queue at a time); SysTickHandler
	// finds timed waits by scanning k.tasks rather than a dedicated
	// blocked queue, since that set spans every primitive's wait queue
	// plus plain sleeps, which have no queue at all.
	ready *taskQueue // priority-ordered

	current *TCB
	idle    *TCB

	tasks   []*TCB
	nextSeq uint64

	timers      *timerList
	timerTask   *TCB
	timerSignal *Semaphore
	timerJobs   []timerJob

	doneCh chan struct{}
}

// New constructs a Kernel from the given options, grounded on
// boljen-go-scheduler's NewScheduler(opts ...Option) style. The kernel is
// not running until Run is called.
func New(opts ...Option) *Kernel {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.TickSource == nil {
		cfg.TickSource = board.NewTicker(cfg.TickInterval)
	}

	k := &Kernel{
		cfg:      cfg,
		logger:   cfg.Logger,
		cs:       cfg.CriticalSection,
		switcher: cfg.ContextSwitcher,
		trap:     cfg.PrivilegeTrap,
		tick:     cfg.TickSource,
		ready:    newTaskQueue(true),
		timers:   newTimerList(),
		doneCh:   make(chan struct{}),
	}
	k.timerSignal = k.NewSemaphore(0, ^uint32(0))

	k.idle = k.newTCB("idle", IdlePriority, func(any) {
		for {
			k.taskYield()
		}
	}, nil)
	k.timerTask = k.newTCB("timer", TimerTaskPriority, k.timerTaskLoop, nil)

	return k
}

// newTCB allocates and registers a TCB, but does not make it ready. Must be
// called with the critical section held, or before Run (construction time).
func (k *Kernel) newTCB(name string, priority Priority, fn TaskFunc, params any) *TCB {
	k.nextSeq++
	t := &TCB{
		name:     name,
		entry:    fn,
		params:   params,
		priority: priority,
		status:   TaskSuspended,
		resumeCh: make(chan struct{}),
		seq:      k.nextSeq,
		k:        k,
	}
	k.tasks = append(k.tasks, t)
	return t
}

// TaskDefine allocates a new task control block. The task is created
// TaskSuspended; it must be handed to TaskStart before the scheduler will
// ever run it, matching spec.md §3's two-step create/start task lifecycle.
func (k *Kernel) TaskDefine(name string, priority Priority, fn TaskFunc, params any) *TCB {
	k.cs.Enter()
	defer k.cs.Exit()
	return k.newTCB(name, priority, fn, params)
}

// Tasks returns a snapshot of every task defined on this kernel, including
// the idle and timer tasks.
func (k *Kernel) Tasks() []*TCB {
	k.cs.Enter()
	defer k.cs.Exit()
	out := make([]*TCB, len(k.tasks))
	copy(out, k.tasks)
	return out
}

// Run starts the tick source and the scheduler, and blocks until ctx is
// cancelled. It is the Go rendering of spec.md §4.2's schedulerStart: the
// non-returning entry point that hands control to whichever task the
// scheduler selects first, here modelled by running every task's entry
// function on its own goroutine, gated by resumeCh, and letting the
// scheduler's context-switch protocol decide which one is unparked.
func (k *Kernel) Run(ctx context.Context) {
	for _, t := range k.tasks {
		k.spawn(t)
	}

	go k.tick.Run(func() { k.SysTickHandler() })

	k.cs.Enter()
	k.taskStart(k.idle)
	k.taskStart(k.timerTask)
	k.scheduleNextTask()

	<-ctx.Done()
	k.tick.Stop()
	close(k.doneCh)
}

// spawn launches t's entry function on its own goroutine, parked on
// resumeCh until the scheduler first resumes it. This goroutine-per-task
// model stands in for the single shared CPU stack a real Cortex-M kernel
// switches between; spec.md §1 explicitly leaves register/stack mechanics
// out of scope, so this file only needs to preserve the protocol (one task
// runs at a time, chosen by priority) and not the mechanism.
func (k *Kernel) spawn(t *TCB) {
	if t.entry == nil {
		return
	}
	go func() {
		t.Park()
		t.entry(t.params)
	}()
}

// switchTo runs the context-switch protocol to hand the CPU to next, then
// parks the previously running task, if any. Every caller
// has already moved the outgoing task into whatever queue matches its new
// status (ready, blocked, or suspended) before reaching here, so switchTo
// only ever sets the incoming task's status.
func (k *Kernel) switchTo(next *TCB) {
	k.cs.Enter()
	prev := k.current
	k.current = next
	next.status = TaskRunning
	k.traceSwitch(prev, next)
	k.cs.Exit()

	if prev == next {
		return
	}
	var from board.Switchable
	if prev != nil {
		from = prev
	}
	k.switcher.RequestSwitch(from, next)
}
