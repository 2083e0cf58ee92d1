// Package rtkernel implements the core of a small preemptive real-time
// kernel for single-core, fixed-priority scheduling of statically defined
// tasks: task control blocks, priority-ordered ready/blocked queues, a
// tick-driven timeout mechanism, and the standard synchronization
// primitives built on top of it (mutex with priority inheritance, counting
// semaphore, condition variable, bounded message queue) plus a software
// timer subsystem serviced by a dedicated timer task.
//
// The package targets single-core ARM Cortex-M class hardware, but runs
// here as a host simulation: tasks are goroutines, the tick source is a
// time.Ticker by default, and the kernel's single critical section is a
// sync.Mutex. Everything the real hardware would own - register save and
// restore, MSP/PSP manipulation, the tail-chained context-switch interrupt,
// and SysTick configuration - is named only at the boundary, via the
// CriticalSection, ContextSwitcher, PrivilegeTrap and TickSource interfaces
// in the board subpackage, so a real board-support package can replace any
// one of them without touching the scheduling algorithm.
package rtkernel
